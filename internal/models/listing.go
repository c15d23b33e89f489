package models

import (
	"encoding/json"
	"time"
)

// Listing is a storefront product as stored in the remote catalog.
// Only the fields requested through a field projection are populated. The
// payload it was decoded from is kept so list responses pass it through
// untouched.
type Listing struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title,omitempty"`
	BodyHTML  string    `json:"body_html,omitempty"`
	Vendor    string    `json:"vendor,omitempty"`
	Status    string    `json:"status,omitempty"`
	Tags      string    `json:"tags"`
	Variants  []Variant `json:"variants,omitempty"`
	Images    []Image   `json:"images,omitempty"`
	CreatedAt string    `json:"created_at,omitempty"`
	UpdatedAt string    `json:"updated_at,omitempty"`

	raw json.RawMessage
}

func (l *Listing) UnmarshalJSON(b []byte) error {
	type plain Listing
	if err := json.Unmarshal(b, (*plain)(l)); err != nil {
		return err
	}
	l.raw = append(json.RawMessage(nil), b...)
	return nil
}

type Variant struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Title     string `json:"title,omitempty"`
	Price     string `json:"price"`
	SKU       string `json:"sku,omitempty"`
}

type Image struct {
	ID        int64  `json:"id,omitempty"`
	ProductID int64  `json:"product_id,omitempty"`
	Position  int    `json:"position,omitempty"`
	Src       string `json:"src"`
	Width     int    `json:"width,omitempty"`
	Height    int    `json:"height,omitempty"`
}

type Metafield struct {
	ID        int64  `json:"id,omitempty"`
	Namespace string `json:"namespace"`
	Key       string `json:"key"`
	Value     any    `json:"value"`
	Type      string `json:"type"`

	raw json.RawMessage
}

func (m *Metafield) UnmarshalJSON(b []byte) error {
	type plain Metafield
	if err := json.Unmarshal(b, (*plain)(m)); err != nil {
		return err
	}
	m.raw = append(json.RawMessage(nil), b...)
	return nil
}

// MarshalJSON writes a decoded metafield back unchanged.
func (m Metafield) MarshalJSON() ([]byte, error) {
	if len(m.raw) > 0 {
		return m.raw, nil
	}
	type plain Metafield
	return json.Marshal(plain(m))
}

// ListingWithMetafields is the list response item: the product exactly as the
// catalog returned it plus a metafields key.
type ListingWithMetafields struct {
	Listing
	Metafields []Metafield `json:"metafields"`
}

func (l ListingWithMetafields) MarshalJSON() ([]byte, error) {
	mfs := l.Metafields
	if mfs == nil {
		mfs = []Metafield{}
	}
	encodedMfs, err := json.Marshal(mfs)
	if err != nil {
		return nil, err
	}

	fields := map[string]json.RawMessage{}
	if len(l.raw) > 0 {
		if err := json.Unmarshal(l.raw, &fields); err != nil {
			return nil, err
		}
	} else {
		type plain Listing
		encoded, err := json.Marshal(plain(l.Listing))
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(encoded, &fields); err != nil {
			return nil, err
		}
		for _, key := range []string{"variants", "images"} {
			if _, ok := fields[key]; !ok {
				fields[key] = json.RawMessage("[]")
			}
		}
	}
	fields["metafields"] = encodedMfs
	return json.Marshal(fields)
}

// ProductInput is the writable part of a product sent on create and update.
type ProductInput struct {
	ID         int64       `json:"id,omitempty"`
	Title      string      `json:"title"`
	BodyHTML   string      `json:"body_html"`
	Tags       string      `json:"tags"`
	Variants   []Variant   `json:"variants,omitempty"`
	Metafields []Metafield `json:"metafields,omitempty"`
}

// ImageInput uploads either a base64 attachment or a remote src.
type ImageInput struct {
	Attachment string `json:"attachment,omitempty"`
	Src        string `json:"src,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Position   int    `json:"position,omitempty"`
}

// LocalImage is an uploaded file staged on disk until it is sent upstream.
type LocalImage struct {
	Path     string
	Filename string
}

type CreateListingInput struct {
	CallerID string
	Title    string
	BodyHTML string
	Price    string
	Size     string
	Bedrooms int
	Baths    string
	Images   []LocalImage
}

type UpdateListingInput struct {
	ProductID int64
	CallerID  string
	Title     string
	BodyHTML  string
	Price     string
	Images    []LocalImage
}

type ListingResult struct {
	ProductID int64
	Images    []Image
}

type ListingEventType string

const (
	ListingCreated ListingEventType = "listing.created"
	ListingUpdated ListingEventType = "listing.updated"
	ListingDeleted ListingEventType = "listing.deleted"
)

type ListingEvent struct {
	Type       ListingEventType `json:"type"`
	ProductID  int64            `json:"product_id"`
	CallerID   string           `json:"storefront_user_id"`
	ImageCount int              `json:"image_count"`
	OccurredAt time.Time        `json:"occurred_at"`
}
