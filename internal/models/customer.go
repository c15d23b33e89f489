package models

import "strings"

// Customer is the identity record of a storefront user.
type Customer struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Note  string `json:"note"`
	Tags  string `json:"tags,omitempty"`
}

type Tier string

const (
	TierPublic  Tier = "public"
	TierPrivate Tier = "private"

	PrivateTierMarker = "user_type:private"
)

// Tier derives the tier from the free text note.
func (c *Customer) Tier() Tier {
	if c != nil && strings.Contains(c.Note, PrivateTierMarker) {
		return TierPrivate
	}
	return TierPublic
}
