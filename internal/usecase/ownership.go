package usecase

import (
	"strings"

	"github.com/nguyentranbao-ct/listing-proxy/internal/config"
	"github.com/nguyentranbao-ct/listing-proxy/internal/models"
)

const ownerTagPrefix = "storefront_user_id:"

const (
	MatchExact     = "exact"
	MatchSubstring = "substring"
)

type ownershipCodec struct {
	substring bool
}

func NewOwnershipCodec(cfg *config.Config) OwnershipCodec {
	return &ownershipCodec{substring: cfg.Listing.OwnershipMatch == MatchSubstring}
}

func (c *ownershipCodec) TagFor(callerID string) string {
	return ownerTagPrefix + callerID
}

// Owns compares whole comma separated tags, so a@x.com does not own a
// listing tagged for a@x.com.evil. Substring mode keeps the old prefix
// matching for stores that still rely on it.
func (c *ownershipCodec) Owns(listing *models.Listing, callerID string) bool {
	if listing == nil || callerID == "" {
		return false
	}
	want := c.TagFor(callerID)
	if c.substring {
		return strings.Contains(listing.Tags, want)
	}
	for _, tag := range strings.Split(listing.Tags, ",") {
		if strings.TrimSpace(tag) == want {
			return true
		}
	}
	return false
}

// Stamp returns the tag string written on create and update. Writes replace
// the whole tag set with the owner tag.
func (c *ownershipCodec) Stamp(_ string, callerID string) string {
	return c.TagFor(callerID)
}
