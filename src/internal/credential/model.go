package credential

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Credential is a short-lived QR code that gates employee check-in. Codes are
// never reused: a locked or expired credential keeps its code forever so old
// sessions stay attributable.
type Credential struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Code        string             `json:"code" bson:"code"`
	ValidUntil  time.Time          `json:"validUntil" bson:"valid_until"`
	LocationTag string             `json:"locationTag,omitempty" bson:"location_tag,omitempty"`
	Locked      bool               `json:"locked" bson:"locked"`
	CreatedAt   time.Time          `json:"createdAt" bson:"created_at"`
}

// IsValid reports whether the credential may still be presented at check-in.
func (c *Credential) IsValid(now time.Time) bool {
	return !c.Locked && !now.After(c.ValidUntil)
}

// IssueRequest represents the administrative request to create a credential
type IssueRequest struct {
	ValidUntil  time.Time `json:"validUntil" binding:"required"`
	LocationTag string    `json:"locationTag"`
}
