package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ShareToken grants unauthenticated read access to a tenant's RentCard.
// Tokens are soft-revoked only, never deleted, so the audit trail survives.
type ShareToken struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Token        string             `json:"token" bson:"token"`
	TenantID     primitive.ObjectID `json:"tenantId" bson:"tenantId"`
	Scope        string             `json:"scope" bson:"scope"` // e.g. "rentcard"
	Revoked      bool               `json:"revoked" bson:"revoked"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	ViewCount    int                `json:"viewCount" bson:"viewCount"`
	LastViewedAt *time.Time         `json:"lastViewedAt,omitempty" bson:"lastViewedAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// IsValid reports whether the token still grants access. Validity is
// re-evaluated on every access, never cached.
func (t *ShareToken) IsValid(now time.Time) bool {
	if t.Revoked {
		return false
	}
	if t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
		return false
	}
	return true
}

// ScopeRentcard is the only scope currently issued.
const ScopeRentcard = "rentcard"

// CreateShareTokenRequest is the body for POST /api/share-tokens.
type CreateShareTokenRequest struct {
	Scope     string     `json:"scope" validate:"omitempty,oneof=rentcard"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// EmailShareRequest is the body for POST /api/share-tokens/email.
type EmailShareRequest struct {
	RecipientEmail string `json:"recipientEmail" validate:"required,email"`
	RecipientName  string `json:"recipientName,omitempty"`
	Message        string `json:"message,omitempty"`
	TemplateID     string `json:"templateId,omitempty"`
}
