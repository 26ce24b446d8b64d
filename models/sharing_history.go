package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SharingHistoryRecord is an append-only audit entry for one outbound share
// action. Method is the channel actually used, which may differ from the
// planned one when a fallback occurred (native_share -> clipboard_fallback).
// Records are never mutated or deleted.
type SharingHistoryRecord struct {
	ID            primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	CorrelationID string              `json:"correlationId" bson:"correlationId"`
	TenantID      primitive.ObjectID  `json:"tenantId" bson:"tenantId"`
	ContactID     primitive.ObjectID  `json:"contactId" bson:"contactId"`
	ShareTokenID  primitive.ObjectID  `json:"shareTokenId" bson:"shareTokenId"`
	TemplateID    *primitive.ObjectID `json:"templateId,omitempty" bson:"templateId,omitempty"`
	MessageUsed   string              `json:"messageUsed" bson:"messageUsed"`
	Method        ChannelType         `json:"method" bson:"method"`
	CreatedAt     time.Time           `json:"createdAt" bson:"createdAt"`
}

// RecordShareRequest is the body for POST /api/sharing-history.
type RecordShareRequest struct {
	ContactID    string `json:"contactId" validate:"required"`
	ShareTokenID string `json:"shareTokenId" validate:"required"`
	TemplateID   string `json:"templateId,omitempty"`
	MessageUsed  string `json:"messageUsed,omitempty"`
	Method       string `json:"method" validate:"required,oneof=direct_link email sms social qr_code native_share clipboard clipboard_fallback"`
}
