package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ChannelType is the acquisition/distribution medium attached to a share
// event for attribution.
type ChannelType string

const (
	ChannelDirectLink        ChannelType = "direct_link"
	ChannelEmail             ChannelType = "email"
	ChannelSMS               ChannelType = "sms"
	ChannelSocial            ChannelType = "social"
	ChannelQRCode            ChannelType = "qr_code"
	ChannelNativeShare       ChannelType = "native_share"
	ChannelClipboard         ChannelType = "clipboard"
	ChannelClipboardFallback ChannelType = "clipboard_fallback"
)

// PlatformType describes the device class a share was initiated from.
type PlatformType string

const (
	PlatformMobile  PlatformType = "mobile"
	PlatformDesktop PlatformType = "desktop"
	PlatformTablet  PlatformType = "tablet"
)

// Shortlink is a short distributable URL wrapping a share token plus its
// channel tag. One token may back many shortlinks, one per channel/occasion.
// The slug is derived independently of the token value and must not leak it.
type Shortlink struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Slug         string             `json:"slug" bson:"slug"`
	ShareTokenID primitive.ObjectID `json:"shareTokenId" bson:"shareTokenId"`
	Channel      ChannelType        `json:"channel" bson:"channel"`
	TargetURL    string             `json:"targetUrl" bson:"targetUrl"`
	ClickCount   int                `json:"clickCount" bson:"clickCount"`
	ExpiresAt    *time.Time         `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt    time.Time          `json:"createdAt" bson:"createdAt"`
}

// CreateShortlinkRequest is the body for POST /api/shortlinks. Platform and
// method feed the attribution resolver, which picks the channel tag.
type CreateShortlinkRequest struct {
	ShareTokenID string `json:"shareTokenId" validate:"required"`
	Platform     string `json:"platform" validate:"required,oneof=mobile desktop tablet"`
	Method       string `json:"method" validate:"required,oneof=native_share clipboard email sms qr_code direct_link"`
}

// ResolvedShortlink is what a slug resolves to on the public redirect path.
type ResolvedShortlink struct {
	TargetURL string      `json:"targetUrl"`
	Channel   ChannelType `json:"channel"`
}
