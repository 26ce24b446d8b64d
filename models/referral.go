package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReferralStatus moves forward only: pending -> converted/expired/cancelled,
// converted -> rewarded.
type ReferralStatus string

const (
	ReferralStatusPending   ReferralStatus = "pending"
	ReferralStatusConverted ReferralStatus = "converted"
	ReferralStatusRewarded  ReferralStatus = "rewarded"
	ReferralStatusExpired   ReferralStatus = "expired"
	ReferralStatusCancelled ReferralStatus = "cancelled"
)

// PartyType identifies which side of the platform a referral party is on.
type PartyType string

const (
	PartyTenant   PartyType = "tenant"
	PartyLandlord PartyType = "landlord"
	PartyProspect PartyType = "prospect"
)

// ConversionEvent is what fulfilled a referral's purpose.
type ConversionEvent string

const (
	ConversionSignup               ConversionEvent = "signup"
	ConversionRentcardCreated      ConversionEvent = "rentcard_created"
	ConversionPropertyInquiry      ConversionEvent = "property_inquiry"
	ConversionApplicationSubmitted ConversionEvent = "application_submitted"
)

// Referral tracks an introduction from a referrer to a prospective referee.
// When a link is generated before anyone signed up through it, the row is
// created with a synthetic placeholder referee and claimed by the first
// signup (PlaceholderReferee marks that state explicitly).
type Referral struct {
	ID                     primitive.ObjectID  `json:"id,omitempty" bson:"_id,omitempty"`
	ReferralCode           string              `json:"referralCode" bson:"referralCode"`
	ReferrerUserID         primitive.ObjectID  `json:"referrerUserId" bson:"referrerUserId"`
	ReferrerEmail          string              `json:"referrerEmail" bson:"referrerEmail"`
	ReferrerType           PartyType           `json:"referrerType" bson:"referrerType"`
	RefereeEmail           string              `json:"refereeEmail" bson:"refereeEmail"`
	RefereeUserID          *primitive.ObjectID `json:"refereeUserId,omitempty" bson:"refereeUserId,omitempty"`
	RefereeType            PartyType           `json:"refereeType" bson:"refereeType"`
	PlaceholderReferee     bool                `json:"placeholderReferee" bson:"placeholderReferee"`
	ReferralSource         ChannelType         `json:"referralSource" bson:"referralSource"`
	ShareTokenID           *primitive.ObjectID `json:"shareTokenId,omitempty" bson:"shareTokenId,omitempty"`
	ShortlinkID            *primitive.ObjectID `json:"shortlinkId,omitempty" bson:"shortlinkId,omitempty"`
	Status                 ReferralStatus      `json:"status" bson:"status"`
	ConversionEvent        *ConversionEvent    `json:"conversionEvent,omitempty" bson:"conversionEvent,omitempty"`
	ConvertedAt            *time.Time          `json:"convertedAt,omitempty" bson:"convertedAt,omitempty"`
	ReferrerRewardEligible bool                `json:"referrerRewardEligible" bson:"referrerRewardEligible"`
	RefereeRewardEligible  bool                `json:"refereeRewardEligible" bson:"refereeRewardEligible"`
	ExpiresAt              *time.Time          `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	CreatedAt              time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time           `json:"updatedAt" bson:"updatedAt"`
}

// CreateReferralRequest is the body for POST /api/referrals/create.
// RefereeEmail may be empty for pure link generation; the referrer identity
// always comes from the session, never from this body.
type CreateReferralRequest struct {
	RefereeEmail   string `json:"refereeEmail" validate:"omitempty,email"`
	RefereeType    string `json:"refereeType" validate:"omitempty,oneof=tenant landlord prospect"`
	ReferralSource string `json:"referralSource" validate:"omitempty,oneof=direct_link email sms social qr_code native_share clipboard"`
	ShareTokenID   string `json:"shareTokenId,omitempty"`
	ShortlinkID    string `json:"shortlinkId,omitempty"`
}

// ConvertReferralRequest is the body for POST /api/referrals/convert,
// invoked by the signup flow once a referee account exists.
type ConvertReferralRequest struct {
	ReferralCode    string `json:"referralCode" validate:"required"`
	ConversionEvent string `json:"conversionEvent" validate:"required,oneof=signup rentcard_created property_inquiry application_submitted"`
	RefereeEmail    string `json:"refereeEmail" validate:"omitempty,email"`
}

// ReferralStats is the aggregate view for one referrer. ConversionRate is a
// percentage (0-100). Month buckets use UTC calendar months.
type ReferralStats struct {
	TotalReferrals       int         `json:"totalReferrals"`
	ConvertedReferrals   int         `json:"convertedReferrals"`
	PendingReferrals     int         `json:"pendingReferrals"`
	ConversionRate       float64     `json:"conversionRate"`
	ThisMonthReferrals   int         `json:"thisMonthReferrals"`
	ThisMonthConversions int         `json:"thisMonthConversions"`
	TopReferralSource    ChannelType `json:"topReferralSource"`
}
