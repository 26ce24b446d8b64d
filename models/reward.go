package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RewardStatus lifecycle: earned/pending -> redeemed or expired/cancelled.
// Only an earned reward can be redeemed, and at most once.
type RewardStatus string

const (
	RewardStatusEarned    RewardStatus = "earned"
	RewardStatusPending   RewardStatus = "pending"
	RewardStatusRedeemed  RewardStatus = "redeemed"
	RewardStatusExpired   RewardStatus = "expired"
	RewardStatusCancelled RewardStatus = "cancelled"
)

// RewardType classifies what the recipient gets.
type RewardType string

const (
	RewardCredit         RewardType = "credit"
	RewardDiscount       RewardType = "discount"
	RewardCash           RewardType = "cash"
	RewardPoints         RewardType = "points"
	RewardPremiumFeature RewardType = "premium_feature"
)

// RecipientType says which side of the referral a reward belongs to.
type RecipientType string

const (
	RecipientReferrer RecipientType = "referrer"
	RecipientReferee  RecipientType = "referee"
)

// RedemptionMethod records how a reward was cashed in.
type RedemptionMethod string

const (
	RedemptionAccountCredit RedemptionMethod = "account_credit"
	RedemptionPromoCode     RedemptionMethod = "promo_code"
	RedemptionPayout        RedemptionMethod = "payout"
)

// ReferralReward is a redeemable incentive issued on referral conversion.
// RewardValue is cents for monetary types, a percentage for discounts and a
// raw count for points.
type ReferralReward struct {
	ID               primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ReferralID       primitive.ObjectID `json:"referralId" bson:"referralId"`
	RecipientUserID  primitive.ObjectID `json:"recipientUserId" bson:"recipientUserId"`
	RecipientType    RecipientType      `json:"recipientType" bson:"recipientType"`
	RecipientEmail   string             `json:"recipientEmail" bson:"recipientEmail"`
	RewardType       RewardType         `json:"rewardType" bson:"rewardType"`
	RewardValue      int                `json:"rewardValue" bson:"rewardValue"`
	RewardCurrency   string             `json:"rewardCurrency" bson:"rewardCurrency"`
	TriggerEvent     ConversionEvent    `json:"triggerEvent" bson:"triggerEvent"`
	Status           RewardStatus       `json:"status" bson:"status"`
	EarnedAt         time.Time          `json:"earnedAt" bson:"earnedAt"`
	RedeemedAt       *time.Time         `json:"redeemedAt,omitempty" bson:"redeemedAt,omitempty"`
	ExpiresAt        *time.Time         `json:"expiresAt,omitempty" bson:"expiresAt,omitempty"`
	RedemptionMethod *RedemptionMethod  `json:"redemptionMethod,omitempty" bson:"redemptionMethod,omitempty"`
	CreatedAt        time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// ClaimRewardRequest is the body for POST /api/referrals/claim-reward.
type ClaimRewardRequest struct {
	RewardID         string `json:"rewardId" validate:"required"`
	RedemptionMethod string `json:"redemptionMethod" validate:"required,oneof=account_credit promo_code payout"`
}

// ClaimRewardResponse wraps the redeemed reward for the claim endpoint.
type ClaimRewardResponse struct {
	Reward     ReferralReward `json:"reward"`
	RedeemedAt time.Time      `json:"redeemedAt"`
}
