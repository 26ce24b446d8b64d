package services

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/models"
)

const rewardValidityDur = 180 * 24 * time.Hour

// RewardRepo is the storage surface for referral rewards. Claim must be a
// conditional update keyed on the earned status.
type RewardRepo interface {
	Insert(ctx context.Context, reward *models.ReferralReward) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ReferralReward, error)
	ListByRecipient(ctx context.Context, recipientUserID primitive.ObjectID) ([]models.ReferralReward, error)
	ListByReferral(ctx context.Context, referralID primitive.ObjectID) ([]models.ReferralReward, error)
	Claim(ctx context.Context, id primitive.ObjectID, method models.RedemptionMethod, now time.Time) (*models.ReferralReward, error)
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}

// RewardRecipient identifies who a reward is issued to.
type RewardRecipient struct {
	UserID primitive.ObjectID
	Type   models.RecipientType
	Email  string
}

// RewardService computes reward eligibility from conversions and governs
// the redemption lifecycle.
type RewardService struct {
	rewards RewardRepo

	// minimumRequirement gates rewards in pending instead of earned until
	// cleared. Zero means rewards are immediately claimable.
	minimumRequirement int
}

func NewRewardService(rewards RewardRepo) *RewardService {
	return &RewardService{rewards: rewards}
}

// CreateReward issues a reward for one party of a converted referral.
// Initial status is earned (immediately claimable) unless a minimum
// requirement gate is configured, in which case it parks in pending.
func (s *RewardService) CreateReward(ctx context.Context, referralID primitive.ObjectID, recipient RewardRecipient, rewardType models.RewardType, rewardValue int, trigger models.ConversionEvent) (*models.ReferralReward, error) {
	if rewardValue <= 0 {
		return nil, &ValidationError{Field: "rewardValue", Message: "reward value must be positive"}
	}

	status := models.RewardStatusEarned
	if s.minimumRequirement > 0 {
		status = models.RewardStatusPending
	}

	now := time.Now()
	expiresAt := now.Add(rewardValidityDur)

	reward := &models.ReferralReward{
		ReferralID:      referralID,
		RecipientUserID: recipient.UserID,
		RecipientType:   recipient.Type,
		RecipientEmail:  recipient.Email,
		RewardType:      rewardType,
		RewardValue:     rewardValue,
		RewardCurrency:  "USD",
		TriggerEvent:    trigger,
		Status:          status,
		EarnedAt:        now,
		ExpiresAt:       &expiresAt,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.rewards.Insert(ctx, reward); err != nil {
		return nil, err
	}
	return reward, nil
}

// Claim redeems an earned reward for its recipient, exactly once. The
// status check and the update are a single compare-and-set in the storage
// layer, so of N concurrent claims exactly one succeeds and the rest see
// ConflictError.
func (s *RewardService) Claim(ctx context.Context, rewardID primitive.ObjectID, requesterUserID primitive.ObjectID, method models.RedemptionMethod) (*models.ReferralReward, error) {
	reward, err := s.rewards.FindByID(ctx, rewardID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "reward"}
		}
		return nil, err
	}

	if reward.RecipientUserID != requesterUserID {
		return nil, &ForbiddenError{Message: "this reward does not belong to you"}
	}

	claimed, err := s.rewards.Claim(ctx, rewardID, method, time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Lost the CAS: someone else claimed it, or it is not earned.
			return nil, &ConflictError{Message: "reward already claimed or not claimable"}
		}
		return nil, err
	}
	return claimed, nil
}

// ListRewards returns the caller's rewards, newest first.
func (s *RewardService) ListRewards(ctx context.Context, recipientUserID primitive.ObjectID) ([]models.ReferralReward, error) {
	return s.rewards.ListByRecipient(ctx, recipientUserID)
}

// ListByReferral returns the rewards already issued for one referral, so
// issuance retries can tell what is still owed.
func (s *RewardService) ListByReferral(ctx context.Context, referralID primitive.ObjectID) ([]models.ReferralReward, error) {
	return s.rewards.ListByReferral(ctx, referralID)
}

// ExpireStale sweeps earned and pending rewards past their expiry into
// expired. Idempotent; safe alongside user traffic.
func (s *RewardService) ExpireStale(ctx context.Context) (int64, error) {
	return s.rewards.ExpireStale(ctx, time.Now())
}
