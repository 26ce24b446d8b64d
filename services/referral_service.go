package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/utils"
)

const (
	maxCodeAttempts     = 5
	referralValidityDur = 90 * 24 * time.Hour
)

// ReferralRepo is the storage surface for the referral ledger.
type ReferralRepo interface {
	Insert(ctx context.Context, referral *models.Referral) error
	FindByCode(ctx context.Context, code string) (*models.Referral, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Referral, error)
	Convert(ctx context.Context, code string, refereeUserID primitive.ObjectID, refereeEmail string, event models.ConversionEvent, referrerEligible, refereeEligible bool, now time.Time) (*models.Referral, error)
	MarkRewarded(ctx context.Context, id primitive.ObjectID, now time.Time) error
	ExpireByCode(ctx context.Context, code string, now time.Time) (*models.Referral, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
	ListByStatus(ctx context.Context, status models.ReferralStatus) ([]models.Referral, error)
	ListByReferrer(ctx context.Context, referrerUserID primitive.ObjectID) ([]models.Referral, error)
}

// UserRepo reads account projections for referrer identity stamping.
type UserRepo interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

// ReferralService is the ledger of referrer -> referee introductions and
// their forward-only status machine.
type ReferralService struct {
	referrals ReferralRepo
	users     UserRepo
	rewards   *RewardService
	baseURL   string
}

func NewReferralService(referrals ReferralRepo, users UserRepo, rewards *RewardService, baseURL string) *ReferralService {
	return &ReferralService{referrals: referrals, users: users, rewards: rewards, baseURL: baseURL}
}

// placeholderRefereeEmail synthesizes a unique, undeliverable referee address
// for pure link-generation referrals. The .invalid TLD can never route and
// the uuid keeps the email field unique until a real signup claims the row.
func placeholderRefereeEmail() string {
	return fmt.Sprintf("pending-%s@placeholder.invalid", uuid.NewString())
}

// CreateReferral opens a pending referral with a fresh unique code. The
// referrer identity always comes from the authenticated session. An empty
// referee email means pure link generation; the row then carries an explicit
// placeholder until the first signup through the code claims it.
func (s *ReferralService) CreateReferral(ctx context.Context, referrerUserID primitive.ObjectID, req models.CreateReferralRequest, shareTokenID, shortlinkID *primitive.ObjectID) (*models.Referral, error) {
	referrer, err := s.users.FindByID(ctx, referrerUserID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "referrer"}
		}
		return nil, err
	}

	refereeEmail := req.RefereeEmail
	placeholder := false
	if refereeEmail == "" {
		refereeEmail = placeholderRefereeEmail()
		placeholder = true
	}

	refereeType := models.PartyType(req.RefereeType)
	if refereeType == "" {
		refereeType = models.PartyProspect
	}
	source := models.ChannelType(req.ReferralSource)
	if source == "" {
		source = models.ChannelDirectLink
	}

	now := time.Now()
	expiresAt := now.Add(referralValidityDur)

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := utils.GenerateReferralCode(utils.ReferralTypeFor(referrer.UserType))
		if err != nil {
			return nil, err
		}

		referral := &models.Referral{
			ReferralCode:       code,
			ReferrerUserID:     referrer.ID,
			ReferrerEmail:      referrer.Email,
			ReferrerType:       models.PartyType(referrer.UserType),
			RefereeEmail:       refereeEmail,
			RefereeType:        refereeType,
			PlaceholderReferee: placeholder,
			ReferralSource:     source,
			ShareTokenID:       shareTokenID,
			ShortlinkID:        shortlinkID,
			Status:             models.ReferralStatusPending,
			ExpiresAt:          &expiresAt,
			CreatedAt:          now,
			UpdatedAt:          now,
		}

		err = s.referrals.Insert(ctx, referral)
		if err == nil {
			return referral, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			log.Printf("Referral code collision on attempt %d, retrying", attempt+1)
			continue
		}
		return nil, err
	}

	return nil, &ConflictError{Message: "could not allocate a unique referral code"}
}

// ReferralLink is the shareable URL for a referral code.
func (s *ReferralService) ReferralLink(code string) string {
	return fmt.Sprintf("%s/signup?ref=%s", s.baseURL, code)
}

// Convert transitions a pending referral to converted, exactly once. The
// status check and the update are a single conditional write, so conversion
// is not re-entrant: anything but pending yields ConflictError. On success
// the reward engine issues rewards for the eligible parties and the referral
// moves on to rewarded.
func (s *ReferralService) Convert(ctx context.Context, code string, refereeUserID primitive.ObjectID, refereeEmail string, event models.ConversionEvent) (*models.Referral, error) {
	referrerEligible, refereeEligible := rewardEligibility(event)
	now := time.Now()

	referral, err := s.referrals.Convert(ctx, code, refereeUserID, refereeEmail, event, referrerEligible, refereeEligible, now)
	if err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, err
		}
		existing, findErr := s.referrals.FindByCode(ctx, code)
		if findErr != nil {
			return nil, &NotFoundError{Resource: "referral"}
		}
		return nil, &ConflictError{Message: fmt.Sprintf("referral is already %s", existing.Status)}
	}

	if err := s.ensureRewards(ctx, referral); err != nil {
		// Conversion stands; the referral rests in converted until the
		// reconciliation sweep retries issuance.
		log.Printf("Failed to issue rewards for referral %s: %v", referral.ReferralCode, err)
		return referral, nil
	}

	if err := s.referrals.MarkRewarded(ctx, referral.ID, time.Now()); err != nil {
		log.Printf("Failed to mark referral %s rewarded: %v", referral.ReferralCode, err)
	} else {
		referral.Status = models.ReferralStatusRewarded
	}
	return referral, nil
}

// rewardEligibility encodes the configured trigger rules: the referrer earns
// on every conversion event, the referee only on signup.
func rewardEligibility(event models.ConversionEvent) (referrer, referee bool) {
	return true, event == models.ConversionSignup
}

// ensureRewards issues the rewards a converted referral still owes. It
// checks what was already issued for the referral first, so a retry after a
// partial failure only creates the missing reward, never a duplicate.
func (s *ReferralService) ensureRewards(ctx context.Context, referral *models.Referral) error {
	existing, err := s.rewards.ListByReferral(ctx, referral.ID)
	if err != nil {
		return err
	}
	issued := map[models.RecipientType]bool{}
	for _, reward := range existing {
		issued[reward.RecipientType] = true
	}

	event := models.ConversionSignup
	if referral.ConversionEvent != nil {
		event = *referral.ConversionEvent
	}

	if referral.ReferrerRewardEligible && !issued[models.RecipientReferrer] {
		_, err := s.rewards.CreateReward(ctx, referral.ID, RewardRecipient{
			UserID: referral.ReferrerUserID,
			Type:   models.RecipientReferrer,
			Email:  referral.ReferrerEmail,
		}, models.RewardCredit, 2500, event)
		if err != nil {
			return err
		}
	}
	if referral.RefereeRewardEligible && referral.RefereeUserID != nil && !issued[models.RecipientReferee] {
		_, err := s.rewards.CreateReward(ctx, referral.ID, RewardRecipient{
			UserID: *referral.RefereeUserID,
			Type:   models.RecipientReferee,
			Email:  referral.RefereeEmail,
		}, models.RewardDiscount, 10, event)
		if err != nil {
			return err
		}
	}
	return nil
}

// ReconcileUnrewarded retries reward issuance for referrals stuck in
// converted after a failed insert, then moves them on to rewarded. Runs from
// the background sweep.
func (s *ReferralService) ReconcileUnrewarded(ctx context.Context) (int64, error) {
	referrals, err := s.referrals.ListByStatus(ctx, models.ReferralStatusConverted)
	if err != nil {
		return 0, err
	}

	var n int64
	for i := range referrals {
		referral := &referrals[i]
		if err := s.ensureRewards(ctx, referral); err != nil {
			log.Printf("Reward reconciliation failed for referral %s: %v", referral.ReferralCode, err)
			continue
		}
		if err := s.referrals.MarkRewarded(ctx, referral.ID, time.Now()); err != nil {
			log.Printf("Failed to mark referral %s rewarded: %v", referral.ReferralCode, err)
			continue
		}
		n++
	}
	return n, nil
}

// Expire moves a single pending referral past its expiry into expired.
// Background use only, never user-invoked.
func (s *ReferralService) Expire(ctx context.Context, code string) (*models.Referral, error) {
	referral, err := s.referrals.ExpireByCode(ctx, code, time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "expirable referral"}
		}
		return nil, err
	}
	return referral, nil
}

// ExpirePendingReferrals is the periodic sweep behind Expire.
func (s *ReferralService) ExpirePendingReferrals(ctx context.Context) (int64, error) {
	return s.referrals.ExpirePending(ctx, time.Now())
}

// GetStats aggregates a referrer's ledger. Self-only at the HTTP boundary.
func (s *ReferralService) GetStats(ctx context.Context, referrerUserID primitive.ObjectID) (*models.ReferralStats, []models.Referral, error) {
	referrals, err := s.referrals.ListByReferrer(ctx, referrerUserID)
	if err != nil {
		return nil, nil, err
	}
	stats := ComputeStats(referrals, time.Now())

	recent := referrals
	if len(recent) > 10 {
		recent = recent[:10]
	}
	return stats, recent, nil
}

// ComputeStats is the pure aggregation over one referrer's referrals.
// ConversionRate is a percentage rounded to two decimals, 0 with no
// referrals. "This month" buckets by UTC calendar month.
func ComputeStats(referrals []models.Referral, now time.Time) *models.ReferralStats {
	stats := &models.ReferralStats{}
	nowUTC := now.UTC()
	sourceCounts := map[models.ChannelType]int{}

	for _, ref := range referrals {
		stats.TotalReferrals++
		sourceCounts[ref.ReferralSource]++

		if ref.Status == models.ReferralStatusPending {
			stats.PendingReferrals++
		}
		if ref.ConvertedAt != nil {
			stats.ConvertedReferrals++
			converted := ref.ConvertedAt.UTC()
			if converted.Year() == nowUTC.Year() && converted.Month() == nowUTC.Month() {
				stats.ThisMonthConversions++
			}
		}

		created := ref.CreatedAt.UTC()
		if created.Year() == nowUTC.Year() && created.Month() == nowUTC.Month() {
			stats.ThisMonthReferrals++
		}
	}

	if stats.TotalReferrals > 0 {
		rate := float64(stats.ConvertedReferrals) / float64(stats.TotalReferrals) * 100
		stats.ConversionRate = math.Round(rate*100) / 100
	}

	best := 0
	for source, count := range sourceCounts {
		if count > best || (count == best && source < stats.TopReferralSource) {
			best = count
			stats.TopReferralSource = source
		}
	}
	return stats
}
