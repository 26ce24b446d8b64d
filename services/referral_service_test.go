package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcard-app/rentcard_backend/models"
)

func TestCreateReferralWithPlaceholderReferee(t *testing.T) {
	f := newFixture(t)

	referral, err := f.referralService.CreateReferral(context.Background(), f.userID, models.CreateReferralRequest{}, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ReferralStatusPending, referral.Status)
	assert.True(t, referral.PlaceholderReferee)
	assert.True(t, strings.HasPrefix(referral.RefereeEmail, "pending-"))
	assert.True(t, strings.HasSuffix(referral.RefereeEmail, "@placeholder.invalid"))
	assert.True(t, strings.HasPrefix(referral.ReferralCode, "TEN-"))
	require.NotNil(t, referral.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(referralValidityDur), *referral.ExpiresAt, time.Minute)
	assert.Nil(t, referral.ConvertedAt)

	assert.Equal(t, testBaseURL+"/signup?ref="+referral.ReferralCode, f.referralService.ReferralLink(referral.ReferralCode))
}

func TestCreateReferralWithKnownReferee(t *testing.T) {
	f := newFixture(t)
	refereeEmail := gofakeit.Email()

	referral, err := f.referralService.CreateReferral(context.Background(), f.userID, models.CreateReferralRequest{
		RefereeEmail:   refereeEmail,
		RefereeType:    "landlord",
		ReferralSource: "email",
	}, nil, nil)
	require.NoError(t, err)

	assert.False(t, referral.PlaceholderReferee)
	assert.Equal(t, refereeEmail, referral.RefereeEmail)
	assert.Equal(t, models.PartyLandlord, referral.RefereeType)
	assert.Equal(t, models.ChannelEmail, referral.ReferralSource)
}

func TestCreateReferralUnknownReferrer(t *testing.T) {
	f := newFixture(t)

	_, err := f.referralService.CreateReferral(context.Background(), primitive.NewObjectID(), models.CreateReferralRequest{}, nil, nil)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestConvertOnSignupRewardsBothParties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referral, err := f.referralService.CreateReferral(ctx, f.userID, models.CreateReferralRequest{}, nil, nil)
	require.NoError(t, err)

	refereeID, _ := f.seedTenant(true)
	refereeEmail := gofakeit.Email()

	converted, err := f.referralService.Convert(ctx, referral.ReferralCode, refereeID, refereeEmail, models.ConversionSignup)
	require.NoError(t, err)

	assert.Equal(t, models.ReferralStatusRewarded, converted.Status)
	require.NotNil(t, converted.ConvertedAt)
	require.NotNil(t, converted.RefereeUserID)
	assert.Equal(t, refereeID, *converted.RefereeUserID)
	assert.Equal(t, refereeEmail, converted.RefereeEmail)
	assert.False(t, converted.PlaceholderReferee)

	referrerRewards, err := f.rewardService.ListRewards(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, referrerRewards, 1)
	assert.Equal(t, models.RewardCredit, referrerRewards[0].RewardType)
	assert.Equal(t, 2500, referrerRewards[0].RewardValue)
	assert.Equal(t, models.RewardStatusEarned, referrerRewards[0].Status)

	refereeRewards, err := f.rewardService.ListRewards(ctx, refereeID)
	require.NoError(t, err)
	require.Len(t, refereeRewards, 1)
	assert.Equal(t, models.RewardDiscount, refereeRewards[0].RewardType)
	assert.Equal(t, 10, refereeRewards[0].RewardValue)
}

func TestConvertOnNonSignupRewardsReferrerOnly(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referral, err := f.referralService.CreateReferral(ctx, f.userID, models.CreateReferralRequest{}, nil, nil)
	require.NoError(t, err)

	refereeID, _ := f.seedTenant(true)
	_, err = f.referralService.Convert(ctx, referral.ReferralCode, refereeID, "", models.ConversionRentcardCreated)
	require.NoError(t, err)

	referrerRewards, err := f.rewardService.ListRewards(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, referrerRewards, 1)

	refereeRewards, err := f.rewardService.ListRewards(ctx, refereeID)
	require.NoError(t, err)
	assert.Empty(t, refereeRewards)
}

func TestConvertTwiceConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referral, err := f.referralService.CreateReferral(ctx, f.userID, models.CreateReferralRequest{}, nil, nil)
	require.NoError(t, err)

	refereeID, _ := f.seedTenant(true)
	converted, err := f.referralService.Convert(ctx, referral.ReferralCode, refereeID, "", models.ConversionSignup)
	require.NoError(t, err)
	firstConvertedAt := *converted.ConvertedAt

	otherRefereeID, _ := f.seedTenant(true)
	_, err = f.referralService.Convert(ctx, referral.ReferralCode, otherRefereeID, "", models.ConversionSignup)

	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Contains(t, cErr.Message, "already")

	// The failed second conversion must not touch convertedAt or the referee.
	stored, err := f.referrals.FindByID(ctx, referral.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ConvertedAt)
	assert.True(t, stored.ConvertedAt.Equal(firstConvertedAt))
	require.NotNil(t, stored.RefereeUserID)
	assert.Equal(t, refereeID, *stored.RefereeUserID)
}

func TestReconcileRewardsAfterFailedIssuance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referral, err := f.referralService.CreateReferral(ctx, f.userID, models.CreateReferralRequest{}, nil, nil)
	require.NoError(t, err)

	// Storage rejects the reward insert during conversion: the conversion
	// itself must stand, with the referral parked in converted.
	f.rewards.failNextInserts = 1
	refereeID, _ := f.seedTenant(true)
	converted, err := f.referralService.Convert(ctx, referral.ReferralCode, refereeID, "", models.ConversionSignup)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusConverted, converted.Status)

	owed, err := f.rewardService.ListRewards(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, owed)

	// The sweep retries issuance and completes the transition.
	n, err := f.referralService.ReconcileUnrewarded(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stored, err := f.referrals.FindByID(ctx, referral.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReferralStatusRewarded, stored.Status)

	referrerRewards, err := f.rewardService.ListRewards(ctx, f.userID)
	require.NoError(t, err)
	require.Len(t, referrerRewards, 1)
	refereeRewards, err := f.rewardService.ListRewards(ctx, refereeID)
	require.NoError(t, err)
	require.Len(t, refereeRewards, 1)

	// Running the sweep again must not double-issue anything.
	n, err = f.referralService.ReconcileUnrewarded(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	referrerRewards, err = f.rewardService.ListRewards(ctx, f.userID)
	require.NoError(t, err)
	assert.Len(t, referrerRewards, 1)
}

func TestConvertUnknownCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.referralService.Convert(context.Background(), "TEN-NOPE0000", primitive.NewObjectID(), "", models.ConversionSignup)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestExpiredReferralCannotConvert(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	referral, err := f.referralService.CreateReferral(ctx, f.userID, models.CreateReferralRequest{}, nil, nil)
	require.NoError(t, err)

	// Age the referral past its validity window, then sweep.
	past := time.Now().Add(-time.Hour)
	f.referrals.mu.Lock()
	f.referrals.referrals[referral.ID].ExpiresAt = &past
	f.referrals.mu.Unlock()

	n, err := f.referralService.ExpirePendingReferrals(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	refereeID, _ := f.seedTenant(true)
	_, err = f.referralService.Convert(ctx, referral.ReferralCode, refereeID, "", models.ConversionSignup)

	var cErr *ConflictError
	require.ErrorAs(t, err, &cErr)
	assert.Contains(t, cErr.Message, string(models.ReferralStatusExpired))
}

func TestGetStatsListsRecentReferrals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.referralService.CreateReferral(ctx, f.userID, models.CreateReferralRequest{}, nil, nil)
		require.NoError(t, err)
	}

	stats, recent, err := f.referralService.GetStats(ctx, f.userID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalReferrals)
	assert.Equal(t, 3, stats.PendingReferrals)
	assert.Len(t, recent, 3)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := ComputeStats(nil, time.Now())

	assert.Equal(t, 0, stats.TotalReferrals)
	assert.Equal(t, float64(0), stats.ConversionRate)
	assert.Equal(t, models.ChannelType(""), stats.TopReferralSource)
}

func TestComputeStatsAllConverted(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	convertedAt := now.Add(-time.Hour)

	referrals := []models.Referral{
		{Status: models.ReferralStatusRewarded, ConvertedAt: &convertedAt, CreatedAt: now.Add(-48 * time.Hour), ReferralSource: models.ChannelEmail},
		{Status: models.ReferralStatusConverted, ConvertedAt: &convertedAt, CreatedAt: now.Add(-24 * time.Hour), ReferralSource: models.ChannelEmail},
	}

	stats := ComputeStats(referrals, now)
	assert.Equal(t, 2, stats.TotalReferrals)
	assert.Equal(t, 2, stats.ConvertedReferrals)
	assert.Equal(t, float64(100), stats.ConversionRate)
	assert.Equal(t, models.ChannelEmail, stats.TopReferralSource)
}

func TestComputeStatsRateRounding(t *testing.T) {
	now := time.Date(2026, time.March, 15, 12, 0, 0, 0, time.UTC)
	convertedAt := now.Add(-time.Hour)

	referrals := []models.Referral{
		{Status: models.ReferralStatusConverted, ConvertedAt: &convertedAt, CreatedAt: now, ReferralSource: models.ChannelSMS},
		{Status: models.ReferralStatusPending, CreatedAt: now, ReferralSource: models.ChannelSMS},
		{Status: models.ReferralStatusPending, CreatedAt: now, ReferralSource: models.ChannelQRCode},
	}

	stats := ComputeStats(referrals, now)
	assert.Equal(t, 33.33, stats.ConversionRate)
	assert.Equal(t, 2, stats.PendingReferrals)
	assert.Equal(t, models.ChannelSMS, stats.TopReferralSource)
}

func TestComputeStatsMonthBuckets(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 30, 0, 0, time.UTC)
	thisMonth := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	lastMonth := time.Date(2026, time.February, 28, 23, 59, 0, 0, time.UTC)

	referrals := []models.Referral{
		{Status: models.ReferralStatusConverted, ConvertedAt: &thisMonth, CreatedAt: lastMonth, ReferralSource: models.ChannelDirectLink},
		{Status: models.ReferralStatusPending, CreatedAt: thisMonth, ReferralSource: models.ChannelDirectLink},
		{Status: models.ReferralStatusConverted, ConvertedAt: &lastMonth, CreatedAt: lastMonth, ReferralSource: models.ChannelDirectLink},
	}

	stats := ComputeStats(referrals, now)
	assert.Equal(t, 1, stats.ThisMonthReferrals)
	assert.Equal(t, 1, stats.ThisMonthConversions)
	assert.Equal(t, 2, stats.ConvertedReferrals)
}
