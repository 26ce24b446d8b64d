package services

import (
	"testing"

	"github.com/brianvoe/gofakeit/v6"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcard-app/rentcard_backend/models"
)

const testBaseURL = "https://rentcard.test"

// fixture wires every service against in-memory repositories with one
// sharable tenant seeded.
type fixture struct {
	tokens    *memShareTokenRepo
	links     *memShortlinkRepo
	referrals *memReferralRepo
	rewards   *memRewardRepo
	users     *memUserRepo
	profiles  *memProfileRepo
	history   *memHistoryRepo

	tokenService     *ShareTokenService
	shortlinkService *ShortlinkService
	referralService  *ReferralService
	rewardService    *RewardService
	historyService   *SharingHistoryService

	userID    primitive.ObjectID
	profileID primitive.ObjectID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		tokens:    newMemShareTokenRepo(),
		links:     newMemShortlinkRepo(),
		referrals: newMemReferralRepo(),
		rewards:   newMemRewardRepo(),
		users:     newMemUserRepo(),
		profiles:  newMemProfileRepo(),
		history:   newMemHistoryRepo(),
	}

	f.tokenService = NewShareTokenService(f.tokens, f.profiles)
	f.shortlinkService = NewShortlinkService(f.links, f.tokens, f.profiles, testBaseURL)
	f.rewardService = NewRewardService(f.rewards)
	f.referralService = NewReferralService(f.referrals, f.users, f.rewardService, testBaseURL)
	f.historyService = NewSharingHistoryService(f.history, f.tokens)

	f.userID, f.profileID = f.seedTenant(true)
	return f
}

// seedTenant creates a user plus tenant profile and returns both ids.
func (f *fixture) seedTenant(hasRentcard bool) (primitive.ObjectID, primitive.ObjectID) {
	userID := f.users.add(&models.User{
		Email:    gofakeit.Email(),
		FullName: gofakeit.Name(),
		UserType: "tenant",
	})
	profileID := f.profiles.add(&models.TenantProfile{
		UserID:        userID,
		FullName:      gofakeit.Name(),
		Email:         gofakeit.Email(),
		Employment:    gofakeit.JobTitle(),
		MonthlyIncome: 3500,
		CreditScore:   720,
		HasRentcard:   hasRentcard,
	})
	return userID, profileID
}
