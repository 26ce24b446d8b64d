package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/models"
)

// In-memory repository doubles, injected at service construction instead of
// monkey-patching any transport. They mirror the Mongo implementations'
// contract: mongo.ErrNoDocuments for absent rows, duplicate key errors for
// unique index violations, and locked compare-and-set for transitions.

func dupKeyErr() error {
	return mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000}}}
}

type memShareTokenRepo struct {
	mu     sync.Mutex
	tokens map[primitive.ObjectID]*models.ShareToken
}

func newMemShareTokenRepo() *memShareTokenRepo {
	return &memShareTokenRepo{tokens: make(map[primitive.ObjectID]*models.ShareToken)}
}

func copyToken(t *models.ShareToken) *models.ShareToken {
	c := *t
	return &c
}

func (r *memShareTokenRepo) Insert(_ context.Context, token *models.ShareToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.tokens {
		if existing.Token == token.Token {
			return dupKeyErr()
		}
		if !existing.Revoked && existing.TenantID == token.TenantID && existing.Scope == token.Scope {
			return dupKeyErr()
		}
	}
	token.ID = primitive.NewObjectID()
	r.tokens[token.ID] = copyToken(token)
	return nil
}

func (r *memShareTokenRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[id]; ok {
		return copyToken(t), nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memShareTokenRepo) FindByToken(_ context.Context, tokenStr string) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.Token == tokenStr {
			return copyToken(t), nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memShareTokenRepo) FindLatestActive(_ context.Context, tenantID primitive.ObjectID, scope string, now time.Time) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *models.ShareToken
	for _, t := range r.tokens {
		if t.TenantID != tenantID || t.Scope != scope || !t.IsValid(now) {
			continue
		}
		if latest == nil || t.CreatedAt.After(latest.CreatedAt) {
			latest = t
		}
	}
	if latest == nil {
		return nil, mongo.ErrNoDocuments
	}
	return copyToken(latest), nil
}

func (r *memShareTokenRepo) ListByTenant(_ context.Context, tenantID primitive.ObjectID) ([]models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ShareToken{}
	for _, t := range r.tokens {
		if t.TenantID == tenantID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memShareTokenRepo) RevokeExpired(_ context.Context, tenantID primitive.ObjectID, scope string, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, t := range r.tokens {
		if t.TenantID == tenantID && t.Scope == scope && !t.Revoked &&
			t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

func (r *memShareTokenRepo) Revoke(_ context.Context, id primitive.ObjectID) (*models.ShareToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	t.Revoked = true
	return copyToken(t), nil
}

func (r *memShareTokenRepo) IncrementViewIfValid(_ context.Context, id primitive.ObjectID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[id]
	if !ok || !t.IsValid(now) {
		return false, nil
	}
	t.ViewCount++
	viewedAt := now
	t.LastViewedAt = &viewedAt
	return true, nil
}

type memShortlinkRepo struct {
	mu    sync.Mutex
	links map[primitive.ObjectID]*models.Shortlink
}

func newMemShortlinkRepo() *memShortlinkRepo {
	return &memShortlinkRepo{links: make(map[primitive.ObjectID]*models.Shortlink)}
}

func (r *memShortlinkRepo) Insert(_ context.Context, link *models.Shortlink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.links {
		if existing.Slug == link.Slug {
			return dupKeyErr()
		}
	}
	link.ID = primitive.NewObjectID()
	c := *link
	r.links[link.ID] = &c
	return nil
}

func (r *memShortlinkRepo) FindBySlug(_ context.Context, slug string) (*models.Shortlink, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.links {
		if l.Slug == slug {
			c := *l
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memShortlinkRepo) IncrementClicks(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if l, ok := r.links[id]; ok {
		l.ClickCount++
		return nil
	}
	return mongo.ErrNoDocuments
}

type memReferralRepo struct {
	mu        sync.Mutex
	referrals map[primitive.ObjectID]*models.Referral
}

func newMemReferralRepo() *memReferralRepo {
	return &memReferralRepo{referrals: make(map[primitive.ObjectID]*models.Referral)}
}

func (r *memReferralRepo) byCode(code string) *models.Referral {
	for _, ref := range r.referrals {
		if ref.ReferralCode == code {
			return ref
		}
	}
	return nil
}

func (r *memReferralRepo) Insert(_ context.Context, referral *models.Referral) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byCode(referral.ReferralCode) != nil {
		return dupKeyErr()
	}
	referral.ID = primitive.NewObjectID()
	c := *referral
	r.referrals[referral.ID] = &c
	return nil
}

func (r *memReferralRepo) FindByCode(_ context.Context, code string) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref := r.byCode(code); ref != nil {
		c := *ref
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memReferralRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok {
		c := *ref
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memReferralRepo) Convert(_ context.Context, code string, refereeUserID primitive.ObjectID, refereeEmail string, event models.ConversionEvent, referrerEligible, refereeEligible bool, now time.Time) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.byCode(code)
	if ref == nil || ref.Status != models.ReferralStatusPending {
		return nil, mongo.ErrNoDocuments
	}
	ref.Status = models.ReferralStatusConverted
	ref.ConversionEvent = &event
	convertedAt := now
	ref.ConvertedAt = &convertedAt
	ref.RefereeUserID = &refereeUserID
	ref.PlaceholderReferee = false
	ref.ReferrerRewardEligible = referrerEligible
	ref.RefereeRewardEligible = refereeEligible
	if refereeEmail != "" {
		ref.RefereeEmail = refereeEmail
	}
	ref.UpdatedAt = now
	c := *ref
	return &c, nil
}

func (r *memReferralRepo) MarkRewarded(_ context.Context, id primitive.ObjectID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ref, ok := r.referrals[id]; ok && ref.Status == models.ReferralStatusConverted {
		ref.Status = models.ReferralStatusRewarded
		ref.UpdatedAt = now
	}
	return nil
}

func (r *memReferralRepo) ExpireByCode(_ context.Context, code string, now time.Time) (*models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ref := r.byCode(code)
	if ref == nil || ref.Status != models.ReferralStatusPending || ref.ExpiresAt == nil || ref.ExpiresAt.After(now) {
		return nil, mongo.ErrNoDocuments
	}
	ref.Status = models.ReferralStatusExpired
	ref.UpdatedAt = now
	c := *ref
	return &c, nil
}

func (r *memReferralRepo) ExpirePending(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, ref := range r.referrals {
		if ref.Status == models.ReferralStatusPending && ref.ExpiresAt != nil && !ref.ExpiresAt.After(now) {
			ref.Status = models.ReferralStatusExpired
			ref.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (r *memReferralRepo) ListByStatus(_ context.Context, status models.ReferralStatus) ([]models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Referral{}
	for _, ref := range r.referrals {
		if ref.Status == status {
			out = append(out, *ref)
		}
	}
	return out, nil
}

func (r *memReferralRepo) ListByReferrer(_ context.Context, referrerUserID primitive.ObjectID) ([]models.Referral, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Referral{}
	for _, ref := range r.referrals {
		if ref.ReferrerUserID == referrerUserID {
			out = append(out, *ref)
		}
	}
	return out, nil
}

type memRewardRepo struct {
	mu      sync.Mutex
	rewards map[primitive.ObjectID]*models.ReferralReward

	// failNextInserts makes the next N inserts fail, simulating storage
	// outages during reward issuance.
	failNextInserts int
}

func newMemRewardRepo() *memRewardRepo {
	return &memRewardRepo{rewards: make(map[primitive.ObjectID]*models.ReferralReward)}
}

func (r *memRewardRepo) Insert(_ context.Context, reward *models.ReferralReward) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNextInserts > 0 {
		r.failNextInserts--
		return errors.New("reward insert failed")
	}
	reward.ID = primitive.NewObjectID()
	c := *reward
	r.rewards[reward.ID] = &c
	return nil
}

func (r *memRewardRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.ReferralReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rw, ok := r.rewards[id]; ok {
		c := *rw
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memRewardRepo) ListByRecipient(_ context.Context, recipientUserID primitive.ObjectID) ([]models.ReferralReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ReferralReward{}
	for _, rw := range r.rewards {
		if rw.RecipientUserID == recipientUserID {
			out = append(out, *rw)
		}
	}
	return out, nil
}

func (r *memRewardRepo) ListByReferral(_ context.Context, referralID primitive.ObjectID) ([]models.ReferralReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.ReferralReward{}
	for _, rw := range r.rewards {
		if rw.ReferralID == referralID {
			out = append(out, *rw)
		}
	}
	return out, nil
}

func (r *memRewardRepo) Claim(_ context.Context, id primitive.ObjectID, method models.RedemptionMethod, now time.Time) (*models.ReferralReward, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rw, ok := r.rewards[id]
	if !ok || rw.Status != models.RewardStatusEarned {
		return nil, mongo.ErrNoDocuments
	}
	rw.Status = models.RewardStatusRedeemed
	redeemedAt := now
	rw.RedeemedAt = &redeemedAt
	rw.RedemptionMethod = &method
	rw.UpdatedAt = now
	c := *rw
	return &c, nil
}

func (r *memRewardRepo) ExpireStale(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, rw := range r.rewards {
		if (rw.Status == models.RewardStatusEarned || rw.Status == models.RewardStatusPending) &&
			rw.ExpiresAt != nil && !rw.ExpiresAt.After(now) {
			rw.Status = models.RewardStatusExpired
			rw.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*models.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[primitive.ObjectID]*models.User)}
}

func (r *memUserRepo) add(user *models.User) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	c := *user
	r.users[user.ID] = &c
	return user.ID
}

func (r *memUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

type memProfileRepo struct {
	mu       sync.Mutex
	profiles map[primitive.ObjectID]*models.TenantProfile
}

func newMemProfileRepo() *memProfileRepo {
	return &memProfileRepo{profiles: make(map[primitive.ObjectID]*models.TenantProfile)}
}

func (r *memProfileRepo) add(profile *models.TenantProfile) primitive.ObjectID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if profile.ID.IsZero() {
		profile.ID = primitive.NewObjectID()
	}
	c := *profile
	r.profiles[profile.ID] = &c
	return profile.ID
}

func (r *memProfileRepo) FindByUserID(_ context.Context, userID primitive.ObjectID) (*models.TenantProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.profiles {
		if p.UserID == userID {
			c := *p
			return &c, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *memProfileRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.TenantProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		c := *p
		return &c, nil
	}
	return nil, mongo.ErrNoDocuments
}

type memHistoryRepo struct {
	mu      sync.Mutex
	records []models.SharingHistoryRecord
}

func newMemHistoryRepo() *memHistoryRepo {
	return &memHistoryRepo{}
}

func (r *memHistoryRepo) Insert(_ context.Context, record *models.SharingHistoryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record.ID = primitive.NewObjectID()
	r.records = append(r.records, *record)
	return nil
}

func (r *memHistoryRepo) ListByTenant(_ context.Context, tenantID primitive.ObjectID) ([]models.SharingHistoryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.SharingHistoryRecord{}
	for _, rec := range r.records {
		if rec.TenantID == tenantID {
			out = append(out, rec)
		}
	}
	return out, nil
}
