package services

import (
	"context"
	"errors"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/utils"
)

// ShareTokenRepo is the storage surface the token service needs. The Mongo
// implementation lives in repositories; tests inject an in-memory double.
type ShareTokenRepo interface {
	Insert(ctx context.Context, token *models.ShareToken) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.ShareToken, error)
	FindByToken(ctx context.Context, tokenStr string) (*models.ShareToken, error)
	FindLatestActive(ctx context.Context, tenantID primitive.ObjectID, scope string, now time.Time) (*models.ShareToken, error)
	ListByTenant(ctx context.Context, tenantID primitive.ObjectID) ([]models.ShareToken, error)
	Revoke(ctx context.Context, id primitive.ObjectID) (*models.ShareToken, error)
	RevokeExpired(ctx context.Context, tenantID primitive.ObjectID, scope string, now time.Time) (int64, error)
	IncrementViewIfValid(ctx context.Context, id primitive.ObjectID, now time.Time) (bool, error)
}

// TenantProfileRepo supplies the "complete enough to share" precondition and
// the public projection source.
type TenantProfileRepo interface {
	FindByUserID(ctx context.Context, userID primitive.ObjectID) (*models.TenantProfile, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.TenantProfile, error)
}

// ShareTokenService owns the share token lifecycle: mint, reuse, revoke,
// view counting and the public profile resolution.
type ShareTokenService struct {
	tokens   ShareTokenRepo
	profiles TenantProfileRepo
}

func NewShareTokenService(tokens ShareTokenRepo, profiles TenantProfileRepo) *ShareTokenService {
	return &ShareTokenService{tokens: tokens, profiles: profiles}
}

// CreateToken mints a fresh unguessable token for the caller's tenant
// profile. When a concurrent create for the same tenant+scope wins the
// race, the unique index rejects the insert and the surviving token is
// returned instead, so two active tokens can never coexist.
func (s *ShareTokenService) CreateToken(ctx context.Context, userID primitive.ObjectID, req models.CreateShareTokenRequest) (*models.ShareToken, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "tenant profile"}
		}
		return nil, err
	}
	if !profile.HasRentcard {
		return nil, &ValidationError{Field: "tenantId", Message: "tenant has no RentCard to share yet"}
	}

	scope := req.Scope
	if scope == "" {
		scope = models.ScopeRentcard
	}

	now := time.Now()
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return nil, &ValidationError{Field: "expiresAt", Message: "expiry must be in the future"}
	}

	tokenStr, err := utils.GenerateShareToken()
	if err != nil {
		return nil, err
	}

	token := &models.ShareToken{
		Token:     tokenStr,
		TenantID:  profile.ID,
		Scope:     scope,
		Revoked:   false,
		ExpiresAt: req.ExpiresAt,
		ViewCount: 0,
		CreatedAt: now,
	}

	if err := s.tokens.Insert(ctx, token); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, err
		}
		// Lost a concurrent get-or-create; reuse the winner.
		existing, findErr := s.tokens.FindLatestActive(ctx, profile.ID, scope, now)
		if findErr == nil {
			return existing, nil
		}
		// No valid winner means the index slot is held by a token that
		// expired without ever being revoked. Retire it and retry once.
		if _, revokeErr := s.tokens.RevokeExpired(ctx, profile.ID, scope, now); revokeErr != nil {
			return nil, revokeErr
		}
		if err := s.tokens.Insert(ctx, token); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				if existing, findErr := s.tokens.FindLatestActive(ctx, profile.ID, scope, now); findErr == nil {
					return existing, nil
				}
			}
			return nil, err
		}
	}
	return token, nil
}

// GetValidToken returns the most recently created non-revoked, non-expired
// token for the caller's tenant+scope, or nil when none exists. Callers use
// this to decide whether to reuse or mint.
func (s *ShareTokenService) GetValidToken(ctx context.Context, userID primitive.ObjectID, scope string) (*models.ShareToken, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "tenant profile"}
		}
		return nil, err
	}
	if scope == "" {
		scope = models.ScopeRentcard
	}

	token, err := s.tokens.FindLatestActive(ctx, profile.ID, scope, time.Now())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return token, nil
}

// ListTokens returns every token the caller's tenant profile ever minted,
// revoked ones included, newest first.
func (s *ShareTokenService) ListTokens(ctx context.Context, userID primitive.ObjectID) ([]models.ShareToken, error) {
	profile, err := s.profiles.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "tenant profile"}
		}
		return nil, err
	}
	return s.tokens.ListByTenant(ctx, profile.ID)
}

// Revoke soft-revokes a token after checking the requester owns the tenant
// profile behind it. Revoking twice is a no-op success.
func (s *ShareTokenService) Revoke(ctx context.Context, tokenID primitive.ObjectID, requesterUserID primitive.ObjectID) (*models.ShareToken, error) {
	token, err := s.tokens.FindByID(ctx, tokenID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "share token"}
		}
		return nil, err
	}

	profile, err := s.profiles.FindByUserID(ctx, requesterUserID)
	if err != nil || profile.ID != token.TenantID {
		return nil, &ForbiddenError{Message: "you do not own this share token"}
	}

	return s.tokens.Revoke(ctx, tokenID)
}

// RecordView bumps the view counter for a valid token. Invoked from the
// unauthenticated read path, so it fails silently on invalid tokens: error
// differences here would leak validity information.
func (s *ShareTokenService) RecordView(ctx context.Context, tokenID primitive.ObjectID) {
	updated, err := s.tokens.IncrementViewIfValid(ctx, tokenID, time.Now())
	if err != nil {
		log.Printf("Failed to record share token view: %v", err)
		return
	}
	if !updated {
		log.Printf("Skipped view recording for invalid share token %s", tokenID.Hex())
	}
}

// ResolveSharedProfile is the public read: token string in, shared profile
// projection out. Validity is re-evaluated here on every call; revoked and
// expired tokens yield GoneError with distinct messages while unknown
// tokens stay NotFoundError.
func (s *ShareTokenService) ResolveSharedProfile(ctx context.Context, tokenStr string) (*models.SharedRentcardView, error) {
	token, err := s.tokens.FindByToken(ctx, tokenStr)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "share link"}
		}
		return nil, err
	}

	if token.Revoked {
		return nil, &GoneError{Message: "this share link has been revoked"}
	}
	if !token.IsValid(time.Now()) {
		return nil, &GoneError{Message: "this share link has expired"}
	}

	profile, err := s.profiles.FindByID(ctx, token.TenantID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "tenant profile"}
		}
		return nil, err
	}

	s.RecordView(ctx, token.ID)

	return &models.SharedRentcardView{
		FullName:      profile.FullName,
		Employment:    profile.Employment,
		MonthlyIncome: profile.MonthlyIncome,
		CreditScore:   profile.CreditScore,
	}, nil
}
