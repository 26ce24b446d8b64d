package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/utils"
)

const (
	slugLength      = 7
	maxSlugAttempts = 5
)

// ShortlinkRepo is the storage surface for shortlinks.
type ShortlinkRepo interface {
	Insert(ctx context.Context, link *models.Shortlink) error
	FindBySlug(ctx context.Context, slug string) (*models.Shortlink, error)
	IncrementClicks(ctx context.Context, id primitive.ObjectID) error
}

// ShortlinkService wraps share tokens into short channel-tagged URLs and
// resolves them back. Resolution never trusts a cached validity flag: the
// backing token is re-checked on every resolve, which is what stops revoked
// or expired tokens from living on through previously distributed links.
type ShortlinkService struct {
	links    ShortlinkRepo
	tokens   ShareTokenRepo
	profiles TenantProfileRepo
	baseURL  string
}

func NewShortlinkService(links ShortlinkRepo, tokens ShareTokenRepo, profiles TenantProfileRepo, baseURL string) *ShortlinkService {
	return &ShortlinkService{links: links, tokens: tokens, profiles: profiles, baseURL: baseURL}
}

// CreateShortlink mints a slug for a valid share token owned by the
// requester. Slug collisions are retried with fresh randomness a bounded
// number of times against the unique index before giving up with a conflict.
func (s *ShortlinkService) CreateShortlink(ctx context.Context, requesterUserID primitive.ObjectID, shareTokenID primitive.ObjectID, sc ShareContext) (*models.Shortlink, error) {
	token, err := s.tokens.FindByID(ctx, shareTokenID)
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

	now := time.Now()
	if !token.IsValid(now) {
		return nil, &ValidationError{Field: "shareTokenId", Message: "cannot create shortlink for invalid token"}
	}

	channel := DetermineChannel(sc)
	targetURL := fmt.Sprintf("%s/api/rentcard/shared/%s?channel=%s", s.baseURL, token.Token, channel)

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		slug, err := utils.GenerateSlug(slugLength)
		if err != nil {
			return nil, err
		}

		link := &models.Shortlink{
			Slug:         slug,
			ShareTokenID: token.ID,
			Channel:      channel,
			TargetURL:    targetURL,
			ExpiresAt:    token.ExpiresAt,
			CreatedAt:    now,
		}

		err = s.links.Insert(ctx, link)
		if err == nil {
			return link, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			log.Printf("Shortlink slug collision on attempt %d, retrying", attempt+1)
			continue
		}
		return nil, err
	}

	return nil, &ConflictError{Message: "could not allocate a unique shortlink slug"}
}

// Resolve looks up a slug and re-validates the backing token. Unknown slugs
// are NotFoundError; slugs whose token is revoked or expired are GoneError
// and the caller is never forwarded. A successful resolve records a view on
// the token and a click on the link.
func (s *ShortlinkService) Resolve(ctx context.Context, slug string) (*models.ResolvedShortlink, error) {
	link, err := s.links.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "shortlink"}
		}
		return nil, err
	}

	token, err := s.tokens.FindByID(ctx, link.ShareTokenID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &GoneError{Message: "this link is no longer available"}
		}
		return nil, err
	}
	if !token.IsValid(time.Now()) {
		return nil, &GoneError{Message: "this link is no longer available"}
	}

	if updated, err := s.tokens.IncrementViewIfValid(ctx, token.ID, time.Now()); err != nil {
		log.Printf("Failed to record view for token %s: %v", token.ID.Hex(), err)
	} else if updated {
		if err := s.links.IncrementClicks(ctx, link.ID); err != nil {
			log.Printf("Failed to record click for shortlink %s: %v", link.Slug, err)
		}
	}

	return &models.ResolvedShortlink{
		TargetURL: link.TargetURL,
		Channel:   link.Channel,
	}, nil
}

// Peek fetches a shortlink and re-validates its backing token without
// recording a view. Used for QR rendering, where nobody followed the link.
func (s *ShortlinkService) Peek(ctx context.Context, slug string) (*models.Shortlink, error) {
	link, err := s.links.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, &NotFoundError{Resource: "shortlink"}
		}
		return nil, err
	}

	token, err := s.tokens.FindByID(ctx, link.ShareTokenID)
	if err != nil || !token.IsValid(time.Now()) {
		return nil, &GoneError{Message: "this link is no longer available"}
	}
	return link, nil
}

// ShortlinkURL is the public redirect URL a slug is distributed as.
func (s *ShortlinkService) ShortlinkURL(slug string) string {
	return fmt.Sprintf("%s/s/%s", s.baseURL, slug)
}
