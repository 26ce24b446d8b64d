package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rentcard-app/rentcard_backend/models"
)

func TestCreateShortlink(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.tokenService.CreateToken(ctx, f.userID, models.CreateShareTokenRequest{})
	require.NoError(t, err)

	link, err := f.shortlinkService.CreateShortlink(ctx, f.userID, token.ID, ShareContext{
		Platform: models.PlatformMobile,
		Method:   "qr_code",
	})
	require.NoError(t, err)

	assert.Len(t, link.Slug, slugLength)
	assert.Equal(t, models.ChannelQRCode, link.Channel)
	assert.Equal(t, token.ID, link.ShareTokenID)
	assert.Contains(t, link.TargetURL, token.Token)
	assert.Contains(t, link.TargetURL, "channel=qr_code")

	// The slug must not leak the token value.
	assert.NotContains(t, token.Token, link.Slug)

	assert.Equal(t, fmt.Sprintf("%s/s/%s", testBaseURL, link.Slug), f.shortlinkService.ShortlinkURL(link.Slug))
}

func TestCreateShortlinkChecksOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.tokenService.CreateToken(ctx, f.userID, models.CreateShareTokenRequest{})
	require.NoError(t, err)

	strangerID, _ := f.seedTenant(true)
	_, err = f.shortlinkService.CreateShortlink(ctx, strangerID, token.ID, ShareContext{
		Platform: models.PlatformDesktop,
		Method:   "clipboard",
	})

	var fErr *ForbiddenError
	require.ErrorAs(t, err, &fErr)
}

func TestCreateShortlinkRejectsInvalidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.tokenService.CreateToken(ctx, f.userID, models.CreateShareTokenRequest{})
	require.NoError(t, err)
	_, err = f.tokenService.Revoke(ctx, token.ID, f.userID)
	require.NoError(t, err)

	_, err = f.shortlinkService.CreateShortlink(ctx, f.userID, token.ID, ShareContext{
		Platform: models.PlatformMobile,
		Method:   "email",
	})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "shareTokenId", vErr.Field)
}

func TestResolveShortlinkCountsViewAndClick(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.tokenService.CreateToken(ctx, f.userID, models.CreateShareTokenRequest{})
	require.NoError(t, err)
	link, err := f.shortlinkService.CreateShortlink(ctx, f.userID, token.ID, ShareContext{
		Platform: models.PlatformMobile,
		Method:   "sms",
	})
	require.NoError(t, err)

	resolved, err := f.shortlinkService.Resolve(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, link.TargetURL, resolved.TargetURL)
	assert.Equal(t, models.ChannelSMS, resolved.Channel)

	storedToken, err := f.tokens.FindByID(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, storedToken.ViewCount)
	require.NotNil(t, storedToken.LastViewedAt)

	storedLink, err := f.links.FindBySlug(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, storedLink.ClickCount)
}

func TestResolveShortlinkAfterRevoke(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.tokenService.CreateToken(ctx, f.userID, models.CreateShareTokenRequest{})
	require.NoError(t, err)
	link, err := f.shortlinkService.CreateShortlink(ctx, f.userID, token.ID, ShareContext{
		Platform: models.PlatformDesktop,
		Method:   "direct_link",
	})
	require.NoError(t, err)

	_, err = f.tokenService.Revoke(ctx, token.ID, f.userID)
	require.NoError(t, err)

	// The slug still exists but the backing token is re-checked on every
	// resolve, so the link dies with the token.
	_, err = f.shortlinkService.Resolve(ctx, link.Slug)

	var gErr *GoneError
	require.ErrorAs(t, err, &gErr)

	storedToken, err := f.tokens.FindByID(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, storedToken.ViewCount)

	storedLink, err := f.links.FindBySlug(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, 0, storedLink.ClickCount)
}

func TestResolveShortlinkUnknownSlug(t *testing.T) {
	f := newFixture(t)

	_, err := f.shortlinkService.Resolve(context.Background(), "zzzzzzz")

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
}

func TestPeekDoesNotCountViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.tokenService.CreateToken(ctx, f.userID, models.CreateShareTokenRequest{})
	require.NoError(t, err)
	link, err := f.shortlinkService.CreateShortlink(ctx, f.userID, token.ID, ShareContext{
		Platform: models.PlatformTablet,
		Method:   "qr_code",
	})
	require.NoError(t, err)

	peeked, err := f.shortlinkService.Peek(ctx, link.Slug)
	require.NoError(t, err)
	assert.Equal(t, link.Slug, peeked.Slug)

	storedToken, err := f.tokens.FindByID(ctx, token.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, storedToken.ViewCount)
}
