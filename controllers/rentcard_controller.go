// controllers/rentcard_controller.go
package controllers

import (
	"errors"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/services"
	"github.com/rentcard-app/rentcard_backend/utils"
)

// RentcardController serves the public shared-profile read. This is the one
// unauthenticated data path in the service, so it carries the Redis probe
// guard on top of the generic rate limiter.
type RentcardController struct {
	tokens *services.ShareTokenService
	redis  *redis.Client
}

func NewRentcardController(tokens *services.ShareTokenService, redisClient *redis.Client) *RentcardController {
	return &RentcardController{tokens: tokens, redis: redisClient}
}

// GetSharedRentcard resolves a raw share token into the public profile
// projection. Revoked and expired links answer 403 with distinct messages so
// viewers see "no longer available" rather than a bare 404; genuinely
// unknown tokens stay 404.
func (rc *RentcardController) GetSharedRentcard(c echo.Context) error {
	ip := c.RealIP()
	if err := utils.ValidateShareAttempts(ip, rc.redis); err != nil {
		return c.JSON(http.StatusTooManyRequests, models.Response{
			Status:  http.StatusTooManyRequests,
			Message: "Too many attempts, try again later",
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	view, err := rc.tokens.ResolveSharedProfile(ctx, c.Param("token"))
	if err != nil {
		var goneErr *services.GoneError
		if errors.As(err, &goneErr) {
			return c.JSON(http.StatusForbidden, models.Response{
				Status:  http.StatusForbidden,
				Message: goneErr.Error(),
			})
		}
		return respondServiceError(c, err)
	}

	utils.ResetShareAttempts(ip, rc.redis)

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Shared profile retrieved",
		Data:    view,
	})
}
