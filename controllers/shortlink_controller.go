// controllers/shortlink_controller.go
package controllers

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcard-app/rentcard_backend/middleware"
	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/services"
	"github.com/rentcard-app/rentcard_backend/utils"
)

// ShortlinkController handles shortlink creation, the public redirect and
// QR code rendering.
type ShortlinkController struct {
	shortlinks *services.ShortlinkService
}

func NewShortlinkController(shortlinks *services.ShortlinkService) *ShortlinkController {
	return &ShortlinkController{shortlinks: shortlinks}
}

// CreateShortlink wraps one of the caller's share tokens into a channel-
// tagged short URL. Platform and method feed the attribution table.
func (sc *ShortlinkController) CreateShortlink(c echo.Context) error {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid user ID",
		})
	}

	var req models.CreateShortlinkRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request format",
		})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: err.Error(),
		})
	}

	tokenID, err := primitive.ObjectIDFromHex(req.ShareTokenID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid share token ID",
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	link, err := sc.shortlinks.CreateShortlink(ctx, userObjID, tokenID, services.ShareContext{
		Platform: models.PlatformType(req.Platform),
		Method:   req.Method,
	})
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Shortlink created",
		Data: map[string]interface{}{
			"shortlink": link,
			"shortUrl":  sc.shortlinks.ShortlinkURL(link.Slug),
		},
	})
}

// ResolveShortlink is the public redirect: a valid slug forwards the viewer
// with a 302; a slug whose backing token died answers 410, never the target.
func (sc *ShortlinkController) ResolveShortlink(c echo.Context) error {
	ctx, cancel := requestContext(c)
	defer cancel()

	resolved, err := sc.shortlinks.Resolve(ctx, c.Param("slug"))
	if err != nil {
		return respondServiceError(c, err)
	}

	log.Printf("Resolved shortlink %s via channel %s", c.Param("slug"), resolved.Channel)
	return c.Redirect(http.StatusFound, resolved.TargetURL)
}

// GetShortlinkQRCode renders the short URL as a QR code for the qr_code
// channel. Rendering is not a view, so no counters move here.
func (sc *ShortlinkController) GetShortlinkQRCode(c echo.Context) error {
	if _, err := middleware.ExtractUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, models.Response{
			Status:  http.StatusUnauthorized,
			Message: "Authentication failed",
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	slug := c.Param("slug")
	link, err := sc.shortlinks.Peek(ctx, slug)
	if err != nil {
		return respondServiceError(c, err)
	}

	qrCode, err := utils.GenerateQRCode(sc.shortlinks.ShortlinkURL(link.Slug))
	if err != nil {
		log.Printf("Failed to generate QR code for slug %s: %v", slug, err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "QR code generated",
		Data: map[string]interface{}{
			"qrCode":   qrCode,
			"shortUrl": sc.shortlinks.ShortlinkURL(link.Slug),
			"channel":  link.Channel,
		},
	})
}
