// controllers/share_token_controller.go
package controllers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcard-app/rentcard_backend/middleware"
	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/repositories"
	"github.com/rentcard-app/rentcard_backend/services"
	"github.com/rentcard-app/rentcard_backend/utils"
)

// ShareTokenController handles the tenant-facing share token endpoints.
type ShareTokenController struct {
	tokens  *services.ShareTokenService
	history *services.SharingHistoryService
	users   *repositories.UserRepository
	baseURL string
}

func NewShareTokenController(tokens *services.ShareTokenService, history *services.SharingHistoryService, users *repositories.UserRepository, baseURL string) *ShareTokenController {
	return &ShareTokenController{tokens: tokens, history: history, users: users, baseURL: baseURL}
}

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 10*time.Second)
}

// CreateShareToken mints (or, losing a concurrent race, reuses) a share
// token for the caller's tenant profile.
func (sc *ShareTokenController) CreateShareToken(c echo.Context) error {
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

	var req models.CreateShareTokenRequest
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

	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := sc.tokens.CreateToken(ctx, userObjID, req)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Share token created",
		Data: map[string]interface{}{
			"token":    token,
			"shareUrl": fmt.Sprintf("%s/api/rentcard/shared/%s", sc.baseURL, token.Token),
		},
	})
}

// GetShareTokens lists every token the caller's profile has minted.
func (sc *ShareTokenController) GetShareTokens(c echo.Context) error {
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

	ctx, cancel := requestContext(c)
	defer cancel()

	tokens, err := sc.tokens.ListTokens(ctx, userObjID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Share tokens retrieved",
		Data:    tokens,
	})
}

// RevokeShareToken soft-revokes a token owned by the caller.
func (sc *ShareTokenController) RevokeShareToken(c echo.Context) error {
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

	tokenID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid token ID",
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	token, err := sc.tokens.Revoke(ctx, tokenID, userObjID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Share token revoked",
		Data:    token,
	})
}

// EmailShareToken delivers the caller's share link by email and records the
// share action in the audit log with the email channel.
func (sc *ShareTokenController) EmailShareToken(c echo.Context) error {
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

	var req models.EmailShareRequest
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

	ctx, cancel := requestContext(c)
	defer cancel()

	// Reuse the active token when one exists, mint otherwise
	token, err := sc.tokens.GetValidToken(ctx, userObjID, models.ScopeRentcard)
	if err != nil {
		return respondServiceError(c, err)
	}
	if token == nil {
		token, err = sc.tokens.CreateToken(ctx, userObjID, models.CreateShareTokenRequest{Scope: models.ScopeRentcard})
		if err != nil {
			return respondServiceError(c, err)
		}
	}

	sender, err := sc.users.FindByID(ctx, userObjID)
	if err != nil {
		return respondServiceError(c, err)
	}

	shareURL := fmt.Sprintf("%s/api/rentcard/shared/%s?channel=%s", sc.baseURL, token.Token, models.ChannelEmail)
	if err := utils.SendShareEmail(req.RecipientEmail, req.RecipientName, sender.FullName, shareURL, req.Message); err != nil {
		log.Printf("Share email delivery failed: %v", err)
		return c.JSON(http.StatusBadGateway, models.Response{
			Status:  http.StatusBadGateway,
			Message: "Failed to send share email",
		})
	}

	var templateID *primitive.ObjectID
	if req.TemplateID != "" {
		if tid, err := primitive.ObjectIDFromHex(req.TemplateID); err == nil {
			templateID = &tid
		}
	}
	if _, err := sc.history.Record(ctx, token.TenantID, primitive.NilObjectID, token.ID, templateID, req.Message, models.ChannelEmail); err != nil {
		log.Printf("Failed to record email share in history: %v", err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Share email sent",
		Data: map[string]interface{}{
			"shareUrl":  shareURL,
			"recipient": req.RecipientEmail,
		},
	})
}
