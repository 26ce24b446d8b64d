// controllers/sharing_history_controller.go
package controllers

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/repositories"
	"github.com/rentcard-app/rentcard_backend/services"
)

// SharingHistoryController exposes the append-only share audit log.
type SharingHistoryController struct {
	history  *services.SharingHistoryService
	profiles *repositories.TenantProfileRepository
}

func NewSharingHistoryController(history *services.SharingHistoryService, profiles *repositories.TenantProfileRepository) *SharingHistoryController {
	return &SharingHistoryController{history: history, profiles: profiles}
}

// RecordShare appends one share action for the caller's tenant profile.
func (sc *SharingHistoryController) RecordShare(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	var req models.RecordShareRequest
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

	contactID, err := primitive.ObjectIDFromHex(req.ContactID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid contact ID",
		})
	}
	shareTokenID, err := primitive.ObjectIDFromHex(req.ShareTokenID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid share token ID",
		})
	}
	var templateID *primitive.ObjectID
	if req.TemplateID != "" {
		tid, err := primitive.ObjectIDFromHex(req.TemplateID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid template ID",
			})
		}
		templateID = &tid
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := sc.profiles.FindByUserID(ctx, userObjID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Tenant profile not found",
		})
	}

	record, err := sc.history.Record(ctx, profile.ID, contactID, shareTokenID, templateID, req.MessageUsed, models.ChannelType(req.Method))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Share recorded",
		Data:    record,
	})
}

// GetSharingHistory lists the caller's share audit trail.
func (sc *SharingHistoryController) GetSharingHistory(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	profile, err := sc.profiles.FindByUserID(ctx, userObjID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: "Tenant profile not found",
		})
	}

	records, err := sc.history.ListByTenant(ctx, profile.ID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Sharing history retrieved",
		Data:    records,
	})
}
