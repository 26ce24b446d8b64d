// controllers/referral_controller.go
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

// ReferralController handles referral creation, conversion, stats and
// reward redemption.
type ReferralController struct {
	referrals *services.ReferralService
	rewards   *services.RewardService
}

func NewReferralController(referrals *services.ReferralService, rewards *services.RewardService) *ReferralController {
	return &ReferralController{referrals: referrals, rewards: rewards}
}

func extractUserObjectID(c echo.Context) (primitive.ObjectID, error) {
	userID, err := middleware.ExtractUserID(c)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusUnauthorized, "Authentication failed")
	}
	userObjID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return primitive.NilObjectID, echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}
	return userObjID, nil
}

// CreateReferral opens a pending referral for the authenticated referrer.
// The referrer identity comes exclusively from the session token.
func (rc *ReferralController) CreateReferral(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	var req models.CreateReferralRequest
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

	var shareTokenID, shortlinkID *primitive.ObjectID
	if req.ShareTokenID != "" {
		id, err := primitive.ObjectIDFromHex(req.ShareTokenID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid share token ID",
			})
		}
		shareTokenID = &id
	}
	if req.ShortlinkID != "" {
		id, err := primitive.ObjectIDFromHex(req.ShortlinkID)
		if err != nil {
			return c.JSON(http.StatusBadRequest, models.Response{
				Status:  http.StatusBadRequest,
				Message: "Invalid shortlink ID",
			})
		}
		shortlinkID = &id
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	referral, err := rc.referrals.CreateReferral(ctx, userObjID, req, shareTokenID, shortlinkID)
	if err != nil {
		return respondServiceError(c, err)
	}

	referralLink := rc.referrals.ReferralLink(referral.ReferralCode)
	qrCode, err := utils.GenerateQRCode(referralLink)
	if err != nil {
		log.Printf("Failed to generate referral QR code: %v", err)
	}

	return c.JSON(http.StatusCreated, models.Response{
		Status:  http.StatusCreated,
		Message: "Referral created",
		Data: map[string]interface{}{
			"referral":     referral,
			"referralLink": referralLink,
			"qrCode":       qrCode,
		},
	})
}

// ConvertReferral is called by the signup flow once the referee holds an
// account. The referee identity is the authenticated caller.
func (rc *ReferralController) ConvertReferral(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	var req models.ConvertReferralRequest
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

	referral, err := rc.referrals.Convert(ctx, req.ReferralCode, userObjID, req.RefereeEmail, models.ConversionEvent(req.ConversionEvent))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral converted",
		Data:    referral,
	})
}

// GetReferralStats returns the aggregate ledger view plus recent referrals.
// Self-only: the path userId must match the session identity.
func (rc *ReferralController) GetReferralStats(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	if c.Param("userId") != userObjID.Hex() {
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: "You can only view your own referral stats",
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	stats, recent, err := rc.referrals.GetStats(ctx, userObjID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Referral stats retrieved",
		Data: map[string]interface{}{
			"stats":           stats,
			"recentReferrals": recent,
		},
	})
}

// GetRewards lists the caller's rewards, newest first.
func (rc *ReferralController) GetRewards(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	rewards, err := rc.rewards.ListRewards(ctx, userObjID)
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Rewards retrieved",
		Data:    rewards,
	})
}

// ClaimReward redeems an earned reward for its recipient. A second claim on
// the same reward answers 409 "already claimed", not a generic error.
func (rc *ReferralController) ClaimReward(c echo.Context) error {
	userObjID, err := extractUserObjectID(c)
	if err != nil {
		return err
	}

	var req models.ClaimRewardRequest
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

	rewardID, err := primitive.ObjectIDFromHex(req.RewardID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid reward ID",
		})
	}

	ctx, cancel := requestContext(c)
	defer cancel()

	reward, err := rc.rewards.Claim(ctx, rewardID, userObjID, models.RedemptionMethod(req.RedemptionMethod))
	if err != nil {
		return respondServiceError(c, err)
	}

	return c.JSON(http.StatusOK, models.Response{
		Status:  http.StatusOK,
		Message: "Reward claimed",
		Data: models.ClaimRewardResponse{
			Reward:     *reward,
			RedeemedAt: *reward.RedeemedAt,
		},
	})
}
