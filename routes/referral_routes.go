// routes/referral_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/rentcard-app/rentcard_backend/controllers"
	"github.com/rentcard-app/rentcard_backend/middleware"
)

// RegisterReferralRoutes wires the referral ledger and reward endpoints.
func RegisterReferralRoutes(e *echo.Echo, referralController *controllers.ReferralController) {
	referralGroup := e.Group("/api/referrals")
	referralGroup.Use(middleware.JWTMiddleware())

	referralGroup.POST("/create", referralController.CreateReferral)
	referralGroup.POST("/convert", referralController.ConvertReferral)
	referralGroup.GET("/stats/:userId", referralController.GetReferralStats)
	referralGroup.GET("/rewards", referralController.GetRewards)
	referralGroup.POST("/claim-reward", referralController.ClaimReward)
}
