// routes/share_routes.go
package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/rentcard-app/rentcard_backend/controllers"
	"github.com/rentcard-app/rentcard_backend/middleware"
)

// RegisterShareRoutes wires the share token, shortlink, public profile and
// sharing history endpoints.
func RegisterShareRoutes(e *echo.Echo, shareTokenController *controllers.ShareTokenController, shortlinkController *controllers.ShortlinkController, rentcardController *controllers.RentcardController, historyController *controllers.SharingHistoryController) {
	// Public reads: raw token view and the shortlink redirect
	e.GET("/api/rentcard/shared/:token", rentcardController.GetSharedRentcard)
	e.GET("/s/:slug", shortlinkController.ResolveShortlink)

	tokenGroup := e.Group("/api/share-tokens")
	tokenGroup.Use(middleware.JWTMiddleware())
	tokenGroup.POST("", shareTokenController.CreateShareToken)
	tokenGroup.GET("", shareTokenController.GetShareTokens)
	tokenGroup.PATCH("/:id/revoke", shareTokenController.RevokeShareToken)
	tokenGroup.POST("/email", shareTokenController.EmailShareToken)

	shortlinkGroup := e.Group("/api/shortlinks")
	shortlinkGroup.Use(middleware.JWTMiddleware())
	shortlinkGroup.POST("", shortlinkController.CreateShortlink)
	shortlinkGroup.GET("/:slug/qrcode", shortlinkController.GetShortlinkQRCode)

	historyGroup := e.Group("/api/sharing-history")
	historyGroup.Use(middleware.JWTMiddleware())
	historyGroup.POST("", historyController.RecordShare)
	historyGroup.GET("", historyController.GetSharingHistory)
}
