package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"

	"github.com/rentcard-app/rentcard_backend/config"
	"github.com/rentcard-app/rentcard_backend/controllers"
	"github.com/rentcard-app/rentcard_backend/middleware"
	"github.com/rentcard-app/rentcard_backend/repositories"
	"github.com/rentcard-app/rentcard_backend/routes"
	"github.com/rentcard-app/rentcard_backend/services"
)

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found")
	}

	// Connect to Redis (optional, guards the public share paths)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "https://rentcard.app"
	}

	// Create a new Echo instance
	e := echo.New()

	// Initialize custom validator
	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "RentCard sharing service is running",
			"version": "1.0",
		})
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})

	e.Use(httpsRedirect())

	// Initialize repositories
	userRepo := repositories.NewUserRepository(client)
	profileRepo := repositories.NewTenantProfileRepository(client)
	tokenRepo := repositories.NewShareTokenRepository(client)
	shortlinkRepo := repositories.NewShortlinkRepository(client)
	referralRepo := repositories.NewReferralRepository(client)
	rewardRepo := repositories.NewRewardRepository(client)
	historyRepo := repositories.NewSharingHistoryRepository(client)

	// Initialize services
	tokenService := services.NewShareTokenService(tokenRepo, profileRepo)
	shortlinkService := services.NewShortlinkService(shortlinkRepo, tokenRepo, profileRepo, baseURL)
	rewardService := services.NewRewardService(rewardRepo)
	referralService := services.NewReferralService(referralRepo, userRepo, rewardService, baseURL)
	historyService := services.NewSharingHistoryService(historyRepo, tokenRepo)

	// Initialize controllers
	shareTokenController := controllers.NewShareTokenController(tokenService, historyService, userRepo, baseURL)
	shortlinkController := controllers.NewShortlinkController(shortlinkService)
	rentcardController := controllers.NewRentcardController(tokenService, redisClient)
	referralController := controllers.NewReferralController(referralService, rewardService)
	historyController := controllers.NewSharingHistoryController(historyService, profileRepo)

	// Register routes
	routes.RegisterShareRoutes(e, shareTokenController, shortlinkController, rentcardController, historyController)
	routes.RegisterReferralRoutes(e, referralController)

	// Start the expiry sweeps in a goroutine
	go services.RunExpirySweeps(context.Background(), referralService, rewardService, 5*time.Minute)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}

func httpsRedirect() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("X-Forwarded-Proto") == "http" {
				return c.Redirect(301, "https://"+c.Request().Host+c.Request().RequestURI)
			}
			return next(c)
		}
	}
}
