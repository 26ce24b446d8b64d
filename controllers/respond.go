package controllers

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rentcard-app/rentcard_backend/models"
	"github.com/rentcard-app/rentcard_backend/services"
)

// respondServiceError maps the typed service errors to HTTP statuses in one
// place. Internal errors are logged and never leaked to the client.
func respondServiceError(c echo.Context, err error) error {
	var (
		validationErr *services.ValidationError
		forbiddenErr  *services.ForbiddenError
		notFoundErr   *services.NotFoundError
		goneErr       *services.GoneError
		conflictErr   *services.ConflictError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, models.Response{
			Status:  http.StatusBadRequest,
			Message: validationErr.Error(),
		})
	case errors.As(err, &forbiddenErr):
		return c.JSON(http.StatusForbidden, models.Response{
			Status:  http.StatusForbidden,
			Message: forbiddenErr.Error(),
		})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, models.Response{
			Status:  http.StatusNotFound,
			Message: notFoundErr.Error(),
		})
	case errors.As(err, &goneErr):
		return c.JSON(http.StatusGone, models.Response{
			Status:  http.StatusGone,
			Message: goneErr.Error(),
		})
	case errors.As(err, &conflictErr):
		return c.JSON(http.StatusConflict, models.Response{
			Status:  http.StatusConflict,
			Message: conflictErr.Error(),
		})
	default:
		log.Printf("Internal error handling %s: %v", c.Path(), err)
		return c.JSON(http.StatusInternalServerError, models.Response{
			Status:  http.StatusInternalServerError,
			Message: "Internal server error",
		})
	}
}
