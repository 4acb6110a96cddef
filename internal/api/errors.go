package api

import (
	"errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/bgovha/shopsphere-backend/internal/entity"
	"github.com/bgovha/shopsphere-backend/internal/service"
)

// writeError maps a domain error to an HTTP response. Validation problems are
// 400, missing records 404, stock shortage and concurrency losses 409.
// Anything else is a generic 500 with no internal detail.
func writeError(c echo.Context, err error) error {
	var validationErr *entity.ValidationError
	if errors.As(err, &validationErr) {
		return c.JSON(http.StatusBadRequest, map[string]any{"error": "validation_error", "detail": validationErr})
	}

	var notFoundErr *entity.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.JSON(http.StatusNotFound, map[string]any{"error": "not_found", "detail": notFoundErr})
	}

	var stockErr *entity.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.JSON(http.StatusConflict, map[string]any{"error": "insufficient_stock", "detail": stockErr})
	}

	var conflictErr *entity.ConflictError
	if errors.As(err, &conflictErr) {
		return c.JSON(http.StatusConflict, map[string]any{"error": "conflict", "detail": conflictErr})
	}

	if errors.Is(err, service.ErrInvalidCredentials) {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "invalid_credentials"})
	}

	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}

// currentUserID extracts the authenticated user's id from the JWT set by the
// echo-jwt middleware.
func currentUserID(c echo.Context) (int, bool) {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok {
		return 0, false
	}
	claims, ok := token.Claims.(*service.JwtCustomClaims)
	if !ok {
		return 0, false
	}
	return claims.UserID, true
}
