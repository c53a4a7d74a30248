package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "finledger/internal/errors"
	"finledger/internal/middleware"
	"finledger/internal/models"
	"finledger/internal/uuid"
	"finledger/internal/validator"
)

// ErrorResponse documents the error envelope returned by every endpoint.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// getUserID extracts the authenticated user ID from the Gin context.
// Returns ErrUnauthorized if not present.
func getUserID(c *gin.Context) (string, error) {
	userID := c.GetString(middleware.UserIDKey)
	if userID == "" {
		return "", apperrors.ErrUnauthorized
	}
	return userID, nil
}

// parsePathID reads a UUID path parameter.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// respondWithError writes a consistent JSON error response.
func respondWithError(c *gin.Context, err error) {
	middleware.WriteError(c, err)
}

// bindError converts a binding failure into an INVALID_INPUT error.
func bindError(err error) error {
	return apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
}

// parseFlexibleTime accepts a calendar date (YYYY-MM-DD) or an RFC3339
// timestamp and returns the calendar day it falls on.
func parseFlexibleTime(s string) (time.Time, error) {
	if t, err := time.Parse(validator.DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return models.CalendarDate(t), nil
}

// optionalDate parses the named query parameter when present.
func optionalDate(c *gin.Context, name string) (*time.Time, error) {
	v := c.Query(name)
	if v == "" {
		return nil, nil
	}
	t, err := parseFlexibleTime(v)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+name+" format, use YYYY-MM-DD")
	}
	return &t, nil
}

// formatAmount renders an amount with exactly two decimals.
func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(models.AmountScale)
}

// parseQueryID validates a UUID taken from the query string.
func parseQueryID(v string) (string, error) {
	id, err := uuid.Parse(v)
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid id")
	}
	return id, nil
}
