// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"agrichain/internal/core/apperror"
	"agrichain/internal/core/id"
)

// DateLayout is the wire format for snapshot dates.
const DateLayout = "2006-01-02"

// ParseDate parses a calendar date path/query parameter.
func ParseDate(value string) (time.Time, error) {
	day, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, apperror.NewValidation("invalid date, expected YYYY-MM-DD").
			WithDetail("value", value)
	}
	return day, nil
}

// ParseID parses a UUID path parameter.
func ParseID(field, value string) (id.ID, error) {
	parsed, err := id.Parse(value)
	if err != nil {
		return id.ID{}, apperror.NewValidation("invalid identifier").
			WithDetail("field", field).
			WithDetail("value", value)
	}
	return parsed, nil
}

// ListResponse wraps list results.
type ListResponse struct {
	Items  any `json:"items"`
	Count  int `json:"count"`
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}
