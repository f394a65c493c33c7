package dto

import (
	"net/http"
	"strings"
)

// Error codes produced by the HTTP layer itself. Domain codes pass through unchanged.
const (
	ErrCodeInternal         = "INTERNAL_ERROR"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeInvalidJSON      = "INVALID_JSON"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound    = "ROUTE_NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// errorCodeHTTPStatus maps exact error codes to HTTP status codes
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:         http.StatusInternalServerError,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInvalidJSON:      http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidID:        http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:    http.StatusNotFound,
	ErrCodeMethodNotAllowed: http.StatusMethodNotAllowed,

	// Authentication
	ErrCodeUnauthorized: http.StatusUnauthorized,

	// Lookups
	ErrCodeNotFound:  http.StatusNotFound,
	"ITEM_NOT_FOUND": http.StatusNotFound,

	// Conflicts with stored state
	ErrCodeConflict:                http.StatusConflict,
	"ALREADY_EXISTS":               http.StatusConflict,
	"CONCURRENCY_CONFLICT":         http.StatusConflict,
	"INVALID_STATE":                http.StatusConflict,
	"ORDER_ALREADY_PROCESSED":      http.StatusConflict,
	"ORDER_PROCESSING_IN_PROGRESS": http.StatusConflict,
	"PO_NOT_RECEIVABLE":            http.StatusConflict,

	// Business rules on well-formed input
	"NOT_VARIABLE": http.StatusUnprocessableEntity,
	"NO_ITEMS":     http.StatusUnprocessableEntity,

	// Upstream dependencies
	"FEED_UNAVAILABLE":              http.StatusBadGateway,
	"FEED_NOT_CONFIGURED":           http.StatusServiceUnavailable,
	"EXPORT_STORAGE_NOT_CONFIGURED": http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Any INVALID_* code is a client input error.
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
