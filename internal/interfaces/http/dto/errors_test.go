package dto

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{"INVALID_INPUT", http.StatusBadRequest},
		{"INVALID_QUANTITY", http.StatusBadRequest},
		{"INVALID_PO_NUMBER", http.StatusBadRequest},
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeNotFound, http.StatusNotFound},
		{"ITEM_NOT_FOUND", http.StatusNotFound},
		{"ALREADY_EXISTS", http.StatusConflict},
		{"CONCURRENCY_CONFLICT", http.StatusConflict},
		{"ORDER_ALREADY_PROCESSED", http.StatusConflict},
		{"ORDER_PROCESSING_IN_PROGRESS", http.StatusConflict},
		{"PO_NOT_RECEIVABLE", http.StatusConflict},
		{"INVALID_STATE", http.StatusConflict},
		{"NOT_VARIABLE", http.StatusUnprocessableEntity},
		{"NO_ITEMS", http.StatusUnprocessableEntity},
		{"FEED_UNAVAILABLE", http.StatusBadGateway},
		{"FEED_NOT_CONFIGURED", http.StatusServiceUnavailable},
		{"EXPORT_STORAGE_NOT_CONFIGURED", http.StatusServiceUnavailable},
		{ErrCodeRequestTooLarge, http.StatusRequestEntityTooLarge},
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNewSuccessResponseWithMeta(t *testing.T) {
	resp := NewSuccessResponseWithMeta([]int{1, 2}, 41, 2, 20)
	require.NotNil(t, resp.Meta)
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.Meta.TotalPages)

	empty := NewSuccessResponseWithMeta([]int{}, 0, 1, 0)
	assert.Equal(t, 0, empty.Meta.TotalPages)
}

func TestErrorResponseJSON(t *testing.T) {
	body, err := json.Marshal(NewValidationErrorResponse("Request validation failed", "req-1", []ValidationDetail{
		{Field: "quantity", Message: "quantity must be greater than 0"},
	}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, false, decoded["success"])
	assert.NotContains(t, decoded, "data")

	errInfo := decoded["error"].(map[string]any)
	assert.Equal(t, ErrCodeValidation, errInfo["code"])
	assert.Equal(t, "req-1", errInfo["request_id"])
	details := errInfo["details"].([]any)
	require.Len(t, details, 1)
	assert.Equal(t, "quantity", details[0].(map[string]any)["field"])
}

func TestNewErrorResponse_OmitsEmptyRequestID(t *testing.T) {
	body, err := json.Marshal(NewErrorResponse(ErrCodeNotFound, "missing", ""))
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"error":{"code":"NOT_FOUND","message":"missing"}}`, string(body))
}
