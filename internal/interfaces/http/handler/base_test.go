package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/storeops/backend/internal/domain/order"
	"github.com/storeops/backend/internal/domain/shared"
	"github.com/storeops/backend/internal/interfaces/http/dto"
	"github.com/storeops/backend/internal/interfaces/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func serveError(t *testing.T, err error) (int, dto.Response) {
	t.Helper()
	h := &BaseHandler{}
	r := gin.New()
	r.Use(middleware.RequestID())
	r.GET("/", func(c *gin.Context) { h.HandleError(c, err) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"wrapped already processed", fmt.Errorf("process: %w", order.ErrAlreadyProcessed), http.StatusConflict, "ORDER_ALREADY_PROCESSED"},
		{"feed unavailable", fmt.Errorf("%w: status 502", order.ErrFeedUnavailable), http.StatusBadGateway, "FEED_UNAVAILABLE"},
		{"invalid quantity", shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive"), http.StatusBadRequest, "INVALID_QUANTITY"},
		{"version conflict", shared.ErrConcurrencyConflict, http.StatusConflict, "CONCURRENCY_CONFLICT"},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError, dto.ErrCodeInternal},
		{"deadline", context.DeadlineExceeded, http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := serveError(t, tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, "req-42", resp.Error.RequestID)
		})
	}
}

func TestHandleError_HidesInternalMessage(t *testing.T) {
	_, resp := serveError(t, errors.New("pq: password authentication failed"))
	assert.NotContains(t, resp.Error.Message, "password")
}

type bindTarget struct {
	Name     string `json:"name" binding:"required"`
	Quantity int    `json:"quantity" binding:"gt=0"`
}

func TestBindJSON(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var body bindTarget
		if !h.bindJSON(c, &body) {
			return
		}
		h.Success(c, body)
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"name":"foil","quantity":2}`, http.StatusOK, ""},
		{"validation", `{"quantity":0}`, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed", `{"name":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"name":"foil","quantity":"two"}`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"empty", ``, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCode != "" {
				var resp dto.Response
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, tt.wantCode, resp.Error.Code)
			}
		})
	}
}

func TestBindJSON_ValidationDetails(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var body bindTarget
		if h.bindJSON(c, &body) {
			h.Success(c, body)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Error.Details, 2)
	assert.Equal(t, "name", resp.Error.Details[0].Field)
	assert.Equal(t, "quantity", resp.Error.Details[1].Field)
}

func TestUUIDParam(t *testing.T) {
	h := &BaseHandler{}
	r := gin.New()
	r.GET("/:id", func(c *gin.Context) {
		id, ok := h.uuidParam(c, "id")
		if !ok {
			return
		}
		c.String(http.StatusOK, id.String())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/6f1c1a4e-4c8d-4b7e-9a41-0d2f4b8f9e10", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/42", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidID)
}

func TestHealth(t *testing.T) {
	r := gin.New()
	healthy := NewHealthHandler("1.0.0", map[string]Pinger{
		"database": PingFunc(func(context.Context) error { return nil }),
		"redis":    nil,
	})
	r.GET("/health", healthy.Health)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0","checks":{"database":"ok"}}`, w.Body.String())

	r = gin.New()
	degraded := NewHealthHandler("1.0.0", map[string]Pinger{
		"database": PingFunc(func(context.Context) error { return errors.New("connection refused") }),
	})
	r.GET("/health", degraded.Health)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}
