package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fabtrack/backend/internal/domain/shared"
	"github.com/fabtrack/backend/internal/interfaces/http/dto"
	"github.com/fabtrack/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

func newTestContext(method, target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, nil)
	return c, w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) dto.Response {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_Success(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.Success(c, map[string]string{"order_number": "PED-2024-00001"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
	assert.Equal(t, "PED-2024-00001", resp.Data.(map[string]any)["order_number"])
}

func TestBaseHandler_SuccessWithMeta(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.SuccessWithMeta(c, []string{"a", "b"}, 42, 2, 20)

	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(42), resp.Meta.Total)
	assert.Equal(t, 2, resp.Meta.Page)
	assert.Equal(t, 3, resp.Meta.TotalPages)
}

func TestBaseHandler_Created(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodPost, "/")

	h.Created(c, gin.H{"id": "x"})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, decodeResponse(t, w).Success)
}

func TestBaseHandler_ErrorCarriesRequestID(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")
	c.Set(middleware.RequestIDKey, "req-123")

	h.BadRequest(c, "nope")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeResponse(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.Equal(t, "req-123", resp.Error.RequestID)
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", shared.ErrNotFound, http.StatusNotFound, dto.ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("load order: %w", shared.ErrNotFound), http.StatusNotFound, dto.ErrCodeNotFound},
		{"concurrency conflict", shared.ErrConcurrencyConflict, http.StatusConflict, dto.ErrCodeConcurrencyConflict},
		{"lock held", shared.ErrLockNotObtained, http.StatusConflict, dto.ErrCodeLocked},
		{"invalid state", shared.NewDomainError("INVALID_STATE", "Order is cancelled"), http.StatusUnprocessableEntity, dto.ErrCodeInvalidState},
		{"stage out of range", shared.NewDomainError("STAGE_OUT_OF_RANGE", "Already ready"), http.StatusUnprocessableEntity, dto.ErrCodeStageOutOfRange},
		{"installment paid", shared.NewDomainError("INSTALLMENT_ALREADY_PAID", "Paid"), http.StatusUnprocessableEntity, dto.ErrCodeInstallmentPaid},
		{"field error", shared.NewDomainError("INVALID_AMOUNT", "Negative"), http.StatusBadRequest, "ERR_INVALID_AMOUNT"},
		{"parent missing", shared.NewDomainError("PARENT_NOT_FOUND", "Parent"), http.StatusNotFound, dto.ErrCodeNotFound},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext(http.MethodGet, "/")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestBaseHandler_HandleErrorHidesInternalMessage(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, errors.New("pq: password authentication failed"))

	resp := decodeResponse(t, w)
	assert.NotContains(t, resp.Error.Message, "password")
	assert.Len(t, c.Errors, 1)
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext(http.MethodGet, "/")

	h.HandleError(c, nil)

	assert.Equal(t, 0, w.Body.Len())
}

func TestBaseHandler_BindError(t *testing.T) {
	type payload struct {
		Reason string `json:"reason" binding:"required"`
	}

	t.Run("validation error", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/")
		c.Request = httptest.NewRequest(http.MethodPost, "/", jsonBody(t, map[string]string{}))
		c.Request.Header.Set("Content-Type", "application/json")

		var p payload
		h.BindError(c, c.ShouldBindJSON(&p))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		resp := decodeResponse(t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		require.Len(t, resp.Error.Details, 1)
		assert.Equal(t, "reason", resp.Error.Details[0].Field)
	})

	t.Run("malformed json", func(t *testing.T) {
		h := &BaseHandler{}
		c, w := newTestContext(http.MethodPost, "/")
		c.Request = httptest.NewRequest(http.MethodPost, "/", stringBody("{not json"))

		var p payload
		h.BindError(c, c.ShouldBindJSON(&p))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, dto.ErrCodeInvalidJSON, decodeResponse(t, w).Error.Code)
	})
}

func TestBaseHandler_ParseParams(t *testing.T) {
	h := &BaseHandler{}

	id := uuid.New()
	c, _ := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: id.String()}, {Key: "number", Value: "3"}}
	parsed, ok := h.parseUUIDParam(c, "id")
	assert.True(t, ok)
	assert.Equal(t, id, parsed)
	n, ok := h.parseIntParam(c, "number")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	c, w := newTestContext(http.MethodGet, "/")
	c.Params = gin.Params{{Key: "id", Value: "not-a-uuid"}}
	_, ok = h.parseUUIDParam(c, "id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	for _, bad := range []string{"0", "-1", "x"} {
		c, w := newTestContext(http.MethodGet, "/")
		c.Params = gin.Params{{Key: "number", Value: bad}}
		_, ok := h.parseIntParam(c, "number")
		assert.False(t, ok, bad)
		assert.Equal(t, http.StatusBadRequest, w.Code, bad)
	}
}
