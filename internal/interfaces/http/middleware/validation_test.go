package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fabtrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type settleBody struct {
	NetValue  float64 `json:"net_value" binding:"required,gt=0"`
	FiscalRef string  `json:"fiscal_ref" binding:"max=5"`
	Method    string  `json:"method" binding:"omitempty,oneof=PIX CASH"`
}

func validationRouter() *gin.Engine {
	SetupValidator()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.POST("/settle", func(c *gin.Context) {
		var req settleBody
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	return router
}

func TestHandleValidationError(t *testing.T) {
	router := validationRouter()

	t.Run("reports every invalid field by json name", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/settle", strings.NewReader(`{"fiscal_ref":"NF-000001","method":"WIRE"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(RequestIDHeader, "req-v-1")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Error)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-v-1", resp.Error.RequestID)

		messages := map[string]string{}
		for _, d := range resp.Error.Details {
			messages[d.Field] = d.Message
		}
		assert.Equal(t, "This field is required", messages["net_value"])
		assert.Equal(t, "Must be at most 5 characters", messages["fiscal_ref"])
		assert.Equal(t, "Must be one of: PIX CASH", messages["method"])
	})

	t.Run("accepts valid input", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/settle", strings.NewReader(`{"net_value":480,"method":"PIX"}`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestIsValidationError(t *testing.T) {
	router := gin.New()
	var bindErr error
	router.POST("/x", func(c *gin.Context) {
		var req settleBody
		bindErr = c.ShouldBindJSON(&req)
	})

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, IsValidationError(bindErr))

	assert.False(t, IsValidationError(errors.New("unexpected EOF")))
}
