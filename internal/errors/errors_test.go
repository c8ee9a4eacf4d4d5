package errors

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		respond func(c *gin.Context)
		status  int
		code    string
		message string
		field   string
	}{
		{"unauthorized default", func(c *gin.Context) { Unauthorized(c, "") }, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required", ""},
		{"credentials", func(c *gin.Context) { InvalidCredentials(c, "invalid username or password") }, http.StatusUnauthorized, ErrCodeInvalidCredentials, "invalid username or password", ""},
		{"not found", func(c *gin.Context) { NotFound(c, "task not found") }, http.StatusNotFound, ErrCodeNotFound, "task not found", ""},
		{"bad request default", func(c *gin.Context) { BadRequest(c, "") }, http.StatusBadRequest, ErrCodeInvalidInput, "Invalid request", ""},
		{"validation", func(c *gin.Context) { ValidationFailed(c, "title", "Task title is required!") }, http.StatusBadRequest, ErrCodeValidationFailed, "Task title is required!", "title"},
		{"exists", func(c *gin.Context) { AlreadyExists(c, "email", "Email already registered") }, http.StatusConflict, ErrCodeAlreadyExists, "Email already registered", "email"},
		{"transition", func(c *gin.Context) { InvalidTransition(c, "nope") }, http.StatusConflict, ErrCodeInvalidTransition, "nope", ""},
		{"operation", func(c *gin.Context) { InvalidOperation(c, "no edit") }, http.StatusConflict, ErrCodeInvalidOperation, "no edit", ""},
		{"internal default", func(c *gin.Context) { InternalError(c, "") }, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			tt.respond(c)

			assert.Equal(t, tt.status, w.Code)

			var body struct {
				Code    string       `json:"code"`
				Message string       `json:"message"`
				Details FieldDetails `json:"details"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.message, body.Message)
			assert.Equal(t, tt.field, body.Details.Field)
		})
	}
}

func TestAPIError(t *testing.T) {
	err := NewAPIError(ErrCodeAlreadyExists, "taken")
	assert.Equal(t, "taken", err.Error())
	assert.Nil(t, err.Details)
}
