package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Success(c, gin.H{"message": "ok"})

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.True(t, resp.Success)
	assert.Nil(t, resp.Error)
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name       string
		write      func(c *gin.Context)
		wantStatus int
		wantCode   string
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "missing") }, http.StatusBadRequest, CodeBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, CodeTokenExpired, "expired") }, http.StatusUnauthorized, CodeTokenExpired},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "nope") }, http.StatusForbidden, CodeForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "Route not found", "/x") }, http.StatusNotFound, CodeNotFound},
		{"internal", func(c *gin.Context) { InternalError(c, errors.New("boom")) }, http.StatusInternalServerError, CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			tt.write(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode(t, w)
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestInternalError_HidesDetails(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	err := errors.New("pq: password authentication failed for user \"postgres\"")
	InternalError(c, err)

	resp := decode(t, w)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Internal Server Error", resp.Error.Message)
	assert.Empty(t, resp.Error.Details)
	assert.NotContains(t, w.Body.String(), "postgres")

	require.Len(t, c.Errors, 1)
	assert.ErrorIs(t, c.Errors[0].Err, err)
}

func TestAbort_StopsChain(t *testing.T) {
	w := httptest.NewRecorder()
	_, r := gin.CreateTestContext(w)

	reached := false
	r.GET("/x", func(c *gin.Context) {
		Abort(c, http.StatusUnauthorized, CodeMissingToken, "Access token required")
	}, func(c *gin.Context) {
		reached = true
	})

	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.False(t, reached)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, CodeMissingToken, decode(t, w).Error.Code)
}
