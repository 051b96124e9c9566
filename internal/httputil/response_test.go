package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/domainbus/internal/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	HandleErrorGin(c, err, nil)
	return w
}

func TestHandleErrorGin(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		errorCode  string
	}{
		{"NotFound", apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"Conflict", apperrors.ErrConflict, http.StatusConflict, "conflict"},
		{"InvalidInput", apperrors.Wrap(apperrors.ErrInvalidInput, "bad domain"), http.StatusUnprocessableEntity, "invalid_input"},
		{"Unavailable", apperrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{"Internal", apperrors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performError(t, tt.err)
			assert.Equal(t, tt.statusCode, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.errorCode, body.Error)
		})
	}
}

func TestParseLimit(t *testing.T) {
	newCtx := func(query string) *gin.Context {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		return c
	}

	t.Run("Default", func(t *testing.T) {
		limit, err := ParseLimit(newCtx(""))
		assert.NoError(t, err)
		assert.Equal(t, DefaultLimit, limit)
	})

	t.Run("Explicit", func(t *testing.T) {
		limit, err := ParseLimit(newCtx("limit=5"))
		assert.NoError(t, err)
		assert.Equal(t, 5, limit)
	})

	t.Run("Capped", func(t *testing.T) {
		limit, err := ParseLimit(newCtx("limit=99999"))
		assert.NoError(t, err)
		assert.Equal(t, MaxLimit, limit)
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := ParseLimit(newCtx("limit=-1"))
		assert.Error(t, err)
		_, err = ParseLimit(newCtx("limit=abc"))
		assert.Error(t, err)
	})
}

func TestParseSince(t *testing.T) {
	newCtx := func(query string) *gin.Context {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/?"+query, nil)
		return c
	}

	since, err := ParseSince(newCtx(""))
	assert.NoError(t, err)
	assert.Equal(t, uint64(0), since)

	since, err = ParseSince(newCtx("since=42"))
	assert.NoError(t, err)
	assert.Equal(t, uint64(42), since)

	_, err = ParseSince(newCtx("since=nope"))
	assert.Error(t, err)
}
