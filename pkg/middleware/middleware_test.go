package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bitwise74/blog-api/internal/auth"
	"bitwise74/blog-api/pkg/security"
	"bitwise74/blog-api/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTokens(t *testing.T) *security.TokenIssuer {
	t.Helper()

	tokens, err := security.NewTokenIssuer("secret", 0)
	require.NoError(t, err)

	return tokens
}

func TestJWTMiddleware(t *testing.T) {
	tokens := newTokens(t)
	other, err := security.NewTokenIssuer("other-secret", 0)
	require.NoError(t, err)

	valid, err := tokens.Issue("u1", "a@b.com")
	require.NoError(t, err)
	forged, err := other.Issue("u1", "a@b.com")
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		isAuth bool
	}{
		{"no header", "", false},
		{"valid", "Bearer " + valid, true},
		{"lowercase scheme", "bearer " + valid, true},
		{"wrong scheme", "Basic " + valid, false},
		{"missing token", "Bearer ", false},
		{"garbage", "Bearer abc.def.ghi", false},
		{"wrong secret", "Bearer " + forged, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got auth.Info
			var userID string

			r := gin.New()
			r.GET("/", NewJWTMiddleware(tokens), func(c *gin.Context) {
				got = auth.FromContext(c.Request.Context())
				userID = c.GetString("userID")
				c.Status(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			// The request always goes through
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.isAuth, got.IsAuth)

			if tt.isAuth {
				assert.Equal(t, "u1", got.UserID)
				assert.Equal(t, "a@b.com", got.Email)
				assert.Equal(t, "u1", userID)
			}
		})
	}
}

func TestRequireAuth(t *testing.T) {
	tokens := newTokens(t)

	r := gin.New()
	r.GET("/", NewJWTMiddleware(tokens), RequireAuth(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.Issue("u1", "a@b.com")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequestID(t *testing.T) {
	var fromGin, fromCtx string

	r := gin.New()
	r.GET("/", NewRequestIDMiddleware(), func(c *gin.Context) {
		fromGin = c.GetString("requestID")
		fromCtx = util.RequestID(c.Request.Context())
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Len(t, fromGin, 36)
	assert.Equal(t, fromGin, fromCtx)
	assert.Equal(t, fromGin, w.Header().Get(RequestIDHeader))
}

func TestBodySizeLimiter(t *testing.T) {
	var read int

	r := gin.New()
	r.POST("/", BodySizeLimiter(8), func(c *gin.Context) {
		b, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Error(err)
			return
		}
		read = len(b)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("tiny")))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 4, read)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too large")))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	// Unknown length is caught while reading
	req := httptest.NewRequest(http.MethodPost, "/", io.NopCloser(strings.NewReader("way too large")))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimiterMiddleware(RateLimiterConfig{RequestsPerSecond: 1, Burst: 2}), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 3)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRateLimiterDisabled(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimiterMiddleware(RateLimiterConfig{}), func(c *gin.Context) { c.Status(http.StatusOK) })

	for range 5 {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
