package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

func sign(t *testing.T, method jwt.SigningMethod, key any, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, jwt.MapClaims{"sub": "tony", "exp": exp.Unix()}).SignedString(key)
	require.NoError(t, err)
	return s
}

func newRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(secret, 7*24*time.Hour))
	r.GET("/me", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("user_name"))
	})
	return r
}

func TestJWTAuth(t *testing.T) {
	r := newRouter()
	fresh := sign(t, jwt.SigningMethodHS256, secret, time.Now().Add(72*time.Hour))

	tests := []struct {
		name string
		path string
		auth string
		code int
	}{
		{"missing", "/me", "", http.StatusUnauthorized},
		{"header", "/me", "Bearer " + fresh, http.StatusOK},
		{"query", "/me?token=" + fresh, "", http.StatusOK},
		{"wrong secret", "/me", "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"expired", "/me", "Bearer " + sign(t, jwt.SigningMethodHS256, secret, time.Now().Add(-time.Hour)), http.StatusUnauthorized},
		{"other alg", "/me", "Bearer " + sign(t, jwt.SigningMethodHS512, secret, time.Now().Add(time.Hour)), http.StatusUnauthorized},
		{"garbage", "/me", "Bearer abc", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.code, w.Code)
			if tt.code == http.StatusOK {
				assert.Equal(t, "tony", w.Body.String())
				assert.Empty(t, w.Header().Get("X-New-Token"))
			}
		})
	}
}

func TestJWTAuth_RenewsNearExpiry(t *testing.T) {
	r := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+sign(t, jwt.SigningMethodHS256, secret, time.Now().Add(time.Hour)))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	renewed := w.Header().Get("X-New-Token")
	require.NotEmpty(t, renewed)
	token, err := jwt.Parse(renewed, func(*jwt.Token) (interface{}, error) { return secret, nil })
	require.NoError(t, err)
	exp, err := token.Claims.GetExpirationTime()
	require.NoError(t, err)
	assert.Greater(t, time.Until(exp.Time), 6*24*time.Hour)
}
