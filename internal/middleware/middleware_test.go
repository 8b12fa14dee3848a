package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/escape-room-booking/internal/config"
)

const secret = "s3cret"

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return tok
}

func serve(e *echo.Echo, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/staff", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func staffEcho() *echo.Echo {
	e := echo.New()
	e.GET("/staff", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user": UserID(c), "role": Role(c), "email": Email(c)})
	}, JWTAuth(secret), RequireRole("admin", "subadmin"))
	return e
}

func TestJWTAuth(t *testing.T) {
	e := staffEcho()
	exp := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"malformed", "abc.def", http.StatusUnauthorized},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": "1", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "1", "role": "admin", "exp": time.Now().Add(-time.Minute).Unix()}), http.StatusUnauthorized},
		{"wrong alg", sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"sub": "1", "role": "admin", "exp": exp}), http.StatusUnauthorized},
		{"customer", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "1", "role": "customer", "exp": exp}), http.StatusForbidden},
		{"admin", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "1", "role": "admin", "exp": exp}), http.StatusOK},
		{"usertype claim", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "2", "usertype": "subadmin", "exp": exp}), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(e, tt.token)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestJWTAuth_StoresIdentity(t *testing.T) {
	e := staffEcho()
	tok := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
		"sub": "42", "role": "admin", "email": "boss@example.com", "exp": time.Now().Add(time.Hour).Unix(),
	})
	rec := serve(e, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"42","role":"admin","email":"boss@example.com"}`, rec.Body.String())
}

func TestRequestLogger(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(RequestLogger(zap.New(core)))
	e.GET("/ok", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	e.GET("/boom", func(c echo.Context) error { return echo.NewHTTPError(http.StatusTeapot, "short and stout") })

	for _, path := range []string{"/ok", "/boom"} {
		e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "request completed", entries[0].Message)
	assert.EqualValues(t, http.StatusNoContent, entries[0].ContextMap()["status"])
	assert.Equal(t, "client error", entries[1].Message)
	assert.EqualValues(t, http.StatusTeapot, entries[1].ContextMap()["status"])
	assert.Equal(t, "/boom", entries[1].ContextMap()["route"])
}

func TestRateLimitAndCache_DisabledWithoutRedis(t *testing.T) {
	e := echo.New()
	calls := 0
	h := func(c echo.Context) error { calls++; return c.String(http.StatusOK, "x") }
	e.GET("/r", h,
		RateLimit(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil, nil),
		ResponseCache(config.CacheConfig{Enabled: true}, nil),
	)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/r", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Cache"))
	}
	assert.Equal(t, 3, calls)
}

func TestRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/reservations", nil)
	req.Header.Set(echo.HeaderXRealIP, "203.0.113.9")
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/reservations")

	cfg := config.RateLimitConfig{Prefix: "rl"}
	assert.Equal(t, "rl:ip:203.0.113.9:route:POST /v1/reservations", rateKey(cfg, c))
	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:203.0.113.9", rateKey(cfg, c))
	cfg.KeyStrategy = "route"
	assert.Equal(t, "rl:route:POST /v1/reservations", rateKey(cfg, c))
}

func TestCaptureWriter_Limit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("abc"))
	assert.False(t, cw.overflow)
	_, _ = cw.Write([]byte("de"))
	assert.True(t, cw.overflow)
	assert.Equal(t, "abcde", rec.Body.String())
}
