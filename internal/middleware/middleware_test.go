package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/prohmpiriya/devops-api/internal/auth"
	"github.com/prohmpiriya/devops-api/internal/domain"
	"github.com/prohmpiriya/devops-api/pkg/logger"
	pkgredis "github.com/prohmpiriya/devops-api/pkg/redis"
	"github.com/prohmpiriya/devops-api/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) *response.ErrorData {
	t.Helper()
	var body response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.NotNil(t, body.Error)
	return body.Error
}

func TestRequestID_GeneratesNew(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	headerID := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, headerID)
	assert.Equal(t, headerID, w.Body.String())
}

func TestRequestID_UsesExisting(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, GetRequestID(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "existing-request-id-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "existing-request-id-123", w.Body.String())
}

func TestCORS_Wildcard(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestCORS_AllowList(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://app.example.com"}
	cfg.AllowCredentials = true

	r := gin.New()
	r.Use(CORSWithConfig(cfg))
	r.GET("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_Preflight(t *testing.T) {
	r := gin.New()
	r.Use(CORS())
	r.POST("/test", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestLogger_LevelsByStatus(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	r := gin.New()
	r.Use(RequestID(), Logger(log))
	r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	for _, path := range []string{"/ok", "/bad", "/boom"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, zap.InfoLevel, entries[0].Level)
	assert.Equal(t, zap.WarnLevel, entries[1].Level)
	assert.Equal(t, zap.ErrorLevel, entries[2].Level)
	assert.Equal(t, "/boom", entries[2].ContextMap()["path"])
	assert.NotEmpty(t, entries[0].ContextMap()["request_id"])
}

func TestLogger_TraceID(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	r := gin.New()
	r.Use(Logger(log), func(c *gin.Context) {
		c.Request = c.Request.WithContext(trace.ContextWithSpanContext(c.Request.Context(), sc))
		c.Next()
	})
	r.GET("/traced", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/traced", nil))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entries[0].ContextMap()["trace_id"])

	r2 := gin.New()
	r2.Use(Logger(log))
	r2.GET("/plain", func(c *gin.Context) { c.Status(http.StatusOK) })
	r2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/plain", nil))

	require.Len(t, logs.All(), 2)
	assert.NotContains(t, logs.All()[1].ContextMap(), "trace_id")
}

func TestLogger_RecordsInternalError(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := logger.NewFromZap(zap.New(core))

	r := gin.New()
	r.Use(Logger(log))
	r.GET("/fail", func(c *gin.Context) {
		response.InternalError(c, errors.New("dial tcp 10.0.0.5:5432: connection refused"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.NotContains(t, w.Body.String(), "10.0.0.5")
	require.Len(t, logs.All(), 1)
	assert.Contains(t, logs.All()[0].ContextMap()["errors"], "connection refused")
}

type countingRecorder struct {
	requests atomic.Int64
	errors   atomic.Int64
}

func (r *countingRecorder) RecordRequest() { r.requests.Add(1) }
func (r *countingRecorder) RecordError()   { r.errors.Add(1) }

func TestRequestMetrics(t *testing.T) {
	tests := []struct {
		name              string
		countServerErrors bool
		wantErrors        int64
	}{
		{"server errors not counted", false, 0},
		{"server errors counted", true, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &countingRecorder{}
			r := gin.New()
			r.Use(RequestMetrics(rec, tt.countServerErrors))
			r.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
			r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

			for _, path := range []string{"/ok", "/boom", "/missing"} {
				r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
			}

			assert.Equal(t, int64(3), rec.requests.Load())
			assert.Equal(t, tt.wantErrors, rec.errors.Load())
		})
	}
}

type stubValidator struct {
	identity *domain.Identity
	err      error
	gotToken string
}

func (v *stubValidator) ValidateToken(ctx context.Context, token string) (*domain.Identity, error) {
	v.gotToken = token
	return v.identity, v.err
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		header     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"no header", "", nil, http.StatusUnauthorized, response.CodeMissingToken},
		{"scheme only", "Bearer", nil, http.StatusUnauthorized, response.CodeMissingToken},
		{"malformed", "Bearer x", auth.ErrMalformed, http.StatusUnauthorized, response.CodeMalformedToken},
		{"expired", "Bearer x", auth.ErrExpired, http.StatusUnauthorized, response.CodeTokenExpired},
		{"revoked", "Bearer x", auth.ErrRevoked, http.StatusUnauthorized, response.CodeTokenRevoked},
		{"store down", "Bearer x", errors.New("redis down"), http.StatusInternalServerError, response.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Authenticate(&stubValidator{err: tt.err}, logger.Nop()))
			r.GET("/p", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/p", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
		})
	}
}

func TestAuthenticate_SetsIdentity(t *testing.T) {
	v := &stubValidator{identity: &domain.Identity{UserID: 1, Username: "admin", Role: domain.RoleAdmin}}

	r := gin.New()
	r.Use(Authenticate(v, logger.Nop()))
	r.GET("/p", func(c *gin.Context) {
		c.String(http.StatusOK, GetIdentity(c).Username+":"+GetToken(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/p", nil)
	req.Header.Set("Authorization", "Bearer abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin:abc", w.Body.String())
	assert.Equal(t, "abc", v.gotToken)
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		identity   *domain.Identity
		wantStatus int
	}{
		{"admin", &domain.Identity{Role: domain.RoleAdmin}, http.StatusOK},
		{"user", &domain.Identity{Role: domain.RoleUser}, http.StatusForbidden},
		{"anonymous", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.identity != nil {
					c.Set(IdentityKey, tt.identity)
				}
			})
			r.Use(RequireRole(domain.RoleAdmin))
			r.GET("/admin", func(c *gin.Context) { c.Status(http.StatusOK) })

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				e := decodeError(t, w)
				assert.Equal(t, response.CodeForbidden, e.Code)
				assert.Equal(t, "Admin access required", e.Message)
			}
		})
	}
}

func TestLocalRateLimiter_TokenBucket(t *testing.T) {
	rl := NewLocalRateLimiter(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})
	defer rl.Stop()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, _ := rl.Allow(ctx, "1.2.3.4")
	assert.False(t, ok)

	// other clients have their own bucket
	ok, _ = rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok)
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := pkgredis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	defer client.Close()

	cfg := DefaultRateLimitConfig()
	cfg.RequestsPerSecond = 1
	cfg.BurstSize = 2
	cfg.RedisClient = client

	rl := NewRedisRateLimiter(cfg)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists(cfg.KeyPrefix+"1.2.3.4"))

	now = now.Add(2 * time.Second)
	ok, err = rl.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewLimiter(t *testing.T) {
	local := NewLimiter(DefaultRateLimitConfig())
	_, isLocal := local.(*LocalRateLimiter)
	assert.True(t, isLocal)
	local.(*LocalRateLimiter).Stop()

	mr := miniredis.RunT(t)
	cfg := DefaultRateLimitConfig()
	cfg.RedisClient = pkgredis.Wrap(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	_, isRedis := NewLimiter(cfg).(*RedisRateLimiter)
	assert.True(t, isRedis)
}

type errLimiter struct{}

func (errLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return false, errors.New("redis down")
}

func TestRateLimit_Middleware(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}
	rl := NewLocalRateLimiter(cfg)
	defer rl.Stop()

	r := gin.New()
	r.POST("/login", RateLimit(rl, cfg, logger.Nop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, response.CodeTooManyRequests, decodeError(t, w).Code)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	cfg := RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}

	r := gin.New()
	r.POST("/login", RateLimit(errLimiter{}, cfg, logger.Nop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimit_Unlimited(t *testing.T) {
	r := gin.New()
	r.POST("/login", RateLimit(errLimiter{}, RateLimitConfig{}, logger.Nop()), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
