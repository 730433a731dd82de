package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgettool/src/app/http/response"
	"budgettool/src/core/domain"
	"budgettool/src/infra/db"
	"budgettool/src/infra/db/dbtest"
	"budgettool/src/infra/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type failingLeaser struct {
	err   error
	calls int
}

func (l *failingLeaser) Acquire(context.Context) (*db.Lease, error) {
	l.calls++
	return nil, l.err
}

func serve(r http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPostgresSession_PoolTimeout(t *testing.T) {
	leaser := &failingLeaser{err: domain.ErrPoolTimeout}
	reached := false

	r := gin.New()
	r.Use(RequestID())
	r.GET("/data/accounts", PostgresSession(leaser), func(c *gin.Context) { reached = true })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/data/accounts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Contains(t, w.Body.String(), "POOL_TIMEOUT")
	assert.Equal(t, 1, leaser.calls)
	assert.False(t, reached)
}

func TestPostgresSession_ClientGone(t *testing.T) {
	leaser := &failingLeaser{err: context.Canceled}

	r := gin.New()
	r.GET("/data/accounts", PostgresSession(leaser), func(c *gin.Context) { c.Status(http.StatusOK) })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/data/accounts", nil).WithContext(ctx)

	w := serve(r, req)
	assert.Empty(t, w.Body.String())
}

func TestPostgresSession_ReleasesOnEveryPath(t *testing.T) {
	pool, backend := dbtest.NewFakePool(t, 2)

	r := gin.New()
	r.Use(RequestID(), Recovery(slog.New(slog.DiscardHandler)))
	session := PostgresSession(pool)

	r.GET("/ok", session, func(c *gin.Context) {
		lease, ok := db.FromContext(c.Request.Context())
		require.True(t, ok, "handler must see the request lease")
		assert.False(t, lease.Released())
		assert.EqualValues(t, 1, pool.Stats().InUse)
		response.OK(c, gin.H{"ok": true})
	})
	r.GET("/error", session, func(c *gin.Context) {
		err := &domain.QueryError{Query: "SELECT * FROM accounts", Err: errors.New("relation does not exist")}
		_ = c.Error(err)
		response.FromDomainError(c, err, GetRequestID(c))
	})
	r.GET("/panic", session, func(c *gin.Context) {
		panic("handler blew up")
	})

	tests := []struct {
		path   string
		status int
	}{
		{"/ok", http.StatusOK},
		{"/error", http.StatusInternalServerError},
		{"/panic", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			before := pool.Stats()

			w := serve(r, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, w.Code)

			stats := pool.Stats()
			assert.EqualValues(t, 0, stats.InUse)
			assert.Equal(t, before.Acquired+1, stats.Acquired)
			assert.Equal(t, stats.Acquired, stats.Released)
			assert.EqualValues(t, 0, backend.Outstanding())
		})
	}
}

func TestPostgresSession_ReleasesWhenClientCancels(t *testing.T) {
	pool, backend := dbtest.NewFakePool(t, 1)

	ctx, cancel := context.WithCancel(context.Background())
	r := gin.New()
	r.GET("/slow", PostgresSession(pool), func(c *gin.Context) {
		cancel()
		<-c.Request.Context().Done()
		c.Abort()
	})

	serve(r, httptest.NewRequest(http.MethodGet, "/slow", nil).WithContext(ctx))

	stats := pool.Stats()
	assert.EqualValues(t, 0, stats.InUse)
	assert.EqualValues(t, 1, stats.Released)
	assert.EqualValues(t, 0, backend.Outstanding())

	// the single slot is free again
	lease, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	lease.Release()
}

func TestPostgresSession_SaturatedPool(t *testing.T) {
	pool, _ := dbtest.NewFakePool(t, 1)
	held, err := pool.Acquire(context.Background())
	require.NoError(t, err)
	defer held.Release()

	r := gin.New()
	r.GET("/data/accounts", PostgresSession(pool), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/data/accounts", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.EqualValues(t, 1, pool.Stats().Timeouts)
	assert.EqualValues(t, 1, pool.Stats().InUse)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = serve(r, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestTimer(t *testing.T) {
	r := gin.New()
	r.Use(Timer())
	r.GET("/json", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) })
	r.GET("/empty", func(c *gin.Context) {})

	for _, path := range []string{"/json", "/empty"} {
		w := serve(r, httptest.NewRequest(http.MethodGet, path, nil))
		v := w.Header().Get(ProcessTimeHeader)
		require.NotEmpty(t, v, path)
		secs, err := strconv.ParseFloat(v, 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, secs, 0.0)
	}
}

func TestCORS_Preflight(t *testing.T) {
	reached := false
	r := gin.New()
	r.Use(CORS())
	r.OPTIONS("/data/accounts", func(c *gin.Context) { reached = true })

	req := httptest.NewRequest(http.MethodOptions, "/data/accounts", nil)
	req.Header.Set("Origin", "http://localhost:8501")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.False(t, reached)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), Recovery(slog.New(slog.DiscardHandler)))
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.NotContains(t, w.Body.String(), "boom")
}

func TestMetrics_RecordsRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := gin.New()
	r.Use(Metrics(metrics.NewHTTP(reg)), Recovery(slog.New(slog.DiscardHandler)))
	r.GET("/data/accounts", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/panic", func(c *gin.Context) { panic("boom") })

	serve(r, httptest.NewRequest(http.MethodGet, "/data/accounts", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	serve(r, httptest.NewRequest(http.MethodGet, "/nope", nil))

	expected := `
# HELP budget_tool_http_requests_total Total number of HTTP requests handled.
# TYPE budget_tool_http_requests_total counter
budget_tool_http_requests_total{method="GET",route="/data/accounts",status="200"} 1
budget_tool_http_requests_total{method="GET",route="/panic",status="500"} 1
budget_tool_http_requests_total{method="GET",route="unmatched",status="404"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "budget_tool_http_requests_total"))
}
