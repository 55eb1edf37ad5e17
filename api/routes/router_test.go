package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwave/chat-backend/internal/redpackets"
	"github.com/chatwave/chat-backend/pkg/auth"
	"github.com/chatwave/chat-backend/pkg/config"
	"github.com/chatwave/chat-backend/pkg/enums"
	"github.com/chatwave/chat-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubRedis struct {
	mu     sync.Mutex
	counts map[string]int64
}

func (s *stubRedis) Ping(context.Context) error { return nil }

func (s *stubRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

type stubRedPackets struct{}

func (stubRedPackets) Issue(context.Context, int64, redpackets.IssueRequest) (*redpackets.IssueResult, error) {
	return &redpackets.IssueResult{ID: 1}, nil
}

func (stubRedPackets) Status(_ context.Context, packetID, _ int64) (*redpackets.StatusResult, error) {
	return &redpackets.StatusResult{ID: packetID, Stock: 1, Status: enums.RedPacketStatusClaimable}, nil
}

func (stubRedPackets) Claim(_ context.Context, packetID, _ int64) (*redpackets.ClaimResult, error) {
	return &redpackets.ClaimResult{ID: packetID, Amount: 10, ShareCount: 2, Stock: 1}, nil
}

func (stubRedPackets) ListRecords(context.Context, int64, int, int) (*redpackets.RecordsResult, error) {
	return &redpackets.RecordsResult{Items: []redpackets.Record{}}, nil
}

func (stubRedPackets) RefundExpired(context.Context, int) (redpackets.RefundSummary, error) {
	return redpackets.RefundSummary{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "dev"},
		JWT: config.JWTConfig{Secret: "secret", Issuer: "chatwave", ExpirationMinutes: 60},
		HTTP: config.HTTPConfig{
			CORSOrigins:     []string{"http://localhost:3000"},
			ClaimRateLimit:  2,
			ClaimRateWindow: time.Minute,
		},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *config.Config) {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewCounter(prometheus.CounterOpts{Name: "chatwave_test_total", Help: "test"}))
	router := NewRouter(cfg, logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), Dependencies{
		DB:          stubPinger{},
		Redis:       &stubRedis{counts: map[string]int64{}},
		RedPackets:  stubRedPackets{},
		MetricsFrom: reg,
	})
	return router, cfg
}

func bearer(t *testing.T, cfg *config.Config, userID int64) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.AccessTokenPayload{UserID: userID})
	require.NoError(t, err)
	return "Bearer " + token
}

func serve(router http.Handler, method, target, body, authHeader string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthAndMetricsArePublic(t *testing.T) {
	router, _ := newTestRouter(t)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health/ready", "", "").Code)

	metrics := serve(router, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "chatwave_test_total")
}

func TestRedPacketRoutesRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, tc := range []struct{ method, target string }{
		{http.MethodPost, "/api/v1/red-packets"},
		{http.MethodGet, "/api/v1/red-packets/1"},
		{http.MethodPost, "/api/v1/red-packets/1/claim"},
		{http.MethodGet, "/api/v1/red-packets/1/records"},
	} {
		rec := serve(router, tc.method, tc.target, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, tc.target)
	}
}

func TestRedPacketRoutesWired(t *testing.T) {
	router, cfg := newTestRouter(t)
	token := bearer(t, cfg, 5)

	issue := serve(router, http.MethodPost, "/api/v1/red-packets", `{"type":"lucky","total_amount":100,"share_count":2,"group_id":1}`, token)
	assert.Equal(t, http.StatusCreated, issue.Code)

	status := serve(router, http.MethodGet, "/api/v1/red-packets/1", "", token)
	assert.Equal(t, http.StatusOK, status.Code)
	assert.Contains(t, status.Body.String(), `"status":1`)

	records := serve(router, http.MethodGet, "/api/v1/red-packets/1/records?page=1&limit=10", "", token)
	assert.Equal(t, http.StatusOK, records.Code)

	claim := serve(router, http.MethodPost, "/api/v1/red-packets/1/claim", "", token)
	assert.Equal(t, http.StatusOK, claim.Code)
	assert.Contains(t, claim.Body.String(), `"amount_display":"0.10"`)
	assert.NotEmpty(t, claim.Header().Get("X-Request-Id"))
}

func TestClaimRouteIsThrottledPerUser(t *testing.T) {
	router, cfg := newTestRouter(t)
	alice := bearer(t, cfg, 1)
	bob := bearer(t, cfg, 2)

	for i := 0; i < cfg.HTTP.ClaimRateLimit; i++ {
		require.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/red-packets/1/claim", "", alice).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodPost, "/api/v1/red-packets/1/claim", "", alice).Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodPost, "/api/v1/red-packets/1/claim", "", bob).Code)

	// status reads are not throttled
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/red-packets/1", "", alice).Code)
}
