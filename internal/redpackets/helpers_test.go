package redpackets

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/chatwave/chat-backend/internal/ledger"
	"github.com/chatwave/chat-backend/internal/memberships"
	"github.com/chatwave/chat-backend/internal/notifications"
	"github.com/chatwave/chat-backend/internal/wallet"
	"github.com/chatwave/chat-backend/pkg/config"
	"github.com/chatwave/chat-backend/pkg/db"
	"github.com/chatwave/chat-backend/pkg/db/dbtest"
	"github.com/chatwave/chat-backend/pkg/logger"
	"github.com/chatwave/chat-backend/pkg/metrics"
)

var baseTime = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeRedis is an in-memory stand-in for the pool and lock commands.
type fakeRedis struct {
	mu       sync.Mutex
	kv       map[string]string
	sets     map[string]map[string]struct{}
	expireAt map[string]time.Time
	saddErr  error
	setNX    int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		kv:       map[string]string{},
		sets:     map[string]map[string]struct{}{},
		expireAt: map[string]time.Time{},
	}
}

func (f *fakeRedis) SAdd(ctx context.Context, key string, members ...any) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saddErr != nil {
		return 0, f.saddErr
	}
	set, ok := f.sets[key]
	if !ok {
		set = map[string]struct{}{}
		f.sets[key] = set
	}
	var added int64
	for _, m := range members {
		s := fmt.Sprint(m)
		if _, exists := set[s]; !exists {
			set[s] = struct{}{}
			added++
		}
	}
	return added, nil
}

func (f *fakeRedis) SPop(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for m := range f.sets[key] {
		delete(f.sets[key], m)
		return m, true, nil
	}
	return "", false, nil
}

func (f *fakeRedis) ExpireAt(ctx context.Context, key string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expireAt[key] = at
	return nil
}

func (f *fakeRedis) Del(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.kv, k)
		delete(f.sets, k)
	}
	return nil
}

func (f *fakeRedis) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setNX++
	if _, held := f.kv[key]; held {
		return false, nil
	}
	f.kv[key] = fmt.Sprint(value)
	return true, nil
}

func (f *fakeRedis) ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.kv[key] != owner {
		return false, nil
	}
	delete(f.kv, key)
	return true, nil
}

func (f *fakeRedis) RedPacketPoolKey(id int64) string { return fmt.Sprintf("chat:red_packet:%d", id) }
func (f *fakeRedis) RedPacketLockKey(id int64) string { return fmt.Sprintf("chat:red_packet_lock:%d", id) }

func (f *fakeRedis) poolSize(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sets[f.RedPacketPoolKey(id)])
}

func (f *fakeRedis) poolTotal(t *testing.T, id int64) int64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var total int64
	for m := range f.sets[f.RedPacketPoolKey(id)] {
		amount, err := decodeShare(m)
		require.NoError(t, err)
		total += amount
	}
	return total
}

func (f *fakeRedis) holdLock(id int64, owner string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.kv[f.RedPacketLockKey(id)] = owner
}

func (f *fakeRedis) lockHeld(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, held := f.kv[f.RedPacketLockKey(id)]
	return held
}

func (f *fakeRedis) lockAttempts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.setNX
}

// counterValue reads a single-series counter from reg, or 0 when absent.
func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	return 0
}

type recordingNotifier struct {
	mu     sync.Mutex
	users  map[int64][]notifications.Event
	groups map[int64][]notifications.Event
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{users: map[int64][]notifications.Event{}, groups: map[int64][]notifications.Event{}}
}

func (n *recordingNotifier) NotifyUser(ctx context.Context, userID int64, event notifications.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.users[userID] = append(n.users[userID], event)
}

func (n *recordingNotifier) NotifyGroup(ctx context.Context, groupID int64, event notifications.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.groups[groupID] = append(n.groups[groupID], event)
}

type harness struct {
	svc      *service
	conn     *gorm.DB
	redis    *fakeRedis
	notifier *recordingNotifier
	clock    *fakeClock
	metrics  *metrics.RedPacketMetrics
}

func testConfig() config.RedPacketConfig {
	return config.RedPacketConfig{
		Lifetime:       24 * time.Hour,
		LockTTL:        10 * time.Second,
		ClaimWait:      5 * time.Second,
		BackoffBase:    time.Millisecond,
		BackoffCap:     5 * time.Millisecond,
		DefaultRemark:  "恭喜发财，大吉大利",
		RefundBatch:    100,
		MaxRemarkRunes: 64,
	}
}

func newHarness(t *testing.T, mutate ...func(*config.RedPacketConfig)) *harness {
	t.Helper()
	conn := dbtest.Open(t)
	cfg := testConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	walletSvc, err := wallet.NewService(wallet.NewRepository(conn), ledgerSvc)
	require.NoError(t, err)
	checker, err := memberships.NewChecker(memberships.NewRepository(conn), []int64{997, 998, 999})
	require.NoError(t, err)

	h := &harness{
		conn:     conn,
		redis:    newFakeRedis(),
		notifier: newRecordingNotifier(),
		clock:    &fakeClock{now: baseTime},
		metrics:  metrics.NewRedPacketMetrics(nil),
	}
	svc, err := NewService(ServiceParams{
		DB:       db.NewFromGorm(conn),
		Repo:     NewRepository(conn),
		Ledger:   ledgerSvc,
		Wallet:   walletSvc,
		Members:  checker,
		Pool:     NewPool(h.redis),
		Notifier: h.notifier,
		Metrics:  h.metrics,
		Logger:   logger.Nop(),
		Config:   cfg,
		Clock:    h.clock.Now,
	})
	require.NoError(t, err)
	h.svc = svc.(*service)
	return h
}

// groupPacket seeds an issuer with balance and a group containing the issuer and members.
func (h *harness) groupPacket(t *testing.T, total int64, shares int, members ...int64) (issuer int64, packetID int64) {
	t.Helper()
	issuer = dbtest.SeedUser(t, h.conn, "issuer", total)
	dbtest.JoinGroup(t, h.conn, 1, append([]int64{issuer}, members...)...)
	res, err := h.svc.Issue(context.Background(), issuer, IssueRequest{
		Type:        "lucky",
		TotalAmount: total,
		ShareCount:  shares,
		GroupID:     1,
	})
	require.NoError(t, err)
	return issuer, res.ID
}
