package redis

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFixedWindowAllow(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	allowed, count, err := client.FixedWindowAllow(ctx, "claim:42", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 1 {
		t.Fatalf("expected first request allowed with count 1, got %v %d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expected expire for first increment")
	}

	allowed, count, err = client.FixedWindowAllow(ctx, "claim:42", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed || count != 2 {
		t.Fatalf("unexpected second call state allowed=%v count=%d", allowed, count)
	}
	if len(mock.expireCalls) != 1 {
		t.Fatalf("expire should not be set again")
	}

	allowed, _, err = client.FixedWindowAllow(ctx, "claim:42", 2, time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if allowed {
		t.Fatalf("expected limit reached")
	}
}

func TestReleaseIfOwner(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RedPacketLockKey(9)

	ok, err := client.SetNX(ctx, key, "owner-a", 10*time.Second)
	if err != nil || !ok {
		t.Fatalf("expected lock acquired, got %v %v", ok, err)
	}
	ok, _ = client.SetNX(ctx, key, "owner-b", 10*time.Second)
	if ok {
		t.Fatalf("second owner must not acquire a held lock")
	}

	released, err := client.ReleaseIfOwner(ctx, key, "owner-b")
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if released {
		t.Fatalf("foreign owner must not release the lock")
	}

	released, err = client.ReleaseIfOwner(ctx, key, "owner-a")
	if err != nil || !released {
		t.Fatalf("expected owner release, got %v %v", released, err)
	}
	if _, err := client.Get(ctx, key); err != redis.Nil {
		t.Fatalf("expected key removed, got %v", err)
	}
}

func TestSetPopDrainsPool(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}
	key := client.RedPacketPoolKey(3)

	added, err := client.SAdd(ctx, key, "0:10", "1:20", "2:30")
	if err != nil || added != 3 {
		t.Fatalf("expected 3 members added, got %d %v", added, err)
	}
	if err := client.ExpireAt(ctx, key, time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("expireat: %v", err)
	}

	var popped []string
	for {
		member, ok, err := client.SPop(ctx, key)
		if err != nil {
			t.Fatalf("spop: %v", err)
		}
		if !ok {
			break
		}
		popped = append(popped, member)
	}
	sort.Strings(popped)
	if fmt.Sprint(popped) != "[0:10 1:20 2:30]" {
		t.Fatalf("unexpected members %v", popped)
	}
	if n, _ := client.SCard(ctx, key); n != 0 {
		t.Fatalf("expected empty set, got %d", n)
	}
}

func TestPublish(t *testing.T) {
	mock := newMockCmdable()
	client := &Client{store: mock}
	channel := client.GroupChannel(5)

	if err := client.Publish(context.Background(), channel, "hello"); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if got := mock.published[channel]; len(got) != 1 || got[0] != "hello" {
		t.Fatalf("unexpected published payloads %v", got)
	}
}

func TestUninitializedClient(t *testing.T) {
	client := &Client{}
	if err := client.Ping(context.Background()); err == nil {
		t.Fatal("expected error from empty client")
	}
	if _, _, err := client.SPop(context.Background(), "k"); err == nil {
		t.Fatal("expected error from empty client")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	cases := map[string]string{
		client.RateLimitKey("claim:1"): "chat:rate_limit:claim:1",
		client.RedPacketPoolKey(12):    "chat:red_packet:12",
		client.RedPacketLockKey(12):    "chat:red_packet_lock:12",
		client.CronLockKey("refund"):   "chat:cron_lock:refund",
		client.UserChannel(7):          "chat:channel:user:7",
		client.GroupChannel(8):         "chat:channel:group:8",
	}
	for got, want := range cases {
		if got != want {
			t.Fatalf("expected %s got %s", want, got)
		}
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	sets        map[string]map[string]struct{}
	published   map[string][]string
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data:      make(map[string]string),
		incr:      make(map[string]int64),
		sets:      make(map[string]map[string]struct{}),
		published: make(map[string][]string),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) ExpireAt(ctx context.Context, key string, at time.Time) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: time.Until(at)})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	var n int64
	for _, key := range keys {
		if _, ok := m.data[key]; ok {
			n++
		}
		delete(m.data, key)
		delete(m.sets, key)
	}
	return redis.NewIntResult(n, nil)
}

func (m *mockCmdable) SAdd(ctx context.Context, key string, members ...any) *redis.IntCmd {
	set, ok := m.sets[key]
	if !ok {
		set = make(map[string]struct{})
		m.sets[key] = set
	}
	var added int64
	for _, member := range members {
		s := fmt.Sprint(member)
		if _, exists := set[s]; !exists {
			set[s] = struct{}{}
			added++
		}
	}
	return redis.NewIntResult(added, nil)
}

func (m *mockCmdable) SPop(ctx context.Context, key string) *redis.StringCmd {
	for member := range m.sets[key] {
		delete(m.sets[key], member)
		return redis.NewStringResult(member, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (m *mockCmdable) SCard(ctx context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(len(m.sets[key])), nil)
}

func (m *mockCmdable) Publish(ctx context.Context, channel string, message any) *redis.IntCmd {
	m.published[channel] = append(m.published[channel], fmt.Sprint(message))
	return redis.NewIntResult(1, nil)
}

// Eval only understands releaseScript.
func (m *mockCmdable) Eval(ctx context.Context, script string, keys []string, args ...any) *redis.Cmd {
	if script != releaseScript || len(keys) != 1 || len(args) != 1 {
		return redis.NewCmdResult(nil, fmt.Errorf("unsupported script"))
	}
	if m.data[keys[0]] != fmt.Sprint(args[0]) {
		return redis.NewCmdResult(int64(0), nil)
	}
	delete(m.data, keys[0])
	return redis.NewCmdResult(int64(1), nil)
}
