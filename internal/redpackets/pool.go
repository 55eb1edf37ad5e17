package redpackets

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

type poolStore interface {
	SAdd(ctx context.Context, key string, members ...any) (int64, error)
	SPop(ctx context.Context, key string) (string, bool, error)
	ExpireAt(ctx context.Context, key string, at time.Time) error
	Del(ctx context.Context, keys ...string) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error)
	RedPacketPoolKey(packetID int64) string
	RedPacketLockKey(packetID int64) string
}

// Pool holds the unclaimed shares of each packet in Redis and the per-packet claim lock.
type Pool struct {
	store poolStore
}

func NewPool(store poolStore) *Pool {
	return &Pool{store: store}
}

// Seed stores shares for packetID and expires the set at expireAt.
func (p *Pool) Seed(ctx context.Context, packetID int64, shares []int64, expireAt time.Time) error {
	key := p.store.RedPacketPoolKey(packetID)
	members := make([]any, len(shares))
	for i, amount := range shares {
		members[i] = encodeShare(i, amount)
	}
	added, err := p.store.SAdd(ctx, key, members...)
	if err != nil {
		return fmt.Errorf("seed share pool: %w", err)
	}
	if added != int64(len(shares)) {
		return fmt.Errorf("seed share pool: added %d of %d shares", added, len(shares))
	}
	if err := p.store.ExpireAt(ctx, key, expireAt); err != nil {
		return fmt.Errorf("expire share pool: %w", err)
	}
	return nil
}

// Pop removes one random share. ok is false when the pool is empty.
func (p *Pool) Pop(ctx context.Context, packetID int64) (amount int64, ok bool, err error) {
	member, ok, err := p.store.SPop(ctx, p.store.RedPacketPoolKey(packetID))
	if err != nil || !ok {
		return 0, false, err
	}
	amount, err = decodeShare(member)
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}

// Drain deletes whatever shares are left.
func (p *Pool) Drain(ctx context.Context, packetID int64) error {
	return p.store.Del(ctx, p.store.RedPacketPoolKey(packetID))
}

// ClaimLock is a held per-packet lock.
type ClaimLock struct {
	store poolStore
	key   string
	owner string
}

// TryLock makes a single attempt to take the packet's claim lock for ttl.
func (p *Pool) TryLock(ctx context.Context, packetID int64, ttl time.Duration) (*ClaimLock, bool, error) {
	key := p.store.RedPacketLockKey(packetID)
	owner := uuid.NewString()
	ok, err := p.store.SetNX(ctx, key, owner, ttl)
	if err != nil {
		return nil, false, fmt.Errorf("acquire claim lock: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	return &ClaimLock{store: p.store, key: key, owner: owner}, true, nil
}

// Release deletes the lock if this holder still owns it. A lock that expired and
// was taken by someone else is left alone.
func (l *ClaimLock) Release(ctx context.Context) error {
	if l == nil {
		return nil
	}
	if _, err := l.store.ReleaseIfOwner(ctx, l.key, l.owner); err != nil {
		return fmt.Errorf("release claim lock: %w", err)
	}
	return nil
}

// Shares are stored as "<index>:<amount>" so equal amounts stay distinct set members.
func encodeShare(index int, amount int64) string {
	return strconv.Itoa(index) + ":" + strconv.FormatInt(amount, 10)
}

func decodeShare(member string) (int64, error) {
	_, raw, found := strings.Cut(member, ":")
	if !found {
		raw = member
	}
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || amount <= 0 {
		return 0, fmt.Errorf("malformed share %q", member)
	}
	return amount, nil
}
