package redpackets

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatwave/chat-backend/pkg/db/dbtest"
	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
)

func TestRefundExpiredReturnsUnclaimedMoney(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := dbtest.SeedUser(t, h.conn, "member", 0)
	others := []int64{
		dbtest.SeedUser(t, h.conn, "x", 0),
		dbtest.SeedUser(t, h.conn, "y", 0),
		dbtest.SeedUser(t, h.conn, "z", 0),
	}
	issuer, id := h.groupPacket(t, 1000, 4, append(others, member)...)

	claimed, err := h.svc.Claim(ctx, id, member)
	require.NoError(t, err)

	summary, err := h.svc.RefundExpired(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, summary.Scanned, "live packets are not refundable")

	h.clock.Advance(24*time.Hour + time.Second)
	summary, err = h.svc.RefundExpired(ctx, 0)
	require.NoError(t, err)
	want := 1000 - claimed.Amount
	assert.Equal(t, RefundSummary{Scanned: 1, Refunded: 1, Amount: want}, summary)
	assert.Equal(t, want, dbtest.Balance(t, h.conn, issuer))
	assert.Zero(t, h.redis.poolSize(id))
	assert.False(t, h.redis.lockHeld(id))

	var packet models.RedPacket
	require.NoError(t, h.conn.First(&packet, id).Error)
	require.NotNil(t, packet.RefundedAt)
	assert.Equal(t, want, packet.RefundedAmount)

	var refund models.MoneyFlowLog
	require.NoError(t, h.conn.Where("type = ? AND from_id = ?", enums.MoneyFlowTypeRedPacketRefund, id).First(&refund).Error)
	assert.Equal(t, issuer, refund.UserID)
	assert.Equal(t, enums.MoneyDirectionIncr, refund.ChangeType)
	assert.Equal(t, "红包过期退款", refund.Remark)

	summary, err = h.svc.RefundExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, RefundSummary{}, summary)
	assert.Equal(t, want, dbtest.Balance(t, h.conn, issuer))
}

func TestRefundIncludesLeakedShares(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := dbtest.SeedUser(t, h.conn, "member", 0)
	issuer, id := h.groupPacket(t, 600, 2, member)

	// a share popped without a committed claim
	leaked, ok, err := h.svc.pool.Pop(ctx, id)
	require.NoError(t, err)
	require.True(t, ok)
	require.Positive(t, leaked)

	h.clock.Advance(48 * time.Hour)
	summary, err := h.svc.RefundExpired(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(600), summary.Amount)
	assert.Equal(t, int64(600), dbtest.Balance(t, h.conn, issuer))
}

func TestRefundSkipsLockedPacket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := dbtest.SeedUser(t, h.conn, "member", 0)
	issuer, id := h.groupPacket(t, 200, 1, member)
	h.redis.holdLock(id, "claimer")

	h.clock.Advance(25 * time.Hour)
	summary, err := h.svc.RefundExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, RefundSummary{Scanned: 1, Skipped: 1}, summary)
	assert.Zero(t, dbtest.Balance(t, h.conn, issuer))

	require.NoError(t, h.redis.Del(ctx, h.redis.RedPacketLockKey(id)))
	summary, err = h.svc.RefundExpired(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Refunded)
	assert.Equal(t, int64(200), dbtest.Balance(t, h.conn, issuer))
}

func TestRefundSkipsFullyClaimedPacket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	member := dbtest.SeedUser(t, h.conn, "member", 0)
	_, id := h.groupPacket(t, 200, 1, member)
	_, err := h.svc.Claim(ctx, id, member)
	require.NoError(t, err)

	h.clock.Advance(25 * time.Hour)
	summary, err := h.svc.RefundExpired(ctx, 0)
	require.NoError(t, err)
	assert.Zero(t, summary.Scanned)
}
