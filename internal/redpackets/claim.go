package redpackets

import (
	"context"
	"errors"
	"time"

	"github.com/chatwave/chat-backend/internal/ledger"
	"github.com/chatwave/chat-backend/internal/notifications"
	"github.com/chatwave/chat-backend/internal/wallet"
	"github.com/chatwave/chat-backend/pkg/db"
	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
	"github.com/chatwave/chat-backend/pkg/metrics"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"
)

var (
	errLockBusy       = errors.New("claim lock busy")
	errStockExhausted = errors.New("stock already exhausted")
)

// checkClaimable evaluates the claim preconditions in order and returns the first violation.
func (s *service) checkClaimable(ctx context.Context, packet *models.RedPacket, claimantID int64) error {
	if packet.IsGroup() {
		ok, err := s.members.IsGroupMember(ctx, packet.GroupID, claimantID)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a member of this group")
		}
	} else {
		ok, err := s.members.IsFriend(ctx, packet.FromUser, claimantID)
		if err != nil {
			return err
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeForbidden, "not a friend of the sender")
		}
	}
	if packet.Type.IsExclusive() && packet.ToUser != claimantID {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgNotYours)
	}
	claimed, err := s.hasClaimed(ctx, packet.ID, claimantID)
	if err != nil {
		return err
	}
	if claimed {
		return pkgerrors.New(pkgerrors.CodeForbidden, msgAlreadyClaimed)
	}
	if s.now().After(packet.OverdueAt) {
		return pkgerrors.New(pkgerrors.CodeExpired, msgExpired)
	}
	if packet.Stock <= 0 {
		return pkgerrors.New(pkgerrors.CodeSoldOut, msgSoldOut)
	}
	return nil
}

func (s *service) Claim(ctx context.Context, packetID, claimantID int64) (*ClaimResult, error) {
	started := time.Now()
	ctx = s.logg.WithPacketID(s.logg.WithUserID(ctx, claimantID), packetID)

	result, err := s.claim(ctx, packetID, claimantID, started)
	s.metrics.ObserveClaim(claimOutcome(err), time.Since(started))
	return result, err
}

func (s *service) claim(ctx context.Context, packetID, claimantID int64, started time.Time) (*ClaimResult, error) {
	// fast path: reject without touching the lock
	packet, err := s.loadPacket(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkClaimable(ctx, packet, claimantID); err != nil {
		return nil, err
	}

	lock, err := s.acquireLock(ctx, packetID, started)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(ctx, err.Error())
		}
	}()

	// authoritative check under the lock
	packet, err = s.loadPacket(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if err := s.checkClaimable(ctx, packet, claimantID); err != nil {
		return nil, err
	}

	amount, ok, err := s.pool.Pop(ctx, packetID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "pop share")
	}
	if !ok {
		s.logg.Error(s.logg.WithField(ctx, "alert", "red_packet_pool_empty"), "share pool empty while stock remains",
			pkgerrors.New(pkgerrors.CodeInternal, "share pool empty"))
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "red packet is temporarily unavailable")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.wallet.WithTx(tx).Credit(ctx, wallet.Change{
			UserID: claimantID,
			Amount: amount,
			Kind:   enums.MoneyFlowTypeRedPacket,
			RefID:  packetID,
			Remark: remarkClaimed,
		}); err != nil {
			return err
		}
		decremented, err := s.repo.WithTx(tx).DecrementStock(ctx, packetID)
		if err != nil {
			return err
		}
		if !decremented {
			return errStockExhausted
		}
		return nil
	})
	if err != nil {
		// the popped share cannot be put back; the refund sweep returns it to the issuer
		s.metrics.IncLeakedShare()
		s.logg.Error(s.logg.WithFields(ctx, map[string]any{
			"alert":  "red_packet_share_leaked",
			"amount": amount,
		}), "claim transaction failed after pop", err)
		if db.IsUniqueViolation(err, ledger.ClaimOnceConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgAlreadyClaimed)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record claim")
	}

	stock := packet.Stock - 1
	s.logg.Info(s.logg.WithField(ctx, "amount", amount), "red packet claimed")
	s.notifyUser(ctx, packet.FromUser, notifications.Event{
		Type:       notifications.EventRedPacketClaimed,
		PacketID:   packet.ID,
		FromUser:   packet.FromUser,
		GroupID:    packet.GroupID,
		ClaimantID: claimantID,
		Amount:     amount,
		Stock:      stock,
	})

	return &ClaimResult{
		ID:         packet.ID,
		Amount:     amount,
		ShareCount: packet.ShareCount,
		Stock:      stock,
	}, nil
}

// acquireLock retries the claim lock with capped exponential backoff until the
// claim wait budget, counted from the start of the attempt, runs out. At least one
// attempt is always made.
func (s *service) acquireLock(ctx context.Context, packetID int64, attemptStarted time.Time) (*ClaimLock, error) {
	started := time.Now()
	budget := max(s.cfg.ClaimWait-started.Sub(attemptStarted), 0)
	backoff := retry.NewExponential(s.cfg.BackoffBase)
	backoff = retry.WithCappedDuration(s.cfg.BackoffCap, backoff)
	backoff = retry.WithMaxDuration(budget, backoff)

	var lock *ClaimLock
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		held, ok, err := s.pool.TryLock(ctx, packetID, s.cfg.LockTTL)
		if err != nil {
			return err
		}
		if !ok {
			return retry.RetryableError(errLockBusy)
		}
		lock = held
		return nil
	})
	s.metrics.ObserveLockWait(time.Since(started))

	switch {
	case err == nil:
		return lock, nil
	case errors.Is(err, errLockBusy):
		return nil, pkgerrors.New(pkgerrors.CodeContention, msgContention)
	case ctx.Err() != nil:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ctx.Err(), "claim aborted")
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire claim lock")
	}
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return metrics.ClaimOutcomeSuccess
	case pkgerrors.HasCode(err, pkgerrors.CodeContention):
		return metrics.ClaimOutcomeContention
	case pkgerrors.HasCode(err, pkgerrors.CodeInternal), pkgerrors.HasCode(err, pkgerrors.CodeDependency):
		return metrics.ClaimOutcomeError
	default:
		return metrics.ClaimOutcomeRejected
	}
}
