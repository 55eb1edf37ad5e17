package redpackets

import (
	"context"
	"errors"
	"fmt"

	"github.com/chatwave/chat-backend/internal/wallet"
	"github.com/chatwave/chat-backend/pkg/enums"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

var errAlreadyRefunded = errors.New("already refunded")

// RefundExpired returns the unclaimed money of up to limit expired packets to their
// issuers. The refund is computed from the ledger, so shares lost between a pop and a
// failed claim transaction are returned too. Packets whose lock is held are skipped
// and picked up by the next sweep.
func (s *service) RefundExpired(ctx context.Context, limit int) (RefundSummary, error) {
	if limit <= 0 {
		limit = s.cfg.RefundBatch
	}
	var summary RefundSummary

	packets, err := s.repo.ListRefundable(ctx, s.now(), limit)
	if err != nil {
		return summary, fmt.Errorf("list refundable packets: %w", err)
	}
	summary.Scanned = len(packets)

	var errs error
	for _, packet := range packets {
		amount, refunded, err := s.refundOne(ctx, packet.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("packet %d: %w", packet.ID, err))
			continue
		}
		if !refunded {
			summary.Skipped++
			continue
		}
		summary.Refunded++
		summary.Amount += amount
	}
	return summary, errs
}

func (s *service) refundOne(ctx context.Context, packetID int64) (int64, bool, error) {
	ctx = s.logg.WithPacketID(ctx, packetID)

	lock, ok, err := s.pool.TryLock(ctx, packetID, s.cfg.LockTTL)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, nil
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Warn(ctx, err.Error())
		}
	}()

	packet, err := s.loadPacket(ctx, packetID)
	if err != nil {
		return 0, false, err
	}
	if packet.RefundedAt != nil || !s.now().After(packet.OverdueAt) {
		return 0, false, nil
	}

	claimed, err := s.ledger.SumCredits(ctx, enums.MoneyFlowTypeRedPacket, packetID)
	if err != nil {
		return 0, false, err
	}
	amount := packet.TotalAmount - claimed
	if amount < 0 {
		return 0, false, fmt.Errorf("claimed %d exceeds total %d", claimed, packet.TotalAmount)
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		marked, err := s.repo.WithTx(tx).MarkRefunded(ctx, packetID, amount, s.now())
		if err != nil {
			return err
		}
		if !marked {
			return errAlreadyRefunded
		}
		if amount == 0 {
			return nil
		}
		_, err = s.wallet.WithTx(tx).Credit(ctx, wallet.Change{
			UserID: packet.FromUser,
			Amount: amount,
			Kind:   enums.MoneyFlowTypeRedPacketRefund,
			RefID:  packetID,
			Remark: remarkRefunded,
		})
		return err
	})
	if errors.Is(err, errAlreadyRefunded) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	if err := s.pool.Drain(ctx, packetID); err != nil {
		s.logg.Warn(ctx, "drain share pool: "+err.Error())
	}
	s.metrics.AddRefunded(amount)
	s.logg.Info(s.logg.WithField(ctx, "amount", amount), "red packet refunded")
	return amount, true, nil
}
