package cron

import (
	"context"
	"fmt"

	"github.com/chatwave/chat-backend/internal/redpackets"
	"github.com/chatwave/chat-backend/pkg/logger"
)

const defaultRefundBatch = 100

type RedPacketRefundJobParams struct {
	Logger    *logger.Logger
	Refunder  refunder
	BatchSize int
}

type refunder interface {
	RefundExpired(ctx context.Context, limit int) (redpackets.RefundSummary, error)
}

func NewRedPacketRefundJob(params RedPacketRefundJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Refunder == nil {
		return nil, fmt.Errorf("red packet refunder required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultRefundBatch
	}
	return &redPacketRefundJob{
		logg:     params.Logger,
		refunder: params.Refunder,
		batch:    batch,
	}, nil
}

type redPacketRefundJob struct {
	logg     *logger.Logger
	refunder refunder
	batch    int
}

func (j *redPacketRefundJob) Name() string { return "red-packet-refund" }

// Run sweeps batches until a batch comes back short. Packets skipped because a
// claim holds their lock stay listed, so a batch made only of skips ends the run.
func (j *redPacketRefundJob) Run(ctx context.Context) error {
	var total redpackets.RefundSummary
	var runErr error
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		summary, err := j.refunder.RefundExpired(ctx, j.batch)
		total.Scanned += summary.Scanned
		total.Refunded += summary.Refunded
		total.Skipped += summary.Skipped
		total.Amount += summary.Amount
		if err != nil {
			runErr = fmt.Errorf("red packet refund: %w", err)
			break
		}
		if summary.Scanned < j.batch || summary.Refunded == 0 {
			break
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"scanned":  total.Scanned,
		"refunded": total.Refunded,
		"skipped":  total.Skipped,
		"amount":   total.Amount,
	})
	j.logg.Info(logCtx, "red packet refund sweep complete")
	return runErr
}
