// Package bootstrap assembles the red packet engine from its infrastructure so the
// api and cron-worker binaries share one wiring.
package bootstrap

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chatwave/chat-backend/internal/ledger"
	"github.com/chatwave/chat-backend/internal/memberships"
	"github.com/chatwave/chat-backend/internal/notifications"
	"github.com/chatwave/chat-backend/internal/redpackets"
	"github.com/chatwave/chat-backend/internal/wallet"
	"github.com/chatwave/chat-backend/pkg/config"
	"github.com/chatwave/chat-backend/pkg/db"
	"github.com/chatwave/chat-backend/pkg/logger"
	"github.com/chatwave/chat-backend/pkg/metrics"
	"github.com/chatwave/chat-backend/pkg/redis"
)

// RedPacketService builds the engine over the shared database and redis clients.
// reg may be nil, in which case the engine's metrics are not exported.
func RedPacketService(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, logg *logger.Logger, reg prometheus.Registerer) (redpackets.Service, error) {
	conn := dbClient.DB()

	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	walletSvc, err := wallet.NewService(wallet.NewRepository(conn), ledgerSvc)
	if err != nil {
		return nil, fmt.Errorf("wallet service: %w", err)
	}
	checker, err := memberships.NewChecker(memberships.NewRepository(conn), cfg.Assistants.UserIDs)
	if err != nil {
		return nil, fmt.Errorf("membership checker: %w", err)
	}

	svc, err := redpackets.NewService(redpackets.ServiceParams{
		DB:       dbClient,
		Repo:     redpackets.NewRepository(conn),
		Ledger:   ledgerSvc,
		Wallet:   walletSvc,
		Members:  checker,
		Pool:     redpackets.NewPool(redisClient),
		Notifier: notifications.NewPublisher(redisClient, logg),
		Metrics:  metrics.NewRedPacketMetrics(reg),
		Logger:   logg,
		Config:   cfg.RedPacket,
	})
	if err != nil {
		return nil, fmt.Errorf("red packet service: %w", err)
	}
	return svc, nil
}
