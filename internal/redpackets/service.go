package redpackets

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatwave/chat-backend/internal/ledger"
	"github.com/chatwave/chat-backend/internal/notifications"
	"github.com/chatwave/chat-backend/internal/wallet"
	"github.com/chatwave/chat-backend/pkg/config"
	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
	"github.com/chatwave/chat-backend/pkg/logger"
	"github.com/chatwave/chat-backend/pkg/metrics"
	"github.com/chatwave/chat-backend/pkg/pagination"
	"gorm.io/gorm"
)

const (
	msgNotFound       = "红包不存在"
	msgNotYours       = "无法领取别人的专属红包！"
	msgAlreadyClaimed = "红包已经领取过了！"
	msgExpired        = "该红包已超过24小时，如已领取，可在“红包记录”中查看"
	msgSoldOut        = "您手慢了！红包已经被抢完了！"
	msgContention     = "抢红包人数过多，请稍后再抢"
	msgNotParticipant = "无权查看该红包"

	remarkIssued   = "发出红包"
	remarkClaimed  = "领取红包"
	remarkRefunded = "红包过期退款"
)

// Service is the red packet engine.
type Service interface {
	Issue(ctx context.Context, issuerID int64, req IssueRequest) (*IssueResult, error)
	Status(ctx context.Context, packetID, viewerID int64) (*StatusResult, error)
	Claim(ctx context.Context, packetID, claimantID int64) (*ClaimResult, error)
	ListRecords(ctx context.Context, packetID int64, page, pageSize int) (*RecordsResult, error)
	RefundExpired(ctx context.Context, limit int) (RefundSummary, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type membershipChecker interface {
	IsFriend(ctx context.Context, a, b int64) (bool, error)
	IsGroupMember(ctx context.Context, groupID, userID int64) (bool, error)
	GroupMemberCount(ctx context.Context, groupID int64) (int64, error)
	IsAssistant(userID int64) bool
}

type notifier interface {
	NotifyUser(ctx context.Context, userID int64, event notifications.Event)
	NotifyGroup(ctx context.Context, groupID int64, event notifications.Event)
}

// ServiceParams wires the engine's collaborators.
type ServiceParams struct {
	DB        txRunner
	Repo      Repository
	Ledger    ledger.Service
	Wallet    wallet.Service
	Members   membershipChecker
	Pool      *Pool
	Allocator *Allocator
	Notifier  notifier
	Metrics   *metrics.RedPacketMetrics
	Logger    *logger.Logger
	Config    config.RedPacketConfig
	Clock     func() time.Time
}

type service struct {
	db        txRunner
	repo      Repository
	ledger    ledger.Service
	wallet    wallet.Service
	members   membershipChecker
	pool      *Pool
	allocator *Allocator
	notifier  notifier
	metrics   *metrics.RedPacketMetrics
	logg      *logger.Logger
	cfg       config.RedPacketConfig
	now       func() time.Time
}

// NewService validates params and builds the engine.
func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.DB == nil:
		return nil, fmt.Errorf("db runner required")
	case params.Repo == nil:
		return nil, fmt.Errorf("red packet repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Wallet == nil:
		return nil, fmt.Errorf("wallet service required")
	case params.Members == nil:
		return nil, fmt.Errorf("membership checker required")
	case params.Pool == nil:
		return nil, fmt.Errorf("share pool required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.LockTTL <= params.Config.ClaimWait {
		return nil, fmt.Errorf("lock ttl must exceed claim wait")
	}
	if params.Config.Lifetime <= 0 {
		return nil, fmt.Errorf("packet lifetime must be positive")
	}

	allocator := params.Allocator
	if allocator == nil {
		allocator = NewAllocator(nil)
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		db:        params.DB,
		repo:      params.Repo,
		ledger:    params.Ledger,
		wallet:    params.Wallet,
		members:   params.Members,
		pool:      params.Pool,
		allocator: allocator,
		notifier:  params.Notifier,
		metrics:   params.Metrics,
		logg:      params.Logger,
		cfg:       params.Config,
		now:       clock,
	}, nil
}

func (s *service) loadPacket(ctx context.Context, id int64) (*models.RedPacket, error) {
	packet, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, msgNotFound)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load red packet")
	}
	return packet, nil
}

func (s *service) hasClaimed(ctx context.Context, packetID, userID int64) (bool, error) {
	claimed, err := s.ledger.MovementExists(ctx, enums.MoneyFlowTypeRedPacket, packetID, userID, enums.MoneyDirectionIncr)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check claim history")
	}
	return claimed, nil
}

// canSee reports whether userID takes part in the conversation the packet was sent to.
func (s *service) canSee(ctx context.Context, packet *models.RedPacket, userID int64) (bool, error) {
	if packet.IsGroup() {
		return s.members.IsGroupMember(ctx, packet.GroupID, userID)
	}
	return s.members.IsFriend(ctx, packet.FromUser, userID)
}

func (s *service) Status(ctx context.Context, packetID, viewerID int64) (*StatusResult, error) {
	packet, err := s.loadPacket(ctx, packetID)
	if err != nil {
		return nil, err
	}
	if packet.FromUser != viewerID {
		ok, err := s.canSee(ctx, packet, viewerID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgNotParticipant)
		}
	}
	claimed, err := s.hasClaimed(ctx, packet.ID, viewerID)
	if err != nil {
		return nil, err
	}
	return &StatusResult{
		ID:     packet.ID,
		Stock:  packet.Stock,
		Status: Resolve(*packet, viewerID, claimed, s.now()),
	}, nil
}

func (s *service) ListRecords(ctx context.Context, packetID int64, page, pageSize int) (*RecordsResult, error) {
	if _, err := s.loadPacket(ctx, packetID); err != nil {
		return nil, err
	}
	entries, info, err := s.ledger.ListCredits(ctx, enums.MoneyFlowTypeRedPacket, packetID, pagination.Params{Page: page, Limit: pageSize})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list claim records")
	}
	items := make([]Record, 0, len(entries))
	for _, entry := range entries {
		record := Record{
			UserID:    entry.UserID,
			Amount:    entry.Amount,
			ClaimedAt: entry.CreatedAt,
		}
		if entry.User != nil {
			record.Nickname = entry.User.Nickname
			record.Avatar = entry.User.Avatar
		}
		items = append(items, record)
	}
	return &RecordsResult{PageInfo: info, Items: items}, nil
}

func (s *service) notifyUser(ctx context.Context, userID int64, event notifications.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyUser(ctx, userID, event)
}

func (s *service) notifyGroup(ctx context.Context, groupID int64, event notifications.Event) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyGroup(ctx, groupID, event)
}
