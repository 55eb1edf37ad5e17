package ledger

import (
	"context"
	"fmt"
	"strings"

	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
	"github.com/chatwave/chat-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Service records money movements and answers questions about them.
type Service interface {
	WithTx(tx *gorm.DB) Service
	RecordMovement(ctx context.Context, input RecordMovementInput) (*models.MoneyFlowLog, error)
	MovementExists(ctx context.Context, kind enums.MoneyFlowType, refID, userID int64, dir enums.MoneyDirection) (bool, error)
	ListCredits(ctx context.Context, kind enums.MoneyFlowType, refID int64, params pagination.Params) ([]models.MoneyFlowLog, pagination.PageInfo, error)
	CountCredits(ctx context.Context, kind enums.MoneyFlowType, refID int64) (int64, error)
	SumCredits(ctx context.Context, kind enums.MoneyFlowType, refID int64) (int64, error)
}

type service struct {
	repo Repository
}

// RecordMovementInput captures the immutable data a ledger row requires.
type RecordMovementInput struct {
	Kind         enums.MoneyFlowType
	RefID        int64
	UserID       int64
	Amount       int64
	Direction    enums.MoneyDirection
	BalanceAfter int64
	Remark       string
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx)}
}

func (s *service) RecordMovement(ctx context.Context, input RecordMovementInput) (*models.MoneyFlowLog, error) {
	if input.UserID <= 0 {
		return nil, fmt.Errorf("user id is required")
	}
	if input.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}
	if !input.Kind.IsValid() {
		return nil, fmt.Errorf("invalid money flow type %q", input.Kind)
	}
	if !input.Direction.IsValid() {
		return nil, fmt.Errorf("invalid money direction %q", input.Direction)
	}

	entry := &models.MoneyFlowLog{
		Type:         input.Kind,
		FromID:       input.RefID,
		UserID:       input.UserID,
		Amount:       input.Amount,
		ChangeType:   input.Direction,
		BalanceAfter: input.BalanceAfter,
		Remark:       strings.TrimSpace(input.Remark),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) MovementExists(ctx context.Context, kind enums.MoneyFlowType, refID, userID int64, dir enums.MoneyDirection) (bool, error) {
	if !kind.IsValid() {
		return false, fmt.Errorf("invalid money flow type %q", kind)
	}
	return s.repo.Exists(ctx, kind, refID, userID, dir)
}

// ListCredits pages through the credits referencing refID, largest amount first.
func (s *service) ListCredits(ctx context.Context, kind enums.MoneyFlowType, refID int64, params pagination.Params) ([]models.MoneyFlowLog, pagination.PageInfo, error) {
	params = params.Normalize()
	total, err := s.repo.CountByRef(ctx, kind, refID, enums.MoneyDirectionIncr)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}
	info := pagination.NewPageInfo(params, total)
	if total == 0 {
		return []models.MoneyFlowLog{}, info, nil
	}
	entries, err := s.repo.ListByRef(ctx, kind, refID, enums.MoneyDirectionIncr, params.Offset(), params.Limit)
	if err != nil {
		return nil, pagination.PageInfo{}, err
	}
	return entries, info, nil
}

func (s *service) CountCredits(ctx context.Context, kind enums.MoneyFlowType, refID int64) (int64, error) {
	return s.repo.CountByRef(ctx, kind, refID, enums.MoneyDirectionIncr)
}

func (s *service) SumCredits(ctx context.Context, kind enums.MoneyFlowType, refID int64) (int64, error) {
	return s.repo.SumByRef(ctx, kind, refID, enums.MoneyDirectionIncr)
}
