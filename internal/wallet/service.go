package wallet

import (
	"context"
	"errors"

	"github.com/chatwave/chat-backend/internal/ledger"
	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
	pkgerrors "github.com/chatwave/chat-backend/pkg/errors"
	"gorm.io/gorm"
)

// Service moves money in and out of user balances. Every change writes exactly one
// ledger row through the same database handle, so callers must bind both to a
// transaction with WithTx when the change is part of a larger unit.
type Service interface {
	WithTx(tx *gorm.DB) Service
	Credit(ctx context.Context, change Change) (*models.MoneyFlowLog, error)
	Debit(ctx context.Context, change Change) (*models.MoneyFlowLog, error)
	Balance(ctx context.Context, userID int64) (int64, error)
}

// Change describes a single balance movement.
type Change struct {
	UserID int64
	Amount int64
	Kind   enums.MoneyFlowType
	RefID  int64
	Remark string
}

type service struct {
	repo   Repository
	ledger ledger.Service
}

func NewService(repo Repository, ledgerSvc ledger.Service) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "wallet repository required")
	}
	if ledgerSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "ledger service required")
	}
	return &service{repo: repo, ledger: ledgerSvc}, nil
}

func (s *service) WithTx(tx *gorm.DB) Service {
	return &service{repo: s.repo.WithTx(tx), ledger: s.ledger.WithTx(tx)}
}

func (s *service) Credit(ctx context.Context, change Change) (*models.MoneyFlowLog, error) {
	if err := validateChange(change); err != nil {
		return nil, err
	}
	ok, err := s.repo.Increase(ctx, change.UserID, change.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit balance")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.record(ctx, change, enums.MoneyDirectionIncr)
}

func (s *service) Debit(ctx context.Context, change Change) (*models.MoneyFlowLog, error) {
	if err := validateChange(change); err != nil {
		return nil, err
	}
	ok, err := s.repo.DecreaseIfSufficient(ctx, change.UserID, change.Amount)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit balance")
	}
	if !ok {
		if _, err := s.Balance(ctx, change.UserID); err != nil {
			return nil, err
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientFunds, "insufficient balance")
	}
	return s.record(ctx, change, enums.MoneyDirectionDecr)
}

func (s *service) Balance(ctx context.Context, userID int64) (int64, error) {
	balance, err := s.repo.Balance(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load balance")
	}
	return balance, nil
}

func (s *service) record(ctx context.Context, change Change, dir enums.MoneyDirection) (*models.MoneyFlowLog, error) {
	balance, err := s.Balance(ctx, change.UserID)
	if err != nil {
		return nil, err
	}
	// the raw ledger error is kept so callers can detect unique violations
	return s.ledger.RecordMovement(ctx, ledger.RecordMovementInput{
		Kind:         change.Kind,
		RefID:        change.RefID,
		UserID:       change.UserID,
		Amount:       change.Amount,
		Direction:    dir,
		BalanceAfter: balance,
		Remark:       change.Remark,
	})
}

func validateChange(change Change) error {
	if change.UserID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if change.Amount <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !change.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid money flow type")
	}
	return nil
}
