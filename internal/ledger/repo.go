package ledger

import (
	"context"

	"github.com/chatwave/chat-backend/pkg/db/models"
	"github.com/chatwave/chat-backend/pkg/enums"
	"gorm.io/gorm"
)

// ClaimOnceConstraint is the partial unique index guarding red packet credits.
const ClaimOnceConstraint = "uq_money_flow_logs_red_packet_claim"

// Repository manages persistence for money flow logs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.MoneyFlowLog) error
	Exists(ctx context.Context, kind enums.MoneyFlowType, refID, userID int64, dir enums.MoneyDirection) (bool, error)
	ListByRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection, offset, limit int) ([]models.MoneyFlowLog, error)
	CountByRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection) (int64, error)
	SumByRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, entry *models.MoneyFlowLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repository) byRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection) *gorm.DB {
	return r.db.WithContext(ctx).
		Model(&models.MoneyFlowLog{}).
		Where("type = ? AND from_id = ? AND change_type = ?", kind, refID, dir)
}

func (r *repository) Exists(ctx context.Context, kind enums.MoneyFlowType, refID, userID int64, dir enums.MoneyDirection) (bool, error) {
	var count int64
	if err := r.byRef(ctx, kind, refID, dir).
		Where("user_id = ?", userID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) ListByRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection, offset, limit int) ([]models.MoneyFlowLog, error) {
	var entries []models.MoneyFlowLog
	if err := r.byRef(ctx, kind, refID, dir).
		Preload("User", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "nickname", "avatar")
		}).
		Order("amount DESC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CountByRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection) (int64, error) {
	var count int64
	if err := r.byRef(ctx, kind, refID, dir).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *repository) SumByRef(ctx context.Context, kind enums.MoneyFlowType, refID int64, dir enums.MoneyDirection) (int64, error) {
	var total int64
	if err := r.byRef(ctx, kind, refID, dir).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
