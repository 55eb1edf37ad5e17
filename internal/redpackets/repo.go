package redpackets

import (
	"context"
	"time"

	"github.com/chatwave/chat-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists red packets.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, packet *models.RedPacket) error
	FindByID(ctx context.Context, id int64) (*models.RedPacket, error)
	DecrementStock(ctx context.Context, id int64) (bool, error)
	ListRefundable(ctx context.Context, now time.Time, limit int) ([]models.RedPacket, error)
	MarkRefunded(ctx context.Context, id, amount int64, at time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a red packet repository bound to db.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, packet *models.RedPacket) error {
	return r.db.WithContext(ctx).Create(packet).Error
}

func (r *repository) FindByID(ctx context.Context, id int64) (*models.RedPacket, error) {
	var packet models.RedPacket
	if err := r.db.WithContext(ctx).First(&packet, id).Error; err != nil {
		return nil, err
	}
	return &packet, nil
}

// DecrementStock takes one share off the packet. It reports false when stock was already zero.
func (r *repository) DecrementStock(ctx context.Context, id int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RedPacket{}).
		Where("id = ? AND stock > 0", id).
		Update("stock", gorm.Expr("stock - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListRefundable returns expired packets with unclaimed shares that were never refunded.
func (r *repository) ListRefundable(ctx context.Context, now time.Time, limit int) ([]models.RedPacket, error) {
	var packets []models.RedPacket
	if err := r.db.WithContext(ctx).
		Where("overdue_at < ? AND stock > 0 AND refunded_at IS NULL", now).
		Order("overdue_at ASC").
		Limit(limit).
		Find(&packets).Error; err != nil {
		return nil, err
	}
	return packets, nil
}

// MarkRefunded stamps the refund once; false means another sweep got there first.
func (r *repository) MarkRefunded(ctx context.Context, id, amount int64, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.RedPacket{}).
		Where("id = ? AND refunded_at IS NULL", id).
		Updates(map[string]any{
			"refunded_amount": amount,
			"refunded_at":     at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
