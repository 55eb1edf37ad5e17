package wallet

import (
	"context"

	"github.com/chatwave/chat-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository performs guarded balance updates on users.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Increase(ctx context.Context, userID, amount int64) (bool, error)
	DecreaseIfSufficient(ctx context.Context, userID, amount int64) (bool, error)
	Balance(ctx context.Context, userID int64) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Increase(ctx context.Context, userID, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("balance", gorm.Expr("balance + ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DecreaseIfSufficient debits only when the balance covers amount; false means no row matched.
func (r *repository) DecreaseIfSufficient(ctx context.Context, userID, amount int64) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ? AND balance >= ?", userID, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) Balance(ctx context.Context, userID int64) (int64, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "balance").First(&user, userID).Error; err != nil {
		return 0, err
	}
	return user.Balance, nil
}
