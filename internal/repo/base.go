package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base provides a shared foundation for read-side repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Count returns how many rows of model match the condition.
func (b Base) Count(ctx context.Context, model any, query string, args ...any) (int64, error) {
	var count int64
	if err := b.DB(ctx).Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists reports whether at least one row of model matches the condition.
func (b Base) Exists(ctx context.Context, model any, query string, args ...any) (bool, error) {
	count, err := b.Count(ctx, model, query, args...)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
