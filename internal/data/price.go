package data

import (
	"context"
	"time"

	pkgerrors "TradeSentry/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// PriceTick is the GORM model for the price_ticks table.
// One row per observed quote, kept for alert evaluation and history queries.
type PriceTick struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	Symbol     string    `gorm:"column:symbol;size:32;not null;index:idx_symbol_observed"`
	Price      float64   `gorm:"column:price;type:decimal(24,8);not null"`
	Volume     float64   `gorm:"column:volume;type:decimal(24,8)"`
	ObservedAt time.Time `gorm:"column:observed_at;not null;index:idx_symbol_observed"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM.
func (PriceTick) TableName() string {
	return "price_ticks"
}

// PriceRepo implements biz.PriceRepo.
type PriceRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewPriceRepo creates a new price tick repository.
func NewPriceRepo(db *gorm.DB, logger log.Logger) *PriceRepo {
	return &PriceRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// SaveTick persists an observed quote.
func (r *PriceRepo) SaveTick(ctx context.Context, tick *PriceTick) error {
	if err := r.db.WithContext(ctx).Create(tick).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.logger.Errorw("msg", "failed to save price tick",
			"symbol", tick.Symbol,
			"error", dbErr)
		return dbErr
	}
	return nil
}

// History returns the most recent ticks for a symbol, newest first.
func (r *PriceRepo) History(ctx context.Context, symbol string, limit int) ([]*PriceTick, error) {
	var ticks []*PriceTick
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("observed_at DESC").
		Limit(limit).
		Find(&ticks).Error
	if err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return ticks, nil
}

// Latest returns the most recent tick for a symbol.
func (r *PriceRepo) Latest(ctx context.Context, symbol string) (*PriceTick, error) {
	var tick PriceTick
	err := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("observed_at DESC").
		First(&tick).Error
	if err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return &tick, nil
}

// DeleteOlderThan removes ticks observed before the cutoff.
// Called from the hourly cleanup job to keep the table bounded.
func (r *PriceRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("observed_at < ?", cutoff).
		Delete(&PriceTick{})
	if result.Error != nil {
		return 0, pkgerrors.ClassifyDBError(result.Error)
	}
	return result.RowsAffected, nil
}
