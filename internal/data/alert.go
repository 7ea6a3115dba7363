package data

import (
	"context"
	"database/sql/driver"
	"fmt"
	"time"

	pkgerrors "TradeSentry/pkg/errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// AlertCondition represents the database ENUM type for alert conditions.
type AlertCondition string

// Alert condition constants.
const (
	AlertConditionAbove AlertCondition = "above"
	AlertConditionBelow AlertCondition = "below"
)

// Scan implements sql.Scanner for AlertCondition.
func (c *AlertCondition) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*c = ""
	case string:
		*c = AlertCondition(v)
	case []byte:
		*c = AlertCondition(v)
	default:
		return fmt.Errorf("cannot scan %T into AlertCondition", value)
	}
	return nil
}

// Value implements driver.Valuer for AlertCondition.
func (c AlertCondition) Value() (driver.Value, error) {
	return string(c), nil
}

// Alert is the GORM model for the alerts table.
type Alert struct {
	ID          int64          `gorm:"primaryKey;column:id"`
	Symbol      string         `gorm:"column:symbol;size:32;not null;index"`
	Condition   AlertCondition `gorm:"column:condition;type:enum('above','below');not null"`
	Threshold   float64        `gorm:"column:threshold;type:decimal(24,8);not null"`
	Active      bool           `gorm:"column:active;default:true;not null"`
	TriggeredAt *time.Time     `gorm:"column:triggered_at"`
	LastPrice   float64        `gorm:"column:last_price;type:decimal(24,8)"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Alert) TableName() string {
	return "alerts"
}

// Matches reports whether a price satisfies the alert condition.
func (a *Alert) Matches(price float64) bool {
	switch a.Condition {
	case AlertConditionAbove:
		return price > a.Threshold
	case AlertConditionBelow:
		return price < a.Threshold
	default:
		return false
	}
}

// AlertRepo implements biz.AlertRepo.
type AlertRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewAlertRepo creates a new alert repository.
func NewAlertRepo(db *gorm.DB, logger log.Logger) *AlertRepo {
	return &AlertRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// Create persists a new alert.
func (r *AlertRepo) Create(ctx context.Context, alert *Alert) error {
	if err := r.db.WithContext(ctx).Create(alert).Error; err != nil {
		return pkgerrors.ClassifyDBError(err)
	}
	return nil
}

// GetByID loads an alert by primary key.
func (r *AlertRepo) GetByID(ctx context.Context, id int64) (*Alert, error) {
	var alert Alert
	if err := r.db.WithContext(ctx).First(&alert, id).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return &alert, nil
}

// List returns alerts, optionally filtered by symbol and active state.
func (r *AlertRepo) List(ctx context.Context, symbol string, activeOnly bool) ([]*Alert, error) {
	query := r.db.WithContext(ctx).Model(&Alert{})
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var alerts []*Alert
	if err := query.Order("created_at DESC").Find(&alerts).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return alerts, nil
}

// Update persists alert changes.
func (r *AlertRepo) Update(ctx context.Context, alert *Alert) error {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ?", alert.ID).
		Updates(map[string]interface{}{
			"symbol":    alert.Symbol,
			"condition": alert.Condition,
			"threshold": alert.Threshold,
			"active":    alert.Active,
		})
	if result.Error != nil {
		return pkgerrors.ClassifyDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ClassifyDBError(gorm.ErrRecordNotFound)
	}
	return nil
}

// Delete removes an alert.
func (r *AlertRepo) Delete(ctx context.Context, id int64) error {
	result := r.db.WithContext(ctx).Delete(&Alert{}, id)
	if result.Error != nil {
		return pkgerrors.ClassifyDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ClassifyDBError(gorm.ErrRecordNotFound)
	}
	return nil
}

// MarkTriggered deactivates an alert and records the trigger price and time.
func (r *AlertRepo) MarkTriggered(ctx context.Context, id int64, price float64, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&Alert{}).
		Where("id = ? AND active = ?", id, true).
		Updates(map[string]interface{}{
			"active":       false,
			"triggered_at": at,
			"last_price":   price,
		})
	if result.Error != nil {
		return pkgerrors.ClassifyDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		// Already triggered by a concurrent sweep, not an error
		r.logger.Debugw("msg", "alert already triggered", "alert_id", id)
	}
	return nil
}
