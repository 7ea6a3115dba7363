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

// OrderSide represents the database ENUM type for trade side.
type OrderSide string

// Order side constants.
const (
	SideBuy  OrderSide = "buy"
	SideSell OrderSide = "sell"
)

// Scan implements sql.Scanner for OrderSide.
func (s *OrderSide) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = OrderSide(v)
	case []byte:
		*s = OrderSide(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderSide", value)
	}
	return nil
}

// Value implements driver.Valuer for OrderSide.
func (s OrderSide) Value() (driver.Value, error) {
	return string(s), nil
}

// OrderType represents the database ENUM type for order type.
type OrderType string

// Order type constants.
const (
	TypeMarket OrderType = "market"
	TypeLimit  OrderType = "limit"
)

// Scan implements sql.Scanner for OrderType.
func (t *OrderType) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*t = ""
	case string:
		*t = OrderType(v)
	case []byte:
		*t = OrderType(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderType", value)
	}
	return nil
}

// Value implements driver.Valuer for OrderType.
func (t OrderType) Value() (driver.Value, error) {
	return string(t), nil
}

// TradeStatus represents the database ENUM type for trade status.
type TradeStatus string

// Trade status constants.
const (
	TradeStatusPending  TradeStatus = "pending"
	TradeStatusFilled   TradeStatus = "filled"
	TradeStatusRejected TradeStatus = "rejected"
	TradeStatusCanceled TradeStatus = "canceled"
)

// Scan implements sql.Scanner for TradeStatus.
func (s *TradeStatus) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*s = ""
	case string:
		*s = TradeStatus(v)
	case []byte:
		*s = TradeStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into TradeStatus", value)
	}
	return nil
}

// Value implements driver.Valuer for TradeStatus.
func (s TradeStatus) Value() (driver.Value, error) {
	return string(s), nil
}

// Trade is the GORM model for the trades table.
type Trade struct {
	ID             int64       `gorm:"primaryKey;column:id"`
	OrderID        string      `gorm:"column:order_id;size:64;uniqueIndex;not null"` // exchange-assigned order ID
	IdempotencyKey string      `gorm:"column:idempotency_key;size:128;index"`
	AccountID      int64       `gorm:"column:account_id;not null;index"`
	Symbol         string      `gorm:"column:symbol;size:32;not null;index"`
	Side           OrderSide   `gorm:"column:side;type:enum('buy','sell');not null"`
	Type           OrderType   `gorm:"column:type;type:enum('market','limit');not null"`
	Quantity       float64     `gorm:"column:quantity;type:decimal(24,8);not null"`
	Price          float64     `gorm:"column:price;type:decimal(24,8)"`
	FilledPrice    float64     `gorm:"column:filled_price;type:decimal(24,8)"`
	Status         TradeStatus `gorm:"column:status;type:enum('pending','filled','rejected','canceled');default:'pending';not null"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName specifies the table name for GORM.
func (Trade) TableName() string {
	return "trades"
}

// TradeRepo implements biz.TradeRepo.
// Following Kratos v2 DDD architecture, the interface is defined in the biz layer.
type TradeRepo struct {
	db     *gorm.DB
	logger *log.Helper
}

// NewTradeRepo creates a new trade repository.
func NewTradeRepo(db *gorm.DB, logger log.Logger) *TradeRepo {
	return &TradeRepo{
		db:     db,
		logger: log.NewHelper(logger),
	}
}

// Create persists a trade row.
func (r *TradeRepo) Create(ctx context.Context, trade *Trade) error {
	if err := r.db.WithContext(ctx).Create(trade).Error; err != nil {
		dbErr := pkgerrors.ClassifyDBError(err)
		r.logger.Errorw("msg", "failed to create trade",
			"order_id", trade.OrderID,
			"symbol", trade.Symbol,
			"error", dbErr)
		return dbErr
	}
	return nil
}

// GetByID loads a trade by primary key.
func (r *TradeRepo) GetByID(ctx context.Context, id int64) (*Trade, error) {
	var trade Trade
	if err := r.db.WithContext(ctx).First(&trade, id).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return &trade, nil
}

// GetByOrderID loads a trade by exchange order ID.
func (r *TradeRepo) GetByOrderID(ctx context.Context, orderID string) (*Trade, error) {
	var trade Trade
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&trade).Error; err != nil {
		return nil, pkgerrors.ClassifyDBError(err)
	}
	return &trade, nil
}

// List returns trades ordered by creation time, newest first.
// symbol filters when non-empty. offset/limit paginate.
func (r *TradeRepo) List(ctx context.Context, symbol string, offset, limit int) ([]*Trade, int64, error) {
	query := r.db.WithContext(ctx).Model(&Trade{})
	if symbol != "" {
		query = query.Where("symbol = ?", symbol)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.ClassifyDBError(err)
	}

	var trades []*Trade
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&trades).Error; err != nil {
		return nil, 0, pkgerrors.ClassifyDBError(err)
	}

	return trades, total, nil
}

// UpdateStatus updates the status and filled price of a trade.
func (r *TradeRepo) UpdateStatus(ctx context.Context, orderID string, status TradeStatus, filledPrice float64) error {
	result := r.db.WithContext(ctx).Model(&Trade{}).
		Where("order_id = ?", orderID).
		Updates(map[string]interface{}{
			"status":       status,
			"filled_price": filledPrice,
		})
	if result.Error != nil {
		return pkgerrors.ClassifyDBError(result.Error)
	}
	if result.RowsAffected == 0 {
		return pkgerrors.ClassifyDBError(gorm.ErrRecordNotFound)
	}
	return nil
}
