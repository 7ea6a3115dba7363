package data

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"TradeSentry/internal/model"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"
)

// AuditLog is the GORM model for the audit_logs table
type AuditLog struct {
	ID         int64     `gorm:"primaryKey;column:id"`
	RefType    string    `gorm:"column:ref_type;type:varchar(20);not null;index"` // order, alert, guard, account
	RefID      string    `gorm:"column:ref_id;type:varchar(64);not null;index"`
	ActionType string    `gorm:"column:action_type;type:varchar(50);not null"`
	Details    string    `gorm:"column:details;type:json"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName specifies the table name for GORM
func (AuditLog) TableName() string {
	return "audit_logs"
}

// AuditLoggerImpl implements biz.AuditLogger.
// Writes go through a buffered channel so audit persistence never blocks
// the order path.
type AuditLoggerImpl struct {
	db      *gorm.DB
	logChan chan *AuditLog
	logger  *log.Helper
}

// NewAuditLogger creates a new audit logger with async channel
func NewAuditLogger(db *gorm.DB, logger log.Logger) *AuditLoggerImpl {
	al := &AuditLoggerImpl{
		db:      db,
		logChan: make(chan *AuditLog, 1000),
		logger:  log.NewHelper(logger),
	}

	go al.start()

	return al
}

// start processes audit log events from the channel
func (a *AuditLoggerImpl) start() {
	for event := range a.logChan {
		ctx := context.Background()
		if err := a.db.WithContext(ctx).Create(event).Error; err != nil {
			a.logger.Errorw("msg", "failed to write audit log",
				"ref_type", event.RefType,
				"ref_id", event.RefID,
				"action_type", event.ActionType,
				"error", err)
		} else {
			a.logger.Debugw("msg", "audit log written",
				"ref_type", event.RefType,
				"action_type", event.ActionType)
		}
	}
}

// enqueue sends an event to the channel without blocking; a full channel
// drops the event with a warning.
func (a *AuditLoggerImpl) enqueue(event *AuditLog) {
	select {
	case a.logChan <- event:
	default:
		a.logger.Warnw("msg", "audit log channel full, dropping event",
			"ref_type", event.RefType,
			"ref_id", event.RefID,
			"action_type", event.ActionType)
	}
}

func marshalDetails(details map[string]interface{}, logger *log.Helper) string {
	data, err := json.Marshal(details)
	if err != nil {
		logger.Errorw("msg", "failed to marshal audit log details", "error", err)
		return "{}"
	}
	return string(data)
}

// LogOrderPlaced records a successfully placed order
func (a *AuditLoggerImpl) LogOrderPlaced(ctx context.Context, event *model.OrderPlacedEvent) {
	details := map[string]interface{}{
		"account_id": event.AccountID,
		"symbol":     event.Symbol,
		"side":       event.Side,
		"quantity":   event.Quantity,
		"price":      event.Price,
		"placed_at":  event.PlacedAt.Format(time.RFC3339),
	}

	a.enqueue(&AuditLog{
		RefType:    "order",
		RefID:      event.OrderID,
		ActionType: model.AuditEventOrderPlaced,
		Details:    marshalDetails(details, a.logger),
	})
}

// LogOrderRejected records an order the guards or the exchange rejected
func (a *AuditLoggerImpl) LogOrderRejected(ctx context.Context, symbol, reason string) {
	details := map[string]interface{}{
		"symbol": symbol,
		"reason": reason,
	}

	a.enqueue(&AuditLog{
		RefType:    "order",
		RefID:      symbol,
		ActionType: model.AuditEventOrderRejected,
		Details:    marshalDetails(details, a.logger),
	})
}

// LogAlertTriggered records a price alert firing
func (a *AuditLoggerImpl) LogAlertTriggered(ctx context.Context, event *model.AlertTriggeredEvent) {
	details := map[string]interface{}{
		"symbol":       event.Symbol,
		"condition":    event.Condition,
		"threshold":    event.Threshold,
		"price":        event.Price,
		"triggered_at": event.TriggeredAt.Format(time.RFC3339),
	}

	a.enqueue(&AuditLog{
		RefType:    "alert",
		RefID:      formatID(event.AlertID),
		ActionType: model.AuditEventAlertTriggered,
		Details:    marshalDetails(details, a.logger),
	})
}

// LogGuardTransition records a circuit breaker state change
func (a *AuditLoggerImpl) LogGuardTransition(ctx context.Context, event *model.GuardStateChangedEvent) {
	actionType := model.AuditEventCircuitClosed
	if event.NewState == "OPEN" {
		actionType = model.AuditEventCircuitOpened
	}

	details := map[string]interface{}{
		"old_state":  event.OldState,
		"new_state":  event.NewState,
		"changed_at": event.ChangedAt.Format(time.RFC3339),
	}

	a.enqueue(&AuditLog{
		RefType:    "guard",
		RefID:      event.Guard,
		ActionType: actionType,
		Details:    marshalDetails(details, a.logger),
	})
}

// LogBreakerReset records an explicit operator reset of a breaker
func (a *AuditLoggerImpl) LogBreakerReset(ctx context.Context, guard string) {
	a.enqueue(&AuditLog{
		RefType:    "guard",
		RefID:      guard,
		ActionType: model.AuditEventBreakerReset,
		Details:    "{}",
	})
}

// LogAccountEvent records account lifecycle events such as linking
// and unlinking exchange credentials.
func (a *AuditLoggerImpl) LogAccountEvent(ctx context.Context, action string, accountID int64, name string) {
	details := map[string]interface{}{
		"name": name,
	}

	a.enqueue(&AuditLog{
		RefType:    "account",
		RefID:      formatID(accountID),
		ActionType: action,
		Details:    marshalDetails(details, a.logger),
	})
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
