package model

// Audit event type constants
const (
	AuditEventOrderPlaced      = "ORDER_PLACED"
	AuditEventOrderRejected    = "ORDER_REJECTED"
	AuditEventAlertTriggered   = "ALERT_TRIGGERED"
	AuditEventCircuitOpened    = "CIRCUIT_OPENED"
	AuditEventCircuitClosed    = "CIRCUIT_CLOSED"
	AuditEventBreakerReset     = "BREAKER_RESET"
	AuditEventAccountLinked    = "ACCOUNT_LINKED"
	AuditEventAccountUnlinked  = "ACCOUNT_UNLINKED"
	AuditEventRateLimitDenied  = "RATE_LIMIT_DENIED"
	AuditEventIdempotentReplay = "IDEMPOTENT_REPLAY"
)
