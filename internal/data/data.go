// Package data provides data access layer implementations.
// It handles database connections, caching and external exchange access.
package data

import "github.com/google/wire"

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewRedisClient,
	NewCacheClient,
	NewMySQLClient,
	NewQuoteCache,
	NewMarketClient,
	NewAuditLogger,
	NewGuardMetrics,
	NewTradeRepo,
	NewPriceRepo,
	NewAlertRepo,
	NewAccountRepo,
)
