// Package service exposes the HTTP-facing request handlers. Each service
// translates transport payloads into usecase calls and shapes the replies.
package service

import "github.com/google/wire"

// ProviderSet is service providers.
var ProviderSet = wire.NewSet(
	NewTradeService,
	NewMarketService,
	NewAlertService,
	NewAccountService,
	NewGuardService,
)
