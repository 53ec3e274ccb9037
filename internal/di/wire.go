//go:build wireinject
// +build wireinject

package di

import (
	"TradePilot/pkg/config"
	"TradePilot/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,
		ProvideTracker,

		// Analysis stack
		ProvideThresholds,
		ProvideScorer,
		ProvideInferenceClient,
		ProvideCacheService,
		ProvidePipeline,

		// Exchange stack
		ProvideRateLimiter,
		ProvideExchangeHTTPClient,
		ProvideSpotExchange,
		ProvideFuturesExchange,
		ProvidePolicy,
		ProvideGate,

		// Eventing and session
		ProvideEventPublisher,
		ProvideSession,

		// Transport
		ProvideHub,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
