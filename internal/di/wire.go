//go:build wireinject
// +build wireinject

package di

import (
	"ValueCheck/pkg/config"
	"ValueCheck/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Storage
		ProvideStore,
		ProvideCaches,
		ProvideQuotaGate,

		// Upstream clients
		ProvideSECClient,
		ProvideFMPClient,
		ProvideYahooClient,
		ProvideTickerIndex,
		ProvideFactsSource,
		ProvideQuotes,
		ProvideNormalizer,

		// Sinks
		ProvideRecordPublisher,
		ProvideSnapshotStore,

		// Use cases
		ProvideRecordBuilder,
		ProvideStockAssembler,
		ProvideTrending,
		ProvideSearch,

		// HTTP and application server
		ProvideStockHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
