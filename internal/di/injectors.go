//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"
	"wayfarer/internal"
	"wayfarer/internal/controllers"
	"wayfarer/internal/generation"
	"wayfarer/internal/journal"
	"wayfarer/internal/models"
	"wayfarer/internal/providers"
	"wayfarer/internal/services"
	"wayfarer/internal/storage"
	"wayfarer/internal/structures"
	"wayfarer/internal/tasks"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		models.NewSessionStore,
		provideDigestStore,
		providers.NewMetricsProvider,
		providers.NewInstrumentedCacheProvider,

		storage.NewZstdCompressor,
		storage.NewDocumentStoreProvider,
		generation.NewGeneratorProvider,
		tasks.NewTaskQueue,
		journal.NewDailySummaryGenerator,
		journal.NewAggregator,
		services.NewProfileService,
		services.NewChatService,
		services.NewJanitor,
		controllers.NewApiController,
		controllers.NewHealthController,
		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
