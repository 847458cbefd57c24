package main

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/api"
	"github.com/salsipuedes/water-metering-api/internal/api/auth"
	"github.com/salsipuedes/water-metering-api/internal/api/handlers"
	"github.com/salsipuedes/water-metering-api/internal/config"
	"github.com/salsipuedes/water-metering-api/internal/db"
	"github.com/salsipuedes/water-metering-api/internal/mq"
	"github.com/salsipuedes/water-metering-api/internal/repository"
	"github.com/salsipuedes/water-metering-api/internal/service"
	"github.com/salsipuedes/water-metering-api/internal/storage/photostore"
)

// ProvideDBPool creates a new database pool instance
func ProvideDBPool(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*db.Pool, error) {
	return db.NewPool(lc, logger, cfg.Database.URL)
}

// ProvideRepository creates a new repository instance
func ProvideRepository(pool *db.Pool) *repository.Repository {
	return repository.NewRepository(pool)
}

// ProvidePhotoStore creates the on-disk photo store
func ProvidePhotoStore(cfg *config.Config) (*photostore.PhotoStore, error) {
	return photostore.New(cfg.Storage.DataDir, cfg.Storage.PublicBaseURL)
}

// ProvideSessionManager creates the session cookie manager
func ProvideSessionManager(cfg *config.Config) (*auth.SessionManager, error) {
	return auth.NewSessionManager(cfg.Auth.SessionKey, cfg.Auth.SessionTTL)
}

// ProvideMQConnection creates a new RabbitMQ connection instance
func ProvideMQConnection(lc fx.Lifecycle, logger *zap.Logger, cfg *config.Config) (*mq.Connection, error) {
	return mq.NewConnection(lc, logger, cfg.RabbitMQ.URL)
}

// ProvidePublisher creates a new billing event publisher instance
func ProvidePublisher(conn *mq.Connection, cfg *config.Config, logger *zap.Logger) (*mq.Publisher, error) {
	return mq.NewPublisher(conn, logger, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
}

// ProvideIngestService creates the batch ingest service
func ProvideIngestService(repo *repository.Repository, publisher *mq.Publisher, logger *zap.Logger) *service.IngestService {
	return service.NewIngestService(repo, publisher, logger)
}

// ProvidePhotoService creates the photo association service
func ProvidePhotoService(store *photostore.PhotoStore, repo *repository.Repository, logger *zap.Logger) *service.PhotoService {
	return service.NewPhotoService(store, repo, logger)
}

// ProvideExportService creates the billing export service
func ProvideExportService(repo *repository.Repository, cfg *config.Config, logger *zap.Logger) *service.ExportService {
	return service.NewExportService(repo, cfg.Storage.ExportDir, logger)
}

// ProvideMedicionesHandler creates the reading routes handler
func ProvideMedicionesHandler(
	repo *repository.Repository,
	ingest *service.IngestService,
	photos *service.PhotoService,
	export *service.ExportService,
	logger *zap.Logger,
) *handlers.MedicionesHandler {
	return handlers.NewMedicionesHandler(repo, ingest, photos, export, logger)
}

// ProvideEstadosHandler creates the estados handler
func ProvideEstadosHandler(repo *repository.Repository, logger *zap.Logger) *handlers.EstadosHandler {
	return handlers.NewEstadosHandler(repo, logger)
}

// ProvideAuthHandler creates the login/logout handler
func ProvideAuthHandler(repo *repository.Repository, sessions *auth.SessionManager, logger *zap.Logger) *handlers.AuthHandler {
	return handlers.NewAuthHandler(repo, sessions, logger)
}

// ProvideHealthHandler creates the health probe handler
func ProvideHealthHandler(pool *db.Pool, logger *zap.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(pool, logger)
}

// ProvideServer builds the HTTP server
func ProvideServer(
	cfg *config.Config,
	logger *zap.Logger,
	mediciones *handlers.MedicionesHandler,
	estados *handlers.EstadosHandler,
	authH *handlers.AuthHandler,
	health *handlers.HealthHandler,
) *api.Server {
	return api.NewServer(cfg, logger, mediciones, estados, authH, health)
}

// seedAdminUser makes sure the configured admin account exists once the
// database is up
func seedAdminUser(lc fx.Lifecycle, repo *repository.Repository, cfg *config.Config, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := repo.EnsureAdminUsuario(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
				return err
			}
			if cfg.Auth.AdminEmail != "" {
				logger.Info("admin account ensured", zap.String("email", cfg.Auth.AdminEmail))
			}
			return nil
		},
	})
}
