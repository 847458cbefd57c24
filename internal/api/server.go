package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/salsipuedes/water-metering-api/internal/api/handlers"
	"github.com/salsipuedes/water-metering-api/internal/api/middleware"
	"github.com/salsipuedes/water-metering-api/internal/config"
)

// Server wraps the HTTP server and its router
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer builds the router and the HTTP server around it
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	mediciones *handlers.MedicionesHandler,
	estados *handlers.EstadosHandler,
	authH *handlers.AuthHandler,
	health *handlers.HealthHandler,
) *Server {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Metrics)
	r.Use(middleware.Logging(logger))

	r.Route("/mediciones", func(r chi.Router) {
		r.Get("/", mediciones.Listar)
		r.Post("/nueva", mediciones.CrearLote)
		r.Post("/upload", mediciones.Upload)
		r.Post("/importar", mediciones.Importar)
		r.Get("/estados", estados.Listar)
		r.Get("/imagen/{nroCuenta}/{fecha}", mediciones.Imagenes)
		r.Get("/export", mediciones.Export)
		r.Get("/login", authH.Login)
		// The installed field app requests this misspelled path
		r.Get("/logut", authH.Logout)
	})

	// Stored meter photos are served straight from disk
	fileServer := http.StripPrefix("/storage/", http.FileServer(http.Dir(cfg.Storage.DataDir)))
	r.Handle("/storage/*", fileServer)

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/health/live", health.Live)
	r.Get("/health/ready", health.Ready)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.ServicePort),
			Handler:      r,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
		},
		logger: logger,
	}
}

// Register starts the server on fx startup and drains it on shutdown
func Register(lc fx.Lifecycle, s *Server, cfg *config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.logger.Info("http server starting", zap.String("addr", s.httpServer.Addr))
			go func() {
				if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("http server failed", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.HTTP.ShutdownTimeout)
			defer cancel()
			s.logger.Info("http server draining")
			return s.httpServer.Shutdown(shutdownCtx)
		},
	})
}
