package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/openmetagraph/metacat/internal/api"
	"github.com/openmetagraph/metacat/internal/cache"
	"github.com/openmetagraph/metacat/internal/catalog"
	"github.com/openmetagraph/metacat/internal/config"
	"github.com/openmetagraph/metacat/internal/db"
	"github.com/openmetagraph/metacat/internal/export"
	"github.com/openmetagraph/metacat/internal/middleware"
	"github.com/openmetagraph/metacat/internal/repository/postgres"
	"github.com/openmetagraph/metacat/internal/types"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	var migrationsPath string
	var skipMigrations bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the catalog HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(migrationsPath, skipMigrations)
		},
	}

	cmd.Flags().StringVar(&migrationsPath, "migrations", "./migrations", "directory containing migration files")
	cmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply migrations on startup")
	return cmd
}

func runServer(migrationsPath string, skipMigrations bool) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if !skipMigrations {
		if err := db.RunMigrations(cfg.Database, migrationsPath); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Info("connected to database",
		zap.String("host", cfg.Database.Host),
		zap.String("dbname", cfg.Database.DBName))

	var elementCache *cache.ElementCache
	if cfg.Redis.Addr != "" {
		elementCache, err = cache.New(cache.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer elementCache.Close()
		logger.Info("element cache enabled", zap.String("addr", cfg.Redis.Addr))
	}

	elements := postgres.NewElementRepository(conn.Pool)
	catalogService := catalog.NewService(catalog.ServiceConfig{
		Registry:        types.NewRegistry(),
		Elements:        elements,
		Relationships:   postgres.NewRelationshipRepository(conn.Pool),
		Classifications: postgres.NewClassificationRepository(conn.Pool),
		VendorProps:     postgres.NewVendorPropertyRepository(conn.Pool),
		Zones:           cfg.Zones,
		Cache:           elementCache,
		Logger:          logger,
	})

	router := chi.NewRouter()
	router.Use(middleware.Logging(logger))
	router.Use(middleware.ElementLoader(elements))

	router.Route("/api", func(r chi.Router) {
		api.NewServer(catalogService, logger).Routes(r)
		r.Method(http.MethodGet, "/export/elements",
			export.NewHTTPHandler(export.NewService(catalogService, logger)))
	})
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-User-ID"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: corsHandler,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return server.Shutdown(shutdownCtx)
}
