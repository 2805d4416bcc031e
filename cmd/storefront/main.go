package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"geoshop/storefront/internal/admin"
	"geoshop/storefront/internal/auth"
	"geoshop/storefront/internal/cache"
	"geoshop/storefront/internal/cart"
	"geoshop/storefront/internal/config"
	"geoshop/storefront/internal/database"
	"geoshop/storefront/internal/handlers"
	"geoshop/storefront/internal/jobs"
	"geoshop/storefront/internal/kv"
	"geoshop/storefront/internal/live"
	"geoshop/storefront/internal/log"
	"geoshop/storefront/internal/models"
	"geoshop/storefront/internal/realtime"
	"geoshop/storefront/internal/repository"
	"geoshop/storefront/internal/retry"
	"geoshop/storefront/internal/server"
	"geoshop/storefront/internal/session"
	"geoshop/storefront/internal/shop"
	"geoshop/storefront/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := log.New(cfg.Environment)

	ctx := context.Background()

	dbPool, err := database.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect postgres")
	}

	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	objectStore, err := storage.NewObjectStore(cfg.Storage)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to init object store")
	}
	if err := objectStore.EnsureBucket(ctx); err != nil {
		logger.Warn().Err(err).Msg("ensure bucket failed")
	}

	fileStore, err := kv.NewFileStore(cfg.Local.Dir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open local store")
	}

	publisher := realtime.NewPublisher(redisClient, log.Component(logger, "realtime"))
	feed := realtime.NewFeed(redisClient, log.Component(logger, "realtime"))

	profiles := repository.NewProfileRepository(dbPool)
	authSessions := repository.NewSessionRepository(dbPool)
	products := repository.NewProductRepository(dbPool, publisher)
	orders := repository.NewOrderRepository(dbPool, publisher)

	authClient := auth.NewClient(profiles, authSessions, redisClient, fileStore, cfg, log.Component(logger, "auth"))

	retryOpts := retry.Options{Retries: cfg.Retry.Retries, Delay: cfg.Retry.Delay}

	sessionManager := session.NewManager(authClient, profiles, retryOpts, log.Component(logger, "session"))
	sessionManager.Start(ctx)

	cartStorage := cart.NewStorage(fileStore)
	shopService := shop.NewService(cartStorage, orders, retryOpts, log.Component(logger, "shop"))

	reconciler := live.NewReconciler(products, orders, feed, cfg.Live.NoticeTTL, log.Component(logger, "live"))
	if err := reconciler.Start(ctx, ""); err != nil {
		logger.Warn().Err(err).Msg("change feed unavailable, serving cached reads")
	}

	// Follow the signed-in identity: the order feed and the cart slot both
	// track whoever the session manager currently reports.
	unsubscribe := authClient.OnAuthStateChange(func(event string, user *models.Identity) {
		switch event {
		case auth.EventSignedIn, auth.EventTokenRefreshed:
			if user != nil {
				if err := reconciler.Start(ctx, user.ID); err != nil {
					logger.Warn().Err(err).Str("user_id", user.ID).Msg("restart change feed failed")
				}
			}
		case auth.EventSignedOut:
			shopService.Reset()
			if err := reconciler.Start(ctx, ""); err != nil {
				logger.Warn().Err(err).Msg("restart change feed failed")
			}
		}
	})
	defer unsubscribe()

	adminService := admin.NewService(reconciler, products, orders, objectStore, log.Component(logger, "admin"))

	handlerSet := handlers.NewHandlerSet(logger, cfg, dbPool, redisClient, sessionManager, shopService, reconciler, authClient, adminService)
	httpServer := server.NewHTTPServer(cfg, logger, handlerSet)

	scheduler := jobs.NewScheduler(cfg.Live.ResyncSpec, reconciler.Resync, log.Component(logger, "jobs"))
	if err := scheduler.Start(); err != nil {
		logger.Error().Err(err).Msg("scheduler start failed")
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	waitForShutdown(logger, httpServer, scheduler, sessionManager, reconciler, dbPool, redisClient)
}

func waitForShutdown(
	logger zerolog.Logger,
	srv *server.HTTPServer,
	scheduler *jobs.Scheduler,
	sessions *session.Manager,
	reconciler *live.Reconciler,
	db *pgxpool.Pool,
	redisClient *redis.Client,
) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error().Err(err).Msg("forced shutdown failed")
		}
	}

	if scheduler != nil {
		cancel := scheduler.Stop()
		cancel()
	}

	reconciler.Close()
	sessions.Close()

	db.Close()
	if err := redisClient.Close(); err != nil {
		logger.Error().Err(err).Msg("redis close error")
	}

	logger.Info().Msg("server exited cleanly")
}
