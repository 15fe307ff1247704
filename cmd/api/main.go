package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"studiosite/internal/cache"
	"studiosite/internal/config"
	"studiosite/internal/db"
	"studiosite/internal/httpserver"
	"studiosite/internal/media"
	"studiosite/internal/notify"
	custrepo "studiosite/internal/repository/customer"
	dlrepo "studiosite/internal/repository/download"
	mediarepo "studiosite/internal/repository/media"
	projrepo "studiosite/internal/repository/project"
	quoterepo "studiosite/internal/repository/quote"
	subrepo "studiosite/internal/repository/subscriber"
	tokenrepo "studiosite/internal/repository/token"
	userrepo "studiosite/internal/repository/user"
	authsvc "studiosite/internal/service/auth"
	customersvc "studiosite/internal/service/customer"
	dashboardsvc "studiosite/internal/service/dashboard"
	downloadsvc "studiosite/internal/service/download"
	projectsvc "studiosite/internal/service/project"
	quotesvc "studiosite/internal/service/quote"
	subscribersvc "studiosite/internal/service/subscriber"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	defer redisClient.Close()

	var store media.BlobStore
	if cfg.SupabaseURL != "" {
		store = media.NewSupabaseStore(cfg.SupabaseURL, cfg.SupabaseKey, cfg.StorageBucket)
	} else {
		logger.Printf("SUPABASE_URL not set, using in-memory blob store")
		store = media.NewMemoryStore(cfg.PublicFileHost)
	}
	mediaService := media.New(mediarepo.NewPostgres(dbpool, logger), store, logger)

	var notifier notify.Notifier
	if cfg.SMTPAddr != "" && cfg.NotifyEmail != "" {
		notifier = notify.SMTPNotifier{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, To: cfg.NotifyEmail}
	} else {
		notifier = notify.LogNotifier{Logger: logger}
	}

	customerRepo := custrepo.NewPostgres(dbpool, logger)
	projectRepo := projrepo.NewPostgres(dbpool, logger)
	downloadRepo := dlrepo.NewPostgres(dbpool, logger)
	subscriberRepo := subrepo.NewPostgres(dbpool, logger)
	quoteRepo := quoterepo.NewPostgres(dbpool, logger)

	projectService := projectsvc.New(projectRepo, customerRepo, mediaService, logger)
	customerService := customersvc.New(customerRepo, projectService, logger)
	downloadService := downloadsvc.New(downloadRepo, mediaService, logger)
	subscriberService := subscribersvc.New(subscriberRepo, logger)
	quoteService := quotesvc.New(quoteRepo, mediaService, notifier, logger)
	authService := authsvc.New(userrepo.NewPostgres(dbpool), tokenrepo.NewPostgres(dbpool), cfg.AdminTokenTTL, logger)
	dashboardService := dashboardsvc.New(
		customerService, projectService, downloadService, subscriberService, quoteService,
		cache.New(redisClient, logger), cfg.DashboardTTL, logger,
	)

	srv := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:        authService,
		Customers:   customerService,
		Projects:    projectService,
		Downloads:   downloadService,
		Subscribers: subscriberService,
		Quotes:      quoteService,
		Dashboard:   dashboardService,
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
