package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/school_bakery/internal/config"
	"github.com/Skotchmaster/school_bakery/internal/events"
	"github.com/Skotchmaster/school_bakery/internal/httpserver"
	"github.com/Skotchmaster/school_bakery/internal/models"
	"github.com/Skotchmaster/school_bakery/internal/repo"
	"github.com/Skotchmaster/school_bakery/internal/search"
	"github.com/Skotchmaster/school_bakery/internal/seed"
	"github.com/Skotchmaster/school_bakery/internal/service"
	pkgdb "github.com/Skotchmaster/school_bakery/pkg/db"
	"github.com/Skotchmaster/school_bakery/pkg/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DB.URL, pkgdb.PoolOptions{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.DB.ConnMaxIdleTime,
	})
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled() {
		producer, err := events.NewProducer(cfg.Kafka.Brokers)
		if err != nil {
			log.Fatalf("kafka: %v", err)
		}
		publisher = producer
		logger.Info("kafka_enabled", "brokers", cfg.Kafka.Brokers)
	}

	r := &repo.GormRepo{DB: db}
	authSvc := &service.AuthService{Repo: r, Secret: []byte(cfg.JWT.Secret), TokenTTL: cfg.JWT.TokenTTL, Events: publisher}
	catalog := &service.CatalogService{Repo: r, Events: publisher}
	orders := &service.OrderService{Repo: r, Events: publisher}
	stats := &service.StatsService{Repo: r}

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	bootCtx = logging.IntoContext(bootCtx, logger)
	bootstrap(bootCtx, cfg, r, authSvc, catalog, logger)
	bootCancel()

	e := httpserver.New(logger, cfg.Server.CORSOrigins)
	httpserver.Register(e, &httpserver.Deps{
		Auth:    &httpserver.AuthHTTP{Svc: authSvc},
		Catalog: &httpserver.CatalogHTTP{Svc: catalog},
		Orders:  &httpserver.OrderHTTP{Svc: orders},
		Admin:   &httpserver.AdminHTTP{Stats: stats, Catalog: catalog},
		Authn:   authSvc,
		DB:      db,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           e,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("kafka_close_failed", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Warn("db_close_failed", "error", err)
	}

	logger.Info("server_stopped")
}

// bootstrap seeds the catalog, creates the admin account and attaches the
// search index. None of it is fatal.
func bootstrap(ctx context.Context, cfg *config.Config, r *repo.GormRepo, authSvc *service.AuthService, catalog *service.CatalogService, logger *slog.Logger) {
	if cfg.Seed.Catalog {
		n, err := seed.Products(ctx, r)
		if err != nil {
			logger.Error("seed_catalog_failed", "error", err)
		} else if n > 0 {
			logger.Info("seed_catalog", "products", n)
		}
	}

	if cfg.Seed.AdminUsername != "" && cfg.Seed.AdminPassword != "" {
		created, err := authSvc.EnsureAdmin(ctx, cfg.Seed.AdminUsername, cfg.Seed.AdminPassword, cfg.Seed.AdminFullName)
		if err != nil {
			logger.Error("ensure_admin_failed", "error", err)
		} else if created {
			logger.Info("admin_created", "username", cfg.Seed.AdminUsername)
		}
	}

	if !cfg.Search.Enabled() {
		return
	}
	client, err := search.NewClient(search.Config{URL: cfg.Search.URL, User: cfg.Search.User, Password: cfg.Search.Password})
	if err == nil {
		err = search.Ping(ctx, client)
	}
	if err != nil {
		logger.Warn("search_disabled", "reason", "elasticsearch unavailable", "error", err)
		return
	}

	idx := &search.ESIndex{ES: client, Index: cfg.Search.Index}
	catalog.Index = idx

	products, err := r.ListProducts(ctx, repo.ProductFilter{})
	if err != nil {
		logger.Warn("reindex_failed", "error", err)
		return
	}
	n, err := search.Reindex(ctx, idx, products)
	if err != nil {
		logger.Warn("reindex_failed", "indexed", n, "error", err)
		return
	}
	logger.Info("reindex_done", "indexed", n)
}
