package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bryanwahyu/sitecategory/internal/application"
	appanalysis "github.com/bryanwahyu/sitecategory/internal/application/analysis"
	apphistory "github.com/bryanwahyu/sitecategory/internal/application/history"
	"github.com/bryanwahyu/sitecategory/internal/config"
	infraai "github.com/bryanwahyu/sitecategory/internal/infra/ai"
	"github.com/bryanwahyu/sitecategory/internal/infra/crawler"
	mysqlp "github.com/bryanwahyu/sitecategory/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/sitecategory/internal/infra/db/postgres"
	"github.com/bryanwahyu/sitecategory/internal/infra/httpserver"
	"github.com/bryanwahyu/sitecategory/internal/infra/screenshot"
	minioStore "github.com/bryanwahyu/sitecategory/internal/infra/storage"

	domain "github.com/bryanwahyu/sitecategory/internal/domain/analysis"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		slog.Error("config load error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	// connect history store
	var (
		db   *sql.DB
		repo domain.Repository
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err == nil {
			err = mysqlp.EnsureSchema(ctx, db)
		}
		if err != nil {
			slog.Error("mysql init error", "error", err)
			os.Exit(1)
		}
		repo = mysqlp.NewHistoryRepository(db)
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err == nil {
			err = postgresp.EnsureSchema(ctx, db)
		}
		if err != nil {
			slog.Error("postgres init error", "error", err)
			os.Exit(1)
		}
		repo = postgresp.NewHistoryRepository(db)
	default:
		slog.Error("unknown database driver", "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer db.Close()

	// init ai client
	aiClient, err := infraai.NewClient(cfg.AI.Provider, cfg.AI.APIKey, cfg.AI.Model, cfg.Crawler.MaxContentChars)
	if err != nil {
		slog.Error("ai client init error", "error", err)
		os.Exit(1)
	}

	// init services
	analysisSvc := &appanalysis.Service{
		Repo:          repo,
		Fetcher:       crawler.New(cfg.CrawlTimeout()),
		AI:            aiClient,
		Clock:         application.SystemClock{},
		CacheWindow:   cfg.CacheWindow(),
		MaxConcurrent: cfg.Batch.MaxConcurrent,
	}
	historySvc := &apphistory.Service{Repo: repo}

	opts := httpserver.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		DB:             db,
	}

	// screenshots are optional; they need object storage to land somewhere
	if cfg.Minio.Endpoint != "" {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			slog.Error("minio init error", "error", err)
			os.Exit(1)
		}
		opts.Shots = store
		opts.Capturer = screenshot.New(30 * time.Second)
	}

	mux := httpserver.NewRouter(analysisSvc, historySvc, opts)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // batch analyses can take a while
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	slog.Info("shutting down server")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
