package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"p9e.in/sitebook/config"
	"p9e.in/sitebook/handlers"
	"p9e.in/sitebook/logger"
	"p9e.in/sitebook/middleware"
	"p9e.in/sitebook/pkg/blob"
	"p9e.in/sitebook/pkg/notify"
	"p9e.in/sitebook/pkg/reconcile"
	"p9e.in/sitebook/pkg/store"
	"p9e.in/sitebook/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version info and exit")
	configPath := flag.String("config", "", "Path to a YAML config file")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env, cfg.Log)
	log.Info("starting", "version", Version, "env", cfg.App.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.Connect(cfg)
	if err != nil {
		log.Error("database setup failed", "err", err)
		os.Exit(1)
	}
	log.Info("db connected, migrations applied")

	blobs, err := blob.New(ctx, cfg.Blob)
	if err != nil {
		log.Error("blob store setup failed", "err", err)
		os.Exit(1)
	}
	defer blobs.Close()

	feed := notify.NewFeed(cfg.Notify.FeedSize)
	sinks := []notify.Sink{feed}
	if cfg.Telegram.Token != "" {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, log)
		if err != nil {
			log.Warn("telegram notifications disabled", "err", err)
		} else {
			go tg.Run(ctx)
			sinks = append(sinks, tg)
		}
	}

	stores := store.New(db, store.SequenceCodeGenerator{DB: db}, log)
	if err := stores.RefreshAll(ctx); err != nil {
		log.Warn("initial cache load failed", "err", err)
	}

	deps := handlers.Deps{
		Stores:     stores,
		Reconciler: reconcile.New(stores.MaterialTracking, log),
		Blobs:      blobs,
		Notifier:   notify.NewHub(log, sinks...),
		Feed:       feed,
		Log:        log,
		Location:   cfg.Location(),
		MaxFiles:   cfg.Blob.MaxFiles,
	}
	opts := routes.Options{Metrics: cfg.Metrics.Enabled, JWTSecret: cfg.Auth.JWTSecret}
	if blobs.Driver() == "local" {
		opts.UploadDir = cfg.Blob.Dir
	}

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           middleware.CORS(routes.RegisterRoutes(deps, opts)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			stop()
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("graceful shutdown complete")
}
