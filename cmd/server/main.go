package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sanathshetty444/todoer/internal/api"
	"github.com/sanathshetty444/todoer/internal/auth"
	"github.com/sanathshetty444/todoer/internal/maintenance"
	"github.com/sanathshetty444/todoer/internal/model"
	"github.com/sanathshetty444/todoer/internal/store"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "todoer",
	})

	cfg, err := model.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("loading config", "err", err)
	}
	if cfg.Auth.JWTSecret == "" {
		logger.Fatal("auth.jwt_secret must be set (config file or TODOER_AUTH_JWT_SECRET)")
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		logger.Fatal("opening store", "err", err)
	}
	defer st.Close()

	manager := auth.NewManager(st, cfg.Auth, logger)
	server := api.NewServer(st, manager, cfg.Auth, logger)

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: server.Router(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := maintenance.New(st,
		time.Duration(cfg.Auth.CleanupIntervalMinutes)*time.Minute, logger)
	go sweeper.Run(ctx)

	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr, "db", cfg.Database.Path)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "err", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "err", err)
	}
}
