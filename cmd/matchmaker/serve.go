// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/AccelByte/octanescore-matchmaker/pkg/api"
	"github.com/AccelByte/octanescore-matchmaker/pkg/config"
	"github.com/AccelByte/octanescore-matchmaker/pkg/constants"
	"github.com/AccelByte/octanescore-matchmaker/pkg/envelope"
	"github.com/AccelByte/octanescore-matchmaker/pkg/metrics"
	"github.com/AccelByte/octanescore-matchmaker/pkg/service"
	"github.com/AccelByte/octanescore-matchmaker/pkg/store"
	"github.com/AccelByte/octanescore-matchmaker/pkg/telemetry"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the matchmaker, the http api and the event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := store.Open(cmd.Context(), cfg.DBPath)
			if err != nil {
				return err
			}
			logrus.Infof("database %s is up to date", cfg.DBPath)
			return db.Close()
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.ConfigureLogger(logrus.StandardLogger()); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := telemetry.Setup(cfg.ServiceName, cfg.ZipkinEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logrus.Warnf("failed to flush traces: %v", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	opts := service.Options{Metrics: metrics.NewMetrics(registry)}
	if cfg.PersistEnabled && cfg.DBPath != "" {
		db, err := store.Open(ctx, cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		opts.Store = db
	}

	svc := service.New(cfg, opts)
	scope := envelope.NewRootScope(ctx, "serve", "")
	if err := svc.Load(scope); err != nil {
		scope.Finish()
		return err
	}
	scope.Finish()

	hub := api.NewHub()
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewRouter(svc, hub, registry),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error { return svc.Run(groupCtx) })
	group.Go(func() error {
		hub.Run(groupCtx, svc.Events())
		return nil
	})
	group.Go(func() error {
		logrus.Infof("listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownGracePeriod)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	err = group.Wait()
	logrus.Info("matchmaker stopped")
	return err
}
