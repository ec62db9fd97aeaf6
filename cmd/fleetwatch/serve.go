package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantkit/fleetwatch/internal/config"
	"github.com/quantkit/fleetwatch/internal/eventbridge"
	"github.com/quantkit/fleetwatch/internal/history"
	"github.com/quantkit/fleetwatch/internal/history/clickhouse"
	"github.com/quantkit/fleetwatch/internal/logger"
	"github.com/quantkit/fleetwatch/internal/metrics"
	"github.com/quantkit/fleetwatch/internal/notify"
	"github.com/quantkit/fleetwatch/internal/store/factory"
	"github.com/quantkit/fleetwatch/internal/supervisor"
)

func runServe(configPath string) error {
	log := slog.New(logger.NewColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(log)

	fc, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", configPath, err)
	}

	st, err := factory.New(fc.Store)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() { _ = st.Close() }()
	if err := st.EnsureSchema(context.Background()); err != nil {
		return fmt.Errorf("ensure store schema: %w", err)
	}

	sink := notify.Sink(notify.NewSlog(log))
	if fc.History.ClickHouseAddr != "" {
		ch, err := clickhouse.New(fc.History.ClickHouseAddr, fc.History.Database, fc.History.Table)
		if err != nil {
			return fmt.Errorf("open history sink: %w", err)
		}
		defer func() { _ = ch.Close() }()
		sink = notify.Multi(sink, history.NewRecorder(ch))
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	sup := supervisor.New(supervisor.Options{
		Store:  st,
		Sink:   sink,
		Dial:   eventbridge.RedisDialer,
		Logger: log,
	})

	// Bootstrap apps from the config file land on top of persisted ones.
	for _, e := range fc.Apps {
		cfg, err := e.AppConfig(fc.Log)
		if err != nil {
			return fmt.Errorf("bad app entry: %w", err)
		}
		if err := sup.Apply(cfg, e.Group); err != nil {
			return fmt.Errorf("apply app %s: %w", cfg.ID, err)
		}
	}

	if err := sup.Run(); err != nil {
		return fmt.Errorf("start supervisor: %w", err)
	}
	defer sup.Shutdown()
	log.Info("supervisor running", "apps", len(sup.GetAll()))

	var metricsSrv *http.Server
	if fc.Metrics.Listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{
			Addr:              fc.Metrics.Listen,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server failed", "error", err)
			}
		}()
		log.Info("metrics listening", "addr", fc.Metrics.Listen)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	if metricsSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(ctx)
	}
	return nil
}
