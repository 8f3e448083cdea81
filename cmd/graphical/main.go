// Package main implements the entry point for the graph-ical event
// core: the mutation intake, event log, timeline and notification
// services backing the workspace dashboard.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mmbrian/graph-ical-sub001/config"
	gatewayhttp "github.com/mmbrian/graph-ical-sub001/gateway/http"
	"github.com/mmbrian/graph-ical-sub001/metric"
	"github.com/mmbrian/graph-ical-sub001/natsclient"
	"github.com/mmbrian/graph-ical-sub001/notify"
	"github.com/mmbrian/graph-ical-sub001/workspace"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "graphical"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}
	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cliCfg.LogLevel != "" {
		cfg.Log.Level = cliCfg.LogLevel
	}
	if cliCfg.LogFormat != "" {
		cfg.Log.Format = cliCfg.LogFormat
	}

	logger := setupLogger(cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	slog.Info("Starting graph-ical event core",
		"version", Version,
		"build_time", BuildTime,
		"repository", cfg.Repository.Endpoint)

	registry := metric.NewRegistry()

	session, err := workspace.NewSession(cfg,
		workspace.WithLogger(logger),
		workspace.WithMetrics(registry.Metrics),
	)
	if err != nil {
		return fmt.Errorf("open workspace session: %w", err)
	}
	defer session.Close()

	ctx := context.Background()

	if cliCfg.Reconstruct {
		return reconstruct(ctx, session)
	}

	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if cfg.NATS.URL != "" {
		if err := startForwarder(signalCtx, cfg, session, logger); err != nil {
			return err
		}
	}

	server, err := gatewayhttp.NewServer(cfg.HTTP.Addr, session,
		gatewayhttp.WithLogger(logger),
		gatewayhttp.WithMetrics(registry),
	)
	if err != nil {
		return fmt.Errorf("create gateway: %w", err)
	}
	if err := server.Start(signalCtx); err != nil {
		return fmt.Errorf("start gateway: %w", err)
	}
	slog.Info("graph-ical started")

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cliCfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		slog.Error("gateway shutdown failed", "error", err)
		return err
	}
	session.Close()

	slog.Info("graph-ical shutdown complete")
	return nil
}

// reconstruct runs the one-time event log synthesis and exits.
func reconstruct(ctx context.Context, session *workspace.Session) error {
	count, err := session.Reconstructor().Run(ctx)
	if err != nil {
		return fmt.Errorf("reconstruct event log: %w", err)
	}
	slog.Info("Reconstruction complete", "events", count)
	return nil
}

// startForwarder connects to NATS and bridges refresh notifications out
// of process. A NATS outage at startup is fatal; once running, outages
// only degrade forwarding.
func startForwarder(ctx context.Context, cfg *config.Config, session *workspace.Session, logger *slog.Logger) error {
	opts := []natsclient.Option{
		natsclient.WithLogger(logger),
		natsclient.WithName(appName),
	}
	if cfg.NATS.Username != "" {
		opts = append(opts, natsclient.WithCredentials(cfg.NATS.Username, cfg.NATS.Password))
	}
	if cfg.NATS.Token != "" {
		opts = append(opts, natsclient.WithToken(cfg.NATS.Token))
	}
	if cfg.NATS.MaxReconnects != 0 {
		opts = append(opts, natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects))
	}
	if cfg.NATS.Timeout > 0 {
		opts = append(opts, natsclient.WithTimeout(cfg.NATS.Timeout))
	}

	client, err := natsclient.NewClient(cfg.NATS.URL, opts...)
	if err != nil {
		return fmt.Errorf("create NATS client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}

	forwarder := notify.NewForwarder(client, logger)
	if err := forwarder.EnsureStream(ctx); err != nil {
		return fmt.Errorf("ensure notification stream: %w", err)
	}

	go func() {
		defer client.Close()
		forwarder.Run(ctx, session.Bus())
	}()

	return nil
}
