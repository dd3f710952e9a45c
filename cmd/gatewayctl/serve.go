package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/telemetry"
)

func runServe(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("serve", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	overlay := cmd.String("config", "", "path to a JSON configuration overlay")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*overlay)
	if err != nil {
		fmt.Fprintf(stderr, "gatewayctl: config: %v\n", err)
		return 1
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	telemetryCfg := telemetry.DefaultConfig(string(cfg.PartitionRole))
	provider, err := telemetry.New(ctx, telemetryCfg)
	if err != nil {
		fmt.Fprintf(stderr, "gatewayctl: telemetry: %v\n", err)
		return 1
	}
	defer provider.Shutdown(context.Background())

	logger.Info("gatewayctl starting", "partition_role", cfg.PartitionRole)

	switch cfg.PartitionRole {
	case config.RolePartitionCPC:
		err = runCPCPartition(ctx, cfg, provider, logger)
	case config.RolePartitionInterface:
		err = runInterfacePartition(ctx, cfg, provider, logger)
	case config.RolePartitionVoR:
		err = runVoRPartition(ctx, cfg, provider, logger)
	default:
		err = fmt.Errorf("unknown partition role %q", cfg.PartitionRole)
	}
	if err != nil {
		fmt.Fprintf(stderr, "gatewayctl: %v\n", err)
		return 1
	}

	logger.Info("gatewayctl shut down cleanly")
	return 0
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
