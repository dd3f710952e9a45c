package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/vorgateway/gateway/pkg/addressspace"
	"github.com/vorgateway/gateway/pkg/adminapi"
	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/credentials"
	"github.com/vorgateway/gateway/pkg/mappedstore"
)

// runAdmin serves the administrative HTTP surface standalone, against the
// same credential, policy, and mapped-request store files the Interface
// and Intermediate VoR partitions use. The address space it reports is
// this process's own — empty until wired to a shared projector in a
// deployment that colocates it with a running CPC partition.
func runAdmin(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("admin", flag.ContinueOnError)
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

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	credStore, err := credentials.NewStore(ctx, cfg.CredentialsDBPath, cfg.CredentialPoolSize)
	if err != nil {
		fmt.Fprintf(stderr, "gatewayctl: admin: credentials: %v\n", err)
		return 1
	}
	defer credStore.Close()

	policy, err := authz.LoadPolicy(cfg.RBACPolicyPath)
	if err != nil {
		fmt.Fprintf(stderr, "gatewayctl: admin: rbac policy: %v\n", err)
		return 1
	}
	engine := authz.NewEngine(policy)

	store, err := mappedstore.Open(ctx, cfg.MappedStoreDBPath)
	if err != nil {
		fmt.Fprintf(stderr, "gatewayctl: admin: mapped store: %v\n", err)
		return 1
	}
	defer store.Close()

	if cfg.AdminAPIJWTSecret == "" {
		fmt.Fprintln(stderr, "gatewayctl: admin: VORGW_ADMIN_API_JWT_SECRET is required")
		return 1
	}

	handler := adminapi.NewServer(adminapi.Deps{
		Credentials:  credStore,
		Authz:        engine,
		AddressSpace: addressspace.NewProjector(),
		MappedStore:  store,
		Tokens:       adminapi.NewTokenManager(cfg.AdminAPIJWTSecret),
	})

	addr := cfg.AdminAPIAddr
	if addr == "" {
		addr = ":8090"
	}
	server := &http.Server{Addr: addr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("admin api listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintf(stderr, "gatewayctl: admin: %v\n", err)
		return 1
	}
	return 0
}
