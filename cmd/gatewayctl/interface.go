package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/vorgateway/gateway/pkg/addressspace"
	"github.com/vorgateway/gateway/pkg/adminapi"
	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/credentials"
	"github.com/vorgateway/gateway/pkg/feedback"
	"github.com/vorgateway/gateway/pkg/mappedstore"
	"github.com/vorgateway/gateway/pkg/mapping"
	"github.com/vorgateway/gateway/pkg/requestqueue"
	"github.com/vorgateway/gateway/pkg/snapshotcache"
	"github.com/vorgateway/gateway/pkg/submission"
	"github.com/vorgateway/gateway/pkg/telemetry"
	"github.com/vorgateway/gateway/pkg/verification"
)

const defaultWriteAction = "write"

// runInterfacePartition drives the authorization -> verification -> mapping
// pipeline: every request popped off the shared queue is checked against
// the RBAC policy, run through its verification rule set, mapped to its
// affected endpoints, and persisted to the mapped-request store for the
// Intermediate VoR partition to pull, with a feedback record emitted at
// every stage.
func runInterfacePartition(ctx context.Context, cfg *config.Config, telemetryProvider *telemetry.Provider, logger *slog.Logger) error {
	credStore, err := credentials.NewStore(ctx, cfg.CredentialsDBPath, cfg.CredentialPoolSize)
	if err != nil {
		return fmt.Errorf("interface: credentials: %w", err)
	}
	defer credStore.Close()

	policy, err := authz.LoadPolicy(cfg.RBACPolicyPath)
	if err != nil {
		return fmt.Errorf("interface: rbac policy: %w", err)
	}
	engine := authz.NewEngine(policy)

	rules, err := verification.LoadRuleSet(cfg.VerificationRuleSetPath)
	if err != nil {
		return fmt.Errorf("interface: verification rules: %w", err)
	}
	verifier := verification.NewVerifier(rules)

	ruleSets, err := mapping.LoadRuleSets(cfg.MappingRuleSetPath)
	if err != nil {
		return fmt.Errorf("interface: mapping rules: %w", err)
	}
	mapper := mapping.NewMapper(ruleSets)

	store, err := mappedstore.Open(ctx, cfg.MappedStoreDBPath)
	if err != nil {
		return fmt.Errorf("interface: mapped store: %w", err)
	}
	defer store.Close()

	queue, err := openRequestQueue(cfg)
	if err != nil {
		return fmt.Errorf("interface: %w", err)
	}

	sink := feedback.NewMultiSink(buildFeedbackSinks(ctx, cfg, logger), telemetryProvider.Tracer(), logger)
	defer sink.Stop()

	handler := func(ctx context.Context, req contracts.Request) {
		processRequest(ctx, req, engine, verifier, mapper, store, sink, logger)
	}
	notifier := requestqueue.NewNotifier(queue, handler)

	// The Interface partition republishes the field snapshot it consumes
	// from C2 as a structured address space (C3) for operator clients: one
	// live projector fed by both the structured and register producer
	// legs, reconciled continuously in the background and served read-only
	// over the admin API.
	liveSpace := addressspace.NewProjector()
	structuredSlot, err := openNamedSnapshotSlot(cfg, slotSuffixStructuredInterface)
	if err != nil {
		return fmt.Errorf("interface: %w", err)
	}
	registerSlot, err := openNamedSnapshotSlot(cfg, slotSuffixRegisterInterface)
	if err != nil {
		return fmt.Errorf("interface: %w", err)
	}
	go reconcileSnapshotSlot(ctx, "structured", structuredSlot, liveSpace, logger)
	go reconcileSnapshotSlot(ctx, "register", registerSlot, liveSpace, logger)

	submissionServer := submission.NewServer(credStore, engine, queue, sink)
	httpServer := &http.Server{Addr: cfg.SubmissionAPIAddr, Handler: submission.NewHTTPHandler(submissionServer)}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("interface: submission API failed", "error", err)
		}
	}()

	var adminServer *http.Server
	if cfg.AdminAPIJWTSecret == "" {
		logger.Warn("interface: VORGW_ADMIN_API_JWT_SECRET unset, operator address-space API disabled")
	} else {
		adminHandler := adminapi.NewServer(adminapi.Deps{
			Credentials:  credStore,
			Authz:        engine,
			AddressSpace: liveSpace,
			MappedStore:  store,
			Tokens:       adminapi.NewTokenManager(cfg.AdminAPIJWTSecret),
		})
		addr := cfg.AdminAPIAddr
		if addr == "" {
			addr = ":8090"
		}
		adminServer = &http.Server{Addr: addr, Handler: adminHandler}
		go func() {
			if err := adminServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("interface: admin API failed", "error", err)
			}
		}()
		logger.Info("interface: operator address-space API listening", "addr", addr)
	}

	logger.Info("interface partition ready", "submission_api_addr", cfg.SubmissionAPIAddr)
	go notifier.Run(ctx)
	<-ctx.Done()
	notifier.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if adminServer != nil {
		_ = adminServer.Shutdown(shutdownCtx)
	}
	return httpServer.Shutdown(shutdownCtx)
}

// reconcileSnapshotSlot consumes driverName's Interface-leg slot until ctx
// is done, folding each new snapshot into space via Reconcile. A slot read
// error (connection loss on a Redis-backed slot) is logged and the read is
// retried.
func reconcileSnapshotSlot(ctx context.Context, driverName string, slot snapshotcache.Slot, space *addressspace.Projector, logger *slog.Logger) {
	cursor := newSlotCursor(slot)
	for {
		snap, err := cursor.next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Error("interface: snapshot slot read failed", "driver", driverName, "error", err)
			continue
		}
		added, updated := space.Reconcile(snap)
		logger.Debug("interface: address space reconciled", "driver", driverName, "added", len(added), "updated", len(updated))
	}
}

func processRequest(
	ctx context.Context,
	req contracts.Request,
	engine *authz.Engine,
	verifier *verification.Verifier,
	mapper *mapping.Mapper,
	store *mappedstore.Store,
	sink *feedback.MultiSink,
	logger *slog.Logger,
) {
	allowed, err := engine.Authorize(ctx, req.IssuerID, req.Parameter, defaultWriteAction)
	if err != nil || !allowed {
		emit(ctx, sink, contracts.FeedbackRecord{
			Stage: contracts.StageAuthz, RequestID: req.RequestID, IssuerID: req.IssuerID,
			Priority: req.Priority, Result: "Authorization denied", Timestamp: time.Now(),
		}, logger)
		return
	}

	verified, record, err := verifier.Verify(req)
	emit(ctx, sink, record, logger)
	if err != nil || !verified {
		return
	}

	mapped, mapRecord, err := mapper.Map(req)
	emit(ctx, sink, mapRecord, logger)
	if err != nil {
		return
	}

	if err := store.InsertOrReplace(ctx, mapped, joinDescriptions(req.Descriptions), ""); err != nil {
		logger.Error("interface: persist mapped request failed", "request_id", req.RequestID, "error", err)
	}
}

func emit(ctx context.Context, sink *feedback.MultiSink, record contracts.FeedbackRecord, logger *slog.Logger) {
	if err := sink.Submit(ctx, record); err != nil {
		logger.Warn("interface: feedback submit failed", "error", err)
	}
}

func joinDescriptions(descriptions []string) string {
	out := ""
	for i, d := range descriptions {
		if i > 0 {
			out += "; "
		}
		out += d
	}
	return out
}
