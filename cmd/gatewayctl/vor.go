package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/vorgateway/gateway/pkg/acceptance"
	"github.com/vorgateway/gateway/pkg/bridge"
	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/feedback"
	"github.com/vorgateway/gateway/pkg/mappedstore"
	"github.com/vorgateway/gateway/pkg/telemetry"
)

// runVoRPartition drives the hand-off loop: pull the highest-priority
// mapped request, attach its affected endpoints to the acceptance
// document, post it to the control plane, and run the two-stage
// acceptance check against the control plane's filled response.
func runVoRPartition(ctx context.Context, cfg *config.Config, telemetryProvider *telemetry.Provider, logger *slog.Logger) error {
	store, err := mappedstore.Open(ctx, cfg.MappedStoreDBPath)
	if err != nil {
		return fmt.Errorf("vor: mapped store: %w", err)
	}
	defer store.Close()

	baseDocument, err := os.ReadFile(cfg.AcceptanceRuleSetPath)
	if err != nil {
		return fmt.Errorf("vor: acceptance document: %w", err)
	}

	client := bridge.NewClient(cfg.ControlPlaneBridgeURL, nil)
	verifier := acceptance.NewVerifier()

	sink := feedback.NewMultiSink(buildFeedbackSinks(ctx, cfg, logger), telemetryProvider.Tracer(), logger)
	defer sink.Stop()

	logger.Info("vor partition ready")
	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := pullAndProcessOne(ctx, store, baseDocument, client, verifier, sink, logger); err != nil && !errors.Is(err, mappedstore.ErrEmpty) {
				logger.Error("vor: process failed", "error", err)
			}
		}
	}
}

func pullAndProcessOne(
	ctx context.Context,
	store *mappedstore.Store,
	baseDocument []byte,
	client *bridge.Client,
	verifier *acceptance.Verifier,
	sink *feedback.MultiSink,
	logger *slog.Logger,
) error {
	mapped, description, _, err := store.PullHighest(ctx)
	if err != nil {
		return err
	}

	document, err := bridge.AttachAffectedEndpoints(baseDocument, mapped.AffectedEndpoints)
	if err != nil {
		return fmt.Errorf("vor: attach affected endpoints: %w", err)
	}

	filled, err := client.ProcessXML(ctx, document)
	if err != nil {
		emit(ctx, sink, contracts.FeedbackRecord{
			Stage: contracts.StageAccept, RequestID: mapped.Request.RequestID, IssuerID: mapped.Request.IssuerID,
			Priority: mapped.Request.Priority, Result: "Control plane unreachable", StepInfo: err.Error(),
			Timestamp: time.Now(),
		}, logger)
		return err
	}

	_, record, err := verifier.Verify(mapped, filled)
	emit(ctx, sink, record, logger)
	logger.Info("vor: request processed", "request_id", mapped.Request.RequestID, "description", description, "result", record.Result)
	return err
}
