package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/vorgateway/gateway/pkg/addressspace"
	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/driver"
	"github.com/vorgateway/gateway/pkg/snapshotcache"
	"github.com/vorgateway/gateway/pkg/telemetry"
)

// simulatedNodeTransport stands in for a real structured-node (OPC
// UA-like) server connection when no field device is configured — a
// deployment wires driver.NodeTransport against its actual server instead.
// It always connects successfully and returns a slowly drifting value per
// node, enough to exercise the polling loop, the projector, and the
// snapshot slot end to end.
type simulatedNodeTransport struct {
	tick int
}

func (t *simulatedNodeTransport) Connect(ctx context.Context, cfg driver.NodeServerConfig) error {
	return nil
}

func (t *simulatedNodeTransport) Close() error { return nil }

func (t *simulatedNodeTransport) ReadNode(namespaceIndex int, identifier string) (string, any, error) {
	t.tick++
	return identifier, float64(t.tick % 100), nil
}

// simulatedRegisterTransport is the register-oriented (Modbus-like)
// counterpart of simulatedNodeTransport, for the same reason: no
// Modbus TCP client exists in the example pack to ground a real one on,
// and a real deployment supplies its own driver.RegisterTransport against
// its actual field bus.
type simulatedRegisterTransport struct {
	tick uint16
}

func (t *simulatedRegisterTransport) Connect(ctx context.Context) error { return nil }

func (t *simulatedRegisterTransport) Close() error { return nil }

func (t *simulatedRegisterTransport) ReadCoil(address, quantity int) (bool, error) {
	t.tick++
	return t.tick%2 == 0, nil
}

func (t *simulatedRegisterTransport) ReadDiscreteInput(address, quantity int) (bool, error) {
	t.tick++
	return t.tick%3 == 0, nil
}

func (t *simulatedRegisterTransport) ReadHoldingRegister(address, quantity int) (uint16, error) {
	t.tick++
	return t.tick % 1000, nil
}

func demoStructuredEndpoints() map[string]driver.NodeEndpointConfig {
	return map[string]driver.NodeEndpointConfig{
		"motor:MotorSpeed_SP": {Name: "motor:MotorSpeed_SP", Identifier: "MotorSpeed_SP", NamespaceIndex: 2, DeclaredType: contracts.KindF32},
		"pump:PumpRate_SP":    {Name: "pump:PumpRate_SP", Identifier: "PumpRate_SP", NamespaceIndex: 2, DeclaredType: contracts.KindF32},
	}
}

func demoRegisterEndpoints() map[string]driver.RegisterEndpointConfig {
	return map[string]driver.RegisterEndpointConfig{
		"valve:ValveOpen": {Name: "valve:ValveOpen", Function: driver.FuncReadCoil, Address: 0, Quantity: 1, BitOffset: -1},
		"tank:TankLevel":  {Name: "tank:TankLevel", Function: driver.FuncReadHoldingReg, Address: 10, Quantity: 1, BitOffset: -1},
	}
}

// runCPCPartition drives the field-acquisition loop: poll every endpoint
// on both the structured-node and register-oriented drivers, reconcile the
// read values into the live address space, and publish the resulting
// per-driver snapshot to all of its consumer slots (interface and psmo)
// every cycle.
func runCPCPartition(ctx context.Context, cfg *config.Config, telemetryProvider *telemetry.Provider, logger *slog.Logger) error {
	structuredEndpoints := demoStructuredEndpoints()
	structuredDriver := driver.NewNodeDriver("plc-1", driver.NodeServerConfig{EndpointURL: "demo://plc-1"}, &simulatedNodeTransport{}, structuredEndpoints)

	registerEndpoints := demoRegisterEndpoints()
	registerDriver := driver.NewRegisterDriver("modbus-1", &simulatedRegisterTransport{}, registerEndpoints)

	slots, err := openCPCSlots(cfg)
	if err != nil {
		return err
	}
	projector := addressspace.NewProjector()

	ticker := time.NewTicker(cfg.PollInterval)
	defer ticker.Stop()

	logger.Info("cpc partition ready", "poll_interval", cfg.PollInterval)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			structuredSnap := pollStructured(ctx, structuredDriver, structuredEndpoints, logger)
			if len(structuredSnap) > 0 {
				added, updated := projector.Reconcile(structuredSnap)
				logger.Debug("cpc: structured snapshot reconciled", "added", len(added), "updated", len(updated))
				publishSnapshot(ctx, structuredSnap, logger, "structured", slots.structuredInterface, slots.structuredPSMO)
			}

			registerSnap := pollRegister(ctx, registerDriver, registerEndpoints, logger)
			if len(registerSnap) > 0 {
				added, updated := projector.Reconcile(registerSnap)
				logger.Debug("cpc: register snapshot reconciled", "added", len(added), "updated", len(updated))
				publishSnapshot(ctx, registerSnap, logger, "register", slots.registerInterface, slots.registerPSMO)
			}
		}
	}
}

func pollStructured(ctx context.Context, d *driver.NodeDriver, endpoints map[string]driver.NodeEndpointConfig, logger *slog.Logger) contracts.Snapshot {
	snap := contracts.Snapshot{}
	for name, ep := range endpoints {
		endpoint, err := d.ReadTyped(ctx, name)
		if err != nil {
			logger.Warn("cpc: structured read failed", "endpoint", name, "error", err)
			continue
		}
		snap[name] = contracts.SnapshotEntry{Value: endpoint.Value, Type: string(ep.DeclaredType)}
	}
	return snap
}

func pollRegister(ctx context.Context, d *driver.RegisterDriver, endpoints map[string]driver.RegisterEndpointConfig, logger *slog.Logger) contracts.Snapshot {
	snap := contracts.Snapshot{}
	for name := range endpoints {
		endpoint, err := d.ReadTyped(ctx, name)
		if err != nil {
			logger.Warn("cpc: register read failed", "endpoint", name, "error", err)
			continue
		}
		snap[name] = contracts.SnapshotEntry{Value: endpoint.Value, Type: string(endpoint.Kind)}
	}
	return snap
}

// publishSnapshot writes snap to every consumer slot for one driver's
// producer leg, logging (not failing the cycle on) a single slot's
// publish error so one stalled consumer never blocks the other.
func publishSnapshot(ctx context.Context, snap contracts.Snapshot, logger *slog.Logger, driverName string, slotsForDriver ...snapshotcache.Slot) {
	for _, slot := range slotsForDriver {
		if err := slot.Publish(ctx, snap); err != nil {
			logger.Error("cpc: publish failed", "driver", driverName, "error", err)
		}
	}
}
