package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vorgateway/gateway/pkg/canonical"
	"github.com/vorgateway/gateway/pkg/config"
	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/snapshotcache"
)

// Slot-name suffixes matching the named-semaphore convention
// {opcua,modbus}_semaphore_{psmo,interface}: one slot per
// (driver, consumer-partition) pair, four slots total. "psmo" is the
// Intermediate VoR partition's consumer leg.
const (
	slotSuffixStructuredInterface = ":opcua:interface"
	slotSuffixStructuredPSMO      = ":opcua:psmo"
	slotSuffixRegisterInterface   = ":modbus:interface"
	slotSuffixRegisterPSMO        = ":modbus:psmo"
)

// cpcSlots holds the four producer-side handles the CPC partition
// publishes to every cycle: one structured and one register slot per
// consumer partition.
type cpcSlots struct {
	structuredInterface snapshotcache.Slot
	structuredPSMO       snapshotcache.Slot
	registerInterface    snapshotcache.Slot
	registerPSMO         snapshotcache.Slot
}

// openCPCSlots opens all four producer slots, named off
// cfg.SnapshotSlotName so a Redis-backed deployment's producer and
// consumers agree on key names.
func openCPCSlots(cfg *config.Config) (*cpcSlots, error) {
	si, err := openNamedSnapshotSlot(cfg, slotSuffixStructuredInterface)
	if err != nil {
		return nil, err
	}
	sp, err := openNamedSnapshotSlot(cfg, slotSuffixStructuredPSMO)
	if err != nil {
		return nil, err
	}
	ri, err := openNamedSnapshotSlot(cfg, slotSuffixRegisterInterface)
	if err != nil {
		return nil, err
	}
	rp, err := openNamedSnapshotSlot(cfg, slotSuffixRegisterPSMO)
	if err != nil {
		return nil, err
	}
	return &cpcSlots{structuredInterface: si, structuredPSMO: sp, registerInterface: ri, registerPSMO: rp}, nil
}

// openNamedSnapshotSlot returns a Redis-backed slot named
// cfg.SnapshotSlotName+suffix when cfg.RedisAddr is set (cross-process
// deployment), otherwise a fresh in-process slot (single-process
// deployments and tests only — an in-process slot has no identity beyond
// the Go value itself, so it cannot be shared across separate
// cmd/gatewayctl invocations).
func openNamedSnapshotSlot(cfg *config.Config, suffix string) (snapshotcache.Slot, error) {
	if cfg.RedisAddr == "" {
		return snapshotcache.NewInProcSlot(0), nil
	}
	client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("snapshot slot %s: redis unreachable at %s: %w", suffix, cfg.RedisAddr, err)
	}
	return snapshotcache.NewRedisSlot(client, cfg.SnapshotSlotName+suffix, 0), nil
}

// slotCursorPollInterval mirrors snapshotcache's own internal poll interval;
// duplicated here because a consumer holding only the Slot interface (as
// opposed to a concrete *InProcSlot/*RedisSlot) cannot reuse
// ConsumerCursor/RedisConsumerCursor, which are tied to those concrete types.
const slotCursorPollInterval = 10 * time.Millisecond

// slotCursor tracks one consumer's last-seen digest across repeated Acquire
// calls on any snapshotcache.Slot, generalizing ConsumerCursor/
// RedisConsumerCursor to the interface type so a caller that only knows
// whether it's Redis-backed or in-process at runtime (via cfg.RedisAddr)
// can still consume with cursor semantics.
type slotCursor struct {
	slot       snapshotcache.Slot
	lastDigest string
}

func newSlotCursor(slot snapshotcache.Slot) *slotCursor {
	return &slotCursor{slot: slot}
}

// next blocks until slot holds a payload this cursor has not yet seen.
func (c *slotCursor) next(ctx context.Context) (contracts.Snapshot, error) {
	for {
		snap, err := c.slot.Acquire(ctx)
		if err != nil {
			return nil, err
		}
		digest, err := canonical.Digest(snap)
		if err != nil {
			return nil, fmt.Errorf("snapshot cursor: digest: %w", err)
		}
		if digest != c.lastDigest {
			c.lastDigest = digest
			return snap, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(slotCursorPollInterval):
		}
	}
}
