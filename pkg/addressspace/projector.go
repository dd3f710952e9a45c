// Package addressspace implements the address-space projector (C3): it
// reconciles a freshly-read snapshot against the set of endpoints already
// known to a live server address space, updating values in place for names
// it already knows and adding new leaves for names it has never seen —
// never removing an endpoint that has temporarily dropped out of a
// snapshot.
package addressspace

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// Group and Leaf split an endpoint name on its first colon, mirroring the
// original address-space population logic's `name.split(":", 1)`. Names
// with no colon have an empty Group.
type GroupLeaf struct {
	Group string
	Leaf  string
}

// SplitName splits name into its group and leaf components on the first
// colon.
func SplitName(name string) GroupLeaf {
	if idx := strings.Index(name, ":"); idx >= 0 {
		return GroupLeaf{Group: name[:idx], Leaf: name[idx+1:]}
	}
	return GroupLeaf{Group: "", Leaf: name}
}

// Node is one live node in the projected address space: its current
// typed value plus the group it belongs to.
type Node struct {
	Group string
	Leaf  string
	Value any
	Kind  contracts.EndpointKind
}

// Projector owns the live address-space view and reconciles it against
// incoming snapshots. A single projector is typically fed by more than one
// producer's snapshot (structured and register drivers both reconcile into
// the same Interface-partition view) while an HTTP handler reads it
// concurrently, so every access is mutex-guarded.
type Projector struct {
	mu    sync.RWMutex
	nodes map[string]*Node // keyed by full "group:leaf" name
}

// NewProjector returns an empty projector.
func NewProjector() *Projector {
	return &Projector{nodes: make(map[string]*Node)}
}

// Reconcile applies snap to the projector: names already known are
// updated in place (the "intersection" set); names never seen before are
// added as new leaves under their group (the "difference" set). Names
// present in the address space but absent from snap are left untouched —
// the projector never removes a node.
func (p *Projector) Reconcile(snap contracts.Snapshot) (added []string, updated []string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for name, entry := range snap {
		gl := SplitName(name)
		kind := contracts.EndpointKind(entry.Type)

		if node, exists := p.nodes[name]; exists {
			node.Value = entry.Value
			node.Kind = kind
			updated = append(updated, name)
			continue
		}

		p.nodes[name] = &Node{Group: gl.Group, Leaf: gl.Leaf, Value: entry.Value, Kind: kind}
		added = append(added, name)
	}
	return added, updated
}

// Get returns a snapshot copy of the current node for name, if known. A
// copy (not the live pointer) is returned so callers never hold a
// reference Reconcile can mutate out from under them after the lock is
// released.
func (p *Projector) Get(name string) (Node, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.nodes[name]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Names returns every endpoint name currently in the address space.
func (p *Projector) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.nodes))
	for name := range p.nodes {
		names = append(names, name)
	}
	return names
}

// ToEndpoint converts a wire-type string (as carried on a snapshot entry)
// and a raw value into a typed contracts.Endpoint value — the single total
// conversion function every caller should route through rather than
// hand-rolling per-callsite type switches.
func ToEndpoint(serverAlias, name string, kind contracts.EndpointKind, raw any) (contracts.Endpoint, error) {
	switch kind {
	case contracts.KindBool, contracts.KindU8, contracts.KindI16, contracts.KindU16,
		contracts.KindI32, contracts.KindU32, contracts.KindI64, contracts.KindF32, contracts.KindString:
		return contracts.Endpoint{ServerAlias: serverAlias, EndpointName: name, Value: raw, Kind: kind}, nil
	default:
		return contracts.Endpoint{}, fmt.Errorf("addressspace: unsupported wire type %q for %s", kind, name)
	}
}
