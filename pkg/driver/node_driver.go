package driver

import (
	"context"
	"fmt"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// SecurityPolicy names a structured-node server's transport security mode.
type SecurityPolicy string

const (
	SecurityNone                 SecurityPolicy = "None"
	SecurityBasic128Rsa15        SecurityPolicy = "Basic128Rsa15"
	SecurityBasic256             SecurityPolicy = "Basic256"
	SecurityBasic256Sha256       SecurityPolicy = "Basic256Sha256"
	SecurityAes128Sha256RsaOaep  SecurityPolicy = "Aes128Sha256RsaOaep"
	SecurityAes256Sha256RsaPss   SecurityPolicy = "Aes256Sha256RsaPss"
)

// CertTriple is the client/server certificate material a secured session
// needs: the driver's own cert+key, and the server's certificate to pin.
type CertTriple struct {
	ClientCertPath string
	ClientKeyPath  string
	ServerCertPath string
}

// NodeServerConfig describes one structured-node server connection.
type NodeServerConfig struct {
	EndpointURL    string
	SecurityPolicy SecurityPolicy
	Certs          CertTriple
	TrustStorePath string
	Username       string
	Password       string
}

// NodeEndpointConfig describes one addressable node on a structured-node
// server.
type NodeEndpointConfig struct {
	Name           string
	Identifier     string
	NamespaceIndex int
	DeclaredType   contracts.EndpointKind
	Description    string
}

// NodeTransport is the minimal wire operation a node driver needs; tests
// back it with a fake, production code with a real client.
type NodeTransport interface {
	Connect(ctx context.Context, cfg NodeServerConfig) error
	Close() error
	ReadNode(namespaceIndex int, identifier string) (browseName string, value any, err error)
}

// NodeDriver polls a structured-node server (OPC UA-like): per-node
// identifier + namespace index + declared datatype. ReadTyped returns the
// value and declared wire type under the configured endpoint name; the
// browse name the server reports is not returned.
type NodeDriver struct {
	serverAlias string
	cfg         NodeServerConfig
	transport   NodeTransport
	endpoints   map[string]NodeEndpointConfig
	cooldown    reconnectCooldown
	open        bool
}

// NewNodeDriver constructs a NodeDriver for serverAlias against cfg, backed
// by transport, serving the given node endpoint configs keyed by endpoint
// name.
func NewNodeDriver(serverAlias string, cfg NodeServerConfig, transport NodeTransport, endpoints map[string]NodeEndpointConfig) *NodeDriver {
	return &NodeDriver{
		serverAlias: serverAlias,
		cfg:         cfg,
		transport:   transport,
		endpoints:   endpoints,
		cooldown:    newReconnectCooldown(),
	}
}

// Open connects (or reconnects, respecting the 5-second cooldown) to the
// structured-node server, applying its configured security policy.
func (d *NodeDriver) Open(ctx context.Context) error {
	if d.open {
		return nil
	}
	if !d.cooldown.allow() {
		return fmt.Errorf("%w: reconnect cooldown active for %s", contracts.ErrConnectionLost, d.serverAlias)
	}
	if err := d.transport.Connect(ctx, d.cfg); err != nil {
		d.open = false
		return fmt.Errorf("%w: %s: %v", contracts.ErrConnectionLost, d.serverAlias, err)
	}
	d.open = true
	return nil
}

// Healthy reports whether the driver currently believes its session is
// usable.
func (d *NodeDriver) Healthy() bool {
	return d.open
}

// ReadTyped reads the named node and returns its value and declared wire
// type as an Endpoint named by the configured endpoint name. The browse
// name reported by the transport is discarded.
func (d *NodeDriver) ReadTyped(ctx context.Context, name string) (contracts.Endpoint, error) {
	cfg, ok := d.endpoints[name]
	if !ok {
		return contracts.Endpoint{}, fmt.Errorf("%w: unknown endpoint %q on %s", contracts.ErrReadFailed, name, d.serverAlias)
	}
	if !d.open {
		if err := d.Open(ctx); err != nil {
			return contracts.Endpoint{}, err
		}
	}

	browseName, value, err := d.transport.ReadNode(cfg.NamespaceIndex, cfg.Identifier)
	if err != nil {
		d.open = false
		return contracts.Endpoint{}, fmt.Errorf("%w: %s/%s: %v", contracts.ErrReadFailed, d.serverAlias, name, err)
	}
	_ = browseName

	return contracts.Endpoint{
		ServerAlias:  d.serverAlias,
		EndpointName: name,
		Value:        value,
		Kind:         cfg.DeclaredType,
	}, nil
}
