package adminapi

import (
	"encoding/json"
	"net/http"

	"github.com/vorgateway/gateway/pkg/addressspace"
	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/credentials"
	"github.com/vorgateway/gateway/pkg/mappedstore"
)

// AdminRole is the role required to call any admin API endpoint.
const AdminRole = authz.AdminRole

// Deps wires the read-only backends the admin API surfaces.
type Deps struct {
	Credentials  *credentials.Store
	Authz        *authz.Engine
	AddressSpace *addressspace.Projector
	MappedStore  *mappedstore.Store
	Tokens       *TokenManager

	// RateLimitRPS/RateLimitBurst bound the per-IP request rate. Zero
	// values fall back to sane defaults (5 rps, burst 10).
	RateLimitRPS   int
	RateLimitBurst int
}

// NewServer builds the admin API's http.Handler: a read-only surface over
// users, roles, the live address space, and the mapped-request queue,
// secured by bearer JWTs and a per-IP rate limiter.
func NewServer(deps Deps) http.Handler {
	rps := deps.RateLimitRPS
	if rps == 0 {
		rps = 5
	}
	burst := deps.RateLimitBurst
	if burst == 0 {
		burst = 10
	}
	limiter := newRateLimiter(rps, burst)

	protected := http.NewServeMux()
	protected.HandleFunc("/users", deps.handleUsers)
	protected.HandleFunc("/roles", deps.handleRoles)
	protected.HandleFunc("/address-space", deps.handleAddressSpace)
	protected.HandleFunc("/mapped-requests", deps.handleMappedRequests)

	var protectedHandler http.Handler = protected
	protectedHandler = requireRole(AdminRole, protectedHandler)
	protectedHandler = authMiddleware(deps.Tokens, protectedHandler)
	protectedHandler = limiter.middleware(protectedHandler)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", handleHealthz)
	mux.Handle("/", protectedHandler)
	return mux
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// userView is the public, hash-free projection of a credential record.
type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func (d Deps) handleUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	records, err := d.Credentials.List(r.Context())
	if err != nil {
		writeInternal(w, err)
		return
	}
	views := make([]userView, 0, len(records))
	for _, rec := range records {
		views = append(views, userView{ID: rec.ID, Username: rec.Username})
	}
	writeJSON(w, views)
}

func (d Deps) handleRoles(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if subject := r.URL.Query().Get("subject"); subject != "" {
		if !d.Authz.UserExists(subject) {
			writeNotFound(w, "no role assignments for subject "+subject)
			return
		}
		writeJSON(w, map[string]any{"subject": subject, "roles": d.Authz.RolesOf(subject)})
		return
	}
	writeJSON(w, d.Authz.Assignments())
}

// addressSpaceEntry is one live endpoint in the projected address space.
type addressSpaceEntry struct {
	Name  string `json:"name"`
	Group string `json:"group"`
	Leaf  string `json:"leaf"`
	Value any    `json:"value"`
	Kind  string `json:"kind"`
}

func (d Deps) handleAddressSpace(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	if name := r.URL.Query().Get("name"); name != "" {
		node, ok := d.AddressSpace.Get(name)
		if !ok {
			writeNotFound(w, "no such address-space entry: "+name)
			return
		}
		writeJSON(w, addressSpaceEntry{Name: name, Group: node.Group, Leaf: node.Leaf, Value: node.Value, Kind: string(node.Kind)})
		return
	}

	names := d.AddressSpace.Names()
	entries := make([]addressSpaceEntry, 0, len(names))
	for _, name := range names {
		node, ok := d.AddressSpace.Get(name)
		if !ok {
			continue
		}
		entries = append(entries, addressSpaceEntry{Name: name, Group: node.Group, Leaf: node.Leaf, Value: node.Value, Kind: string(node.Kind)})
	}
	writeJSON(w, entries)
}

func (d Deps) handleMappedRequests(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w)
		return
	}
	entries, err := d.MappedStore.List(r.Context())
	if err != nil {
		writeInternal(w, err)
		return
	}
	writeJSON(w, entries)
}
