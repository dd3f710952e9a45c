package credentials

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
)

// ownerKey is the context key under which a pool owner token is stored.
type ownerKey struct{}

// ownerToken identifies whoever checked out a pooled connection. Go has no
// stable analogue of CPython's threading.get_ident() — goroutines are not
// pinned to OS threads — so ownership is carried explicitly on the context
// instead of inferred from the runtime.
type ownerToken uint64

// WithOwner attaches an explicit pool owner token to ctx. Callers that want
// connection affinity across multiple acquire calls (e.g. a transaction
// spanning several Store methods) should derive one context with WithOwner
// and reuse it; callers that don't care get a fresh token per acquire.
func WithOwner(ctx context.Context, token uint64) context.Context {
	return context.WithValue(ctx, ownerKey{}, ownerToken(token))
}

func ownerFromContext(ctx context.Context, fallback uint64) ownerToken {
	if v, ok := ctx.Value(ownerKey{}).(ownerToken); ok {
		return v
	}
	return ownerToken(fallback)
}

// connPool hands out *sql.Conn bound to an owner token. A connection
// returned by a caller whose token no longer matches the owner it was
// checked out under is closed rather than recycled — the direct analogue of
// the thread-identity check in a pool that binds connections to the
// creating thread.
type connPool struct {
	db   *sql.DB
	mu   sync.Mutex
	free map[ownerToken][]*sql.Conn
	next uint64
}

func newConnPool(db *sql.DB, maxConns int) *connPool {
	return &connPool{
		db:   db,
		free: make(map[ownerToken][]*sql.Conn),
	}
}

func (p *connPool) nextFallback() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.next++
	return p.next
}

// acquire checks out a connection bound to the owner token carried on ctx
// (or a freshly minted one if ctx carries none), returning a release
// function that must be called exactly once.
func (p *connPool) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	owner := ownerFromContext(ctx, p.nextFallback())

	p.mu.Lock()
	if bucket := p.free[owner]; len(bucket) > 0 {
		conn := bucket[len(bucket)-1]
		p.free[owner] = bucket[:len(bucket)-1]
		p.mu.Unlock()
		return conn, p.releaseFunc(ctx, owner, conn), nil
	}
	p.mu.Unlock()

	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("credentials: acquire connection: %w", err)
	}
	return conn, p.releaseFunc(ctx, owner, conn), nil
}

func (p *connPool) releaseFunc(ctx context.Context, boundOwner ownerToken, conn *sql.Conn) func() {
	return func() {
		current, explicit := ctx.Value(ownerKey{}).(ownerToken)
		// A token minted by acquire is never presented again, so a connection
		// parked under it could never be reused: hand it back to database/sql.
		if !explicit || current != boundOwner {
			conn.Close()
			return
		}
		p.mu.Lock()
		p.free[boundOwner] = append(p.free[boundOwner], conn)
		p.mu.Unlock()
	}
}
