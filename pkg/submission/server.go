// Package submission implements the issuer-facing request submission API:
// the authenticated, authorized entry point through which an issuer's
// modification request is authenticated, checked against the RBAC policy,
// and handed off to the priority message queue (C6) for the Interface
// partition's pipeline to consume, plus the user-management methods
// exposed alongside it (add/remove/update/list users, role assignment).
package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vorgateway/gateway/pkg/authz"
	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/credentials"
	"github.com/vorgateway/gateway/pkg/feedback"
	"github.com/vorgateway/gateway/pkg/requestqueue"
)

// defaultAction is the RBAC action checked against the requested
// parameter; this gateway has exactly one write action, unlike the
// original's per-modification-type action space.
const defaultAction = "write"

// Server is the secured front door issuers submit requests through and
// administrators manage accounts through. It is a plain Go type rather
// than a protocol server: cmd/gatewayctl wraps it in a transport (HTTP) at
// the process boundary.
type Server struct {
	credentials *credentials.Store
	authz       *authz.Engine
	queue       requestqueue.Queue
	sink        feedback.Sink
}

// NewServer wires a Server over the already-open backends it authenticates
// against, authorizes against, and enqueues to.
func NewServer(credStore *credentials.Store, engine *authz.Engine, queue requestqueue.Queue, sink feedback.Sink) *Server {
	return &Server{credentials: credStore, authz: engine, queue: queue, sink: sink}
}

func (s *Server) emit(ctx context.Context, record contracts.FeedbackRecord) {
	if s.sink == nil {
		return
	}
	_ = s.sink.Submit(ctx, record)
}

// Submit authenticates issuerID/secret, authorizes issuerID to modify
// parameter, and — on success — enqueues the request for the Interface
// partition's pipeline. It always returns a request id and server
// timestamp, even on a rejected submission, mirroring the original
// request() method's "always return the triple" contract; only a queue
// operational failure is surfaced as a non-nil error.
func (s *Server) Submit(
	ctx context.Context,
	issuerID, secret string,
	timestamp time.Time,
	descriptions []string,
	impact, parameter, modification string,
	priority int,
) (requestID, serverTimestamp, notification string, err error) {
	requestID = uuid.NewString()
	serverTimestamp = time.Now().UTC().Format(time.RFC3339)

	authOK, authErr := s.credentials.Verify(ctx, issuerID, secret)
	authRecord := contracts.FeedbackRecord{
		Stage: contracts.StageAuth, RequestID: requestID, IssuerID: issuerID,
		Priority: priority, Timestamp: time.Now(),
	}
	if authErr != nil {
		authRecord.Result = "Authentication failed: operational error"
		s.emit(ctx, authRecord)
		return requestID, serverTimestamp, fmt.Sprintf("Error: %v", authErr), nil
	}
	if !authOK {
		authRecord.Result = fmt.Sprintf("Authentication failed for %s", issuerID)
		s.emit(ctx, authRecord)
		return requestID, serverTimestamp, fmt.Sprintf("Authentication failed for %s", issuerID), nil
	}
	authRecord.Result = "Authenticated"
	s.emit(ctx, authRecord)

	allowed, authzErr := s.authz.Authorize(ctx, issuerID, parameter, defaultAction)
	authzRecord := contracts.FeedbackRecord{
		Stage: contracts.StageAuthz, RequestID: requestID, IssuerID: issuerID,
		Priority: priority, Timestamp: time.Now(),
	}
	if authzErr != nil || !allowed {
		authzRecord.Result = fmt.Sprintf("Request authorization failed: %s", issuerID)
		s.emit(ctx, authzRecord)
		return requestID, serverTimestamp, fmt.Sprintf("Request authorization failed: %s", issuerID), nil
	}
	authzRecord.Result = "Authorized"
	s.emit(ctx, authzRecord)

	req := contracts.Request{
		RequestID:    requestID,
		IssuerID:     issuerID,
		Timestamp:    timestamp,
		Descriptions: descriptions,
		Impact:       impact,
		Parameter:    parameter,
		Modification: modification,
		Priority:     priority,
	}
	if err := s.queue.Push(ctx, req); err != nil {
		return requestID, serverTimestamp, fmt.Sprintf("Error: %v", err), nil
	}

	return requestID, serverTimestamp, "Submission received", nil
}
