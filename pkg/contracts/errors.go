// Package contracts holds the shared types and sentinel errors that cross
// partition boundaries: endpoints, snapshots, requests, mapping rules, and
// the error kinds every other package wraps with fmt.Errorf("...: %w", ...).
package contracts

import "errors"

// Sentinel error kinds. Checked with errors.Is; every layer wraps one of
// these rather than inventing a new error type, so a caller three layers up
// can still distinguish "config bad" from "connection lost" without string
// matching.
var (
	ErrConfigInvalid             = errors.New("config invalid")
	ErrConnectionLost            = errors.New("connection lost")
	ErrReadFailed                = errors.New("read failed")
	ErrAuthenticationFailed      = errors.New("authentication failed")
	ErrAuthorizationDenied       = errors.New("authorization denied")
	ErrRuleEvaluationFailed      = errors.New("rule evaluation failed")
	ErrMappingNoRuleSet          = errors.New("no rule set for impact")
	ErrMappingPersistFailed      = errors.New("mapping persist failed")
	ErrAcceptanceMismatch        = errors.New("acceptance mismatch")
	ErrMappingConstraintMismatch = errors.New("mapping constraint mismatch")
	ErrQueueUnavailable          = errors.New("queue unavailable")
)
