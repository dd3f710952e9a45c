// Package mapping implements the request mapper (C8): it turns a verified
// request into the set of affected endpoints the control plane must act on,
// using a mapping rule set keyed by impact.
package mapping

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// RuleSets indexes mapping rule sets by their impact key.
type RuleSets map[string]contracts.RuleSet

// Mapper resolves a verified request to its affected endpoints.
type Mapper struct {
	ruleSets RuleSets
}

// NewMapper returns a Mapper over ruleSets.
func NewMapper(ruleSets RuleSets) *Mapper {
	return &Mapper{ruleSets: ruleSets}
}

// Map resolves req against the rule set matching req.Impact and returns the
// mapped request plus the feedback record to emit. A missing rule set is
// reported via contracts.ErrMappingNoRuleSet.
func (m *Mapper) Map(req contracts.Request) (contracts.MappedRequest, contracts.FeedbackRecord, error) {
	record := contracts.FeedbackRecord{
		Stage:     contracts.StageMap,
		RequestID: req.RequestID,
		IssuerID:  req.IssuerID,
		Priority:  req.Priority,
		Timestamp: time.Now(),
	}

	rs, ok := m.ruleSets[req.Impact]
	if !ok {
		record.Result = "Mapping failed: no matching rule set"
		return contracts.MappedRequest{}, record, fmt.Errorf("%w: impact %q", contracts.ErrMappingNoRuleSet, req.Impact)
	}

	affected := make([]contracts.AffectedEndpoint, 0, len(rs.Rules))
	for _, rule := range rs.Rules {
		endpointID := rule.EndpointIdentifier + "_" + req.Parameter
		relative, amount := classifyModification(req.Modification)
		affected = append(affected, contracts.AffectedEndpoint{
			EndpointID:           endpointID,
			Relative:             relative,
			Amount:               amount,
			UnitOfChange:         rule.UnitOfChange,
			AcceptanceConstraint: rule.AcceptanceConstraint,
		})
	}

	mapped := contracts.MappedRequest{
		Request:           req,
		AffectedEndpoints: affected,
		GenerationTime:    record.Timestamp,
	}
	record.Result = "Mapping completed"
	return mapped, record, nil
}

// classifyModification reports whether modification names a relative
// (percentage) change and its numeric amount. A trailing "%" marks a
// relative change; anything else is absolute.
func classifyModification(modification string) (relative bool, amount float64) {
	relative = strings.HasSuffix(modification, "%")
	trimmed := strings.TrimSpace(strings.TrimSuffix(modification, "%"))
	amount, _ = strconv.ParseFloat(trimmed, 64)
	return relative, amount
}
