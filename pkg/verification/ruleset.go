// Package verification implements the request verifier (C7): a rule set of
// (id, description, condition) triples loaded from XML, where each
// condition is a compiled CEL predicate evaluated against the submitted
// request — never a host-language eval.
package verification

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// Rule is one verification rule: an id, a human description, and a
// compiled CEL program over the request's fields.
type Rule struct {
	ID          string
	Description string
	program     cel.Program
}

// RuleSet is an ordered collection of Rules, typically one XML document's
// worth, evaluated against a request by ValidateRequest.
type RuleSet struct {
	Rules []Rule
}

// ruleXML and ruleSetXML mirror the original implementation's
// <rule id="..."><description/><condition/></rule> document shape.
type ruleXML struct {
	ID          string `xml:"id,attr"`
	Description string `xml:"description"`
	Condition   string `xml:"condition"`
}

type ruleSetXML struct {
	XMLName       xml.Name  `xml:"ruleset"`
	SchemaVersion string    `xml:"schemaVersion,attr"`
	Rules         []ruleXML `xml:"rule"`
}

func newEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("issuer_id", cel.StringType),
		cel.Variable("parameter", cel.StringType),
		cel.Variable("impact", cel.StringType),
		cel.Variable("modification", cel.StringType),
		cel.Variable("priority", cel.IntType),
		cel.Variable("descriptions", cel.ListType(cel.StringType)),
	)
}

// LoadRuleSet parses path as an XML rule-set document and compiles every
// rule's condition once, at load time, against a fixed CEL environment.
func LoadRuleSet(path string) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("verification: read %s: %w", path, err)
	}

	var doc ruleSetXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("verification: parse %s: %w", path, err)
	}

	env, err := newEnv()
	if err != nil {
		return nil, fmt.Errorf("verification: build CEL env: %w", err)
	}

	rs := &RuleSet{}
	for _, r := range doc.Rules {
		ast, issues := env.Compile(r.Condition)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("%w: rule %s: compile: %v", contracts.ErrRuleEvaluationFailed, r.ID, issues.Err())
		}
		prog, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("%w: rule %s: program: %v", contracts.ErrRuleEvaluationFailed, r.ID, err)
		}
		rs.Rules = append(rs.Rules, Rule{ID: r.ID, Description: r.Description, program: prog})
	}
	return rs, nil
}

// requestVars projects a Request's fields into the CEL activation map.
func requestVars(req contracts.Request) map[string]any {
	return map[string]any{
		"issuer_id":    req.IssuerID,
		"parameter":    req.Parameter,
		"impact":       req.Impact,
		"modification": req.Modification,
		"priority":     int64(req.Priority),
		"descriptions": req.Descriptions,
	}
}

// ValidateRequest evaluates every rule's condition against req and returns
// the ids of the rules that did not hold. A rule whose evaluation errors
// (missing field, type mismatch) counts as failed, matching the original
// implementation's "eval raises -> False" fallback.
func (rs *RuleSet) ValidateRequest(req contracts.Request) []string {
	vars := requestVars(req)
	var failed []string
	for _, rule := range rs.Rules {
		out, _, err := rule.program.Eval(vars)
		if err != nil || !isTrue(out) {
			failed = append(failed, rule.ID)
		}
	}
	return failed
}

func isTrue(v ref.Val) bool {
	if v == nil {
		return false
	}
	b, ok := v.Value().(bool)
	return ok && b
}
