package acceptance

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// ParseProcessValues extracts the live value reported for each
// <affected_endpoint><name/><value/></affected_endpoint> entry under the
// filled acceptance document's affected_endpoints block.
func ParseProcessValues(root Node) (map[string]float64, error) {
	block, ok := root.Find("affected_endpoints")
	if !ok {
		return map[string]float64{}, nil
	}

	values := make(map[string]float64, len(block.Children))
	for _, entry := range block.Children {
		if entry.XMLName.Local != "affected_endpoint" {
			continue
		}
		nameNode, hasName := entry.FindChild("name")
		valueNode, hasValue := entry.FindChild("value")
		if !hasName || !hasValue {
			continue
		}
		name := strings.TrimSpace(nameNode.Text)
		v, err := strconv.ParseFloat(strings.TrimSpace(valueNode.Text), 64)
		if err != nil {
			return nil, fmt.Errorf("acceptance: endpoint %s: parse value %q: %w", name, valueNode.Text, err)
		}
		values[name] = v
	}
	return values, nil
}

// CheckMapping evaluates every affected endpoint's constraint against its
// live process value: effective = value*(1+amount/100) when relative, else
// effective = amount (the literal configured change). The first violated
// constraint terminates the check and names the failing endpoint; nil
// means every endpoint satisfied its constraint.
func CheckMapping(affected []contracts.AffectedEndpoint, processValues map[string]float64) (*ConstraintViolation, error) {
	for _, ep := range affected {
		value, ok := processValues[ep.EndpointID]
		if !ok {
			return &ConstraintViolation{EndpointID: ep.EndpointID, Reason: "no live value reported"}, nil
		}

		var effective float64
		if ep.Relative {
			effective = value + value*ep.Amount/100
		} else {
			effective = ep.Amount
		}

		op, rhs, err := parseConstraint(ep.AcceptanceConstraint)
		if err != nil {
			return nil, fmt.Errorf("%w: endpoint %s: %v", contracts.ErrMappingConstraintMismatch, ep.EndpointID, err)
		}

		if !evaluate(op, effective, rhs) {
			return &ConstraintViolation{
				EndpointID: ep.EndpointID,
				Reason:     fmt.Sprintf("effective value %v does not satisfy %s %v", effective, op, rhs),
			}, nil
		}
	}
	return nil, nil
}

// ConstraintViolation names the affected endpoint whose computed value
// failed its acceptance constraint.
type ConstraintViolation struct {
	EndpointID string
	Reason     string
}

func parseConstraint(constraint string) (op string, rhs float64, err error) {
	constraint = strings.TrimSpace(constraint)
	for _, candidate := range []string{"==", "<=", ">=", "<", ">"} {
		if idx := strings.Index(constraint, candidate); idx >= 0 {
			rhsStr := strings.TrimSpace(constraint[idx+len(candidate):])
			rhs, err = strconv.ParseFloat(rhsStr, 64)
			if err != nil {
				return "", 0, fmt.Errorf("parse constraint %q: %w", constraint, err)
			}
			return candidate, rhs, nil
		}
	}
	return "", 0, fmt.Errorf("unrecognized constraint operator in %q", constraint)
}

func evaluate(op string, lhs, rhs float64) bool {
	switch op {
	case "==":
		return lhs == rhs
	case "<=":
		return lhs <= rhs
	case ">=":
		return lhs >= rhs
	case "<":
		return lhs < rhs
	case ">":
		return lhs > rhs
	default:
		return false
	}
}
