package mapping

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// mappingRuleXML, mappingRuleSetXML and mappingRuleSetsXML mirror the
// original implementation's nested
// <rulesets><ruleset impact="..."><rule rule_id="..." .../></ruleset></rulesets>
// document shape.
type mappingRuleXML struct {
	RuleID               string `xml:"rule_id,attr"`
	EndpointIdentifier   string `xml:"endpoint_identifier,attr"`
	UnitOfChange         string `xml:"unit_of_change,attr"`
	AcceptanceConstraint string `xml:"acceptance_constraint,attr"`
	TriggerCondition     string `xml:"trigger_condition"`
	ChangeDescription    string `xml:"change_description"`
}

type mappingRuleSetXML struct {
	Impact string           `xml:"impact,attr"`
	Rules  []mappingRuleXML `xml:"rule"`
}

type mappingRuleSetsXML struct {
	XMLName  xml.Name            `xml:"rulesets"`
	RuleSets []mappingRuleSetXML `xml:"ruleset"`
}

// LoadRuleSets parses path as an XML document of mapping rule sets, one
// <ruleset impact="..."> per impact key, and indexes them by impact.
func LoadRuleSets(path string) (RuleSets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("mapping: read %s: %w", path, err)
	}

	var doc mappingRuleSetsXML
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("mapping: parse %s: %w", path, err)
	}

	result := make(RuleSets, len(doc.RuleSets))
	for _, rs := range doc.RuleSets {
		converted := contracts.RuleSet{Impact: rs.Impact}
		for _, r := range rs.Rules {
			converted.Rules = append(converted.Rules, contracts.MappingRule{
				RuleID:               r.RuleID,
				TriggerCondition:     r.TriggerCondition,
				ChangeDescription:    r.ChangeDescription,
				EndpointIdentifier:   r.EndpointIdentifier,
				UnitOfChange:         r.UnitOfChange,
				AcceptanceConstraint: r.AcceptanceConstraint,
			})
		}
		result[rs.Impact] = converted
	}
	return result, nil
}
