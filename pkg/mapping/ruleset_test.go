package mapping_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/mapping"
)

const sampleRuleSetsXML = `<rulesets>
	<ruleset impact="HighImpact">
		<rule rule_id="M1" endpoint_identifier="motor" unit_of_change="%" acceptance_constraint="&lt;= 100">
			<trigger_condition>parameter == "MotorSpeed_SP"</trigger_condition>
			<change_description>raise motor speed setpoint</change_description>
		</rule>
	</ruleset>
</rulesets>`

func TestLoadRuleSets(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping_rules.xml")
	require.NoError(t, os.WriteFile(path, []byte(sampleRuleSetsXML), 0o644))

	ruleSets, err := mapping.LoadRuleSets(path)
	require.NoError(t, err)

	rs, ok := ruleSets["HighImpact"]
	require.True(t, ok)
	require.Len(t, rs.Rules, 1)
	assert.Equal(t, "M1", rs.Rules[0].RuleID)
	assert.Equal(t, "motor", rs.Rules[0].EndpointIdentifier)
	assert.Equal(t, "<= 100", rs.Rules[0].AcceptanceConstraint)
}
