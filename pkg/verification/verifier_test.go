package verification_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vorgateway/gateway/pkg/contracts"
	"github.com/vorgateway/gateway/pkg/verification"
)

func loadTestRuleSet(t *testing.T) *verification.RuleSet {
	t.Helper()
	rs, err := verification.LoadRuleSet("testdata/rules.xml")
	require.NoError(t, err)
	require.Len(t, rs.Rules, 2)
	return rs
}

func TestRuleSet_ValidateRequest_AllRulesPass(t *testing.T) {
	rs := loadTestRuleSet(t)
	req := contracts.Request{
		RequestID: "req-1",
		IssuerID:  "issuer-1",
		Parameter: "MotorSpeed_SP",
		Priority:  5,
		Timestamp: time.Now(),
	}
	assert.Empty(t, rs.ValidateRequest(req))
}

func TestRuleSet_ValidateRequest_PriorityRuleFails(t *testing.T) {
	rs := loadTestRuleSet(t)
	req := contracts.Request{
		RequestID: "req-2",
		Parameter: "MotorSpeed_SP",
		Priority:  31,
	}
	assert.Equal(t, []string{"R1"}, rs.ValidateRequest(req))
}

func TestRuleSet_ValidateRequest_ParameterRuleFails(t *testing.T) {
	rs := loadTestRuleSet(t)
	req := contracts.Request{
		RequestID: "req-3",
		Parameter: "UnknownParam",
		Priority:  1,
	}
	assert.Equal(t, []string{"R2"}, rs.ValidateRequest(req))
}

func TestRuleSet_ValidateRequest_BothRulesFail(t *testing.T) {
	rs := loadTestRuleSet(t)
	req := contracts.Request{
		RequestID: "req-4",
		Parameter: "UnknownParam",
		Priority:  31,
	}
	assert.ElementsMatch(t, []string{"R1", "R2"}, rs.ValidateRequest(req))
}

func TestVerifier_Verify_Success(t *testing.T) {
	rs := loadTestRuleSet(t)
	v := verification.NewVerifier(rs)

	req := contracts.Request{
		RequestID: "req-5",
		IssuerID:  "issuer-1",
		Parameter: "PumpRate_SP",
		Priority:  2,
	}

	ok, record, err := v.Verify(req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, contracts.StageVerify, record.Stage)
	assert.Equal(t, "Verified", record.Result)
	assert.Equal(t, req.RequestID, record.RequestID)
}

func TestVerifier_Verify_Failure(t *testing.T) {
	rs := loadTestRuleSet(t)
	v := verification.NewVerifier(rs)

	req := contracts.Request{
		RequestID: "req-6",
		IssuerID:  "issuer-2",
		Parameter: "UnknownParam",
		Priority:  31,
	}

	ok, record, err := v.Verify(req)
	require.Error(t, err)
	assert.False(t, ok)
	assert.Equal(t, "Rule-based verification failure", record.Result)
	assert.Contains(t, record.StepInfo, "R1")
	assert.Contains(t, record.StepInfo, "R2")
}

func TestRuleSet_LoadRuleSet_RejectsInvalidCondition(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.xml"
	badXML := `<ruleset><rule id="BAD"><description>broken</description><condition>priority ===</condition></rule></ruleset>`
	require.NoError(t, os.WriteFile(path, []byte(badXML), 0o644))

	_, err := verification.LoadRuleSet(path)
	require.Error(t, err)
}
