package verification

import (
	"fmt"
	"time"

	"github.com/vorgateway/gateway/pkg/contracts"
)

const (
	resultVerified = "Verified"
	resultFailed   = "Rule-based verification failure"
)

// Verifier runs submitted requests against a RuleSet and emits a feedback
// record describing the outcome, mirroring the submission pipeline's
// verify step.
type Verifier struct {
	rules *RuleSet
}

// NewVerifier returns a Verifier backed by rules.
func NewVerifier(rules *RuleSet) *Verifier {
	return &Verifier{rules: rules}
}

// Verify reports whether req passes every rule in the set, along with the
// feedback record to forward to the feedback sink regardless of outcome.
func (v *Verifier) Verify(req contracts.Request) (bool, contracts.FeedbackRecord, error) {
	failed := v.rules.ValidateRequest(req)

	record := contracts.FeedbackRecord{
		Stage:     contracts.StageVerify,
		RequestID: req.RequestID,
		IssuerID:  req.IssuerID,
		Priority:  req.Priority,
		Timestamp: time.Now(),
	}

	if len(failed) > 0 {
		record.Result = resultFailed
		record.StepInfo = fmt.Sprintf("Request failed verification. Failed rules: %v", failed)
		return false, record, fmt.Errorf("%w: rules %v", contracts.ErrRuleEvaluationFailed, failed)
	}

	record.Result = resultVerified
	record.StepInfo = "The request is plausible and will be forwarded to the mapping step."
	return true, record, nil
}
