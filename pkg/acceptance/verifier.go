package acceptance

import (
	"fmt"
	"time"

	"github.com/vorgateway/gateway/pkg/contracts"
)

// Verifier runs the two acceptance checks against a mapped request once it
// is pulled for execution: the filled acceptance document (from the
// control plane) and the mapped request's affected endpoints.
type Verifier struct{}

// NewVerifier returns a Verifier. It is stateless; all inputs are passed
// to Verify per call.
func NewVerifier() *Verifier {
	return &Verifier{}
}

// Verify runs the acceptance check (document value agreement) followed by
// the mapping check (constraint satisfaction), in that order, short-
// circuiting on the first failure as the original two-stage check does.
// It returns whether req passed both checks along with the feedback
// record to emit.
func (v *Verifier) Verify(req contracts.MappedRequest, filledDocument []byte) (bool, contracts.FeedbackRecord, error) {
	record := contracts.FeedbackRecord{
		Stage:     contracts.StageAccept,
		RequestID: req.Request.RequestID,
		IssuerID:  req.Request.IssuerID,
		Priority:  req.Request.Priority,
		Timestamp: time.Now(),
	}

	root, err := ParseDocument(filledDocument)
	if err != nil {
		record.Result = "Acceptance check failed: malformed document"
		return false, record, fmt.Errorf("%w: %v", contracts.ErrAcceptanceMismatch, err)
	}

	if mismatch := Verify(root); mismatch != nil {
		record.Result = "Acceptance check failed"
		if mismatch.TechnicalSystemID != "" {
			record.StepInfo = fmt.Sprintf("%s in technical_system %s: current=%q required=%q",
				mismatch.Key, mismatch.TechnicalSystemID, mismatch.Current, mismatch.Required)
		} else {
			record.StepInfo = fmt.Sprintf("%s: current=%q required=%q", mismatch.Key, mismatch.Current, mismatch.Required)
		}
		return false, record, fmt.Errorf("%w: %s", contracts.ErrAcceptanceMismatch, mismatch.Key)
	}

	processValues, err := ParseProcessValues(root)
	if err != nil {
		record.Result = "Mapping check failed: malformed process values"
		return false, record, fmt.Errorf("%w: %v", contracts.ErrMappingConstraintMismatch, err)
	}

	violation, err := CheckMapping(req.AffectedEndpoints, processValues)
	if err != nil {
		record.Result = "Mapping check failed"
		return false, record, err
	}
	if violation != nil {
		record.Result = "Mapping check failed"
		record.StepInfo = fmt.Sprintf("endpoint %s: %s", violation.EndpointID, violation.Reason)
		return false, record, fmt.Errorf("%w: endpoint %s", contracts.ErrMappingConstraintMismatch, violation.EndpointID)
	}

	record.Result = "Accepted"
	record.StepInfo = "The request is accepted and ready for hand-off to the control plane."
	return true, record, nil
}
