package contracts

import "time"

// EndpointKind tags the wire type of an endpoint value.
type EndpointKind string

const (
	KindBool   EndpointKind = "bool"
	KindU8     EndpointKind = "u8"
	KindI16    EndpointKind = "i16"
	KindU16    EndpointKind = "u16"
	KindI32    EndpointKind = "i32"
	KindU32    EndpointKind = "u32"
	KindI64    EndpointKind = "i64"
	KindF32    EndpointKind = "f32"
	KindString EndpointKind = "string"
)

// Endpoint is a single addressable field in a server's address space.
type Endpoint struct {
	ServerAlias  string       `json:"server_alias"`
	EndpointName string       `json:"endpoint_name"`
	Value        any          `json:"value"`
	Kind         EndpointKind `json:"type"`
}

// SnapshotEntry is one named value within a Snapshot.
type SnapshotEntry struct {
	Value       any    `json:"value"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Snapshot is a point-in-time view of an address space, keyed by
// "group:leaf" endpoint name.
type Snapshot map[string]SnapshotEntry

// Request is an issuer-submitted modification request.
type Request struct {
	RequestID     string    `json:"request_id"`
	IssuerID      string    `json:"issuer_id"`
	Timestamp     time.Time `json:"timestamp"`
	Descriptions  []string  `json:"descriptions"`
	Impact        string    `json:"impact"`
	Parameter     string    `json:"parameter"`
	Modification  string    `json:"modification"`
	Priority      int       `json:"priority"` // 0-31, 0 = highest
}

// MappingRule is one rule within a rule set keyed by impact.
type MappingRule struct {
	RuleID              string `json:"rule_id"`
	TriggerCondition     string `json:"trigger_condition"`
	ChangeDescription    string `json:"change_description"`
	EndpointIdentifier   string `json:"endpoint_identifier"`
	UnitOfChange         string `json:"unit_of_change"` // copied as-is; relative comes from a "%" modification
	AcceptanceConstraint string `json:"acceptance_constraint"`
}

// RuleSet groups mapping rules under a common impact key.
type RuleSet struct {
	Impact string        `json:"impact"`
	Rules  []MappingRule `json:"rules"`
}

// AffectedEndpoint names one endpoint touched by a mapped request: the
// computed change to apply, its unit, and the constraint the resulting
// process value must satisfy at acceptance time.
type AffectedEndpoint struct {
	EndpointID           string  `json:"endpoint_id"`
	Relative             bool    `json:"relative"`
	Amount               float64 `json:"amount"`
	UnitOfChange         string  `json:"unit_of_change"`
	AcceptanceConstraint string  `json:"acceptance_constraint"`
}

// MappedRequest is a Request plus the endpoints it resolves to.
type MappedRequest struct {
	Request           Request            `json:"request"`
	AffectedEndpoints []AffectedEndpoint `json:"affected_endpoints"`
	GenerationTime    time.Time          `json:"generation_timestamp"`
}

// CredentialRecord is a stored, hashed issuer credential.
type CredentialRecord struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Hash     string `json:"-"`
	Salt     string `json:"-"`
}

// FeedbackStage names the pipeline stage a FeedbackRecord was emitted from.
type FeedbackStage string

const (
	StageAuth   FeedbackStage = "auth"
	StageAuthz  FeedbackStage = "authz"
	StageVerify FeedbackStage = "verify"
	StageMap    FeedbackStage = "map"
	StageAccept FeedbackStage = "accept"
)

// FeedbackRecord is one append-only observation emitted onto the feedback
// bus (C11) for a given request at a given pipeline stage.
type FeedbackRecord struct {
	Stage     FeedbackStage `json:"stage"`
	RequestID string        `json:"request_id"`
	IssuerID  string        `json:"issuer_id"`
	Priority  int           `json:"priority"`
	Result    string        `json:"result"`
	StepInfo  string        `json:"step_info,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
