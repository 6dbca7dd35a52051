package decision

import (
	"time"
)

// AnswerSnapshot is an immutable, versioned capture of a wizard's answers
// at the completion of one step. Versions are monotonic per wizard,
// starting at 1, with no gaps. Once created, the payload and hash never
// change; IsFinal is the only field that may be flipped afterwards.
type AnswerSnapshot struct {
	// ID is the snapshot's UUID.
	ID string `json:"id"`

	// WizardID identifies the onboarding wizard session (one per tenant
	// onboarding). All downstream records are scoped to this ID.
	WizardID string `json:"wizard_id"`

	// Version is the monotonic snapshot version for this wizard.
	Version int `json:"version"`

	// StepNumber is the wizard step that was completed.
	StepNumber int `json:"step_number"`

	// SectionCode identifies the wizard section (e.g. "ORG_PROFILE").
	SectionCode string `json:"section_code"`

	// Payload is the canonical serialized answer set.
	Payload []byte `json:"payload"`

	// ContentHash is the hex SHA-256 digest of Payload. The invariant
	// ContentHash == canonical.Hash(Payload) must always hold.
	ContentHash string `json:"content_hash"`

	// CreatedBy is the actor that completed the step.
	CreatedBy string `json:"created_by"`

	// CreatedAt is when the snapshot was captured.
	CreatedAt time.Time `json:"created_at"`

	// IsFinal marks the snapshot taken when the wizard completed.
	IsFinal bool `json:"is_final"`
}

// EvaluationResult classifies the outcome of evaluating one rule against
// one snapshot.
type EvaluationResult string

const (
	// ResultMatched means the rule condition held and its production
	// mapping applies.
	ResultMatched EvaluationResult = "MATCHED"

	// ResultNotMatched means the condition was evaluated and did not hold.
	ResultNotMatched EvaluationResult = "NOT_MATCHED"

	// ResultSkipped means the rule was inapplicable in this context,
	// typically because a required input field was absent.
	ResultSkipped EvaluationResult = "SKIPPED"

	// ResultError means condition evaluation faulted. The fault is
	// captured in ErrorDetail and the batch continues.
	ResultError EvaluationResult = "ERROR"
)

// RuleEvaluationRecord is the immutable outcome of evaluating a single
// rule against a specific snapshot. Re-evaluating the same (snapshot,
// rule) pair yields a bit-identical record modulo ID, EvaluatedAt, and
// DurationMs.
type RuleEvaluationRecord struct {
	// ID is the record's UUID.
	ID string `json:"id"`

	// WizardID scopes the record to one wizard session.
	WizardID string `json:"wizard_id"`

	// SnapshotID references the exact snapshot that was evaluated.
	SnapshotID string `json:"snapshot_id"`

	// RuleCode identifies the rule (e.g. "RULE_SAMA_APPLICABILITY").
	RuleCode string `json:"rule_code"`

	// RuleVersion is the rule version active at evaluation time.
	RuleVersion string `json:"rule_version"`

	// InputContext is the canonical serialized projection of the fields
	// the rule saw, including previously derived artifacts still active.
	InputContext []byte `json:"input_context"`

	// Result classifies the outcome.
	Result EvaluationResult `json:"result"`

	// ConfidenceScore is in [0,1]. Deterministic conditions score 1.0 on
	// match and 0.0 otherwise.
	ConfidenceScore float64 `json:"confidence_score"`

	// OutputPayload is the canonical serialized rule output (empty for
	// non-matches).
	OutputPayload []byte `json:"output_payload"`

	// ReasonText is the human-readable justification.
	ReasonText string `json:"reason_text"`

	// ReasonTextAr is the Arabic localization of ReasonText.
	ReasonTextAr string `json:"reason_text_ar"`

	// DurationMs is how long condition evaluation took.
	DurationMs int64 `json:"duration_ms"`

	// EvaluatedAt is when the rule was evaluated.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// ErrorDetail holds the captured fault when Result is ResultError.
	ErrorDetail string `json:"error_detail,omitempty"`
}

// Applicability classifies how binding a derived artifact is.
type Applicability string

const (
	ApplicabilityMandatory   Applicability = "MANDATORY"
	ApplicabilityRecommended Applicability = "RECOMMENDED"
	ApplicabilityOptional    Applicability = "OPTIONAL"
)

// Rank orders applicabilities by strictness. Lower rank is stricter;
// unknown values rank last. Used for deterministic conflict resolution.
func (a Applicability) Rank() int {
	switch a {
	case ApplicabilityMandatory:
		return 0
	case ApplicabilityRecommended:
		return 1
	case ApplicabilityOptional:
		return 2
	default:
		return 3
	}
}

// Valid reports whether a is a known applicability.
func (a Applicability) Valid() bool {
	return a.Rank() < 3
}

// DerivedArtifact is a versioned compliance conclusion produced by a
// matched rule. At most one version per (wizard, output code) is active
// at any time. Superseding inserts a new version and deactivates the old
// row; rows are never deleted or overwritten.
type DerivedArtifact struct {
	// ID is the artifact row's UUID.
	ID string `json:"id"`

	// WizardID scopes the artifact to one wizard session.
	WizardID string `json:"wizard_id"`

	// OutputType is the artifact family (regulatory package, control
	// baseline, overlay, evidence requirement, risk profile).
	OutputType OutputType `json:"output_type"`

	// OutputCode uniquely identifies the conclusion within the wizard
	// (e.g. "PKG_SAMA").
	OutputCode string `json:"output_code"`

	// OutputName is a display name for the conclusion.
	OutputName string `json:"output_name"`

	// OutputNameAr is the Arabic display name.
	OutputNameAr string `json:"output_name_ar"`

	// Payload is the canonical serialized typed payload for OutputType.
	Payload []byte `json:"payload"`

	// Applicability states how binding the conclusion is.
	Applicability Applicability `json:"applicability"`

	// Priority orders artifacts for presentation; lower sorts first.
	Priority int `json:"priority"`

	// SourceEvaluationID references the evaluation record that produced
	// this version.
	SourceEvaluationID string `json:"source_evaluation_id"`

	// Version is monotonic per (wizard, output code).
	Version int `json:"version"`

	// IsActive is true for the current version, false once superseded.
	IsActive bool `json:"is_active"`

	// DerivedAt is when this version was created.
	DerivedAt time.Time `json:"derived_at"`

	// DeactivatedAt is when this version was superseded, if it was.
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`
}

// Decision is the conclusion recorded on an explainability record.
type Decision string

const (
	DecisionIncluded    Decision = "INCLUDED"
	DecisionExcluded    Decision = "EXCLUDED"
	DecisionMandatory   Decision = "MANDATORY"
	DecisionRecommended Decision = "RECOMMENDED"
	DecisionOptional    Decision = "OPTIONAL"
)

// DecisionType classifies what kind of decision an explainability record
// justifies. Mirrors the host application's decision catalog.
type DecisionType string

const (
	DecisionTypeFrameworkSelection   DecisionType = "FRAMEWORK_SELECTION"
	DecisionTypeControlApplicability DecisionType = "CONTROL_APPLICABILITY"
	DecisionTypeBaselineDerivation   DecisionType = "BASELINE_DERIVATION"
	DecisionTypeOverlayApplication   DecisionType = "OVERLAY_APPLICATION"
	DecisionTypeEvidenceRequirement  DecisionType = "EVIDENCE_REQUIREMENT"
	DecisionTypeRiskProfile          DecisionType = "RISK_PROFILE"
)

// Factor is one structured input that contributed to a decision.
type Factor struct {
	// Field is the answer or artifact field name.
	Field string `json:"field"`

	// Value is the field's value rendered as text.
	Value string `json:"value"`

	// Weight is the factor's relative contribution in [0,1].
	Weight float64 `json:"weight"`
}

// Override is the additive annotation recorded when a reviewer overrides
// a decision. The original decision field is never replaced.
type Override struct {
	// By is the actor that recorded the override.
	By string `json:"by"`

	// At is when the override was recorded.
	At time.Time `json:"at"`

	// NewDecision is the reviewer's replacement decision.
	NewDecision Decision `json:"new_decision"`

	// Justification is the reviewer's stated reason (e.g. "CISO waiver").
	Justification string `json:"justification"`
}

// ExplainabilityRecord is the human-facing justification for one
// decision. Decision is write-once; an override is recorded alongside it,
// never over it.
type ExplainabilityRecord struct {
	// ID is the record's UUID.
	ID string `json:"id"`

	// WizardID scopes the record to one wizard session.
	WizardID string `json:"wizard_id"`

	// SubjectType classifies the decision being explained.
	SubjectType DecisionType `json:"subject_type"`

	// SubjectCode identifies the entity being explained (framework code,
	// overlay code, control ID).
	SubjectCode string `json:"subject_code"`

	// SubjectName is the display name of the subject.
	SubjectName string `json:"subject_name"`

	// SubjectNameAr is the Arabic display name.
	SubjectNameAr string `json:"subject_name_ar"`

	// Decision is the machine conclusion. Write-once.
	Decision Decision `json:"decision"`

	// PrimaryReason is the leading human-readable justification.
	PrimaryReason string `json:"primary_reason"`

	// PrimaryReasonAr is the Arabic localization of PrimaryReason.
	PrimaryReasonAr string `json:"primary_reason_ar"`

	// Factors lists the structured inputs that led to the decision.
	Factors []Factor `json:"factors"`

	// References lists supporting citations (regulatory articles,
	// circulars).
	References []string `json:"references"`

	// SourceEvaluationID references the evaluation record underlying the
	// decision.
	SourceEvaluationID string `json:"source_evaluation_id"`

	// IsOverridable controls whether a reviewer may record an override.
	IsOverridable bool `json:"is_overridable"`

	// Override is the reviewer annotation, if one was recorded.
	Override *Override `json:"override,omitempty"`

	// GeneratedAt is when the explanation was generated.
	GeneratedAt time.Time `json:"generated_at"`
}

// Overridden reports whether a reviewer has recorded an override.
func (r *ExplainabilityRecord) Overridden() bool {
	return r.Override != nil
}

// EffectiveDecision returns the override decision when one exists,
// otherwise the original machine decision. The original Decision field is
// preserved either way.
func (r *ExplainabilityRecord) EffectiveDecision() Decision {
	if r.Override != nil {
		return r.Override.NewDecision
	}
	return r.Decision
}
