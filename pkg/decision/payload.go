package decision

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OutputType is the closed set of derived artifact families. Payloads are
// validated against the type at the deserialization boundary instead of
// being trusted as free-form JSON.
type OutputType string

const (
	OutputTypeRegulatoryPackage   OutputType = "REGULATORY_PACKAGE"
	OutputTypeControlBaseline     OutputType = "CONTROL_BASELINE"
	OutputTypeOverlay             OutputType = "OVERLAY"
	OutputTypeEvidenceRequirement OutputType = "EVIDENCE_REQUIREMENT"
	OutputTypeRiskProfile         OutputType = "RISK_PROFILE"
)

// Valid reports whether t is a known output type.
func (t OutputType) Valid() bool {
	switch t {
	case OutputTypeRegulatoryPackage, OutputTypeControlBaseline,
		OutputTypeOverlay, OutputTypeEvidenceRequirement, OutputTypeRiskProfile:
		return true
	default:
		return false
	}
}

// RegulatoryPackagePayload describes an applicable regulatory package
// (e.g. the SAMA Cybersecurity Framework).
type RegulatoryPackagePayload struct {
	// FrameworkCode is the catalog code of the framework (e.g. "SAMA-CSF").
	FrameworkCode string `json:"framework_code"`

	// FrameworkVersion is the framework edition the conclusion is tied to.
	FrameworkVersion string `json:"framework_version"`

	// Regulator is the issuing body (e.g. "SAMA", "NCA").
	Regulator string `json:"regulator"`

	// EstimatedControlCount sizes the implementation effort for the UI.
	EstimatedControlCount int `json:"estimated_control_count,omitempty"`
}

// ControlBaselinePayload describes a baseline of controls scoped to the
// tenant.
type ControlBaselinePayload struct {
	// BaselineCode identifies the baseline in the control catalog.
	BaselineCode string `json:"baseline_code"`

	// FrameworkCode is the framework the baseline is drawn from.
	FrameworkCode string `json:"framework_code"`

	// ControlDomains lists the control domains included.
	ControlDomains []string `json:"control_domains,omitempty"`
}

// OverlayPayload describes a jurisdiction, sector, data-type, or
// technology overlay applied on top of a baseline.
type OverlayPayload struct {
	// OverlayKind is one of "JURISDICTION", "SECTOR", "DATA_TYPE",
	// "TECHNOLOGY".
	OverlayKind string `json:"overlay_kind"`

	// TriggerCondition restates the answer condition that applied the
	// overlay, for display (e.g. "country == SA").
	TriggerCondition string `json:"trigger_condition"`
}

// EvidenceRequirementPayload describes recurring evidence the tenant must
// collect for a control or framework.
type EvidenceRequirementPayload struct {
	// ControlCode is the control the evidence substantiates.
	ControlCode string `json:"control_code"`

	// Frequency is the collection cadence ("MONTHLY", "QUARTERLY",
	// "ANNUAL").
	Frequency string `json:"frequency"`

	// EvidenceKinds lists acceptable evidence types.
	EvidenceKinds []string `json:"evidence_kinds,omitempty"`
}

// RiskProfilePayload is the weighted risk score derived from boolean
// answer factors, with a per-factor breakdown.
type RiskProfilePayload struct {
	// Score is the overall risk score in [0,100].
	Score float64 `json:"score"`

	// Tier buckets the score ("LOW", "MEDIUM", "HIGH", "CRITICAL").
	Tier string `json:"tier"`

	// Breakdown maps factor name to points contributed.
	Breakdown map[string]float64 `json:"breakdown"`
}

// DecodePayload validates and decodes a raw payload against its output
// type. Unknown output types and payloads that do not conform to the
// type's schema are ValidationErrors.
func DecodePayload(t OutputType, raw []byte) (any, error) {
	if !t.Valid() {
		return nil, NewValidationError("", "output_type", fmt.Sprintf("unknown output type %q", t))
	}

	decode := func(dst any) (any, error) {
		if err := strictUnmarshal(raw, dst); err != nil {
			return nil, NewValidationError("", "payload",
				fmt.Sprintf("payload does not conform to %s: %v", t, err))
		}
		return dst, nil
	}

	switch t {
	case OutputTypeRegulatoryPackage:
		return decode(&RegulatoryPackagePayload{})
	case OutputTypeControlBaseline:
		return decode(&ControlBaselinePayload{})
	case OutputTypeOverlay:
		return decode(&OverlayPayload{})
	case OutputTypeEvidenceRequirement:
		return decode(&EvidenceRequirementPayload{})
	case OutputTypeRiskProfile:
		return decode(&RiskProfilePayload{})
	}
	// Unreachable; Valid() covered the enum.
	return nil, NewValidationError("", "output_type", fmt.Sprintf("unknown output type %q", t))
}

// strictUnmarshal decodes JSON rejecting unknown fields, so schema drift
// in stored payloads is caught at the boundary rather than ignored.
func strictUnmarshal(raw []byte, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
