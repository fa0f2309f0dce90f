package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Variant selects which of the two endpoint contracts is served
type Variant string

const (
	// VariantLegacy expects OFFENSE_CATEGORY and answers with the single
	// years_of_racial_bias_sentencing_discrepency field
	VariantLegacy Variant = "legacy"
	// VariantExtended expects UPDATED_OFFENSE_CATEGORY and answers with
	// discrepancy, severity and model name
	VariantExtended Variant = "extended"
)

// Field names shared by the inbound record, the cleaner and the model manifest
const (
	FieldChargeCount                    = "CHARGE_COUNT"
	FieldChargeDisposition              = "CHARGE_DISPOSITION"
	FieldOffenseCategory                = "OFFENSE_CATEGORY"
	FieldUpdatedOffenseCategory         = "UPDATED_OFFENSE_CATEGORY"
	FieldPrimaryChargeFlag              = "PRIMARY_CHARGE_FLAG"
	FieldDispositionChargedOffenseTitle = "DISPOSITION_CHARGED_OFFENSE_TITLE"
	FieldDispositionChargedClass        = "DISPOSITION_CHARGED_CLASS"
	FieldSentenceJudge                  = "SENTENCE_JUDGE"
	FieldSentencePhase                  = "SENTENCE_PHASE"
	FieldCommitmentTerm                 = "COMMITMENT_TERM"
	FieldCommitmentUnit                 = "COMMITMENT_UNIT"
	FieldLengthOfCaseInDays             = "LENGTH_OF_CASE_in_Days"
	FieldAgeAtIncident                  = "AGE_AT_INCIDENT"
	FieldRace                           = "RACE"
	FieldGender                         = "GENDER"
	FieldIncidentCity                   = "INCIDENT_CITY"
	FieldLawEnforcementAgency           = "LAW_ENFORCEMENT_AGENCY"
	FieldLawEnforcementUnit             = "LAW_ENFORCEMENT_UNIT"
	FieldSentenceType                   = "SENTENCE_TYPE"
)

// ParseVariant converts a configuration value into a Variant
func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case VariantLegacy:
		return VariantLegacy, nil
	case VariantExtended, "":
		return VariantExtended, nil
	default:
		return "", fmt.Errorf("unknown variant: %s", s)
	}
}

// OffenseCategoryField returns the name the variant uses for the offense category
func (v Variant) OffenseCategoryField() string {
	if v == VariantLegacy {
		return FieldOffenseCategory
	}
	return FieldUpdatedOffenseCategory
}

// CaseRecord represents one inbound criminal case record
type CaseRecord struct {
	ChargeCount                    int            `json:"CHARGE_COUNT"`
	ChargeDisposition              string         `json:"CHARGE_DISPOSITION"`
	OffenseCategory                string         `json:"OFFENSE_CATEGORY,omitempty"`
	UpdatedOffenseCategory         string         `json:"UPDATED_OFFENSE_CATEGORY,omitempty"`
	PrimaryChargeFlag              bool           `json:"PRIMARY_CHARGE_FLAG"`
	DispositionChargedOffenseTitle string         `json:"DISPOSITION_CHARGED_OFFENSE_TITLE"`
	DispositionChargedClass        string         `json:"DISPOSITION_CHARGED_CLASS"`
	SentenceJudge                  string         `json:"SENTENCE_JUDGE"`
	SentencePhase                  string         `json:"SENTENCE_PHASE"`
	CommitmentTerm                 CommitmentTerm `json:"COMMITMENT_TERM"`
	CommitmentUnit                 string         `json:"COMMITMENT_UNIT"`
	LengthOfCaseInDays             float64        `json:"LENGTH_OF_CASE_in_Days"`
	AgeAtIncident                  float64        `json:"AGE_AT_INCIDENT"`
	Race                           string         `json:"RACE"`
	Gender                         string         `json:"GENDER"`
	IncidentCity                   *string        `json:"INCIDENT_CITY"`
	LawEnforcementAgency           string         `json:"LAW_ENFORCEMENT_AGENCY"`
	LawEnforcementUnit             *string        `json:"LAW_ENFORCEMENT_UNIT"`
	SentenceType                   string         `json:"SENTENCE_TYPE"`
}

// Offense returns whichever offense category field the record carries
func (r CaseRecord) Offense() string {
	if r.UpdatedOffenseCategory != "" {
		return r.UpdatedOffenseCategory
	}
	return r.OffenseCategory
}

// CommitmentTerm holds COMMITMENT_TERM as sent: a JSON number or a numeric string
type CommitmentTerm struct {
	text string
}

// NewCommitmentTerm builds a term from its textual form
func NewCommitmentTerm(text string) CommitmentTerm {
	return CommitmentTerm{text: text}
}

// Float coerces the term to a float. Text that is not a number yields NaN.
func (t CommitmentTerm) Float() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(t.text), 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// String returns the term as it was received
func (t CommitmentTerm) String() string {
	return t.text
}

// UnmarshalJSON implements json.Unmarshaler
func (t *CommitmentTerm) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		t.text = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("COMMITMENT_TERM must be a number or string: %w", err)
	}
	t.text = n.String()
	return nil
}

// MarshalJSON implements json.Marshaler
func (t CommitmentTerm) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.text)
}
