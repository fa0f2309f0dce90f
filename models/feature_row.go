package models

import (
	"fmt"
	"math"
)

// FeatureRow represents a cleaned, model-ready case record.
// An empty Race means the value is missing.
type FeatureRow struct {
	OffenseCategory                string  `json:"offense_category"`
	PrimaryChargeFlag              bool    `json:"primary_charge_flag"`
	DispositionChargedOffenseTitle string  `json:"disposition_charged_offense_title"`
	ChargeCount                    int     `json:"charge_count"`
	DispositionChargedClass        string  `json:"disposition_charged_class"`
	ChargeDisposition              string  `json:"charge_disposition"`
	SentenceJudge                  string  `json:"sentence_judge"`
	SentencePhase                  string  `json:"sentence_phase"`
	CommitmentTerm                 float64 `json:"commitment_term"`
	AgeAtIncident                  float64 `json:"age_at_incident"`
	Race                           string  `json:"race"`
	Gender                         string  `json:"gender"`
	LawEnforcementAgency           string  `json:"law_enforcement_agency"`
}

// HasMissing reports whether any field the model uses is missing
func (r FeatureRow) HasMissing() bool {
	return r.Race == "" ||
		math.IsNaN(r.CommitmentTerm) ||
		math.IsNaN(r.AgeAtIncident) ||
		r.OffenseCategory == "" ||
		r.DispositionChargedOffenseTitle == "" ||
		r.DispositionChargedClass == "" ||
		r.ChargeDisposition == "" ||
		r.SentenceJudge == "" ||
		r.SentencePhase == "" ||
		r.Gender == "" ||
		r.LawEnforcementAgency == ""
}

// Value returns the feature stored under a model column name.
// Both spellings of the offense category column resolve to the same field.
func (r FeatureRow) Value(column string) (any, error) {
	switch column {
	case FieldOffenseCategory, FieldUpdatedOffenseCategory:
		return r.OffenseCategory, nil
	case FieldPrimaryChargeFlag:
		return r.PrimaryChargeFlag, nil
	case FieldDispositionChargedOffenseTitle:
		return r.DispositionChargedOffenseTitle, nil
	case FieldChargeCount:
		return r.ChargeCount, nil
	case FieldDispositionChargedClass:
		return r.DispositionChargedClass, nil
	case FieldChargeDisposition:
		return r.ChargeDisposition, nil
	case FieldSentenceJudge:
		return r.SentenceJudge, nil
	case FieldSentencePhase:
		return r.SentencePhase, nil
	case FieldCommitmentTerm:
		return r.CommitmentTerm, nil
	case FieldAgeAtIncident:
		return r.AgeAtIncident, nil
	case FieldRace:
		if r.Race == "" {
			return nil, nil
		}
		return r.Race, nil
	case FieldGender:
		return r.Gender, nil
	case FieldLawEnforcementAgency:
		return r.LawEnforcementAgency, nil
	default:
		return nil, fmt.Errorf("unknown feature column: %s", column)
	}
}

// Project returns the row's values in the given column order
func (r FeatureRow) Project(columns []string) ([]any, error) {
	values := make([]any, len(columns))
	for i, column := range columns {
		v, err := r.Value(column)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}
