package cleaning

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"sentencing-discrepancy/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record() models.CaseRecord {
	return models.CaseRecord{
		ChargeCount:                    1,
		ChargeDisposition:              "Plea Of Guilty",
		UpdatedOffenseCategory:         "PROMIS Conversion",
		PrimaryChargeFlag:              true,
		DispositionChargedOffenseTitle: "ARMED ROBBERY",
		DispositionChargedClass:        "X",
		SentenceJudge:                  "James L Rhodes",
		SentencePhase:                  "Original Sentencing",
		CommitmentTerm:                 models.NewCommitmentTerm("10"),
		CommitmentUnit:                 "Year(s)",
		LengthOfCaseInDays:             1307,
		AgeAtIncident:                  17,
		Race:                           "Black",
		Gender:                         "Male",
		LawEnforcementAgency:           "PROMIS Data Conversion",
		SentenceType:                   "Prison",
	}
}

func requireRejection(t *testing.T, err error, reason string) {
	t.Helper()
	require.Error(t, err)
	var re *RejectionError
	require.True(t, errors.As(err, &re), "expected *RejectionError, got %T", err)
	assert.Equal(t, reason, re.Reason)
	assert.Equal(t, "INVALID: "+reason, err.Error())
}

func TestClean_SingleRecord(t *testing.T) {
	row, err := NewCleaner(models.VariantExtended).CleanOne(record())
	require.NoError(t, err)

	assert.Equal(t, 10.0, row.CommitmentTerm)
	assert.Equal(t, "Black", row.Race)
	assert.Equal(t, "Male", row.Gender)
	assert.Equal(t, "PROMIS Conversion", row.OffenseCategory)
	assert.Equal(t, "James L Rhodes", row.SentenceJudge)
	assert.False(t, row.HasMissing())
}

func TestClean_SentenceType(t *testing.T) {
	r := record()
	r.SentenceType = "Probation"
	_, err := NewCleaner(models.VariantExtended).CleanOne(r)
	requireRejection(t, err, ReasonNoPrisonSentences)
}

func TestClean_Race(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
		reject   bool
	}{
		{raw: "Black", expected: "Black"},
		{raw: "Biracial", expected: "Black"},
		{raw: "White [Hispanic or Latino]", expected: "HISPANIC"},
		{raw: "White/Black [Hispanic or Latino]", expected: "HISPANIC"},
		{raw: "ASIAN", expected: "Asian"},
		{raw: "American Indian", expected: "American Indian"},
		{raw: "Unknown", reject: true},
		{raw: "Martian", reject: true},
		{raw: "black", reject: true},
	}

	c := NewCleaner(models.VariantExtended)
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := record()
			r.Race = tt.raw
			row, err := c.CleanOne(r)
			if tt.reject {
				requireRejection(t, err, ReasonNoValidRace)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, row.Race)
		})
	}
}

func TestClean_Gender(t *testing.T) {
	c := NewCleaner(models.VariantExtended)
	for raw, expected := range map[string]string{
		"Male":           "Male",
		"Female":         "Female",
		"Unknown Gender": "Unknown",
		"male":           "Unknown",
	} {
		r := record()
		r.Gender = raw
		row, err := c.CleanOne(r)
		require.NoError(t, err)
		assert.Equal(t, expected, row.Gender, raw)
	}
}

func TestClean_TermUnits(t *testing.T) {
	tests := []struct {
		term     string
		unit     string
		expected float64
	}{
		{term: "10", unit: "Year(s)", expected: 10},
		{term: "18", unit: "Months", expected: 1.5},
		{term: "730", unit: "Days", expected: 2},
		{term: "500", unit: "Year(s)", expected: MaxCommitmentYears},
	}

	c := NewCleaner(models.VariantExtended)
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s %s", tt.term, tt.unit), func(t *testing.T) {
			r := record()
			r.CommitmentTerm = models.NewCommitmentTerm(tt.term)
			r.CommitmentUnit = tt.unit
			row, err := c.CleanOne(r)
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, row.CommitmentTerm, 1e-9)
		})
	}
}

func TestClean_UnknownUnit(t *testing.T) {
	r := record()
	r.CommitmentUnit = "Term"
	_, err := NewCleaner(models.VariantExtended).CleanOne(r)
	requireRejection(t, err, ReasonNoValidTermUnits)
}

func TestClean_UnparseableTerm(t *testing.T) {
	r := record()
	r.CommitmentTerm = models.NewCommitmentTerm("Natural Life")
	_, err := NewCleaner(models.VariantExtended).CleanOne(r)
	requireRejection(t, err, ReasonNoNullFreeExamples)
}

func TestClean_NaturalLife(t *testing.T) {
	var records []models.CaseRecord
	for _, age := range []float64{20, 22, 24} {
		r := record()
		r.CommitmentUnit = "Natural Life"
		r.CommitmentTerm = models.NewCommitmentTerm("1")
		r.AgeAtIncident = age
		records = append(records, r)
	}

	rows, err := NewCleaner(models.VariantExtended).Clean(records)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, 56.0, row.CommitmentTerm)
	}
}

func TestClean_NaturalLifeMixedBatch(t *testing.T) {
	life := record()
	life.CommitmentUnit = "Natural Life"
	life.AgeAtIncident = 38
	years := record()
	years.AgeAtIncident = 60

	rows, err := NewCleaner(models.VariantExtended).Clean([]models.CaseRecord{life, years})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 40.0, rows[0].CommitmentTerm)
	assert.Equal(t, 10.0, rows[1].CommitmentTerm)
}

func TestClean_DropsInvalidRowsOnly(t *testing.T) {
	probation := record()
	probation.SentenceType = "Probation"
	unknown := record()
	unknown.Race = "Unknown"
	ok := record()

	rows, err := NewCleaner(models.VariantExtended).Clean([]models.CaseRecord{probation, unknown, ok})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestClean_DoesNotModifyInput(t *testing.T) {
	records := []models.CaseRecord{record()}
	records[0].Race = "Biracial"
	_, err := NewCleaner(models.VariantExtended).Clean(records)
	require.NoError(t, err)
	assert.Equal(t, "Biracial", records[0].Race)
}

func TestClean_Legacy(t *testing.T) {
	r := record()
	r.OffenseCategory = r.UpdatedOffenseCategory
	r.UpdatedOffenseCategory = ""
	row, err := NewCleaner(models.VariantLegacy).CleanOne(r)
	require.NoError(t, err)
	assert.Equal(t, "PROMIS Conversion", row.OffenseCategory)
}

func TestMedian(t *testing.T) {
	assert.Equal(t, 22.0, median([]float64{24, 20, 22}))
	assert.Equal(t, 21.0, median([]float64{24, 20, 22, 18}))
	assert.Equal(t, 20.0, median([]float64{math.NaN(), 20}))
	assert.True(t, math.IsNaN(median([]float64{math.NaN()})))
}
