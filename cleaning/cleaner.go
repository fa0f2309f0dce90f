package cleaning

import (
	"math"
	"sort"

	"sentencing-discrepancy/models"

	log "github.com/sirupsen/logrus"
)

const (
	// LifeExpectancyYears is the assumed US life expectancy used to express
	// natural life terms in years
	LifeExpectancyYears = 78.0
	// MaxCommitmentYears caps COMMITMENT_TERM after unit normalization
	MaxCommitmentYears = 110.0

	sentenceTypePrison = "Prison"
	raceUnknown        = "Unknown"
	genderUnknown      = "Unknown"

	unitYears       = "Year(s)"
	unitMonths      = "Months"
	unitDays        = "Days"
	unitNaturalLife = "Natural Life"
)

// Case-sensitive; Biracial was 8 people out of 120k in the training data
var standardRace = map[string]string{
	"Black":                            "Black",
	"White":                            "White",
	"HISPANIC":                         "HISPANIC",
	"White [Hispanic or Latino]":       "HISPANIC",
	"White/Black [Hispanic or Latino]": "HISPANIC",
	"ASIAN":                            "Asian",
	"Asian":                            "Asian",
	"American Indian":                  "American Indian",
	"Unknown":                          raceUnknown,
	"Biracial":                         "Black",
}

var termDivisors = map[string]float64{
	unitYears:       1,
	unitMonths:      12,
	unitDays:        365,
	unitNaturalLife: 1,
}

// StandardRace maps a raw race label to its normalized form.
// The second result is false for labels outside the lookup table.
func StandardRace(raw string) (string, bool) {
	race, ok := standardRace[raw]
	return race, ok
}

// Cleaner turns validated case records into model-ready feature rows
type Cleaner struct {
	variant     models.Variant
	categories  CategoryTable
	consolidate bool
}

// CleanerOption is a functional option for Cleaner
type CleanerOption func(*Cleaner)

// WithCategoryTable makes cardinality reduction use precomputed top values
// instead of ranking the batch being cleaned
func WithCategoryTable(table CategoryTable) CleanerOption {
	return func(c *Cleaner) {
		c.categories = table
	}
}

// WithoutConsolidation skips cardinality reduction, leaving rows as they
// are when category tables are ranked from them
func WithoutConsolidation() CleanerOption {
	return func(c *Cleaner) {
		c.consolidate = false
	}
}

// NewCleaner creates a new cleaner for the given variant
func NewCleaner(variant models.Variant, opts ...CleanerOption) *Cleaner {
	c := &Cleaner{variant: variant, consolidate: true}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type pending struct {
	row  models.FeatureRow
	unit string
}

// Clean applies the cleaning steps in order. When a step leaves no rows it
// stops and returns a *RejectionError naming that step.
// The input records are not modified.
func (c *Cleaner) Clean(records []models.CaseRecord) ([]models.FeatureRow, error) {
	// prison sentences only (no jail, probation, ...)
	rows := make([]pending, 0, len(records))
	for _, r := range records {
		if r.SentenceType != sentenceTypePrison {
			continue
		}
		rows = append(rows, fromRecord(r))
	}
	if len(rows) == 0 {
		return nil, reject(ReasonNoPrisonSentences)
	}

	// racial outcomes can't be compared when race is not known
	rows = filter(rows, func(p *pending) bool {
		race, ok := StandardRace(p.row.Race)
		p.row.Race = race
		return ok && race != raceUnknown
	})
	if len(rows) == 0 {
		return nil, reject(ReasonNoValidRace)
	}

	for i := range rows {
		if g := rows[i].row.Gender; g != "Male" && g != "Female" {
			rows[i].row.Gender = genderUnknown
		}
	}
	if len(rows) == 0 {
		return nil, reject(ReasonNoValidGender)
	}

	rows = filter(rows, func(p *pending) bool {
		divisor, ok := termDivisors[p.unit]
		if ok {
			p.row.CommitmentTerm /= divisor
		}
		return ok
	})
	applyNaturalLife(rows)
	if len(rows) == 0 {
		return nil, reject(ReasonNoValidTermUnits)
	}

	rows = filter(rows, func(p *pending) bool {
		return !p.row.HasMissing()
	})
	if len(rows) == 0 {
		return nil, reject(ReasonNoNullFreeExamples)
	}

	out := make([]models.FeatureRow, len(rows))
	for i, p := range rows {
		out[i] = p.row
	}
	if c.consolidate {
		reduceCardinality(out, c.variant, c.categories)
	}

	for i := range out {
		out[i].CommitmentTerm = math.Min(out[i].CommitmentTerm, MaxCommitmentYears)
	}

	log.Debugf("cleaned %d of %d records", len(out), len(records))
	return out, nil
}

// CleanOne cleans a single record
func (c *Cleaner) CleanOne(record models.CaseRecord) (models.FeatureRow, error) {
	rows, err := c.Clean([]models.CaseRecord{record})
	if err != nil {
		return models.FeatureRow{}, err
	}
	return rows[0], nil
}

func fromRecord(r models.CaseRecord) pending {
	return pending{
		unit: r.CommitmentUnit,
		row: models.FeatureRow{
			OffenseCategory:                r.Offense(),
			PrimaryChargeFlag:              r.PrimaryChargeFlag,
			DispositionChargedOffenseTitle: r.DispositionChargedOffenseTitle,
			ChargeCount:                    r.ChargeCount,
			DispositionChargedClass:        r.DispositionChargedClass,
			ChargeDisposition:              r.ChargeDisposition,
			SentenceJudge:                  r.SentenceJudge,
			SentencePhase:                  r.SentencePhase,
			CommitmentTerm:                 r.CommitmentTerm.Float(),
			AgeAtIncident:                  r.AgeAtIncident,
			Race:                           r.Race,
			Gender:                         r.Gender,
			LawEnforcementAgency:           r.LawEnforcementAgency,
		},
	}
}

func filter(rows []pending, keep func(*pending) bool) []pending {
	out := rows[:0]
	for i := range rows {
		if keep(&rows[i]) {
			out = append(out, rows[i])
		}
	}
	return out
}

// applyNaturalLife sets every natural life term to the years between the
// median age at incident of those rows and LifeExpectancyYears
func applyNaturalLife(rows []pending) {
	var ages []float64
	for _, p := range rows {
		if p.unit == unitNaturalLife {
			ages = append(ages, p.row.AgeAtIncident)
		}
	}
	if len(ages) == 0 {
		return
	}

	years := LifeExpectancyYears - median(ages)
	for i := range rows {
		if rows[i].unit == unitNaturalLife {
			rows[i].row.CommitmentTerm = years
		}
	}
}

func median(values []float64) float64 {
	sorted := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			sorted = append(sorted, v)
		}
	}
	if len(sorted) == 0 {
		return math.NaN()
	}
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
