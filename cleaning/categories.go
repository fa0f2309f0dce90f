package cleaning

import (
	"sort"

	"sentencing-discrepancy/models"
)

// MiscOther replaces infrequent categorical values
const MiscOther = "misc_other"

// Limit is the number of most frequent values kept for a column
type Limit struct {
	Column string
	TopN   int
}

// Limits returns the consolidated columns for a variant, in application order
func Limits(variant models.Variant) []Limit {
	return []Limit{
		{Column: variant.OffenseCategoryField(), TopN: 25},
		{Column: models.FieldDispositionChargedOffenseTitle, TopN: 40},
		{Column: models.FieldLawEnforcementAgency, TopN: 20},
		{Column: models.FieldSentenceJudge, TopN: 73},
	}
}

// CategoryTable lists, per column, the values kept as-is (most frequent first)
type CategoryTable map[string][]string

// BuildCategoryTable ranks the values of each consolidated column in rows
func BuildCategoryTable(rows []models.FeatureRow, variant models.Variant) CategoryTable {
	table := make(CategoryTable)
	for _, limit := range Limits(variant) {
		table[limit.Column] = topValues(rows, limit)
	}
	return table
}

func topValues(rows []models.FeatureRow, limit Limit) []string {
	counts := make(map[string]int)
	var order []string
	for i := range rows {
		v := *categoryRef(&rows[i], limit.Column)
		if v == MiscOther {
			continue
		}
		if _, seen := counts[v]; !seen {
			order = append(order, v)
		}
		counts[v]++
	}

	// ties keep first-seen order
	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})
	if len(order) > limit.TopN {
		order = order[:limit.TopN]
	}
	return order
}

// reduceCardinality rewrites infrequent values to MiscOther in place.
// Columns missing from table are ranked from the rows themselves.
func reduceCardinality(rows []models.FeatureRow, variant models.Variant, table CategoryTable) {
	for _, limit := range Limits(variant) {
		kept, ok := table.lookup(limit.Column)
		if !ok {
			kept = topValues(rows, limit)
		} else if len(kept) > limit.TopN {
			kept = kept[:limit.TopN]
		}

		keep := make(map[string]bool, len(kept))
		for _, v := range kept {
			keep[v] = true
		}
		for i := range rows {
			ref := categoryRef(&rows[i], limit.Column)
			if !keep[*ref] {
				*ref = MiscOther
			}
		}
	}
}

// lookup returns the kept values of column. Both spellings of the offense
// category column name the same feature.
func (t CategoryTable) lookup(column string) ([]string, bool) {
	if kept, ok := t[column]; ok {
		return kept, true
	}
	switch column {
	case models.FieldOffenseCategory:
		kept, ok := t[models.FieldUpdatedOffenseCategory]
		return kept, ok
	case models.FieldUpdatedOffenseCategory:
		kept, ok := t[models.FieldOffenseCategory]
		return kept, ok
	}
	return nil, false
}

func categoryRef(row *models.FeatureRow, column string) *string {
	switch column {
	case models.FieldOffenseCategory, models.FieldUpdatedOffenseCategory:
		return &row.OffenseCategory
	case models.FieldDispositionChargedOffenseTitle:
		return &row.DispositionChargedOffenseTitle
	case models.FieldLawEnforcementAgency:
		return &row.LawEnforcementAgency
	case models.FieldSentenceJudge:
		return &row.SentenceJudge
	default:
		panic("cleaning: no categorical column " + column)
	}
}
