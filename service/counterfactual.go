package service

import "sentencing-discrepancy/models"

// White becomes Black, every other race becomes White
var counterfactualRace = map[string]string{
	"Black":           "White",
	"White":           "Black",
	"HISPANIC":        "White",
	"Asian":           "White",
	"American Indian": "White",
}

// Counterfactual returns a copy of row with race switched to its
// counterfactual value. Races outside the map become missing.
func Counterfactual(row models.FeatureRow) models.FeatureRow {
	cf := row
	cf.Race = counterfactualRace[row.Race]
	return cf
}

// Counterfactuals applies Counterfactual to every row
func Counterfactuals(rows []models.FeatureRow) []models.FeatureRow {
	out := make([]models.FeatureRow, len(rows))
	for i, row := range rows {
		out[i] = Counterfactual(row)
	}
	return out
}
