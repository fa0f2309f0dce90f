package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sentencing-discrepancy/models"
	"sentencing-discrepancy/predictor"
)

// SignConvention fixes which prediction is subtracted from which
type SignConvention string

const (
	// ActualMinusCounterfactual is positive when the recorded race receives
	// the harsher predicted sentence
	ActualMinusCounterfactual SignConvention = "actual_minus_counterfactual"
	// CounterfactualMinusActual is positive when the counterfactual race
	// receives the harsher predicted sentence
	CounterfactualMinusActual SignConvention = "counterfactual_minus_actual"
)

// DefaultSignConvention returns the convention each variant has always used
func DefaultSignConvention(variant models.Variant) SignConvention {
	if variant == models.VariantLegacy {
		return CounterfactualMinusActual
	}
	return ActualMinusCounterfactual
}

// ParseSignConvention converts a configuration value into a SignConvention.
// An empty value selects the variant default.
func ParseSignConvention(s string, variant models.Variant) (SignConvention, error) {
	switch c := SignConvention(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return DefaultSignConvention(variant), nil
	case ActualMinusCounterfactual, CounterfactualMinusActual:
		return c, nil
	default:
		return "", fmt.Errorf("unknown sign convention: %s", s)
	}
}

func (c SignConvention) apply(actual, counterfactual float64) float64 {
	if c == CounterfactualMinusActual {
		return counterfactual - actual
	}
	return actual - counterfactual
}

// Estimator computes the predicted sentence difference between each row and
// its race counterfactual
type Estimator struct {
	model   predictor.Predictor
	columns []string
	sign    SignConvention
}

// NewEstimator creates an estimator feeding rows to model in column order
func NewEstimator(model predictor.Predictor, columns []string, sign SignConvention) (*Estimator, error) {
	if model == nil {
		return nil, errors.New("model required")
	}
	if len(columns) == 0 {
		return nil, errors.New("feature columns required")
	}
	return &Estimator{
		model:   model,
		columns: append([]string(nil), columns...),
		sign:    sign,
	}, nil
}

// SignConvention returns the active sign convention
func (e *Estimator) SignConvention() SignConvention {
	return e.sign
}

// Estimate returns one discrepancy and one raw prediction per row
func (e *Estimator) Estimate(ctx context.Context, rows []models.FeatureRow) (discrepancies, predictions []float64, err error) {
	actual, err := e.predict(ctx, rows)
	if err != nil {
		return nil, nil, err
	}
	counterfactual, err := e.predict(ctx, Counterfactuals(rows))
	if err != nil {
		return nil, nil, err
	}

	discrepancies = make([]float64, len(rows))
	for i := range rows {
		discrepancies[i] = e.sign.apply(actual[i], counterfactual[i])
	}
	return discrepancies, actual, nil
}

func (e *Estimator) predict(ctx context.Context, rows []models.FeatureRow) ([]float64, error) {
	matrix := make([][]any, len(rows))
	for i, row := range rows {
		values, err := row.Project(e.columns)
		if err != nil {
			return nil, err
		}
		matrix[i] = values
	}

	out, err := e.model.Predict(ctx, matrix)
	if err != nil {
		return nil, fmt.Errorf("failed to predict: %w", err)
	}
	if len(out) != len(rows) {
		return nil, fmt.Errorf("model returned %d predictions for %d rows", len(out), len(rows))
	}
	return out, nil
}
