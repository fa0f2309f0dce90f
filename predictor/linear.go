package predictor

import (
	"context"

	"github.com/pkg/errors"
)

// LinearSpec holds the coefficients of an exported linear pipeline:
// numeric terms, boolean indicators and one-hot categorical weights.
// Categories missing from a column's weights contribute nothing.
type LinearSpec struct {
	Intercept   float64                       `yaml:"intercept"`
	Numeric     map[string]float64            `yaml:"numeric,omitempty"`
	Boolean     map[string]float64            `yaml:"boolean,omitempty"`
	Categorical map[string]map[string]float64 `yaml:"categorical,omitempty"`
}

type linearTerm struct {
	column      string
	numeric     *float64
	boolean     *float64
	categorical map[string]float64
}

// LinearModel evaluates a LinearSpec against rows in manifest column order
type LinearModel struct {
	intercept float64
	terms     []linearTerm
}

// NewLinearModel binds spec coefficients to column positions
func NewLinearModel(columns []string, spec LinearSpec) (*LinearModel, error) {
	index := make(map[string]int, len(columns))
	terms := make([]linearTerm, len(columns))
	for i, c := range columns {
		index[c] = i
		terms[i].column = c
	}

	for c, w := range spec.Numeric {
		i, ok := index[c]
		if !ok {
			return nil, errors.Errorf("numeric coefficient for unknown column %s", c)
		}
		w := w
		terms[i].numeric = &w
	}
	for c, w := range spec.Boolean {
		i, ok := index[c]
		if !ok {
			return nil, errors.Errorf("boolean coefficient for unknown column %s", c)
		}
		w := w
		terms[i].boolean = &w
	}
	for c, weights := range spec.Categorical {
		i, ok := index[c]
		if !ok {
			return nil, errors.Errorf("categorical weights for unknown column %s", c)
		}
		terms[i].categorical = weights
	}

	return &LinearModel{intercept: spec.Intercept, terms: terms}, nil
}

// Predict implements Predictor
func (m *LinearModel) Predict(ctx context.Context, rows [][]any) ([]float64, error) {
	out := make([]float64, len(rows))
	for r, row := range rows {
		if len(row) != len(m.terms) {
			return nil, errors.Errorf("row %d has %d values, model expects %d", r, len(row), len(m.terms))
		}
		y := m.intercept
		for i, t := range m.terms {
			contribution, err := t.apply(row[i])
			if err != nil {
				return nil, errors.Wrapf(err, "row %d", r)
			}
			y += contribution
		}
		out[r] = y
	}
	return out, nil
}

func (t linearTerm) apply(v any) (float64, error) {
	switch {
	case t.numeric != nil:
		x, ok := toFloat(v)
		if !ok {
			return 0, errors.Errorf("column %s: expected a number, got %T", t.column, v)
		}
		return *t.numeric * x, nil
	case t.boolean != nil:
		b, ok := v.(bool)
		if !ok {
			return 0, errors.Errorf("column %s: expected a boolean, got %T", t.column, v)
		}
		if b {
			return *t.boolean, nil
		}
		return 0, nil
	case t.categorical != nil:
		s, _ := v.(string)
		return t.categorical[s], nil
	default:
		return 0, nil
	}
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	default:
		return 0, false
	}
}
