// Package predictor holds the boundary to the trained sentence-length model.
// The model is opaque: it receives feature rows in the manifest's column
// order and answers with one predicted sentence length (years) per row.
package predictor

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

// Predictor returns one prediction per row. Each row holds values in the
// order of the manifest's Columns.
type Predictor interface {
	Predict(ctx context.Context, rows [][]any) ([]float64, error)
}

// Model kinds a manifest may declare
const (
	KindLinear = "linear"
	KindRemote = "remote"
)

// FromManifest builds the predictor a manifest describes
func FromManifest(m *Manifest) (Predictor, error) {
	switch m.Kind {
	case KindLinear:
		if m.Linear == nil {
			return nil, errors.New("linear manifest has no coefficients")
		}
		return NewLinearModel(m.Columns, *m.Linear)
	case KindRemote:
		if m.Remote == nil {
			return nil, errors.New("remote manifest has no endpoint")
		}
		return NewRemoteModel(m.Columns, *m.Remote)
	default:
		return nil, errors.Errorf("unknown model kind: %q", m.Kind)
	}
}

// Load parses a manifest and builds its predictor
func Load(r io.Reader) (*Manifest, Predictor, error) {
	m, err := ReadManifest(r)
	if err != nil {
		return nil, nil, err
	}
	p, err := FromManifest(m)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "failed to build model %s", m.Name)
	}
	return m, p, nil
}
