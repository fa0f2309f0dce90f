package predictor

import (
	"io"

	"sentencing-discrepancy/models"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Manifest describes a versioned model artifact and the exact feature
// columns, in order, that it was fit on.
type Manifest struct {
	Name          string              `yaml:"name"`
	Kind          string              `yaml:"kind"`
	Columns       []string            `yaml:"columns"`
	CategoryTable map[string][]string `yaml:"category_table,omitempty"`
	Linear        *LinearSpec         `yaml:"linear,omitempty"`
	Remote        *RemoteSpec         `yaml:"remote,omitempty"`
}

// ReadManifest decodes and validates a YAML manifest
func ReadManifest(r io.Reader) (*Manifest, error) {
	m := &Manifest{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(m); err != nil {
		return nil, errors.Wrap(err, "failed to decode model manifest")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks that the manifest names a model and a usable column order
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return errors.New("model manifest has no name")
	}
	if len(m.Columns) == 0 {
		return errors.Errorf("model manifest %s has no columns", m.Name)
	}

	seen := make(map[string]bool, len(m.Columns))
	for _, c := range m.Columns {
		if seen[c] {
			return errors.Errorf("model manifest %s repeats column %s", m.Name, c)
		}
		seen[c] = true
		if _, err := (models.FeatureRow{}).Value(c); err != nil {
			return errors.Wrapf(err, "model manifest %s", m.Name)
		}
	}
	return nil
}

// Info returns the metadata encoded in the manifest's artifact name
func (m *Manifest) Info() ArtifactInfo {
	info, err := ParseArtifactName(m.Name)
	if err != nil {
		return ArtifactInfo{Name: m.Name}
	}
	return info
}
