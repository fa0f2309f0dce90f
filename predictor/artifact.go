package predictor

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const trainedAtLayout = "2006-01-02_15h04m05s"

var artifactNameRegex = regexp.MustCompile(`^(.+)_mae(\d+(?:\.\d+)?)_(\d{4}-\d{2}-\d{2}_\d{2}h\d{2}m\d{2}s)$`)

// ArtifactInfo is the metadata carried by a model artifact name such as
// sentence_pipe_mae1.555_2020-10-10_02h46m24s
type ArtifactInfo struct {
	Name      string     `json:"name"`
	Pipeline  string     `json:"pipeline,omitempty"`
	MAE       *float64   `json:"mae,omitempty"`
	TrainedAt *time.Time `json:"trained_at,omitempty"`
}

var artifactExtensions = []string{".pkl", ".joblib", ".yaml", ".yml", ".json"}

// ArtifactName strips directories and a known extension from an artifact
// path. The mae part of a name contains a dot, so path.Ext can't be used.
func ArtifactName(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	for _, ext := range artifactExtensions {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

// ParseArtifactName decodes the validation MAE and training timestamp from
// an artifact name or path
func ParseArtifactName(p string) (ArtifactInfo, error) {
	name := ArtifactName(p)
	info := ArtifactInfo{Name: name}

	match := artifactNameRegex.FindStringSubmatch(name)
	if match == nil {
		return info, errors.Errorf("artifact name %q does not encode mae and timestamp", name)
	}

	mae, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return info, errors.Wrapf(err, "invalid mae in %q", name)
	}
	trainedAt, err := time.Parse(trainedAtLayout, match[3])
	if err != nil {
		return info, errors.Wrapf(err, "invalid timestamp in %q", name)
	}

	info.Pipeline = match[1]
	info.MAE = &mae
	info.TrainedAt = &trainedAt
	return info, nil
}
