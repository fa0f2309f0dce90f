package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const defaultRemoteTimeout = 10 * time.Second

// RemoteSpec points at a model server that hosts the exported pipeline
type RemoteSpec struct {
	URL       string        `yaml:"url"`
	Timeout   time.Duration `yaml:"timeout,omitempty"`
	APIKeyEnv string        `yaml:"api_key_env,omitempty"`
}

// RemoteModel sends feature rows to a model server over HTTP
type RemoteModel struct {
	columns []string
	url     string
	apiKey  string
	client  *http.Client
}

type remoteRequest struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// NewRemoteModel creates a client for the model server in spec
func NewRemoteModel(columns []string, spec RemoteSpec) (*RemoteModel, error) {
	if spec.URL == "" {
		return nil, errors.New("remote model url required")
	}
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = defaultRemoteTimeout
	}

	m := &RemoteModel{
		columns: columns,
		url:     spec.URL,
		client:  &http.Client{Timeout: timeout},
	}
	if spec.APIKeyEnv != "" {
		m.apiKey = os.Getenv(spec.APIKeyEnv)
		if m.apiKey == "" {
			log.Warnf("%s not set, calling model server without a key", spec.APIKeyEnv)
		}
	}
	return m, nil
}

// Predict implements Predictor
func (m *RemoteModel) Predict(ctx context.Context, rows [][]any) ([]float64, error) {
	jsonData, err := json.Marshal(remoteRequest{Columns: m.columns, Rows: rows})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal rows")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to call model server")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read model server response")
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("model server error: status %d, body: %s", resp.StatusCode, string(body))
		return nil, errors.Errorf("model server error: %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, errors.Wrap(err, "failed to decode model server response")
	}
	if out.Error != "" {
		return nil, errors.Errorf("model server error: %s", out.Error)
	}
	if len(out.Predictions) != len(rows) {
		return nil, errors.Errorf("model server returned %d predictions for %d rows", len(out.Predictions), len(rows))
	}
	return out.Predictions, nil
}
