package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sentencing-discrepancy/cleaning"
	"sentencing-discrepancy/models"
	"sentencing-discrepancy/predictor"
	"sentencing-discrepancy/repository"
	"sentencing-discrepancy/service"
	"sentencing-discrepancy/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestTemplate = `name: sentence_pipe_mae1.555_2020-10-10_02h46m24s
kind: linear
columns: [OFFENSE, RACE, COMMITMENT_TERM]
linear:
  intercept: 2
  numeric: {COMMITMENT_TERM: 0.5}
  categorical:
    RACE: {Black: 4, HISPANIC: 1}
`

type memoryStore struct {
	predictions map[uuid.UUID]*models.Prediction
}

func (m *memoryStore) Create(ctx context.Context, p *models.Prediction) error {
	p.ID = uuid.New()
	m.predictions[p.ID] = p
	return nil
}

func (m *memoryStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	p, ok := m.predictions[id]
	if !ok {
		return nil, repository.ErrPredictionNotFound
	}
	return p, nil
}

func setupRouter(t *testing.T, variant models.Variant, store repository.PredictionStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	doc := strings.Replace(manifestTemplate, "OFFENSE", variant.OffenseCategoryField(), 1)
	manifest, model, err := predictor.Load(strings.NewReader(doc))
	require.NoError(t, err)
	ref, err := service.NewReference([]float64{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)

	v, err := validation.NewValidator(variant)
	require.NoError(t, err)
	e, err := service.NewEstimator(model, manifest.Columns, service.DefaultSignConvention(variant))
	require.NoError(t, err)

	opts := []service.PredictionServiceOption{
		service.WithValidator(v),
		service.WithCleaner(cleaning.NewCleaner(variant)),
		service.WithEstimator(e),
		service.WithReference(ref),
		service.WithModelName(manifest.Name),
	}
	if store != nil {
		opts = append(opts, service.WithPredictionStore(store))
	}
	svc, err := service.NewPredictionService(opts...)
	require.NoError(t, err)

	r := gin.New()
	NewPredictionHandler(svc, &service.Artifacts{Manifest: manifest, Model: model, Reference: ref}).Register(r)
	return r
}

func caseBody(t *testing.T, variant models.Variant, overrides map[string]any) []byte {
	t.Helper()
	rec := map[string]any{
		variant.OffenseCategoryField():      "PROMIS Conversion",
		"PRIMARY_CHARGE_FLAG":               true,
		"DISPOSITION_CHARGED_OFFENSE_TITLE": "ARMED ROBBERY",
		"CHARGE_COUNT":                      1,
		"DISPOSITION_CHARGED_CLASS":         "X",
		"CHARGE_DISPOSITION":                "Plea Of Guilty",
		"SENTENCE_JUDGE":                    "James L Rhodes",
		"SENTENCE_PHASE":                    "Original Sentencing",
		"SENTENCE_TYPE":                     "Prison",
		"COMMITMENT_TERM":                   "10",
		"COMMITMENT_UNIT":                   "Year(s)",
		"LENGTH_OF_CASE_in_Days":            1307,
		"AGE_AT_INCIDENT":                   17,
		"RACE":                              "Black",
		"GENDER":                            "Male",
		"INCIDENT_CITY":                     nil,
		"LAW_ENFORCEMENT_AGENCY":            "PROMIS Data Conversion",
		"LAW_ENFORCEMENT_UNIT":              nil,
	}
	for k, v := range overrides {
		rec[k] = v
	}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	return b
}

func post(r http.Handler, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/predict", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestPredict_Extended(t *testing.T) {
	r := setupRouter(t, models.VariantExtended, nil)

	w := post(r, caseBody(t, models.VariantExtended, nil))
	require.Equal(t, http.StatusOK, w.Code)

	// actual 2+5+4=11, counterfactual White 7
	body := decode(t, w)
	assert.Equal(t, 4.0, body["sentencing_discrepancy"])
	assert.Equal(t, 75.0, body["severity"])
	assert.Equal(t, "sentence_pipe_mae1.555_2020-10-10_02h46m24s", body["model_name"])
	assert.Empty(t, w.Header().Get("X-Prediction-ID"))
}

func TestPredict_Legacy(t *testing.T) {
	r := setupRouter(t, models.VariantLegacy, nil)

	w := post(r, caseBody(t, models.VariantLegacy, nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, map[string]any{"years_of_racial_bias_sentencing_discrepency": -4.0}, body)
}

func TestPredict_BadRequests(t *testing.T) {
	r := setupRouter(t, models.VariantExtended, nil)

	tests := []struct {
		name    string
		body    []byte
		message string
	}{
		{
			name:    "schema",
			body:    caseBody(t, models.VariantExtended, map[string]any{"CHARGE_COUNT": "one"}),
			message: "CHARGE_COUNT",
		},
		{
			name:    "not json",
			body:    []byte("nope"),
			message: "invalid JSON",
		},
		{
			name:    "sentence type",
			body:    caseBody(t, models.VariantExtended, map[string]any{"SENTENCE_TYPE": "Probation"}),
			message: "DATA ERROR: INVALID: No Prison sentences found",
		},
		{
			name:    "race",
			body:    caseBody(t, models.VariantExtended, map[string]any{"RACE": "Unknown"}),
			message: "DATA ERROR: INVALID: No valid race values found",
		},
		{
			name:    "unit",
			body:    caseBody(t, models.VariantExtended, map[string]any{"COMMITMENT_UNIT": "Weekends"}),
			message: "DATA ERROR: INVALID: No valid commitment term units found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := post(r, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			body := decode(t, w)
			assert.Contains(t, body["message"], tt.message)
		})
	}
}

func TestPredict_AuditLogRoundTrip(t *testing.T) {
	store := &memoryStore{predictions: make(map[uuid.UUID]*models.Prediction)}
	r := setupRouter(t, models.VariantExtended, store)

	w := post(r, caseBody(t, models.VariantExtended, nil))
	require.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get("X-Prediction-ID")
	require.NotEmpty(t, id)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/predictions/"+id, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, id, data["id"])
	assert.Equal(t, "actual_minus_counterfactual", data["sign_convention"])
}

func TestGetPrediction_Errors(t *testing.T) {
	r := setupRouter(t, models.VariantExtended, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/predictions/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/predictions/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}

func TestGetModel(t *testing.T) {
	r := setupRouter(t, models.VariantExtended, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/model", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	data := body["data"].(map[string]any)
	assert.Equal(t, "extended", data["variant"])
	assert.Equal(t, "linear", data["kind"])
	assert.Equal(t, 4.0, data["reference_size"])
	artifact := data["artifact"].(map[string]any)
	assert.Equal(t, 1.555, artifact["mae"])
	assert.Equal(t, "sentence_pipe", artifact["pipeline"])
}
