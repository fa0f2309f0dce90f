package config

import (
	"testing"

	"sentencing-discrepancy/models"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"VARIANT", "SIGN_CONVENTION", "MODEL_MANIFEST", "REFERENCE_DISTRIBUTION", "PREDICTION_LOG", "STORAGE_TYPE", "PORT"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.VariantExtended, cfg.Variant)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "models/sentence_pipe_mae1.555_2020-10-10_02h46m24s.yaml", cfg.ModelManifest)
	assert.Equal(t, "models/test_data_percentage_discrepancies.json", cfg.Reference)
	assert.Equal(t, PredictionLogNone, cfg.PredictionLog)
	assert.Empty(t, cfg.SignConvention)
}

func TestLoad_Legacy(t *testing.T) {
	clearEnv(t)
	t.Setenv("VARIANT", "legacy")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, models.VariantLegacy, cfg.Variant)
	assert.Empty(t, cfg.Reference)
}

func TestLoad_Invalid(t *testing.T) {
	clearEnv(t)
	t.Setenv("PREDICTION_LOG", "kafka")
	_, err := Load()
	assert.Error(t, err)

	clearEnv(t)
	t.Setenv("VARIANT", "v3")
	_, err = Load()
	assert.Error(t, err)
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.GetLevel())

	SetupLogging("debug")
	assert.Equal(t, log.DebugLevel, log.GetLevel())

	SetupLogging("loud")
	assert.Equal(t, log.InfoLevel, log.GetLevel())
}
