package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"sentencing-discrepancy/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManifest = `name: sentence_pipe_mae1.555_2020-10-10_02h46m24s
kind: linear
columns: [UPDATED_OFFENSE_CATEGORY, RACE]
linear:
  intercept: 10
  categorical:
    RACE: {Black: 2}
`

func newArtifactStore(t *testing.T) storage.Storage {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Upload(ctx, "models/model.yaml", strings.NewReader(testManifest)))
	require.NoError(t, store.Upload(ctx, "models/reference.json", strings.NewReader("[0.4, -0.1, 0.3, 0.2]")))
	require.NoError(t, store.Upload(ctx, "models/broken.json", strings.NewReader("{")))
	return store
}

func TestLoadArtifacts(t *testing.T) {
	store := newArtifactStore(t)

	a, err := LoadArtifacts(context.Background(), store, ArtifactKeys{
		Manifest:  "models/model.yaml",
		Reference: "models/reference.json",
	})
	require.NoError(t, err)
	assert.Equal(t, "sentence_pipe_mae1.555_2020-10-10_02h46m24s", a.Manifest.Name)
	assert.NotNil(t, a.Model)
	require.NotNil(t, a.Reference)
	assert.Equal(t, 4, a.Reference.Len())
}

func TestLoadArtifacts_WithoutReference(t *testing.T) {
	a, err := LoadArtifacts(context.Background(), newArtifactStore(t), ArtifactKeys{Manifest: "models/model.yaml"})
	require.NoError(t, err)
	assert.Nil(t, a.Reference)
}

func TestLoadArtifacts_Errors(t *testing.T) {
	store := newArtifactStore(t)
	ctx := context.Background()

	_, err := LoadArtifacts(ctx, store, ArtifactKeys{})
	assert.Error(t, err)

	_, err = LoadArtifacts(ctx, store, ArtifactKeys{Manifest: "models/missing.yaml"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.Contains(t, err.Error(), "discrepancy-cli publish")

	_, err = LoadArtifacts(ctx, store, ArtifactKeys{Manifest: "models/model.yaml", Reference: "models/test_data_percentage_discrepancies.json"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	assert.Contains(t, err.Error(), "reference distribution")

	_, err = LoadArtifacts(ctx, store, ArtifactKeys{Manifest: "models/model.yaml", Reference: "models/broken.json"})
	assert.Error(t, err)

	_, err = LoadArtifacts(ctx, store, ArtifactKeys{Manifest: "models/reference.json"})
	assert.Error(t, err)
}
