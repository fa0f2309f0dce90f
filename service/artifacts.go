package service

import (
	"context"
	"errors"
	"fmt"

	"sentencing-discrepancy/predictor"
	"sentencing-discrepancy/storage"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// ArtifactKeys names the artifacts to load from storage.
// Reference may be empty when severity is not served.
type ArtifactKeys struct {
	Manifest  string
	Reference string
}

// Artifacts is the process-wide, read-only state built once at startup
type Artifacts struct {
	Manifest  *predictor.Manifest
	Model     predictor.Predictor
	Reference *Reference
}

// LoadArtifacts downloads and builds the model and reference distribution
// concurrently. Any error here is meant to stop the process.
func LoadArtifacts(ctx context.Context, store storage.Storage, keys ArtifactKeys) (*Artifacts, error) {
	if keys.Manifest == "" {
		return nil, fmt.Errorf("model manifest key required")
	}

	a := &Artifacts{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		r, err := store.Download(ctx, keys.Manifest)
		if err != nil {
			return fmt.Errorf("failed to download model manifest: %w", withPublishHint(err))
		}
		defer r.Close()

		manifest, model, err := predictor.Load(r)
		if err != nil {
			return fmt.Errorf("failed to load model %s: %w", keys.Manifest, err)
		}
		a.Manifest = manifest
		a.Model = model
		return nil
	})

	if keys.Reference != "" {
		g.Go(func() error {
			r, err := store.Download(ctx, keys.Reference)
			if err != nil {
				return fmt.Errorf("failed to download reference distribution: %w", withPublishHint(err))
			}
			defer r.Close()

			ref, err := ReadReference(r)
			if err != nil {
				return fmt.Errorf("failed to load reference distribution %s: %w", keys.Reference, err)
			}
			a.Reference = ref
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Printf("Loaded model %s (%s, %d columns)", a.Manifest.Name, a.Manifest.Kind, len(a.Manifest.Columns))
	if a.Reference != nil {
		log.Printf("Loaded reference distribution with %d values", a.Reference.Len())
	}
	return a, nil
}

func withPublishHint(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("%w (upload it with discrepancy-cli publish)", err)
	}
	return err
}
