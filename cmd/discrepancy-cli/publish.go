package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"sentencing-discrepancy/predictor"
	"sentencing-discrepancy/service"
	"sentencing-discrepancy/storage"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

var (
	manifestFileFlag = &cli.StringFlag{
		Name:     "manifest",
		Usage:    "Path to the model manifest YAML",
		Required: true,
	}

	referenceFileFlag = &cli.StringFlag{
		Name:  "reference",
		Usage: "Path to the reference distribution JSON array",
	}

	prefixFlag = &cli.StringFlag{
		Name:  "prefix",
		Usage: "Key prefix in the artifact store",
		Value: "models",
	}

	publishCmd = &cli.Command{
		Name:  "publish",
		Usage: "Validate and upload a model manifest and reference distribution to the artifact store",
		UsageText: `discrepancy-cli publish --manifest sentence_pipe_mae1.555_2020-10-10_02h46m24s.yaml \
     --reference test_data_percentage_discrepancies.json`,
		Action: cmdPublish,
		Flags: []cli.Flag{
			manifestFileFlag,
			referenceFileFlag,
			prefixFlag,
		},
	}
)

func cmdPublish(ctx context.Context, cmd *cli.Command) error {
	manifestPath := cmd.String(manifestFileFlag.Name)
	referencePath := cmd.String(referenceFileFlag.Name)
	prefix := cmd.String(prefixFlag.Name)

	// refuse to publish artifacts the server would fail to load
	if err := checkFile(manifestPath, func(f *os.File) error {
		_, _, err := predictor.Load(f)
		return err
	}); err != nil {
		return err
	}
	if referencePath != "" {
		if err := checkFile(referencePath, func(f *os.File) error {
			_, err := service.ReadReference(f)
			return err
		}); err != nil {
			return err
		}
	}

	storageCfg, err := storage.ConfigFromEnv()
	if err != nil {
		return err
	}
	store, err := storage.NewStorage(storageCfg)
	if err != nil {
		return err
	}

	manifestKey := path.Join(prefix, filepath.Base(manifestPath))
	if err := upload(ctx, store, manifestKey, manifestPath); err != nil {
		return err
	}
	log.Infof("published %s", manifestKey)

	if referencePath == "" {
		return nil
	}

	referenceKey := path.Join(prefix, filepath.Base(referencePath))
	if err := upload(ctx, store, referenceKey, referencePath); err != nil {
		// don't leave a model without its reference distribution
		if delErr := store.Delete(ctx, manifestKey); delErr != nil {
			log.Warnf("failed to remove %s: %v", manifestKey, delErr)
		}
		return err
	}
	log.Infof("published %s", referenceKey)
	return nil
}

func checkFile(p string, check func(*os.File) error) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()
	if err := check(f); err != nil {
		return fmt.Errorf("invalid artifact %s: %w", p, err)
	}
	return nil
}

func upload(ctx context.Context, store storage.Storage, key, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", p, err)
	}
	defer f.Close()
	return store.Upload(ctx, key, f)
}
