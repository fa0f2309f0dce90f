package main

import (
	"context"
	"os"

	"sentencing-discrepancy/cleaning"
	"sentencing-discrepancy/models"
	"sentencing-discrepancy/service"
	"sentencing-discrepancy/storage"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

var (
	manifestKeyFlag = &cli.StringFlag{
		Name:     "manifest",
		Usage:    "Model manifest key in the artifact store",
		Sources:  cli.EnvVars("MODEL_MANIFEST"),
		Required: true,
	}

	referenceKeyFlag = &cli.StringFlag{
		Name:    "reference",
		Usage:   "Reference distribution key in the artifact store (enables severity)",
		Sources: cli.EnvVars("REFERENCE_DISTRIBUTION"),
	}

	signFlag = &cli.StringFlag{
		Name:    "sign",
		Usage:   "Sign convention [actual_minus_counterfactual, counterfactual_minus_actual] (default: variant's)",
		Sources: cli.EnvVars("SIGN_CONVENTION"),
	}

	scoreCmd = &cli.Command{
		Name:  "score",
		Usage: "Estimate discrepancy and severity for a batch of case records",
		UsageText: `discrepancy-cli score --input cases.jsonl --manifest models/sentence_pipe_mae1.555_2020-10-10_02h46m24s.yaml \
     --reference models/test_data_percentage_discrepancies.json`,
		Action: cmdScore,
		Flags: []cli.Flag{
			inputFlag,
			variantFlag,
			manifestKeyFlag,
			referenceKeyFlag,
			signFlag,
		},
	}
)

type scoredRow struct {
	models.FeatureRow
	Discrepancy float64  `json:"sentencing_discrepancy"`
	Prediction  float64  `json:"prediction"`
	Severity    *float64 `json:"severity,omitempty"`
	ModelName   string   `json:"model_name"`
}

func cmdScore(ctx context.Context, cmd *cli.Command) error {
	variant, records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	sign, err := service.ParseSignConvention(cmd.String(signFlag.Name), variant)
	if err != nil {
		return err
	}

	storageCfg, err := storage.ConfigFromEnv()
	if err != nil {
		return err
	}
	store, err := storage.NewStorage(storageCfg)
	if err != nil {
		return err
	}

	artifacts, err := service.LoadArtifacts(ctx, store, service.ArtifactKeys{
		Manifest:  cmd.String(manifestKeyFlag.Name),
		Reference: cmd.String(referenceKeyFlag.Name),
	})
	if err != nil {
		return err
	}

	var opts []cleaning.CleanerOption
	if len(artifacts.Manifest.CategoryTable) > 0 {
		opts = append(opts, cleaning.WithCategoryTable(artifacts.Manifest.CategoryTable))
	}
	rows, err := cleaning.NewCleaner(variant, opts...).Clean(records)
	if err != nil {
		return err
	}

	estimator, err := service.NewEstimator(artifacts.Model, artifacts.Manifest.Columns, sign)
	if err != nil {
		return err
	}
	discrepancies, predictions, err := estimator.Estimate(ctx, rows)
	if err != nil {
		return err
	}

	var severities []float64
	if artifacts.Reference != nil {
		severities = artifacts.Reference.Severities(service.PercentDiscrepancies(discrepancies, predictions))
	}

	out := make([]scoredRow, len(rows))
	for i, row := range rows {
		out[i] = scoredRow{
			FeatureRow:  row,
			Discrepancy: service.Round3(discrepancies[i]),
			Prediction:  service.Round3(predictions[i]),
			ModelName:   artifacts.Manifest.Name,
		}
		if severities != nil {
			s := service.Round3(severities[i])
			out[i].Severity = &s
		}
	}

	log.Infof("scored %d rows with %s (%s)", len(out), artifacts.Manifest.Name, sign)
	return writeJSONLines(os.Stdout, out)
}
