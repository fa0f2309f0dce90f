package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"sentencing-discrepancy/cleaning"
	"sentencing-discrepancy/models"
	"sentencing-discrepancy/validation"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

var (
	categoryTableFlag = &cli.StringFlag{
		Name:  "categories",
		Usage: "YAML category table to consolidate against (default: rank the batch)",
	}

	cleanCmd = &cli.Command{
		Name:  "clean",
		Usage: "Clean a batch of case records into model feature rows (JSON lines on stdout)",
		UsageText: `discrepancy-cli clean --input cases.jsonl
   discrepancy-cli clean --input cases.json --categories categories.yaml`,
		Action: cmdClean,
		Flags: []cli.Flag{
			inputFlag,
			variantFlag,
			categoryTableFlag,
		},
	}

	categoriesCmd = &cli.Command{
		Name:      "categories",
		Usage:     "Compute the category table of a training batch (YAML on stdout)",
		UsageText: `discrepancy-cli categories --input training.jsonl > categories.yaml`,
		Action:    cmdCategories,
		Flags: []cli.Flag{
			inputFlag,
			variantFlag,
		},
	}
)

func cmdClean(ctx context.Context, cmd *cli.Command) error {
	variant, records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	var opts []cleaning.CleanerOption
	if path := cmd.String(categoryTableFlag.Name); path != "" {
		table, err := readCategoryTable(path)
		if err != nil {
			return err
		}
		opts = append(opts, cleaning.WithCategoryTable(table))
	}

	rows, err := cleaning.NewCleaner(variant, opts...).Clean(records)
	if err != nil {
		return err
	}
	return writeJSONLines(os.Stdout, rows)
}

func cmdCategories(ctx context.Context, cmd *cli.Command) error {
	variant, records, err := loadRecords(cmd)
	if err != nil {
		return err
	}

	// rank the rows as they look right before consolidation
	rows, err := cleaning.NewCleaner(variant, cleaning.WithoutConsolidation()).Clean(records)
	if err != nil {
		return err
	}

	out := map[string]cleaning.CategoryTable{
		"category_table": cleaning.BuildCategoryTable(rows, variant),
	}
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(out)
}

func loadRecords(cmd *cli.Command) (models.Variant, []models.CaseRecord, error) {
	variant, err := models.ParseVariant(cmd.String(variantFlag.Name))
	if err != nil {
		return "", nil, err
	}
	validator, err := validation.NewValidator(variant)
	if err != nil {
		return "", nil, err
	}

	in, err := openInput(cmd.String(inputFlag.Name))
	if err != nil {
		return "", nil, err
	}
	defer in.Close()

	records, err := readRecords(in, validator)
	if err != nil {
		return "", nil, err
	}
	if len(records) == 0 {
		return "", nil, errors.New("no valid records in input")
	}
	return variant, records, nil
}

func readCategoryTable(path string) (cleaning.CategoryTable, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category table: %w", err)
	}

	// accept a bare table or a manifest-style document
	var doc struct {
		CategoryTable cleaning.CategoryTable `yaml:"category_table"`
	}
	if err := yaml.Unmarshal(b, &doc); err == nil && len(doc.CategoryTable) > 0 {
		return doc.CategoryTable, nil
	}
	var table cleaning.CategoryTable
	if err := yaml.Unmarshal(b, &table); err != nil {
		return nil, fmt.Errorf("failed to parse category table: %w", err)
	}
	return table, nil
}
