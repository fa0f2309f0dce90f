package main

import (
	"context"

	"sentencing-discrepancy/cleaning"
	"sentencing-discrepancy/config"
	"sentencing-discrepancy/handlers"
	"sentencing-discrepancy/repository"
	"sentencing-discrepancy/service"
	"sentencing-discrepancy/storage"
	"sentencing-discrepancy/validation"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

func main() {
	config.LoadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	config.SetupLogging(cfg.LogLevel)

	// Initialize storage
	artifactStore, err := storage.NewStorage(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Printf("Storage initialized (%s)", cfg.Storage.Type)

	// Model and reference distribution are loaded once and never rewritten
	artifacts, err := service.LoadArtifacts(context.Background(), artifactStore, service.ArtifactKeys{
		Manifest:  cfg.ModelManifest,
		Reference: cfg.Reference,
	})
	if err != nil {
		log.Fatalf("Failed to load artifacts: %v", err)
	}

	sign, err := service.ParseSignConvention(cfg.SignConvention, cfg.Variant)
	if err != nil {
		log.Fatalf("Invalid SIGN_CONVENTION: %v", err)
	}
	log.Printf("Serving %s variant, discrepancy sign convention %s", cfg.Variant, sign)

	validator, err := validation.NewValidator(cfg.Variant)
	if err != nil {
		log.Fatalf("Failed to initialize validator: %v", err)
	}

	var cleanerOpts []cleaning.CleanerOption
	if len(artifacts.Manifest.CategoryTable) > 0 {
		cleanerOpts = append(cleanerOpts, cleaning.WithCategoryTable(artifacts.Manifest.CategoryTable))
		log.Println("Cardinality reduction uses the model's category table")
	} else {
		log.Println("Model has no category table, cardinality reduction ranks each request")
	}
	cleaner := cleaning.NewCleaner(cfg.Variant, cleanerOpts...)

	estimator, err := service.NewEstimator(artifacts.Model, artifacts.Manifest.Columns, sign)
	if err != nil {
		log.Fatalf("Failed to initialize estimator: %v", err)
	}

	opts := []service.PredictionServiceOption{
		service.WithValidator(validator),
		service.WithCleaner(cleaner),
		service.WithEstimator(estimator),
		service.WithReference(artifacts.Reference),
		service.WithModelName(artifacts.Manifest.Name),
	}

	// Initialize prediction log
	switch cfg.PredictionLog {
	case config.PredictionLogPostgres:
		db, err := initPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to initialize Postgres:", err)
		}
		defer db.Close()
		opts = append(opts, service.WithPredictionStore(repository.NewPredictionRepository(db)))
	case config.PredictionLogSQLite:
		repo, err := repository.OpenSQLitePredictionRepository(cfg.SQLitePath)
		if err != nil {
			log.Fatal("Failed to initialize SQLite:", err)
		}
		defer repo.Close()
		opts = append(opts, service.WithPredictionStore(repo))
		log.Printf("Logging predictions to %s", cfg.SQLitePath)
	}

	predictionService, err := service.NewPredictionService(opts...)
	if err != nil {
		log.Fatalf("Failed to initialize prediction service: %v", err)
	}

	predictionHandler := handlers.NewPredictionHandler(predictionService, artifacts)

	// Setup Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	predictionHandler.Register(r)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}
