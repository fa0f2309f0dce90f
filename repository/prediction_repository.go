package repository

import (
	"context"
	"errors"

	"sentencing-discrepancy/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrPredictionNotFound is returned when no prediction has the requested ID
var ErrPredictionNotFound = errors.New("prediction not found")

// PredictionStore persists prediction outcomes
type PredictionStore interface {
	// Create stores p, assigning ID and CreatedAt
	Create(ctx context.Context, p *models.Prediction) error

	// GetByID retrieves a prediction by ID
	GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error)
}

// PredictionSchema creates the predictions table in PostgreSQL
const PredictionSchema = `
CREATE TABLE IF NOT EXISTS predictions (
    id UUID PRIMARY KEY,
    model_name TEXT NOT NULL,
    variant VARCHAR(16) NOT NULL CHECK (variant IN ('legacy', 'extended')),
    sign_convention VARCHAR(32) NOT NULL,
    discrepancy DOUBLE PRECISION NOT NULL,
    prediction DOUBLE PRECISION NOT NULL,
    severity DOUBLE PRECISION,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_predictions_model_name ON predictions(model_name);
CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
`

// PredictionRepository handles database operations for predictions
type PredictionRepository struct {
	db *pgxpool.Pool
}

// NewPredictionRepository creates a new prediction repository
func NewPredictionRepository(db *pgxpool.Pool) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create creates a new prediction record
func (r *PredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO predictions (
			id, model_name, variant, sign_convention, discrepancy, prediction, severity
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	err := r.db.QueryRow(
		ctx, query,
		p.ID,
		p.ModelName,
		p.Variant,
		p.SignConvention,
		p.Discrepancy,
		p.Prediction,
		p.Severity,
	).Scan(&p.CreatedAt)

	return err
}

// GetByID retrieves a prediction by ID
func (r *PredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	p := &models.Prediction{}
	query := `
		SELECT id, model_name, variant, sign_convention, discrepancy, prediction, severity, created_at
		FROM predictions
		WHERE id = $1`

	err := r.db.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.ModelName,
		&p.Variant,
		&p.SignConvention,
		&p.Discrepancy,
		&p.Prediction,
		&p.Severity,
		&p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPredictionNotFound
	}
	if err != nil {
		return nil, err
	}

	return p, nil
}
