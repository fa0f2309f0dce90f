package repository

import (
	"context"
	"database/sql"
	"time"

	"sentencing-discrepancy/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

const sqlitePredictionSchema = `
CREATE TABLE IF NOT EXISTS predictions (
    id TEXT PRIMARY KEY,
    model_name TEXT NOT NULL,
    variant TEXT NOT NULL,
    sign_convention TEXT NOT NULL,
    discrepancy REAL NOT NULL,
    prediction REAL NOT NULL,
    severity REAL,
    created_at TEXT NOT NULL
);
`

// SQLitePredictionRepository stores predictions in a local SQLite file
type SQLitePredictionRepository struct {
	db *sql.DB
}

// OpenSQLitePredictionRepository opens (creating if needed) the database at path
func OpenSQLitePredictionRepository(path string) (*SQLitePredictionRepository, error) {
	if path == "" {
		return nil, errors.New("sqlite path not specified")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening database: %s", path)
	}

	log.Debug("creating predictions schema...")
	if _, err := db.Exec(sqlitePredictionSchema); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to create predictions schema in: %s", path)
	}

	return &SQLitePredictionRepository{db: db}, nil
}

// Close closes the underlying database
func (r *SQLitePredictionRepository) Close() error {
	return r.db.Close()
}

// Create creates a new prediction record
func (r *SQLitePredictionRepository) Create(ctx context.Context, p *models.Prediction) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now().UTC()

	var severity sql.NullFloat64
	if p.Severity != nil {
		severity = sql.NullFloat64{Float64: *p.Severity, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO predictions (
			id, model_name, variant, sign_convention, discrepancy, prediction, severity, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID.String(),
		p.ModelName,
		string(p.Variant),
		p.SignConvention,
		p.Discrepancy,
		p.Prediction,
		severity,
		p.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return errors.Wrap(err, "failed to insert prediction")
	}
	return nil
}

// GetByID retrieves a prediction by ID
func (r *SQLitePredictionRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	var (
		p         models.Prediction
		rawID     string
		variant   string
		severity  sql.NullFloat64
		createdAt string
	)

	err := r.db.QueryRowContext(ctx, `
		SELECT id, model_name, variant, sign_convention, discrepancy, prediction, severity, created_at
		FROM predictions
		WHERE id = ?`, id.String()).Scan(
		&rawID,
		&p.ModelName,
		&variant,
		&p.SignConvention,
		&p.Discrepancy,
		&p.Prediction,
		&severity,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPredictionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get prediction %s", id)
	}

	if p.ID, err = uuid.Parse(rawID); err != nil {
		return nil, errors.Wrapf(err, "invalid prediction id: %s", rawID)
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, errors.Wrapf(err, "invalid created_at for prediction %s", rawID)
	}
	p.Variant = models.Variant(variant)
	if severity.Valid {
		v := severity.Float64
		p.Severity = &v
	}
	return &p, nil
}
