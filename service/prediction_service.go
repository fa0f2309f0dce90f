package service

import (
	"context"
	"errors"
	"math"

	"sentencing-discrepancy/cleaning"
	"sentencing-discrepancy/models"
	"sentencing-discrepancy/repository"
	"sentencing-discrepancy/validation"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrValidatorNotSet = errors.New("validator not set")
	ErrCleanerNotSet   = errors.New("cleaner not set")
	ErrEstimatorNotSet = errors.New("estimator not set")
	ErrReferenceNotSet = errors.New("reference distribution not set")
)

// PredictionService handles the discrepancy endpoint logic
type PredictionService struct {
	validator *validation.Validator
	cleaner   *cleaning.Cleaner
	estimator *Estimator
	reference *Reference
	store     repository.PredictionStore
	modelName string
}

// PredictionServiceOption is a functional option for PredictionService
type PredictionServiceOption func(*PredictionService)

// WithValidator sets the schema validator
func WithValidator(v *validation.Validator) PredictionServiceOption {
	return func(s *PredictionService) {
		s.validator = v
	}
}

// WithCleaner sets the record cleaner
func WithCleaner(c *cleaning.Cleaner) PredictionServiceOption {
	return func(s *PredictionService) {
		s.cleaner = c
	}
}

// WithEstimator sets the discrepancy estimator
func WithEstimator(e *Estimator) PredictionServiceOption {
	return func(s *PredictionService) {
		s.estimator = e
	}
}

// WithReference sets the severity reference distribution
func WithReference(r *Reference) PredictionServiceOption {
	return func(s *PredictionService) {
		s.reference = r
	}
}

// WithPredictionStore enables the prediction audit log
func WithPredictionStore(store repository.PredictionStore) PredictionServiceOption {
	return func(s *PredictionService) {
		s.store = store
	}
}

// WithModelName sets the model name reported to callers
func WithModelName(name string) PredictionServiceOption {
	return func(s *PredictionService) {
		s.modelName = name
	}
}

// NewPredictionService creates a new prediction service
func NewPredictionService(opts ...PredictionServiceOption) (*PredictionService, error) {
	s := &PredictionService{}
	for _, opt := range opts {
		opt(s)
	}

	switch {
	case s.validator == nil:
		return nil, ErrValidatorNotSet
	case s.cleaner == nil:
		return nil, ErrCleanerNotSet
	case s.estimator == nil:
		return nil, ErrEstimatorNotSet
	case s.validator.Variant() == models.VariantExtended && s.reference == nil:
		return nil, ErrReferenceNotSet
	}
	return s, nil
}

// Variant returns the endpoint variant being served
func (s *PredictionService) Variant() models.Variant {
	return s.validator.Variant()
}

// SignConvention returns the active sign convention
func (s *PredictionService) SignConvention() SignConvention {
	return s.estimator.SignConvention()
}

// ModelName returns the loaded model's name
func (s *PredictionService) ModelName() string {
	return s.modelName
}

// PredictResult represents the result of one discrepancy prediction
type PredictResult struct {
	ID          *uuid.UUID
	Variant     models.Variant
	ModelName   string
	Discrepancy float64
	Prediction  float64
	// Severity is only computed for the extended variant
	Severity *float64
}

// Predict validates, cleans and scores one raw JSON case record.
// Errors are *validation.SchemaError, *cleaning.RejectionError or internal.
func (s *PredictionService) Predict(ctx context.Context, raw []byte) (*PredictResult, error) {
	record, err := s.validator.Validate(raw)
	if err != nil {
		return nil, err
	}

	row, err := s.cleaner.CleanOne(*record)
	if err != nil {
		return nil, err
	}

	discrepancies, predictions, err := s.estimator.Estimate(ctx, []models.FeatureRow{row})
	if err != nil {
		return nil, err
	}

	result := &PredictResult{
		Variant:     s.Variant(),
		ModelName:   s.modelName,
		Discrepancy: discrepancies[0],
		Prediction:  predictions[0],
	}
	if result.Variant == models.VariantExtended {
		percent := PercentDiscrepancies(discrepancies, predictions)
		severity := s.reference.Severities(percent)[0]
		result.Severity = &severity
	}

	s.record(ctx, result)
	return result, nil
}

// GetPrediction retrieves a logged prediction
func (s *PredictionService) GetPrediction(ctx context.Context, id uuid.UUID) (*models.Prediction, error) {
	if s.store == nil {
		return nil, repository.ErrPredictionNotFound
	}
	return s.store.GetByID(ctx, id)
}

// AuditEnabled reports whether predictions are logged
func (s *PredictionService) AuditEnabled() bool {
	return s.store != nil
}

// record logs the outcome; failures never fail the request
func (s *PredictionService) record(ctx context.Context, result *PredictResult) {
	if s.store == nil {
		return
	}
	p := &models.Prediction{
		ModelName:      result.ModelName,
		Variant:        result.Variant,
		SignConvention: string(s.SignConvention()),
		Discrepancy:    result.Discrepancy,
		Prediction:     result.Prediction,
		Severity:       result.Severity,
	}
	if err := s.store.Create(ctx, p); err != nil {
		log.Printf("Warning: Failed to log prediction: %v", err)
		return
	}
	result.ID = &p.ID
}

// Round3 rounds to 3 decimal places for the response payload
func Round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
