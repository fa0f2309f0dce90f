package models

import (
	"time"

	"github.com/google/uuid"
)

// Prediction represents the logged outcome of one discrepancy request.
// It never carries the case record itself.
type Prediction struct {
	ID             uuid.UUID `json:"id"`
	ModelName      string    `json:"model_name"`
	Variant        Variant   `json:"variant"`
	SignConvention string    `json:"sign_convention"`
	Discrepancy    float64   `json:"sentencing_discrepancy"`
	Prediction     float64   `json:"prediction"`
	Severity       *float64  `json:"severity,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
