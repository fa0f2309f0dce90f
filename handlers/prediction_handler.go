package handlers

import (
	"errors"
	"io"
	"net/http"

	"sentencing-discrepancy/cleaning"
	"sentencing-discrepancy/models"
	"sentencing-discrepancy/repository"
	"sentencing-discrepancy/service"
	"sentencing-discrepancy/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const maxRecordBytes = 1 << 20

// PredictionHandler handles HTTP requests for discrepancy predictions
type PredictionHandler struct {
	predictionService *service.PredictionService
	artifacts         *service.Artifacts
}

// NewPredictionHandler creates a new prediction handler
func NewPredictionHandler(predictionService *service.PredictionService, artifacts *service.Artifacts) *PredictionHandler {
	return &PredictionHandler{
		predictionService: predictionService,
		artifacts:         artifacts,
	}
}

// Register adds the handler's routes to r
func (h *PredictionHandler) Register(r gin.IRouter) {
	r.POST("/predict", h.Predict)

	api := r.Group("/api")
	{
		api.GET("/model", h.GetModel)
		api.GET("/predictions/:id", h.GetPrediction)
	}
}

// Predict handles POST /predict
func (h *PredictionHandler) Predict(c *gin.Context) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRecordBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "failed to read request body: " + err.Error(),
		})
		return
	}

	result, err := h.predictionService.Predict(c.Request.Context(), raw)
	if err != nil {
		var schemaErr *validation.SchemaError
		var rejectErr *cleaning.RejectionError
		switch {
		case errors.As(err, &schemaErr):
			c.JSON(http.StatusBadRequest, gin.H{"message": schemaErr.Error()})
		case errors.As(err, &rejectErr):
			c.JSON(http.StatusBadRequest, gin.H{"message": "DATA ERROR: " + rejectErr.Error()})
		default:
			log.Printf("Prediction failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"message": "prediction failed"})
		}
		return
	}

	if result.ID != nil {
		c.Header("X-Prediction-ID", result.ID.String())
	}

	if result.Variant == models.VariantLegacy {
		// the misspelling is part of the legacy contract
		c.JSON(http.StatusOK, gin.H{
			"years_of_racial_bias_sentencing_discrepency": service.Round3(result.Discrepancy),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sentencing_discrepancy": service.Round3(result.Discrepancy),
		"severity":               service.Round3(*result.Severity),
		"model_name":             result.ModelName,
	})
}

// GetModel handles GET /api/model
func (h *PredictionHandler) GetModel(c *gin.Context) {
	manifest := h.artifacts.Manifest
	data := gin.H{
		"artifact":        manifest.Info(),
		"kind":            manifest.Kind,
		"columns":         manifest.Columns,
		"variant":         h.predictionService.Variant(),
		"sign_convention": h.predictionService.SignConvention(),
		"audit_log":       h.predictionService.AuditEnabled(),
	}
	if h.artifacts.Reference != nil {
		data["reference_size"] = h.artifacts.Reference.Len()
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// GetPrediction handles GET /api/predictions/:id
func (h *PredictionHandler) GetPrediction(c *gin.Context) {
	idStr := c.Param("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid prediction ID format",
			},
		})
		return
	}

	prediction, err := h.predictionService.GetPrediction(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrPredictionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "NOT_FOUND",
					"message": "Prediction not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FETCH_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    prediction,
	})
}
