package service

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/pkg/external"
)

// PredictionOrchestrator drives the backend fallback chain and owns
// timing. The enhanced backend is attempted first; on any failure the
// standard backend is tried, strictly sequentially. Exactly one
// backend's success produces the result; partial successes are never
// merged.
type PredictionOrchestrator struct {
	gateway    external.PredictionGateway
	normalizer *Normalizer
	explainer  *ExplanationSynthesizer
	logger     *logrus.Logger
}

// NewPredictionOrchestrator creates a new orchestrator
func NewPredictionOrchestrator(
	gateway external.PredictionGateway,
	normalizer *Normalizer,
	explainer *ExplanationSynthesizer,
	logger *logrus.Logger,
) *PredictionOrchestrator {
	return &PredictionOrchestrator{
		gateway:    gateway,
		normalizer: normalizer,
		explainer:  explainer,
		logger:     logger,
	}
}

// Predict runs one prediction: precondition checks, the backend
// fallback chain, normalization, marker mapping and explanation fill.
// It returns AllBackendsFailedError when both backends were
// unsuccessful.
func (o *PredictionOrchestrator) Predict(ctx context.Context, req *domain.PredictionRequest) (*domain.PredictionResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	start := time.Now()

	var result *domain.PredictionResult

	enhanced, enhancedErr := o.gateway.PredictEnhanced(ctx, buildEnhancedRequest(req))
	if enhancedErr == nil {
		result = o.normalizer.NormalizeEnhanced(enhanced, req, time.Since(start))
		o.logger.WithFields(logrus.Fields{
			"drug_name":  req.DrugName,
			"source":     result.Source,
			"elapsed_ms": result.ElapsedMs,
		}).Debug("Enhanced backend succeeded")
	} else {
		o.logger.WithFields(logrus.Fields{
			"drug_name": req.DrugName,
			"error":     enhancedErr.Error(),
		}).Warn("Enhanced backend failed, falling back to standard backend")

		standard, standardErr := o.gateway.PredictStandard(ctx, buildStandardRequest(req))
		if standardErr != nil {
			o.logger.WithFields(logrus.Fields{
				"drug_name":      req.DrugName,
				"enhanced_error": enhancedErr.Error(),
				"standard_error": standardErr.Error(),
			}).Error("All prediction backends failed")
			return nil, &domain.AllBackendsFailedError{
				EnhancedErr: enhancedErr,
				StandardErr: standardErr,
			}
		}
		result = o.normalizer.NormalizeStandard(standard, req, time.Since(start))
	}

	result.Explanation = o.explainer.Explain(ctx, req, result)

	return result, nil
}

// validateRequest checks the request preconditions before any network
// call. Each failure is a distinct fatal error.
func validateRequest(req *domain.PredictionRequest) error {
	if strings.TrimSpace(req.DrugName) == "" {
		return domain.NewValidationError("drug_name", "drug name is required", req.DrugName)
	}
	if strings.TrimSpace(req.Gender) == "" {
		return domain.NewValidationError("gender", "gender is required", req.Gender)
	}
	if req.HeightCm.Float64() <= 0 {
		return domain.NewValidationError("height", "height must be greater than zero", req.HeightCm.Float64())
	}
	if req.WeightKg.Float64() <= 0 {
		return domain.NewValidationError("weight", "weight must be greater than zero", req.WeightKg.Float64())
	}
	if age := req.Age.Float64(); age <= 0 || age > 120 {
		return domain.NewValidationError("age", "age must be between 1 and 120", age)
	}
	return nil
}

// buildEnhancedRequest translates the logical request into the enhanced
// backend's field naming
func buildEnhancedRequest(req *domain.PredictionRequest) *external.EnhancedRequest {
	return &external.EnhancedRequest{
		PatientID:         req.PatientID,
		Age:               req.Age.Float64(),
		Gender:            req.Gender,
		Height:            req.HeightCm.Float64(),
		Weight:            req.WeightKg.Float64(),
		DrugName:          req.DrugName,
		ChronicConditions: req.ChronicConditions,
	}
}

// buildStandardRequest translates the logical request into the standard
// backend's field naming
func buildStandardRequest(req *domain.PredictionRequest) *external.StandardRequest {
	return &external.StandardRequest{
		PatientAge:       req.Age.Float64(),
		PatientGender:    req.Gender,
		PatientHeightCm:  req.HeightCm.Float64(),
		PatientWeightKg:  req.WeightKg.Float64(),
		PatientDiagnosis: req.ChronicConditions,
		DrugName:         req.DrugName,
	}
}
