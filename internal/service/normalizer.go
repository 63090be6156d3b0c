package service

import (
	"time"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/pkg/external"
)

// Source discriminators stamped on every normalized result. Downstream
// consumers branch on these, so they are fixed strings.
const (
	SourceEnhanced = "enhanced_api"
	SourceStandard = "standard_api"
)

// Defaults applied when the enhanced backend omits the nested prediction
// fields. These exact values are a documented contract; downstream
// consumers and tests depend on them.
const (
	DefaultPredictionLabel = "Responsive"
	DefaultConfidence      = 0.85
)

// Normalizer maps each backend's payload shape into the canonical
// PredictionResult
type Normalizer struct{}

// NewNormalizer creates a new response normalizer
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeEnhanced converts an enhanced backend response into a
// canonical PredictionResult
func (n *Normalizer) NormalizeEnhanced(resp *external.EnhancedResponse, req *domain.PredictionRequest, elapsed time.Duration) *domain.PredictionResult {
	label := DefaultPredictionLabel
	confidence := DefaultConfidence
	if resp.Prediction != nil {
		if resp.Prediction.PredictionLabel != "" {
			label = resp.Prediction.PredictionLabel
		} else if resp.Prediction.Prediction != "" {
			label = resp.Prediction.Prediction
		}
		if resp.Prediction.Confidence != nil {
			confidence = *resp.Prediction.Confidence
		}
	}

	result := &domain.PredictionResult{
		Prediction:              label,
		Confidence:              confidence,
		Source:                  SourceEnhanced,
		ElapsedMs:               elapsed.Milliseconds(),
		Dosage:                  DosageForBMI(n.bestBMI(payloadBMI(resp.PatientData), req)),
		ClinicalRecommendations: resp.ClinicalRecommendations,
	}
	if result.ClinicalRecommendations == nil {
		result.ClinicalRecommendations = []string{}
	}

	if resp.Explanation != "" {
		result.Explanation = resp.Explanation
	} else if resp.AnalysisSummary != "" {
		result.Explanation = resp.AnalysisSummary
	}

	if resp.PatientData != nil {
		result.PatientData = &domain.PatientData{
			Demographics:       resp.PatientData.Demographics,
			CurrentVitals:      resp.PatientData.CurrentVitals,
			MedicalHistory:     resp.PatientData.MedicalHistory,
			Allergies:          resp.PatientData.Allergies,
			CurrentMedications: resp.PatientData.CurrentMedications,
			BMI:                resp.PatientData.BMI,
		}
	}

	if resp.GeneticProfile != nil {
		result.GeneticMarkers = MapMarkerProfile(resp.GeneticProfile.GeneticMarkers)
	}

	if resp.DrugInfo != nil {
		result.DrugInfo = passthroughDrugInfo(req.DrugName, resp.DrugInfo)
	}

	return result
}

// NormalizeStandard converts a standard backend response into a
// canonical PredictionResult
func (n *Normalizer) NormalizeStandard(resp *external.StandardResponse, req *domain.PredictionRequest, elapsed time.Duration) *domain.PredictionResult {
	label := resp.PredictionLabel
	if label == "" {
		label = resp.Prediction
	}

	confidence := DefaultConfidence
	if resp.Confidence != nil {
		confidence = *resp.Confidence
	}

	result := &domain.PredictionResult{
		Prediction:              label,
		Confidence:              confidence,
		Source:                  SourceStandard,
		ElapsedMs:               elapsed.Milliseconds(),
		Dosage:                  DosageForBMI(n.bestBMI(resp.PatientData.BMI, req)),
		Suitability:             resp.MedicineSuitability,
		GeneticMarkers:          MapMarkerList(resp.GeneticMarkers),
		ClinicalRecommendations: []string{},
	}

	if resp.Explanation != "" {
		result.Explanation = resp.Explanation
	} else if resp.AnalysisSummary != "" {
		result.Explanation = resp.AnalysisSummary
	}

	return result
}

// bestBMI picks the payload-supplied BMI when present, computes it from
// the request otherwise, and falls back to the default when neither is
// available
func (n *Normalizer) bestBMI(payloadBMI float64, req *domain.PredictionRequest) float64 {
	if payloadBMI > 0 {
		return payloadBMI
	}
	if bmi, ok := ComputeBMI(req.WeightKg.Float64(), req.HeightCm.Float64()); ok {
		return bmi
	}
	return DefaultBMI
}

// payloadBMI safely extracts the BMI from an optional patient payload
func payloadBMI(patient *external.PatientPayload) float64 {
	if patient == nil {
		return 0
	}
	return patient.BMI
}

// passthroughDrugInfo carries the enhanced backend's drug-info
// sub-blocks into the canonical record verbatim
func passthroughDrugInfo(drugName string, payload *external.DrugInfoPayload) *domain.DrugInfo {
	if payload.RxNormData == nil && payload.FDAData == nil &&
		payload.Interactions == nil && payload.DosageInfo == nil {
		return nil
	}
	return &domain.DrugInfo{
		DrugName:     drugName,
		Sources:      []string{SourceEnhanced},
		RxNorm:       payload.RxNormData,
		FDA:          payload.FDAData,
		Interactions: payload.Interactions,
		DosageInfo:   payload.DosageInfo,
	}
}
