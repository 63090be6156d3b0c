package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/pkg/external"
)

func floatPtr(v float64) *float64 { return &v }

func testRequest() *domain.PredictionRequest {
	return &domain.PredictionRequest{
		PatientID:         "p-1",
		Age:               45,
		Gender:            "male",
		HeightCm:          170,
		WeightKg:          70,
		DrugName:          "Metformin",
		ChronicConditions: "Diabetes",
	}
}

func TestNormalizeEnhanced_Defaults(t *testing.T) {
	n := NewNormalizer()

	result := n.NormalizeEnhanced(&external.EnhancedResponse{}, testRequest(), 120*time.Millisecond)

	assert.Equal(t, DefaultPredictionLabel, result.Prediction)
	assert.Equal(t, DefaultConfidence, result.Confidence)
	assert.Equal(t, SourceEnhanced, result.Source)
	assert.Equal(t, int64(120), result.ElapsedMs)
	// Absent recommendations normalize to an empty slice, never nil
	require.NotNil(t, result.ClinicalRecommendations)
	assert.Empty(t, result.ClinicalRecommendations)
	assert.Nil(t, result.DrugInfo)
}

func TestNormalizeEnhanced_PredictionFields(t *testing.T) {
	n := NewNormalizer()

	resp := &external.EnhancedResponse{
		Prediction: &external.EnhancedPrediction{
			PredictionLabel: "Effective",
			Confidence:      floatPtr(0.9),
		},
		Explanation:             "Backend reasoning text.",
		ClinicalRecommendations: []string{"Monitor renal function"},
	}

	result := n.NormalizeEnhanced(resp, testRequest(), time.Millisecond)

	assert.Equal(t, "Effective", result.Prediction)
	assert.Equal(t, 0.9, result.Confidence)
	assert.Equal(t, "Backend reasoning text.", result.Explanation)
	assert.Equal(t, []string{"Monitor renal function"}, result.ClinicalRecommendations)
}

func TestNormalizeEnhanced_FallsBackToPredictionField(t *testing.T) {
	n := NewNormalizer()

	resp := &external.EnhancedResponse{
		Prediction:      &external.EnhancedPrediction{Prediction: "Responsive"},
		AnalysisSummary: "Summary used when explanation is absent.",
	}

	result := n.NormalizeEnhanced(resp, testRequest(), time.Millisecond)

	assert.Equal(t, "Responsive", result.Prediction)
	assert.Equal(t, DefaultConfidence, result.Confidence)
	assert.Equal(t, "Summary used when explanation is absent.", result.Explanation)
}

func TestNormalizeEnhanced_DosagePrefersPayloadBMI(t *testing.T) {
	n := NewNormalizer()

	resp := &external.EnhancedResponse{
		PatientData: &external.PatientPayload{BMI: 31.2},
	}

	result := n.NormalizeEnhanced(resp, testRequest(), time.Millisecond)

	assert.Equal(t, "250mg daily", result.Dosage)
	require.NotNil(t, result.PatientData)
	assert.Equal(t, 31.2, result.PatientData.BMI)
}

func TestNormalizeEnhanced_DosageFromComputedBMI(t *testing.T) {
	n := NewNormalizer()

	// 70kg / 1.70m^2 = 24.2, which lands in the 150mg band
	result := n.NormalizeEnhanced(&external.EnhancedResponse{}, testRequest(), time.Millisecond)
	assert.Equal(t, "150mg daily", result.Dosage)
}

func TestNormalizeEnhanced_DosageFromDefaultBMI(t *testing.T) {
	n := NewNormalizer()

	req := testRequest()
	req.HeightCm = 0
	req.WeightKg = 0

	// Default BMI of 25 resolves to the 200mg band
	result := n.NormalizeEnhanced(&external.EnhancedResponse{}, req, time.Millisecond)
	assert.Equal(t, "200mg daily", result.Dosage)
}

func TestNormalizeEnhanced_GeneticProfile(t *testing.T) {
	n := NewNormalizer()

	resp := &external.EnhancedResponse{
		GeneticProfile: &external.GeneticProfile{
			GeneticMarkers: map[string]external.MarkerPayload{
				"CYP2D6": {Genotype: "*4/*4", Phenotype: "Poor Metabolizer"},
			},
		},
	}

	result := n.NormalizeEnhanced(resp, testRequest(), time.Millisecond)

	require.Len(t, result.GeneticMarkers, 1)
	assert.Equal(t, "CYP2D6", result.GeneticMarkers[0].Gene)
	assert.Equal(t, "High – Requires dose adjustment", result.GeneticMarkers[0].ClinicalSignificance)
}

func TestNormalizeEnhanced_DrugInfoPassthrough(t *testing.T) {
	n := NewNormalizer()

	resp := &external.EnhancedResponse{
		DrugInfo: &external.DrugInfoPayload{
			FDAData: &domain.FDAData{GenericName: "metformin"},
		},
	}

	result := n.NormalizeEnhanced(resp, testRequest(), time.Millisecond)

	require.NotNil(t, result.DrugInfo)
	assert.Equal(t, "Metformin", result.DrugInfo.DrugName)
	assert.Equal(t, []string{SourceEnhanced}, result.DrugInfo.Sources)
	assert.Equal(t, "metformin", result.DrugInfo.FDA.GenericName)
}

func TestNormalizeEnhanced_EmptyDrugInfoDropped(t *testing.T) {
	n := NewNormalizer()

	resp := &external.EnhancedResponse{DrugInfo: &external.DrugInfoPayload{}}

	result := n.NormalizeEnhanced(resp, testRequest(), time.Millisecond)
	assert.Nil(t, result.DrugInfo)
}

func TestNormalizeStandard(t *testing.T) {
	n := NewNormalizer()

	resp := &external.StandardResponse{
		PredictionLabel: "Effective",
		MedicineSuitability: &domain.MedicineSuitability{
			OverallStatus: "suitable",
			Score:         0.8,
		},
		GeneticMarkers: []external.MarkerPayload{
			{Gene: "CYP2C19", Phenotype: "Intermediate Metabolizer"},
		},
	}
	resp.PatientData.BMI = 27.5

	result := n.NormalizeStandard(resp, testRequest(), 80*time.Millisecond)

	assert.Equal(t, "Effective", result.Prediction)
	assert.Equal(t, DefaultConfidence, result.Confidence)
	assert.Equal(t, SourceStandard, result.Source)
	assert.Equal(t, int64(80), result.ElapsedMs)
	assert.Equal(t, "200mg daily", result.Dosage)
	require.NotNil(t, result.Suitability)
	assert.Equal(t, "suitable", result.Suitability.OverallStatus)
	require.Len(t, result.GeneticMarkers, 1)
	assert.Equal(t, "Moderate – Monitor closely", result.GeneticMarkers[0].ClinicalSignificance)
	require.NotNil(t, result.ClinicalRecommendations)
	assert.Empty(t, result.ClinicalRecommendations)
}

func TestNormalizeStandard_ComputesBMIWhenMissing(t *testing.T) {
	n := NewNormalizer()

	resp := &external.StandardResponse{Prediction: "Responsive", Confidence: floatPtr(0.7)}

	result := n.NormalizeStandard(resp, testRequest(), time.Millisecond)

	assert.Equal(t, "Responsive", result.Prediction)
	assert.Equal(t, 0.7, result.Confidence)
	assert.Equal(t, "150mg daily", result.Dosage)
}
