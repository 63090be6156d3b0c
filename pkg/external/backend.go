package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/drug-response-server/internal/domain"
)

// BackendClient talks to the primary prediction backend. It covers the
// enhanced and standard prediction endpoints plus the backend's own
// drug-info endpoint.
type BackendClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// NewBackendClient creates a new prediction backend client
func NewBackendClient(config domain.BackendConfig) *BackendClient {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 10
	}

	return &BackendClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// EnhancedRequest is the richer payload accepted by the enhanced
// prediction endpoint
type EnhancedRequest struct {
	PatientID         string  `json:"patient_id"`
	Age               float64 `json:"age"`
	Gender            string  `json:"gender"`
	Height            float64 `json:"height"`
	Weight            float64 `json:"weight"`
	DrugName          string  `json:"drug_name"`
	ChronicConditions string  `json:"chronic_conditions"`
}

// EnhancedPrediction is the nested prediction object of the enhanced
// response envelope
type EnhancedPrediction struct {
	PredictionLabel string   `json:"prediction_label"`
	Prediction      string   `json:"prediction"`
	Confidence      *float64 `json:"confidence"`
	Reasoning       string   `json:"reasoning"`
}

// MarkerPayload is one raw genetic marker record as delivered by either
// backend profile
type MarkerPayload struct {
	Gene          string   `json:"gene,omitempty"`
	Genotype      string   `json:"genotype"`
	Phenotype     string   `json:"phenotype"`
	ActivityScore float64  `json:"activity_score"`
	DrugsAffected []string `json:"drugs_affected,omitempty"`
}

// GeneticProfile groups the enhanced backend's markers, keyed by gene
type GeneticProfile struct {
	GeneticMarkers map[string]MarkerPayload `json:"genetic_markers"`
}

// PatientPayload carries the patient sub-records of the enhanced
// response
type PatientPayload struct {
	Demographics       json.RawMessage `json:"demographics,omitempty"`
	CurrentVitals      json.RawMessage `json:"current_vitals,omitempty"`
	MedicalHistory     []string        `json:"medical_history,omitempty"`
	Allergies          []string        `json:"allergies,omitempty"`
	CurrentMedications []string        `json:"current_medications,omitempty"`
	BMI                float64         `json:"bmi,omitempty"`
}

// DrugInfoPayload carries the drug-info sub-blocks of the enhanced
// response; they are passed through verbatim
type DrugInfoPayload struct {
	RxNormData   *domain.RxNormData `json:"rxnorm_data,omitempty"`
	FDAData      *domain.FDAData    `json:"fda_data,omitempty"`
	Interactions json.RawMessage    `json:"interactions,omitempty"`
	DosageInfo   json.RawMessage    `json:"dosage_info,omitempty"`
}

// EnhancedResponse is the success envelope of the enhanced endpoint
type EnhancedResponse struct {
	Prediction              *EnhancedPrediction `json:"prediction"`
	PatientData             *PatientPayload     `json:"patient_data"`
	GeneticProfile          *GeneticProfile     `json:"genetic_profile"`
	DrugInfo                *DrugInfoPayload    `json:"drug_info"`
	ClinicalRecommendations []string            `json:"clinical_recommendations"`
	Explanation             string              `json:"explanation"`
	AnalysisSummary         string              `json:"analysis_summary"`
}

// StandardRequest is the simpler payload accepted by the standard
// prediction endpoint
type StandardRequest struct {
	PatientAge       float64 `json:"patient_age"`
	PatientGender    string  `json:"patient_gender"`
	PatientHeightCm  float64 `json:"patient_height_cm"`
	PatientWeightKg  float64 `json:"patient_weight_kg"`
	PatientDiagnosis string  `json:"patient_diagnosis"`
	DrugName         string  `json:"drug_name"`
}

// StandardResponse is the success envelope of the standard endpoint
type StandardResponse struct {
	PredictionLabel string   `json:"prediction_label"`
	Prediction      string   `json:"prediction"`
	Confidence      *float64 `json:"confidence"`
	DrugName        string   `json:"drug_name"`
	PatientData     struct {
		BMI float64 `json:"bmi"`
	} `json:"patient_data"`
	MedicineSuitability *domain.MedicineSuitability `json:"medicine_suitability"`
	GeneticMarkers      []MarkerPayload             `json:"genetic_markers"`
	Explanation         string                      `json:"explanation"`
	AnalysisSummary     string                      `json:"analysis_summary"`
}

// drugInfoEnvelope wraps the drug-info endpoint response
type drugInfoEnvelope struct {
	Data *domain.DrugInfo `json:"data"`
}

// PredictEnhanced calls the enhanced prediction endpoint
func (c *BackendClient) PredictEnhanced(ctx context.Context, req *EnhancedRequest) (*EnhancedResponse, error) {
	var resp EnhancedResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/predict/enhanced", req, &resp); err != nil {
		return nil, fmt.Errorf("enhanced prediction failed: %w", err)
	}
	return &resp, nil
}

// PredictStandard calls the standard prediction endpoint
func (c *BackendClient) PredictStandard(ctx context.Context, req *StandardRequest) (*StandardResponse, error) {
	var resp StandardResponse
	if err := c.postJSON(ctx, c.baseURL+"/api/predict", req, &resp); err != nil {
		return nil, fmt.Errorf("standard prediction failed: %w", err)
	}
	return &resp, nil
}

// GetDrugInfo retrieves the backend's own drug information record by
// drug name
func (c *BackendClient) GetDrugInfo(ctx context.Context, drugName string) (*domain.DrugInfo, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	fullURL := fmt.Sprintf("%s/api/drug-info/%s", c.baseURL, url.PathEscape(drugName))

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create drug-info request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute drug-info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("drug-info endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read drug-info response: %w", err)
	}

	var envelope drugInfoEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse drug-info response: %w", err)
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("drug-info response missing data")
	}

	return envelope.Data, nil
}

// postJSON executes a rate-limited POST with a JSON body and decodes the
// JSON response into out
func (c *BackendClient) postJSON(ctx context.Context, fullURL string, payload, out interface{}) error {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait failed: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fullURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}
