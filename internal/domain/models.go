package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ValidationState represents the drug-name validation state machine
type ValidationState string

const (
	ValidationIdle     ValidationState = "idle"
	ValidationChecking ValidationState = "checking"
	ValidationValid    ValidationState = "valid"
	ValidationInvalid  ValidationState = "invalid"
)

// Number is a float64 that unmarshals from either a JSON number or a
// numeric string. Form-originated payloads frequently quote numeric
// fields, so both encodings are accepted on input.
type Number float64

// UnmarshalJSON implements json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		*n = 0
		return nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return fmt.Errorf("invalid numeric value %s: %w", string(data), err)
	}
	*n = Number(v)
	return nil
}

// MarshalJSON implements json.Marshaler
func (n Number) MarshalJSON() ([]byte, error) {
	return json.Marshal(float64(n))
}

// Float64 returns the underlying value
func (n Number) Float64() float64 {
	return float64(n)
}

// PredictionRequest represents one prediction submission. It is owned by
// the caller and treated as immutable once submitted.
type PredictionRequest struct {
	PatientID         string `json:"patient_id"`
	Age               Number `json:"age"`
	Gender            string `json:"gender"`
	HeightCm          Number `json:"height"`
	WeightKg          Number `json:"weight"`
	DrugName          string `json:"drug_name"`
	ChronicConditions string `json:"chronic_conditions"`
}

// GeneticMarker is the uniform marker representation produced from raw
// genotype/phenotype payloads. ClinicalSignificance is derived from the
// phenotype text and nothing else.
type GeneticMarker struct {
	Gene                 string   `json:"gene"`
	Genotype             string   `json:"genotype"`
	Phenotype            string   `json:"phenotype"`
	ActivityScore        float64  `json:"activity_score"`
	DrugsAffected        []string `json:"drugs_affected,omitempty"`
	ClinicalSignificance string   `json:"clinical_significance"`
}

// RxNormData holds the consumed fields from the structured drug
// vocabulary service
type RxNormData struct {
	RxCUI        string `json:"rxcui"`
	Name         string `json:"name,omitempty"`
	ConceptCount int    `json:"concept_count"`
}

// FDAData holds the consumed fields from the regulatory label service
type FDAData struct {
	GenericName             string `json:"generic_name,omitempty"`
	BrandName               string `json:"brand_name,omitempty"`
	IndicationsAndUsage     string `json:"indications_and_usage,omitempty"`
	Warnings                string `json:"warnings,omitempty"`
	DosageAndAdministration string `json:"dosage_and_administration,omitempty"`
	Contraindications       string `json:"contraindications,omitempty"`
}

// PubChemData holds the consumed fields from the chemical structure
// service
type PubChemData struct {
	CID              int    `json:"cid,omitempty"`
	MolecularFormula string `json:"molecular_formula,omitempty"`
	MolecularWeight  string `json:"molecular_weight,omitempty"`
	CanonicalSMILES  string `json:"canonical_smiles,omitempty"`
	IsomericSMILES   string `json:"isomeric_smiles,omitempty"`
}

// DrugInfo is the merged multi-source drug information record. Sources
// lists the adapters that actually produced data, in priority order; it
// is non-empty only when at least one adapter call succeeded.
type DrugInfo struct {
	DrugName     string          `json:"drug_name"`
	Sources      []string        `json:"sources"`
	RxNorm       *RxNormData     `json:"rxnorm_data,omitempty"`
	FDA          *FDAData        `json:"fda_data,omitempty"`
	PubChem      *PubChemData    `json:"pubchem_data,omitempty"`
	Interactions json.RawMessage `json:"interactions,omitempty"`
	DosageInfo   json.RawMessage `json:"dosage_info,omitempty"`
}

// SuitabilityFactor is one assessment factor inside a medicine
// suitability block
type SuitabilityFactor struct {
	Name           string `json:"name"`
	Impact         string `json:"impact"`
	Description    string `json:"description"`
	Recommendation string `json:"recommendation,omitempty"`
}

// SafetyProfile summarizes the safety portion of a suitability block
type SafetyProfile struct {
	Warnings           []string `json:"warnings,omitempty"`
	InteractionSummary string   `json:"interaction_summary,omitempty"`
	MonitoringRequired bool     `json:"monitoring_required"`
}

// MedicineSuitability is always sourced from the upstream backend and
// never synthesized locally
type MedicineSuitability struct {
	OverallStatus               string              `json:"overall_status"`
	Score                       float64             `json:"score"`
	Recommendation              string              `json:"recommendation,omitempty"`
	Factors                     []SuitabilityFactor `json:"factors,omitempty"`
	Safety                      *SafetyProfile      `json:"safety,omitempty"`
	PersonalizedRecommendations []string            `json:"personalized_recommendations,omitempty"`
	NextSteps                   []string            `json:"next_steps,omitempty"`
	EmergencyContact            string              `json:"emergency_contact,omitempty"`
}

// PatientData carries the demographic/vitals/history sub-records passed
// through from the enhanced backend
type PatientData struct {
	Demographics       json.RawMessage `json:"demographics,omitempty"`
	CurrentVitals      json.RawMessage `json:"current_vitals,omitempty"`
	MedicalHistory     []string        `json:"medical_history,omitempty"`
	Allergies          []string        `json:"allergies,omitempty"`
	CurrentMedications []string        `json:"current_medications,omitempty"`
	BMI                float64         `json:"bmi,omitempty"`
}

// PredictionResult is the canonical normalized prediction. It is created
// once per request and never mutated after being returned; a new
// prediction replaces it wholesale.
type PredictionResult struct {
	Prediction              string               `json:"prediction"`
	Confidence              float64              `json:"confidence"`
	Source                  string               `json:"source"`
	ElapsedMs               int64                `json:"elapsed_ms"`
	Explanation             string               `json:"explanation,omitempty"`
	Dosage                  string               `json:"dosage,omitempty"`
	GeneticMarkers          []GeneticMarker      `json:"genetic_markers,omitempty"`
	Suitability             *MedicineSuitability `json:"medicine_suitability,omitempty"`
	DrugInfo                *DrugInfo            `json:"drug_info,omitempty"`
	ClinicalRecommendations []string             `json:"clinical_recommendations"`
	PatientData             *PatientData         `json:"patient_data,omitempty"`
}
