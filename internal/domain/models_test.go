package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumber_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected float64
		wantErr  bool
	}{
		{"plain number", `{"age": 45}`, 45, false},
		{"quoted number", `{"age": "45"}`, 45, false},
		{"quoted float", `{"age": "170.5"}`, 170.5, false},
		{"empty string", `{"age": ""}`, 0, false},
		{"null", `{"age": null}`, 0, false},
		{"garbage", `{"age": "abc"}`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out struct {
				Age Number `json:"age"`
			}
			err := json.Unmarshal([]byte(tt.payload), &out)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, out.Age.Float64())
		})
	}
}

func TestPredictionRequest_CoercesTextNumbers(t *testing.T) {
	payload := `{
		"patient_id": "p-1",
		"age": "45",
		"gender": "male",
		"height": "170",
		"weight": "70",
		"drug_name": "Metformin",
		"chronic_conditions": "Diabetes"
	}`

	var req PredictionRequest
	require.NoError(t, json.Unmarshal([]byte(payload), &req))

	assert.Equal(t, 45.0, req.Age.Float64())
	assert.Equal(t, 170.0, req.HeightCm.Float64())
	assert.Equal(t, 70.0, req.WeightKg.Float64())
}
