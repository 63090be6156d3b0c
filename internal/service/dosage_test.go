package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeBMI(t *testing.T) {
	tests := []struct {
		name     string
		weightKg float64
		heightCm float64
		expected float64
		ok       bool
	}{
		{"typical adult", 70, 170, 24.2, true},
		{"rounds to one decimal", 80, 175, 26.1, true},
		{"zero height", 70, 0, 0, false},
		{"zero weight", 0, 170, 0, false},
		{"negative height", 70, -170, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bmi, ok := ComputeBMI(tt.weightKg, tt.heightCm)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.expected, bmi)
			}
		})
	}
}

func TestDosageForBMI(t *testing.T) {
	tests := []struct {
		name     string
		bmi      float64
		expected string
	}{
		{"underweight", 17.0, "100mg daily"},
		{"just below lower boundary", 18.4, "100mg daily"},
		{"lower boundary resolves up", 18.5, "150mg daily"},
		{"normal range", 24.2, "150mg daily"},
		{"boundary 25 resolves up", 25.0, "200mg daily"},
		{"overweight range", 29.9, "200mg daily"},
		{"boundary 30 resolves up", 30.0, "250mg daily"},
		{"obese range", 42.0, "250mg daily"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DosageForBMI(tt.bmi))
		})
	}
}
