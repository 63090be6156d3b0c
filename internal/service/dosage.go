package service

import "math"

// DefaultBMI is assumed when neither the payload nor the request allows
// a BMI to be computed
const DefaultBMI = 25.0

// ComputeBMI calculates body-mass index from weight in kg and height in
// cm, rounded to one decimal. ok is false when either input is not
// positive.
func ComputeBMI(weightKg, heightCm float64) (float64, bool) {
	if weightKg <= 0 || heightCm <= 0 {
		return 0, false
	}
	meters := heightCm / 100
	bmi := weightKg / (meters * meters)
	return math.Round(bmi*10) / 10, true
}

// DosageForBMI maps a BMI to a dosage recommendation. The bands are
// total over the BMI domain; boundary values resolve to the higher
// band. This is a placeholder heuristic, not a clinical algorithm.
func DosageForBMI(bmi float64) string {
	switch {
	case bmi < 18.5:
		return "100mg daily"
	case bmi < 25:
		return "150mg daily"
	case bmi < 30:
		return "200mg daily"
	default:
		return "250mg daily"
	}
}
