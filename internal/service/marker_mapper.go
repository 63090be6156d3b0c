package service

import (
	"sort"
	"strings"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/pkg/external"
)

// significanceRules maps phenotype tokens to clinical significance
// labels. Order matters: the first matching rule wins, and the match is
// a case-sensitive substring check on the exact token.
var significanceRules = []struct {
	token string
	label string
}{
	{"Poor", "High – Requires dose adjustment"},
	{"Intermediate", "Moderate – Monitor closely"},
	{"Rapid", "Moderate – May need higher doses"},
}

// defaultSignificance applies when no rule matches
const defaultSignificance = "Normal – Standard dosing appropriate"

// ClinicalSignificance derives the clinical significance label from a
// phenotype string. It is a pure function of the phenotype text.
func ClinicalSignificance(phenotype string) string {
	for _, rule := range significanceRules {
		if strings.Contains(phenotype, rule.token) {
			return rule.label
		}
	}
	return defaultSignificance
}

// MapMarkerProfile converts the enhanced backend's gene-keyed marker
// object into uniform marker records. JSON objects carry no order, so
// genes are emitted in sorted symbol order for determinism.
func MapMarkerProfile(profile map[string]external.MarkerPayload) []domain.GeneticMarker {
	if len(profile) == 0 {
		return nil
	}

	genes := make([]string, 0, len(profile))
	for gene := range profile {
		genes = append(genes, gene)
	}
	sort.Strings(genes)

	markers := make([]domain.GeneticMarker, 0, len(genes))
	for _, gene := range genes {
		raw := profile[gene]
		markers = append(markers, domain.GeneticMarker{
			Gene:                 gene,
			Genotype:             raw.Genotype,
			Phenotype:            raw.Phenotype,
			ActivityScore:        raw.ActivityScore,
			DrugsAffected:        raw.DrugsAffected,
			ClinicalSignificance: ClinicalSignificance(raw.Phenotype),
		})
	}

	return markers
}

// MapMarkerList converts a raw marker list, preserving the source
// payload's ordering
func MapMarkerList(list []external.MarkerPayload) []domain.GeneticMarker {
	if len(list) == 0 {
		return nil
	}

	markers := make([]domain.GeneticMarker, 0, len(list))
	for _, raw := range list {
		markers = append(markers, domain.GeneticMarker{
			Gene:                 raw.Gene,
			Genotype:             raw.Genotype,
			Phenotype:            raw.Phenotype,
			ActivityScore:        raw.ActivityScore,
			DrugsAffected:        raw.DrugsAffected,
			ClinicalSignificance: ClinicalSignificance(raw.Phenotype),
		})
	}

	return markers
}
