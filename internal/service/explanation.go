package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/drug-response-server/internal/domain"
	"github.com/drug-response-server/pkg/external"
)

// ExplanationSynthesizer produces the human-readable rationale attached
// to a prediction. A backend-supplied explanation is used unmodified;
// otherwise one is synthesized from real-time drug information, falling
// back to the built-in knowledge table.
type ExplanationSynthesizer struct {
	drugInfo  external.DrugInfoProvider
	knowledge KnowledgeBase
	logger    *logrus.Logger
}

// NewExplanationSynthesizer creates a new synthesizer. The knowledge
// base is injected so tests can substitute it.
func NewExplanationSynthesizer(drugInfo external.DrugInfoProvider, knowledge KnowledgeBase, logger *logrus.Logger) *ExplanationSynthesizer {
	return &ExplanationSynthesizer{
		drugInfo:  drugInfo,
		knowledge: knowledge,
		logger:    logger,
	}
}

// conditionRules drive the condition-based caveats. A caveat is skipped
// when the drug is first-line therapy for the matched condition.
var conditionRules = []struct {
	term     string // key into KnowledgeBase.FirstLine
	display  string
	patterns []string // lower-cased substrings matched against the conditions text
}{
	{"diabetes", "diabetes", []string{"diabet"}},
	{"hypertension", "hypertension", []string{"hypertension", "high blood pressure"}},
	{"heart disease", "heart disease", []string{"heart"}},
	{"kidney", "kidney disease", []string{"kidney", "renal"}},
	{"liver", "liver disease", []string{"liver", "hepatic"}},
}

// Explain returns the explanation text for a prediction. When the
// result already carries a non-empty explanation it is returned
// unmodified.
func (e *ExplanationSynthesizer) Explain(ctx context.Context, req *domain.PredictionRequest, result *domain.PredictionResult) string {
	if strings.TrimSpace(result.Explanation) != "" {
		return result.Explanation
	}

	text := e.synthesize(ctx, req.DrugName)
	text += e.ageCaveat(req.Age.Float64())
	text += e.conditionCaveats(req)
	return text
}

// synthesize builds an explanation from the best available source,
// in priority order: FDA label, RxNorm vocabulary, PubChem structure,
// built-in knowledge, category generic.
func (e *ExplanationSynthesizer) synthesize(ctx context.Context, drugName string) string {
	info, err := e.drugInfo.FetchDrugInfo(ctx, drugName)
	if err != nil {
		e.logger.WithFields(logrus.Fields{
			"drug_name": drugName,
			"error":     err.Error(),
		}).Debug("Drug-info fetch failed during explanation synthesis")
	}

	if info != nil {
		if info.FDA != nil {
			if text := explainFromFDA(drugName, info.FDA); text != "" {
				return text
			}
		}
		if info.RxNorm != nil {
			return fmt.Sprintf(
				"%s is listed in the RxNorm drug vocabulary under identifier %s with %d related concepts. Take it exactly as prescribed.",
				drugName, info.RxNorm.RxCUI, info.RxNorm.ConceptCount)
		}
		if info.PubChem != nil {
			return explainFromPubChem(drugName, info.PubChem)
		}
	}

	if entry, ok := e.knowledge.Lookup(drugName); ok {
		return entry.Summary
	}
	return e.knowledge.CategoryDescription(CategoryOf(drugName))
}

// explainFromFDA composes an explanation from regulatory label fields.
// Warnings are preferred over contraindications when both exist.
func explainFromFDA(drugName string, fda *domain.FDAData) string {
	var parts []string

	if fda.IndicationsAndUsage != "" {
		parts = append(parts, "How it helps: "+truncate(fda.IndicationsAndUsage, 300))
	}
	if fda.DosageAndAdministration != "" {
		parts = append(parts, "Dosage guidance: "+truncate(fda.DosageAndAdministration, 200))
	}
	safety := fda.Warnings
	if safety == "" {
		safety = fda.Contraindications
	}
	if safety != "" {
		parts = append(parts, "Safety: "+truncate(safety, 200))
	}

	if len(parts) == 0 {
		return ""
	}

	name := fda.GenericName
	if name == "" {
		name = drugName
	}
	return fmt.Sprintf("FDA labeling for %s. %s", name, strings.Join(parts, " "))
}

// explainFromPubChem composes an explanation from chemical structure
// data
func explainFromPubChem(drugName string, pc *domain.PubChemData) string {
	text := fmt.Sprintf("%s has molecular formula %s and molecular weight %s g/mol.",
		drugName, pc.MolecularFormula, pc.MolecularWeight)
	structure := pc.CanonicalSMILES
	if structure == "" {
		structure = pc.IsomericSMILES
	}
	if structure != "" {
		text += fmt.Sprintf(" Structure: %s.", structure)
	}
	return text
}

// ageCaveat returns the age-based dosing caveat, or ""
func (e *ExplanationSynthesizer) ageCaveat(age float64) string {
	switch {
	case age > 65:
		return " Patients over 65 should start at a lower dose and be monitored closely."
	case age > 0 && age < 18:
		return " Pediatric dosing applies; careful monitoring is required."
	default:
		return ""
	}
}

// conditionCaveats appends one caveat per chronic condition mentioned in
// the request, unless the drug is first-line therapy for that condition
func (e *ExplanationSynthesizer) conditionCaveats(req *domain.PredictionRequest) string {
	conditions := strings.ToLower(req.ChronicConditions)
	if strings.TrimSpace(conditions) == "" {
		return ""
	}

	var caveats strings.Builder
	for _, rule := range conditionRules {
		matched := false
		for _, pattern := range rule.patterns {
			if strings.Contains(conditions, pattern) {
				matched = true
				break
			}
		}
		if !matched || e.knowledge.IsFirstLine(rule.term, req.DrugName) {
			continue
		}
		fmt.Fprintf(&caveats,
			" The patient's reported %s may influence response to %s; review interactions and organ function before dosing.",
			rule.display, req.DrugName)
	}

	return caveats.String()
}

// truncate shortens label text to at most n characters, cutting at a
// word boundary
func truncate(text string, n int) string {
	text = strings.TrimSpace(text)
	if len(text) <= n {
		return text
	}
	cut := text[:n]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
