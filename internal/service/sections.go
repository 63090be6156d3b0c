package service

import (
	"regexp"
	"sort"
	"strings"
)

// ExplanationSections is the structured decomposition of a free-text
// explanation. A section the parser could not locate is simply the
// empty string; lossy extraction is the contract, never an error.
type ExplanationSections struct {
	Indications     string
	Mechanism       string
	ChemicalFormula string
	Safety          string
	Recommendation  string
}

// sectionPattern pairs a section with the header patterns that open it
type sectionPattern struct {
	name    string
	pattern *regexp.Regexp
}

// Header patterns are matched case-insensitively, in this order
var sectionPatterns = []sectionPattern{
	{"indications", regexp.MustCompile(`(?i)(how it helps|indications?(\s+and\s+usage)?)\s*:?`)},
	{"mechanism", regexp.MustCompile(`(?i)(how it works|mechanism of action)\s*:?`)},
	{"formula", regexp.MustCompile(`(?i)(chemical|molecular)\s+formula\s*:?`)},
	{"safety", regexp.MustCompile(`(?i)safety(\s+assessment)?\s*:?`)},
	{"recommendation", regexp.MustCompile(`(?i)recommendations?\s*:?`)},
}

// sectionSpan marks where a recognized header sits in the text
type sectionSpan struct {
	name  string
	start int // start of the header
	body  int // start of the body text after the header
}

// ParseSections decomposes explanation text into its recognizable
// sections. Each section runs from the end of its header to the start
// of the next recognized header, or to the end of the text.
func ParseSections(text string) ExplanationSections {
	var sections ExplanationSections
	if strings.TrimSpace(text) == "" {
		return sections
	}

	var spans []sectionSpan
	for _, sp := range sectionPatterns {
		if loc := sp.pattern.FindStringIndex(text); loc != nil {
			spans = append(spans, sectionSpan{name: sp.name, start: loc[0], body: loc[1]})
		}
	}
	if len(spans) == 0 {
		return sections
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	for i, span := range spans {
		end := len(text)
		if i+1 < len(spans) {
			end = spans[i+1].start
		}
		body := strings.TrimSpace(text[span.body:end])
		if body == "" {
			continue
		}
		switch span.name {
		case "indications":
			sections.Indications = body
		case "mechanism":
			sections.Mechanism = body
		case "formula":
			sections.ChemicalFormula = body
		case "safety":
			sections.Safety = body
		case "recommendation":
			sections.Recommendation = body
		}
	}

	return sections
}
