package service

import "strings"

// DrugKnowledge is one entry of the built-in pharmacological fallback
// table, used when no external source produced an explanation basis.
type DrugKnowledge struct {
	Class   string
	Summary string
}

// KnowledgeBase is the static lookup data consulted by the explanation
// synthesizer. It is immutable after construction and injected at
// startup so tests can substitute it.
type KnowledgeBase struct {
	Drugs      map[string]DrugKnowledge // keyed by lower-cased drug name
	Categories map[string]string        // coarse category label -> generic description
	FirstLine  map[string][]string      // condition term -> first-line drugs (lower-cased)
}

// Lookup finds the knowledge entry for a drug name, case-insensitively
func (kb KnowledgeBase) Lookup(drugName string) (DrugKnowledge, bool) {
	entry, ok := kb.Drugs[strings.ToLower(strings.TrimSpace(drugName))]
	return entry, ok
}

// CategoryDescription returns the generic description for a coarse
// category label, falling back to the "general" entry
func (kb KnowledgeBase) CategoryDescription(category string) string {
	if desc, ok := kb.Categories[category]; ok {
		return desc
	}
	return kb.Categories["general"]
}

// IsFirstLine reports whether a drug is first-line therapy for a
// condition term
func (kb KnowledgeBase) IsFirstLine(conditionTerm, drugName string) bool {
	name := strings.ToLower(strings.TrimSpace(drugName))
	for _, drug := range kb.FirstLine[conditionTerm] {
		if drug == name {
			return true
		}
	}
	return false
}

// CategoryOf guesses the coarse drug-category label from the name. The
// suffix conventions cover the classes present in the drug table.
func CategoryOf(drugName string) string {
	name := strings.ToLower(strings.TrimSpace(drugName))
	switch {
	case strings.HasSuffix(name, "pril"):
		return "ace_inhibitor"
	case strings.HasSuffix(name, "olol"):
		return "beta_blocker"
	case strings.HasSuffix(name, "statin"):
		return "statin"
	case strings.HasSuffix(name, "prazole"):
		return "ppi"
	case strings.HasSuffix(name, "cillin"), strings.HasSuffix(name, "mycin"), strings.HasSuffix(name, "cycline"):
		return "antibiotic"
	case strings.HasSuffix(name, "profen"):
		return "nsaid"
	case strings.HasSuffix(name, "oxetine"), strings.HasSuffix(name, "traline"), strings.HasSuffix(name, "pram"):
		return "ssri"
	case strings.HasSuffix(name, "terol"):
		return "bronchodilator"
	case strings.HasSuffix(name, "sone"), strings.HasSuffix(name, "solone"):
		return "corticosteroid"
	default:
		return "general"
	}
}

// DefaultKnowledgeBase returns the built-in knowledge table covering the
// common drug classes
func DefaultKnowledgeBase() KnowledgeBase {
	return KnowledgeBase{
		Drugs: map[string]DrugKnowledge{
			"lisinopril": {
				Class:   "ACE inhibitor",
				Summary: "Lisinopril is an ACE inhibitor that lowers blood pressure by relaxing blood vessels. It reduces strain on the heart and protects kidney function in hypertensive patients.",
			},
			"enalapril": {
				Class:   "ACE inhibitor",
				Summary: "Enalapril is an ACE inhibitor used for hypertension and heart failure. It blocks conversion of angiotensin I to angiotensin II, lowering vascular resistance.",
			},
			"metoprolol": {
				Class:   "beta-blocker",
				Summary: "Metoprolol is a cardioselective beta-blocker that slows heart rate and reduces blood pressure, commonly used after myocardial infarction and in heart failure.",
			},
			"atenolol": {
				Class:   "beta-blocker",
				Summary: "Atenolol is a beta-blocker that reduces heart rate and cardiac workload, used for hypertension and angina.",
			},
			"atorvastatin": {
				Class:   "statin",
				Summary: "Atorvastatin is a statin that lowers LDL cholesterol by inhibiting HMG-CoA reductase, reducing cardiovascular risk.",
			},
			"simvastatin": {
				Class:   "statin",
				Summary: "Simvastatin is a statin that reduces cholesterol synthesis in the liver, lowering LDL levels and cardiovascular event risk.",
			},
			"ibuprofen": {
				Class:   "NSAID",
				Summary: "Ibuprofen is a nonsteroidal anti-inflammatory drug that relieves pain, fever and inflammation by inhibiting COX enzymes. Prolonged use can affect the stomach and kidneys.",
			},
			"naproxen": {
				Class:   "NSAID",
				Summary: "Naproxen is a long-acting NSAID for pain and inflammation; gastrointestinal and renal effects warrant monitoring with extended use.",
			},
			"aspirin": {
				Class:   "NSAID",
				Summary: "Aspirin is an NSAID with antiplatelet activity, used for pain relief and cardiovascular protection at low doses.",
			},
			"metformin": {
				Class:   "antidiabetic",
				Summary: "Metformin is the first-line antidiabetic for type 2 diabetes. It lowers hepatic glucose production and improves insulin sensitivity without causing hypoglycemia on its own.",
			},
			"omeprazole": {
				Class:   "proton pump inhibitor",
				Summary: "Omeprazole is a proton pump inhibitor that reduces stomach acid production, treating reflux disease and peptic ulcers.",
			},
			"amoxicillin": {
				Class:   "antibiotic",
				Summary: "Amoxicillin is a broad-spectrum penicillin antibiotic that disrupts bacterial cell wall synthesis, used for common bacterial infections.",
			},
			"azithromycin": {
				Class:   "antibiotic",
				Summary: "Azithromycin is a macrolide antibiotic that inhibits bacterial protein synthesis, used for respiratory and soft tissue infections.",
			},
			"sertraline": {
				Class:   "SSRI",
				Summary: "Sertraline is a selective serotonin reuptake inhibitor used for depression and anxiety disorders. Full effect develops over several weeks.",
			},
			"fluoxetine": {
				Class:   "SSRI",
				Summary: "Fluoxetine is an SSRI antidepressant with a long half-life, used for depression, OCD and panic disorder.",
			},
			"albuterol": {
				Class:   "bronchodilator",
				Summary: "Albuterol is a short-acting beta-2 agonist bronchodilator that relaxes airway smooth muscle, relieving acute asthma symptoms.",
			},
			"prednisone": {
				Class:   "corticosteroid",
				Summary: "Prednisone is a systemic corticosteroid that suppresses inflammation and immune activity; dosing is tapered to avoid adrenal suppression.",
			},
			"levothyroxine": {
				Class:   "thyroid hormone",
				Summary: "Levothyroxine is a synthetic thyroid hormone replacing deficient endogenous thyroxine in hypothyroidism; dosing is titrated against TSH levels.",
			},
		},
		Categories: map[string]string{
			"ace_inhibitor":  "This medication belongs to the ACE inhibitor class, which lowers blood pressure by relaxing blood vessels.",
			"beta_blocker":   "This medication belongs to the beta-blocker class, which reduces heart rate and cardiac workload.",
			"statin":         "This medication belongs to the statin class, which lowers cholesterol by inhibiting its synthesis in the liver.",
			"nsaid":          "This medication is a nonsteroidal anti-inflammatory drug that relieves pain and inflammation.",
			"ppi":            "This medication is a proton pump inhibitor that reduces stomach acid production.",
			"antibiotic":     "This medication is an antibiotic that treats bacterial infections; the full prescribed course should be completed.",
			"ssri":           "This medication is a selective serotonin reuptake inhibitor used for mood disorders.",
			"bronchodilator": "This medication is a bronchodilator that opens the airways to ease breathing.",
			"corticosteroid": "This medication is a corticosteroid that suppresses inflammation and immune activity.",
			"general":        "This medication should be taken as prescribed. Consult a pharmacist or physician for detailed pharmacological information.",
		},
		FirstLine: map[string][]string{
			"diabetes":      {"metformin", "insulin", "glipizide"},
			"hypertension":  {"lisinopril", "enalapril", "amlodipine", "losartan", "hydrochlorothiazide"},
			"heart disease": {"metoprolol", "atorvastatin", "aspirin"},
			"kidney":        {},
			"liver":         {},
		},
	}
}
