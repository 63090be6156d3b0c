package external

import (
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

// PubChemClient handles interactions with the PubChem PUG REST service
// for chemical structure data
type PubChemClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// pubChemPropertyResponse is the JSON envelope of the PUG REST property
// table
type pubChemPropertyResponse struct {
	PropertyTable struct {
		Properties []struct {
			CID              int    `json:"CID"`
			MolecularFormula string `json:"MolecularFormula"`
			MolecularWeight  string `json:"MolecularWeight"`
			CanonicalSMILES  string `json:"CanonicalSMILES"`
			IsomericSMILES   string `json:"IsomericSMILES"`
		} `json:"Properties"`
	} `json:"PropertyTable"`
}

// NewPubChemClient creates a new PubChem structure client
func NewPubChemClient(config domain.ClientConfig) *PubChemClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/pug/"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	return &PubChemClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// QueryCompound retrieves molecular formula, weight and structure
// strings for a compound name
func (c *PubChemClient) QueryCompound(ctx context.Context, drugName string) (*domain.PubChemData, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	fullURL := fmt.Sprintf(
		"%scompound/name/%s/property/MolecularFormula,MolecularWeight,CanonicalSMILES,IsomericSMILES/JSON",
		c.baseURL, url.PathEscape(drugName))

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create compound request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute compound request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubChem returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read compound response: %w", err)
	}

	var parsed pubChemPropertyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse compound response: %w", err)
	}

	if len(parsed.PropertyTable.Properties) == 0 {
		return nil, fmt.Errorf("no compound properties found for %q", drugName)
	}

	prop := parsed.PropertyTable.Properties[0]
	return &domain.PubChemData{
		CID:              prop.CID,
		MolecularFormula: prop.MolecularFormula,
		MolecularWeight:  prop.MolecularWeight,
		CanonicalSMILES:  prop.CanonicalSMILES,
		IsomericSMILES:   prop.IsomericSMILES,
	}, nil
}
