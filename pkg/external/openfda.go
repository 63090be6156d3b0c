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

// OpenFDAClient handles interactions with the openFDA drug label service
type OpenFDAClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// openFDALabelResponse is the JSON envelope of the openFDA label search
type openFDALabelResponse struct {
	Results []struct {
		IndicationsAndUsage     []string `json:"indications_and_usage"`
		Warnings                []string `json:"warnings"`
		DosageAndAdministration []string `json:"dosage_and_administration"`
		Contraindications       []string `json:"contraindications"`
		OpenFDA                 struct {
			GenericName []string `json:"generic_name"`
			BrandName   []string `json:"brand_name"`
		} `json:"openfda"`
	} `json:"results"`
}

// NewOpenFDAClient creates a new openFDA label client
func NewOpenFDAClient(config domain.ClientConfig) *OpenFDAClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.fda.gov/"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 4
	}

	return &OpenFDAClient{
		baseURL: config.BaseURL,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// QueryLabel retrieves the regulatory label for a drug, filtered by
// generic name and limited to a single result
func (c *OpenFDAClient) QueryLabel(ctx context.Context, drugName string) (*domain.FDAData, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	params := url.Values{
		"search": {fmt.Sprintf(`openfda.generic_name:"%s"`, drugName)},
		"limit":  {"1"},
	}
	if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}

	fullURL := fmt.Sprintf("%sdrug/label.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create label request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute label request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("openFDA returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read label response: %w", err)
	}

	var parsed openFDALabelResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse label response: %w", err)
	}

	if len(parsed.Results) == 0 {
		return nil, fmt.Errorf("no label found for %q", drugName)
	}

	result := parsed.Results[0]
	return &domain.FDAData{
		GenericName:             first(result.OpenFDA.GenericName),
		BrandName:               first(result.OpenFDA.BrandName),
		IndicationsAndUsage:     first(result.IndicationsAndUsage),
		Warnings:                first(result.Warnings),
		DosageAndAdministration: first(result.DosageAndAdministration),
		Contraindications:       first(result.Contraindications),
	}, nil
}

// first returns the first element of a label text list, or ""
func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
