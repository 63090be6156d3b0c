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

// RxNormClient handles interactions with the RxNorm structured drug
// vocabulary service
type RxNormClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// rxNormDrugsResponse is the JSON envelope of the RxNorm drugs endpoint
type rxNormDrugsResponse struct {
	DrugGroup struct {
		Name         string `json:"name"`
		ConceptGroup []struct {
			TTY               string `json:"tty"`
			ConceptProperties []struct {
				RxCUI    string `json:"rxcui"`
				Name     string `json:"name"`
				Synonym  string `json:"synonym"`
				TTY      string `json:"tty"`
				Language string `json:"language"`
			} `json:"conceptProperties"`
		} `json:"conceptGroup"`
	} `json:"drugGroup"`
}

// NewRxNormClient creates a new RxNorm API client
func NewRxNormClient(config domain.ClientConfig) *RxNormClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://rxnav.nlm.nih.gov/REST/"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	return &RxNormClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// QueryDrug looks up a drug name in RxNorm and returns the identifier of
// the first concept plus the total concept count
func (c *RxNormClient) QueryDrug(ctx context.Context, drugName string) (*domain.RxNormData, error) {
	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	params := url.Values{"name": {drugName}}
	fullURL := fmt.Sprintf("%sdrugs.json?%s", c.baseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create RxNorm request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute RxNorm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RxNorm returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read RxNorm response: %w", err)
	}

	var parsed rxNormDrugsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse RxNorm response: %w", err)
	}

	data := &domain.RxNormData{}
	for _, group := range parsed.DrugGroup.ConceptGroup {
		for _, prop := range group.ConceptProperties {
			if data.RxCUI == "" && prop.RxCUI != "" {
				data.RxCUI = prop.RxCUI
				data.Name = prop.Name
			}
			data.ConceptCount++
		}
	}

	if data.ConceptCount == 0 {
		return nil, fmt.Errorf("no RxNorm concepts found for %q", drugName)
	}

	return data, nil
}
