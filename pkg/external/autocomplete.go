package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/drug-response-server/internal/domain"
)

// Query terms shorter than this are rejected without a network call;
// the upstream dictionary does not index shorter prefixes.
const minSuggestTermLength = 3

// Suggestions beyond this count are discarded
const maxSuggestions = 10

// AutocompleteClient handles interactions with the compound vocabulary
// autocomplete service
type AutocompleteClient struct {
	baseURL    string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// autocompleteResponse is the JSON envelope of the autocomplete service
type autocompleteResponse struct {
	DictionaryTerms struct {
		Compound []string `json:"compound"`
	} `json:"dictionary_terms"`
}

// NewAutocompleteClient creates a new compound autocomplete client
func NewAutocompleteClient(config domain.ClientConfig) *AutocompleteClient {
	if config.BaseURL == "" {
		config.BaseURL = "https://pubchem.ncbi.nlm.nih.gov/rest/autocomplete/"
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5
	}

	return &AutocompleteClient{
		baseURL: config.BaseURL,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Suggest returns compound name suggestions for the query term, capped
// to the first ten entries. Terms shorter than three characters yield an
// empty suggestion set.
func (c *AutocompleteClient) Suggest(ctx context.Context, term string) ([]string, error) {
	term = strings.TrimSpace(term)
	if len(term) < minSuggestTermLength {
		return nil, nil
	}

	if err := c.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	fullURL := fmt.Sprintf("%scompound/%s/json?limit=%d",
		c.baseURL, url.PathEscape(term), maxSuggestions)

	req, err := http.NewRequestWithContext(ctx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create autocomplete request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute autocomplete request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("autocomplete service returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read autocomplete response: %w", err)
	}

	var parsed autocompleteResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse autocomplete response: %w", err)
	}

	suggestions := parsed.DictionaryTerms.Compound
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}

	return suggestions, nil
}
