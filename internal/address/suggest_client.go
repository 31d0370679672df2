package address

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"chrisgross-ctrl-project/internal/httpx"
)

// DaDataSuggestionClient calls a DaData-shaped address suggestion API (the
// provider named by spec.md §4.1's "external suggestion service"), retrying
// transient failures before the Normalizer falls back to the regex pipeline.
type DaDataSuggestionClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewDaDataSuggestionClient builds a client against baseURL (e.g.
// "https://suggestions.dadata.ru/suggestions/api/4_1/rs/suggest/address")
// authenticated with apiKey. A zero-value apiKey is a configuration error
// the caller should catch before wiring it in, not a nil-Normalizer case —
// that's address.New(nil).
func NewDaDataSuggestionClient(baseURL, apiKey string) *DaDataSuggestionClient {
	return &DaDataSuggestionClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: httpx.DefaultRetryConfig.MaxDelay},
	}
}

type dadataRequest struct {
	Query string `json:"query"`
}

type dadataResponse struct {
	Suggestions []struct {
		Value string `json:"value"`
	} `json:"suggestions"`
}

// Suggest returns the provider's top-ranked normalization of raw, or an
// error if the service is unreachable or returns no suggestions.
func (c *DaDataSuggestionClient) Suggest(ctx context.Context, raw string) (string, error) {
	body, err := json.Marshal(dadataRequest{Query: raw})
	if err != nil {
		return "", fmt.Errorf("encode suggestion request: %w", err)
	}

	resp, err := httpx.WithRetry(ctx, httpx.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Token "+c.apiKey)
		return c.httpClient.Do(req)
	})
	if err != nil {
		return "", fmt.Errorf("suggestion request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("suggestion service returned status %d", resp.StatusCode)
	}

	var parsed dadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode suggestion response: %w", err)
	}
	if len(parsed.Suggestions) == 0 {
		return "", fmt.Errorf("no suggestions returned for query")
	}
	return parsed.Suggestions[0].Value, nil
}

func (c *DaDataSuggestionClient) endpoint() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return c.baseURL
	}
	return u.String()
}
