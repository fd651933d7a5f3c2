// Package places searches for restaurants through the SerpAPI google_maps
// engine.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"savor/internal/models"
)

const defaultEndpoint = "https://serpapi.com/search"

// maxResults is how many candidates are retained for selection matching;
// callers show fewer.
const maxResults = 5

// Client queries SerpAPI for restaurants near a location.
type Client struct {
	apiKey   string
	endpoint string
	httpc    *http.Client
	log      *zap.Logger
}

func NewClient(apiKey string, log *zap.Logger) *Client {
	return &Client{
		apiKey:   apiKey,
		endpoint: defaultEndpoint,
		httpc:    &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}

// WithEndpoint overrides the API endpoint. Used in tests.
func (c *Client) WithEndpoint(endpoint string) *Client {
	c.endpoint = endpoint
	return c
}

// localResult mirrors the fields we read from a google_maps local result.
type localResult struct {
	Title   string  `json:"title"`
	Address string  `json:"address"`
	Rating  float64 `json:"rating"`
	Phone   string  `json:"phone"`
}

type searchResponse struct {
	LocalResults []localResult `json:"local_results"`
}

// Search returns up to five restaurants matching the cuisine near the
// location, in the ranking the engine returned. An empty slice is a valid
// outcome, not an error.
func (c *Client) Search(ctx context.Context, location, cuisine string) ([]models.Restaurant, error) {
	params := url.Values{}
	params.Set("engine", "google_maps")
	params.Set("type", "search")
	params.Set("q", fmt.Sprintf("%s restaurants in %s", cuisine, location))
	params.Set("location", location)
	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("places search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places search: unexpected status %d", resp.StatusCode)
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	results := make([]models.Restaurant, 0, maxResults)
	for _, place := range payload.LocalResults {
		if len(results) == maxResults {
			break
		}
		name := place.Title
		if name == "" {
			name = "Unknown"
		}
		address := place.Address
		if address == "" {
			address = "Unknown"
		}
		results = append(results, models.Restaurant{
			Name:        name,
			Address:     address,
			Rating:      place.Rating,
			CuisineType: cuisine,
			Phone:       place.Phone,
		})
	}

	c.log.Debug("places search",
		zap.String("location", location),
		zap.String("cuisine", cuisine),
		zap.Int("results", len(results)))
	return results, nil
}
