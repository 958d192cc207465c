package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

const tavilyURL = "https://api.tavily.com/search"

// Tavily searches the web through the Tavily API.
type Tavily struct {
	apiKey     string
	url        string
	maxResults int
	httpClient *http.Client
}

// NewTavily creates a Tavily client.
func NewTavily(apiKey string) *Tavily {
	return &Tavily{
		apiKey:     apiKey,
		url:        tavilyURL,
		maxResults: 5,
		httpClient: newHTTPClient(),
	}
}

type tavilyRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string      `json:"title"`
		URL     string      `json:"url"`
		Content string      `json:"content"`
		Score   json.Number `json:"score"`
	} `json:"results"`
}

// Search runs an advanced-depth search.
func (t *Tavily) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if t.apiKey == "" {
		return nil, fmt.Errorf("tavily: %w", ErrNotConfigured)
	}

	results, err := t.search(ctx, query)
	metrics.RecordLookup("tavily", err)
	return results, err
}

func (t *Tavily) search(ctx context.Context, query string) ([]model.SearchResult, error) {
	body, err := json.Marshal(tavilyRequest{
		APIKey:      t.apiKey,
		Query:       query,
		SearchDepth: "advanced",
		MaxResults:  t.maxResults,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp tavilyResponse
	if err := doJSON(t.httpClient, req, "tavily", &resp); err != nil {
		return nil, err
	}

	results := make([]model.SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		score, _ := r.Score.Float64()
		results = append(results, model.SearchResult{
			Title:   r.Title,
			URL:     r.URL,
			Content: r.Content,
			Score:   score,
		})
	}
	return results, nil
}
