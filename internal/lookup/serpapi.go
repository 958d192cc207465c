package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/niramoy/health-assistant/internal/model"
	"github.com/niramoy/health-assistant/pkg/metrics"
)

const serpAPIURL = "https://serpapi.com/search.json"

// SerpAPI searches Google through SerpApi, preferring local (maps) results.
type SerpAPI struct {
	apiKey     string
	url        string
	limit      int
	httpClient *http.Client
}

// NewSerpAPI creates a SerpApi client.
func NewSerpAPI(apiKey string) *SerpAPI {
	return &SerpAPI{
		apiKey:     apiKey,
		url:        serpAPIURL,
		limit:      5,
		httpClient: newHTTPClient(),
	}
}

type serpResult struct {
	Title                   string   `json:"title"`
	Snippet                 string   `json:"snippet"`
	SnippetHighlightedWords []string `json:"snippet_highlighted_words"`
	Link                    string   `json:"link"`
	Address                 string   `json:"address"`
	Phone                   string   `json:"phone"`
}

type serpResponse struct {
	Error          string          `json:"error"`
	LocalResults   json.RawMessage `json:"local_results"`
	OrganicResults []serpResult    `json:"organic_results"`
}

// Search returns up to five local then organic results, deduplicated by title.
func (s *SerpAPI) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("serpapi: %w", ErrNotConfigured)
	}

	results, err := s.search(ctx, query)
	metrics.RecordLookup("serpapi", err)
	return results, err
}

func (s *SerpAPI) search(ctx context.Context, query string) ([]model.SearchResult, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", s.apiKey)
	params.Set("engine", "google")
	params.Set("num", "5")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	var resp serpResponse
	if err := doJSON(s.httpClient, req, "serpapi", &resp); err != nil {
		return nil, err
	}
	if resp.Error != "" {
		return nil, errors.New("serpapi: " + resp.Error)
	}

	local, err := decodeLocalResults(resp.LocalResults)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var results []model.SearchResult
	for _, r := range append(local, resp.OrganicResults...) {
		if seen[r.Title] {
			continue
		}
		seen[r.Title] = true

		snippet := r.Snippet
		if snippet == "" {
			snippet = strings.Join(r.SnippetHighlightedWords, " ")
		}
		results = append(results, model.SearchResult{
			Title:   r.Title,
			URL:     r.Link,
			Content: snippet,
			Address: r.Address,
			Phone:   r.Phone,
		})
		if len(results) == s.limit {
			break
		}
	}
	return results, nil
}

// local_results is a list for some engines and {"places": [...]} for others.
func decodeLocalResults(raw json.RawMessage) ([]serpResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var list []serpResult
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var wrapped struct {
		Places []serpResult `json:"places"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode local results: %w", err)
	}
	return wrapped.Places, nil
}
