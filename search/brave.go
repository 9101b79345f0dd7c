package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/threadloop/threadloop/core"
)

const defaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// BraveSearch queries the Brave web search API.
// https://api.search.brave.com/app/documentation/web-search
type BraveSearch struct {
	APIKey  string
	Client  *http.Client
	BaseURL string
}

// Search implements Searcher.
func (s *BraveSearch) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	base := s.BaseURL
	if base == "" {
		base = defaultBraveURL
	}
	endpoint := fmt.Sprintf("%s?q=%s&count=%d", base, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", s.APIKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("brave search: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []core.SearchResult
	for i, hit := range raw.Web.Results {
		if i >= limit {
			break
		}
		out = append(out, core.SearchResult{
			Title:   hit.Title,
			URL:     hit.URL,
			Snippet: hit.Description,
			Source:  "brave",
		})
	}
	return out, nil
}
