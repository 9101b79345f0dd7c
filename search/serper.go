package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/threadloop/threadloop/core"
)

const defaultSerperURL = "https://google.serper.dev/search"

// SerperSearch queries the serper.dev Google search API.
// https://serper.dev/ docs
type SerperSearch struct {
	APIKey  string
	Client  *http.Client
	BaseURL string
}

// Search implements Searcher.
func (s *SerperSearch) Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error) {
	url := s.BaseURL
	if url == "" {
		url = defaultSerperURL
	}

	body, _ := json.Marshal(map[string]any{"q": query, "num": limit})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("serper search: unexpected status %d", resp.StatusCode)
	}

	var raw struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	var out []core.SearchResult
	for i, hit := range raw.Organic {
		if i >= limit {
			break
		}
		out = append(out, core.SearchResult{
			Title:   hit.Title,
			URL:     hit.Link,
			Snippet: hit.Snippet,
			Source:  "serper",
		})
	}
	return out, nil
}
