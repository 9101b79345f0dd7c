// Package search defines the web search collaborator interface and HTTP
// clients for the supported providers.
package search

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/threadloop/threadloop/core"
)

// Searcher executes one web search query and maps hits into result records.
// Implementations return an error on transport failure; callers that can
// degrade gracefully treat errors as an empty hit list.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]core.SearchResult, error)
}

// Provider selects a concrete search backend.
type Provider string

const (
	// SerperProvider is the serper.dev Google search API.
	SerperProvider Provider = "serper"
	// BraveProvider is the Brave web search API.
	BraveProvider Provider = "brave"
)

// Options configures the search client construction.
type Options struct {
	HTTPClient *http.Client
	Timeout    time.Duration
}

// New constructs a Searcher for the given provider.
func New(provider Provider, apiKey string, optFns ...func(o *Options)) (Searcher, error) {
	opts := Options{Timeout: 15 * time.Second}
	for _, fn := range optFns {
		fn(&opts)
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	switch provider {
	case SerperProvider:
		return &SerperSearch{APIKey: apiKey, Client: client}, nil
	case BraveProvider:
		return &BraveSearch{APIKey: apiKey, Client: client}, nil
	default:
		return nil, fmt.Errorf("unsupported search provider: %q", provider)
	}
}
