package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/papercrew/papercrew/internal/cache"
	"github.com/papercrew/papercrew/llm"
)

// SearchHit represents a single result from one academic source.
type SearchHit struct {
	Title    string   `json:"title"`
	Authors  []string `json:"authors"`
	Year     int      `json:"year"`
	Journal  string   `json:"journal"`
	Abstract string   `json:"abstract"`
	URL      string   `json:"url"`
}

// AcademicSearchConfig configures the academic search tool.
type AcademicSearchConfig struct {
	Cache         cache.Store   // Optional result cache
	CacheTTL      time.Duration // TTL for cached results (default 10m)
	Timeout       time.Duration // Per-search timeout
	MaxResults    int           // Cap on hits per source (default 10)
	SerperAPIKey  string        // Enables live web search through Serper when set
	SerperBaseURL string        // Default https://google.serper.dev
	HTTPClient    *http.Client  // Client for Serper requests; built from Timeout when nil
}

const serperSourceName = "Serper"

type academicSearchArgs struct {
	Query      string   `json:"query"`
	Sources    []string `json:"sources,omitempty"`
	MaxResults int      `json:"max_results,omitempty"`
}

type academicSearchResponse struct {
	Query     string                 `json:"query"`
	Sources   []string               `json:"sources"`
	Results   map[string][]SearchHit `json:"results"`
	Cached    bool                   `json:"cached"`
	Timestamp string                 `json:"timestamp"`
}

// defaultSearchSources are queried when the caller does not name any.
var defaultSearchSources = []string{"Google Scholar", "Semantic Scholar", "arXiv"}

// NewAcademicSearchTool creates a ToolFunc that searches academic sources.
// The scholarly catalogs are simulated per source; when a Serper API key is
// configured the tool additionally queries the Serper web search API. Results
// for the same query, source list and result cap are served from the cache
// when one is configured.
func NewAcademicSearchTool(config AcademicSearchConfig, logger *zap.Logger) (ToolFunc, ToolMetadata) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 10 * time.Minute
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 10
	}
	if config.SerperBaseURL == "" {
		config.SerperBaseURL = "https://google.serper.dev"
	}
	client := config.HTTPClient
	if client == nil {
		timeout := config.Timeout
		if timeout == 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	fn := func(ctx context.Context, args json.RawMessage) (json.RawMessage, error) {
		var params academicSearchArgs
		if err := json.Unmarshal(args, &params); err != nil {
			return nil, fmt.Errorf("invalid academic_search arguments: %w", err)
		}
		if params.Query == "" {
			return nil, fmt.Errorf("query is required")
		}

		maxResults := params.MaxResults
		if maxResults <= 0 || maxResults > config.MaxResults {
			maxResults = config.MaxResults
		}

		sources := params.Sources
		if len(sources) == 0 {
			sources = defaultSearchSources
			if config.SerperAPIKey != "" {
				sources = append(append([]string{}, sources...), serperSourceName)
			}
		}

		cacheKey := cache.Key("academic_search", params.Query,
			strings.Join(sources, ","), strconv.Itoa(maxResults))
		if config.Cache != nil {
			if data, err := config.Cache.Get(ctx, cacheKey); err == nil {
				var cached academicSearchResponse
				if err := json.Unmarshal(data, &cached); err == nil {
					cached.Cached = true
					logger.Debug("academic search served from cache", zap.String("query", params.Query))
					return json.Marshal(cached)
				}
			}
		}

		results := make(map[string][]SearchHit, len(sources))
		for _, source := range sources {
			if source == serperSourceName && config.SerperAPIKey != "" {
				hits, err := searchSerper(ctx, client, config, params.Query, maxResults)
				if err != nil {
					logger.Warn("serper search failed", zap.String("query", params.Query), zap.Error(err))
					hits = []SearchHit{}
				}
				results[source] = hits
				continue
			}
			hits := searchSource(params.Query, source)
			if len(hits) > maxResults {
				hits = hits[:maxResults]
			}
			results[source] = hits
		}

		resp := academicSearchResponse{
			Query:     params.Query,
			Sources:   sources,
			Results:   results,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}
		data, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}

		if config.Cache != nil {
			if err := config.Cache.Set(ctx, cacheKey, data, config.CacheTTL); err != nil {
				logger.Warn("academic search cache write failed", zap.Error(err))
			}
		}
		return data, nil
	}

	meta := ToolMetadata{
		Schema: llm.ToolSchema{
			Name:        "academic_search",
			Description: "Search for academic papers, articles, and research materials across multiple databases.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query string"},
					"sources": {"type": "array", "items": {"type": "string"}},
					"max_results": {"type": "integer"}
				},
				"required": ["query"]
			}`),
		},
		Timeout: config.Timeout,
	}
	return fn, meta
}

type serperResponse struct {
	Organic []struct {
		Title   string `json:"title"`
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic"`
}

// searchSerper queries the Serper web search API and maps organic results
// onto search hits.
func searchSerper(ctx context.Context, client *http.Client, config AcademicSearchConfig, query string, maxResults int) ([]SearchHit, error) {
	payload, err := json.Marshal(map[string]interface{}{"q": query, "num": maxResults})
	if err != nil {
		return nil, err
	}

	endpoint := strings.TrimRight(config.SerperBaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", config.SerperAPIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serper returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed serperResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode serper response: %w", err)
	}

	hits := make([]SearchHit, 0, len(parsed.Organic))
	for _, r := range parsed.Organic {
		if len(hits) >= maxResults {
			break
		}
		hits = append(hits, SearchHit{
			Title:    r.Title,
			Abstract: r.Snippet,
			URL:      r.Link,
			Journal:  "Web",
		})
	}
	return hits, nil
}

// searchSource returns the simulated catalog entry for one source.
func searchSource(query, source string) []SearchHit {
	escaped := strings.ReplaceAll(query, " ", "+")

	switch source {
	case "Google Scholar":
		return []SearchHit{{
			Title:    fmt.Sprintf("Research Paper on %s - Part 1", query),
			Authors:  []string{"John Doe", "Jane Smith"},
			Year:     2023,
			Journal:  "Academic Journal of Research",
			Abstract: "This is a comprehensive study on the topic of " + query,
			URL:      "https://scholar.google.com/scholar?q=" + escaped,
		}}
	case "Semantic Scholar":
		return []SearchHit{{
			Title:    fmt.Sprintf("Semantic Analysis of %s", query),
			Authors:  []string{"Alice Johnson", "Bob Wilson"},
			Year:     2022,
			Journal:  "Semantic Research Quarterly",
			Abstract: "Advanced semantic analysis techniques applied to " + query,
			URL:      "https://www.semanticscholar.org/search?q=" + escaped,
		}}
	case "arXiv":
		return []SearchHit{{
			Title:    fmt.Sprintf("Preprint: Novel Approaches to %s", query),
			Authors:  []string{"Research Team"},
			Year:     2024,
			Journal:  "arXiv Preprint",
			Abstract: "Cutting-edge research on " + query,
			URL:      "https://arxiv.org/search/?query=" + escaped,
		}}
	}
	return []SearchHit{}
}
