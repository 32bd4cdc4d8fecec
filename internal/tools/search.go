package tools

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const searchEndpoint = "https://html.duckduckgo.com/html/"

// SearchResult is a single parsed search hit.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// SearchTool queries DuckDuckGo's HTML frontend. Always usable; needs no
// API key.
type SearchTool struct {
	client     *http.Client
	endpoint   string
	maxResults int
}

func NewSearchTool(maxResults int) *SearchTool {
	if maxResults < 1 || maxResults > 10 {
		maxResults = 5
	}
	return &SearchTool{
		client:     &http.Client{Timeout: 30 * time.Second},
		endpoint:   searchEndpoint,
		maxResults: maxResults,
	}
}

func (t *SearchTool) Name() string { return "search_internet" }

func (t *SearchTool) Description() string {
	return "Searches the internet for current information, news, facts, or any topic. Use this when you need up-to-date information that may not be in your training data."
}

func (t *SearchTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "The search query to look up on the internet",
				"minLength":   1,
				"maxLength":   500,
			},
			"maxResults": map[string]any{
				"type":        "integer",
				"description": "Maximum number of search results to return (1-10)",
				"minimum":     1,
				"maximum":     10,
			},
		},
		"required":             []string{"query"},
		"additionalProperties": false,
	}
}

func (t *SearchTool) CanUse(tc *Context) bool { return true }

func (t *SearchTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	query := argString(args, "query")
	maxResults := clamp(argInt(args, "maxResults", t.maxResults), 1, 10)

	results, err := t.search(ctx, query, maxResults)
	if err != nil {
		return failure("Failed to perform internet search: " + err.Error()), nil
	}

	serialized := make([]map[string]any, 0, len(results))
	for _, r := range results {
		serialized = append(serialized, map[string]any{
			"title":   r.Title,
			"url":     r.URL,
			"snippet": r.Snippet,
		})
	}

	return success(map[string]any{
		"query":   query,
		"results": serialized,
	}), nil
}

func (t *SearchTool) search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	reqURL := t.endpoint + "?q=" + url.QueryEscape(query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search request failed with status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}

	return parseSearchResults(doc, maxResults), nil
}

func parseSearchResults(doc *goquery.Document, maxResults int) []SearchResult {
	var results []SearchResult

	doc.Find(".result").EachWithBreak(func(i int, block *goquery.Selection) bool {
		if len(results) >= maxResults {
			return false
		}

		link := block.Find("a.result__a").First()
		href, _ := link.Attr("href")
		title := strings.TrimSpace(link.Text())
		snippet := strings.TrimSpace(block.Find(".result__snippet").First().Text())

		if title == "" || href == "" {
			return true
		}

		results = append(results, SearchResult{
			Title:   title,
			URL:     resolveRedirect(href),
			Snippet: cleanWhitespace(snippet),
		})
		return true
	})

	return results
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
