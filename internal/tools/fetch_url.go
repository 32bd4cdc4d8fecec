package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const (
	fetchTimeout      = 30 * time.Second
	fetchMaxBody      = 10 * 1024 * 1024
	fetchUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	fetchDefaultChars = 10000
)

// FetchURLTool fetches a URL and returns its text content. Always usable.
type FetchURLTool struct {
	client *http.Client
}

func NewFetchURLTool() *FetchURLTool {
	return &FetchURLTool{client: &http.Client{Timeout: fetchTimeout}}
}

func (t *FetchURLTool) Name() string { return "fetch_url" }

func (t *FetchURLTool) Description() string {
	return "Fetches and reads the content from a URL. Use this to read web pages, API responses, or any URL content. Returns the extracted text content."
}

func (t *FetchURLTool) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "The URL to fetch and read content from",
				"minLength":   1,
				"maxLength":   2000,
			},
			"maxLength": map[string]any{
				"type":        "integer",
				"description": "Maximum length of content to return in characters (100-50000, default 10000)",
				"minimum":     100,
				"maximum":     50000,
			},
		},
		"required":             []string{"url"},
		"additionalProperties": false,
	}
}

func (t *FetchURLTool) CanUse(tc *Context) bool { return true }

func (t *FetchURLTool) Execute(ctx context.Context, tc *Context, args map[string]any) (Result, error) {
	rawURL := argString(args, "url")
	maxLength := clamp(argInt(args, "maxLength", fetchDefaultChars), 100, 50000)

	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return failure("Only HTTP and HTTPS URLs are supported."), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return failure("Invalid URL: " + rawURL), nil
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		return failure("Failed to fetch URL: " + err.Error()), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return failure(fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))), nil
	}

	contentType := resp.Header.Get("Content-Type")
	if !isTextContent(contentType) {
		return failure(fmt.Sprintf("Content type %q is not text-based. Cannot read binary content.", contentType)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, fetchMaxBody))
	if err != nil {
		return failure("Failed to read response body."), nil
	}

	content := string(body)
	if strings.Contains(contentType, "text/html") {
		content = extractTextFromHTML(content)
	}
	content = cleanWhitespace(content)

	totalChars := len(content)
	if totalChars > maxLength {
		content = content[:maxLength] + fmt.Sprintf("\n\n[Content truncated: %d total characters, showing first %d]", totalChars, maxLength)
	}

	return success(map[string]any{
		"url":           rawURL,
		"contentType":   contentType,
		"contentLength": len(content),
		"content":       content,
		"statusCode":    resp.StatusCode,
	}), nil
}

func isTextContent(contentType string) bool {
	return strings.Contains(contentType, "text/") ||
		strings.Contains(contentType, "application/json") ||
		strings.Contains(contentType, "application/xml") ||
		strings.Contains(contentType, "application/javascript")
}

// extractTextFromHTML pulls readable text out of an HTML document,
// preferring the main content areas.
func extractTextFromHTML(htmlStr string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlStr))
	if err != nil {
		return stripHTMLTags(htmlStr)
	}

	doc.Find("script, style, nav, header, footer, aside").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	for _, selector := range []string{"main", "article", "[role='main']", ".content", "#content", "body"} {
		content := doc.Find(selector).First().Text()
		if len(strings.TrimSpace(content)) > 0 {
			return content
		}
	}

	return doc.Text()
}

var (
	scriptStyleRe = regexp.MustCompile(`(?s)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTagRe     = regexp.MustCompile(`<[^>]+>`)
	whitespaceRe  = regexp.MustCompile(`\s+`)
)

func stripHTMLTags(html string) string {
	html = scriptStyleRe.ReplaceAllString(html, "")
	return htmlTagRe.ReplaceAllString(html, " ")
}

func cleanWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
