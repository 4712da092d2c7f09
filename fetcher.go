package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

var debugEnabled bool

// SetDebugMode enables or disables debug logging.
func SetDebugMode(enabled bool) {
	debugEnabled = enabled
}

func debugLog(format string, args ...interface{}) {
	if debugEnabled {
		log.Printf("[DEBUG] "+format, args...)
	}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d for %s", e.StatusCode, e.URL)
}

// ContentHandler processes fetched pages based on response inspection.
type ContentHandler interface {
	CanHandle(url string, resp *http.Response) bool
	Handle(url string, resp *http.Response) (string, error)
}

// ContentFetcher fetches article pages and converts them to text
// suitable for summarization.
type ContentFetcher struct {
	handlers []ContentHandler
	client   *http.Client
}

// NewContentFetcher creates a fetcher with the default handler chain.
func NewContentFetcher() *ContentFetcher {
	f := &ContentFetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
	f.AddHandler(&MarkdownHandler{converter: md.NewConverter("", true, nil)}) // fallback
	return f
}

// AddHandler adds a content handler to the chain.
func (f *ContentFetcher) AddHandler(handler ContentHandler) {
	f.handlers = append(f.handlers, handler)
}

// FetchContent fetches url and processes it with the first matching
// handler.
func (f *ContentFetcher) FetchContent(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("building request for %s: %w", url, err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	for _, handler := range f.handlers {
		if handler.CanHandle(url, resp) {
			return handler.Handle(url, resp)
		}
	}

	return "", fmt.Errorf("no handler found for %s", url)
}

// MarkdownHandler converts HTML pages to Markdown (fallback handler).
type MarkdownHandler struct {
	converter *md.Converter
}

func (h *MarkdownHandler) CanHandle(url string, resp *http.Response) bool {
	return true // always handles as fallback
}

func (h *MarkdownHandler) Handle(url string, resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response body: %w", err)
	}

	markdown, err := h.converter.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting HTML to markdown: %w", err)
	}

	return markdown, nil
}
