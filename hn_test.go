package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newHNTestServer(t *testing.T, ids []int, items map[int]HNItem) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/topstories.json", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ids)
	})
	mux.HandleFunc("/item/", func(w http.ResponseWriter, r *http.Request) {
		var id int
		fmt.Sscanf(r.URL.Path, "/item/%d.json", &id)
		item, ok := items[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(item)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestHackerNewsFetchPicksRelevantStory(t *testing.T) {
	items := map[int]HNItem{
		1: {ID: 1, Type: "story", Title: "Show HN: My weekend project", Score: 300},
		2: {ID: 2, Type: "story", Title: "New MCP server for AI agents", Score: 80},
		3: {ID: 3, Type: "story", Title: "Rust 2.0 released", Score: 150},
	}
	server := newHNTestServer(t, []int{1, 2, 3}, items)

	source := NewHackerNewsSource(NewContentFetcher(), nil, []string{"MCP", "AI"})
	source.baseURL = server.URL
	source.client = server.Client()

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if fields["YC_ARTICLE_PICK"] != "New MCP server for AI agents" {
		t.Errorf("YC_ARTICLE_PICK = %q, want the keyword-matching story", fields["YC_ARTICLE_PICK"])
	}
	// Without a generator the summary fields fall back to the title.
	if fields["YC_ARTICLE_SUMMARY"] != fields["YC_ARTICLE_PICK"] {
		t.Errorf("YC_ARTICLE_SUMMARY = %q, want title fallback", fields["YC_ARTICLE_SUMMARY"])
	}
	if fields["YC_ARTICLE_KEYWORDS"] != "MCP, AI" {
		t.Errorf("YC_ARTICLE_KEYWORDS = %q, want %q", fields["YC_ARTICLE_KEYWORDS"], "MCP, AI")
	}
}

func TestHackerNewsFetchNoKeywordMatch(t *testing.T) {
	items := map[int]HNItem{
		1: {ID: 1, Type: "story", Title: "Ask HN: Favorite keyboard?", Score: 40},
		2: {ID: 2, Type: "story", Title: "A history of sourdough", Score: 90},
	}
	server := newHNTestServer(t, []int{1, 2}, items)

	source := NewHackerNewsSource(NewContentFetcher(), nil, []string{"MCP"})
	source.baseURL = server.URL
	source.client = server.Client()

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	// No match anywhere: the top story wins, with generic keywords.
	if fields["YC_ARTICLE_PICK"] != "Ask HN: Favorite keyboard?" {
		t.Errorf("YC_ARTICLE_PICK = %q, want the top story", fields["YC_ARTICLE_PICK"])
	}
	if fields["YC_ARTICLE_KEYWORDS"] != "technology, startup" {
		t.Errorf("YC_ARTICLE_KEYWORDS = %q, want generic fallback", fields["YC_ARTICLE_KEYWORDS"])
	}
}

func TestHackerNewsFetchToleratesBrokenItems(t *testing.T) {
	items := map[int]HNItem{
		2: {ID: 2, Type: "story", Title: "Surviving story", Score: 10},
	}
	// Item 1 404s, item 3 is a non-story.
	items[3] = HNItem{ID: 3, Type: "job", Title: "Hiring"}
	server := newHNTestServer(t, []int{1, 2, 3}, items)

	source := NewHackerNewsSource(NewContentFetcher(), nil, nil)
	source.baseURL = server.URL
	source.client = server.Client()

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if fields["YC_ARTICLE_PICK"] != "Surviving story" {
		t.Errorf("YC_ARTICLE_PICK = %q, want the only valid story", fields["YC_ARTICLE_PICK"])
	}
}

func TestHackerNewsFetchAPIDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	source := NewHackerNewsSource(NewContentFetcher(), nil, nil)
	source.baseURL = server.URL
	source.client = server.Client()

	if _, err := source.Fetch(context.Background()); err == nil {
		t.Fatal("Fetch() error = nil, want failure when the API is down")
	}
}

func TestHNItemContentURL(t *testing.T) {
	withURL := HNItem{ID: 5, URL: "https://example.com/post"}
	if got := withURL.ContentURL(); got != "https://example.com/post" {
		t.Errorf("ContentURL() = %q, want the story link", got)
	}

	selfPost := HNItem{ID: 5}
	want := "https://news.ycombinator.com/item?id=5"
	if got := selfPost.ContentURL(); got != want {
		t.Errorf("ContentURL() = %q, want %q", got, want)
	}
}
