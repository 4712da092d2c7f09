package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultHNBaseURL = "https://hacker-news.firebaseio.com/v0"

// DefaultKeywords score Hacker News titles for relevance.
var DefaultKeywords = []string{
	"3D", "MCP", "robotics", "startup", "AI", "disruption",
	"artificial intelligence", "machine learning",
}

// HNItem is a Hacker News story as returned by the Firebase API.
type HNItem struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Score       int    `json:"score"`
	By          string `json:"by"`
	Descendants int    `json:"descendants"`
}

// ContentURL is where the story's content lives: the linked page, or
// the HN discussion for link-less stories.
func (i HNItem) ContentURL() string {
	if i.URL != "" {
		return i.URL
	}
	return fmt.Sprintf("https://news.ycombinator.com/item?id=%d", i.ID)
}

// HackerNewsSource picks the most relevant top story and summarizes it.
type HackerNewsSource struct {
	baseURL   string
	client    *http.Client
	fetcher   *ContentFetcher
	generator TextGenerator
	keywords  []string
	limit     int
}

// NewHackerNewsSource creates the hacker_news source. generator may be
// nil, in which case summary fields fall back to the article title.
func NewHackerNewsSource(fetcher *ContentFetcher, generator TextGenerator, keywords []string) *HackerNewsSource {
	if len(keywords) == 0 {
		keywords = DefaultKeywords
	}
	return &HackerNewsSource{
		baseURL:   defaultHNBaseURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		fetcher:   fetcher,
		generator: generator,
		keywords:  keywords,
		limit:     10,
	}
}

func (s *HackerNewsSource) ID() string { return "hacker_news" }

func (s *HackerNewsSource) Fields() []string {
	return []string{
		"YC_ARTICLE_PICK", "YC_ARTICLE_SUMMARY",
		"YC_ARTICLE_KEYPOINTS", "YC_ARTICLE_KEYWORDS",
	}
}

func (s *HackerNewsSource) Fetch(ctx context.Context) (Fields, error) {
	ids, err := s.fetchTopStoryIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching top stories: %w", err)
	}

	items := s.fetchItems(ctx, ids)
	if len(items) == 0 {
		return nil, fmt.Errorf("no valid stories among top %d", s.limit)
	}

	item, keywords := s.pickMostRelevant(items)
	log.Printf("Selected HN article: %s (keywords: %v)", item.Title, keywords)

	fields := Fields{
		"YC_ARTICLE_PICK":     item.Title,
		"YC_ARTICLE_KEYWORDS": "technology, startup",
	}
	if len(keywords) > 0 {
		fields["YC_ARTICLE_KEYWORDS"] = strings.Join(keywords, ", ")
	}

	if s.generator == nil {
		fields["YC_ARTICLE_SUMMARY"] = item.Title
		fields["YC_ARTICLE_KEYPOINTS"] = item.Title
		return fields, nil
	}

	// Summaries come from the article body when it is reachable, the
	// bare title otherwise. A dead link is not a source failure.
	content, err := s.fetcher.FetchContent(ctx, item.ContentURL())
	if err != nil {
		debugLog("HN article content unreachable, summarizing title only: %v", err)
		content = item.Title
	}

	summary, err := s.generator.Summarize(ctx, content, "summary", 150)
	if err != nil {
		return nil, fmt.Errorf("summarizing article: %w", err)
	}
	keypoints, err := s.generator.Summarize(ctx, content, "keypoints", 100)
	if err != nil {
		return nil, fmt.Errorf("extracting keypoints: %w", err)
	}

	fields["YC_ARTICLE_SUMMARY"] = summary
	fields["YC_ARTICLE_KEYPOINTS"] = keypoints
	return fields, nil
}

func (s *HackerNewsSource) fetchTopStoryIDs(ctx context.Context) ([]int, error) {
	var ids []int
	if err := s.getJSON(ctx, s.baseURL+"/topstories.json", &ids); err != nil {
		return nil, err
	}
	if len(ids) > s.limit {
		ids = ids[:s.limit]
	}
	return ids, nil
}

// fetchItems fetches story details concurrently. Individual item
// failures are tolerated; they just drop out of the candidate list.
func (s *HackerNewsSource) fetchItems(ctx context.Context, ids []int) []HNItem {
	items := make([]*HNItem, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			var item HNItem
			url := fmt.Sprintf("%s/item/%d.json", s.baseURL, id)
			if err := s.getJSON(ctx, url, &item); err != nil {
				debugLog("failed to fetch HN item %d: %v", id, err)
				return
			}
			if item.Type == "story" && item.Title != "" {
				items[i] = &item
			}
		}(i, id)
	}
	wg.Wait()

	valid := make([]HNItem, 0, len(items))
	for _, item := range items {
		if item != nil {
			valid = append(valid, *item)
		}
	}
	return valid
}

// pickMostRelevant scores stories by keyword matches with small bonuses
// for multi-keyword titles and high HN scores. With no keyword match
// anywhere, the top story wins.
func (s *HackerNewsSource) pickMostRelevant(items []HNItem) (HNItem, []string) {
	type scored struct {
		item     HNItem
		score    int
		keywords []string
	}

	ranked := make([]scored, 0, len(items))
	for _, item := range items {
		title := strings.ToLower(item.Title)
		var matched []string
		for _, kw := range s.keywords {
			if strings.Contains(title, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}

		score := len(matched) * 10
		if len(matched) > 1 {
			score += 5
		}
		switch {
		case item.Score > 100:
			score += 2
		case item.Score > 50:
			score++
		}
		ranked = append(ranked, scored{item: item, score: score, keywords: matched})
	}

	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })

	if ranked[0].score == 0 {
		return items[0], nil
	}
	return ranked[0].item, ranked[0].keywords
}

func (s *HackerNewsSource) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &HTTPError{StatusCode: resp.StatusCode, URL: url}
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
