package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultTrendingURL = "https://github.com/trending"

var mcpKeywords = []string{"mcp", "model-context-protocol", "modelcontextprotocol"}

// TrendingRepo is one repository row from the GitHub trending page.
type TrendingRepo struct {
	Owner       string
	Name        string
	Description string
	Language    string
	Stars       int
}

// FullName returns owner/name.
func (r TrendingRepo) FullName() string {
	return r.Owner + "/" + r.Name
}

// TrendingSource scrapes the GitHub trending page and reports the top
// MCP-related repository.
type TrendingSource struct {
	url       string
	client    *http.Client
	generator TextGenerator
}

// NewTrendingSource creates the github_trending source.
func NewTrendingSource(generator TextGenerator) *TrendingSource {
	return &TrendingSource{
		url:       defaultTrendingURL,
		client:    &http.Client{Timeout: 30 * time.Second},
		generator: generator,
	}
}

func (s *TrendingSource) ID() string { return "github_trending" }

func (s *TrendingSource) Fields() []string {
	return []string{"GITHUB_TRENDING_MCP_NAME", "GITHUB_TRENDING_MCP_SUMMARY"}
}

func (s *TrendingSource) Fetch(ctx context.Context) (Fields, error) {
	repos, err := s.fetchTrending(ctx)
	if err != nil {
		return nil, err
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("no repositories parsed from trending page")
	}

	repo, found := findMCPRepo(repos)
	if !found {
		log.Printf("No MCP repository in trending today")
		return Fields{
			"GITHUB_TRENDING_MCP_NAME":    "(No MCP repo found)",
			"GITHUB_TRENDING_MCP_SUMMARY": "(No MCP summary available)",
		}, nil
	}

	summary := repo.Description
	if s.generator != nil && repo.Description != "" {
		generated, err := s.generator.Summarize(ctx, repo.Description, "mcp_summary", 150)
		if err != nil {
			return nil, fmt.Errorf("summarizing MCP repo: %w", err)
		}
		summary = generated
	}

	log.Printf("Found trending MCP repo: %s", repo.FullName())
	return Fields{
		"GITHUB_TRENDING_MCP_NAME":    repo.FullName(),
		"GITHUB_TRENDING_MCP_SUMMARY": summary,
	}, nil
}

func (s *TrendingSource) fetchTrending(ctx context.Context) ([]TrendingRepo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching trending page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: resp.StatusCode, URL: s.url}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing trending page: %w", err)
	}

	return parseTrendingRepos(doc), nil
}

var starsRe = regexp.MustCompile(`([\d,]+)`)

// parseTrendingRepos extracts repository rows from the trending page
// DOM. Malformed rows are skipped, not fatal.
func parseTrendingRepos(doc *goquery.Document) []TrendingRepo {
	var repos []TrendingRepo

	doc.Find("article.Box-row").Each(func(_ int, article *goquery.Selection) {
		href, ok := article.Find("h2 a").First().Attr("href")
		if !ok {
			return
		}
		parts := strings.Split(strings.Trim(href, "/"), "/")
		if len(parts) != 2 {
			return
		}

		repo := TrendingRepo{
			Owner:       parts[0],
			Name:        parts[1],
			Description: strings.TrimSpace(article.Find("p").First().Text()),
			Language:    strings.TrimSpace(article.Find(`span[itemprop="programmingLanguage"]`).Text()),
		}

		article.Find("a.Link--muted").EachWithBreak(func(_ int, link *goquery.Selection) bool {
			linkHref, _ := link.Attr("href")
			if !strings.Contains(linkHref, "stargazers") {
				return true
			}
			if m := starsRe.FindString(strings.TrimSpace(link.Text())); m != "" {
				fmt.Sscanf(strings.ReplaceAll(m, ",", ""), "%d", &repo.Stars)
			}
			return false
		})

		repos = append(repos, repo)
	})

	debugLog("parsed %d trending repositories", len(repos))
	return repos
}

func findMCPRepo(repos []TrendingRepo) (TrendingRepo, bool) {
	for _, repo := range repos {
		name := strings.ToLower(repo.Name)
		desc := strings.ToLower(repo.Description)
		for _, kw := range mcpKeywords {
			if strings.Contains(name, kw) || strings.Contains(desc, kw) {
				return repo, true
			}
		}
	}
	return TrendingRepo{}, false
}
