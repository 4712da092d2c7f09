package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"
)

const defaultGithubAPIBase = "https://api.github.com"

// Repository is a GitHub repository as returned by the REST API.
type Repository struct {
	Name        string   `json:"name"`
	FullName    string   `json:"full_name"`
	Description string   `json:"description"`
	HTMLURL     string   `json:"html_url"`
	Language    string   `json:"language"`
	Stars       int      `json:"stargazers_count"`
	Size        int      `json:"size"`
	Topics      []string `json:"topics"`
}

// CodebaseSource picks a "codebase of the day" from a user's GitHub
// repositories, avoiding yesterday's pick, and summarizes its README.
type CodebaseSource struct {
	apiBase   string
	username  string
	token     string
	client    *http.Client
	selector  *Selector
	generator TextGenerator
}

// NewCodebaseSource creates the codebase source. token may be empty for
// unauthenticated API access.
func NewCodebaseSource(username, token string, selector *Selector, generator TextGenerator) *CodebaseSource {
	return &CodebaseSource{
		apiBase:   defaultGithubAPIBase,
		username:  username,
		token:     token,
		client:    &http.Client{Timeout: 30 * time.Second},
		selector:  selector,
		generator: generator,
	}
}

func (s *CodebaseSource) ID() string { return "codebase" }

func (s *CodebaseSource) Fields() []string {
	return []string{"CODEBASE_TODAY", "CODEBASE_SUMMARY"}
}

func (s *CodebaseSource) Fetch(ctx context.Context) (Fields, error) {
	repos, err := s.fetchUserRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching repositories: %w", err)
	}

	names := make([]string, len(repos))
	byName := make(map[string]Repository, len(repos))
	for i, repo := range repos {
		names[i] = repo.Name
		byName[repo.Name] = repo
	}

	picked, err := s.selector.Pick(names)
	if err != nil {
		// Empty candidate set: fixed fallback, run continues.
		log.Printf("No repositories to pick from: %v", err)
		return Fields{
			"CODEBASE_TODAY":   "(No repositories found)",
			"CODEBASE_SUMMARY": "(No summary available)",
		}, nil
	}

	repo := byName[picked]
	log.Printf("Selected codebase of the day: %s", repo.Name)

	return Fields{
		"CODEBASE_TODAY":   repo.Name,
		"CODEBASE_SUMMARY": s.describe(ctx, repo),
	}, nil
}

// describe builds the repo summary from its metadata plus a README
// summary when one can be fetched and summarized.
func (s *CodebaseSource) describe(ctx context.Context, repo Repository) string {
	var parts []string
	if repo.Description != "" {
		parts = append(parts, "Description: "+repo.Description)
	}
	if repo.Language != "" {
		parts = append(parts, "Primary Language: "+repo.Language)
	}
	parts = append(parts, fmt.Sprintf("Stars: %d", repo.Stars))
	if len(repo.Topics) > 0 {
		parts = append(parts, "Topics: "+strings.Join(repo.Topics, ", "))
	}

	readme, err := s.fetchReadme(ctx, repo)
	if err != nil {
		debugLog("no README for %s: %v", repo.Name, err)
	} else if s.generator != nil {
		summary, err := s.generator.Summarize(ctx, readme, "codebase_summary", 150)
		if err != nil {
			parts = append(parts, "", "README found but summary failed")
		} else {
			parts = append(parts, "", "README Summary:", summary)
		}
	}

	return strings.Join(parts, "\n")
}

func (s *CodebaseSource) fetchUserRepos(ctx context.Context) ([]Repository, error) {
	var all []Repository
	for page := 1; ; page++ {
		url := fmt.Sprintf("%s/users/%s/repos?page=%d&per_page=100&sort=updated&direction=desc",
			s.apiBase, s.username, page)

		var repos []Repository
		if err := s.getJSON(ctx, url, &repos); err != nil {
			return nil, err
		}
		all = append(all, repos...)
		if len(repos) < 100 {
			break
		}
	}

	// Stable candidate order keeps selection history meaningful.
	sort.Slice(all, func(i, j int) bool { return all[i].Name < all[j].Name })
	return all, nil
}

func (s *CodebaseSource) fetchReadme(ctx context.Context, repo Repository) (string, error) {
	var payload struct {
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
	}

	url := fmt.Sprintf("%s/repos/%s/readme", s.apiBase, repo.FullName)
	if err := s.getJSON(ctx, url, &payload); err != nil {
		return "", err
	}
	if payload.Encoding != "base64" {
		return "", fmt.Errorf("unexpected README encoding %q", payload.Encoding)
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(payload.Content, "\n", ""))
	if err != nil {
		return "", fmt.Errorf("decoding README: %w", err)
	}
	return string(decoded), nil
}

func (s *CodebaseSource) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "token "+s.token)
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
