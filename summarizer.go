package main

import (
	"context"
	"fmt"
	"log"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"
)

// TextGenerator produces short summaries and facts. Satisfied by
// Summarizer; tests substitute a canned implementation.
type TextGenerator interface {
	Summarize(ctx context.Context, content, kind string, wordLimit int) (string, error)
	Fact(ctx context.Context, topic, kind string, wordLimit int) (string, error)
}

// Summarizer generates summaries and facts through the Anthropic API.
type Summarizer struct {
	apiKey   string
	settings SummarizerSettings
}

// NewSummarizer creates a summarizer. An empty API key is an error: the
// caller decides whether to run without one.
func NewSummarizer(apiKey string, settings SummarizerSettings) (*Summarizer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	return &Summarizer{apiKey: apiKey, settings: settings}, nil
}

const summarizerSystemPrompt = "You are a concise and accurate summarizer. Respect the word limit exactly."

var summaryPrompts = map[string]string{
	"summary":          "Summarize the following content in %d words or less:\n\n%s",
	"keypoints":        "Extract the key facts and points from the following content as a bulleted list. Limit to %d words total:\n\n%s",
	"keywords":         "List all relevant keywords and tags from the following content. Format as comma-separated values. Limit to %d words:\n\n%s",
	"mcp_summary":      "Summarize this GitHub Model Context Protocol (MCP) repository in %d words or less. Focus on its purpose, features, and use cases:\n\n%s",
	"codebase_summary": "Provide a comprehensive summary of this codebase in %d words or less. Include the main directories, purpose, and key features:\n\n%s",
	"movie_summary":    "Provide a brief %d word summary of the plot of %s. Focus on the main storyline and key themes.",
	"location":         "In %d words or less, describe the location of %s as if explaining to someone totally unfamiliar with its geography. Include nearby landmarks, geographic features, and climate.",
	"transcript_analysis": "Analyze the following transcript in %d words or less. Include a 2-3 sentence summary, key highlights as bullet points, the overall sentiment, and the most important keywords:\n\n%s",
}

var factPrompts = map[string]string{
	"ww1":         "Generate an interesting and lesser-known fact about World War 1. Limit to %d words.",
	"ww2":         "Generate an interesting and lesser-known fact about World War 2. Limit to %d words.",
	"europe":      "Generate an interesting historical fact about Europe. Limit to %d words.",
	"nasa_launch": "Generate a fact about a NASA launch that occurred in the year %s. If no launches happened that year, mention the closest significant launch. Limit to %d words.",
	"golf":        "Describe the most renowned golf courses in %s. Include their location relative to major cities using driving distances and directions. Limit to %d words.",
}

// Summarize condenses content according to the named prompt kind.
func (s *Summarizer) Summarize(ctx context.Context, content, kind string, wordLimit int) (string, error) {
	if content == "" {
		return "(No content to summarize)", nil
	}

	template, ok := summaryPrompts[kind]
	if !ok {
		template = summaryPrompts["summary"]
	}
	return s.prompt(ctx, fmt.Sprintf(template, wordLimit, content))
}

// Fact generates a standalone fact of the named kind. topic is
// interpolated for kinds that take one (nasa_launch, golf).
func (s *Summarizer) Fact(ctx context.Context, topic, kind string, wordLimit int) (string, error) {
	template, ok := factPrompts[kind]
	if !ok {
		return "", fmt.Errorf("unknown fact kind: %s", kind)
	}

	var prompt string
	switch kind {
	case "nasa_launch", "golf":
		prompt = fmt.Sprintf(template, topic, wordLimit)
	default:
		prompt = fmt.Sprintf(template, wordLimit)
	}
	return s.prompt(ctx, prompt)
}

func (s *Summarizer) prompt(ctx context.Context, userPrompt string) (string, error) {
	settings := types.RequestSettings{
		Model:       s.settings.Model,
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	}
	response, err := anthropic.PromptWithSettings(summarizerSystemPrompt, userPrompt, "", s.apiKey, settings)
	if err != nil {
		return "", fmt.Errorf("summarizer prompt failed: %w", err)
	}
	if len(response.Content) == 0 {
		return "", fmt.Errorf("no content in summarizer response")
	}

	debugLog("summarizer produced %d chars", len(response.Content[0].Text))
	return response.Content[0].Text, nil
}

// factSource generates one LLM-backed fact field. Each fact is its own
// source so a single slow or failing generation never blocks the rest.
type factSource struct {
	id        string
	field     string
	topic     string
	kind      string
	wordLimit int
	generator TextGenerator
}

func newFactSource(id, field, topic, kind string, wordLimit int, generator TextGenerator) *factSource {
	return &factSource{id: id, field: field, topic: topic, kind: kind, wordLimit: wordLimit, generator: generator}
}

func (f *factSource) ID() string { return f.id }

func (f *factSource) Fields() []string { return []string{f.field} }

func (f *factSource) Fetch(ctx context.Context) (Fields, error) {
	fact, err := f.generator.Fact(ctx, f.topic, f.kind, f.wordLimit)
	if err != nil {
		return nil, err
	}
	log.Printf("Generated %s fact", f.kind)
	return Fields{f.field: fact}, nil
}
