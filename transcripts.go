package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// transcriptStopwords are excluded from word-frequency analysis.
var transcriptStopwords = map[string]bool{
	"i": true, "you": true, "he": true, "she": true, "it": true, "we": true,
	"they": true, "me": true, "him": true, "her": true, "us": true, "them": true,
	"my": true, "your": true, "his": true, "its": true, "our": true, "their": true,
	"this": true, "that": true, "these": true, "those": true, "which": true,
	"who": true, "whom": true, "whose": true, "what": true, "where": true,
	"when": true, "why": true, "how": true, "a": true, "an": true, "the": true,
	"and": true, "but": true, "or": true, "nor": true, "for": true, "yet": true,
	"so": true, "is": true, "am": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true, "had": true,
	"do": true, "does": true, "did": true, "will": true, "would": true,
	"shall": true, "should": true, "may": true, "might": true, "must": true,
	"can": true, "could": true, "to": true, "of": true, "in": true, "on": true,
	"at": true, "by": true, "from": true, "up": true, "out": true, "off": true,
	"over": true, "under": true, "again": true, "further": true, "then": true,
	"once": true, "here": true, "there": true, "all": true, "both": true,
	"each": true, "few": true, "more": true, "most": true, "other": true,
	"some": true, "such": true, "no": true, "not": true, "only": true,
	"own": true, "same": true, "than": true, "too": true, "very": true,
	"s": true, "t": true, "just": true, "don": true, "now": true, "as": true,
	"with": true, "about": true, "after": true, "also": true, "back": true,
	"before": true, "between": true, "during": true, "even": true, "first": true,
	"if": true, "into": true, "like": true, "make": true, "many": true,
	"one": true, "see": true, "take": true, "two": true, "want": true,
	"way": true, "well": true, "because": true, "get": true, "go": true,
	"good": true, "know": true, "last": true, "new": true, "people": true,
	"say": true, "think": true, "time": true, "use": true, "work": true,
	"year": true, "come": true, "day": true, "give": true,
}

var transcriptWordRe = regexp.MustCompile(`[a-z]+`)

type wordCount struct {
	word  string
	count int
}

// wordFrequencies counts non-stopword occurrences in text, keeping only
// words seen at least minCount times, most frequent first. Ties break
// alphabetically so the output is stable.
func wordFrequencies(text string, minCount int) []wordCount {
	counts := make(map[string]int)
	for _, word := range transcriptWordRe.FindAllString(strings.ToLower(text), -1) {
		if !transcriptStopwords[word] {
			counts[word]++
		}
	}

	frequent := make([]wordCount, 0, len(counts))
	for word, count := range counts {
		if count >= minCount {
			frequent = append(frequent, wordCount{word: word, count: count})
		}
	}
	sort.Slice(frequent, func(i, j int) bool {
		if frequent[i].count != frequent[j].count {
			return frequent[i].count > frequent[j].count
		}
		return frequent[i].word < frequent[j].word
	})
	return frequent
}

func formatWordFrequencies(frequent []wordCount, limit int) string {
	if len(frequent) == 0 {
		return ""
	}
	if len(frequent) > limit {
		frequent = frequent[:limit]
	}

	parts := make([]string, len(frequent))
	for i, wc := range frequent {
		parts[i] = fmt.Sprintf("%s (%d)", wc.word, wc.count)
	}
	return "Top words: " + strings.Join(parts, ", ")
}

// TranscriptSource analyzes recent transcript text files dropped into a
// local directory: an LLM analysis per transcript when a generator is
// available, plus a local word-frequency table either way.
type TranscriptSource struct {
	dir       string
	generator TextGenerator
	maxAge    time.Duration
	limit     int
	minCount  int
	now       func() time.Time
}

// NewTranscriptSource creates the transcripts source over dir.
// generator may be nil.
func NewTranscriptSource(dir string, generator TextGenerator) *TranscriptSource {
	return &TranscriptSource{
		dir:       dir,
		generator: generator,
		maxAge:    7 * 24 * time.Hour,
		limit:     3,
		minCount:  5,
		now:       time.Now,
	}
}

func (s *TranscriptSource) ID() string { return "transcripts" }

func (s *TranscriptSource) Fields() []string {
	return []string{"TRANSCRIPT_TABLE"}
}

type transcriptFile struct {
	path    string
	modTime time.Time
}

// recentTranscripts lists the transcript files modified within maxAge,
// newest first, capped at limit. A missing directory is an empty list,
// not a failure.
func (s *TranscriptSource) recentTranscripts() ([]transcriptFile, error) {
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading transcript directory %s: %w", s.dir, err)
	}

	cutoff := s.now().Add(-s.maxAge)
	var files []transcriptFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			continue
		}
		files = append(files, transcriptFile{
			path:    filepath.Join(s.dir, entry.Name()),
			modTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].modTime.After(files[j].modTime) })
	if len(files) > s.limit {
		files = files[:s.limit]
	}
	return files, nil
}

func (s *TranscriptSource) Fetch(ctx context.Context) (Fields, error) {
	files, err := s.recentTranscripts()
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return Fields{"TRANSCRIPT_TABLE": "No transcripts available for analysis"}, nil
	}

	var blocks []string
	for _, file := range files {
		block, err := s.analyze(ctx, file)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}

	log.Printf("Analyzed %d transcripts", len(files))
	return Fields{"TRANSCRIPT_TABLE": strings.Join(blocks, "\n\n")}, nil
}

func (s *TranscriptSource) analyze(ctx context.Context, file transcriptFile) (string, error) {
	data, err := os.ReadFile(file.path)
	if err != nil {
		return "", fmt.Errorf("reading transcript %s: %w", file.path, err)
	}
	content := string(data)

	lines := []string{fmt.Sprintf("Analysis for %s:", file.modTime.Format("01/02"))}

	if s.generator != nil {
		analysis, err := s.generator.Summarize(ctx, content, "transcript_analysis", 150)
		if err != nil {
			return "", fmt.Errorf("analyzing transcript %s: %w", filepath.Base(file.path), err)
		}
		lines = append(lines, analysis)
	} else {
		lines = append(lines, "No analysis available")
	}

	if table := formatWordFrequencies(wordFrequencies(content, s.minCount), 20); table != "" {
		lines = append(lines, table)
	}
	return strings.Join(lines, "\n"), nil
}
