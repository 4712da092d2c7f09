package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTranscript(t *testing.T, dir, name, content string, modTime time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	if err := os.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("setting mtime on %s: %v", name, err)
	}
}

func TestWordFrequencies(t *testing.T) {
	text := "The agent calls the server. Agent and server and agent talk. Server replies."

	frequent := wordFrequencies(text, 2)

	if len(frequent) != 2 {
		t.Fatalf("wordFrequencies() = %v, want agent and server only", frequent)
	}
	// agent=3 beats server=3 alphabetically on the tie.
	if frequent[0].word != "agent" || frequent[0].count != 3 {
		t.Errorf("frequent[0] = %v, want agent(3)", frequent[0])
	}
	if frequent[1].word != "server" || frequent[1].count != 3 {
		t.Errorf("frequent[1] = %v, want server(3)", frequent[1])
	}
}

func TestWordFrequenciesFiltersStopwords(t *testing.T) {
	text := strings.Repeat("the and is of kubernetes ", 10)

	frequent := wordFrequencies(text, 5)

	if len(frequent) != 1 || frequent[0].word != "kubernetes" {
		t.Errorf("wordFrequencies() = %v, want kubernetes only", frequent)
	}
}

func TestFormatWordFrequencies(t *testing.T) {
	got := formatWordFrequencies([]wordCount{{"alpha", 9}, {"beta", 5}}, 20)
	want := "Top words: alpha (9), beta (5)"
	if got != want {
		t.Errorf("formatWordFrequencies() = %q, want %q", got, want)
	}

	if got := formatWordFrequencies(nil, 20); got != "" {
		t.Errorf("formatWordFrequencies(empty) = %q, want empty", got)
	}

	limited := formatWordFrequencies([]wordCount{{"a", 3}, {"b", 2}, {"c", 1}}, 2)
	if strings.Contains(limited, "c (") {
		t.Errorf("formatWordFrequencies() = %q, want capped at limit", limited)
	}
}

func TestTranscriptFetchEmptyDirectory(t *testing.T) {
	source := NewTranscriptSource(t.TempDir(), nil)

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, no transcripts is not a failure", err)
	}
	if fields["TRANSCRIPT_TABLE"] != "No transcripts available for analysis" {
		t.Errorf("TRANSCRIPT_TABLE = %q, want placeholder", fields["TRANSCRIPT_TABLE"])
	}
}

func TestTranscriptFetchMissingDirectory(t *testing.T) {
	source := NewTranscriptSource(filepath.Join(t.TempDir(), "absent"), nil)

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v, a missing directory is not a failure", err)
	}
	if fields["TRANSCRIPT_TABLE"] != "No transcripts available for analysis" {
		t.Errorf("TRANSCRIPT_TABLE = %q, want placeholder", fields["TRANSCRIPT_TABLE"])
	}
}

func TestTranscriptFetchRecentFiles(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.Local)
	content := strings.Repeat("deployment pipeline rollback ", 6)

	writeTranscript(t, dir, "standup.txt", content, now.Add(-24*time.Hour))
	writeTranscript(t, dir, "retro.txt", content, now.Add(-48*time.Hour))
	writeTranscript(t, dir, "ancient.txt", content, now.Add(-30*24*time.Hour))
	writeTranscript(t, dir, "notes.md", content, now.Add(-24*time.Hour))

	source := NewTranscriptSource(dir, nil)
	source.now = func() time.Time { return now }

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	table := fields["TRANSCRIPT_TABLE"]
	// Two recent .txt transcripts: the stale one and the non-.txt file
	// are excluded.
	if got := strings.Count(table, "Analysis for "); got != 2 {
		t.Errorf("table has %d analysis blocks, want 2:\n%s", got, table)
	}
	// Newest first.
	if !strings.HasPrefix(table, "Analysis for 08/23:") {
		t.Errorf("table does not start with the newest transcript:\n%s", table)
	}
	if !strings.Contains(table, "No analysis available") {
		t.Errorf("table missing no-generator fallback:\n%s", table)
	}
	if !strings.Contains(table, "Top words:") || !strings.Contains(table, "deployment (6)") {
		t.Errorf("table missing word-frequency line:\n%s", table)
	}
}

func TestTranscriptFetchLimitsToThree(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()
	for i, name := range []string{"a.txt", "b.txt", "c.txt", "d.txt", "e.txt"} {
		writeTranscript(t, dir, name, "some words", now.Add(-time.Duration(i)*time.Hour))
	}

	source := NewTranscriptSource(dir, nil)

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := strings.Count(fields["TRANSCRIPT_TABLE"], "Analysis for "); got != 3 {
		t.Errorf("table has %d analysis blocks, want at most 3", got)
	}
}

func TestTranscriptFetchWithGenerator(t *testing.T) {
	dir := t.TempDir()
	writeTranscript(t, dir, "meeting.txt", "we shipped the release", time.Now())

	gen := &stubGenerator{}
	source := NewTranscriptSource(dir, gen)

	fields, err := source.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if !strings.Contains(fields["TRANSCRIPT_TABLE"], "summary of we shipped the release") {
		t.Errorf("table missing generated analysis:\n%s", fields["TRANSCRIPT_TABLE"])
	}
	if len(gen.calls) != 1 || gen.calls[0] != "summarize:transcript_analysis" {
		t.Errorf("generator calls = %v, want one transcript_analysis call", gen.calls)
	}
}
