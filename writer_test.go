package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testWriter(t *testing.T) (*FileWriter, *Settings) {
	t.Helper()
	settings := &Settings{OutputDirectory: t.TempDir(), DatasetsDirectory: t.TempDir()}
	return NewFileWriter(settings), settings
}

func TestWriteDailyTXT(t *testing.T) {
	writer, settings := testWriter(t)
	date := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	path, err := writer.WriteDailyTXT("briefing content\n", date)
	if err != nil {
		t.Fatalf("WriteDailyTXT() error = %v", err)
	}

	wantPath := filepath.Join(settings.DailiesDir(), "Daily_08.24.26.txt")
	if path != wantPath {
		t.Errorf("WriteDailyTXT() path = %q, want %q", path, wantPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(data) != "briefing content\n" {
		t.Errorf("file content = %q, want the rendered briefing", data)
	}
}

func TestAppendHistoryRow(t *testing.T) {
	writer, _ := testWriter(t)
	date := time.Date(2026, 8, 24, 6, 0, 0, 0, time.UTC)

	context := Fields{
		"FULLDATE":        "Monday, August 24, 2026",
		"YC_ARTICLE_PICK": "Article one",
	}
	path, err := writer.AppendHistoryRow(context, date)
	if err != nil {
		t.Fatalf("AppendHistoryRow() error = %v", err)
	}

	// Second run appends without duplicating the header.
	context["YC_ARTICLE_PICK"] = "Article two"
	if _, err := writer.AppendHistoryRow(context, date.Add(24*time.Hour)); err != nil {
		t.Fatalf("AppendHistoryRow() second call error = %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening history table: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("parsing history table: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("history has %d records, want header plus 2 rows", len(records))
	}

	if records[0][0] != "Date" || len(records[0]) != len(historyColumns) {
		t.Errorf("header = %v, want fixed column order", records[0])
	}
	if records[1][0] != "2026-08-24" {
		t.Errorf("row 1 date = %q, want 2026-08-24", records[1][0])
	}
	if records[2][0] != "2026-08-25" {
		t.Errorf("row 2 date = %q, want 2026-08-25", records[2][0])
	}

	pickCol := -1
	for i, name := range historyColumns {
		if name == "YC_ARTICLE_PICK" {
			pickCol = i
		}
	}
	if records[1][pickCol] != "Article one" || records[2][pickCol] != "Article two" {
		t.Errorf("pick column = %q/%q, want per-run values", records[1][pickCol], records[2][pickCol])
	}
}

func TestMissingFields(t *testing.T) {
	context := Fields{}
	for _, column := range historyColumns[1:] {
		context[column] = "value"
	}
	context["WW1_FACT"] = Unavailable
	context["QUIZ_ME_CS_TERM"] = ""

	missing := MissingFields(context)

	if len(missing) != 2 {
		t.Fatalf("MissingFields() = %v, want 2 entries", missing)
	}
	joined := strings.Join(missing, ",")
	if !strings.Contains(joined, "WW1_FACT") || !strings.Contains(joined, "QUIZ_ME_CS_TERM") {
		t.Errorf("MissingFields() = %v, want WW1_FACT and QUIZ_ME_CS_TERM", missing)
	}
}

func TestMissingFieldsAllPresent(t *testing.T) {
	context := Fields{}
	for _, column := range historyColumns[1:] {
		context[column] = "value"
	}

	if missing := MissingFields(context); len(missing) != 0 {
		t.Errorf("MissingFields() = %v, want none", missing)
	}
}
