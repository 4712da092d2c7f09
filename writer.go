package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// historyColumns is the fixed column order of the append-only history
// table. Date always comes first; unknown context fields are appended
// after these in sorted order by appendHistoryRow.
var historyColumns = []string{
	"Date",
	"FULLDATE",
	"YC_ARTICLE_PICK",
	"YC_ARTICLE_SUMMARY",
	"YC_ARTICLE_KEYPOINTS",
	"YC_ARTICLE_KEYWORDS",
	"GITHUB_TRENDING_MCP_NAME",
	"GITHUB_TRENDING_MCP_SUMMARY",
	"COUNTRY_OF_THE_DAY",
	"COUNTRY_CAPITAL_OF_THE_DAY",
	"CAPITAL_LOCATION_BREAKDOWN",
	"GET_TO_IT_SAYING",
	"CODEBASE_TODAY",
	"CODEBASE_SUMMARY",
	"DAYS_LEFT",
	"CURRENT_STUDY_YEAR",
	"CURRENT_STUDY_STATE",
	"CURRENT_YEAR_BEST_PICTURE",
	"CURRENT_YEAR_BEST_ACTOR_IN_PICTURE",
	"CURRENT_YEAR_BEST_CINEMATOGRAPHY",
	"CURRENT_YEAR_BEST_SCORE",
	"CURRENT_YEAR_BEST_FOREIGN_FILM",
	"MAJOR_INVENTION_OF_YEAR",
	"MAJOR_INVENTION_SUMMARY",
	"CURRENT_GOLF_STATE_SUMMARY",
	"CURRENT_YEAR_US_PRESIDENT_VPS",
	"NEW_MAJOR_PRESIDENTIAL_DECISION",
	"WW1_FACT",
	"WW2_FACT",
	"EUROPE_FACT",
	"NASA_LAUNCH_HISTORY",
	"QUIZ_ME_CS_TERM",
	"QUIZ_ME_CS_DEFINE",
	"QUIZ_ME_ESPANOL",
	"QUIZ_ME_INGLES",
	"DAILY_LANGUAGE_SECTION",
	"TRANSCRIPT_TABLE",
}

// FileWriter writes the daily TXT briefing and maintains the
// append-only CSV history table.
type FileWriter struct {
	dailiesDir string
	tablesDir  string
}

// NewFileWriter creates a writer over the configured output dirs.
func NewFileWriter(settings *Settings) *FileWriter {
	return &FileWriter{dailiesDir: settings.DailiesDir(), tablesDir: settings.TablesDir()}
}

func dateString(date time.Time) string {
	return date.Format("01.02.06")
}

// WriteDailyTXT writes the rendered briefing to Daily_MM.DD.YY.txt and
// returns the path.
func (w *FileWriter) WriteDailyTXT(content string, date time.Time) (string, error) {
	if err := os.MkdirAll(w.dailiesDir, 0755); err != nil {
		return "", fmt.Errorf("creating dailies directory: %w", err)
	}

	path := filepath.Join(w.dailiesDir, fmt.Sprintf("Daily_%s.txt", dateString(date)))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("writing daily TXT: %w", err)
	}

	log.Printf("Daily TXT written: %s (%d bytes)", path, len(content))
	return path, nil
}

// AppendHistoryRow appends one row to history.csv, creating it with the
// header row on first use. The header order is fixed so rows stay
// comparable across runs.
func (w *FileWriter) AppendHistoryRow(context Fields, date time.Time) (string, error) {
	if err := os.MkdirAll(w.tablesDir, 0755); err != nil {
		return "", fmt.Errorf("creating tables directory: %w", err)
	}

	path := filepath.Join(w.tablesDir, "history.csv")
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return "", fmt.Errorf("opening history table: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if isNew {
		if err := writer.Write(historyColumns); err != nil {
			return "", fmt.Errorf("writing history header: %w", err)
		}
	}

	row := make([]string, len(historyColumns))
	for i, column := range historyColumns {
		if column == "Date" {
			row[i] = date.Format("2006-01-02")
			continue
		}
		row[i] = context[column]
	}
	if err := writer.Write(row); err != nil {
		return "", fmt.Errorf("writing history row: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flushing history table: %w", err)
	}

	log.Printf("History table updated: %s", path)
	return path, nil
}

// MissingFields lists context fields that are empty or carry the
// unavailable marker, for the alert email.
func MissingFields(context Fields) []string {
	var missing []string
	for _, column := range historyColumns {
		if column == "Date" {
			continue
		}
		if value, ok := context[column]; ok && (value == "" || value == Unavailable) {
			missing = append(missing, column)
		}
	}
	return missing
}
