package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// readCSVRecords reads a CSV file into header-keyed row maps.
func readCSVRecords(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	headers := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = strings.TrimSpace(record[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// loadYearTable indexes a dataset CSV by its Year column.
func loadYearTable(path string) (map[int]map[string]string, error) {
	rows, err := readCSVRecords(path)
	if err != nil {
		return nil, err
	}

	table := make(map[int]map[string]string, len(rows))
	for _, row := range rows {
		year, err := strconv.Atoi(row["Year"])
		if err != nil {
			continue
		}
		table[year] = row
	}
	return table, nil
}

// YearFactsSource looks up the study year in the local Oscars,
// Presidents, and Inventions datasets.
type YearFactsSource struct {
	datasetsDir string
	year        int
}

// NewYearFactsSource creates the year_facts source bound to the
// post-advance study year.
func NewYearFactsSource(datasetsDir string, year int) *YearFactsSource {
	return &YearFactsSource{datasetsDir: datasetsDir, year: year}
}

func (s *YearFactsSource) ID() string { return "year_facts" }

func (s *YearFactsSource) Fields() []string {
	return []string{
		"CURRENT_YEAR_BEST_PICTURE", "CURRENT_YEAR_BEST_ACTOR_IN_PICTURE",
		"CURRENT_YEAR_BEST_CINEMATOGRAPHY", "CURRENT_YEAR_BEST_SCORE",
		"CURRENT_YEAR_BEST_FOREIGN_FILM",
		"CURRENT_YEAR_US_PRESIDENT_VPS", "NEW_MAJOR_PRESIDENTIAL_DECISION",
		"MAJOR_INVENTION_OF_YEAR", "MAJOR_INVENTION_SUMMARY",
	}
}

func (s *YearFactsSource) Fetch(ctx context.Context) (Fields, error) {
	fields := Fields{}

	oscars, err := loadYearTable(filepath.Join(s.datasetsDir, "Oscars.csv"))
	if err != nil {
		return nil, err
	}
	if row, ok := oscars[s.year]; ok {
		fields["CURRENT_YEAR_BEST_PICTURE"] = row["Best Picture"]
		fields["CURRENT_YEAR_BEST_ACTOR_IN_PICTURE"] = row["Best Actor"]
		fields["CURRENT_YEAR_BEST_CINEMATOGRAPHY"] = row["Best Cinematography"]
		fields["CURRENT_YEAR_BEST_SCORE"] = row["Best Score"]
		fields["CURRENT_YEAR_BEST_FOREIGN_FILM"] = row["Best Foreign Film"]
	} else {
		missing := fmt.Sprintf("No Oscars ceremony held in %d", s.year)
		for _, field := range s.Fields()[:5] {
			fields[field] = missing
		}
	}

	presidents, err := loadYearTable(filepath.Join(s.datasetsDir, "Presidents.csv"))
	if err != nil {
		return nil, err
	}
	if row, ok := presidents[s.year]; ok {
		fields["CURRENT_YEAR_US_PRESIDENT_VPS"] = fmt.Sprintf("%s (President), %s (Vice President)",
			row["President"], row["Vice President"])
		fields["NEW_MAJOR_PRESIDENTIAL_DECISION"] = row["Major Decision"]
	} else {
		fields["CURRENT_YEAR_US_PRESIDENT_VPS"] = fmt.Sprintf("Presidential data not available for %d", s.year)
		fields["NEW_MAJOR_PRESIDENTIAL_DECISION"] = fmt.Sprintf("Presidential decision data not available for %d", s.year)
	}

	inventions, err := loadYearTable(filepath.Join(s.datasetsDir, "Inventions.csv"))
	if err != nil {
		return nil, err
	}
	if row, ok := inventions[s.year]; ok {
		fields["MAJOR_INVENTION_OF_YEAR"] = row["Invention"]
		fields["MAJOR_INVENTION_SUMMARY"] = row["Summary"]
	} else {
		fields["MAJOR_INVENTION_OF_YEAR"] = fmt.Sprintf("No major invention recorded for %d", s.year)
		fields["MAJOR_INVENTION_SUMMARY"] = fmt.Sprintf("No invention summary available for %d", s.year)
	}

	log.Printf("Loaded year datasets for %d", s.year)
	return fields, nil
}

// QuizSource picks one term/answer pair from a CSV, avoiding the
// previous day's term.
type QuizSource struct {
	id          string
	csvPath     string
	termField   string
	answerField string
	termCol     string
	answerCol   string
	selector    *Selector
}

// NewQuizSource creates a quiz source over a two-column CSV.
func NewQuizSource(id, csvPath, termCol, answerCol, termField, answerField string, selector *Selector) *QuizSource {
	return &QuizSource{
		id:          id,
		csvPath:     csvPath,
		termField:   termField,
		answerField: answerField,
		termCol:     termCol,
		answerCol:   answerCol,
		selector:    selector,
	}
}

func (s *QuizSource) ID() string { return s.id }

func (s *QuizSource) Fields() []string {
	return []string{s.termField, s.answerField}
}

func (s *QuizSource) Fetch(ctx context.Context) (Fields, error) {
	rows, err := readCSVRecords(s.csvPath)
	if err != nil {
		return nil, err
	}

	terms := make([]string, 0, len(rows))
	answers := make(map[string]string, len(rows))
	for _, row := range rows {
		term := row[s.termCol]
		if term == "" {
			continue
		}
		terms = append(terms, term)
		answers[term] = row[s.answerCol]
	}

	term, err := s.selector.Pick(terms)
	if err != nil {
		// Empty quiz data: fixed fallback, run continues.
		return Fields{
			s.termField:   "(quiz not available)",
			s.answerField: "(quiz not available)",
		}, nil
	}

	return Fields{
		s.termField:   term,
		s.answerField: answers[term],
	}, nil
}

// LanguageSource rotates through the language sections CSV by day of
// year.
type LanguageSource struct {
	csvPath   string
	dayOfYear int
}

// NewLanguageSource creates the language source for the given day of
// year.
func NewLanguageSource(csvPath string, dayOfYear int) *LanguageSource {
	return &LanguageSource{csvPath: csvPath, dayOfYear: dayOfYear}
}

func (s *LanguageSource) ID() string { return "language" }

func (s *LanguageSource) Fields() []string {
	return []string{"DAILY_LANGUAGE_SECTION"}
}

func (s *LanguageSource) Fetch(ctx context.Context) (Fields, error) {
	f, err := os.Open(s.csvPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.csvPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", s.csvPath, err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no language sections in %s", s.csvPath)
	}

	headers := records[0]
	rows := records[1:]
	row := rows[s.dayOfYear%len(rows)]

	// First column is the section name, the rest are per-language
	// translations in header order.
	lines := []string{row[0] + "."}
	for i := 1; i < len(headers) && i < len(row); i++ {
		lines = append(lines, fmt.Sprintf("%s: %s", headers[i], row[i]))
	}

	return Fields{"DAILY_LANGUAGE_SECTION": strings.Join(lines, "\n")}, nil
}
