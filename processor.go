package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// BriefingProcessor wires settings, durable state, and the source set
// into the assembler, then renders, writes, and optionally emails the
// result.
type BriefingProcessor struct {
	settings     *Settings
	store        StateStore
	cycle        *CycleEngine
	generator    TextGenerator
	fetcher      *ContentFetcher
	writer       *FileWriter
	emailer      *Emailer
	templateText string
	githubToken  string
	now          func() time.Time
}

// NewBriefingProcessor creates a processor over the given store handle.
// apiKey may be empty: LLM-backed fields are then skipped and reported
// as missing.
func NewBriefingProcessor(apiKey string, settings *Settings, store StateStore, templateOverride string) (*BriefingProcessor, error) {
	templateText, err := loadTemplate(templateOverride)
	if err != nil {
		return nil, err
	}

	var generator TextGenerator
	if apiKey != "" {
		summarizer, err := NewSummarizer(apiKey, settings.Summarizer)
		if err != nil {
			return nil, fmt.Errorf("creating summarizer: %w", err)
		}
		generator = summarizer
	} else {
		log.Printf("No API key configured: running without generated summaries")
	}

	return &BriefingProcessor{
		settings:     settings,
		store:        store,
		cycle:        NewCycleEngine(store, USStates, settings.SeedYear),
		generator:    generator,
		fetcher:      NewContentFetcher(),
		writer:       NewFileWriter(settings),
		emailer:      NewEmailer(settings.Email, os.Getenv("SMTP_PASSWORD")),
		templateText: templateText,
		githubToken:  os.Getenv("GITHUB_TOKEN"),
		now:          time.Now,
	}, nil
}

// buildSources assembles the run's source set once the post-advance
// cycle state is known. Registration order is the briefing's field
// order.
func (p *BriefingProcessor) buildSources(cycle CycleState, category string, history *SelectionHistory) *Aggregator {
	agg := &Aggregator{}
	datasets := p.settings.DatasetsDirectory

	agg.Register(NewHackerNewsSource(p.fetcher, p.generator, p.settings.Keywords), p.settings.Retry("hacker_news"))
	agg.Register(NewTrendingSource(p.generator), p.settings.Retry("github_trending"))
	agg.Register(NewCodebaseSource(p.settings.GithubUser, p.githubToken,
		NewSelector(history, "codebase", nil), p.generator), p.settings.Retry("codebase"))
	agg.Register(NewCountrySource(p.generator, nil), p.settings.Retry("country"))
	agg.Register(NewYearFactsSource(datasets, cycle.Year), p.settings.Retry("year_facts"))
	agg.Register(NewQuizSource("quiz_cs", filepath.Join(datasets, "CSTerms.csv"),
		"Term", "Definition", "QUIZ_ME_CS_TERM", "QUIZ_ME_CS_DEFINE",
		NewSelector(history, "quiz_cs", nil)), p.settings.Retry("quiz_cs"))
	agg.Register(NewQuizSource("quiz_es", filepath.Join(datasets, "SpanishPhrases.csv"),
		"Spanish", "English", "QUIZ_ME_ESPANOL", "QUIZ_ME_INGLES",
		NewSelector(history, "quiz_es", nil)), p.settings.Retry("quiz_es"))
	agg.Register(NewLanguageSource(filepath.Join(datasets, "Languages.csv"), p.now().YearDay()),
		p.settings.Retry("language"))
	agg.Register(NewTranscriptSource(p.settings.TranscriptsDirectory, p.generator),
		p.settings.Retry("transcripts"))

	if p.generator != nil {
		facts := p.settings.Retry("facts")
		agg.Register(newFactSource("fact_ww1", "WW1_FACT", "", "ww1", 50, p.generator), facts)
		agg.Register(newFactSource("fact_ww2", "WW2_FACT", "", "ww2", 50, p.generator), facts)
		agg.Register(newFactSource("fact_europe", "EUROPE_FACT", "", "europe", 50, p.generator), facts)
		agg.Register(newFactSource("fact_nasa", "NASA_LAUNCH_HISTORY",
			strconv.Itoa(cycle.Year), "nasa_launch", 100, p.generator), facts)
		agg.Register(newFactSource("fact_golf", "CURRENT_GOLF_STATE_SUMMARY",
			category, "golf", 150, p.generator), facts)
	}

	return agg
}

// GenerateOptions controls one briefing run.
type GenerateOptions struct {
	DryRun    bool
	SendEmail bool
	// SkipIfRunToday keeps a re-triggered scheduled run from advancing
	// the cycle twice on one calendar day.
	SkipIfRunToday bool
}

// GenerateBriefing executes one full pipeline run. Partial source
// failure still produces complete output; only state-store failures
// abort.
func (p *BriefingProcessor) GenerateBriefing(ctx context.Context, opts GenerateOptions) error {
	log.Printf("Starting daily briefing generation")

	if opts.SkipIfRunToday {
		done, _, err := p.cycle.AdvancedToday(p.now())
		if err != nil {
			return err
		}
		if done {
			log.Printf("Briefing already generated today, skipping")
			return nil
		}
	}

	if err := p.settings.EnsureDirectories(); err != nil {
		return err
	}

	assembler := NewAssembler(p.store, p.cycle, p.buildSources)
	assembler.now = p.now
	snapshot, err := assembler.Assemble(ctx)
	if err != nil {
		return fmt.Errorf("assembling run: %w", err)
	}

	briefingContext := snapshot.Context()
	briefingContext["FULLDATE"] = snapshot.Timestamp.Format("Monday, January 2, 2006")
	briefingContext["DAYS_LEFT"] = strconv.Itoa(snapshot.CycleAfter.DaysLeft)
	briefingContext["CURRENT_STUDY_YEAR"] = strconv.Itoa(snapshot.CycleAfter.Year)
	briefingContext["CURRENT_STUDY_STATE"] = p.cycle.Category(snapshot.CycleAfter)

	content, err := RenderBriefing(p.templateText, briefingContext)
	if err != nil {
		return fmt.Errorf("rendering briefing: %w", err)
	}

	txtPath, err := p.writer.WriteDailyTXT(content, snapshot.Timestamp)
	if err != nil {
		return err
	}
	tablePath, err := p.writer.AppendHistoryRow(briefingContext, snapshot.Timestamp)
	if err != nil {
		return err
	}
	log.Printf("Generated files: %s, %s", txtPath, tablePath)

	missing := MissingFields(briefingContext)

	switch {
	case opts.DryRun:
		log.Printf("DRY RUN: email sending skipped")
		if len(missing) > 0 {
			log.Printf("Would send alert for missing fields: %v", missing)
		}
	case opts.SendEmail:
		if err := p.emailer.SendBriefing(content, snapshot.Timestamp); err != nil {
			log.Printf("✗ Failed to send briefing email: %v", err)
		} else {
			log.Printf("✓ Briefing email sent")
		}
		if len(missing) > 0 {
			if err := p.emailer.SendAlert(missing, snapshot.Timestamp); err != nil {
				log.Printf("✗ Failed to send alert email: %v", err)
			}
		}
	}

	return nil
}

// Simulate prints the next n cycle days without persisting anything.
func (p *BriefingProcessor) Simulate(n int) error {
	state, err := p.cycle.Load()
	if err != nil {
		return err
	}

	for day := 1; day <= n; day++ {
		state = state.Advance(len(USStates))
		fmt.Printf("Day %2d: year=%d state=%s days_left=%d\n",
			day, state.Year, p.cycle.Category(state), state.DaysLeft)
	}
	return nil
}

// ResetCycle overwrites the persisted cycle state.
func (p *BriefingProcessor) ResetCycle(year, categoryIndex, daysLeft int) error {
	if daysLeft < 1 || daysLeft > 3 {
		return fmt.Errorf("days_left must be in 1..3, got %d", daysLeft)
	}
	if categoryIndex < 0 || categoryIndex >= len(USStates) {
		return fmt.Errorf("category index must be in 0..%d, got %d", len(USStates)-1, categoryIndex)
	}
	return p.cycle.Reset(CycleState{
		Year:          year,
		CategoryIndex: categoryIndex,
		DaysLeft:      daysLeft,
		LastUpdated:   p.now(),
	})
}
