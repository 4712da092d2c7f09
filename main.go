package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var (
	configFile   string
	apiKey       string
	templatePath string
	statePath    string
	dryRun       bool
	sendEmail    bool
	simulateDays int
	resetCycle   string
	scheduleExpr string
	debugMode    bool
)

var rootCmd = &cobra.Command{
	Use:   "briefme",
	Short: "Daily briefing generator with a rotating study cycle",
	Long: `Aggregates news, GitHub activity, country facts, and local study
datasets into one daily briefing, advancing a persistent 3-day study
cycle over US states and years.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if debugMode {
			SetDebugMode(true)
		}

		if err := ensureConfigExists(); err != nil {
			return err
		}
		if configFile == "" {
			configFile = GetConfigPath("settings.yaml")
		}

		settings, err := loadSettings(configFile)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		if statePath != "" {
			settings.StatePath = statePath
		}

		store, err := OpenSQLiteStore(settings.StatePath)
		if err != nil {
			return fmt.Errorf("opening state store: %w", err)
		}
		defer store.Close()

		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}

		processor, err := NewBriefingProcessor(apiKey, settings, store, templatePath)
		if err != nil {
			return fmt.Errorf("creating processor: %w", err)
		}

		if resetCycle != "" {
			year, index, days, err := parseCycleSpec(resetCycle)
			if err != nil {
				return err
			}
			if err := processor.ResetCycle(year, index, days); err != nil {
				return err
			}
			log.Printf("Cycle state reset to %s", resetCycle)
			return nil
		}

		if simulateDays > 0 {
			return processor.Simulate(simulateDays)
		}

		opts := GenerateOptions{DryRun: dryRun, SendEmail: sendEmail}

		if scheduleExpr != "" {
			return runScheduled(processor, opts)
		}

		return processor.GenerateBriefing(context.Background(), opts)
	},
}

// runScheduled blocks forever, generating a briefing on the cron
// schedule. A run that fires twice on one day is skipped, not doubled.
func runScheduled(processor *BriefingProcessor, opts GenerateOptions) error {
	opts.SkipIfRunToday = true

	c := cron.New()
	_, err := c.AddFunc(scheduleExpr, func() {
		if err := processor.GenerateBriefing(context.Background(), opts); err != nil {
			log.Printf("✗ Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid schedule %q: %w", scheduleExpr, err)
	}

	log.Printf("Scheduler started with %q", scheduleExpr)
	c.Run()
	return nil
}

// parseCycleSpec parses "year:state-index:days-left", e.g. "1980:0:3".
func parseCycleSpec(spec string) (year, index, days int, err error) {
	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("cycle spec must be year:state-index:days-left, got %q", spec)
	}

	values := make([]int, 3)
	for i, part := range parts {
		values[i], err = strconv.Atoi(part)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("cycle spec %q: %w", spec, err)
		}
	}
	return values[0], values[1], values[2], nil
}

func init() {
	rootCmd.Flags().StringVar(&configFile, "config", "", "Path to settings file")
	rootCmd.Flags().StringVar(&apiKey, "api-key", "", "Anthropic API key")
	rootCmd.Flags().StringVar(&templatePath, "template", "", "Path to custom briefing template")
	rootCmd.Flags().StringVar(&statePath, "state", "", "Path to the SQLite state database")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Generate files but skip email delivery")
	rootCmd.Flags().BoolVar(&sendEmail, "email", false, "Email the briefing after generating it")
	rootCmd.Flags().IntVar(&simulateDays, "simulate", 0, "Print the next N cycle days without running")
	rootCmd.Flags().StringVar(&resetCycle, "reset-cycle", "", "Reset cycle state to year:state-index:days-left")
	rootCmd.Flags().StringVar(&scheduleExpr, "schedule", "", "Run on a cron schedule instead of once")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
