package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigDir = ".briefme/"

//go:embed config/settings.yaml
var defaultSettings string

//go:embed config/daily-template.txt
var defaultTemplate string

// GetConfigPath returns the full path to a config file.
func GetConfigPath(filename string) string {
	return filepath.Join(defaultConfigDir, filename)
}

// RetrySettings configures the retry policy for one source.
type RetrySettings struct {
	MaxAttempts int  `yaml:"max_attempts"`
	BaseDelayMS int  `yaml:"base_delay_ms"`
	Jitter      bool `yaml:"jitter"`
}

// SummarizerSettings configures the LLM used for summaries and facts.
type SummarizerSettings struct {
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

// EmailSettings configures SMTP delivery. The password comes from the
// SMTP_PASSWORD environment variable, never from the file.
type EmailSettings struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Settings represents the YAML configuration structure.
type Settings struct {
	OutputDirectory      string                   `yaml:"output_directory"`
	DatasetsDirectory    string                   `yaml:"datasets_directory"`
	TranscriptsDirectory string                   `yaml:"transcripts_directory"`
	StatePath            string                   `yaml:"state_path"`
	SeedYear             int                      `yaml:"seed_year"`
	GithubUser           string                   `yaml:"github_user"`
	Keywords             []string                 `yaml:"keywords"`
	Summarizer           SummarizerSettings       `yaml:"summarizer"`
	Email                EmailSettings            `yaml:"email"`
	Sources              map[string]RetrySettings `yaml:"sources"`
}

// Retry returns the retry policy for sourceID, falling back to the
// 3-attempt / 500ms default when the source has no override.
func (s *Settings) Retry(sourceID string) RetryPolicy {
	rs, ok := s.Sources[sourceID]
	if !ok {
		return DefaultRetryPolicy()
	}
	policy := DefaultRetryPolicy()
	if rs.MaxAttempts > 0 {
		policy.MaxAttempts = rs.MaxAttempts
	}
	if rs.BaseDelayMS > 0 {
		policy.BaseDelay = time.Duration(rs.BaseDelayMS) * time.Millisecond
	}
	policy.Jitter = rs.Jitter
	return policy
}

// DailiesDir is where point-in-time TXT briefings are written.
func (s *Settings) DailiesDir() string {
	return filepath.Join(s.OutputDirectory, "dailies")
}

// TablesDir is where the append-only history table lives.
func (s *Settings) TablesDir() string {
	return filepath.Join(s.OutputDirectory, "tables")
}

// EnsureDirectories creates the output directory tree.
func (s *Settings) EnsureDirectories() error {
	for _, dir := range []string{s.DailiesDir(), s.TablesDir(), s.DatasetsDirectory, s.TranscriptsDirectory} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// loadSettings loads settings from YAML with fallback to embedded
// defaults when the file doesn't exist.
func loadSettings(settingsPath string) (*Settings, error) {
	data, err := os.ReadFile(settingsPath)
	if err != nil {
		if os.IsNotExist(err) {
			data = []byte(defaultSettings)
		} else {
			return nil, fmt.Errorf("reading settings file %s: %w", settingsPath, err)
		}
	}

	var settings Settings
	if err := yaml.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("parsing settings YAML: %w", err)
	}

	applySettingsDefaults(&settings)
	return &settings, nil
}

func applySettingsDefaults(settings *Settings) {
	if settings.OutputDirectory == "" {
		settings.OutputDirectory = "Outputs"
	}
	if settings.DatasetsDirectory == "" {
		settings.DatasetsDirectory = "datasets"
	}
	if settings.TranscriptsDirectory == "" {
		settings.TranscriptsDirectory = "transcripts"
	}
	if settings.StatePath == "" {
		settings.StatePath = GetConfigPath("state.db")
	}
	if settings.SeedYear == 0 {
		settings.SeedYear = DefaultSeedYear
	}
	if settings.Summarizer.Model == "" {
		settings.Summarizer.Model = "claude-sonnet-4-20250514"
	}
	if settings.Summarizer.MaxTokens == 0 {
		settings.Summarizer.MaxTokens = 1000
	}
}

// loadTemplate returns the briefing template: an explicit override file,
// the config-dir copy, or the embedded default.
func loadTemplate(overridePath string) (string, error) {
	if overridePath != "" {
		data, err := os.ReadFile(overridePath)
		if err != nil {
			return "", fmt.Errorf("reading template file %s: %w", overridePath, err)
		}
		return string(data), nil
	}

	if data, err := os.ReadFile(GetConfigPath("daily-template.txt")); err == nil {
		return string(data), nil
	}
	return defaultTemplate, nil
}

// ensureConfigExists creates the config directory and writes the default
// settings and template on first run.
func ensureConfigExists() error {
	if err := os.MkdirAll(defaultConfigDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	defaults := map[string]string{
		"settings.yaml":      defaultSettings,
		"daily-template.txt": defaultTemplate,
	}
	for name, content := range defaults {
		path := GetConfigPath(name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0644); err != nil {
				return fmt.Errorf("writing %s: %w", name, err)
			}
		}
	}

	return nil
}
