package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmcdole/arrdeck/internal/domain"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Open(t.TempDir()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Search.Debounce != 750*time.Millisecond {
		t.Errorf("Debounce = %v, want 750ms", cfg.Search.Debounce)
	}
	if cfg.Calendar.LookAhead != 7 || cfg.Calendar.FutureCutoffDays != 365 {
		t.Errorf("unexpected calendar defaults %+v", cfg.Calendar)
	}
	if cfg.IsConfigured() {
		t.Error("empty config should not be configured")
	}
}

func TestLoadParsesFile(t *testing.T) {
	dir := t.TempDir()
	yaml := `instances:
  - id: a1
    label: Movies
    url: http://localhost:7878
    api_key: k1
    type: Radarr
selected:
  radarr: a1
search:
  debounce: 300ms
http:
  timeout: 5s
  rate_limit: 2.5
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Open(dir).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Instances) != 1 {
		t.Fatalf("got %d instances, want 1", len(cfg.Instances))
	}
	inst := cfg.Instances[0]
	if inst.Type != domain.InstanceRadarr || inst.APIKey != "k1" || inst.Label != "Movies" {
		t.Errorf("unexpected instance %+v", inst)
	}
	if cfg.SelectedID(domain.InstanceRadarr) != "a1" {
		t.Errorf("selected radarr = %q, want a1", cfg.SelectedID(domain.InstanceRadarr))
	}
	if cfg.Search.Debounce != 300*time.Millisecond {
		t.Errorf("Debounce = %v, want 300ms", cfg.Search.Debounce)
	}
	if cfg.HTTP.Timeout != 5*time.Second || cfg.HTTP.RateLimit != 2.5 {
		t.Errorf("unexpected http config %+v", cfg.HTTP)
	}
	// untouched sections keep defaults
	if cfg.Calendar.PastDays != 60 {
		t.Errorf("PastDays = %d, want default 60", cfg.Calendar.PastDays)
	}
}

func TestSaveInstancesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	f := Open(dir)
	if _, err := f.Load(); err != nil {
		t.Fatal(err)
	}

	instances := []domain.Instance{
		{ID: "r1", Label: "Radarr", URL: "http://r", APIKey: "a", Type: domain.InstanceRadarr},
		{ID: "s1", Label: "Sonarr", URL: "http://s", APIKey: "b", Type: domain.InstanceSonarr,
			Headers: map[string]string{"x-auth": "1"}},
	}
	selected := map[domain.InstanceType]string{domain.InstanceSonarr: "s1"}
	if err := f.SaveInstances(instances, selected); err != nil {
		t.Fatalf("SaveInstances: %v", err)
	}

	info, err := os.Stat(f.Path())
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("config mode = %v, want 0600", info.Mode().Perm())
	}

	cfg, err := Open(dir).Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(cfg.Instances) != 2 {
		t.Fatalf("got %d instances, want 2", len(cfg.Instances))
	}
	if cfg.Instances[1].Headers["x-auth"] != "1" {
		t.Errorf("headers not persisted: %+v", cfg.Instances[1].Headers)
	}
	if cfg.Selected.Sonarr != "s1" || cfg.Selected.Radarr != "" {
		t.Errorf("unexpected selection %+v", cfg.Selected)
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"ERROR":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLogLevel(in); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLoggerCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "arrdeck.log")
	logger, err := SetupLogger(&LoggingConfig{File: path, Level: "DEBUG"})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Info("hello", "k", "v")
	if _, err := os.Stat(path); err != nil {
		t.Errorf("log file not created: %v", err)
	}
}

func TestSetupLoggerRedactsAPIKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrdeck.log")
	logger, err := SetupLogger(&LoggingConfig{File: path})
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Info("validate", "url", "http://radarr:7878", "apiKey", "s3cret")

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(b), "s3cret") {
		t.Errorf("log leaks API key: %s", b)
	}
	if !strings.Contains(string(b), "radarr:7878") {
		t.Errorf("log lost other attributes: %s", b)
	}
}

func TestSetupLoggerRotatesLargeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "arrdeck.log")
	if err := os.WriteFile(path, make([]byte, maxLogSize+1), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := SetupLogger(&LoggingConfig{File: path}); err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("old log not moved aside: %v", err)
	}
	if fi, err := os.Stat(path); err != nil || fi.Size() != 0 {
		t.Errorf("new log should start empty: %v", err)
	}
}

func TestSetupLoggerEmptyPathDiscards(t *testing.T) {
	logger, err := SetupLogger(&LoggingConfig{})
	if err != nil || logger == nil {
		t.Fatalf("SetupLogger = %v, %v", logger, err)
	}
}

