package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// maxLogSize is the size at which the log is moved aside on startup
const maxLogSize = 10 << 20

// secretKeys are attribute keys whose values never reach the log
var secretKeys = map[string]bool{
	"apikey":    true,
	"api_key":   true,
	"x-api-key": true,
}

// SetupLogger opens the JSON log file named in cfg. An empty path disables logging.
// A log larger than maxLogSize is renamed to <file>.1 first.
func SetupLogger(cfg *LoggingConfig) (*slog.Logger, error) {
	if cfg.File == "" {
		return NullLogger(), nil
	}
	logPath, err := expandHome(cfg.File)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	if fi, err := os.Stat(logPath); err == nil && fi.Size() > maxLogSize {
		if err := os.Rename(logPath, logPath+".1"); err != nil {
			return nil, fmt.Errorf("failed to rotate log file: %w", err)
		}
	}

	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	handler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{
		Level:       parseLogLevel(cfg.Level),
		ReplaceAttr: redactSecrets,
	})
	return slog.New(handler), nil
}

// redactSecrets masks API keys logged under any of secretKeys
func redactSecrets(_ []string, a slog.Attr) slog.Attr {
	if secretKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, "***")
	}
	return a
}

// expandHome resolves a leading ~ to the user's home directory
func expandHome(path string) (string, error) {
	rest, ok := strings.CutPrefix(path, "~")
	if !ok {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, rest), nil
}

// parseLogLevel accepts DEBUG, INFO, WARN(ING) and ERROR in any case.
// Anything else logs at info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// NullLogger returns a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
