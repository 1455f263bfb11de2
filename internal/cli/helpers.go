package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/runnerr0/shiftboard/internal/config"
)

// loadConfig resolves the config file named by --config (or the default
// path), applies environment overrides and then the per-command database
// override.
func loadConfig(globals *GlobalFlags, dbOverride string) (*config.Config, error) {
	path := ""
	if globals != nil {
		path = globals.Config
	}

	cfg, err := config.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if dbOverride != "" {
		cfg.Storage.SQLiteFile = dbOverride
	}
	return cfg, nil
}

// newLogger builds the process logger. verbose forces debug regardless of
// the configured level.
func newLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	level := parseLevel(cfg.Level)
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(tint.NewHandler(w, &tint.Options{
		Level:      level,
		TimeFormat: time.TimeOnly,
		NoColor:    cfg.NoColor,
	}))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// formatMinutes renders a duration in minutes as "1h 05m" or "42.5 min".
func formatMinutes(m float64) string {
	if m < 60 {
		return fmt.Sprintf("%.1f min", m)
	}
	total := int(m + 0.5)
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}

// formatNumber formats an int with comma separators.
func formatNumber(n int) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if i > 0 {
			result.WriteString(",")
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
