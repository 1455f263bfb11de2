package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/runnerr0/shiftboard/internal/config"
	"github.com/runnerr0/shiftboard/internal/storage"
)

// captureOutput captures stdout during fn execution and returns it as a string.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func clock(hhmm string) time.Time {
	t, err := time.Parse("2006-01-02 15:04", "2022-07-02 "+hhmm)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleEvents() []storage.Event {
	base := storage.Event{EndpointName: "mill", ClientName: "acme", ShiftDay: "2022-07-02", ShiftName: "1", Operator: "Ivanov"}
	mk := func(reason, color, begin, end string, minutes float64) storage.Event {
		e := base
		e.State, e.Reason, e.Color = "state", reason, color
		e.StateBegin, e.StateEnd, e.DurationMin = clock(begin), clock(end), minutes
		return e
	}
	return []storage.Event{
		mk("Setup", "#00ff00", "08:00", "08:10", 10),
		mk("Idle", "#ff0000", "08:10", "08:13", 3),
		mk("Setup", "#00ff00", "08:13", "09:18", 65),
	}
}

// seedDB writes events into a new database file and returns its path.
func seedDB(t *testing.T, events ...storage.Event) string {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sources.db")

	db, err := storage.OpenWritable(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	store, err := storage.NewSQLiteStore(db)
	require.NoError(t, err)
	defer store.Close()

	if len(events) > 0 {
		_, err = store.InsertEvents(ctx, events)
		require.NoError(t, err)
	}
	return path
}

// writeConfig writes a default config pointing at dbPath and clears the
// environment overrides.
func writeConfig(t *testing.T, dbPath string) string {
	t.Helper()
	t.Setenv(config.EnvHost, "")
	t.Setenv(config.EnvPort, "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.LoadOrCreateAt(path)
	require.NoError(t, err)
	require.Equal(t, "testDB.db", cfg.Storage.SQLiteFile)

	data := "storage:\n  sqlite_file: " + dbPath + "\nlogging:\n  level: warn\n  no_color: true\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}
