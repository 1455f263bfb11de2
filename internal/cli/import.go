package cli

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/runnerr0/shiftboard/internal/storage"
)

// requiredColumns must be present in the CSV header; every other sources
// column is optional and defaults to empty.
var requiredColumns = []string{"reason", "state_begin", "state_end"}

// importJSON is the JSON output structure for the import command.
type importJSON struct {
	Database string `json:"database"`
	Imported int    `json:"imported"`
}

// Execute implements the go-flags Commander interface for ImportCommand.
func (c *ImportCommand) Execute(args []string) error {
	if c.CSV == "" {
		return fmt.Errorf("--csv is required")
	}

	cfg, err := loadConfig(c.globals, c.DB)
	if err != nil {
		return err
	}

	f, err := os.Open(c.CSV)
	if err != nil {
		return fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	events, err := readEventsCSV(f)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.CSV, err)
	}

	ctx := context.Background()
	db, err := storage.OpenWritable(ctx, cfg.Storage.SQLiteFile)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	return c.executeWithStore(ctx, store, events, cfg.Storage.SQLiteFile)
}

// executeWithStore inserts already-parsed events (for testing).
func (c *ImportCommand) executeWithStore(ctx context.Context, store storage.Store, events []storage.Event, dbPath string) error {
	n, err := store.InsertEvents(ctx, events)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(importJSON{Database: dbPath, Imported: n})
	}
	fmt.Printf("Imported %s rows into %s\n", formatNumber(n), dbPath)
	return nil
}

// readEventsCSV parses a CSV whose header names sources columns. A missing
// duration_min is derived from the interval length.
func readEventsCSV(r io.Reader) ([]storage.Event, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty file")
		}
		return nil, err
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var events []storage.Event
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		get := func(name string) string {
			if i, ok := col[name]; ok && i < len(rec) {
				return strings.TrimSpace(rec[i])
			}
			return ""
		}

		e := storage.Event{
			State:        get("state"),
			Reason:       get("reason"),
			EndpointName: get("endpoint_name"),
			ClientName:   get("client_name"),
			ShiftDay:     get("shift_day"),
			ShiftName:    get("shift_name"),
			Operator:     get("operator"),
			Color:        get("color"),
		}
		if e.StateBegin, err = storage.ParseTimestamp(get("state_begin")); err != nil {
			return nil, fmt.Errorf("line %d state_begin: %w", line, err)
		}
		if e.StateEnd, err = storage.ParseTimestamp(get("state_end")); err != nil {
			return nil, fmt.Errorf("line %d state_end: %w", line, err)
		}
		if e.StateEnd.Before(e.StateBegin) {
			return nil, fmt.Errorf("line %d: %w", line, storage.ErrInvertedInterval)
		}

		if raw := get("duration_min"); raw != "" {
			e.DurationMin, err = strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d duration_min: invalid number %q", line, raw)
			}
		} else {
			e.DurationMin = e.StateEnd.Sub(e.StateBegin).Minutes()
		}

		events = append(events, e)
	}
	return events, nil
}
