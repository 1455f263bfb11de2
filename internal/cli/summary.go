package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/runnerr0/shiftboard/internal/dashboard"
	"github.com/runnerr0/shiftboard/internal/figure"
	"github.com/runnerr0/shiftboard/internal/storage"
)

// summaryJSON is the JSON output structure for the summary command.
type summaryJSON struct {
	Version   string       `json:"version"`
	Database  string       `json:"database"`
	Client    string       `json:"client_name"`
	ShiftDay  string       `json:"shift_day"`
	Endpoint  string       `json:"endpoint_name"`
	Endpoints []string     `json:"endpoints"`
	Begin     string       `json:"begin"`
	End       string       `json:"end"`
	Events    int          `json:"events"`
	Reasons   []reasonJSON `json:"reasons"`
}

type reasonJSON struct {
	Reason      string  `json:"reason"`
	Color       string  `json:"color"`
	DurationMin float64 `json:"duration_min"`
}

// Execute implements the go-flags Commander interface for SummaryCommand.
func (c *SummaryCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals, c.DB)
	if err != nil {
		return err
	}

	ctx := context.Background()
	db, err := storage.Open(ctx, cfg.Storage.SQLiteFile)
	if err != nil {
		return err
	}
	defer db.Close()

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		return fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	return c.executeWithStore(ctx, store, cfg.Storage.SQLiteFile)
}

// executeWithStore loads the snapshot from store and prints it (for testing).
func (c *SummaryCommand) executeWithStore(ctx context.Context, store storage.Store, dbPath string) error {
	snap, err := store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load %s: %w", dbPath, err)
	}
	return c.executeWithSnapshot(snap, dbPath)
}

// executeWithSnapshot prints the summary of an already-loaded snapshot (for testing).
func (c *SummaryCommand) executeWithSnapshot(snap *storage.Snapshot, dbPath string) error {
	views, err := dashboard.New(snap)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return c.printSummaryJSON(views, dbPath)
	}
	return c.printSummaryHuman(views, dbPath)
}

func (c *SummaryCommand) printSummaryHuman(v *dashboard.Views, dbPath string) error {
	info := figure.NewInfoPanel(v)
	colors := v.ColorMap()

	fmt.Println("Shift Summary")
	fmt.Println("=============")
	fmt.Printf("Database:      %s\n", dbPath)
	fmt.Printf("Client:        %s\n", info.ClientName)
	fmt.Printf("Shift day:     %s\n", info.ShiftDay)
	fmt.Printf("Endpoint:      %s\n", info.EndpointName)
	if !v.SingleEndpoint() {
		fmt.Printf("               (%d endpoints in table)\n", len(v.Endpoints()))
	}
	fmt.Printf("Period start:  %s\n", info.Begin)
	fmt.Printf("Period end:    %s\n", info.End)
	fmt.Printf("Events:        %s\n", formatNumber(len(v.RawEvents())))

	fmt.Println()
	fmt.Println("Reasons:")
	for _, t := range v.PieTotals() {
		fmt.Printf("  %-24s %12s  %s\n", t.Reason, formatMinutes(t.DurationMin), colors[t.Reason])
	}
	return nil
}

func (c *SummaryCommand) printSummaryJSON(v *dashboard.Views, dbPath string) error {
	s := v.Summary()
	colors := v.ColorMap()

	out := summaryJSON{
		Version:   c.version,
		Database:  dbPath,
		Client:    s.ClientName,
		ShiftDay:  s.ShiftDay,
		Endpoint:  s.EndpointName,
		Endpoints: v.Endpoints(),
		Begin:     s.Begin.Format(time.RFC3339),
		End:       s.End.Format(time.RFC3339),
		Events:    len(v.RawEvents()),
		Reasons:   make([]reasonJSON, 0, len(v.PieTotals())),
	}
	for _, t := range v.PieTotals() {
		out.Reasons = append(out.Reasons, reasonJSON{
			Reason:      t.Reason,
			Color:       colors[t.Reason],
			DurationMin: t.DurationMin,
		})
	}

	return printJSON(out)
}
