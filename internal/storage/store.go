package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrEmptySource is returned by Load when the sources table has no rows.
var ErrEmptySource = errors.New("sources table is empty")

// ErrInvertedInterval is returned when a row ends before it begins.
var ErrInvertedInterval = errors.New("state_end is before state_begin")

// Store is the sources table as seen by the dashboard and the import tool.
type Store interface {
	Events(ctx context.Context) ([]Event, error)
	ReasonColors(ctx context.Context) ([]ReasonColor, error)
	ReasonTotals(ctx context.Context) ([]ReasonTotal, error)
	Load(ctx context.Context) (*Snapshot, error)
	InsertEvents(ctx context.Context, events []Event) (int, error)
	Close() error
}

var _ Store = (*SQLiteStore)(nil)

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	selectEvents       *sql.Stmt
	selectReasonColors *sql.Stmt
	selectReasonTotals *sql.Stmt
}

// Open opens the SQLite file at path read-only and verifies it is reachable.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	return db, nil
}

// OpenWritable opens or creates the SQLite file at path and applies pending
// migrations. Only offline tooling writes to the database.
func OpenWritable(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := NewMigrationRunner(db).Run(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// LoadSnapshot opens path, runs the three startup reads and closes the
// connection before returning.
func LoadSnapshot(ctx context.Context, path string) (*Snapshot, error) {
	db, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var store Store
	store, err = NewSQLiteStore(db)
	if err != nil {
		return nil, fmt.Errorf("create store: %w", err)
	}
	defer store.Close()

	return store.Load(ctx)
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened database
// that contains a sources table.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.selectEvents, err = s.db.Prepare(`
		SELECT state, reason, state_begin, state_end, duration_min,
		       endpoint_name, client_name, shift_day, shift_name, operator, color
		FROM sources
		ORDER BY rowid
	`)
	if err != nil {
		return err
	}

	s.selectReasonColors, err = s.db.Prepare(`
		SELECT reason, color FROM sources GROUP BY reason
	`)
	if err != nil {
		return err
	}

	s.selectReasonTotals, err = s.db.Prepare(`
		SELECT reason, SUM(duration_min) FROM sources GROUP BY reason
	`)
	if err != nil {
		return err
	}

	return nil
}

// ParseTimestamp parses the ISO-8601 layouts found in sources tables.
func ParseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02 15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %q", s)
}

// Events returns every row of the sources table in storage order.
func (s *SQLiteStore) Events(ctx context.Context) ([]Event, error) {
	rows, err := s.selectEvents.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var (
			e                   Event
			state, reason       sql.NullString
			begin, end          sql.NullString
			duration            sql.NullFloat64
			endpoint, client    sql.NullString
			shiftDay, shiftName sql.NullString
			operator, color     sql.NullString
		)
		if err := rows.Scan(
			&state, &reason, &begin, &end, &duration,
			&endpoint, &client, &shiftDay, &shiftName, &operator, &color,
		); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		e.StateBegin, err = ParseTimestamp(begin.String)
		if err != nil {
			return nil, fmt.Errorf("event %d state_begin: %w", len(events)+1, err)
		}
		e.StateEnd, err = ParseTimestamp(end.String)
		if err != nil {
			return nil, fmt.Errorf("event %d state_end: %w", len(events)+1, err)
		}
		if e.StateEnd.Before(e.StateBegin) {
			return nil, fmt.Errorf("event %d: %w", len(events)+1, ErrInvertedInterval)
		}

		e.State = state.String
		e.Reason = reason.String
		e.DurationMin = duration.Float64
		e.EndpointName = endpoint.String
		e.ClientName = client.String
		e.ShiftDay = shiftDay.String
		e.ShiftName = shiftName.String
		e.Operator = operator.String
		e.Color = color.String
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// ReasonColors returns one (reason, color) pair per distinct reason, in the
// order produced by the GROUP BY.
func (s *SQLiteStore) ReasonColors(ctx context.Context) ([]ReasonColor, error) {
	rows, err := s.selectReasonColors.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query reason colors: %w", err)
	}
	defer rows.Close()

	pairs := []ReasonColor{}
	for rows.Next() {
		var reason, color sql.NullString
		if err := rows.Scan(&reason, &color); err != nil {
			return nil, fmt.Errorf("scan reason color: %w", err)
		}
		pairs = append(pairs, ReasonColor{Reason: reason.String, Color: color.String})
	}
	return pairs, rows.Err()
}

// ReasonTotals returns the summed duration_min per distinct reason.
func (s *SQLiteStore) ReasonTotals(ctx context.Context) ([]ReasonTotal, error) {
	rows, err := s.selectReasonTotals.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query reason totals: %w", err)
	}
	defer rows.Close()

	totals := []ReasonTotal{}
	for rows.Next() {
		var reason sql.NullString
		var sum sql.NullFloat64
		if err := rows.Scan(&reason, &sum); err != nil {
			return nil, fmt.Errorf("scan reason total: %w", err)
		}
		totals = append(totals, ReasonTotal{Reason: reason.String, DurationMin: sum.Float64})
	}
	return totals, rows.Err()
}

// Load runs the three startup reads. An empty sources table yields
// ErrEmptySource.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrEmptySource
	}

	colors, err := s.ReasonColors(ctx)
	if err != nil {
		return nil, err
	}

	totals, err := s.ReasonTotals(ctx)
	if err != nil {
		return nil, err
	}

	return &Snapshot{
		Events:       events,
		ReasonColors: colors,
		ReasonTotals: totals,
	}, nil
}

// InsertEvents writes events to the sources table in a single transaction
// and returns the number of rows inserted. The database must be writable.
func (s *SQLiteStore) InsertEvents(ctx context.Context, events []Event) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sources (state, reason, state_begin, state_end, duration_min,
		                     endpoint_name, client_name, shift_day, shift_name, operator, color)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range events {
		_, err := stmt.ExecContext(ctx,
			e.State, e.Reason,
			e.StateBegin.Format(time.RFC3339Nano), e.StateEnd.Format(time.RFC3339Nano),
			e.DurationMin, e.EndpointName, e.ClientName,
			e.ShiftDay, e.ShiftName, e.Operator, e.Color,
		)
		if err != nil {
			return 0, fmt.Errorf("insert event %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(events), nil
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed; that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.selectEvents, s.selectReasonColors, s.selectReasonTotals,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
