package storage

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestDB creates a migrated, writable database file in a temp directory
// and returns its path alongside the open handle.
func openTestDB(t *testing.T) (*sql.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sources.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run(context.Background()))

	return db, path
}

// openTestStore creates a migrated store seeded with events.
func openTestStore(t *testing.T, events ...Event) (*SQLiteStore, string) {
	t.Helper()
	db, path := openTestDB(t)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if len(events) > 0 {
		n, err := store.InsertEvents(context.Background(), events)
		require.NoError(t, err)
		require.Equal(t, len(events), n)
	}
	return store, path
}

func ts(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		panic(err)
	}
	return t
}

func fixtureEvents() []Event {
	return []Event{
		{
			State: "Работа", Reason: "A", StateBegin: ts("2022-07-02 08:00:00"), StateEnd: ts("2022-07-02 08:10:00"),
			DurationMin: 10, EndpointName: "Фрезерный станок", ClientName: "Клиент", ShiftDay: "2022-07-02",
			ShiftName: "Смена 1", Operator: "Иванов", Color: "#00ff00",
		},
		{
			State: "Работа", Reason: "A", StateBegin: ts("2022-07-02 08:20:00"), StateEnd: ts("2022-07-02 08:25:00"),
			DurationMin: 5, EndpointName: "Фрезерный станок", ClientName: "Клиент", ShiftDay: "2022-07-02",
			ShiftName: "Смена 1", Operator: "Иванов", Color: "#00ff00",
		},
		{
			State: "Простой", Reason: "B", StateBegin: ts("2022-07-02 08:10:00"), StateEnd: ts("2022-07-02 08:13:00"),
			DurationMin: 3, EndpointName: "Фрезерный станок", ClientName: "Клиент", ShiftDay: "2022-07-02",
			ShiftName: "Смена 1", Operator: "Петров", Color: "#ff0000",
		},
	}
}

func TestEvents_ReturnsRowsInStorageOrder(t *testing.T) {
	store, _ := openTestStore(t, fixtureEvents()...)

	events, err := store.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, "A", events[0].Reason)
	assert.Equal(t, "A", events[1].Reason)
	assert.Equal(t, "B", events[2].Reason)

	first := events[0]
	assert.Equal(t, "Работа", first.State)
	assert.True(t, ts("2022-07-02 08:00:00").Equal(first.StateBegin))
	assert.True(t, ts("2022-07-02 08:10:00").Equal(first.StateEnd))
	assert.Equal(t, 10.0, first.DurationMin)
	assert.Equal(t, "Фрезерный станок", first.EndpointName)
	assert.Equal(t, "Клиент", first.ClientName)
	assert.Equal(t, "2022-07-02", first.ShiftDay)
	assert.Equal(t, "Смена 1", first.ShiftName)
	assert.Equal(t, "Иванов", first.Operator)
	assert.Equal(t, "#00ff00", first.Color)
}

func TestReasonColors_OnePairPerReason(t *testing.T) {
	store, _ := openTestStore(t, fixtureEvents()...)

	pairs, err := store.ReasonColors(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []ReasonColor{
		{Reason: "A", Color: "#00ff00"},
		{Reason: "B", Color: "#ff0000"},
	}, pairs)
}

func TestReasonTotals_SumsDurationByReason(t *testing.T) {
	store, _ := openTestStore(t, fixtureEvents()...)

	totals, err := store.ReasonTotals(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []ReasonTotal{
		{Reason: "A", DurationMin: 15},
		{Reason: "B", DurationMin: 3},
	}, totals)
}

func TestReasonTotals_MatchTableSum(t *testing.T) {
	store, _ := openTestStore(t, fixtureEvents()...)
	ctx := context.Background()

	events, err := store.Events(ctx)
	require.NoError(t, err)
	totals, err := store.ReasonTotals(ctx)
	require.NoError(t, err)

	var raw, grouped float64
	for _, e := range events {
		raw += e.DurationMin
	}
	for _, tot := range totals {
		grouped += tot.DurationMin
	}
	assert.InDelta(t, raw, grouped, 1e-9)
}

func TestLoad_EmptyTable(t *testing.T) {
	store, _ := openTestStore(t)

	snap, err := store.Load(context.Background())
	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, ErrEmptySource))
}

func TestLoad_Snapshot(t *testing.T) {
	store, _ := openTestStore(t, fixtureEvents()...)

	snap, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Events, 3)
	assert.Len(t, snap.ReasonColors, 2)
	assert.Len(t, snap.ReasonTotals, 2)
}

func TestLoadSnapshot_ReadsFileAndCloses(t *testing.T) {
	_, path := openTestStore(t, fixtureEvents()...)

	snap, err := LoadSnapshot(context.Background(), path)
	require.NoError(t, err)
	assert.Len(t, snap.Events, 3)
	assert.Equal(t, "B", snap.ReasonTotals[1].Reason)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.db")

	snap, err := LoadSnapshot(context.Background(), path)
	assert.Error(t, err)
	assert.Nil(t, snap)
}

func TestOpen_IsReadOnly(t *testing.T) {
	_, path := openTestStore(t, fixtureEvents()...)

	db, err := Open(context.Background(), path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec("DELETE FROM sources")
	assert.Error(t, err, "read-only connection must reject writes")
}

func TestEvents_ParsesExternalTimestampLayouts(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := db.Exec(`
		INSERT INTO sources (state, reason, state_begin, state_end, duration_min, color)
		VALUES ('s', 'r', '2022-07-02 07:59:57', '2022-07-02T08:14:03.5', 14.1, '#123456')
	`)
	require.NoError(t, err)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	defer store.Close()

	events, err := store.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 7, events[0].StateBegin.Hour())
	assert.Equal(t, 59, events[0].StateBegin.Minute())
	assert.Equal(t, 500*time.Millisecond, time.Duration(events[0].StateEnd.Nanosecond()))
}

func TestEvents_MalformedTimestamp(t *testing.T) {
	db, _ := openTestDB(t)
	_, err := db.Exec(`
		INSERT INTO sources (state, reason, state_begin, state_end, duration_min)
		VALUES ('s', 'r', 'yesterday', '2022-07-02 08:00:00', 1)
	`)
	require.NoError(t, err)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Events(context.Background())
	assert.ErrorContains(t, err, "state_begin")
}

func TestEvents_InvertedInterval(t *testing.T) {
	events := fixtureEvents()
	events[1].StateBegin, events[1].StateEnd = events[1].StateEnd, events[1].StateBegin
	store, path := openTestStore(t, events...)

	_, err := store.Events(context.Background())
	require.ErrorIs(t, err, ErrInvertedInterval)
	assert.ErrorContains(t, err, "event 2")

	_, err = LoadSnapshot(context.Background(), path)
	assert.ErrorIs(t, err, ErrInvertedInterval)
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2022-07-02T08:00:00Z", time.Date(2022, 7, 2, 8, 0, 0, 0, time.UTC)},
		{"2022-07-02T08:00:00", time.Date(2022, 7, 2, 8, 0, 0, 0, time.UTC)},
		{"2022-07-02 08:00:00", time.Date(2022, 7, 2, 8, 0, 0, 0, time.UTC)},
		{"2022-07-02 08:00", time.Date(2022, 7, 2, 8, 0, 0, 0, time.UTC)},
	}
	for _, tc := range tests {
		got, err := ParseTimestamp(tc.in)
		require.NoError(t, err, tc.in)
		assert.True(t, tc.want.Equal(got), "parse %s: got %s", tc.in, got)
	}

	_, err := ParseTimestamp("")
	assert.Error(t, err)
}

func TestOpenWritable_CreatesSchema(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "new.db")

	db, err := OpenWritable(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	v, err := NewMigrationRunner(db).Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	store, err := NewSQLiteStore(db)
	require.NoError(t, err)
	defer store.Close()

	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, ErrEmptySource)
}
