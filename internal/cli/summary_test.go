package cli

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/shiftboard/internal/storage"
)

func loadSample(t *testing.T) (*storage.Snapshot, string) {
	t.Helper()
	path := seedDB(t, sampleEvents()...)
	snap, err := storage.LoadSnapshot(context.Background(), path)
	require.NoError(t, err)
	return snap, path
}

func TestSummary_Human(t *testing.T) {
	snap, path := loadSample(t)
	cmd := &SummaryCommand{globals: &GlobalFlags{}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSnapshot(snap, path))
	})

	assert.Contains(t, output, "Shift Summary")
	assert.Contains(t, output, "Client:        acme")
	assert.Contains(t, output, "Endpoint:      mill")
	assert.Contains(t, output, "Period start:  08:00:00 (02 Jul 2022)")
	assert.Contains(t, output, "Period end:    09:18:00 (02 Jul 2022)")
	assert.Contains(t, output, "Events:        3")
	assert.Contains(t, output, "1h 15m")
	assert.Contains(t, output, "3.0 min")
	assert.Contains(t, output, "#ff0000")
	assert.NotContains(t, output, "endpoints in table")
}

func TestSummary_JSON(t *testing.T) {
	snap, path := loadSample(t)
	cmd := &SummaryCommand{globals: &GlobalFlags{JSON: true}, version: "dev"}

	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSnapshot(snap, path))
	})

	var out summaryJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "dev", out.Version)
	assert.Equal(t, "acme", out.Client)
	assert.Equal(t, []string{"mill"}, out.Endpoints)
	assert.Equal(t, 3, out.Events)
	assert.Equal(t, "2022-07-02T08:00:00Z", out.Begin)
	assert.Equal(t, "2022-07-02T09:18:00Z", out.End)

	total := 0.0
	for _, r := range out.Reasons {
		total += r.DurationMin
	}
	assert.InDelta(t, 78.0, total, 1e-9)
	assert.Len(t, out.Reasons, 2)
}

func TestSummary_ExecuteWithStore(t *testing.T) {
	ctx := context.Background()
	path := seedDB(t, sampleEvents()...)
	db, err := storage.Open(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	var store storage.Store
	store, err = storage.NewSQLiteStore(db)
	require.NoError(t, err)
	defer store.Close()

	cmd := &SummaryCommand{globals: &GlobalFlags{}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithStore(ctx, store, path))
	})
	assert.Contains(t, output, "Events:        3")
}

func TestSummary_MultipleEndpoints(t *testing.T) {
	events := sampleEvents()
	events[1].EndpointName = "lathe"
	path := seedDB(t, events...)
	snap, err := storage.LoadSnapshot(context.Background(), path)
	require.NoError(t, err)

	cmd := &SummaryCommand{globals: &GlobalFlags{}, version: "dev"}
	output := captureOutput(t, func() {
		require.NoError(t, cmd.executeWithSnapshot(snap, path))
	})
	assert.Contains(t, output, "(2 endpoints in table)")
}

func TestSummary_ExecuteThroughParser(t *testing.T) {
	cfgPath := writeConfig(t, seedDB(t, sampleEvents()...))

	var err error
	output := captureOutput(t, func() {
		err = RunWithArgs("dev", []string{"--config", cfgPath, "--json", "summary"})
	})
	require.NoError(t, err)

	var out summaryJSON
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, 3, out.Events)
}

func TestSummary_EmptyDatabase(t *testing.T) {
	cfgPath := writeConfig(t, seedDB(t))

	cmd := &SummaryCommand{globals: &GlobalFlags{Config: cfgPath}}
	err := cmd.Execute(nil)
	assert.ErrorIs(t, err, storage.ErrEmptySource)
}
