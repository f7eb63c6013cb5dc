package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/api"
)

const snapshotDoc = `{
  "persons": [{"id": "alice", "name": "Alice", "active": true, "norms": [{"preset": "full_time", "valid_from": "2023-01-01"}]}],
  "units": [{"id": "delivery", "name": "Delivery", "members": ["alice"]}],
  "work_items": [{"id": "atlas", "name": "Atlas", "type": "commercial", "active": true}],
  "time_log": [
    {"person_id": "alice", "work_item_id": "atlas", "date": "2024-01-02", "hours": 6},
    {"person_id": "alice", "work_item_id": "atlas", "date": "2024-01-03", "hours": 6}
  ]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	require.NoError(t, os.WriteFile(path, []byte(snapshotDoc), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAggregateCmd_Snapshot(t *testing.T) {
	// GIVEN
	path := writeSnapshot(t)

	// WHEN
	out, err := run(t, "aggregate", "--snapshot", path, "--start", "2024-01-01", "--end", "2024-01-07", "--as-of", "2024-01-08")

	// THEN
	require.NoError(t, err)
	var resp api.AggregateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 40.0, resp.Units[0].Capacity)
	assert.Equal(t, 12.0, resp.Units[0].Demand)
	assert.Equal(t, "under", resp.Units[0].Status)
}

func TestAggregateCmd_ExcludeUnits(t *testing.T) {
	path := writeSnapshot(t)

	out, err := run(t, "aggregate", "--snapshot", path, "--period", "week", "--as-of", "2024-01-03", "--exclude-units", "delivery")

	require.NoError(t, err)
	var resp api.AggregateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Empty(t, resp.Units)
	assert.Equal(t, "2024-01-01", resp.Period.Start)
}

func TestAggregateCmd_ExcludeActivities(t *testing.T) {
	// GIVEN: All of Alice's hours are on a commercial item
	path := writeSnapshot(t)

	// WHEN
	out, err := run(t, "aggregate", "--snapshot", path, "--start", "2024-01-01", "--end", "2024-01-07", "--as-of", "2024-01-08", "--exclude-activities", "commercial")

	// THEN
	require.NoError(t, err)
	var resp api.AggregateResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 40.0, resp.Units[0].Capacity)
	assert.Equal(t, 0.0, resp.Units[0].Demand)
}

func TestImportThenAggregateFromDB(t *testing.T) {
	// GIVEN: The snapshot written into a database file
	path := writeSnapshot(t)
	db := filepath.Join(t.TempDir(), "capacity.db")
	out, err := run(t, "import", "--snapshot", path, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 units")

	// WHEN
	out, err = run(t, "breakdown", "--db", db, "--person", "alice", "--start", "2024-01-01", "--end", "2024-01-07", "--as-of", "2024-01-08")

	// THEN
	require.NoError(t, err)
	var resp api.PersonBreakdownResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, 12.0, resp.Person.Demand)
	assert.Equal(t, 5, resp.Person.WorkingDays)
}

func TestWeeklyCmd(t *testing.T) {
	path := writeSnapshot(t)

	out, err := run(t, "weekly", "--snapshot", path, "--start", "2024-01-01", "--end", "2024-01-14")

	require.NoError(t, err)
	var resp api.WeeklySeriesResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	require.Len(t, resp.Weeks, 2)
	assert.Equal(t, 12.0, resp.Weeks[0].Demand)
}

func TestPeriodsCmd(t *testing.T) {
	out, err := run(t, "periods", "--as-of", "2024-05-17")

	require.NoError(t, err)
	var got []api.NamedPeriodResponse
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, len(periodKinds))
	assert.Equal(t, "2024-05-13", got[0].Period.Start)
}

func TestPresetsCmd(t *testing.T) {
	out, err := run(t, "presets")

	require.NoError(t, err)
	assert.Contains(t, strings.Split(strings.TrimSpace(out), "\n"), "full_time")
}

func TestCmd_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"no source", []string{"aggregate", "--period", "week"}},
		{"empty period", []string{"aggregate", "--snapshot", "x.json", "--start", "2024-01-07", "--end", "2024-01-01"}},
		{"unknown period", []string{"weekly", "--snapshot", "x.json", "--period", "fortnight"}},
		{"missing person flag", []string{"breakdown", "--snapshot", "x.json"}},
		{"unknown activity", []string{"aggregate", "--snapshot", "x.json", "--exclude-activities", "sales"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			assert.Error(t, err)
		})
	}
}
