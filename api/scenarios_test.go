package api

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/capacity-engine/capacity"
	"github.com/warp/capacity-engine/generic"
	"github.com/warp/capacity-engine/store/sqlite"
)

// midJanuary is a Wednesday; month_to_date covers 13 weekdays.
func midJanuary() generic.TimePoint { return generic.MustParseDate("2024-01-17") }

func monthToDate() AggregateRequest { return AggregateRequest{Period: "month_to_date"} }

func loadScenario(t *testing.T, ts *testServer, id string) {
	t.Helper()
	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: id})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestListScenarios(t *testing.T) {
	ts := newTestServer(t)

	got := decode[[]ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios", nil))

	require.Len(t, got, len(scenarioBuilders))
	for _, s := range got {
		assert.Contains(t, scenarioBuilders, s.ID)
	}
}

func TestLoadScenario_EveryDatasetAggregates(t *testing.T) {
	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			// GIVEN
			ts := newTestServer(t)
			ts.h.now = midJanuary

			// WHEN
			loadScenario(t, ts, s.ID)

			// THEN: The dataset aggregates cleanly and is reported as current
			resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))
			assert.NotEmpty(t, resp.Units)
			assert.Empty(t, resp.Warnings)
			assert.Equal(t, "2024-01-01", resp.Period.Start)
			assert.Equal(t, "2024-01-17", resp.Period.End)

			current := decode[ScenarioDTO](t, ts.do(t, http.MethodGet, "/api/scenarios/current", nil))
			assert.Equal(t, s.ID, current.ID)
		})
	}
}

func TestLoadScenario_OverloadedDeliveryIsOver(t *testing.T) {
	// GIVEN
	ts := newTestServer(t)
	ts.h.now = midJanuary
	loadScenario(t, ts, "overloaded-delivery")

	// WHEN
	resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))

	// THEN: 3 people x 12 logged days x 10h against 13 days x 8h each
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 312.0, resp.Units[0].Capacity)
	assert.Equal(t, 360.0, resp.Units[0].Demand)
	assert.Equal(t, "over", resp.Units[0].Status)
}

func TestLoadScenario_BalancedTeamIsOK(t *testing.T) {
	ts := newTestServer(t)
	ts.h.now = midJanuary
	loadScenario(t, ts, "balanced-team")

	resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))

	require.Len(t, resp.Units, 2)
	for _, u := range resp.Units {
		assert.Equal(t, "ok", u.Status, u.UnitID)
	}
}

func TestLoadScenario_SparseDataLowersQuality(t *testing.T) {
	ts := newTestServer(t)
	ts.h.now = midJanuary
	loadScenario(t, ts, "sparse-data")

	resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))

	require.Len(t, resp.Units, 1)
	ops := resp.Units[0]
	assert.Less(t, ops.DataQuality, 1.0)
	assert.InDelta(t, 1.0/3.0, ops.DataQualityBreakdown.NormCoverage, 0.0001)
}

func TestLoadScenario_ReplacesPreviousData(t *testing.T) {
	// GIVEN: Imported data plus a cached result
	ts := newTestServer(t)
	ts.h.now = midJanuary
	ts.seed(t)
	ts.do(t, http.MethodPost, "/api/aggregate", monthToDate())

	// WHEN
	loadScenario(t, ts, "presale-pipeline")

	// THEN: Only the scenario's unit remains and the cache was dropped
	resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))
	assert.False(t, resp.Cached)
	require.Len(t, resp.Units, 1)
	assert.Equal(t, "u-presale", resp.Units[0].UnitID)
}

func TestLoadScenario_Unknown(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetStore(t *testing.T) {
	ts := newTestServer(t)
	ts.h.now = midJanuary
	loadScenario(t, ts, "balanced-team")

	rec := ts.do(t, http.MethodPost, "/api/scenarios/reset", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", ts.do(t, http.MethodGet, "/api/scenarios/current", nil).Body.String())
	resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))
	assert.Empty(t, resp.Units)
}

func TestLoadScenario_SQLiteStore(t *testing.T) {
	// GIVEN: The handler backed by SQLite
	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	engine, err := capacity.New(capacity.DefaultConfig())
	require.NoError(t, err)
	h := NewHandler(st, engine, 4, zerolog.Nop())
	h.now = midJanuary
	ts := &testServer{h: h, router: NewRouter(h, nil, []string{"*"})}

	// WHEN
	loadScenario(t, ts, "overloaded-delivery")

	// THEN: Same figures as the in-memory store
	resp := decode[AggregateResponse](t, ts.do(t, http.MethodPost, "/api/aggregate", monthToDate()))
	require.Len(t, resp.Units, 1)
	assert.Equal(t, 312.0, resp.Units[0].Capacity)
	assert.Equal(t, 360.0, resp.Units[0].Demand)
}
