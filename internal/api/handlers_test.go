package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spendlens/spendlens/internal/store"
	"github.com/spendlens/spendlens/internal/testutil"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate())

	ctx := context.Background()
	keys := make(map[string]int64)
	err = st.WithTx(ctx, func(tx *sql.Tx) error {
		for i, v := range []string{"1", "5", "Total"} {
			key, err := st.UpsertSegmentValue(ctx, tx, "Income Quintile", v, i)
			if err != nil {
				return err
			}
			keys[v] = key
		}

		income, consumption := 7510.0, 10979.0
		edu1, edu5 := 217.0, 3930.0
		_, err := st.ReplaceFacts(ctx, tx, "q.csv", []store.Fact{
			{SegmentKey: keys["1"], ItemName: "הכנסה נטו", Value: &income, Reliability: "normal", IsIncome: true},
			{SegmentKey: keys["1"], ItemName: "הוצאה לתצרוכת", Value: &consumption, Reliability: "normal", IsConsumption: true},
			{SegmentKey: keys["1"], ItemName: "חינוך", Value: &edu1, Reliability: "normal"},
			{SegmentKey: keys["5"], ItemName: "חינוך", Value: &edu5, Reliability: "normal"},
		})
		return err
	})
	require.NoError(t, err)

	srv := httptest.NewServer(NewServer(st, ":0", testutil.NewTestLogger(t)).Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestSegmentTypesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var types []string
	status := getJSON(t, srv.URL+"/api/segment-types", &types)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Income Quintile"}, types)
}

func TestSegmentValuesEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var values []map[string]any
	status := getJSON(t, srv.URL+"/api/segment-types/Income%20Quintile/values", &values)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, values, 3)
	assert.Equal(t, "1", values[0]["segment_value"])
	assert.Equal(t, "Total", values[2]["segment_value"], "Total sorts last")
}

func TestBurnRateEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var rates []map[string]any
	status := getJSON(t, srv.URL+"/api/segment-types/Income%20Quintile/burn-rate", &rates)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, rates, 2)

	assert.Equal(t, "1", rates[0]["segment_value"])
	assert.InDelta(t, 146.2, rates[0]["burn_rate_pct"].(float64), 1e-9)

	// Segment 5 has no income facts: JSON null, not an error.
	assert.Equal(t, "5", rates[1]["segment_value"])
	assert.Nil(t, rates[1]["burn_rate_pct"])
}

func TestInequalityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var items []map[string]any
	status := getJSON(t, srv.URL+"/api/segment-types/Income%20Quintile/inequality?top=10", &items)
	assert.Equal(t, http.StatusOK, status)
	require.Len(t, items, 1)

	assert.Equal(t, "חינוך", items[0]["item_name"])
	assert.Equal(t, "5", items[0]["top_segment"])
	assert.InDelta(t, 18.11, items[0]["ratio"].(float64), 0.001)
}

func TestFactsEndpointPaging(t *testing.T) {
	srv := newTestServer(t)

	var page []map[string]any
	status := getJSON(t, srv.URL+"/api/segment-types/Income%20Quintile/facts?limit=2&offset=0", &page)
	assert.Equal(t, http.StatusOK, status)
	assert.Len(t, page, 2)

	var rest []map[string]any
	getJSON(t, srv.URL+"/api/segment-types/Income%20Quintile/facts?limit=10&offset=2", &rest)
	assert.Len(t, rest, 2)
}

func TestUnknownSegmentTypeReturnsEmpty(t *testing.T) {
	srv := newTestServer(t)

	var values []map[string]any
	status := getJSON(t, srv.URL+"/api/segment-types/Nope/values", &values)
	assert.Equal(t, http.StatusOK, status)
	assert.Empty(t, values)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
