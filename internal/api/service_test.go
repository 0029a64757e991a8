package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sasakiai/poker-chip-distribution/internal/api"
	"github.com/Sasakiai/poker-chip-distribution/internal/cache"
	"github.com/Sasakiai/poker-chip-distribution/internal/distribution"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
	"github.com/Sasakiai/poker-chip-distribution/internal/multiplier"
	"github.com/Sasakiai/poker-chip-distribution/internal/store"
)

var (
	standard      = []model.Denomination{1, 5, 25, 100, 500, 1000}
	caseInventory = model.Inventory{1: 150, 5: 150, 25: 100, 100: 50, 500: 25, 1000: 25}
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type testEnv struct {
	svc    *api.Service
	store  *store.MemoryStore
	cache  *cache.LRU
	hub    *api.WSHub
	router chi.Router
}

// newTestEnv creates a Service over the standard case with an in-memory
// store, an LRU cache and a running hub.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	engine, err := distribution.New(standard, multiplier.DefaultWeights)
	require.NoError(t, err)

	env := &testEnv{
		store: store.NewMemoryStore(caseInventory),
		cache: cache.NewLRU(64, time.Minute),
		hub:   api.NewWSHub(),
	}
	env.svc = api.NewService(engine, env.store, env.cache, env.hub)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go env.hub.Run(ctx)

	r := chi.NewRouter()
	env.svc.RegisterRoutes(r)
	env.router = r
	return env
}

func (env *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func scenarioA() map[string]any {
	return map[string]any{
		"num_players": 6,
		"buy_ins":     []string{"100", "100", "100", "100", "100", "100"},
		"small_blind": "1",
		"big_blind":   "2",
	}
}

// --- Info ---

func TestInfo(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[map[string]any](t, w)
	assert.Equal(t, "Poker Chip Distribution API", body["message"])
	assert.Equal(t, api.Version, body["version"])
	assert.Contains(t, body["endpoints"], "POST /api/v1/distribute")
}

// --- Distribute ---

func TestDistribute_ScenarioA(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "POST", "/api/v1/distribute", scenarioA())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	resp := decode[api.DistributionResponse](t, w)
	_, err := uuid.Parse(resp.CalculationID)
	assert.NoError(t, err)

	require.NotNil(t, resp.Optimal)
	assert.True(t, resp.Optimal.Multiplier.Equal(d("0.02")), "multiplier %s", resp.Optimal.Multiplier)
	assert.True(t, resp.Optimal.Feasible)
	require.Len(t, resp.Optimal.Allocations, 6)
	assert.Equal(t, model.Allocation{1: 20, 5: 16, 25: 12, 100: 6, 500: 2, 1000: 3}, resp.Optimal.Allocations[0])
	require.NotNil(t, resp.Optimal.Info.BigBlindChips)
	assert.Equal(t, int64(100), *resp.Optimal.Info.BigBlindChips)

	assert.LessOrEqual(t, len(resp.Alternatives), distribution.DefaultMaxAlternatives)
	for _, alt := range resp.Alternatives {
		assert.False(t, alt.Multiplier.Equal(resp.Optimal.Multiplier), "optimal multiplier repeated in alternatives")
	}
	assert.NotEmpty(t, resp.Recommendation)
}

func TestDistribute_WithoutAlternatives(t *testing.T) {
	env := newTestEnv(t)
	req := scenarioA()
	req["include_alternatives"] = false

	w := env.do(t, "POST", "/api/v1/distribute", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[api.DistributionResponse](t, w)
	assert.Empty(t, resp.Alternatives)
	assert.Contains(t, w.Body.String(), `"alternatives":[]`)
}

func TestDistribute_ForcedMultiplier(t *testing.T) {
	env := newTestEnv(t)
	req := scenarioA()
	req["force_multiplier"] = "0.1"
	req["include_alternatives"] = false

	w := env.do(t, "POST", "/api/v1/distribute", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[api.DistributionResponse](t, w)
	assert.True(t, resp.Optimal.Multiplier.Equal(d("0.1")))
	assert.Equal(t, []int64{1000, 1000, 1000, 1000, 1000, 1000}, resp.Optimal.Info.ChipsPerPlayer)
}

func TestDistribute_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"malformed json", `{"num_players":`},
		{"unknown field", `{"num_players":2,"buy_ins":["10","10"],"rake":1}`},
		{"no players", map[string]any{"num_players": 0, "buy_ins": []string{}}},
		{"too many players", map[string]any{"num_players": 21, "buy_ins": []string{"10"}}},
		{"buy-in count mismatch", map[string]any{"num_players": 3, "buy_ins": []string{"10", "10"}}},
		{"negative buy-in", map[string]any{"num_players": 1, "buy_ins": []string{"-10"}}},
		{"zero forced multiplier", map[string]any{"num_players": 1, "buy_ins": []string{"10"}, "force_multiplier": "0"}},
		{"max alternatives too small", map[string]any{"num_players": 1, "buy_ins": []string{"10"}, "max_alternatives": 0}},
		{"max alternatives too large", map[string]any{"num_players": 1, "buy_ins": []string{"10"}, "max_alternatives": 21}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, "POST", "/api/v1/distribute", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.NotEmpty(t, decode[map[string]string](t, w)["error"])
		})
	}
}

func TestDistribute_CachesPerInventory(t *testing.T) {
	env := newTestEnv(t)

	first := decode[api.DistributionResponse](t, env.do(t, "POST", "/api/v1/distribute", scenarioA()))
	assert.Equal(t, 1, env.cache.Len())

	second := decode[api.DistributionResponse](t, env.do(t, "POST", "/api/v1/distribute", scenarioA()))
	assert.Equal(t, 1, env.cache.Len(), "identical request served from cache")
	assert.NotEqual(t, first.CalculationID, second.CalculationID, "every response gets its own id")
	assert.True(t, first.Optimal.Multiplier.Equal(second.Optimal.Multiplier))
	assert.Equal(t, first.Optimal.Allocations, second.Optimal.Allocations)
	assert.Equal(t, first.Recommendation, second.Recommendation)

	require.NoError(t, env.store.ReplaceInventory(context.Background(), model.Inventory{1: 10}))
	third := decode[api.DistributionResponse](t, env.do(t, "POST", "/api/v1/distribute", scenarioA()))
	assert.Equal(t, 2, env.cache.Len(), "a new inventory is a new cache entry")
	assert.False(t, third.Optimal.Feasible)
}

// --- Alternatives ---

func TestAlternatives(t *testing.T) {
	env := newTestEnv(t)
	req := map[string]any{
		"num_players":      6,
		"buy_ins":          []string{"10", "10", "10", "10", "10", "10"},
		"max_alternatives": 3,
	}

	w := env.do(t, "POST", "/api/v1/alternatives", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[api.AlternativesResponse](t, w)
	require.Len(t, resp.Alternatives, 3)
	assert.True(t, resp.Alternatives[0].Feasible)
	seen := map[string]bool{}
	for _, alt := range resp.Alternatives {
		key := alt.Multiplier.String()
		assert.False(t, seen[key], "duplicate multiplier %s", key)
		seen[key] = true
	}
}

// --- Custom distribution ---

func TestCustomDistribution(t *testing.T) {
	env := newTestEnv(t)
	req := map[string]any{
		"num_players":      6,
		"buy_ins":          []string{"100", "100", "100", "100", "100", "100"},
		"multiplier":       "0.02",
		"chips_per_player": map[string]int64{"1": 20, "5": 16, "25": 12, "100": 6, "500": 2, "1000": 3},
		"small_blind":      "1",
		"big_blind":        "2",
	}

	w := env.do(t, "POST", "/api/v1/custom-distribution", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[model.CustomResult](t, w)
	assert.True(t, res.Feasible)
	assert.True(t, res.ValueCheck.ValueDifference.IsZero(), "difference %s", res.ValueCheck.ValueDifference)
	assert.True(t, res.ValueCheck.ActualValuePerPlayer.Equal(d("100")))
	assert.Equal(t, int64(354), res.Info.TotalChips)
}

func TestCustomDistribution_ReportsShortage(t *testing.T) {
	env := newTestEnv(t)
	req := map[string]any{
		"num_players":      4,
		"buy_ins":          []string{"7000", "7000", "7000", "7000"},
		"multiplier":       "1",
		"chips_per_player": map[string]int64{"1000": 7},
	}

	w := env.do(t, "POST", "/api/v1/custom-distribution", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	res := decode[model.CustomResult](t, w)
	assert.False(t, res.Feasible)
	assert.Equal(t, model.Shortage{1000: 3}, res.Shortage)
}

func TestCustomDistribution_BadRequests(t *testing.T) {
	base := func() map[string]any {
		return map[string]any{
			"num_players":      2,
			"buy_ins":          []string{"10", "10"},
			"multiplier":       "1",
			"chips_per_player": map[string]int64{"5": 2},
		}
	}
	tests := []struct {
		name   string
		mutate func(map[string]any)
	}{
		{"unknown denomination", func(m map[string]any) { m["chips_per_player"] = map[string]int64{"2": 5} }},
		{"negative count", func(m map[string]any) { m["chips_per_player"] = map[string]int64{"5": -1} }},
		{"zero multiplier", func(m map[string]any) { m["multiplier"] = "0" }},
		{"no players", func(m map[string]any) { m["num_players"] = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := base()
			tt.mutate(req)
			w := env.do(t, "POST", "/api/v1/custom-distribution", req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

// --- Inventory ---

func TestGetInventory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "GET", "/api/v1/inventory", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[api.InventoryResponse](t, w)
	assert.Equal(t, caseInventory, resp.Inventory)
	assert.Equal(t, int64(45900), resp.TotalValue)
}

func TestUpdateInventory_ReplacesWholeInventory(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, "PUT", "/api/v1/inventory", map[string]int64{"5": 40, "25": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[api.InventoryResponse](t, w)
	assert.Equal(t, "Inventory updated successfully", resp.Message)
	assert.Equal(t, model.Inventory{5: 40, 25: 8}, resp.Inventory)
	assert.Equal(t, int64(400), resp.TotalValue)

	got := decode[api.InventoryResponse](t, env.do(t, "GET", "/api/v1/inventory", nil))
	assert.Equal(t, model.Inventory{5: 40, 25: 8}, got.Inventory)
}

func TestUpdateInventory_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body any
	}{
		{"unknown nominal", map[string]int64{"2": 10}},
		{"negative count", map[string]int64{"5": -1}},
		{"not a map", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			w := env.do(t, "PUT", "/api/v1/inventory", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			inv, err := env.store.Inventory(context.Background())
			require.NoError(t, err)
			assert.Equal(t, caseInventory, inv, "rejected update must leave the inventory untouched")
		})
	}
}

// --- WebSocket ---

func TestUpdateInventory_BroadcastsToWebSocketClients(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	w := env.do(t, "PUT", "/api/v1/inventory", map[string]int64{"100": 3})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg api.WSMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, api.MessageInventoryUpdated, msg.Type)
	assert.Equal(t, model.Inventory{100: 3}, msg.Inventory)
	assert.Equal(t, int64(300), msg.TotalValue)
}
