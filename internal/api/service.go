// Package api provides the HTTP handlers for computing chip distributions,
// validating custom chip sets and managing the chip inventory.
//
// All monetary values use shopspring/decimal; chip counts are integers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Sasakiai/poker-chip-distribution/internal/cache"
	"github.com/Sasakiai/poker-chip-distribution/internal/distribution"
	"github.com/Sasakiai/poker-chip-distribution/internal/inventory"
	"github.com/Sasakiai/poker-chip-distribution/internal/metrics"
	"github.com/Sasakiai/poker-chip-distribution/internal/model"
	"github.com/Sasakiai/poker-chip-distribution/internal/store"
)

// Version is reported by the health and info endpoints.
const Version = "2.0.0"

// Request bounds.
const (
	MaxPlayers      = 20
	MaxAlternatives = 20
)

// Service serves distribution requests against the shared inventory.
type Service struct {
	engine *distribution.Engine
	store  store.InventoryStore
	cache  cache.Cache
	wsHub  *WSHub // optional WebSocket hub for inventory broadcasts
}

// NewService creates a new API service.
// Pass nil for c to disable result caching and nil for hub if WebSocket
// broadcasting is not needed.
func NewService(engine *distribution.Engine, st store.InventoryStore, c cache.Cache, hub *WSHub) *Service {
	if c == nil {
		c = cache.Nop{}
	}
	return &Service{
		engine: engine,
		store:  st,
		cache:  c,
		wsHub:  hub,
	}
}

// RegisterRoutes mounts the service under r. The WebSocket endpoint is only
// mounted when a hub is configured.
func (s *Service) RegisterRoutes(r chi.Router) {
	r.Get("/api", s.Info)
	r.Route("/api/v1", func(r chi.Router) {
		if s.wsHub != nil {
			r.Get("/ws", s.wsHub.HandleWS)
		}
		r.Post("/distribute", s.Distribute)
		r.Post("/alternatives", s.Alternatives)
		r.Post("/custom-distribution", s.CustomDistribution)
		r.Get("/inventory", s.GetInventory)
		r.Put("/inventory", s.UpdateInventory)
	})
}

// --- Request/Response types ---

// DistributionRequest is the JSON body for POST /distribute and
// POST /alternatives.
type DistributionRequest struct {
	NumPlayers          int               `json:"num_players"`
	BuyIns              []decimal.Decimal `json:"buy_ins"`
	SmallBlind          *decimal.Decimal  `json:"small_blind,omitempty"`
	BigBlind            *decimal.Decimal  `json:"big_blind,omitempty"`
	ForceMultiplier     *decimal.Decimal  `json:"force_multiplier,omitempty"`
	IncludeAlternatives *bool             `json:"include_alternatives,omitempty"` // nil → true
	MaxAlternatives     *int              `json:"max_alternatives,omitempty"`     // nil → 5
}

func (req DistributionRequest) params() model.GameParams {
	return model.GameParams{
		Players:         req.NumPlayers,
		BuyIns:          req.BuyIns,
		SmallBlind:      req.SmallBlind,
		BigBlind:        req.BigBlind,
		ForceMultiplier: req.ForceMultiplier,
	}
}

func (req DistributionRequest) includeAlternatives() bool {
	return req.IncludeAlternatives == nil || *req.IncludeAlternatives
}

func (req DistributionRequest) maxAlternatives() int {
	if req.MaxAlternatives == nil {
		return distribution.DefaultMaxAlternatives
	}
	return *req.MaxAlternatives
}

func (req DistributionRequest) validate() error {
	if req.NumPlayers < 1 || req.NumPlayers > MaxPlayers {
		return fmt.Errorf("%w: num_players must be between 1 and %d", model.ErrInvalidParameters, MaxPlayers)
	}
	if req.MaxAlternatives != nil && (*req.MaxAlternatives < 1 || *req.MaxAlternatives > MaxAlternatives) {
		return fmt.Errorf("%w: max_alternatives must be between 1 and %d", model.ErrInvalidParameters, MaxAlternatives)
	}
	return nil
}

// CustomDistributionRequest is the JSON body for POST /custom-distribution.
type CustomDistributionRequest struct {
	NumPlayers     int               `json:"num_players"`
	BuyIns         []decimal.Decimal `json:"buy_ins"`
	Multiplier     decimal.Decimal   `json:"multiplier"`
	ChipsPerPlayer model.Allocation  `json:"chips_per_player"`
	SmallBlind     *decimal.Decimal  `json:"small_blind,omitempty"`
	BigBlind       *decimal.Decimal  `json:"big_blind,omitempty"`
}

// DistributionResponse is the JSON body returned from POST /distribute.
type DistributionResponse struct {
	CalculationID  string         `json:"calculation_id"`
	Optimal        *model.Result  `json:"optimal"`
	Alternatives   []model.Result `json:"alternatives"`
	Recommendation string         `json:"recommendation"`
}

// AlternativesResponse is the JSON body returned from POST /alternatives.
type AlternativesResponse struct {
	CalculationID string         `json:"calculation_id"`
	Alternatives  []model.Result `json:"alternatives"`
}

// InventoryResponse is the JSON body for the inventory endpoints.
type InventoryResponse struct {
	Message    string          `json:"message,omitempty"`
	Inventory  model.Inventory `json:"inventory"`
	TotalValue int64           `json:"total_value"`
}

// --- HTTP Handlers ---

// Info handles GET /api
func (s *Service) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Poker Chip Distribution API",
		"version": Version,
		"endpoints": map[string]string{
			"POST /api/v1/distribute":          "Calculate chip distribution",
			"POST /api/v1/alternatives":        "Rank alternative multipliers",
			"POST /api/v1/custom-distribution": "Test custom chip configuration",
			"GET /api/v1/inventory":            "Get current chip inventory",
			"PUT /api/v1/inventory":            "Replace chip inventory",
			"GET /api/v1/ws":                   "Inventory update stream",
			"GET /health":                      "Health check",
		},
	})
}

// Distribute handles POST /api/v1/distribute
func (s *Service) Distribute(w http.ResponseWriter, r *http.Request) {
	var req DistributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeComputeError(w, err)
		return
	}

	inv, err := s.store.Inventory(r.Context())
	if err != nil {
		slog.Error("inventory read failed", "err", err)
		writeError(w, "inventory unavailable", http.StatusInternalServerError)
		return
	}

	resp, err := cached(r.Context(), s.cache, "distribute", req, inv, func() (DistributionResponse, error) {
		return s.distribute(r.Context(), req, inv)
	})
	if err != nil {
		writeComputeError(w, err)
		return
	}
	resp.CalculationID = uuid.New().String()

	slog.Info("distribution computed",
		"calculation_id", resp.CalculationID,
		"multiplier", resp.Optimal.Multiplier,
		"players", req.NumPlayers,
		"feasible", resp.Optimal.Feasible,
		"alternatives", len(resp.Alternatives),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) distribute(ctx context.Context, req DistributionRequest, inv model.Inventory) (DistributionResponse, error) {
	start := time.Now()
	defer metrics.ObserveCompute("distribute", start)

	optimal, err := s.engine.Distribute(req.params(), inv)
	if err != nil {
		return DistributionResponse{}, err
	}
	metrics.RecordDistribution("distribute", optimal.Feasible)

	alternatives := []model.Result{}
	if req.includeAlternatives() {
		alts, err := s.engine.FindAlternatives(ctx, req.params(), inv, req.maxAlternatives())
		if err != nil {
			return DistributionResponse{}, err
		}
		alternatives = distribution.ExcludeMultiplier(alts, optimal.Multiplier)
	}

	return DistributionResponse{
		Optimal:        optimal,
		Alternatives:   alternatives,
		Recommendation: distribution.Recommend(optimal, alternatives),
	}, nil
}

// Alternatives handles POST /api/v1/alternatives
func (s *Service) Alternatives(w http.ResponseWriter, r *http.Request) {
	var req DistributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeComputeError(w, err)
		return
	}

	inv, err := s.store.Inventory(r.Context())
	if err != nil {
		slog.Error("inventory read failed", "err", err)
		writeError(w, "inventory unavailable", http.StatusInternalServerError)
		return
	}

	resp, err := cached(r.Context(), s.cache, "alternatives", req, inv, func() (AlternativesResponse, error) {
		start := time.Now()
		defer metrics.ObserveCompute("alternatives", start)

		alts, err := s.engine.FindAlternatives(r.Context(), req.params(), inv, req.maxAlternatives())
		if err != nil {
			return AlternativesResponse{}, err
		}
		for _, a := range alts {
			metrics.RecordDistribution("alternatives", a.Feasible)
		}
		return AlternativesResponse{Alternatives: alts}, nil
	})
	if err != nil {
		writeComputeError(w, err)
		return
	}
	resp.CalculationID = uuid.New().String()

	slog.Info("alternatives computed",
		"calculation_id", resp.CalculationID,
		"players", req.NumPlayers,
		"alternatives", len(resp.Alternatives),
	)
	writeJSON(w, http.StatusOK, resp)
}

// CustomDistribution handles POST /api/v1/custom-distribution
func (s *Service) CustomDistribution(w http.ResponseWriter, r *http.Request) {
	var req CustomDistributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.NumPlayers < 1 || req.NumPlayers > MaxPlayers {
		writeError(w, fmt.Sprintf("num_players must be between 1 and %d", MaxPlayers), http.StatusBadRequest)
		return
	}

	inv, err := s.store.Inventory(r.Context())
	if err != nil {
		slog.Error("inventory read failed", "err", err)
		writeError(w, "inventory unavailable", http.StatusInternalServerError)
		return
	}

	p := model.GameParams{
		Players:    req.NumPlayers,
		BuyIns:     req.BuyIns,
		SmallBlind: req.SmallBlind,
		BigBlind:   req.BigBlind,
	}
	res, err := cached(r.Context(), s.cache, "custom", req, inv, func() (*model.CustomResult, error) {
		start := time.Now()
		defer metrics.ObserveCompute("custom", start)

		res, err := s.engine.ValidateCustom(p, req.Multiplier, req.ChipsPerPlayer, inv)
		if err != nil {
			return nil, err
		}
		metrics.RecordDistribution("custom", res.Feasible)
		return res, nil
	})
	if err != nil {
		writeComputeError(w, err)
		return
	}

	slog.Info("custom distribution checked",
		"multiplier", res.Multiplier,
		"players", req.NumPlayers,
		"feasible", res.Feasible,
		"value_difference", res.ValueCheck.ValueDifference,
	)
	writeJSON(w, http.StatusOK, res)
}

// GetInventory handles GET /api/v1/inventory
func (s *Service) GetInventory(w http.ResponseWriter, r *http.Request) {
	inv, err := s.store.Inventory(r.Context())
	if err != nil {
		slog.Error("inventory read failed", "err", err)
		writeError(w, "inventory unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, InventoryResponse{
		Inventory:  inv,
		TotalValue: inventory.TotalValue(inv),
	})
}

// UpdateInventory handles PUT /api/v1/inventory. The body replaces the whole
// inventory.
func (s *Service) UpdateInventory(w http.ResponseWriter, r *http.Request) {
	var inv model.Inventory
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if inv == nil {
		inv = model.Inventory{}
	}
	if err := inventory.Validate(inv, s.engine.Denominations()); err != nil {
		writeComputeError(w, err)
		return
	}

	if err := s.store.ReplaceInventory(r.Context(), inv); err != nil {
		slog.Error("inventory replace failed", "err", err)
		writeError(w, "inventory update failed", http.StatusInternalServerError)
		return
	}

	total := inventory.TotalValue(inv)
	metrics.InventoryUpdates.Inc()
	metrics.InventoryValue.Set(float64(total))
	slog.Info("inventory replaced", "denominations", len(inv), "total_value", total)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:       MessageInventoryUpdated,
			Inventory:  inv,
			TotalValue: total,
			UpdatedAt:  time.Now().UTC(),
		})
	}

	writeJSON(w, http.StatusOK, InventoryResponse{
		Message:    "Inventory updated successfully",
		Inventory:  inv,
		TotalValue: total,
	})
}

// --- Helpers ---

// cached serves compute's result from c when an identical request was
// answered against the same inventory, and stores fresh results.
func cached[T any](ctx context.Context, c cache.Cache, op string, req any, inv model.Inventory, compute func() (T, error)) (T, error) {
	key, keyErr := cache.Key(op, req, inv)
	if keyErr == nil {
		if data, ok := c.Get(ctx, key); ok {
			var v T
			if err := json.Unmarshal(data, &v); err == nil {
				return v, nil
			}
		}
	}

	v, err := compute()
	if err != nil {
		return v, err
	}
	if keyErr == nil {
		if data, err := json.Marshal(v); err == nil {
			c.Set(ctx, key, data)
		}
	}
	return v, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeComputeError maps engine errors onto HTTP status codes.
func writeComputeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidParameters):
		writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, "request cancelled", http.StatusServiceUnavailable)
	case errors.Is(err, model.ErrInvalidConfiguration):
		slog.Error("configuration error", "err", err)
		writeError(w, err.Error(), http.StatusInternalServerError)
	default:
		slog.Error("internal error", "err", err)
		writeError(w, "internal error", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, msg string, status int) {
	writeJSON(w, status, map[string]string{"error": msg})
}
