package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"survivor/internal/game"
	"survivor/internal/game/spatial"
)

const (
	defaultLeaderboardSize = 10
	maxLeaderboardSize     = 100
)

func (h *routerHandlers) handleGetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Snapshot())
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.engine.Stats())
}

func (h *routerHandlers) handleGetEnemies(w http.ResponseWriter, r *http.Request) {
	snap := h.engine.Snapshot()

	// Optional ?state=active|dead filter
	state := r.URL.Query().Get("state")
	enemies := make([]game.EnemySnapshot, 0, len(snap.Enemies))
	for _, e := range snap.Enemies {
		if state == "" || e.State == state {
			enemies = append(enemies, e)
		}
	}

	writeJSON(w, map[string]interface{}{
		"enemies": enemies,
		"count":   len(enemies),
		"pools":   snap.Pools,
	})
}

func (h *routerHandlers) handleGetLevels(w http.ResponseWriter, r *http.Request) {
	type spawn struct {
		Type  string `json:"type"`
		Count int    `json:"count"`
	}
	type level struct {
		Level      int     `json:"level"`
		Spawns     []spawn `json:"spawns"`
		Total      int     `json:"total"`
		KillTarget int     `json:"killTarget,omitempty"`
	}

	levels := h.engine.Levels()
	out := make([]level, 0, len(levels))
	for i, l := range levels {
		spawns := make([]spawn, 0, len(l.Spawns))
		for _, s := range l.Spawns {
			spawns = append(spawns, spawn{Type: s.Type, Count: s.Count})
		}
		out = append(out, level{Level: i + 1, Spawns: spawns, Total: l.Total(), KillTarget: l.KillTarget})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := defaultLeaderboardSize
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLeaderboardSize)
	}
	writeJSON(w, h.engine.Leaderboard(limit))
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	var req struct {
		X    float64 `json:"x"`
		Z    float64 `json:"z"`
		Fire *bool   `json:"fire"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	ok := h.engine.SetMoveInput(spatial.Vec3{X: req.X, Z: req.Z})
	if req.Fire != nil {
		ok = h.engine.SetFiring(*req.Fire) && ok
	}
	if !ok {
		writeError(w, "Input queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleFireMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode    string `json:"mode"`
		Pattern string `json:"pattern"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.Mode == "" && req.Pattern == "" {
		writeError(w, "mode or pattern is required", http.StatusBadRequest)
		return
	}

	ok := true
	switch req.Mode {
	case "":
	case "single", "area":
		ok = h.engine.SetFireMode(game.ParseFireMode(req.Mode))
	default:
		writeError(w, "mode must be single or area", http.StatusBadRequest)
		return
	}
	switch req.Pattern {
	case "":
	case "cooldown", "burst":
		ok = h.engine.SetFirePattern(game.ParseFirePattern(req.Pattern)) && ok
	default:
		writeError(w, "pattern must be cooldown or burst", http.StatusBadRequest)
		return
	}
	if !ok {
		writeError(w, "Input queue full", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	phase := h.engine.Snapshot().Match.Phase
	if phase != game.PhaseResolution.String() {
		writeError(w, "match is "+phase+", restart is only possible in resolution", http.StatusConflict)
		return
	}
	if !h.engine.RequestRestart() {
		writeError(w, "Input queue full", http.StatusServiceUnavailable)
		return
	}
	log.Println("🔁 Match restart requested via API")
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
