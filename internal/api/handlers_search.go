package api

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// handleSearch queries the chunk vector index.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	idx := s.orchestrator.Index()
	if idx == nil {
		jsonError(w, "vector index is disabled", http.StatusServiceUnavailable)
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		jsonError(w, "q query parameter is required", http.StatusBadRequest)
		return
	}

	topK := 10
	if v := r.URL.Query().Get("top_k"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			topK = n
		}
	}
	var minSim float64
	if v := r.URL.Query().Get("min_similarity"); v != "" {
		if f, err := strconv.ParseFloat(v, 32); err == nil && f >= 0 && f <= 1 {
			minSim = f
		}
	}

	results, err := idx.Search(r.Context(), query, topK, float32(minSim))
	if err != nil {
		jsonError(w, "search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}
