package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pliu/attention-tracker/internal/store"
)

type HealthHandler struct {
	Store store.Store
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
