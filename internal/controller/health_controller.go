package controller

import (
	"net/http"

	"github.com/finadigital/wifipass/internal/store"
)

// HealthController has no external dependencies to probe; readiness only
// confirms the process is serving and reports the live session count.
type HealthController struct {
	sessions *store.SessionStore
}

func NewHealthController(sessions *store.SessionStore) *HealthController {
	return &HealthController{sessions: sessions}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ready",
		"sessions": h.sessions.Len(),
	})
}
