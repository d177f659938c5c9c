package handlers

import (
	"net/http"
	"time"
)

// HealthHandler отвечает на проверки живости сервиса
//
// Не ходит на биржу: health check должен оставаться дешёвым
// и отвечать даже когда Hyperliquid недоступен.
type HealthHandler struct {
	startedAt time.Time
}

// NewHealthHandler создает новый HealthHandler
func NewHealthHandler() *HealthHandler {
	return &HealthHandler{startedAt: time.Now()}
}

// GetHealth возвращает статус сервиса
// GET /health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
