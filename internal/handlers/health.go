package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/Arcilios/Take-a-Bike/internal/metrics"
	"github.com/Arcilios/Take-a-Bike/internal/traffic"
)

// HealthHandler reports on the loaded dataset and query latency
type HealthHandler struct {
	display *traffic.Display
	latency *metrics.LatencyTracker
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(display *traffic.Display, latency *metrics.LatencyTracker) *HealthHandler {
	return &HealthHandler{display: display, latency: latency}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string                  `json:"status"`
	DatasetID uuid.UUID               `json:"datasetId"`
	LoadedAt  time.Time               `json:"loadedAt"`
	Stations  int                     `json:"stations"`
	Trips     int                     `json:"trips"`
	Display   TimeLabelResponse       `json:"display"`
	Latency   metrics.LatencySnapshot `json:"latency"`
	Timestamp time.Time               `json:"timestamp"`
}

// GetHealth handles GET /health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ds := h.display.Engine().Dataset()
	sel := h.display.Selector()

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		DatasetID: ds.ID,
		LoadedAt:  ds.LoadedAt,
		Stations:  len(ds.Stations),
		Trips:     ds.TripCount(),
		Display: TimeLabelResponse{
			Time:  int(sel),
			Label: traffic.FormatTime(sel),
		},
		Latency:   h.latency.Snapshot(),
		Timestamp: time.Now().UTC(),
	})
}

// GetHealthz handles GET /healthz
func (h *HealthHandler) GetHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
