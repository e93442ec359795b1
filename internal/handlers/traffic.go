package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/bluele/gcache"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Arcilios/Take-a-Bike/internal/metrics"
	"github.com/Arcilios/Take-a-Bike/internal/models"
	"github.com/Arcilios/Take-a-Bike/internal/spatial"
	"github.com/Arcilios/Take-a-Bike/internal/traffic"
)

// TrafficHandler handles HTTP requests for station traffic
type TrafficHandler struct {
	display *traffic.Display
	latency *metrics.LatencyTracker
	logger  *slog.Logger

	// results caches *traffic.Result by selector for the dataset in datasetID
	results gcache.Cache

	mu        sync.Mutex
	datasetID uuid.UUID
	index     *spatial.StationIndex
}

// NewTrafficHandler creates a handler serving the display's dataset.
// cacheSize bounds the number of cached selections; 0 disables the cache.
func NewTrafficHandler(display *traffic.Display, latency *metrics.LatencyTracker, cacheSize int, logger *slog.Logger) *TrafficHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if latency == nil {
		latency = metrics.NewLatencyTracker()
	}

	h := &TrafficHandler{
		display: display,
		latency: latency,
		logger:  logger,
	}
	if cacheSize > 0 {
		h.results = gcache.New(cacheSize).LRU().Build()
	}
	return h
}

// Routes registers the traffic endpoints on r
func (h *TrafficHandler) Routes(r chi.Router) {
	r.Get("/api/traffic", h.GetTraffic)
	r.Get("/api/time/label", h.GetTimeLabel)
	r.Get("/api/display", h.GetDisplay)
	r.Put("/api/display", h.PutDisplay)
	r.Get("/api/stations", h.GetStations)
	r.Get("/api/legend", h.GetLegend)
}

// TrafficResponse is the JSON response structure for traffic queries
type TrafficResponse struct {
	DatasetID  uuid.UUID               `json:"datasetId"`
	Time       int                     `json:"time"`
	Label      string                  `json:"label"`
	MaxTraffic int                     `json:"maxTraffic"`
	Count      int                     `json:"count"`
	Records    []models.StationTraffic `json:"records"`
}

// TimeLabelResponse is the JSON response structure for GET /api/time/label
type TimeLabelResponse struct {
	Time  int    `json:"time"`
	Label string `json:"label"`
}

// DisplayRequest is the JSON body for PUT /api/display
type DisplayRequest struct {
	Time *int `json:"time"`
}

// GetStationsResponse is the JSON response structure for GET /api/stations
type GetStationsResponse struct {
	Stations []models.Station `json:"stations"`
	Count    int              `json:"count"`
}

// GetLegendResponse is the JSON response structure for GET /api/legend
type GetLegendResponse struct {
	Entries []models.FlowLegendEntry `json:"entries"`
}

func newTrafficResponse(res *traffic.Result, records []models.StationTraffic) TrafficResponse {
	if records == nil {
		records = []models.StationTraffic{}
	}
	return TrafficResponse{
		DatasetID:  res.DatasetID,
		Time:       int(res.Selector),
		Label:      res.Label,
		MaxTraffic: res.MaxTraffic,
		Count:      len(records),
		Records:    records,
	}
}

func invalidSelector(w http.ResponseWriter, raw string, err error) {
	writeError(w, http.StatusBadRequest, "Invalid time selector", map[string]interface{}{
		"time":    raw,
		"message": err.Error(),
	})
}

// engineState returns the current engine and purges per-dataset state when
// the display has been reloaded onto a different dataset.
func (h *TrafficHandler) engineState() (*traffic.Engine, *spatial.StationIndex) {
	engine := h.display.Engine()
	ds := engine.Dataset()

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index == nil || h.datasetID != ds.ID {
		if h.results != nil {
			h.results.Purge()
		}
		h.datasetID = ds.ID
		h.index = spatial.NewStationIndex(ds.Stations)
		h.logger.Info("traffic cache reset", "dataset_id", ds.ID, "stations", len(ds.Stations))
	}
	return engine, h.index
}

// query answers sel from the cache when possible
func (h *TrafficHandler) query(engine *traffic.Engine, sel traffic.Selector) (*traffic.Result, error) {
	if h.results != nil {
		if v, err := h.results.Get(sel); err == nil {
			if res, ok := v.(*traffic.Result); ok && res.DatasetID == engine.Dataset().ID {
				return res, nil
			}
		}
	}

	start := time.Now()
	res, err := engine.Query(sel)
	if err != nil {
		return nil, err
	}
	h.latency.Observe(time.Since(start))

	if h.results != nil {
		if err := h.results.Set(sel, res); err != nil {
			h.logger.Warn("failed to cache traffic result", "selector", sel.String(), "error", err)
		}
	}
	return res, nil
}

// GetTraffic handles GET /api/traffic
// Returns per-station traffic for ?time= (default all-time), optionally
// narrowed to ?bbox=minLon,minLat,maxLon,maxLat. Scales always cover every station.
func (h *TrafficHandler) GetTraffic(w http.ResponseWriter, r *http.Request) {
	rawTime := r.URL.Query().Get("time")
	sel, err := traffic.ParseSelector(rawTime)
	if err != nil {
		invalidSelector(w, rawTime, err)
		return
	}

	var bounds *spatial.Bounds
	if rawBBox := r.URL.Query().Get("bbox"); rawBBox != "" {
		b, err := spatial.ParseBBox(rawBBox)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid bbox", map[string]interface{}{
				"bbox":    rawBBox,
				"message": err.Error(),
			})
			return
		}
		bounds = &b
	}

	engine, index := h.engineState()

	etag := fmt.Sprintf(`"%s-%d"`, engine.Dataset().ID, int(sel))
	if bounds != nil {
		etag = fmt.Sprintf(`"%s-%d-%g,%g,%g,%g"`, engine.Dataset().ID, int(sel),
			bounds.MinLon, bounds.MinLat, bounds.MaxLon, bounds.MaxLat)
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "public, max-age=60")
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	res, err := h.query(engine, sel)
	if err != nil {
		h.logger.Error("traffic query failed", "selector", sel.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to compute traffic", map[string]interface{}{
			"message": err.Error(),
		})
		return
	}

	records := res.Records
	if bounds != nil {
		mask := index.Within(*bounds)
		records = make([]models.StationTraffic, 0, len(res.Records))
		for i, rec := range res.Records {
			if i < len(mask) && mask[i] {
				records = append(records, rec)
			}
		}
	}

	writeJSON(w, http.StatusOK, newTrafficResponse(res, records))
}

// GetTimeLabel handles GET /api/time/label
func (h *TrafficHandler) GetTimeLabel(w http.ResponseWriter, r *http.Request) {
	rawTime := r.URL.Query().Get("time")
	sel, err := traffic.ParseSelector(rawTime)
	if err != nil {
		invalidSelector(w, rawTime, err)
		return
	}

	writeJSON(w, http.StatusOK, TimeLabelResponse{
		Time:  int(sel),
		Label: traffic.FormatTime(sel),
	})
}

// GetDisplay handles GET /api/display
// Returns the currently displayed selection and its traffic
func (h *TrafficHandler) GetDisplay(w http.ResponseWriter, r *http.Request) {
	res := h.display.Current()
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newTrafficResponse(res, res.Records))
}

// PutDisplay handles PUT /api/display
// Applies {"time": n}. A rejected selector leaves the display unchanged.
func (h *TrafficHandler) PutDisplay(w http.ResponseWriter, r *http.Request) {
	var req DisplayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", map[string]interface{}{
			"message": err.Error(),
		})
		return
	}
	if req.Time == nil {
		writeError(w, http.StatusBadRequest, "Missing time", nil)
		return
	}

	start := time.Now()
	res, err := h.display.Apply(*req.Time)
	if err != nil {
		if errors.Is(err, traffic.ErrInvalidSelector) {
			invalidSelector(w, fmt.Sprint(*req.Time), err)
			return
		}
		h.logger.Error("display apply failed", "time", *req.Time, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to apply selection", map[string]interface{}{
			"message": err.Error(),
		})
		return
	}
	h.latency.Observe(time.Since(start))

	h.logger.Info("display changed", "selector", res.Selector.String())
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, newTrafficResponse(res, res.Records))
}

// GetStations handles GET /api/stations
func (h *TrafficHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	engine, _ := h.engineState()
	stations := engine.Dataset().Stations

	w.Header().Set("Cache-Control", "public, max-age=300")
	writeJSON(w, http.StatusOK, GetStationsResponse{
		Stations: stations,
		Count:    len(stations),
	})
}

// GetLegend handles GET /api/legend
func (h *TrafficHandler) GetLegend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=86400")
	writeJSON(w, http.StatusOK, GetLegendResponse{
		Entries: traffic.FlowLegend(),
	})
}
