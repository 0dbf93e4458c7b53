package status

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/RoGogDBD/activity-tracker/internal/input"
	"github.com/RoGogDBD/activity-tracker/internal/repository"
	"github.com/RoGogDBD/activity-tracker/internal/state"
)

type countersPayload struct {
	Keypresses      uint64  `json:"keypresses"`
	MouseClicks     uint64  `json:"mouse_clicks"`
	ScrollSteps     uint64  `json:"scroll_steps"`
	MouseDistanceIn float64 `json:"mouse_distance_in"`
	MouseDistanceMi float64 `json:"mouse_distance_mi"`
}

type statusResponse struct {
	Totals            countersPayload `json:"totals"`
	Interval          countersPayload `json:"interval"`
	DroppedEvents     uint64          `json:"dropped_events"`
	UptimeSeconds     int64           `json:"uptime_seconds"`
	ProcessRSSBytes   uint64          `json:"process_rss_bytes,omitempty"`
	ProcessCPUPercent float64         `json:"process_cpu_percent,omitempty"`
}

// Handler отдаёт текущее состояние трекера по HTTP.
type Handler struct {
	metrics   *state.Metrics
	bridge    *input.Bridge
	primary   repository.Store
	startedAt time.Time
	log       *zap.Logger
}

func NewHandler(metrics *state.Metrics, bridge *input.Bridge, primary repository.Store, log *zap.Logger) *Handler {
	return &Handler{
		metrics:   metrics,
		bridge:    bridge,
		primary:   primary,
		startedAt: time.Now(),
		log:       log,
	}
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	totals := h.metrics.Totals()
	interval := h.metrics.IntervalSnapshot()

	resp := statusResponse{
		Totals: countersPayload{
			Keypresses:      totals.Keypresses,
			MouseClicks:     totals.MouseClicks,
			ScrollSteps:     totals.ScrollSteps,
			MouseDistanceIn: totals.MouseDistanceIn,
			MouseDistanceMi: totals.Miles(),
		},
		Interval: countersPayload{
			Keypresses:      interval.Keypresses,
			MouseClicks:     interval.MouseClicks,
			ScrollSteps:     interval.ScrollSteps,
			MouseDistanceIn: interval.MouseDistanceIn,
			MouseDistanceMi: interval.Miles(),
		},
		UptimeSeconds: int64(time.Since(h.startedAt).Seconds()),
	}
	if h.bridge != nil {
		resp.DroppedEvents = h.bridge.Dropped()
	}
	h.fillProcessStats(&resp)

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.log.Error("Failed to write status response", zap.Error(err))
	}
}

// fillProcessStats добавляет потребление ресурсов самим трекером.
// Ошибки не фатальны, поля просто остаются пустыми.
func (h *Handler) fillProcessStats(resp *statusResponse) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		h.log.Debug("Failed to inspect own process", zap.Error(err))
		return
	}
	if mem, err := proc.MemoryInfo(); err == nil && mem != nil {
		resp.ProcessRSSBytes = mem.RSS
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		resp.ProcessCPUPercent = cpu
	}
}

func (h *Handler) HandlePing(w http.ResponseWriter, r *http.Request) {
	if h.primary == nil {
		http.Error(w, "storage not configured", http.StatusInternalServerError)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.primary.Ping(ctx); err != nil {
		http.Error(w, "storage not reachable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
