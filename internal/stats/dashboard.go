package stats

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/clinicflow/clinicflow/internal/appointments"
	"github.com/clinicflow/clinicflow/pkg/logging"
)

// Dashboard is the summary payload for the admin and owner views.
type Dashboard struct {
	Date                  string        `json:"date,omitempty"`
	TotalAppointments     int           `json:"total_appointments"`
	ConfirmationRate      float64       `json:"confirmation_rate"`
	AtRiskCount           int           `json:"at_risk_count"`
	AttentionCount        int           `json:"attention_count"`
	NoShowRiskPercent     int           `json:"no_show_risk_percent"`
	IntakeCompletionRate  int           `json:"intake_completion_rate"`
	CancelledAppointments int           `json:"cancelled_appointments"`
	VoiceActivity         VoiceActivity `json:"voice_activity"`
	APIRequests           int64         `json:"api_requests"`
}

// DashboardHandler serves the dashboard JSON.
type DashboardHandler struct {
	store    appointments.Store
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(store appointments.Store, gatherer prometheus.Gatherer, logger *logging.Logger) *DashboardHandler {
	if logger == nil {
		logger = logging.Default()
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return &DashboardHandler{store: store, gatherer: gatherer, logger: logger}
}

// GetDashboard returns aggregate numbers over the active snapshot.
// GET /dashboard
// Query params:
//   - date: restrict the snapshot to one calendar day (optional)
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	active, err := h.store.ListActive(r.Context())
	if err != nil {
		h.logger.Error("failed to list active appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	cancelled, err := h.store.ListCancelled(r.Context())
	if err != nil {
		h.logger.Error("failed to list cancelled appointments", "error", err)
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date != "" {
		filtered := active[:0:0]
		for _, a := range active {
			if a.Date == date {
				filtered = append(filtered, a)
			}
		}
		active = filtered
	}

	resp := Dashboard{
		Date:                  date,
		TotalAppointments:     len(active),
		ConfirmationRate:      ConfirmationRate(active),
		AtRiskCount:           AtRiskCount(active),
		AttentionCount:        AttentionCount(active),
		NoShowRiskPercent:     NoShowRiskPercent(active),
		IntakeCompletionRate:  IntakeCompletionRate(active),
		CancelledAppointments: len(cancelled),
		VoiceActivity:         VoiceActivityRollup(active),
		APIRequests:           snapshotRequestTotal(h.gatherer),
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// snapshotRequestTotal sums the API request counter across routes from
// the gathered metric families.
func snapshotRequestTotal(gatherer prometheus.Gatherer) int64 {
	mfs, err := gatherer.Gather()
	if err != nil {
		return 0
	}
	var family *dto.MetricFamily
	for _, mf := range mfs {
		if mf != nil && mf.GetName() == "clinicflow_api_requests_total" {
			family = mf
			break
		}
	}
	if family == nil {
		return 0
	}
	var total float64
	for _, metric := range family.Metric {
		if metric == nil || metric.GetCounter() == nil {
			continue
		}
		total += metric.GetCounter().GetValue()
	}
	return int64(total)
}
