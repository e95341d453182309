package handler

import (
	"net/http"

	"github.com/mcoot/territorybattle/internal/api/apierr"
	"github.com/mcoot/territorybattle/internal/api/response"
	"github.com/mcoot/territorybattle/internal/services/stats"
)

// ServiceName is reported by the health check
const ServiceName = "Territory Battle API"

// SystemHandler serves health and schema setup
type SystemHandler struct {
	stats   *stats.Service
	version string
}

// NewSystemHandler creates a new system handler
func NewSystemHandler(stats *stats.Service, version string) *SystemHandler {
	return &SystemHandler{stats: stats, version: version}
}

// Health handles GET /api/health
func (h *SystemHandler) Health(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, response.HealthResponse{
		Status:  "ok",
		Service: ServiceName,
		Version: h.version,
	})
}

// Init handles POST /api/init
func (h *SystemHandler) Init(w http.ResponseWriter, r *http.Request) {
	if err := h.stats.InitSchema(r.Context()); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.OK(w, response.MessageResponse{Success: true, Message: "Database initialized"})
}
