package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/PaingThuTa/booking-system-intern/internal/dashboard/service"
	httputil "github.com/PaingThuTa/booking-system-intern/pkg/http"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
)

type DashboardHandler struct {
	service service.DashboardService
	log     *logger.Logger
}

func NewDashboardHandler(service service.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		log:     log,
	}
}

func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	viewer, err := httputil.RequireAdmin(r)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stats", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	stats, err := h.service.Stats(r.Context(), viewer)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Stats", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "operation", "WriteSuccess", "error", err)
	}
}

func (h *DashboardHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/admin/stats", h.Stats)
}
