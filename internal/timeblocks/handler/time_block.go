package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/PaingThuTa/booking-system-intern/internal/timeblocks/service"
	httputil "github.com/PaingThuTa/booking-system-intern/pkg/http"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

type TimeBlockHandler struct {
	service service.TimeBlockService
	log     *logger.Logger
}

func NewTimeBlockHandler(service service.TimeBlockService, log *logger.Logger) *TimeBlockHandler {
	return &TimeBlockHandler{
		service: service,
		log:     log,
	}
}

func (h *TimeBlockHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	viewer, err := httputil.Principal(r)
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	includeInactive, err := httputil.QueryBool(r, "includeInactive")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}
	upcoming, err := httputil.QueryBool(r, "upcoming")
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	blocks, err := h.service.ListBlocks(r.Context(), viewer, model.TimeBlockQuery{
		IncludeInactive: includeInactive,
		Upcoming:        upcoming,
	})
	if err != nil {
		h.writeError(w, "List", err)
		return
	}

	if err := httputil.WriteSuccess(w, blocks); err != nil {
		h.log.Error("failed to write success response", "handler", "List", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TimeBlockHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := httputil.Principal(r); err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	block, err := h.service.GetBlock(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, block); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TimeBlockHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if _, err := httputil.RequireAdmin(r); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	var tmpl model.TimeBlockTemplate
	if err := httputil.DecodeJSON(r, &tmpl); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	blocks, err := h.service.CreateBlocks(r.Context(), &tmpl)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, blocks); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *TimeBlockHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := httputil.RequireAdmin(r); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	var update model.TimeBlockUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	block, err := h.service.UpdateBlock(r.Context(), ps.ByName("id"), &update)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, block); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "operation", "WriteSuccess", "error", err)
	}
}

func (h *TimeBlockHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if _, err := httputil.RequireAdmin(r); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := h.service.DeleteBlock(r.Context(), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteNoContent(w); err != nil {
		h.log.Error("failed to write no content response", "handler", "Delete", "operation", "WriteNoContent", "error", err)
	}
}

func (h *TimeBlockHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *TimeBlockHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/blocks", h.List)
	router.POST("/api/v1/blocks", h.Create)
	router.GET("/api/v1/blocks/id/:id", h.GetByID)
	router.PATCH("/api/v1/blocks/id/:id", h.Update)
	router.DELETE("/api/v1/blocks/id/:id", h.Delete)
}
