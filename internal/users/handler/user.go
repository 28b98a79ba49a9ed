package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/PaingThuTa/booking-system-intern/internal/users/service"
	httputil "github.com/PaingThuTa/booking-system-intern/pkg/http"
	"github.com/PaingThuTa/booking-system-intern/pkg/logger"
	"github.com/PaingThuTa/booking-system-intern/pkg/model"
)

// SignInPath is public; the authentication middleware lets it through.
const SignInPath = "/api/v1/auth/sign-in"

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.SignInRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		h.writeError(w, "SignIn", err)
		return
	}

	result, err := h.service.SignIn(r.Context(), &req)
	if err != nil {
		h.writeError(w, "SignIn", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "SignIn", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	viewer, err := httputil.Principal(r)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	user, err := h.service.Me(r.Context(), viewer)
	if err != nil {
		h.writeError(w, "Me", err)
		return
	}

	if err := httputil.WriteSuccess(w, user); err != nil {
		h.log.Error("failed to write success response", "handler", "Me", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST(SignInPath, h.SignIn)
	router.GET("/api/v1/me", h.Me)
}
