package handler

import (
	"net/http"

	"adgate-server/internal/service"
	"adgate-server/pkg/response"
)

type RedirectHandler struct {
	service *service.LinkService
}

func NewRedirectHandler(service *service.LinkService) *RedirectHandler {
	return &RedirectHandler{
		service: service,
	}
}

// Redirect forwards a daily-link visitor to the verification page, carrying
// the token through as a query parameter.
func (h *RedirectHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	target, err := h.service.RedirectTarget(r.URL.Query().Get("token"))
	if err != nil {
		response.BadRequest(w, "Verification token is missing.")
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}
