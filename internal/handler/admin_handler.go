package handler

import (
	"net/http"
	"time"

	"adgate-server/internal/domain"
	"adgate-server/internal/service"
	"adgate-server/pkg/response"
)

// AdminHandler serves the internal endpoints: the cleanup trigger and the
// daily link refresh. Both sit behind the admin key middleware.
type AdminHandler struct {
	cleanup *service.CleanupService
	links   *service.LinkService
}

func NewAdminHandler(cleanup *service.CleanupService, links *service.LinkService) *AdminHandler {
	return &AdminHandler{
		cleanup: cleanup,
		links:   links,
	}
}

func (h *AdminHandler) RunCleanup(w http.ResponseWriter, r *http.Request) {
	count, err := h.cleanup.Run(r.Context(), time.Now().UnixMilli())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	message := "No expired devices found."
	if count > 0 {
		message = "Expired devices deleted."
	}

	response.Success(w, domain.CleanupResponse{
		DeletedCount: count,
		Message:      message,
	})
}

func (h *AdminHandler) UpdateDailyLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.links.UpdateDailyLink()
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, domain.DailyLinkResponse{
		Link:      link.CurrentLink,
		UpdatedAt: link.UpdatedAt,
	})
}
