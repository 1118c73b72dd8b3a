package handler

import (
	"encoding/json"
	"net/http"

	"adgate-server/internal/domain"
	"adgate-server/internal/service"
	"adgate-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type StatusHandler struct {
	service  *service.StatusService
	validate *validator.Validate
}

func NewStatusHandler(service *service.StatusService) *StatusHandler {
	return &StatusHandler{
		service:  service,
		validate: validator.New(),
	}
}

// Check returns the device's current action. Always 200 unless the input is
// malformed; internal failures come back as SHOW_DIALOG (fail open).
func (h *StatusHandler) Check(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "Device ID is required.")
		return
	}

	resp, err := h.service.CheckStatus(r.Context(), req.DeviceID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, resp)
}
