package handler

import (
	"encoding/json"
	"net/http"

	"adgate-server/internal/domain"
	"adgate-server/internal/service"
	"adgate-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type TokenHandler struct {
	service  *service.TokenService
	validate *validator.Validate
}

func NewTokenHandler(service *service.TokenService) *TokenHandler {
	return &TokenHandler{
		service:  service,
		validate: validator.New(),
	}
}

// Request issues a verification token for a device. The token is the proof
// the client hands back after completing the external action.
func (h *TokenHandler) Request(w http.ResponseWriter, r *http.Request) {
	var req domain.RequestTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "Device ID is required.")
		return
	}

	token, err := h.service.Issue(req.DeviceID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, domain.TokenResponse{Token: token})
}
