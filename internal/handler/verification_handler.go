package handler

import (
	"encoding/json"
	"net/http"

	"adgate-server/internal/domain"
	"adgate-server/internal/service"
	"adgate-server/pkg/response"

	"github.com/go-playground/validator/v10"
)

type VerificationHandler struct {
	service  *service.VerificationService
	validate *validator.Validate
}

func NewVerificationHandler(service *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{
		service:  service,
		validate: validator.New(),
	}
}

// Confirm exchanges a valid token for a verification record. Served on both
// /confirm-verification and its legacy alias /verify-pin.
func (h *VerificationHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var req domain.ConfirmVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.BadRequest(w, "Token is required.")
		return
	}

	message, err := h.service.Confirm(r.Context(), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.Success(w, domain.ConfirmVerificationResponse{Message: message})
}
