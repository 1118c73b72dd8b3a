package handler

import (
	"errors"
	"net/http"

	"adgate-server/internal/service"
	"adgate-server/pkg/response"

	"github.com/sirupsen/logrus"
)

// writeServiceError maps the service error taxonomy onto HTTP responses.
// Client messages stay generic; the wrapped detail goes to the log.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(w, "Invalid request.")
	case errors.Is(err, service.ErrInvalidToken):
		response.Unauthorized(w, "Invalid token.")
	case errors.Is(err, service.ErrExpiredToken):
		response.Unauthorized(w, "Token has expired.")
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(w, "This device has been blocked.")
	case errors.Is(err, service.ErrConfiguration):
		logrus.WithField("path", r.URL.Path).WithError(err).Error("Server configuration error")
		response.InternalError(w, "Server configuration error.")
	default:
		logrus.WithField("path", r.URL.Path).WithError(err).Error("Request failed")
		response.InternalError(w, "An internal server error occurred.")
	}
}
