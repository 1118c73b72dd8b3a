package response

import (
	"encoding/json"
	"net/http"
)

// JSON writes the payload as-is. Handlers return flat bodies like {"token": ...}
// or {"action": ...} so polling clients can decode them without an envelope.
func JSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, payload interface{}) {
	JSON(w, http.StatusOK, payload)
}

// Error writes {"error": msg}. Messages are generic; internal detail stays in logs.
func Error(w http.ResponseWriter, statusCode int, msg string) {
	JSON(w, statusCode, map[string]string{"error": msg})
}

func BadRequest(w http.ResponseWriter, msg string) {
	Error(w, http.StatusBadRequest, msg)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	Error(w, http.StatusUnauthorized, msg)
}

func Forbidden(w http.ResponseWriter, msg string) {
	Error(w, http.StatusForbidden, msg)
}

func InternalError(w http.ResponseWriter, msg string) {
	Error(w, http.StatusInternalServerError, msg)
}
