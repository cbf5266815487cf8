package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"hubgate/internal/pdu"
	"hubgate/internal/projector"
)

// JSONResponse sends a JSON response
func JSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("⚠️  Failed to encode JSON response: %v", err)
	}
}

// JSONError sends a JSON error response
func JSONError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// deviceErrorStatus maps device-layer errors onto HTTP status codes so
// callers can tell a bad request from an unreachable or misbehaving
// device.
func deviceErrorStatus(err error) int {
	var (
		notFound   *pdu.NotFoundError
		validation *pdu.ValidationError
		connErr    *pdu.ConnectionError
		protoErr   *pdu.ProtocolError
		timeout    *pdu.TimeoutError
	)

	switch {
	case errors.As(err, &notFound), errors.Is(err, sql.ErrNoRows):
		return http.StatusNotFound
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &connErr):
		return http.StatusBadGateway
	case errors.As(err, &protoErr):
		return http.StatusBadGateway
	case errors.As(err, &timeout),
		errors.Is(err, projector.ErrPowerActionTimeout),
		errors.Is(err, projector.ErrInitializationFailed):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// DeviceError writes an error with its mapped status code.
func DeviceError(w http.ResponseWriter, err error) {
	JSONError(w, err.Error(), deviceErrorStatus(err))
}
