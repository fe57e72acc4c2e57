package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/models"
	"github.com/dzeya/mensor-construction-4/internal/services"
)

// Shared helpers

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(message string) models.ErrorResponse {
	return models.ErrorResponse{Error: message}
}

func errorRespWithFields(message string, fields map[string]string) models.ErrorResponse {
	return models.ErrorResponse{Error: message, Fields: fields}
}

func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation    *services.ValidationError
		notConfigured *services.NotConfiguredError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("Validation failed", validation.Fields))
	case errors.As(err, &notConfigured):
		writeJSON(w, http.StatusServiceUnavailable, errorResp(notConfigured.Error()))
	default:
		log.Error().
			Err(err).
			Str("path", r.URL.Path).
			Str("request_id", r.Header.Get("X-Request-ID")).
			Msg("request failed")
		writeJSON(w, http.StatusInternalServerError, errorResp(models.MsgInternalError))
	}
}
