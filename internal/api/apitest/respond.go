package apitest

import (
	"encoding/json"
	"net/http"

	"github.com/dvloznov/ledgerdesk/internal/api"
)

// writeJSON writes an envelope response.
func writeJSON(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(env)
}

// writeData writes a success envelope carrying data.
func writeData(w http.ResponseWriter, status int, data any, pag *api.Pagination) {
	env := api.Envelope{Success: true, Pagination: pag}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		env.Data = raw
	}
	writeJSON(w, status, env)
}

// writeError writes a failure envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, api.Envelope{Success: false, Message: message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
