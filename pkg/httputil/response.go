// Package httputil provides shared HTTP utilities for consistent response handling.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Generic messages of the error responses.
const (
	MessageNotFound = "Not found"
	MessageInternal = "Something broke!"
)

// WriteJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteMessage writes the error shape {"message": message}.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"message": message})
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter) {
	WriteMessage(w, http.StatusNotFound, MessageNotFound)
}

// WriteInternalError writes a 500 response. Details are never exposed.
func WriteInternalError(w http.ResponseWriter) {
	WriteMessage(w, http.StatusInternalServerError, MessageInternal)
}

// WriteBody writes a pre-rendered body. An empty contentType leaves the
// header unset.
func WriteBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	if contentType != "" && len(body) > 0 {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	if len(body) > 0 {
		_, _ = w.Write(body)
	}
}
