// Package errors renders the API's error taxonomy as JSON:
//
//	401 {"error":"unauthorized"}
//	403 {"error":"forbidden"}
//	400 {"error":"...", "fields":{...}}
//	404 {"error":"not found"}
//	429 {"error":"too many requests"}
//	500 {"error":"internal server error"}
//
// Server errors never carry internal detail; ErrorLogger records it.
package errors

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/templehub/internal/app/system/inputval"
)

// Body is the JSON shape of every error response.
type Body struct {
	Error  string               `json:"error"`
	Fields inputval.FieldErrors `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Unauthorized writes 401. Malformed and expired credentials look the same.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, Body{Error: "unauthorized"})
}

// Forbidden writes 403.
func Forbidden(w http.ResponseWriter) {
	WriteJSON(w, http.StatusForbidden, Body{Error: "forbidden"})
}

// BadRequest writes 400 with a client-facing message.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, Body{Error: msg})
}

// Invalid writes 400 with per-field reasons.
func Invalid(w http.ResponseWriter, fields inputval.FieldErrors) {
	WriteJSON(w, http.StatusBadRequest, Body{Error: "validation failed", Fields: fields})
}

// NotFound writes 404.
func NotFound(w http.ResponseWriter) {
	WriteJSON(w, http.StatusNotFound, Body{Error: "not found"})
}

// TooManyRequests writes 429.
func TooManyRequests(w http.ResponseWriter) {
	WriteJSON(w, http.StatusTooManyRequests, Body{Error: "too many requests"})
}

// Internal writes 500 with no detail.
func Internal(w http.ResponseWriter) {
	WriteJSON(w, http.StatusInternalServerError, Body{Error: "internal server error"})
}

// DecodeJSON decodes the request body into v. Unknown fields are ignored.
// Bodies are capped at maxBytes.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, maxBytes int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.UseNumber()
	return dec.Decode(v)
}
