package models

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
)

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

// Problem is an RFC 7807 error body; only non-page failures use it.
type Problem struct {
	Title     string `json:"title"`
	Status    int    `json:"status"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"requestId,omitempty"`
}

func WriteProblem(w http.ResponseWriter, status int, title, detail, requestID string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = wire.NewEncoder(w).Encode(Problem{Title: title, Status: status, Detail: detail, RequestID: requestID})
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = wire.NewEncoder(w).Encode(v)
}

// WriteMessage answers with the {message} body the backend uses for failures.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]string{"message": msg})
}
