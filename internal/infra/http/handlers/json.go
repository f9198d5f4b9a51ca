package handlers

import (
	"encoding/json"
	"net/http"
)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// Configurable é o que os handlers de introspecção precisam saber dos
// clientes externos.
type Configurable interface {
	Configured() bool
}
