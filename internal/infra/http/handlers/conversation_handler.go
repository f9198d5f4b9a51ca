package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/previdas/kommo-bridge/internal/usecase"
)

// ConversationHandler expõe a iniciação proativa de conversas.
type ConversationHandler struct {
	Start *usecase.StartConversationUseCase
}

func NewConversationHandler(start *usecase.StartConversationUseCase) *ConversationHandler {
	return &ConversationHandler{Start: start}
}

func (h *ConversationHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var input usecase.StartConversationInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "corpo JSON inválido",
		})
		return
	}

	out := h.Start.Execute(r.Context(), input)

	switch {
	case out.Status == usecase.StatusStarted:
		respondJSON(w, http.StatusCreated, out)
	case out.Status == usecase.StatusError && out.Reason == usecase.ReasonInvalidData:
		respondJSON(w, http.StatusBadRequest, out)
	case out.Status == usecase.StatusError:
		respondJSON(w, http.StatusInternalServerError, out)
	default:
		respondJSON(w, http.StatusOK, out)
	}
}
