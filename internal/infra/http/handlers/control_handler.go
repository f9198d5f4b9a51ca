package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/previdas/kommo-bridge/internal/usecase"
)

// BotControlHandler expõe o controle operacional de pausa/reativação por
// contato: um endpoint genérico de comando e atalhos por contact_id.
type BotControlHandler struct {
	Control *usecase.ControlBotUseCase
}

func NewBotControlHandler(control *usecase.ControlBotUseCase) *BotControlHandler {
	return &BotControlHandler{Control: control}
}

func (h *BotControlHandler) contactID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "contactID"))
	if err != nil || id == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "contactID inválido",
		})
		return 0, false
	}
	return id, true
}

func (h *BotControlHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contactID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.Control.Pause(r.Context(), id))
}

func (h *BotControlHandler) HandleResume(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contactID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.Control.Resume(r.Context(), id))
}

func (h *BotControlHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.contactID(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, h.Control.Status(r.Context(), id))
}

type commandBody struct {
	ContactID int    `json:"contact_id"`
	Command   string `json:"command"`
}

// HandleCommand aceita tanto os nomes dos comandos (pause, resume, status,
// help) quanto o vocabulário de hashtag dos vendedores (#pausar, #voltar...).
func (h *BotControlHandler) HandleCommand(w http.ResponseWriter, r *http.Request) {
	var body commandBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "corpo JSON inválido",
		})
		return
	}
	if body.ContactID == 0 {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "contact_id é obrigatório",
		})
		return
	}

	command := body.Command
	if matched, ok := usecase.MatchCommand(command); ok {
		command = matched
	}

	switch command {
	case usecase.CommandPause:
		respondJSON(w, http.StatusOK, h.Control.Pause(r.Context(), body.ContactID))
	case usecase.CommandResume:
		respondJSON(w, http.StatusOK, h.Control.Resume(r.Context(), body.ContactID))
	case usecase.CommandStatus:
		respondJSON(w, http.StatusOK, h.Control.Status(r.Context(), body.ContactID))
	case usecase.CommandHelp:
		respondJSON(w, http.StatusOK, map[string]any{
			"status":     "command",
			"command":    usecase.CommandHelp,
			"contact_id": body.ContactID,
			"message":    usecase.HelpMessage,
		})
	default:
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "comando desconhecido: " + body.Command,
		})
	}
}
