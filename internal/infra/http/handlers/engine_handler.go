package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/usecase"
)

// EngineResponseHandler recebe as respostas geradas pelo n8n e as repassa
// para o canal de mensagens.
type EngineResponseHandler struct {
	Deliver *usecase.DeliverReplyUseCase
	CRM     usecase.CRMClient
}

func NewEngineResponseHandler(deliver *usecase.DeliverReplyUseCase, crm usecase.CRMClient) *EngineResponseHandler {
	return &EngineResponseHandler{Deliver: deliver, CRM: crm}
}

type engineResponseBody struct {
	ConversationID string         `json:"conversation_id"`
	ResponseText   string         `json:"response_text"`
	ShouldSend     *bool          `json:"should_send"`
	ShouldHandoff  bool           `json:"should_handoff"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

func (h *EngineResponseHandler) HandleSendResponse(w http.ResponseWriter, r *http.Request) {
	var body engineResponseBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "corpo JSON inválido",
		})
		return
	}

	// should_send ausente vale true
	shouldSend := true
	if body.ShouldSend != nil {
		shouldSend = *body.ShouldSend
	}

	out := h.Deliver.Execute(r.Context(), usecase.EngineReply{
		ConversationID: body.ConversationID,
		ResponseText:   body.ResponseText,
		ShouldSend:     shouldSend,
		ShouldHandoff:  body.ShouldHandoff,
		Metadata:       body.Metadata,
	})

	// Texto vazio e should_send=false são respostas esperadas, não falha
	// HTTP; só erro de entrega real vira 500.
	status := http.StatusOK
	if out.Status == usecase.StatusError && out.Error != usecase.ReasonEmptyText {
		status = http.StatusInternalServerError
	}
	respondJSON(w, status, out)
}

type testSendBody struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
}

// HandleTestSend permite testar o envio manual de uma mensagem.
func (h *EngineResponseHandler) HandleTestSend(w http.ResponseWriter, r *http.Request) {
	var body testSendBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "corpo JSON inválido",
		})
		return
	}

	if strings.TrimSpace(body.Message) == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status": "error",
			"error":  "mensagem não pode estar vazia",
		})
		return
	}

	if err := h.CRM.SendMessage(r.Context(), body.ConversationID, body.Message); err != nil {
		log.Error().Err(err).Str("conversation_id", body.ConversationID).Msg("❌ Erro no teste de envio")
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"error":  err.Error(),
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":          "success",
		"message":         "Mensagem de teste enviada com sucesso",
		"conversation_id": body.ConversationID,
	})
}
