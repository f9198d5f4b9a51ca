package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/infra/queue"
)

// WebhookHandler recebe os webhooks do Kommo. A resposta volta na hora
// ("received") e o processamento segue em segundo plano via Dispatcher.
type WebhookHandler struct {
	Dispatcher queue.Dispatcher
}

func NewWebhookHandler(dispatcher queue.Dispatcher) *WebhookHandler {
	return &WebhookHandler{Dispatcher: dispatcher}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		// Corpo malformado não vira erro: responder 4xx/5xx dispararia o
		// retry de webhook do próprio Kommo.
		log.Warn().Err(err).Msg("⚠️ Webhook com corpo inválido, ignorando")
		respondJSON(w, http.StatusOK, map[string]any{
			"status": "ignored",
			"reason": "invalid_data",
		})
		return
	}

	log.Info().Msg("📬 Webhook recebido do Kommo")

	if err := h.Dispatcher.Dispatch(r.Context(), raw); err != nil {
		log.Error().Err(err).Msg("❌ Erro ao despachar webhook para processamento")
		respondJSON(w, http.StatusInternalServerError, map[string]any{
			"status": "error",
			"error":  "falha ao enfileirar webhook",
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "received",
		"message":   "Webhook recebido e sendo processado",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *WebhookHandler) HandleTest(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"message":     "Webhook endpoint está funcionando",
		"webhook_url": "/webhooks/kommo",
	})
}
