package handlers

import (
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

// OAuthHandler recebe o callback do fluxo de autorização do Kommo e expõe a
// situação da configuração OAuth. A troca do code por token é feita fora do
// serviço, aqui só registramos o recebimento.
type OAuthHandler struct{}

func NewOAuthHandler() *OAuthHandler {
	return &OAuthHandler{}
}

func (h *OAuthHandler) HandleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"status":  "error",
			"message": "Parâmetro code ausente no callback",
		})
		return
	}

	preview := code
	if len(preview) > 20 {
		preview = preview[:20]
	}
	log.Info().Str("code_preview", preview).Msg("🔑 Callback OAuth recebido do Kommo")

	respondJSON(w, http.StatusOK, map[string]any{
		"status":    "success",
		"message":   "Código de autorização recebido",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func (h *OAuthHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	clientID := os.Getenv("KOMMO_CLIENT_ID")
	preview := ""
	if len(clientID) > 8 {
		preview = clientID[:8] + "..."
	} else if clientID != "" {
		preview = clientID
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"oauth_configured": clientID != "" && os.Getenv("KOMMO_CLIENT_SECRET") != "",
		"client_id":        preview,
		"account_id":       os.Getenv("KOMMO_ACCOUNT_ID"),
		"api_url":          os.Getenv("KOMMO_API_URL"),
	})
}
