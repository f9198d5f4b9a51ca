package n8n

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"
)

type Client struct {
	webhookURL string
	apiKey     string
	httpClient *http.Client
}

func NewClient() *Client {
	c := &Client{
		webhookURL: os.Getenv("N8N_WEBHOOK_URL"),
		apiKey:     os.Getenv("N8N_API_KEY"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{Timeout: 10 * time.Second}).DialContext,
			},
		},
	}
	if c.webhookURL == "" {
		log.Warn().Msg("⚠️ N8N_WEBHOOK_URL não configurada!")
	}
	return c
}

func (c *Client) Configured() bool {
	return c.webhookURL != ""
}

// Forward envia o payload normalizado ao n8n. Uma chamada só, sem retry:
// qualquer falha vira erro marcado e a mensagem é descartada pelo chamador.
func (c *Client) Forward(ctx context.Context, payload EnginePayload) (map[string]any, error) {
	if !c.Configured() {
		log.Error().Msg("❌ N8N_WEBHOOK_URL não configurada")
		return nil, fmt.Errorf("N8N_WEBHOOK_URL não configurada")
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}

	log.Info().
		Str("conversation_id", payload.ConversationID).
		Int("contact_id", payload.ContactID).
		Msg("📤 Enviando payload para n8n")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			log.Error().Str("url", c.webhookURL).Msg("⏰ Timeout ao conectar com n8n")
			return nil, fmt.Errorf("timeout ao conectar com n8n")
		}
		log.Error().Err(err).Msg("🔌 Erro de conectividade com n8n")
		return nil, fmt.Errorf("erro de conectividade com n8n: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		log.Error().Str("url", c.webhookURL).Msg("❌ n8n não encontrado (404) - verificar URL")
		return nil, fmt.Errorf("n8n não encontrado - verificar URL")
	case http.StatusUnauthorized:
		log.Error().Msg("❌ Erro de autenticação no n8n (401) - verificar API key")
		return nil, fmt.Errorf("erro de autenticação no n8n - verificar API key")
	default:
		log.Error().Int("status", resp.StatusCode).Msg("❌ Erro ao enviar para n8n")
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(raw))
	}

	// n8n pode responder qualquer coisa (ou nada); corpo não-JSON não é erro.
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		log.Warn().Msg("⚠️ Resposta do n8n não é JSON, tratando como texto")
		return map[string]any{"status": "success", "response_text": string(raw)}, nil
	}

	log.Info().Str("conversation_id", payload.ConversationID).Msg("✅ Payload enviado para n8n")
	return result, nil
}
