package kommo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// ID do campo customizado "bot_ativo" criado na conta do Kommo.
const botActiveFieldID = 1137760

type Client struct {
	apiURL      string
	accessToken string
	accountID   string
	httpClient  *http.Client
}

func NewClient() *Client {
	apiURL := os.Getenv("KOMMO_API_URL")
	accountID := os.Getenv("KOMMO_ACCOUNT_ID")

	// Cada conta Kommo vive em subdomínio próprio; sem URL explícita a API
	// é derivada do account id.
	if apiURL == "" && accountID != "" {
		apiURL = fmt.Sprintf("https://%s.kommo.com/api/v4", accountID)
	}

	return &Client{
		apiURL:      apiURL,
		accessToken: os.Getenv("KOMMO_ACCESS_TOKEN"),
		accountID:   accountID,
		httpClient:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Configured diz se as variáveis mínimas de conexão estão presentes.
// Checado na hora da chamada, nunca no boot (erro de config não derruba o processo).
func (c *Client) Configured() bool {
	return c.apiURL != "" && c.accessToken != ""
}

func (c *Client) addAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.accessToken))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
}

// GetContact busca um contato. Retorna (nil, nil) quando não existe.
func (c *Client) GetContact(ctx context.Context, contactID int) (*Contact, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("kommo não configurado")
	}

	reqURL := fmt.Sprintf("%s/contacts/%d", c.apiURL, contactID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar contato %d: %w", contactID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		log.Warn().Int("contact_id", contactID).Msg("⚠️ Kommo: contato não encontrado")
		return nil, nil
	default:
		return nil, fmt.Errorf("erro ao buscar contato %d: status %d", contactID, resp.StatusCode)
	}

	var contact Contact
	if err := json.NewDecoder(resp.Body).Decode(&contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// GetLeadByContact busca o primeiro lead associado a um contato.
// Retorna (nil, nil) quando o contato não tem lead.
func (c *Client) GetLeadByContact(ctx context.Context, contactID int) (*Lead, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("kommo não configurado")
	}

	reqURL := fmt.Sprintf("%s/leads?%s", c.apiURL, url.Values{
		"contact_id": {strconv.Itoa(contactID)},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar lead do contato %d: %w", contactID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erro ao buscar lead do contato %d: status %d", contactID, resp.StatusCode)
	}

	var result struct {
		Embedded struct {
			Leads []Lead `json:"leads"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if len(result.Embedded.Leads) == 0 {
		return nil, nil
	}
	return &result.Embedded.Leads[0], nil
}

// SendMessage envia texto para uma conversa via API de chats. Se o endpoint
// /chats/messages não existir na conta (404), tenta o alternativo /messages.
func (c *Client) SendMessage(ctx context.Context, conversationID, text string) error {
	if !c.Configured() {
		log.Error().Msg("❌ Kommo: KOMMO_API_URL ou KOMMO_ACCESS_TOKEN não configurados")
		return fmt.Errorf("kommo não configurado")
	}

	payload := map[string]any{
		"conversation_id": conversationID,
		"message":         text,
		"type":            "text",
	}

	status, err := c.postMessage(ctx, c.apiURL+"/chats/messages", payload)
	if err != nil {
		return err
	}
	if status == http.StatusNotFound {
		log.Warn().Msg("⚠️ Kommo: /chats/messages não encontrado, tentando /messages")
		status, err = c.postMessage(ctx, c.apiURL+"/messages", payload)
		if err != nil {
			return err
		}
	}

	if status != http.StatusOK && status != http.StatusCreated {
		return fmt.Errorf("erro ao enviar mensagem: status %d", status)
	}

	log.Info().Str("conversation_id", conversationID).Msg("✅ Kommo: mensagem enviada")
	return nil
}

func (c *Client) postMessage(ctx context.Context, reqURL string, payload map[string]any) (int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("erro de conexão com o Kommo: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// SendMessageToContact localiza a primeira conversa ativa do contato e envia.
func (c *Client) SendMessageToContact(ctx context.Context, contactID int, text string) error {
	chats, err := c.getContactChats(ctx, contactID)
	if err != nil {
		return err
	}
	if len(chats) == 0 {
		log.Warn().Int("contact_id", contactID).Msg("⚠️ Kommo: nenhuma conversa ativa para o contato")
		return fmt.Errorf("nenhuma conversa ativa para o contato %d", contactID)
	}

	return c.SendMessage(ctx, chats[0].ID, text)
}

func (c *Client) getContactChats(ctx context.Context, contactID int) ([]Chat, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("kommo não configurado")
	}

	reqURL := fmt.Sprintf("%s/chats?%s", c.apiURL, url.Values{
		"contact_id": {strconv.Itoa(contactID)},
	}.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao buscar conversas do contato %d: %w", contactID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erro ao buscar conversas do contato %d: status %d", contactID, resp.StatusCode)
	}

	var result struct {
		Embedded struct {
			Chats []Chat `json:"chats"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	return result.Embedded.Chats, nil
}

// UpdateLeadField atualiza um campo customizado do lead. Para "bot_ativo"
// usa o field_id conhecido; num 400 tenta o formato por field_name.
func (c *Client) UpdateLeadField(ctx context.Context, leadID int, fieldName, value string) error {
	if !c.Configured() {
		return fmt.Errorf("kommo não configurado")
	}

	field := CustomField{FieldName: fieldName, Values: []CustomFieldValue{{Value: value}}}
	if fieldName == "bot_ativo" {
		field = CustomField{FieldID: botActiveFieldID, Values: []CustomFieldValue{{Value: value}}}
	}

	status, err := c.patchLead(ctx, leadID, field)
	if err != nil {
		return err
	}
	if status == http.StatusBadRequest {
		log.Warn().Int("lead_id", leadID).Msg("⚠️ Kommo: 400 ao atualizar lead, tentando formato por field_name")
		status, err = c.patchLead(ctx, leadID, CustomField{
			FieldName: fieldName,
			Values:    []CustomFieldValue{{Value: value}},
		})
		if err != nil {
			return err
		}
	}

	if status != http.StatusOK {
		return fmt.Errorf("erro ao atualizar lead %d: status %d", leadID, status)
	}

	log.Info().Int("lead_id", leadID).Str("campo", fieldName).Str("valor", value).Msg("✅ Kommo: lead atualizado")
	return nil
}

func (c *Client) patchLead(ctx context.Context, leadID int, field CustomField) (int, error) {
	payload := map[string]any{
		"custom_fields_values": []CustomField{field},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, err
	}

	reqURL := fmt.Sprintf("%s/leads/%d", c.apiURL, leadID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, reqURL, bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("erro ao atualizar lead %d: %w", leadID, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// ListUsers retorna os usuários ativos da conta (base do registro de vendedores).
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	if !c.Configured() {
		return nil, fmt.Errorf("kommo não configurado")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/users", nil)
	if err != nil {
		return nil, err
	}
	c.addAuthHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("erro ao listar usuários: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erro ao listar usuários: status %d", resp.StatusCode)
	}

	var result struct {
		Embedded struct {
			Users []User `json:"users"`
		} `json:"_embedded"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	active := make([]User, 0, len(result.Embedded.Users))
	for _, u := range result.Embedded.Users {
		if u.IsActive {
			active = append(active, u)
		}
	}
	return active, nil
}
