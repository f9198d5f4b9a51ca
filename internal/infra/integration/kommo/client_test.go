package kommo

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	t.Setenv("KOMMO_API_URL", server.URL)
	t.Setenv("KOMMO_ACCESS_TOKEN", "token-teste")
	return NewClient()
}

func TestClient_NaoConfigurado(t *testing.T) {
	t.Setenv("KOMMO_API_URL", "")
	t.Setenv("KOMMO_ACCESS_TOKEN", "")
	c := NewClient()

	assert.False(t, c.Configured())
	assert.Error(t, c.SendMessage(context.Background(), "conv-1", "oi"))
}

func TestSendMessage_EnviaComAutenticacao(t *testing.T) {
	var gotAuth string
	var gotPayload map[string]any

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chats/messages", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.SendMessage(context.Background(), "conv-1", "olá!")

	assert.NoError(t, err)
	assert.Equal(t, "Bearer token-teste", gotAuth)
	assert.Equal(t, "conv-1", gotPayload["conversation_id"])
	assert.Equal(t, "olá!", gotPayload["message"])
	assert.Equal(t, "text", gotPayload["type"])
}

func TestSendMessage_FallbackParaMessages(t *testing.T) {
	var paths []string

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/chats/messages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := c.SendMessage(context.Background(), "conv-2", "texto")

	assert.NoError(t, err)
	assert.Equal(t, []string{"/chats/messages", "/messages"}, paths)
}

func TestSendMessage_ErroNosDoisEndpoints(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	err := c.SendMessage(context.Background(), "conv-3", "texto")

	assert.Error(t, err)
}

func TestGetContact_NaoEncontradoRetornaNil(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	contact, err := c.GetContact(context.Background(), 999)

	assert.NoError(t, err)
	assert.Nil(t, contact)
}

func TestGetContact_Encontrado(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contacts/123", r.URL.Path)
		json.NewEncoder(w).Encode(Contact{ID: 123, Name: "Maria Silva"})
	}))

	contact, err := c.GetContact(context.Background(), 123)

	assert.NoError(t, err)
	assert.Equal(t, "Maria Silva", contact.Name)
}

func TestGetLeadByContact_PrimeiroLeadDaLista(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "123", r.URL.Query().Get("contact_id"))
		json.NewEncoder(w).Encode(map[string]any{
			"_embedded": map[string]any{
				"leads": []map[string]any{
					{"id": 11, "name": "Lead A"},
					{"id": 22, "name": "Lead B"},
				},
			},
		})
	}))

	lead, err := c.GetLeadByContact(context.Background(), 123)

	assert.NoError(t, err)
	assert.Equal(t, 11, lead.ID)
}

func TestGetLeadByContact_SemLeadRetornaNil(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	lead, err := c.GetLeadByContact(context.Background(), 123)

	assert.NoError(t, err)
	assert.Nil(t, lead)
}

func TestUpdateLeadField_BotAtivoUsaFieldID(t *testing.T) {
	var payload map[string]any

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/leads/55", r.URL.Path)
		json.NewDecoder(r.Body).Decode(&payload)
		w.WriteHeader(http.StatusOK)
	}))

	err := c.UpdateLeadField(context.Background(), 55, "bot_ativo", "false")

	assert.NoError(t, err)
	fields := payload["custom_fields_values"].([]any)
	field := fields[0].(map[string]any)
	assert.Equal(t, float64(1137760), field["field_id"])
}

func TestUpdateLeadField_400TentaPorNome(t *testing.T) {
	var payloads []map[string]any

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p map[string]any
		json.NewDecoder(r.Body).Decode(&p)
		payloads = append(payloads, p)
		if len(payloads) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	err := c.UpdateLeadField(context.Background(), 55, "bot_ativo", "true")

	assert.NoError(t, err)
	assert.Len(t, payloads, 2)

	second := payloads[1]["custom_fields_values"].([]any)[0].(map[string]any)
	assert.Equal(t, "bot_ativo", second["field_name"])
}

func TestListUsers_FiltraInativos(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"_embedded": map[string]any{
				"users": []map[string]any{
					{"id": 1, "name": "Ana", "is_active": true},
					{"id": 2, "name": "Desligado", "is_active": false},
				},
			},
		})
	}))

	users, err := c.ListUsers(context.Background())

	assert.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func TestCustomFieldString(t *testing.T) {
	fields := []CustomField{
		{FieldCode: "area_atuacao", Values: []CustomFieldValue{{Value: "previdenciário"}}},
		{FieldName: "origem", Values: []CustomFieldValue{{Value: "site"}}},
	}

	assert.Equal(t, "previdenciário", CustomFieldString(fields, "area_atuacao"))
	assert.Equal(t, "site", CustomFieldString(fields, "origem"))
	assert.Equal(t, "", CustomFieldString(fields, "inexistente"))
}

func TestNewClient_DerivaURLDoAccountID(t *testing.T) {
	t.Setenv("KOMMO_API_URL", "")
	t.Setenv("KOMMO_ACCESS_TOKEN", "token-teste")
	t.Setenv("KOMMO_ACCOUNT_ID", "previdas")

	c := NewClient()

	assert.True(t, c.Configured())
	assert.Equal(t, "https://previdas.kommo.com/api/v4", c.apiURL)
}

func TestNewClient_URLExplicitaTemPrecedencia(t *testing.T) {
	t.Setenv("KOMMO_API_URL", "https://api.exemplo.com/v4")
	t.Setenv("KOMMO_ACCESS_TOKEN", "token-teste")
	t.Setenv("KOMMO_ACCOUNT_ID", "previdas")

	c := NewClient()

	assert.Equal(t, "https://api.exemplo.com/v4", c.apiURL)
}
