package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/store"
	"github.com/previdas/kommo-bridge/internal/usecase"
)

type fixedRegistry struct{}

func (fixedRegistry) Resolve(ctx context.Context, name string) *entity.SalespersonEntry {
	return &entity.SalespersonEntry{Name: name, DisplayName: "Ana", OutboundChannelID: "chan_ana"}
}

func (fixedRegistry) AddManual(entry entity.SalespersonEntry) {}

func (fixedRegistry) Count() int { return 1 }

func newConversationHandler(crm *mockCRM) *ConversationHandler {
	start := usecase.NewStartConversationUseCase(
		store.NewMemoryConversationStore(),
		store.NewMemoryBotStatusStore(),
		fixedRegistry{},
		crm,
	)
	return NewConversationHandler(start)
}

func TestStartConversation_Responde201(t *testing.T) {
	crm := new(mockCRM)
	crm.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	h := newConversationHandler(crm)

	body := `{"contact_id":100,"salesperson":"ana","practice_area":"previdenciário","trigger":"form_submitted","lead_id":9}`
	req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleStart(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, "started", resp["status"])
	assert.Equal(t, "conv_100_9", resp["conversation_id"])
}

func TestStartConversation_SemContactIDResponde400(t *testing.T) {
	h := newConversationHandler(new(mockCRM))

	body := `{"salesperson":"ana","practice_area":"outros"}`
	req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleStart(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStartConversation_AreaNaoElegivelResponde200(t *testing.T) {
	h := newConversationHandler(new(mockCRM))

	body := `{"contact_id":200,"salesperson":"ana","practice_area":"trabalhista"}`
	req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleStart(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	json.Unmarshal(rec.Body.Bytes(), &resp)
	assert.Equal(t, "skipped", resp["status"])
	assert.Equal(t, "area_not_eligible", resp["reason"])
}

func TestStartConversation_FalhaNoEnvioResponde500(t *testing.T) {
	crm := new(mockCRM)
	crm.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)
	h := newConversationHandler(crm)

	body := `{"contact_id":300,"salesperson":"ana","practice_area":"outros"}`
	req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.HandleStart(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStartConversation_JSONInvalidoResponde400(t *testing.T) {
	h := newConversationHandler(new(mockCRM))

	req := httptest.NewRequest(http.MethodPost, "/conversations/start", strings.NewReader("{{"))
	rec := httptest.NewRecorder()

	h.HandleStart(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
