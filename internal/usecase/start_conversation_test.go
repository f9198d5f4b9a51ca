package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/store"
)

func newStartFixture() (*StartConversationUseCase, *store.MemoryConversationStore, *store.MemoryBotStatusStore, *MockCRMClient) {
	conversations := store.NewMemoryConversationStore()
	botStatus := store.NewMemoryBotStatusStore()
	registry := newStubRegistry(entity.SalespersonEntry{
		Name:              "ana",
		DisplayName:       "Ana",
		OutboundChannelID: "chan_ana",
		IsVerifiedSource:  true,
	})
	crm := new(MockCRMClient)
	return NewStartConversationUseCase(conversations, botStatus, registry, crm), conversations, botStatus, crm
}

func TestStartConversation_IniciaEGravaEstado(t *testing.T) {
	uc, conversations, botStatus, crm := newStartFixture()
	ctx := context.Background()

	crm.On("SendMessage", mock.Anything, "conv_100_55", mock.Anything).Return(nil)

	out := uc.Execute(ctx, StartConversationInput{
		ContactID:    100,
		Salesperson:  "ana",
		PracticeArea: "previdenciário",
		Trigger:      "form_submitted",
		LeadID:       55,
		LeadAttributes: map[string]string{
			"name":      "João",
			"interesse": "aposentadoria especial",
		},
	})

	assert.Equal(t, StatusStarted, out.Status)
	assert.Equal(t, "conv_100_55", out.ConversationID)
	assert.Equal(t, "ana", out.Salesperson)
	assert.Contains(t, out.Message, "João")
	assert.Contains(t, out.Message, "aposentadoria especial")

	conv, _ := conversations.Get(ctx, 100)
	assert.NotNil(t, conv)
	assert.True(t, conv.InitiatedByAutomation)
	assert.True(t, conv.Active)
	assert.False(t, conv.FirstReplyReceived)
	assert.Equal(t, entity.TriggerFormSubmitted, conv.Trigger)
	assert.Equal(t, "João", conv.LeadSnapshot["name"])

	active, _ := botStatus.IsActive(ctx, 100)
	assert.True(t, active)
}

func TestStartConversation_SemContactIDEInvalido(t *testing.T) {
	uc, _, _, _ := newStartFixture()

	out := uc.Execute(context.Background(), StartConversationInput{
		Salesperson:  "ana",
		PracticeArea: "previdenciario",
	})

	assert.Equal(t, StatusError, out.Status)
	assert.Equal(t, ReasonInvalidData, out.Reason)
}

func TestStartConversation_AreaNaoElegivelNaoInicia(t *testing.T) {
	uc, conversations, _, crm := newStartFixture()
	ctx := context.Background()

	out := uc.Execute(ctx, StartConversationInput{
		ContactID:    200,
		Salesperson:  "ana",
		PracticeArea: "trabalhista",
	})

	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, ReasonAreaNotEligible, out.Reason)

	conv, _ := conversations.Get(ctx, 200)
	assert.Nil(t, conv)
	crm.AssertNotCalled(t, "SendMessage", mock.Anything, mock.Anything, mock.Anything)
}

func TestStartConversation_ConversaAtivaParaMesmoLeadEIdempotente(t *testing.T) {
	uc, _, _, crm := newStartFixture()
	ctx := context.Background()

	crm.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	input := StartConversationInput{
		ContactID:    300,
		Salesperson:  "ana",
		PracticeArea: "tributario",
		Trigger:      "manual",
		LeadID:       7,
	}

	first := uc.Execute(ctx, input)
	second := uc.Execute(ctx, input)

	assert.Equal(t, StatusStarted, first.Status)
	assert.Equal(t, StatusSkipped, second.Status)
	assert.Equal(t, ReasonConversationActive, second.Reason)
	assert.Equal(t, first.ConversationID, second.ConversationID)
	crm.AssertNumberOfCalls(t, "SendMessage", 1)
}

func TestStartConversation_LeadDiferenteIniciaNovaConversa(t *testing.T) {
	uc, _, _, crm := newStartFixture()
	ctx := context.Background()

	crm.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	first := uc.Execute(ctx, StartConversationInput{
		ContactID: 400, Salesperson: "ana", PracticeArea: "outros", LeadID: 1,
	})
	second := uc.Execute(ctx, StartConversationInput{
		ContactID: 400, Salesperson: "ana", PracticeArea: "outros", LeadID: 2,
	})

	assert.Equal(t, StatusStarted, first.Status)
	assert.Equal(t, StatusStarted, second.Status)
	assert.NotEqual(t, first.ConversationID, second.ConversationID)
}

func TestStartConversation_FalhaNoEnvioNaoGravaEstado(t *testing.T) {
	uc, conversations, _, crm := newStartFixture()
	ctx := context.Background()

	crm.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	out := uc.Execute(ctx, StartConversationInput{
		ContactID:    500,
		Salesperson:  "ana",
		PracticeArea: "previdenciario",
		LeadID:       3,
	})

	assert.Equal(t, StatusError, out.Status)

	conv, _ := conversations.Get(ctx, 500)
	assert.Nil(t, conv)
}

func TestStartConversation_MensagemExplicitaIgnoraTemplate(t *testing.T) {
	uc, _, _, crm := newStartFixture()
	ctx := context.Background()

	crm.On("SendMessage", mock.Anything, mock.Anything, "Texto customizado da campanha").Return(nil)

	out := uc.Execute(ctx, StartConversationInput{
		ContactID:    600,
		Salesperson:  "ana",
		PracticeArea: "outros",
		Message:      "Texto customizado da campanha",
	})

	assert.Equal(t, StatusStarted, out.Status)
	assert.Equal(t, "Texto customizado da campanha", out.Message)
}

func TestRenderOpeningMessage_GatilhoDesconhecidoUsaPadrao(t *testing.T) {
	msg := renderOpeningMessage(entity.Trigger("campanha_nova"), templateData{
		ContactName: "Maria",
		Salesperson: "Ana",
	})

	assert.Contains(t, msg, "Maria")
	assert.Contains(t, msg, "Ana")
}

func TestRenderOpeningMessage_SemNomeDoContato(t *testing.T) {
	msg := renderOpeningMessage(entity.TriggerMaterialDownloaded, templateData{
		Interest: "planejamento tributário",
	})

	assert.Contains(t, msg, "Olá!")
	assert.Contains(t, msg, "planejamento tributário")
}
