package usecase

import (
	"bytes"
	"context"
	"fmt"
	"text/template"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/http/middleware"
)

// Mensagens de abertura por gatilho de negócio. Gatilho desconhecido cai
// no template padrão.
var conversationTemplates = map[entity.Trigger]*template.Template{
	entity.TriggerFormSubmitted: template.Must(template.New("form_submitted").Parse(
		"Olá{{if .ContactName}} {{.ContactName}}{{end}}! Vi que você preencheu nosso formulário sobre {{.Interest}}. " +
			"Sou do time de {{.Salesperson}} e posso te ajudar por aqui mesmo. Pode me contar um pouco mais do seu caso?")),
	entity.TriggerMaterialDownloaded: template.Must(template.New("material_downloaded").Parse(
		"Olá{{if .ContactName}} {{.ContactName}}{{end}}! Espero que o material sobre {{.Interest}} tenha ajudado. " +
			"Ficou alguma dúvida? Posso te orientar por aqui. 😊")),
	entity.TriggerMeetingScheduled: template.Must(template.New("meeting_scheduled").Parse(
		"Olá{{if .ContactName}} {{.ContactName}}{{end}}! Sua reunião com {{.Salesperson}} está confirmada. " +
			"Enquanto isso, me conta: o que você gostaria de resolver?")),
}

var defaultTemplate = template.Must(template.New("default").Parse(
	"Olá{{if .ContactName}} {{.ContactName}}{{end}}! Aqui é o assistente do time de {{.Salesperson}}. Como posso ajudar?"))

type templateData struct {
	ContactName string
	Interest    string
	Salesperson string
}

type StartConversationInput struct {
	ContactID      int               `json:"contact_id"`
	Salesperson    string            `json:"salesperson"`
	PracticeArea   string            `json:"practice_area"`
	Trigger        string            `json:"trigger"`
	LeadID         int               `json:"lead_id,omitempty"`
	LeadAttributes map[string]string `json:"lead_attributes,omitempty"`
	Message        string            `json:"message,omitempty"`
}

type StartConversationOutput struct {
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	ContactID      int    `json:"contact_id"`
	ConversationID string `json:"conversation_id,omitempty"`
	Salesperson    string `json:"salesperson,omitempty"`
	Message        string `json:"message,omitempty"`
	Error          string `json:"error,omitempty"`
}

// StartConversationUseCase origina uma conversa a partir de um gatilho de
// negócio, antes do contato dizer qualquer coisa.
type StartConversationUseCase struct {
	Conversations entity.ConversationStore
	BotStatus     entity.BotStatusStore
	Registry      entity.SalespersonRegistry
	CRM           CRMClient
}

func NewStartConversationUseCase(
	conversations entity.ConversationStore,
	botStatus entity.BotStatusStore,
	registry entity.SalespersonRegistry,
	crm CRMClient,
) *StartConversationUseCase {
	return &StartConversationUseCase{
		Conversations: conversations,
		BotStatus:     botStatus,
		Registry:      registry,
		CRM:           crm,
	}
}

func validateStartInput(input StartConversationInput) *DomainError {
	if input.ContactID == 0 {
		return &DomainError{Code: ReasonInvalidData, Message: "contact_id é obrigatório"}
	}
	return nil
}

func (uc *StartConversationUseCase) Execute(ctx context.Context, input StartConversationInput) StartConversationOutput {
	if domainErr := validateStartInput(input); domainErr != nil {
		return StartConversationOutput{Status: StatusError, Reason: domainErr.Code, Error: domainErr.Message}
	}

	if !IsEligibleArea(input.PracticeArea) {
		log.Info().Str("area", input.PracticeArea).Int("contact_id", input.ContactID).
			Msg("🚫 Área não elegível, conversa não iniciada")
		return StartConversationOutput{
			Status:    StatusSkipped,
			Reason:    ReasonAreaNotEligible,
			ContactID: input.ContactID,
		}
	}

	entry := uc.Registry.Resolve(ctx, input.Salesperson)

	existing, err := uc.Conversations.Get(ctx, input.ContactID)
	if err != nil {
		log.Error().Err(err).Int("contact_id", input.ContactID).Msg("❌ Erro ao ler estado da conversa")
	}
	if existing != nil && existing.Active && existing.LeadID == input.LeadID {
		log.Info().Int("contact_id", input.ContactID).Str("conversation_id", existing.ConversationID).
			Msg("ℹ️ Conversa já ativa para o contato e lead, nada a fazer")
		return StartConversationOutput{
			Status:         StatusSkipped,
			Reason:         ReasonConversationActive,
			ContactID:      input.ContactID,
			ConversationID: existing.ConversationID,
		}
	}

	now := time.Now()
	conversationID := fmt.Sprintf("conv_%d_%d", input.ContactID, input.LeadID)
	if input.LeadID == 0 {
		conversationID = fmt.Sprintf("conv_%d_%d", input.ContactID, now.Unix())
	}

	message := input.Message
	if message == "" {
		message = renderOpeningMessage(entity.Trigger(input.Trigger), templateData{
			ContactName: input.LeadAttributes["name"],
			Interest:    interestOrDefault(input.LeadAttributes["interesse"]),
			Salesperson: entry.DisplayName,
		})
	}

	if err := uc.CRM.SendMessage(ctx, conversationID, message); err != nil {
		middleware.RecordIntegrationError("kommo")
		log.Error().Err(err).Int("contact_id", input.ContactID).Msg("❌ Falha ao entregar mensagem de abertura")
		return StartConversationOutput{
			Status:    StatusError,
			ContactID: input.ContactID,
			Error:     err.Error(),
		}
	}

	state := &entity.ConversationState{
		ContactID:             input.ContactID,
		ConversationID:        conversationID,
		Salesperson:           entry.Name,
		PracticeArea:          input.PracticeArea,
		Trigger:               entity.Trigger(input.Trigger),
		LeadID:                input.LeadID,
		InitiatedByAutomation: true,
		FirstReplyReceived:    false,
		Active:                true,
		CreatedAt:             now,
		LeadSnapshot:          input.LeadAttributes,
	}
	if err := uc.Conversations.Save(ctx, state); err != nil {
		log.Error().Err(err).Int("contact_id", input.ContactID).Msg("❌ Erro ao gravar estado da conversa")
	}
	if err := uc.BotStatus.SetActive(ctx, input.ContactID, true); err != nil {
		log.Error().Err(err).Int("contact_id", input.ContactID).Msg("❌ Erro ao ativar bot para o contato")
	}

	middleware.RecordConversationStarted(input.Trigger)
	log.Info().Int("contact_id", input.ContactID).Str("conversation_id", conversationID).
		Str("gatilho", input.Trigger).Msg("🚀 Conversa proativa iniciada")

	return StartConversationOutput{
		Status:         StatusStarted,
		ContactID:      input.ContactID,
		ConversationID: conversationID,
		Salesperson:    entry.Name,
		Message:        message,
	}
}

func renderOpeningMessage(trigger entity.Trigger, data templateData) string {
	tmpl, ok := conversationTemplates[trigger]
	if !ok {
		tmpl = defaultTemplate
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Warn().Err(err).Str("gatilho", string(trigger)).Msg("⚠️ Falha ao renderizar template, usando texto genérico")
		return "Olá! Como posso ajudar?"
	}
	return buf.String()
}

func interestOrDefault(interest string) string {
	if interest == "" {
		return "o seu caso"
	}
	return interest
}
