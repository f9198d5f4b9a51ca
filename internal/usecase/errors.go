package usecase

import "errors"

// Status marcados devolvidos pelos usecases. Falha de validação nunca vira
// erro Go: vira Ignored/Skipped e segue o fluxo.
const (
	StatusProcessed = "processed"
	StatusIgnored   = "ignored"
	StatusSkipped   = "skipped"
	StatusCommand   = "command"
	StatusSent      = "sent"
	StatusStarted   = "started"
	StatusError     = "error"
)

// Motivos de curto-circuito da classificação.
const (
	ReasonInvalidData        = "invalid_data"
	ReasonNotChatMessage     = "not_chat_message"
	ReasonNotCommand         = "operator_message_not_command"
	ReasonSystemAuthor       = "system_author"
	ReasonBotPaused          = "bot_paused"
	ReasonAreaNotEligible    = "area_not_eligible"
	ReasonConversationActive = "conversation_already_active"
	ReasonEmptyText          = "empty_text"
)

// DomainError é uma violação de regra de negócio: a entrada foi entendida
// mas não passa nas travas do fluxo.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr)
}

// TechnicalError é uma falha de infraestrutura (config ausente, transporte):
// o pedido era válido, a execução é que não foi possível.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var techErr *TechnicalError
	return errors.As(err, &techErr)
}
