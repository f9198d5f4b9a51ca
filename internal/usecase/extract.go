package usecase

import (
	"strconv"
	"time"

	"github.com/previdas/kommo-bridge/internal/entity"
)

// O corpo do webhook do Kommo muda de formato entre instalações: a mensagem
// pode vir em chats.message ou direto em message, e o contato pode vir num
// campo próprio ou aninhado no autor. A extração tenta sempre do campo mais
// específico para o mais genérico.

// ExtractInboundEvent normaliza o corpo bruto do webhook. Retorna false
// quando o corpo não carrega mensagem de chat nenhuma.
func ExtractInboundEvent(raw map[string]any) (*entity.InboundEvent, bool) {
	var chat, message map[string]any

	if c, ok := asMap(raw["chats"]); ok {
		if m, ok := asMap(c["message"]); ok {
			chat, message = c, m
		}
	}
	if message == nil {
		if m, ok := asMap(raw["message"]); ok {
			message = m
		}
	}
	if message == nil {
		return nil, false
	}

	author, _ := asMap(message["author"])

	conversationID := firstString(chat["conversation_id"], message["conversation_id"])
	if conversationID == "" {
		if id, ok := asInt(message["id"]); ok && id != 0 {
			conversationID = strconv.Itoa(id)
		}
	}

	contactID, ok := asInt(message["contact_id"])
	if !ok || contactID == 0 {
		if id, ok := asInt(author["contact_id"]); ok && id != 0 {
			contactID = id
		} else if id, ok := asInt(author["id"]); ok {
			contactID = id
		}
	}

	text, _ := message["text"].(string)

	timestamp := time.Now()
	if unix, ok := asInt(message["created_at"]); ok && unix > 0 {
		timestamp = time.Unix(int64(unix), 0)
	}

	return &entity.InboundEvent{
		ContactID:      contactID,
		ConversationID: conversationID,
		MessageText:    text,
		AuthorKind:     normalizeAuthor(firstString(author["type"])),
		Timestamp:      timestamp,
	}, true
}

func normalizeAuthor(kind string) entity.AuthorKind {
	switch kind {
	case "contact":
		return entity.AuthorContact
	case "operator", "user", "agent":
		return entity.AuthorOperator
	default:
		return entity.AuthorSystem
	}
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// asInt aceita os formatos que o JSON do Kommo realmente manda:
// número (float64 no decode genérico), inteiro ou string numérica.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		parsed, err := strconv.Atoi(n)
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}

func firstString(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}
