package queue

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/usecase"
)

// Dispatcher entrega o corpo bruto de um webhook para processamento em
// segundo plano. Fire-and-forget: quem despacha não acompanha o resultado,
// e falha no processamento é engolida por decisão de projeto.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw map[string]any) error
}

// WebhookProcessor é o consumidor final do webhook despachado.
type WebhookProcessor interface {
	Execute(ctx context.Context, raw map[string]any) usecase.WebhookResult
}

// GoroutineDispatcher processa no próprio processo, numa goroutine por
// webhook. É o dispatcher padrão quando não há RabbitMQ configurado.
type GoroutineDispatcher struct {
	Processor WebhookProcessor
}

func NewGoroutineDispatcher(processor WebhookProcessor) *GoroutineDispatcher {
	return &GoroutineDispatcher{Processor: processor}
}

func (d *GoroutineDispatcher) Dispatch(ctx context.Context, raw map[string]any) error {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Any("panic", r).Msg("❌ Pânico no processamento de webhook em background")
			}
		}()

		// Contexto próprio: a resposta HTTP já foi devolvida ao Kommo.
		result := d.Processor.Execute(context.Background(), raw)
		log.Debug().Str("status", result.Status).Str("motivo", result.Reason).Msg("🏁 Webhook processado em background")
	}()
	return nil
}
