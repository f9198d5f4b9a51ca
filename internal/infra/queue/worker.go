package queue

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/usecase"
)

// Worker consome a fila de webhooks e roda o classificador. O resultado da
// classificação nunca devolve a mensagem pra fila: webhook descartado é
// comportamento esperado, não falha de consumo.
type Worker struct {
	Channel   *amqp.Channel
	Processor WebhookProcessor
}

func NewWorker(ch *amqp.Channel, processor WebhookProcessor) *Worker {
	return &Worker{Channel: ch, Processor: processor}
}

func (w *Worker) Start(queueName string) {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Falha ao registrar consumidor RabbitMQ")
	}

	forever := make(chan bool)

	go func() {
		for d := range msgs {
			log.Info().Msg("📥 [WORKER] Webhook recebido da fila")

			var raw map[string]any
			if err := json.Unmarshal(d.Body, &raw); err != nil {
				log.Error().Err(err).Msg("❌ [WORKER] JSON inválido, mandando pra DLQ")
				d.Nack(false, false)
				continue
			}

			result := w.Processor.Execute(context.Background(), raw)
			if result.Status == usecase.StatusError {
				log.Error().Str("erro", result.Error).Msg("❌ [WORKER] Falha no processamento, descartando")
			} else {
				log.Info().Str("status", result.Status).Str("motivo", result.Reason).Msg("✅ [WORKER] Webhook processado")
			}

			// Ack sempre: não há retry automático em lugar nenhum do fluxo.
			d.Ack(false)
		}
	}()

	log.Info().Str("fila", queueName).Msg("👷 Worker aguardando webhooks")
	<-forever
}
