package main

import (
	"database/sql"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/database"
	"github.com/previdas/kommo-bridge/internal/infra/http/handlers"
	"github.com/previdas/kommo-bridge/internal/infra/http/middleware"
	"github.com/previdas/kommo-bridge/internal/infra/integration/kommo"
	"github.com/previdas/kommo-bridge/internal/infra/integration/n8n"
	"github.com/previdas/kommo-bridge/internal/infra/queue"
	"github.com/previdas/kommo-bridge/internal/infra/registry"
	"github.com/previdas/kommo-bridge/internal/infra/store"
	"github.com/previdas/kommo-bridge/internal/usecase"
)

func main() {
	godotenv.Load()
	setupLogger()

	// 1. Stores: Postgres quando DATABASE_URL está presente, memória caso
	// contrário. O estado é descartável por natureza, memória é o padrão.
	var conversations entity.ConversationStore
	var botStatus entity.BotStatusStore
	db := openDatabase()
	if db != nil {
		defer db.Close()
		conversations = database.NewConversationRepository(db)
		botStatus = database.NewBotStatusRepository(db)
		log.Info().Msg("🗄️ Estado de conversas em Postgres")
	} else {
		conversations = store.NewMemoryConversationStore()
		botStatus = store.NewMemoryBotStatusStore()
		log.Info().Msg("🗄️ Estado de conversas em memória")
	}

	// 2. Gateways
	crm := kommo.NewClient()
	engine := n8n.NewClient()
	if !crm.Configured() {
		log.Warn().Msg("⚠️ Kommo não configurado, envios para o CRM serão recusados")
	}
	if !engine.Configured() {
		log.Warn().Msg("⚠️ n8n não configurado, mensagens não serão encaminhadas")
	}

	// 3. Registro de vendedores (cache do CRM + entradas manuais via env)
	reg := registry.New(crm, 5*time.Minute)
	loadManualSalespeople(reg)

	// 4. UseCases
	controlUC := usecase.NewControlBotUseCase(conversations, botStatus, crm)
	processUC := usecase.NewProcessWebhookUseCase(conversations, botStatus, reg, crm, engine, controlUC)
	startUC := usecase.NewStartConversationUseCase(conversations, botStatus, reg, crm)
	deliverUC := usecase.NewDeliverReplyUseCase(crm)

	// 5. Dispatcher: RabbitMQ quando AMQP_URL está presente, goroutine
	// local caso contrário. Os dois caminhos são fire-and-forget.
	var dispatcher queue.Dispatcher
	rabbit, rabbitMQ := setupQueue(processUC)
	if rabbit != nil {
		defer rabbitMQ.Conn.Close()
		defer rabbitMQ.Ch.Close()
		dispatcher = rabbit
	} else {
		dispatcher = queue.NewGoroutineDispatcher(processUC)
	}

	// 6. Handlers
	webhookHandler := handlers.NewWebhookHandler(dispatcher)
	engineHandler := handlers.NewEngineResponseHandler(deliverUC, crm)
	controlHandler := handlers.NewBotControlHandler(controlUC)
	conversationHandler := handlers.NewConversationHandler(startUC)
	healthHandler := handlers.NewHealthHandler(db, rabbitConn(rabbitMQ), crm, engine)
	statusHandler := handlers.NewStatusHandler(conversations, botStatus, reg, crm, engine)
	oauthHandler := handlers.NewOAuthHandler()

	// 7. Router
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
	}))

	r.Post("/webhooks/kommo", webhookHandler.Handle)
	r.Get("/webhooks/test", webhookHandler.HandleTest)
	r.Post("/send-response", engineHandler.HandleSendResponse)
	r.Post("/test-send", engineHandler.HandleTestSend)
	r.Post("/bot/command", controlHandler.HandleCommand)
	r.Post("/bot/{contactID}/pause", controlHandler.HandlePause)
	r.Post("/bot/{contactID}/resume", controlHandler.HandleResume)
	r.Get("/bot/{contactID}/status", controlHandler.HandleStatus)
	r.Post("/conversations/start", conversationHandler.HandleStart)
	r.Get("/health", healthHandler.Handle)
	r.Get("/status", statusHandler.Handle)
	r.Get("/oauth/callback", oauthHandler.HandleCallback)
	r.Get("/oauth/status", oauthHandler.HandleStatus)
	r.Handle("/metrics", promhttp.Handler())

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Info().Str("porta", port).Msg("🔥 Kommo Bridge rodando")
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal().Err(err).Msg("❌ Servidor encerrou com erro")
	}
}

func setupLogger() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_FORMAT") == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func openDatabase() *sql.DB {
	connString := os.Getenv("DATABASE_URL")
	if connString == "" {
		return nil
	}
	db, err := database.NewDBConnection(connString)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Falha ao conectar no Postgres")
	}
	return db
}

func setupQueue(processor queue.WebhookProcessor) (*queue.RabbitMQProducer, *queue.RabbitMQ) {
	url := os.Getenv("AMQP_URL")
	if url == "" {
		return nil, nil
	}

	rabbitMQ, err := queue.NewRabbitMQ(url)
	if err != nil {
		log.Fatal().Err(err).Msg("❌ Falha ao conectar no RabbitMQ")
	}

	worker := queue.NewWorker(rabbitMQ.Ch, processor)
	go worker.Start(queue.QueueName)

	log.Info().Msg("🐰 Webhooks despachados via RabbitMQ")
	return queue.NewProducer(rabbitMQ.Conn, rabbitMQ.Ch), rabbitMQ
}

func rabbitConn(rabbitMQ *queue.RabbitMQ) *amqp.Connection {
	if rabbitMQ == nil {
		return nil
	}
	return rabbitMQ.Conn
}

// loadManualSalespeople lê VENDOR_CHANNELS no formato
// "nome=canal;nome=canal" e popula o registro com entradas manuais,
// que nunca contam como fonte verificada.
func loadManualSalespeople(reg *registry.SalespersonRegistry) {
	raw := os.Getenv("VENDOR_CHANNELS")
	if raw == "" {
		return
	}

	for _, pair := range strings.Split(raw, ";") {
		name, channel, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || name == "" || channel == "" {
			continue
		}
		reg.AddManual(entity.SalespersonEntry{
			Name:              name,
			DisplayName:       name,
			OutboundChannelID: channel,
		})
	}
	log.Info().Int("vendedores", reg.Count()).Msg("👥 Vendedores manuais carregados do ambiente")
}
