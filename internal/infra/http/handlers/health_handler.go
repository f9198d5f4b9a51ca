package handlers

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/previdas/kommo-bridge/internal/entity"
)

type HealthHandler struct {
	DB        *sql.DB
	RabbitMQ  *amqp091.Connection
	CRM       Configurable
	Engine    Configurable
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

func NewHealthHandler(db *sql.DB, rabbitMQ *amqp091.Connection, crm, engine Configurable) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		RabbitMQ:  rabbitMQ,
		CRM:       crm,
		Engine:    engine,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	deps := make(map[string]string)

	if h.CRM != nil && h.CRM.Configured() {
		deps["kommo"] = "configured"
	} else {
		deps["kommo"] = "not configured"
	}

	if h.Engine != nil && h.Engine.Configured() {
		deps["n8n"] = "configured"
	} else {
		deps["n8n"] = "not configured"
	}

	if h.DB != nil {
		if err := h.DB.Ping(); err != nil {
			deps["database"] = fmt.Sprintf("unhealthy: %v", err)
		} else {
			deps["database"] = "healthy"
		}
	} else {
		deps["database"] = "not configured"
	}

	if h.RabbitMQ != nil {
		if h.RabbitMQ.IsClosed() {
			deps["rabbitmq"] = "unhealthy: connection closed"
		} else {
			deps["rabbitmq"] = "healthy"
		}
	} else {
		deps["rabbitmq"] = "not configured"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "configured" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	response := HealthResponse{
		Status:       status,
		Version:      "1.0.0",
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	respondJSON(w, code, response)
}

// StatusHandler devolve a introspecção de configuração e os tamanhos dos
// caches. Só leitura, sem efeito colateral.
type StatusHandler struct {
	Conversations entity.ConversationStore
	BotStatus     entity.BotStatusStore
	Registry      entity.SalespersonRegistry
	CRM           Configurable
	Engine        Configurable
}

func NewStatusHandler(
	conversations entity.ConversationStore,
	botStatus entity.BotStatusStore,
	registry entity.SalespersonRegistry,
	crm, engine Configurable,
) *StatusHandler {
	return &StatusHandler{
		Conversations: conversations,
		BotStatus:     botStatus,
		Registry:      registry,
		CRM:           crm,
		Engine:        engine,
	}
}

func (h *StatusHandler) Handle(w http.ResponseWriter, r *http.Request) {
	conversations, _ := h.Conversations.Count(r.Context())
	botStatus, _ := h.BotStatus.Count(r.Context())

	respondJSON(w, http.StatusOK, map[string]any{
		"application": "kommo-bridge",
		"status":      "running",
		"timestamp":   time.Now().Format(time.RFC3339),
		"config": map[string]any{
			"kommo_configured": h.CRM != nil && h.CRM.Configured(),
			"n8n_configured":   h.Engine != nil && h.Engine.Configured(),
			"environment":      envOrDefault("ENVIRONMENT", "development"),
		},
		"cache": map[string]any{
			"conversations": conversations,
			"bot_status":    botStatus,
			"salespeople":   h.Registry.Count(),
		},
	})
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
