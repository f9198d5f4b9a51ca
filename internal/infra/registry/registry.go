package registry

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/previdas/kommo-bridge/internal/entity"
	"github.com/previdas/kommo-bridge/internal/infra/integration/kommo"
)

// UserLister é o pedaço do cliente Kommo que o registro consome.
type UserLister interface {
	Configured() bool
	ListUsers(ctx context.Context) ([]kommo.User, error)
}

// SalespersonRegistry resolve vendedores para metadados de roteamento.
// Entradas vindas do Kommo são cacheadas por TTL e sombreiam entradas
// manuais de mesmo nome. Nome totalmente desconhecido gera uma entrada
// sintetizada, para o roteamento nunca ficar sem destino.
//
// O refresh não é serializado de propósito: dois refreshes concorrentes
// sobrescrevem o mesmo resultado idempotente, last-write-wins.
type SalespersonRegistry struct {
	crm UserLister
	ttl time.Duration

	mu          sync.RWMutex
	fetched     map[string]entity.SalespersonEntry
	manual      map[string]entity.SalespersonEntry
	lastRefresh time.Time
}

func New(crm UserLister, ttl time.Duration) *SalespersonRegistry {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &SalespersonRegistry{
		crm:     crm,
		ttl:     ttl,
		fetched: make(map[string]entity.SalespersonEntry),
		manual:  make(map[string]entity.SalespersonEntry),
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// AddManual registra uma entrada configurada à mão. Vive só em memória.
func (r *SalespersonRegistry) AddManual(entry entity.SalespersonEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry.IsVerifiedSource = false
	r.manual[normalizeName(entry.Name)] = entry
}

// Resolve nunca retorna nil: dinâmico → manual → sintetizado.
func (r *SalespersonRegistry) Resolve(ctx context.Context, name string) *entity.SalespersonEntry {
	r.refreshIfStale(ctx)

	key := normalizeName(name)

	r.mu.RLock()
	if entry, ok := r.fetched[key]; ok {
		r.mu.RUnlock()
		return &entry
	}
	if entry, ok := r.manual[key]; ok {
		r.mu.RUnlock()
		return &entry
	}
	r.mu.RUnlock()

	synthesized := entity.SalespersonEntry{
		Name:              name,
		DisplayName:       displayNameFor(name),
		OutboundChannelID: "chan_" + uuid.NewString()[:8],
		IsVerifiedSource:  false,
	}
	log.Warn().Str("vendedor", name).Msg("⚠️ Vendedor desconhecido, usando entrada sintetizada")
	return &synthesized
}

var titleCaser = cases.Title(language.BrazilianPortuguese)

func displayNameFor(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "Equipe Previdas"
	}
	return titleCaser.String(name)
}

func (r *SalespersonRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := len(r.fetched)
	for key := range r.manual {
		if _, shadowed := r.fetched[key]; !shadowed {
			total++
		}
	}
	return total
}

// refreshIfStale recarrega a lista de usuários ativos do Kommo quando o
// cache passou do TTL. Falha mantém o cache anterior.
func (r *SalespersonRegistry) refreshIfStale(ctx context.Context) {
	r.mu.RLock()
	stale := time.Since(r.lastRefresh) > r.ttl
	r.mu.RUnlock()

	if !stale || r.crm == nil || !r.crm.Configured() {
		return
	}

	users, err := r.crm.ListUsers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("⚠️ Falha ao atualizar registro de vendedores, mantendo cache")
		return
	}

	fetched := make(map[string]entity.SalespersonEntry, len(users))
	for _, u := range users {
		fetched[normalizeName(u.Name)] = entity.SalespersonEntry{
			Name:              u.Name,
			DisplayName:       u.Name,
			OutboundChannelID: fmt.Sprintf("kommo_user_%d", u.ID),
			Email:             u.Email,
			IsVerifiedSource:  true,
		}
	}

	r.mu.Lock()
	r.fetched = fetched
	r.lastRefresh = time.Now()
	r.mu.Unlock()

	log.Info().Int("vendedores", len(fetched)).Msg("🔄 Registro de vendedores atualizado do Kommo")
}
