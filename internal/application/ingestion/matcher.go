package ingestion

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cargamex/logistica-api/internal/domain/cfdi"
	"github.com/cargamex/logistica-api/internal/domain/entity"
	"github.com/cargamex/logistica-api/internal/domain/repository"
	"github.com/cargamex/logistica-api/pkg/normalize"
)

// MatchType discrimina cómo se resolvió la contraparte.
type MatchType string

const (
	MatchByTaxID MatchType = "taxId"
	MatchByName  MatchType = "name"
	MatchNone    MatchType = "none"
)

// MatchResult resultado cerrado del matcher.
type MatchResult struct {
	Matched    bool
	ClientID   string
	Type       MatchType
	Confidence int // 0-100
}

// Confianza del match exacto por RFC.
const taxIDMatchConfidence = 95

// ClientMatcher resuelve la contraparte extraída contra los clientes
// existentes: primero RFC exacto, después nombre difuso (Jaccard sobre
// conjuntos de palabras normalizadas), si no "none".
type ClientMatcher struct {
	clients repository.ClientRepository
	// threshold similitud Jaccard mínima para aceptar un match por nombre.
	threshold float64
	// emailDomain dominio del email placeholder de clientes nuevos.
	emailDomain string
}

// NewClientMatcher construye el matcher.
func NewClientMatcher(clients repository.ClientRepository, threshold float64, emailDomain string) *ClientMatcher {
	return &ClientMatcher{clients: clients, threshold: threshold, emailDomain: emailDomain}
}

// Match busca al cliente de la contraparte. El match por RFC corta la
// búsqueda; el difuso acepta al primer candidato que supere el umbral.
func (m *ClientMatcher) Match(ctx context.Context, party cfdi.Party) (MatchResult, error) {
	if party.TaxID != "" {
		client, err := m.clients.GetByTaxID(ctx, party.TaxID)
		if err != nil {
			return MatchResult{}, fmt.Errorf("buscar cliente por RFC: %w", err)
		}
		if client != nil {
			return MatchResult{Matched: true, ClientID: client.ID, Type: MatchByTaxID, Confidence: taxIDMatchConfidence}, nil
		}
	}

	name := normalize.Text(party.Name)
	if name == "" {
		return MatchResult{Type: MatchNone}, nil
	}

	// Candidatos por subcadena: se usa el token más largo del nombre
	// normalizado como aguja para no perder candidatos por sufijos societarios.
	candidates, err := m.clients.SearchByName(ctx, longestToken(name))
	if err != nil {
		return MatchResult{}, fmt.Errorf("buscar clientes por nombre: %w", err)
	}

	wanted := normalize.WordSet(party.Name)
	for _, cand := range candidates {
		sim := normalize.Jaccard(wanted, normalize.WordSet(cand.Name))
		if sim > m.threshold {
			return MatchResult{
				Matched:    true,
				ClientID:   cand.ID,
				Type:       MatchByName,
				Confidence: int(math.Round(sim * 100)),
			}, nil
		}
	}
	return MatchResult{Type: MatchNone}, nil
}

// Resolve devuelve el cliente para la contraparte, creándolo si no existe.
//
// Con match: la moneda de la factura siempre manda (se sobreescribe la del
// cliente si difiere); los demás campos solo se rellenan si están vacíos,
// nunca se pisan una vez capturados. Sin match: cliente nuevo con moneda de
// la factura (MXN por defecto) y email placeholder sintetizado del RFC.
func (m *ClientMatcher) Resolve(ctx context.Context, party cfdi.Party, currency string) (clientID string, created bool, err error) {
	if currency == "" {
		currency = "MXN"
	}

	match, err := m.Match(ctx, party)
	if err != nil {
		return "", false, err
	}

	if match.Matched {
		client, err := m.clients.GetByID(ctx, match.ClientID)
		if err != nil {
			return "", false, fmt.Errorf("cargar cliente %s: %w", match.ClientID, err)
		}
		if client == nil {
			return "", false, fmt.Errorf("cliente %s desapareció tras el match", match.ClientID)
		}
		if m.backfill(client, party, currency) {
			client.UpdatedAt = time.Now()
			if err := m.clients.Update(ctx, client); err != nil {
				return "", false, fmt.Errorf("actualizar cliente %s: %w", client.ID, err)
			}
		}
		return client.ID, false, nil
	}

	now := time.Now()
	client := &entity.Client{
		ID:           uuid.New().String(),
		Name:         party.Name,
		TaxID:        party.TaxID,
		Email:        m.placeholderEmail(party),
		Currency:     currency,
		Address:      party.Address,
		City:         party.City,
		State:        party.State,
		PostalCode:   party.PostalCode,
		Country:      party.Country,
		FiscalRegime: party.FiscalRegime,
		CFDIUsage:    party.CFDIUsage,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.clients.Create(ctx, client); err != nil {
		return "", false, fmt.Errorf("crear cliente: %w", err)
	}
	return client.ID, true, nil
}

// backfill aplica la regla de precedencia sobre un cliente existente y
// reporta si hubo cambios.
func (m *ClientMatcher) backfill(client *entity.Client, party cfdi.Party, currency string) bool {
	changed := false
	if currency != "" && client.Currency != currency {
		client.Currency = currency
		changed = true
	}
	fill := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
			changed = true
		}
	}
	fill(&client.TaxID, party.TaxID)
	fill(&client.Address, party.Address)
	fill(&client.PostalCode, party.PostalCode)
	fill(&client.FiscalRegime, party.FiscalRegime)
	fill(&client.City, party.City)
	fill(&client.State, party.State)
	return changed
}

// placeholderEmail sintetiza un email a partir del RFC (o del nombre si no
// hay RFC), quitando todo lo no alfanumérico.
func (m *ClientMatcher) placeholderEmail(party cfdi.Party) string {
	base := party.TaxID
	if base == "" {
		base = party.Name
	}
	var sb strings.Builder
	for _, r := range strings.ToLower(base) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			sb.WriteRune(r)
		}
	}
	local := sb.String()
	if local == "" {
		local = "cliente"
	}
	return local + "@" + m.emailDomain
}

// longestToken devuelve el token más largo de un nombre ya normalizado.
func longestToken(name string) string {
	best := ""
	for _, tok := range strings.Fields(name) {
		if len(tok) > len(best) {
			best = tok
		}
	}
	return best
}
