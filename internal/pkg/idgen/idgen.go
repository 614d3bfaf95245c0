package idgen

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Clock abstrai a fonte de tempo para permitir testes determinísticos.
type Clock interface {
	Now() time.Time
}

// SystemClock é o relógio de produção, baseado em time.Now.
type SystemClock struct{}

// Now retorna o horário atual do sistema.
func (SystemClock) Now() time.Time { return time.Now() }

// Generator abstrai a geração de identificadores de venda.
// Os IDs são monotônicos no tempo e livres de colisão entre vendas concorrentes.
type Generator interface {
	SaleID() string
}

// SaleIDGenerator gera IDs de venda no formato VND-<unix-ms>-<sufixo>.
// O prefixo temporal mantém a ordenação aproximada; o sufixo aleatório (UUID)
// garante unicidade entre vendas geradas no mesmo milissegundo.
type SaleIDGenerator struct {
	clock Clock
}

// NewSaleIDGenerator cria um gerador de IDs de venda.
func NewSaleIDGenerator(clock Clock) *SaleIDGenerator {
	return &SaleIDGenerator{clock: clock}
}

// SaleID retorna um novo identificador único de venda.
func (g *SaleIDGenerator) SaleID() string {
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("VND-%d-%s", g.clock.Now().UnixMilli(), suffix)
}
