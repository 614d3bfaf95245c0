package alerting

import (
	"context"

	"gopostos/internal/pkg/logger"
)

// Sink recebe os alertas operacionais levantados durante o processamento de
// vendas: nível baixo de tanque e necessidade de reposição de produto. A
// notificação externa (e-mail, mensageria) fica fora do núcleo; esta
// implementação registra os alertas de forma estruturada.
type Sink struct {
	logger logger.Logger
}

// NewSink cria um novo sink de alertas.
func NewSink(log logger.Logger) *Sink {
	return &Sink{logger: log}
}

// LowTankLevel registra o alerta de tanque abaixo do nível mínimo operacional.
func (s *Sink) LowTankLevel(_ context.Context, tankID string, volume float64) {
	s.logger.Warn("ALERTA: tanque abaixo do nível mínimo.", map[string]interface{}{
		"tank_id": tankID,
		"volume":  volume,
	})
}

// ReplenishProduct registra o alerta de estoque de produto no limiar de reposição.
func (s *Sink) ReplenishProduct(_ context.Context, productID string, remaining int) {
	s.logger.Warn("ALERTA: produto no limiar de reposição.", map[string]interface{}{
		"product_id": productID,
		"remaining":  remaining,
	})
}
