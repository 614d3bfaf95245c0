package compliance

import (
	"context"

	"gopostos/internal/domain"
	"gopostos/internal/pkg/logger"
)

// Reporter registra vendas de combustível junto ao órgão regulador (ANP) quando o
// valor total ultrapassa o limiar configurado. O protocolo externo fica fora do
// núcleo; esta implementação registra o reporte de forma estruturada.
type Reporter struct {
	logger logger.Logger
}

// NewReporter cria um novo reporter de conformidade.
func NewReporter(log logger.Logger) *Reporter {
	return &Reporter{logger: log}
}

// Report reporta a venda à ANP.
func (r *Reporter) Report(ctx context.Context, sale domain.Sale) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.logger.Info("Venda reportada à ANP.", map[string]interface{}{
		"sale_id":          sale.ID,
		"establishment_id": sale.EstablishmentID,
		"total":            sale.Total,
	})
	return nil
}
