package payment

import (
	"context"
	"time"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pkg/logger"
)

// Métodos de pagamento aceitos. "DINHEIRO" é o padrão quando nenhum é informado.
const (
	MethodCash   = "DINHEIRO"
	MethodDebit  = "DEBITO"
	MethodCredit = "CREDITO"
	MethodPix    = "PIX"
)

// Authorizer implementa a autorização de pagamento usada pelo pipeline de vendas.
// O protocolo real de gateway fica fora do núcleo: esta implementação autoriza
// localmente, mas respeita o contexto e mapeia falhas para DownstreamError, como
// um adaptador de gateway real faria.
type Authorizer struct {
	clock  interface{ Now() time.Time }
	logger logger.Logger
}

// NewAuthorizer cria um novo autorizador de pagamentos.
func NewAuthorizer(clock interface{ Now() time.Time }, log logger.Logger) *Authorizer {
	return &Authorizer{clock: clock, logger: log}
}

// Authorize submete valor e forma de pagamento e devolve o Payment registrado.
// Timeouts pertencem ao colaborador: um contexto cancelado/expirado vira
// DownstreamError para o chamador.
func (a *Authorizer) Authorize(ctx context.Context, saleID string, amount float64, method string) (domain.Payment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Payment{}, apperror.NewDownstreamError("payment.authorize", err)
	}

	if method == "" {
		method = MethodCash
	}

	p := domain.Payment{
		SaleID:    saleID,
		Amount:    amount,
		Method:    method,
		Status:    domain.PaymentApproved,
		Timestamp: a.clock.Now(),
	}

	a.logger.Info("Pagamento processado.", map[string]interface{}{
		"sale_id": saleID,
		"amount":  amount,
		"method":  method,
		"status":  p.Status,
	})

	return p, nil
}
