package salesservice

import (
	"context"
	"fmt"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pipeline"
	"gopostos/internal/pkg/logger"
)

// SaleFinder é o contrato de leitura de vendas consumido pelo serviço.
type SaleFinder interface {
	FindSaleByID(ctx context.Context, saleID string) (domain.Sale, error)
}

// Service despacha requisições de venda para o pipeline da variante correta.
// Requisições com variante desconhecida são rejeitadas aqui; o pipeline em si
// nunca ramifica por identidade de variante.
type Service struct {
	fuel    *pipeline.Processor
	product *pipeline.Processor
	sales   SaleFinder
	logger  logger.Logger
}

// NewService cria o serviço de vendas com os dois pipelines concretos.
func NewService(fuel, product *pipeline.Processor, sales SaleFinder, logger logger.Logger) *Service {
	return &Service{
		fuel:    fuel,
		product: product,
		sales:   sales,
		logger:  logger,
	}
}

// SubmitSale processa uma venda de ponta a ponta pela variante indicada na
// requisição. O resultado carrega a venda final e, em caso de sucesso, o cupom
// fiscal e o registro de pagamento.
func (s *Service) SubmitSale(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error) {
	switch req.Kind {
	case domain.SaleKindFuel:
		return s.fuel.Process(ctx, req)
	case domain.SaleKindProduct:
		return s.product.Process(ctx, req)
	default:
		return domain.SaleResult{}, apperror.NewValidationError(
			fmt.Sprintf("Variante de venda desconhecida: %q", req.Kind))
	}
}

// GetSale busca uma venda registrada e seus itens.
func (s *Service) GetSale(ctx context.Context, saleID string) (domain.Sale, error) {
	if saleID == "" {
		return domain.Sale{}, apperror.NewValidationError("ID da venda é obrigatório.")
	}
	return s.sales.FindSaleByID(ctx, saleID)
}
