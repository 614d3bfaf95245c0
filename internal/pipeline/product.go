package pipeline

import (
	"context"
	"fmt"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
)

// Alíquota de imposto sobre vendas de produtos de conveniência.
const productTaxRate = 0.18

// Faixas de desconto por quantidade e bônus por identificação do cliente.
const (
	bulkDiscountQty        = 10
	bulkDiscountRate       = 0.10
	midDiscountQty         = 5
	midDiscountRate        = 0.05
	identifiedCustomerRate = 0.02
)

// ProductConfig parametriza os limiares da variante de produtos.
type ProductConfig struct {
	// Estoque agregado, em unidades, no qual (ou abaixo do qual) um alerta de
	// reposição é emitido após a saída.
	ReplenishThreshold int
}

// productVariant implementa os hooks do pipeline para vendas de produtos:
// pré-checagem estrita de disponibilidade antes de qualquer mutação, desconto
// por faixa de quantidade com bônus para cliente identificado e imposto de 18%.
type productVariant struct {
	inventory ProductInventory
	alerts    AlertSink
	cfg       ProductConfig
}

// NewProductProcessor monta o pipeline da variante de produtos.
func NewProductProcessor(deps Deps, inventory ProductInventory, alerts AlertSink, cfg ProductConfig) *Processor {
	return newProcessor(&productVariant{
		inventory: inventory,
		alerts:    alerts,
		cfg:       cfg,
	}, deps)
}

func (v *productVariant) Kind() domain.SaleKind { return domain.SaleKindProduct }

func (v *productVariant) Validate(sale *domain.Sale) error {
	for i, item := range sale.Items {
		if err := requireSameKind(item, domain.SaleKindProduct, i); err != nil {
			return err
		}
		if item.ProductID == "" {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: ID do produto é obrigatório.", i+1))
		}
		if item.Quantity <= 0 {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: quantidade deve ser um inteiro positivo.", i+1))
		}
		if item.UnitPrice <= 0 {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: preço unitário deve ser positivo.", i+1))
		}
	}
	return nil
}

// UpdateInventory pré-checa a disponibilidade de todos os itens antes de mutar
// qualquer estoque: diferente do combustível, uma venda de produtos com estoque
// insuficiente aborta por inteiro, sem decremento parcial.
func (v *productVariant) UpdateInventory(ctx context.Context, sale *domain.Sale) error {
	for _, item := range sale.Items {
		check, err := v.inventory.CheckProduct(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return err
		}
		if !check.Available {
			return apperror.NewInsufficientStockError(item.ProductID, item.Quantity, check.AvailableQty)
		}
	}

	for _, item := range sale.Items {
		result, err := v.inventory.ExitProduct(ctx, item.ProductID, item.Quantity, sale.ID)
		if err != nil {
			return err
		}
		if result.AggregateRemaining <= v.cfg.ReplenishThreshold {
			v.alerts.ReplenishProduct(ctx, item.ProductID, result.AggregateRemaining)
		}
	}
	return nil
}

// Discount aplica o desconto por faixa de quantidade de cada item (10% a partir
// de 10 unidades, 5% a partir de 5) mais 2% do total da venda quando o cliente
// se identifica com CPF/CNPJ.
func (v *productVariant) Discount(sale *domain.Sale) float64 {
	var discount float64
	for _, item := range sale.Items {
		switch {
		case item.Quantity >= bulkDiscountQty:
			discount += item.Total * bulkDiscountRate
		case item.Quantity >= midDiscountQty:
			discount += item.Total * midDiscountRate
		}
	}
	if sale.CustomerTaxID != "" {
		discount += sale.Total * identifiedCustomerRate
	}
	return discount
}

func (v *productVariant) Tax(sale *domain.Sale) float64 {
	return sale.Total * productTaxRate
}

// Vendas de produtos não têm passo de finalização específico.
func (v *productVariant) Finalize(_ context.Context, _ *domain.Sale) error { return nil }
