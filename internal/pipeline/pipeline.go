package pipeline

import (
	"context"
	"fmt"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pkg/idgen"
	"gopostos/internal/pkg/logger"
)

// SaleStore é o contrato de persistência do ciclo de vida da venda.
type SaleStore interface {
	SaveSale(ctx context.Context, sale domain.Sale) error
	UpdateSale(ctx context.Context, sale domain.Sale) error
	SaveReceipt(ctx context.Context, receipt domain.Receipt) error
	SavePayment(ctx context.Context, payment domain.Payment) error
}

// ReceiptNumberer fornece numeração sequencial de cupons fiscais.
type ReceiptNumberer interface {
	NextReceiptNumber(ctx context.Context) (string, error)
}

// PaymentAuthorizer é o colaborador de autorização de pagamento.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, saleID string, amount float64, method string) (domain.Payment, error)
}

// FuelInventory é a porta de estoque usada pela variante de combustível.
// ExitTank drena o tanque informado via estratégia volumétrica; uma drenagem
// parcial retorna PartialFulfillmentError com o resultado preenchido, e a
// porção drenada permanece efetivada.
type FuelInventory interface {
	ExitTank(ctx context.Context, tankID string, liters float64, saleID string) (domain.MovementResult, error)
	RecordPumpMovement(ctx context.Context, pumpID string, liters float64, saleID string) error
}

// ProductInventory é a porta de estoque usada pela variante de produtos.
type ProductInventory interface {
	CheckProduct(ctx context.Context, productID string, quantity int) (domain.AvailabilityResult, error)
	ExitProduct(ctx context.Context, productID string, quantity int, saleID string) (domain.MovementResult, error)
}

// AlertSink recebe os alertas de nível/reposição levantados durante a venda.
type AlertSink interface {
	LowTankLevel(ctx context.Context, tankID string, volume float64)
	ReplenishProduct(ctx context.Context, productID string, remaining int)
}

// ComplianceReporter reporta vendas de combustível ao órgão regulador.
type ComplianceReporter interface {
	Report(ctx context.Context, sale domain.Sale) error
}

// Deps agrupa os colaboradores comuns às duas variantes do pipeline.
type Deps struct {
	IDs      idgen.Generator
	Clock    idgen.Clock
	Store    SaleStore
	Receipts ReceiptNumberer
	Payments PaymentAuthorizer
	Logger   logger.Logger
}

// Variant fornece os estágios "hook" do pipeline: a validação específica, a
// atualização de estoque, o desconto, o imposto e a finalização. Os estágios
// não-hook são idênticos entre as variantes.
type Variant interface {
	Kind() domain.SaleKind
	Validate(sale *domain.Sale) error
	UpdateInventory(ctx context.Context, sale *domain.Sale) error
	Discount(sale *domain.Sale) float64
	Tax(sale *domain.Sale) float64
	Finalize(ctx context.Context, sale *domain.Sale) error
}

// Processor executa o fluxo fixo de processamento de venda:
// validar → registrar → atualizar estoque → totalizar → desconto → imposto →
// emitir cupom → processar pagamento → finalizar.
//
// O orquestrador nunca ramifica pela identidade da variante: apenas invoca os
// hooks fornecidos por ela. Construção somente pelas fábricas NewFuelProcessor
// e NewProductProcessor, o que torna estruturalmente impossível instanciar o
// fluxo sem uma variante concreta.
type Processor struct {
	variant Variant
	deps    Deps
}

func newProcessor(variant Variant, deps Deps) *Processor {
	return &Processor{variant: variant, deps: deps}
}

// stage é um passo do fluxo; after é o estado alcançado ao concluir o estágio.
type stage struct {
	name  string
	after domain.SaleStatus
	run   func(ctx context.Context, sale *domain.Sale, result *domain.SaleResult) error
}

func (p *Processor) stages() []stage {
	return []stage{
		{"validar", domain.SaleValidated, p.validate},
		{"registrar", domain.SaleRegistered, p.register},
		{"atualizar-estoque", domain.SaleStockUpdated, p.updateInventory},
		{"calcular-totais", domain.SaleTotaled, p.computeTotals},
		{"calcular-desconto", domain.SaleTotaled, p.computeDiscount},
		{"calcular-impostos", domain.SaleTotaled, p.computeTax},
		{"emitir-cupom", domain.SaleReceiptIssued, p.issueReceipt},
		{"processar-pagamento", domain.SalePaymentProcessed, p.processPayment},
		{"finalizar", domain.SaleCompleted, p.finalize},
	}
}

// Process executa a venda de ponta a ponta. Qualquer estágio que falhe leva a
// venda ao estado Failed, aborta os estágios restantes e propaga o erro ao
// chamador sem alteração: nenhum cupom ou pagamento é emitido para uma venda
// que falhou. Movimentações parciais já efetivadas permanecem efetivadas.
func (p *Processor) Process(ctx context.Context, req domain.SaleRequest) (domain.SaleResult, error) {
	sale := domain.Sale{
		EstablishmentID: req.EstablishmentID,
		Kind:            p.variant.Kind(),
		Items:           append([]domain.SaleItem(nil), req.Items...),
		PaymentMethod:   req.PaymentMethod,
		CustomerTaxID:   req.CustomerTaxID,
		Status:          domain.SaleCreated,
	}
	result := domain.SaleResult{}

	// O status só avança quando o estágio conclui: a venda nunca carrega um
	// estado que não alcançou.
	for _, st := range p.stages() {
		if err := st.run(ctx, &sale, &result); err != nil {
			return p.fail(ctx, sale, st.name, err)
		}
		sale.Status = st.after
	}

	if err := p.deps.Store.UpdateSale(ctx, sale); err != nil {
		return p.fail(ctx, sale, "persistir-conclusao", err)
	}

	p.deps.Logger.Info("Venda concluída com sucesso.", map[string]interface{}{
		"sale_id": sale.ID,
		"kind":    sale.Kind,
		"total":   sale.Total,
	})

	result.Sale = sale
	return result, nil
}

// fail transiciona a venda para Failed, persiste o estado final quando a venda
// já foi registrada e propaga o erro original.
func (p *Processor) fail(ctx context.Context, sale domain.Sale, stageName string, err error) (domain.SaleResult, error) {
	sale.Status = domain.SaleFailed
	sale.FailureReason = err.Error()

	p.deps.Logger.Warn("Falha no processamento da venda.", map[string]interface{}{
		"sale_id": sale.ID,
		"stage":   stageName,
		"error":   err.Error(),
	})

	if sale.ID != "" {
		if updErr := p.deps.Store.UpdateSale(ctx, sale); updErr != nil {
			p.deps.Logger.Error("Falha ao persistir o estado de falha da venda.", updErr)
		}
	}

	return domain.SaleResult{Sale: sale}, err
}

// validate executa as checagens comuns e delega as específicas à variante.
// Falha de validação aborta antes de qualquer estado ser criado.
func (p *Processor) validate(_ context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	if len(sale.Items) == 0 {
		return apperror.NewValidationError("A venda deve conter pelo menos um item.")
	}
	if sale.EstablishmentID == "" {
		return apperror.NewValidationError("ID do estabelecimento é obrigatório.")
	}
	return p.variant.Validate(sale)
}

// register atribui o ID monotônico e o timestamp da venda e a persiste. O
// registro inicial carrega o status Validated; as transições seguintes são
// refletidas na atualização final (conclusão ou falha).
func (p *Processor) register(ctx context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	sale.ID = p.deps.IDs.SaleID()
	sale.CreatedAt = p.deps.Clock.Now()

	if err := p.deps.Store.SaveSale(ctx, *sale); err != nil {
		return err
	}

	p.deps.Logger.Info("Venda registrada.", map[string]interface{}{"sale_id": sale.ID, "kind": sale.Kind})
	return nil
}

func (p *Processor) updateInventory(ctx context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	return p.variant.UpdateInventory(ctx, sale)
}

// computeTotals calcula o total de cada item (quantidade × valor unitário) e o
// total da venda.
func (p *Processor) computeTotals(_ context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	var total float64
	for i := range sale.Items {
		sale.Items[i].Total = sale.Items[i].Amount() * sale.Items[i].UnitPrice
		total += sale.Items[i].Total
	}
	sale.Total = total
	return nil
}

func (p *Processor) computeDiscount(_ context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	sale.Discount = p.variant.Discount(sale)
	return nil
}

func (p *Processor) computeTax(_ context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	sale.Tax = p.variant.Tax(sale)
	return nil
}

// issueReceipt emite o cupom fiscal com número sequencial. O cupom é imutável
// após emitido.
func (p *Processor) issueReceipt(ctx context.Context, sale *domain.Sale, result *domain.SaleResult) error {
	number, err := p.deps.Receipts.NextReceiptNumber(ctx)
	if err != nil {
		return err
	}

	receipt := domain.Receipt{
		Number:          number,
		IssuedAt:        p.deps.Clock.Now(),
		EstablishmentID: sale.EstablishmentID,
		SaleID:          sale.ID,
		Items:           append([]domain.SaleItem(nil), sale.Items...),
		TotalValue:      sale.Total,
		TaxValue:        sale.Tax,
		CustomerTaxID:   sale.CustomerTaxID,
	}

	if err := p.deps.Store.SaveReceipt(ctx, receipt); err != nil {
		return err
	}

	p.deps.Logger.Info("Cupom fiscal emitido.", map[string]interface{}{"number": number, "sale_id": sale.ID})
	result.Receipt = &receipt
	return nil
}

// processPayment submete valor e forma de pagamento ao autorizador e registra
// o status retornado.
func (p *Processor) processPayment(ctx context.Context, sale *domain.Sale, result *domain.SaleResult) error {
	paymentRecord, err := p.deps.Payments.Authorize(ctx, sale.ID, sale.Total, sale.PaymentMethod)
	if err != nil {
		return err
	}

	if err := p.deps.Store.SavePayment(ctx, paymentRecord); err != nil {
		return err
	}

	result.Payment = &paymentRecord
	return nil
}

func (p *Processor) finalize(ctx context.Context, sale *domain.Sale, _ *domain.SaleResult) error {
	return p.variant.Finalize(ctx, sale)
}

// requireSameKind rejeita itens com campos da outra variante preenchidos:
// requisições mistas (combustível e produto juntos) são erro de validação.
func requireSameKind(item domain.SaleItem, kind domain.SaleKind, index int) error {
	switch kind {
	case domain.SaleKindFuel:
		if item.ProductID != "" || item.Quantity != 0 {
			return apperror.NewValidationError(
				fmt.Sprintf("Item %d: venda de combustível não pode conter itens de produto.", index+1))
		}
	case domain.SaleKindProduct:
		if item.PumpID != "" || item.TankID != "" || item.Liters != 0 {
			return apperror.NewValidationError(
				fmt.Sprintf("Item %d: venda de produto não pode conter itens de combustível.", index+1))
		}
	}
	return nil
}
