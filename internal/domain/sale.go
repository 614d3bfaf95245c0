package domain

import "time"

// SaleKind identifica a variante de uma venda. Conjunto fechado: combustível ou produto.
type SaleKind string

const (
	SaleKindFuel    SaleKind = "COMBUSTIVEL"
	SaleKindProduct SaleKind = "PRODUTO"
)

// SaleItem é um item de venda. Uma requisição é polimórfica sobre o tipo do item:
// itens de combustível preenchem PumpID/TankID/Liters, itens de produto preenchem
// ProductID/Quantity. Todos os itens de uma mesma requisição devem ser do mesmo
// tipo; requisições mistas são erro de validação.
type SaleItem struct {
	// Campos de combustível
	PumpID string  `json:"pump_id,omitempty"`
	TankID string  `json:"tank_id,omitempty"`
	Liters float64 `json:"liters,omitempty"`

	// Campos de produto
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`

	UnitPrice float64 `json:"unit_price"`
	Total     float64 `json:"total"` // Preenchido pelo estágio ComputeTotals
}

// Amount retorna a quantidade vendida do item (litros ou unidades).
func (i SaleItem) Amount() float64 {
	if i.Liters > 0 {
		return i.Liters
	}
	return float64(i.Quantity)
}

// SaleRequest é a requisição de venda que entra no pipeline.
type SaleRequest struct {
	EstablishmentID string     `json:"establishment_id"`
	Kind            SaleKind   `json:"kind"`
	Items           []SaleItem `json:"items"`
	PaymentMethod   string     `json:"payment_method"`
	CustomerTaxID   string     `json:"customer_tax_id,omitempty"` // CPF/CNPJ opcional
}

// SaleStatus é o estado do ciclo de vida de uma venda. Máquina de estados:
// Created → Validated → Registered → StockUpdated → Totaled → ReceiptIssued →
// PaymentProcessed → Completed (terminal), com Failed (terminal) alcançável a
// partir de qualquer estado não terminal.
type SaleStatus string

const (
	SaleCreated          SaleStatus = "CRIADA"
	SaleValidated        SaleStatus = "VALIDADA"
	SaleRegistered       SaleStatus = "PROCESSANDO"
	SaleStockUpdated     SaleStatus = "ESTOQUE_ATUALIZADO"
	SaleTotaled          SaleStatus = "TOTALIZADA"
	SaleReceiptIssued    SaleStatus = "CUPOM_EMITIDO"
	SalePaymentProcessed SaleStatus = "PAGAMENTO_PROCESSADO"
	SaleCompleted        SaleStatus = "CONCLUIDA"
	SaleFailed           SaleStatus = "FALHA"
)

// Sale é o objeto de ciclo de vida criado no início do pipeline e mutado estágio
// a estágio. Pertence exclusivamente à invocação do pipeline que o criou; nunca é
// compartilhado entre vendas concorrentes.
type Sale struct {
	ID              string     `json:"id"`
	EstablishmentID string     `json:"establishment_id"`
	Kind            SaleKind   `json:"kind"`
	Items           []SaleItem `json:"items"`
	PaymentMethod   string     `json:"payment_method"`
	CustomerTaxID   string     `json:"customer_tax_id,omitempty"`
	Status          SaleStatus `json:"status"`
	Total           float64    `json:"total"`
	Discount        float64    `json:"discount"`
	Tax             float64    `json:"tax"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// Receipt é o cupom fiscal, imutável após emitido.
type Receipt struct {
	Number          string     `json:"number"` // Sequencial, formato CF-<n>
	IssuedAt        time.Time  `json:"issued_at"`
	EstablishmentID string     `json:"establishment_id"`
	SaleID          string     `json:"sale_id"`
	Items           []SaleItem `json:"items"`
	TotalValue      float64    `json:"total_value"`
	TaxValue        float64    `json:"tax_value"`
	CustomerTaxID   string     `json:"customer_tax_id,omitempty"`
}

// Status de pagamento retornados pelo autorizador.
const (
	PaymentApproved = "APROVADO"
	PaymentDeclined = "RECUSADO"
)

// Payment registra o resultado da autorização de pagamento de uma venda.
type Payment struct {
	SaleID    string    `json:"sale_id"`
	Amount    float64   `json:"amount"`
	Method    string    `json:"method"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// SaleResult é o resultado devolvido ao chamador de submitSale.
type SaleResult struct {
	Sale    Sale     `json:"sale"`
	Receipt *Receipt `json:"receipt,omitempty"`
	Payment *Payment `json:"payment,omitempty"`
}
