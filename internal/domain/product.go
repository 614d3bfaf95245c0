package domain

import "time"

// Product representa um produto de conveniência vendido por unidade.
// O estoque de um produto é a soma das quantidades dos seus StockLocation.
type Product struct {
	ID            string    `json:"id"`
	SKU           string    `json:"sku"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	UnitPrice     float64   `json:"unit_price"`
	UnitOfMeasure string    `json:"unit_of_measure"` // e.g., "UN", "CX"
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StockLocation representa a quantidade de um produto em um local de armazenagem.
// Invariante permanente: Quantity >= 0.
// Inclui uma coluna 'version' para controle de concorrência otimista.
type StockLocation struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"product_id"`
	LocationID string    `json:"location_id"`
	Quantity   int       `json:"quantity"`
	Version    int       `json:"version"` // Para Controle de Concorrência Otimista (OCC)
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Tipos de movimentação de estoque.
const (
	MovementEntry     = "ENTRADA"
	MovementExit      = "SAIDA"
	MovementTransfer  = "TRANSFERENCIA"
	MovementInventory = "INVENTARIO"
)

// StockMovement é o registro de auditoria de cada movimentação aplicada.
// Criado automaticamente ao vender, transferir ou ajustar estoque.
type StockMovement struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"product_id,omitempty"`
	TankID        string    `json:"tank_id,omitempty"`
	PumpID        string    `json:"pump_id,omitempty"`
	LocationID    string    `json:"location_id,omitempty"`
	Type          string    `json:"type"`     // ENTRADA | SAIDA | TRANSFERENCIA | INVENTARIO
	Quantity      float64   `json:"quantity"` // Litros ou unidades, conforme o recurso
	PriorQuantity float64   `json:"prior_quantity"`
	NewQuantity   float64   `json:"new_quantity"`
	ReferenceID   string    `json:"reference_id,omitempty"` // e.g., ID da venda
	CreatedAt     time.Time `json:"created_at"`
}
