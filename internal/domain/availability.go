package domain

// StockKind identifica a variante de controle de estoque.
type StockKind string

const (
	StockVolumetric StockKind = "VOLUMETRICO" // Combustível a granel, em litros
	StockUnit       StockKind = "UNITARIO"    // Produtos discretos, em unidades
)

// StockSelector identifica o recurso alvo de uma consulta de disponibilidade.
type StockSelector struct {
	Kind            StockKind `json:"kind"`
	EstablishmentID string    `json:"establishment_id"`
	FuelTypeID      string    `json:"fuel_type_id,omitempty"` // Volumétrico
	ProductID       string    `json:"product_id,omitempty"`   // Unitário (opcional, filtra um produto)
}

// TankLevel é a visão de um tanque dentro do snapshot volumétrico.
type TankLevel struct {
	TankID      string  `json:"tank_id"`
	Capacity    float64 `json:"capacity"`
	Current     float64 `json:"current"`
	PercentFull float64 `json:"percent_full"`
}

// VolumetricAvailability é o snapshot de disponibilidade de um combustível.
// A margem de segurança (5% do volume total) é tratada como permanentemente
// indisponível.
type VolumetricAvailability struct {
	TotalVolume  float64     `json:"total_volume"`
	UsableVolume float64     `json:"usable_volume"`
	SafetyMargin float64     `json:"safety_margin"`
	Unit         string      `json:"unit"` // "LITROS"
	Tanks        []TankLevel `json:"tanks"`
}

// LocationQuantity é a quantidade de um produto em um local específico.
type LocationQuantity struct {
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

// ProductAvailability agrega o estoque de um produto sobre todos os seus locais.
type ProductAvailability struct {
	ProductID   string             `json:"product_id"`
	Description string             `json:"description"`
	Category    string             `json:"category"`
	Quantity    int                `json:"quantity"`
	Unit        string             `json:"unit"`
	StockValue  float64            `json:"stock_value"` // Quantity × UnitPrice
	Locations   []LocationQuantity `json:"locations"`
}

// UnitAvailability é o snapshot de disponibilidade do estoque unitário.
type UnitAvailability struct {
	QuantityTotal int                   `json:"quantity_total"`
	ValueTotal    float64               `json:"value_total"`
	SKUCount      int                   `json:"sku_count"`
	Products      []ProductAvailability `json:"products"`
}

// AvailabilitySnapshot é o resultado de computeAvailable, polimórfico sobre a
// variante: exatamente um dos dois campos está preenchido conforme Kind.
type AvailabilitySnapshot struct {
	Kind       StockKind               `json:"kind"`
	Volumetric *VolumetricAvailability `json:"volumetric,omitempty"`
	Unit       *UnitAvailability       `json:"unit,omitempty"`
}

// AlternativeProduct é uma sugestão de produto da mesma categoria com estoque
// positivo, devolvida quando a disponibilidade unitária é insuficiente.
type AlternativeProduct struct {
	ProductID   string `json:"product_id"`
	Description string `json:"description"`
	Available   int    `json:"available"`
}

// AvailabilityResult é o resultado de checkAvailability.
type AvailabilityResult struct {
	Kind      StockKind `json:"kind"`
	Available bool      `json:"available"`
	Message   string    `json:"message"`

	// Volumétrico
	UsableVolume      float64 `json:"usable_volume,omitempty"`
	RequestedLiters   float64 `json:"requested_liters,omitempty"`
	RecommendedTankID string  `json:"recommended_tank_id,omitempty"` // Tanque que sozinho atende o pedido
	NeedsDistribution bool    `json:"needs_distribution,omitempty"`  // Disponível, mas exige múltiplos tanques

	// Unitário
	ProductID    string               `json:"product_id,omitempty"`
	RequestedQty int                  `json:"requested_qty,omitempty"`
	AvailableQty int                  `json:"available_qty,omitempty"`
	Locations    []LocationQuantity   `json:"locations,omitempty"`
	Alternatives []AlternativeProduct `json:"alternatives,omitempty"`
}

// MovementTankEntry registra o efeito de uma movimentação volumétrica em um tanque.
type MovementTankEntry struct {
	TankID      string  `json:"tank_id"`
	Quantity    float64 `json:"quantity"`
	FinalVolume float64 `json:"final_volume"`
}

// MovementLocationEntry registra o efeito de uma saída agregada em um local.
type MovementLocationEntry struct {
	LocationID    string `json:"location_id"`
	Quantity      int    `json:"quantity"`
	PriorQuantity int    `json:"prior_quantity"`
	NewQuantity   int    `json:"new_quantity"`
}

// MovementResult é o resultado de applyMovement, para ambas as variantes.
type MovementResult struct {
	Success   bool    `json:"success"`
	Processed float64 `json:"processed"`
	Remainder float64 `json:"remainder"`
	Message   string  `json:"message,omitempty"`

	// Volumétrico: efeitos por tanque, na ordem em que foram aplicados
	Entries []MovementTankEntry `json:"entries,omitempty"`

	// Unitário
	LocationID         string                  `json:"location_id,omitempty"`
	PriorQuantity      int                     `json:"prior_quantity,omitempty"`
	NewQuantity        int                     `json:"new_quantity,omitempty"`
	Delta              int                     `json:"delta,omitempty"`               // Ajuste de inventário: diferença com sinal
	AggregateRemaining int                     `json:"aggregate_remaining,omitempty"` // Estoque agregado do produto após a saída
	LocationEntries    []MovementLocationEntry `json:"location_entries,omitempty"`    // Saída agregada: efeitos por local, na ordem aplicada
}

// Severidades de alerta de estoque.
type AlertSeverity string

const (
	AlertCritical AlertSeverity = "CRITICO"
	AlertWarning  AlertSeverity = "AVISO"
	AlertUrgent   AlertSeverity = "URGENTE"
)

// Ações sugeridas por um alerta.
const (
	ActionGeneratePurchaseOrder = "GERAR_PEDIDO_COMPRA"
	ActionCheckTank             = "VERIFICAR_TANQUE"
	ActionMonitor               = "MONITORAR"
	ActionEmergencyOrder        = "PEDIDO_EMERGENCIAL"
)

// Alert é um alerta de reposição/nível emitido pelo planejamento volumétrico.
type Alert struct {
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
	Action   string        `json:"action"`
	TankID   string        `json:"tank_id,omitempty"`
}

// ReorderParams são os parâmetros de consumo usados no cálculo de reposição.
type ReorderParams struct {
	DailyConsumption float64 `json:"daily_consumption"` // Litros/dia
	LeadTimeDays     int     `json:"lead_time_days"`
}

// ReorderReport é o resultado de computeReorderPoint.
type ReorderReport struct {
	ReorderPoint        float64 `json:"reorder_point"`
	RecommendedOrderQty float64 `json:"recommended_order_qty"` // 60% da capacidade total
	SafetyStock         float64 `json:"safety_stock"`          // 3 dias de consumo
	DailyConsumption    float64 `json:"daily_consumption"`
	AutonomyDays        int     `json:"autonomy_days"`
	PercentOfCapacity   float64 `json:"percent_of_capacity"` // Ponto de reposição como % da capacidade
}
