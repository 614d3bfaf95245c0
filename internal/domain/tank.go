package domain

import "time"

// Tank representa um tanque físico de combustível de um estabelecimento.
// Invariante permanente: 0 <= CurrentVolume <= Capacity.
// Inclui uma coluna 'version' para controle de concorrência otimista.
type Tank struct {
	ID              string    `json:"id"`
	EstablishmentID string    `json:"establishment_id"`
	FuelTypeID      string    `json:"fuel_type_id"`
	Capacity        float64   `json:"capacity"`       // Capacidade total em litros
	CurrentVolume   float64   `json:"current_volume"` // Volume atual em litros
	Version         int       `json:"version"`        // Para Controle de Concorrência Otimista (OCC)
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// FreeSpace retorna o espaço livre do tanque em litros.
func (t *Tank) FreeSpace() float64 {
	return t.Capacity - t.CurrentVolume
}

// PercentFull retorna o percentual de ocupação do tanque (0 a 100).
func (t *Tank) PercentFull() float64 {
	if t.Capacity <= 0 {
		return 0
	}
	return t.CurrentVolume / t.Capacity * 100
}

// Pump representa uma bomba de abastecimento ligada a um tanque.
type Pump struct {
	ID              string `json:"id"`
	EstablishmentID string `json:"establishment_id"`
	TankID          string `json:"tank_id"`
	Description     string `json:"description"`
}

// FuelType representa um tipo de combustível (a commodity fungível armazenada
// nos tanques). Carrega os parâmetros de reposição usados pelo planejamento.
type FuelType struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	PricePerLiter    float64 `json:"price_per_liter"`
	DailyConsumption float64 `json:"daily_consumption"` // Consumo médio diário em litros (0 = usar padrão da config)
	LeadTimeDays     int     `json:"lead_time_days"`    // Tempo de reposição em dias (0 = usar padrão da config)
}

// Establishment representa um posto. O CRUD completo fica fora do núcleo;
// o núcleo só precisa da identidade para escopar tanques e vendas.
type Establishment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
