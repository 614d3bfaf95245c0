package allocation

import (
	"fmt"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
)

// Dataset é o conjunto de dados em memória sobre o qual uma estratégia opera.
// As estratégias mutam o dataset; persistir o resultado é responsabilidade do
// chamador (camada de serviço), que também escopa a exclusão por recurso.
type Dataset interface {
	Kind() domain.StockKind
}

// VolumetricDataset são os tanques de um combustível em um estabelecimento.
type VolumetricDataset struct {
	FuelTypeID string
	Tanks      []*domain.Tank
}

// Kind identifica o dataset como volumétrico.
func (*VolumetricDataset) Kind() domain.StockKind { return domain.StockVolumetric }

// UnitDataset são os produtos e seus locais de armazenagem.
type UnitDataset struct {
	Products  []domain.Product
	Locations []*domain.StockLocation
}

// Kind identifica o dataset como unitário.
func (*UnitDataset) Kind() domain.StockKind { return domain.StockUnit }

// Movement descreve uma movimentação de estoque a aplicar. O campo Liters é
// usado pela variante volumétrica; ProductID/LocationID/Units pela unitária.
type Movement struct {
	Direction string // ENTRADA | SAIDA | TRANSFERENCIA | INVENTARIO

	// Volumétrico
	Liters float64

	// Unitário
	ProductID      string
	LocationID     string
	DestLocationID string // TRANSFERENCIA
	Units          int    // Quantidade (ou valor absoluto alvo, em INVENTARIO)
}

// AvailabilityRequest descreve uma consulta de disponibilidade.
type AvailabilityRequest struct {
	Liters    float64 // Volumétrico
	ProductID string  // Unitário
	Units     int     // Unitário
}

// Strategy é a capacidade comum às duas variantes de controle de estoque.
// Conjunto fechado: as implementações concretas são VolumetricStrategy e
// UnitStrategy, construídas apenas pelas fábricas deste pacote.
type Strategy interface {
	Kind() domain.StockKind
	ComputeAvailable(ds Dataset) (domain.AvailabilitySnapshot, error)
	CheckAvailability(ds Dataset, req AvailabilityRequest) (domain.AvailabilityResult, error)
	ApplyMovement(ds Dataset, mv Movement) (domain.MovementResult, error)
}

// Context é o despachante fino que liga uma requisição de venda/consulta à
// variante correta de estratégia. Cada chamador recebe instâncias explícitas e
// independentes; não há estado global.
type Context struct {
	volumetric *VolumetricStrategy
	unit       *UnitStrategy
}

// NewContext cria um despachante com as duas variantes concretas.
func NewContext() *Context {
	return &Context{
		volumetric: NewVolumetricStrategy(),
		unit:       NewUnitStrategy(),
	}
}

// StrategyFor devolve a estratégia da variante pedida.
func (c *Context) StrategyFor(kind domain.StockKind) (Strategy, error) {
	switch kind {
	case domain.StockVolumetric:
		return c.volumetric, nil
	case domain.StockUnit:
		return c.unit, nil
	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("Variante de estoque desconhecida: %q", kind))
	}
}

// Volumetric devolve a variante volumétrica tipada, para as operações que só
// ela oferece (ponto de reposição, alertas).
func (c *Context) Volumetric() *VolumetricStrategy { return c.volumetric }

// Unit devolve a variante unitária tipada.
func (c *Context) Unit() *UnitStrategy { return c.unit }
