package allocation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopostos/internal/allocation"
	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
)

func newUnitDataset() *allocation.UnitDataset {
	return &allocation.UnitDataset{
		Products: []domain.Product{
			{ID: "p1", Description: "Óleo 20W50", Category: "lubrificantes", UnitPrice: 35.0},
			{ID: "p2", Description: "Óleo 5W30", Category: "lubrificantes", UnitPrice: 52.0},
			{ID: "p3", Description: "Água mineral", Category: "bebidas", UnitPrice: 4.5},
		},
		Locations: []*domain.StockLocation{
			{ProductID: "p1", LocationID: "loja", Quantity: 8},
			{ProductID: "p1", LocationID: "deposito", Quantity: 12},
			{ProductID: "p2", LocationID: "loja", Quantity: 3},
			{ProductID: "p3", LocationID: "loja", Quantity: 50},
		},
	}
}

// TestComputeAvailable_Aggregation verifica a agregação por produto sobre os
// locais e o valor total do estoque.
func TestComputeAvailable_Aggregation(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	snap, err := s.ComputeAvailable(ds)

	require.NoError(t, err)
	require.NotNil(t, snap.Unit)
	assert.Equal(t, 3, snap.Unit.SKUCount)
	assert.Equal(t, 8+12+3+50, snap.Unit.QuantityTotal)
	assert.InDelta(t, 20*35.0+3*52.0+50*4.5, snap.Unit.ValueTotal, 0.001)

	// p1 agrega dois locais.
	assert.Equal(t, "p1", snap.Unit.Products[0].ProductID)
	assert.Equal(t, 20, snap.Unit.Products[0].Quantity)
	assert.Len(t, snap.Unit.Products[0].Locations, 2)
}

// TestCheckAvailability_Sufficient verifica a disponibilidade com estoque agregado.
func TestCheckAvailability_Sufficient(t *testing.T) {
	s := allocation.NewUnitStrategy()

	res, err := s.CheckAvailability(newUnitDataset(), allocation.AvailabilityRequest{ProductID: "p1", Units: 15})

	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, 20, res.AvailableQty)
	assert.Empty(t, res.Alternatives)
}

// TestCheckAvailability_SuggestsAlternatives verifica que a insuficiência
// sugere produtos da mesma categoria com estoque positivo.
func TestCheckAvailability_SuggestsAlternatives(t *testing.T) {
	s := allocation.NewUnitStrategy()

	res, err := s.CheckAvailability(newUnitDataset(), allocation.AvailabilityRequest{ProductID: "p2", Units: 10})

	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, 3, res.AvailableQty)
	require.Len(t, res.Alternatives, 1)
	assert.Equal(t, "p1", res.Alternatives[0].ProductID)
	assert.Equal(t, 20, res.Alternatives[0].Available)
}

// TestCheckAvailability_UnknownProduct verifica NotFound para produto desconhecido.
func TestCheckAvailability_UnknownProduct(t *testing.T) {
	s := allocation.NewUnitStrategy()

	_, err := s.CheckAvailability(newUnitDataset(), allocation.AvailabilityRequest{ProductID: "p99", Units: 1})

	assert.Error(t, err)
	assert.IsType(t, &apperror.NotFoundError{}, err)
}

// TestApplyMovement_EntryCreatesLocation verifica que a entrada cria o registro
// de local quando ele não existe.
func TestApplyMovement_EntryCreatesLocation(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	res, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementEntry, ProductID: "p3", LocationID: "deposito", Units: 24,
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 0, res.PriorQuantity)
	assert.Equal(t, 24, res.NewQuantity)
	assert.Len(t, ds.Locations, 5)
}

// TestApplyMovement_ExitStrict verifica que a saída unitária com quantidade
// insuficiente falha sem mutar nenhum local (diferente da variante volumétrica).
func TestApplyMovement_ExitStrict(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	_, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementExit, ProductID: "p2", LocationID: "loja", Units: 5,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	// Nada mutado.
	for _, loc := range ds.Locations {
		if loc.ProductID == "p2" {
			assert.Equal(t, 3, loc.Quantity)
		}
	}
}

// TestApplyMovement_ExitSuccess verifica o decremento e o invariante de
// não-negatividade após a saída.
func TestApplyMovement_ExitSuccess(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	res, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementExit, ProductID: "p1", LocationID: "deposito", Units: 12,
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 12, res.PriorQuantity)
	assert.Equal(t, 0, res.NewQuantity)
	for _, loc := range ds.Locations {
		assert.GreaterOrEqual(t, loc.Quantity, 0)
	}
}

// TestApplyMovement_AggregateExit verifica a saída agregada (sem local): drena
// os locais do produto em ordem decrescente de quantidade e reporta os efeitos
// por local aplicado.
func TestApplyMovement_AggregateExit(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	res, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementExit, ProductID: "p1", Units: 15,
	})

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 15.0, res.Processed)
	assert.Equal(t, 5, res.AggregateRemaining)

	// O depósito (12) é drenado primeiro; a loja cobre o restante (3).
	require.Len(t, res.LocationEntries, 2)
	assert.Equal(t, "deposito", res.LocationEntries[0].LocationID)
	assert.Equal(t, 12, res.LocationEntries[0].Quantity)
	assert.Equal(t, 0, res.LocationEntries[0].NewQuantity)
	assert.Equal(t, "loja", res.LocationEntries[1].LocationID)
	assert.Equal(t, 3, res.LocationEntries[1].Quantity)
	assert.Equal(t, 5, res.LocationEntries[1].NewQuantity)
}

// TestApplyMovement_AggregateExitStrict verifica que o agregado insuficiente
// falha sem mutar nenhum local.
func TestApplyMovement_AggregateExitStrict(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	_, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementExit, ProductID: "p1", Units: 25,
	})

	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	for _, loc := range ds.Locations {
		if loc.ProductID == "p1" {
			assert.Contains(t, []int{8, 12}, loc.Quantity)
		}
	}
}

// TestApplyMovement_TransferAtomic verifica que a transferência move a
// quantidade inteira ou nada.
func TestApplyMovement_TransferAtomic(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	// Insuficiente: origem intacta, destino não criado.
	_, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementTransfer, ProductID: "p2",
		LocationID: "loja", DestLocationID: "deposito", Units: 10,
	})
	assert.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.Len(t, ds.Locations, 4)

	// Sucesso: origem decrementada, destino criado com a quantidade.
	res, err := s.ApplyMovement(ds, allocation.Movement{
		Direction: domain.MovementTransfer, ProductID: "p2",
		LocationID: "loja", DestLocationID: "deposito", Units: 2,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.NewQuantity)

	var source, dest int
	for _, loc := range ds.Locations {
		if loc.ProductID == "p2" && loc.LocationID == "loja" {
			source = loc.Quantity
		}
		if loc.ProductID == "p2" && loc.LocationID == "deposito" {
			dest = loc.Quantity
		}
	}
	assert.Equal(t, 1, source)
	assert.Equal(t, 2, dest)
}

// TestApplyMovement_InventoryIdempotent verifica que o ajuste de inventário é
// idempotente: a segunda aplicação do mesmo valor absoluto produz delta zero.
func TestApplyMovement_InventoryIdempotent(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()
	mv := allocation.Movement{
		Direction: domain.MovementInventory, ProductID: "p1", LocationID: "loja", Units: 30,
	}

	res, err := s.ApplyMovement(ds, mv)
	require.NoError(t, err)
	assert.Equal(t, 22, res.Delta) // 30 - 8
	assert.Equal(t, 30, res.NewQuantity)

	res, err = s.ApplyMovement(ds, mv)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Delta)
	assert.Equal(t, 30, res.NewQuantity)
}

// TestApplyMovement_Validation verifica as rejeições de payload inválido.
func TestApplyMovement_Validation(t *testing.T) {
	s := allocation.NewUnitStrategy()
	ds := newUnitDataset()

	_, err := s.ApplyMovement(ds, allocation.Movement{Direction: domain.MovementEntry, LocationID: "loja", Units: 1})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = s.ApplyMovement(ds, allocation.Movement{Direction: domain.MovementEntry, ProductID: "p1", LocationID: "loja", Units: 0})
	assert.IsType(t, &apperror.ValidationError{}, err)

	_, err = s.ApplyMovement(ds, allocation.Movement{Direction: "DESCONHECIDO", ProductID: "p1", LocationID: "loja", Units: 1})
	assert.IsType(t, &apperror.ValidationError{}, err)
}
