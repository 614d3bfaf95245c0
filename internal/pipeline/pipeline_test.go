package pipeline_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pipeline"
	"gopostos/internal/pkg/logger"
)

// --- Dublês de teste ---

// fixedIDs devolve sempre o mesmo ID de venda.
type fixedIDs struct{ id string }

func (f fixedIDs) SaleID() string { return f.id }

// fixedClock devolve sempre o mesmo instante.
type fixedClock struct{ now time.Time }

func (f fixedClock) Now() time.Time { return f.now }

// MockSaleStore é uma implementação mock da interface SaleStore.
type MockSaleStore struct {
	mock.Mock
}

func (m *MockSaleStore) SaveSale(ctx context.Context, sale domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleStore) UpdateSale(ctx context.Context, sale domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleStore) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	args := m.Called(ctx, receipt)
	return args.Error(0)
}

func (m *MockSaleStore) SavePayment(ctx context.Context, payment domain.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

// MockReceipts é uma implementação mock da interface ReceiptNumberer.
type MockReceipts struct {
	mock.Mock
}

func (m *MockReceipts) NextReceiptNumber(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// MockPayments é uma implementação mock da interface PaymentAuthorizer.
type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Authorize(ctx context.Context, saleID string, amount float64, method string) (domain.Payment, error) {
	args := m.Called(ctx, saleID, amount, method)
	return args.Get(0).(domain.Payment), args.Error(1)
}

// MockFuelInventory é uma implementação mock da interface FuelInventory.
type MockFuelInventory struct {
	mock.Mock
}

func (m *MockFuelInventory) ExitTank(ctx context.Context, tankID string, liters float64, saleID string) (domain.MovementResult, error) {
	args := m.Called(ctx, tankID, liters, saleID)
	return args.Get(0).(domain.MovementResult), args.Error(1)
}

func (m *MockFuelInventory) RecordPumpMovement(ctx context.Context, pumpID string, liters float64, saleID string) error {
	args := m.Called(ctx, pumpID, liters, saleID)
	return args.Error(0)
}

// MockProductInventory é uma implementação mock da interface ProductInventory.
type MockProductInventory struct {
	mock.Mock
}

func (m *MockProductInventory) CheckProduct(ctx context.Context, productID string, quantity int) (domain.AvailabilityResult, error) {
	args := m.Called(ctx, productID, quantity)
	return args.Get(0).(domain.AvailabilityResult), args.Error(1)
}

func (m *MockProductInventory) ExitProduct(ctx context.Context, productID string, quantity int, saleID string) (domain.MovementResult, error) {
	args := m.Called(ctx, productID, quantity, saleID)
	return args.Get(0).(domain.MovementResult), args.Error(1)
}

// MockAlerts é uma implementação mock da interface AlertSink.
type MockAlerts struct {
	mock.Mock
}

func (m *MockAlerts) LowTankLevel(ctx context.Context, tankID string, volume float64) {
	m.Called(ctx, tankID, volume)
}

func (m *MockAlerts) ReplenishProduct(ctx context.Context, productID string, remaining int) {
	m.Called(ctx, productID, remaining)
}

// MockCompliance é uma implementação mock da interface ComplianceReporter.
type MockCompliance struct {
	mock.Mock
}

func (m *MockCompliance) Report(ctx context.Context, sale domain.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func testDeps(store *MockSaleStore, receipts *MockReceipts, payments *MockPayments) pipeline.Deps {
	return pipeline.Deps{
		IDs:      fixedIDs{id: "VND-1756700000000-abc123def"},
		Clock:    fixedClock{now: time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)},
		Store:    store,
		Receipts: receipts,
		Payments: payments,
		Logger:   logger.NewLogger("error"),
	}
}

func approvedPayment(saleID string, amount float64, method string) domain.Payment {
	return domain.Payment{
		SaleID: saleID,
		Amount: amount,
		Method: method,
		Status: domain.PaymentApproved,
	}
}

// --- Variante de combustível ---

// TestFuelSale_Success testa o fluxo completo de uma venda de combustível:
// drenagem do tanque, registro da bomba, imposto de 27%, cupom e pagamento.
func TestFuelSale_Success(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)
	alerts := new(MockAlerts)
	compliance := new(MockCompliance)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, alerts, compliance,
		pipeline.FuelConfig{LowTankThreshold: 1000, ComplianceThreshold: 1000})

	store.On("SaveSale", mock.Anything, mock.AnythingOfType("domain.Sale")).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.AnythingOfType("domain.Sale")).Return(nil)
	store.On("SaveReceipt", mock.Anything, mock.AnythingOfType("domain.Receipt")).Return(nil)
	store.On("SavePayment", mock.Anything, mock.AnythingOfType("domain.Payment")).Return(nil)
	receipts.On("NextReceiptNumber", mock.Anything).Return("CF-42", nil)

	inventory.On("ExitTank", mock.Anything, "tank-1", 40.0, mock.AnythingOfType("string")).
		Return(domain.MovementResult{
			Success:   true,
			Processed: 40,
			Entries:   []domain.MovementTankEntry{{TankID: "tank-1", Quantity: 40, FinalVolume: 4960}},
		}, nil)
	inventory.On("RecordPumpMovement", mock.Anything, "pump-1", 40.0, mock.AnythingOfType("string")).Return(nil)

	payments.On("Authorize", mock.Anything, mock.AnythingOfType("string"), 240.0, "PIX").
		Return(approvedPayment("VND-1756700000000-abc123def", 240.0, "PIX"), nil)

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items:           []domain.SaleItem{{PumpID: "pump-1", TankID: "tank-1", Liters: 40, UnitPrice: 6.0}},
		PaymentMethod:   "PIX",
	}

	result, err := proc.Process(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.SaleCompleted, result.Sale.Status)
	assert.Equal(t, "VND-1756700000000-abc123def", result.Sale.ID)
	assert.Equal(t, 240.0, result.Sale.Total)
	assert.Equal(t, 0.0, result.Sale.Discount) // Combustível não tem desconto
	assert.InDelta(t, 64.8, result.Sale.Tax, 1e-9)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "CF-42", result.Receipt.Number)
	require.NotNil(t, result.Payment)
	assert.Equal(t, domain.PaymentApproved, result.Payment.Status)

	// Venda abaixo do limiar regulatório: sem reporte
	compliance.AssertNotCalled(t, "Report", mock.Anything, mock.Anything)
	alerts.AssertNotCalled(t, "LowTankLevel", mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
	inventory.AssertExpectations(t)
	payments.AssertExpectations(t)
}

// TestFuelSale_StatusAdvancesOnStageCompletion testa que o status da venda só
// reflete estágios concluídos: a persistência inicial carrega o estado validado
// (o registro ainda não concluiu) e a venda retorna concluída ao final.
func TestFuelSale_StatusAdvancesOnStageCompletion(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, new(MockAlerts), new(MockCompliance),
		pipeline.FuelConfig{LowTankThreshold: 1000, ComplianceThreshold: 10000})

	var registered domain.Sale
	store.On("SaveSale", mock.Anything, mock.AnythingOfType("domain.Sale")).
		Run(func(args mock.Arguments) {
			registered = args.Get(1).(domain.Sale)
		}).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveReceipt", mock.Anything, mock.Anything).Return(nil)
	store.On("SavePayment", mock.Anything, mock.Anything).Return(nil)
	receipts.On("NextReceiptNumber", mock.Anything).Return("CF-46", nil)
	inventory.On("ExitTank", mock.Anything, "tank-1", 20.0, mock.Anything).
		Return(domain.MovementResult{Success: true, Processed: 20,
			Entries: []domain.MovementTankEntry{{TankID: "tank-1", Quantity: 20, FinalVolume: 4000}}}, nil)
	inventory.On("RecordPumpMovement", mock.Anything, "pump-1", 20.0, mock.Anything).Return(nil)
	payments.On("Authorize", mock.Anything, mock.Anything, 120.0, "PIX").
		Return(approvedPayment("VND-1756700000000-abc123def", 120.0, "PIX"), nil)

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items:           []domain.SaleItem{{PumpID: "pump-1", TankID: "tank-1", Liters: 20, UnitPrice: 6.0}},
		PaymentMethod:   "PIX",
	}

	result, err := proc.Process(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.SaleValidated, registered.Status)
	assert.Equal(t, domain.SaleCompleted, result.Sale.Status)
}

// TestFuelSale_ComplianceReport testa que vendas acima do limiar disparam o
// reporte regulatório na finalização.
func TestFuelSale_ComplianceReport(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)
	alerts := new(MockAlerts)
	compliance := new(MockCompliance)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, alerts, compliance,
		pipeline.FuelConfig{LowTankThreshold: 1000, ComplianceThreshold: 1000})

	store.On("SaveSale", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveReceipt", mock.Anything, mock.Anything).Return(nil)
	store.On("SavePayment", mock.Anything, mock.Anything).Return(nil)
	receipts.On("NextReceiptNumber", mock.Anything).Return("CF-43", nil)

	// 300 litros a 6.0 = 1800, acima do limiar de 1000
	inventory.On("ExitTank", mock.Anything, "tank-1", 300.0, mock.Anything).
		Return(domain.MovementResult{Success: true, Processed: 300,
			Entries: []domain.MovementTankEntry{{TankID: "tank-1", Quantity: 300, FinalVolume: 4700}}}, nil)
	inventory.On("RecordPumpMovement", mock.Anything, "pump-1", 300.0, mock.Anything).Return(nil)
	payments.On("Authorize", mock.Anything, mock.Anything, 1800.0, "DINHEIRO").
		Return(approvedPayment("VND-1756700000000-abc123def", 1800.0, "DINHEIRO"), nil)
	compliance.On("Report", mock.Anything, mock.AnythingOfType("domain.Sale")).Return(nil)

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items:           []domain.SaleItem{{PumpID: "pump-1", TankID: "tank-1", Liters: 300, UnitPrice: 6.0}},
		PaymentMethod:   "DINHEIRO",
	}

	result, err := proc.Process(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, domain.SaleCompleted, result.Sale.Status)
	compliance.AssertExpectations(t)
}

// TestFuelSale_LowTankAlert testa que a drenagem que deixa o tanque abaixo do
// limiar de nível baixo emite o alerta.
func TestFuelSale_LowTankAlert(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)
	alerts := new(MockAlerts)
	compliance := new(MockCompliance)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, alerts, compliance,
		pipeline.FuelConfig{LowTankThreshold: 1000, ComplianceThreshold: 10000})

	store.On("SaveSale", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveReceipt", mock.Anything, mock.Anything).Return(nil)
	store.On("SavePayment", mock.Anything, mock.Anything).Return(nil)
	receipts.On("NextReceiptNumber", mock.Anything).Return("CF-44", nil)

	inventory.On("ExitTank", mock.Anything, "tank-1", 50.0, mock.Anything).
		Return(domain.MovementResult{Success: true, Processed: 50,
			Entries: []domain.MovementTankEntry{{TankID: "tank-1", Quantity: 50, FinalVolume: 950}}}, nil)
	inventory.On("RecordPumpMovement", mock.Anything, "pump-1", 50.0, mock.Anything).Return(nil)
	payments.On("Authorize", mock.Anything, mock.Anything, 300.0, "DEBITO").
		Return(approvedPayment("VND-1756700000000-abc123def", 300.0, "DEBITO"), nil)
	alerts.On("LowTankLevel", mock.Anything, "tank-1", 950.0).Return()

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items:           []domain.SaleItem{{PumpID: "pump-1", TankID: "tank-1", Liters: 50, UnitPrice: 6.0}},
		PaymentMethod:   "DEBITO",
	}

	_, err := proc.Process(context.Background(), req)

	require.NoError(t, err)
	alerts.AssertExpectations(t)
}

// TestFuelSale_PartialExit_FailsButMutationStands testa que uma drenagem
// parcial falha a venda, propaga o erro verbatim e não emite cupom nem
// pagamento — mas a porção já drenada permanece efetivada no estoque.
func TestFuelSale_PartialExit_FailsButMutationStands(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)
	alerts := new(MockAlerts)
	compliance := new(MockCompliance)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, alerts, compliance,
		pipeline.FuelConfig{LowTankThreshold: 1000, ComplianceThreshold: 10000})

	store.On("SaveSale", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)

	partialErr := apperror.NewPartialFulfillmentError(800, 500, 300)
	inventory.On("ExitTank", mock.Anything, "tank-1", 800.0, mock.Anything).
		Return(domain.MovementResult{
			Success:   false,
			Processed: 500,
			Remainder: 300,
			Entries:   []domain.MovementTankEntry{{TankID: "tank-1", Quantity: 500, FinalVolume: 0}},
		}, partialErr)
	// O tanque ficou em zero: o alerta de nível baixo vale mesmo na falha
	alerts.On("LowTankLevel", mock.Anything, "tank-1", 0.0).Return()

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items:           []domain.SaleItem{{PumpID: "pump-1", TankID: "tank-1", Liters: 800, UnitPrice: 6.0}},
		PaymentMethod:   "PIX",
	}

	result, err := proc.Process(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, partialErr, err) // Erro propagado sem alteração
	assert.Equal(t, domain.SaleFailed, result.Sale.Status)
	assert.NotEmpty(t, result.Sale.FailureReason)
	assert.Nil(t, result.Receipt)
	assert.Nil(t, result.Payment)

	receipts.AssertNotCalled(t, "NextReceiptNumber", mock.Anything)
	payments.AssertNotCalled(t, "Authorize", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	inventory.AssertNotCalled(t, "RecordPumpMovement", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	alerts.AssertExpectations(t)
	store.AssertExpectations(t)
}

// TestFuelSale_Fail_MixedItems testa que itens de produto em uma venda de
// combustível são rejeitados na validação, antes de qualquer persistência.
func TestFuelSale_Fail_MixedItems(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, new(MockAlerts), new(MockCompliance),
		pipeline.FuelConfig{LowTankThreshold: 1000, ComplianceThreshold: 1000})

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items: []domain.SaleItem{
			{PumpID: "pump-1", TankID: "tank-1", Liters: 10, UnitPrice: 6.0},
			{ProductID: "prod-1", Quantity: 2, UnitPrice: 5.0},
		},
		PaymentMethod: "PIX",
	}

	result, err := proc.Process(context.Background(), req)

	require.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	assert.Equal(t, domain.SaleFailed, result.Sale.Status)
	assert.Empty(t, result.Sale.ID) // Falhou antes do registro

	store.AssertNotCalled(t, "SaveSale", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "UpdateSale", mock.Anything, mock.Anything)
	inventory.AssertNotCalled(t, "ExitTank", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// TestFuelSale_Fail_PaymentDownstream testa que a falha do autorizador leva a
// venda a Failed e persiste o estado final.
func TestFuelSale_Fail_PaymentDownstream(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockFuelInventory)

	proc := pipeline.NewFuelProcessor(testDeps(store, receipts, payments), inventory, new(MockAlerts), new(MockCompliance),
		pipeline.FuelConfig{LowTankThreshold: 100, ComplianceThreshold: 10000})

	store.On("SaveSale", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveReceipt", mock.Anything, mock.Anything).Return(nil)
	receipts.On("NextReceiptNumber", mock.Anything).Return("CF-45", nil)
	inventory.On("ExitTank", mock.Anything, "tank-1", 20.0, mock.Anything).
		Return(domain.MovementResult{Success: true, Processed: 20,
			Entries: []domain.MovementTankEntry{{TankID: "tank-1", Quantity: 20, FinalVolume: 4000}}}, nil)
	inventory.On("RecordPumpMovement", mock.Anything, "pump-1", 20.0, mock.Anything).Return(nil)

	downstreamErr := apperror.NewDownstreamError("autorizar pagamento", errors.New("gateway indisponível"))
	payments.On("Authorize", mock.Anything, mock.Anything, 120.0, "CREDITO").
		Return(domain.Payment{}, downstreamErr)

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindFuel,
		Items:           []domain.SaleItem{{PumpID: "pump-1", TankID: "tank-1", Liters: 20, UnitPrice: 6.0}},
		PaymentMethod:   "CREDITO",
	}

	result, err := proc.Process(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, downstreamErr, err)
	assert.Equal(t, domain.SaleFailed, result.Sale.Status)
	assert.Nil(t, result.Payment)
	store.AssertNotCalled(t, "SavePayment", mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

// --- Variante de produtos ---

func productHappyMocks(store *MockSaleStore, receipts *MockReceipts, payments *MockPayments, amount float64, method string) {
	store.On("SaveSale", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)
	store.On("SaveReceipt", mock.Anything, mock.Anything).Return(nil)
	store.On("SavePayment", mock.Anything, mock.Anything).Return(nil)
	receipts.On("NextReceiptNumber", mock.Anything).Return("CF-50", nil)
	payments.On("Authorize", mock.Anything, mock.Anything, amount, method).
		Return(approvedPayment("VND-1756700000000-abc123def", amount, method), nil)
}

// TestProductSale_DiscountTiers testa as faixas de desconto por quantidade:
// 10% a partir de 10 unidades, 5% a partir de 5, nada abaixo disso.
func TestProductSale_DiscountTiers(t *testing.T) {
	cases := []struct {
		name     string
		quantity int
		expected float64 // Desconto sobre itens de preço unitário 10.0
	}{
		{"dez unidades recebem 10%", 10, 10.0},
		{"sete unidades recebem 5%", 7, 3.5},
		{"tres unidades sem desconto", 3, 0.0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := new(MockSaleStore)
			receipts := new(MockReceipts)
			payments := new(MockPayments)
			inventory := new(MockProductInventory)
			alerts := new(MockAlerts)

			proc := pipeline.NewProductProcessor(testDeps(store, receipts, payments), inventory, alerts,
				pipeline.ProductConfig{ReplenishThreshold: 10})

			total := float64(tc.quantity) * 10.0
			productHappyMocks(store, receipts, payments, total, "DINHEIRO")
			inventory.On("CheckProduct", mock.Anything, "prod-1", tc.quantity).
				Return(domain.AvailabilityResult{Kind: domain.StockUnit, Available: true, AvailableQty: 100}, nil)
			inventory.On("ExitProduct", mock.Anything, "prod-1", tc.quantity, mock.Anything).
				Return(domain.MovementResult{Success: true, Processed: float64(tc.quantity), AggregateRemaining: 100 - tc.quantity}, nil)

			req := domain.SaleRequest{
				EstablishmentID: "est-1",
				Kind:            domain.SaleKindProduct,
				Items:           []domain.SaleItem{{ProductID: "prod-1", Quantity: tc.quantity, UnitPrice: 10.0}},
				PaymentMethod:   "DINHEIRO",
			}

			result, err := proc.Process(context.Background(), req)

			require.NoError(t, err)
			assert.InDelta(t, tc.expected, result.Sale.Discount, 1e-9)
			assert.InDelta(t, total*0.18, result.Sale.Tax, 1e-9)
		})
	}
}

// TestProductSale_IdentifiedCustomerBonus testa o bônus de 2% sobre o total da
// venda quando o cliente informa CPF/CNPJ, acumulado com a faixa por quantidade.
func TestProductSale_IdentifiedCustomerBonus(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockProductInventory)
	alerts := new(MockAlerts)

	proc := pipeline.NewProductProcessor(testDeps(store, receipts, payments), inventory, alerts,
		pipeline.ProductConfig{ReplenishThreshold: 5})

	// 10 unidades a 10.0 = 100.0: 10% do item + 2% do total = 12.0
	productHappyMocks(store, receipts, payments, 100.0, "PIX")
	inventory.On("CheckProduct", mock.Anything, "prod-1", 10).
		Return(domain.AvailabilityResult{Kind: domain.StockUnit, Available: true, AvailableQty: 50}, nil)
	inventory.On("ExitProduct", mock.Anything, "prod-1", 10, mock.Anything).
		Return(domain.MovementResult{Success: true, Processed: 10, AggregateRemaining: 40}, nil)

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindProduct,
		Items:           []domain.SaleItem{{ProductID: "prod-1", Quantity: 10, UnitPrice: 10.0}},
		PaymentMethod:   "PIX",
		CustomerTaxID:   "123.456.789-00",
	}

	result, err := proc.Process(context.Background(), req)

	require.NoError(t, err)
	assert.InDelta(t, 12.0, result.Sale.Discount, 1e-9)
	require.NotNil(t, result.Receipt)
	assert.Equal(t, "123.456.789-00", result.Receipt.CustomerTaxID)
}

// TestProductSale_Fail_InsufficientStock testa que a pré-checagem aborta a
// venda inteira antes de qualquer decremento quando um item não tem estoque.
func TestProductSale_Fail_InsufficientStock(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockProductInventory)
	alerts := new(MockAlerts)

	proc := pipeline.NewProductProcessor(testDeps(store, receipts, payments), inventory, alerts,
		pipeline.ProductConfig{ReplenishThreshold: 10})

	store.On("SaveSale", mock.Anything, mock.Anything).Return(nil)
	store.On("UpdateSale", mock.Anything, mock.Anything).Return(nil)

	// O primeiro item tem estoque; o segundo não. Nenhum dos dois pode ser decrementado.
	inventory.On("CheckProduct", mock.Anything, "prod-1", 2).
		Return(domain.AvailabilityResult{Kind: domain.StockUnit, Available: true, AvailableQty: 20}, nil)
	inventory.On("CheckProduct", mock.Anything, "prod-2", 8).
		Return(domain.AvailabilityResult{Kind: domain.StockUnit, Available: false, AvailableQty: 3}, nil)

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindProduct,
		Items: []domain.SaleItem{
			{ProductID: "prod-1", Quantity: 2, UnitPrice: 5.0},
			{ProductID: "prod-2", Quantity: 8, UnitPrice: 4.0},
		},
		PaymentMethod: "DINHEIRO",
	}

	result, err := proc.Process(context.Background(), req)

	require.Error(t, err)
	assert.IsType(t, &apperror.InsufficientStockError{}, err)
	assert.Equal(t, domain.SaleFailed, result.Sale.Status)
	assert.Nil(t, result.Receipt)

	inventory.AssertNotCalled(t, "ExitProduct", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	receipts.AssertNotCalled(t, "NextReceiptNumber", mock.Anything)
	store.AssertExpectations(t)
}

// TestProductSale_ReplenishAlert testa que a saída que deixa o estoque agregado
// no limiar de reposição (ou abaixo) emite o alerta.
func TestProductSale_ReplenishAlert(t *testing.T) {
	store := new(MockSaleStore)
	receipts := new(MockReceipts)
	payments := new(MockPayments)
	inventory := new(MockProductInventory)
	alerts := new(MockAlerts)

	proc := pipeline.NewProductProcessor(testDeps(store, receipts, payments), inventory, alerts,
		pipeline.ProductConfig{ReplenishThreshold: 10})

	productHappyMocks(store, receipts, payments, 20.0, "DINHEIRO")
	inventory.On("CheckProduct", mock.Anything, "prod-1", 4).
		Return(domain.AvailabilityResult{Kind: domain.StockUnit, Available: true, AvailableQty: 12}, nil)
	inventory.On("ExitProduct", mock.Anything, "prod-1", 4, mock.Anything).
		Return(domain.MovementResult{Success: true, Processed: 4, AggregateRemaining: 8}, nil)
	alerts.On("ReplenishProduct", mock.Anything, "prod-1", 8).Return()

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindProduct,
		Items:           []domain.SaleItem{{ProductID: "prod-1", Quantity: 4, UnitPrice: 5.0}},
		PaymentMethod:   "DINHEIRO",
	}

	_, err := proc.Process(context.Background(), req)

	require.NoError(t, err)
	alerts.AssertExpectations(t)
}

// TestProductSale_Fail_EmptyItems testa a rejeição de requisições sem itens.
func TestProductSale_Fail_EmptyItems(t *testing.T) {
	store := new(MockSaleStore)
	proc := pipeline.NewProductProcessor(testDeps(store, new(MockReceipts), new(MockPayments)),
		new(MockProductInventory), new(MockAlerts), pipeline.ProductConfig{ReplenishThreshold: 10})

	req := domain.SaleRequest{
		EstablishmentID: "est-1",
		Kind:            domain.SaleKindProduct,
		PaymentMethod:   "DINHEIRO",
	}

	_, err := proc.Process(context.Background(), req)

	require.Error(t, err)
	assert.IsType(t, &apperror.ValidationError{}, err)
	store.AssertNotCalled(t, "SaveSale", mock.Anything, mock.Anything)
}
