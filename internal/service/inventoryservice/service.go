package inventoryservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopostos/internal/allocation"
	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
	"gopostos/internal/pkg/cache"
	"gopostos/internal/pkg/logger"
)

// TankRepository é o contrato de persistência de tanques consumido pelo serviço.
type TankRepository interface {
	FindByID(ctx context.Context, tankID string) (*domain.Tank, error)
	FindByFuelType(ctx context.Context, establishmentID, fuelTypeID string) ([]*domain.Tank, error)
	FindFuelType(ctx context.Context, fuelTypeID string) (domain.FuelType, error)
	UpdateVolumes(ctx context.Context, tanks []*domain.Tank) error
}

// StockRepository é o contrato de persistência de locais de estoque e auditoria.
type StockRepository interface {
	FindLocations(ctx context.Context, productID string) ([]*domain.StockLocation, error)
	FindAllLocations(ctx context.Context) ([]*domain.StockLocation, error)
	UpsertLocations(ctx context.Context, locations []*domain.StockLocation) error
	SaveMovement(ctx context.Context, movement domain.StockMovement) error
}

// ProductRepository é o contrato de leitura de produtos consumido pelo serviço.
type ProductRepository interface {
	FindByID(ctx context.Context, id string) (domain.Product, error)
	FindByCategory(ctx context.Context, category string) ([]domain.Product, error)
	FindAll(ctx context.Context) ([]domain.Product, error)
}

// Config são os parâmetros operacionais do serviço de estoque.
type Config struct {
	// Consumo diário padrão (litros) usado quando o tipo de combustível não define o seu.
	DefaultDailyConsumption float64
	// Lead time padrão (dias) usado quando o tipo de combustível não define o seu.
	DefaultLeadTimeDays int
	// Máximo de novas tentativas de uma movimentação após conflito de concorrência.
	MovementMaxRetries int
	// TTL do cache de snapshots de disponibilidade.
	AvailabilityCacheTTL time.Duration
	// TTL do cache de alertas.
	AlertsCacheTTL time.Duration
}

// Service implementa as operações de estoque sobre as duas variantes
// (volumétrica e unitária), delegando o cálculo às estratégias de alocação e
// cuidando de carga, persistência com OCC, auditoria e cache.
//
// A exclusão é por recurso: movimentações de tanques de combustíveis distintos
// (ou de produtos distintos) nunca conflitam entre si; o conflito OCC só ocorre
// entre movimentações do mesmo recurso, e é resolvido recarregando e
// reaplicando, até o limite de tentativas.
type Service struct {
	tanks      TankRepository
	stock      StockRepository
	products   ProductRepository
	strategies *allocation.Context
	cache      cache.Client
	logger     logger.Logger
	cfg        Config
}

// NewService cria o serviço de estoque.
func NewService(tanks TankRepository, stock StockRepository, products ProductRepository,
	strategies *allocation.Context, cacheClient cache.Client, logger logger.Logger, cfg Config) *Service {
	return &Service{
		tanks:      tanks,
		stock:      stock,
		products:   products,
		strategies: strategies,
		cache:      cacheClient,
		logger:     logger,
		cfg:        cfg,
	}
}

// --- Chaves de cache ---

func availabilityCacheKey(selector domain.StockSelector) string {
	if selector.Kind == domain.StockVolumetric {
		return fmt.Sprintf("availability:%s:%s:%s", selector.Kind, selector.EstablishmentID, selector.FuelTypeID)
	}
	// Estoque unitário não é escopado por estabelecimento; a chave só carrega o produto.
	productID := selector.ProductID
	if productID == "" {
		productID = "all"
	}
	return fmt.Sprintf("availability:%s:%s", selector.Kind, productID)
}

func alertsCacheKey(establishmentID, fuelTypeID string) string {
	return fmt.Sprintf("alerts:%s:%s", establishmentID, fuelTypeID)
}

// invalidateAvailability remove os snapshots cacheados afetados por uma
// movimentação. Falhas de cache não interrompem a operação.
func (s *Service) invalidateAvailability(ctx context.Context, selector domain.StockSelector) {
	s.cache.Delete(ctx, availabilityCacheKey(selector))
	if selector.Kind == domain.StockUnit && selector.ProductID != "" {
		all := selector
		all.ProductID = ""
		s.cache.Delete(ctx, availabilityCacheKey(all))
	}
	if selector.Kind == domain.StockVolumetric {
		s.cache.Delete(ctx, alertsCacheKey(selector.EstablishmentID, selector.FuelTypeID))
	}
}

// --- Carga de datasets ---

// loadDataset materializa o dataset da variante pedida a partir da persistência.
func (s *Service) loadDataset(ctx context.Context, selector domain.StockSelector) (allocation.Dataset, error) {
	switch selector.Kind {
	case domain.StockVolumetric:
		if selector.FuelTypeID == "" {
			return nil, apperror.NewValidationError("ID do tipo de combustível é obrigatório para estoque volumétrico.")
		}
		tanks, err := s.tanks.FindByFuelType(ctx, selector.EstablishmentID, selector.FuelTypeID)
		if err != nil {
			return nil, err
		}
		if len(tanks) == 0 {
			return nil, apperror.NewNotFoundError(
				fmt.Sprintf("Nenhum tanque do combustível %s no estabelecimento %s.", selector.FuelTypeID, selector.EstablishmentID))
		}
		return &allocation.VolumetricDataset{FuelTypeID: selector.FuelTypeID, Tanks: tanks}, nil

	case domain.StockUnit:
		if selector.ProductID != "" {
			product, err := s.products.FindByID(ctx, selector.ProductID)
			if err != nil {
				return nil, err
			}
			locations, err := s.stock.FindLocations(ctx, selector.ProductID)
			if err != nil {
				return nil, err
			}
			return &allocation.UnitDataset{Products: []domain.Product{product}, Locations: locations}, nil
		}
		products, err := s.products.FindAll(ctx)
		if err != nil {
			return nil, err
		}
		locations, err := s.stock.FindAllLocations(ctx)
		if err != nil {
			return nil, err
		}
		return &allocation.UnitDataset{Products: products, Locations: locations}, nil

	default:
		return nil, apperror.NewValidationError(fmt.Sprintf("Variante de estoque desconhecida: %q", selector.Kind))
	}
}

// loadUnitDataset carrega o dataset unitário de um único produto.
func (s *Service) loadUnitDataset(ctx context.Context, productID string) (*allocation.UnitDataset, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	locations, err := s.stock.FindLocations(ctx, productID)
	if err != nil {
		return nil, err
	}
	return &allocation.UnitDataset{Products: []domain.Product{product}, Locations: locations}, nil
}

// loadUnitCategoryDataset carrega o produto pedido junto com os demais produtos
// da sua categoria e os locais de todos eles. As checagens de disponibilidade
// usam os pares de categoria para sugerir alternativas quando o estoque do
// produto não cobre o pedido.
func (s *Service) loadUnitCategoryDataset(ctx context.Context, productID string) (*allocation.UnitDataset, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	peers, err := s.products.FindByCategory(ctx, product.Category)
	if err != nil {
		return nil, err
	}

	dataset := &allocation.UnitDataset{Products: []domain.Product{product}}
	for _, peer := range peers {
		if peer.ID != product.ID {
			dataset.Products = append(dataset.Products, peer)
		}
	}

	for _, p := range dataset.Products {
		locations, err := s.stock.FindLocations(ctx, p.ID)
		if err != nil {
			return nil, err
		}
		dataset.Locations = append(dataset.Locations, locations...)
	}
	return dataset, nil
}

// --- Operações de consulta ---

// ComputeAvailability calcula o snapshot de disponibilidade da variante pedida,
// com cache-aside: snapshots são servidos do Redis dentro do TTL.
func (s *Service) ComputeAvailability(ctx context.Context, selector domain.StockSelector) (domain.AvailabilitySnapshot, error) {
	key := availabilityCacheKey(selector)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var snapshot domain.AvailabilitySnapshot
		if json.Unmarshal([]byte(cached), &snapshot) == nil {
			return snapshot, nil
		}
	}

	dataset, err := s.loadDataset(ctx, selector)
	if err != nil {
		return domain.AvailabilitySnapshot{}, err
	}

	strategy, err := s.strategies.StrategyFor(selector.Kind)
	if err != nil {
		return domain.AvailabilitySnapshot{}, err
	}

	snapshot, err := strategy.ComputeAvailable(dataset)
	if err != nil {
		return domain.AvailabilitySnapshot{}, err
	}

	if payload, marshalErr := json.Marshal(snapshot); marshalErr == nil {
		s.cache.Set(ctx, key, payload, s.cfg.AvailabilityCacheTTL)
	}

	return snapshot, nil
}

// CheckAvailability verifica se uma quantidade pedida pode ser atendida.
// Sempre consulta dados frescos: a resposta alimenta decisões de venda.
// Na variante unitária o dataset inclui os pares de categoria do produto, para
// que a insuficiência produza sugestões de alternativas.
func (s *Service) CheckAvailability(ctx context.Context, selector domain.StockSelector, req allocation.AvailabilityRequest) (domain.AvailabilityResult, error) {
	var dataset allocation.Dataset
	var err error
	if selector.Kind == domain.StockUnit && selector.ProductID != "" {
		dataset, err = s.loadUnitCategoryDataset(ctx, selector.ProductID)
	} else {
		dataset, err = s.loadDataset(ctx, selector)
	}
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	strategy, err := s.strategies.StrategyFor(selector.Kind)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}

	return strategy.CheckAvailability(dataset, req)
}

// --- Movimentações ---

// isConflict identifica o erro de concorrência otimista que autoriza nova tentativa.
func isConflict(err error) bool {
	var conflictErr *apperror.ConflictError
	return errors.As(err, &conflictErr)
}

// ApplyMovement aplica uma movimentação de estoque (entrada, saída,
// transferência ou inventário) com persistência OCC e nova tentativa em caso
// de conflito, até o limite configurado. Uma saída volumétrica parcial persiste
// a porção processada e retorna PartialFulfillmentError junto com o resultado.
func (s *Service) ApplyMovement(ctx context.Context, selector domain.StockSelector, mv allocation.Movement) (domain.MovementResult, error) {
	strategy, err := s.strategies.StrategyFor(selector.Kind)
	if err != nil {
		return domain.MovementResult{}, err
	}

	for attempt := 0; attempt < s.cfg.MovementMaxRetries; attempt++ {
		dataset, err := s.loadDataset(ctx, selector)
		if err != nil {
			return domain.MovementResult{}, err
		}

		result, err := strategy.ApplyMovement(dataset, mv)
		if err != nil {
			// Validação ou estoque insuficiente: nada foi mutado.
			return result, err
		}

		if err := s.persistDataset(ctx, dataset); err != nil {
			if isConflict(err) {
				s.logger.Warn("Conflito de concorrência em movimentação; tentando novamente.", map[string]interface{}{
					"kind":    selector.Kind,
					"attempt": attempt + 1,
				})
				continue
			}
			return domain.MovementResult{}, err
		}

		s.auditMovement(ctx, selector, mv, result)
		s.invalidateAvailability(ctx, selector)

		if !result.Success {
			// Saída volumétrica parcial: a porção drenada permanece efetivada.
			return result, apperror.NewPartialFulfillmentError(mv.Liters, result.Processed, result.Remainder)
		}
		return result, nil
	}

	return domain.MovementResult{}, apperror.NewConflictError(
		fmt.Sprintf("Movimentação abortada após %d tentativas por conflito de concorrência.", s.cfg.MovementMaxRetries))
}

// persistDataset grava o dataset mutado pela estratégia na persistência da
// variante correspondente.
func (s *Service) persistDataset(ctx context.Context, dataset allocation.Dataset) error {
	switch ds := dataset.(type) {
	case *allocation.VolumetricDataset:
		return s.tanks.UpdateVolumes(ctx, ds.Tanks)
	case *allocation.UnitDataset:
		return s.stock.UpsertLocations(ctx, ds.Locations)
	default:
		return apperror.NewInternalError("Dataset de variante desconhecida.", nil)
	}
}

// auditMovement grava o registro de auditoria da movimentação. Falha de
// auditoria não desfaz a movimentação já persistida; é logada e seguida.
func (s *Service) auditMovement(ctx context.Context, selector domain.StockSelector, mv allocation.Movement, result domain.MovementResult) {
	movement := domain.StockMovement{
		Type:     mv.Direction,
		Quantity: result.Processed,
	}
	if selector.Kind == domain.StockUnit {
		movement.ProductID = mv.ProductID
		movement.LocationID = result.LocationID
		movement.PriorQuantity = float64(result.PriorQuantity)
		movement.NewQuantity = float64(result.NewQuantity)
	}

	if err := s.stock.SaveMovement(ctx, movement); err != nil {
		s.logger.Error("Falha ao registrar auditoria de movimentação.", err)
	}

	// Movimentações volumétricas registram um lançamento por tanque afetado.
	if selector.Kind == domain.StockVolumetric {
		for _, entry := range result.Entries {
			tankMovement := domain.StockMovement{
				TankID:      entry.TankID,
				Type:        mv.Direction,
				Quantity:    entry.Quantity,
				NewQuantity: entry.FinalVolume,
			}
			if err := s.stock.SaveMovement(ctx, tankMovement); err != nil {
				s.logger.Error("Falha ao registrar auditoria de movimentação de tanque.", err)
			}
		}
	}
}

// --- Planejamento de reposição ---

// reorderParams resolve os parâmetros de consumo do combustível, caindo nos
// padrões da configuração quando o cadastro não os define.
func (s *Service) reorderParams(fuelType domain.FuelType) domain.ReorderParams {
	params := domain.ReorderParams{
		DailyConsumption: fuelType.DailyConsumption,
		LeadTimeDays:     fuelType.LeadTimeDays,
	}
	if params.DailyConsumption <= 0 {
		params.DailyConsumption = s.cfg.DefaultDailyConsumption
	}
	if params.LeadTimeDays <= 0 {
		params.LeadTimeDays = s.cfg.DefaultLeadTimeDays
	}
	return params
}

func (s *Service) volumetricDataset(ctx context.Context, establishmentID, fuelTypeID string) (*allocation.VolumetricDataset, domain.ReorderParams, error) {
	fuelType, err := s.tanks.FindFuelType(ctx, fuelTypeID)
	if err != nil {
		return nil, domain.ReorderParams{}, err
	}

	tanks, err := s.tanks.FindByFuelType(ctx, establishmentID, fuelTypeID)
	if err != nil {
		return nil, domain.ReorderParams{}, err
	}
	if len(tanks) == 0 {
		return nil, domain.ReorderParams{}, apperror.NewNotFoundError(
			fmt.Sprintf("Nenhum tanque do combustível %s no estabelecimento %s.", fuelTypeID, establishmentID))
	}

	return &allocation.VolumetricDataset{FuelTypeID: fuelTypeID, Tanks: tanks}, s.reorderParams(fuelType), nil
}

// ReorderReport calcula o ponto de reposição, estoque de segurança, quantidade
// recomendada de pedido e autonomia de um combustível.
func (s *Service) ReorderReport(ctx context.Context, establishmentID, fuelTypeID string) (domain.ReorderReport, error) {
	dataset, params, err := s.volumetricDataset(ctx, establishmentID, fuelTypeID)
	if err != nil {
		return domain.ReorderReport{}, err
	}
	return s.strategies.Volumetric().ComputeReorderPoint(dataset, params)
}

// GetAlerts calcula os alertas de reposição e nível de um combustível, com
// cache de curta duração: alertas toleram leve defasagem.
func (s *Service) GetAlerts(ctx context.Context, establishmentID, fuelTypeID string) ([]domain.Alert, error) {
	key := alertsCacheKey(establishmentID, fuelTypeID)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		var alerts []domain.Alert
		if json.Unmarshal([]byte(cached), &alerts) == nil {
			return alerts, nil
		}
	}

	dataset, params, err := s.volumetricDataset(ctx, establishmentID, fuelTypeID)
	if err != nil {
		return nil, err
	}

	alerts, err := s.strategies.Volumetric().GenerateAlerts(dataset, params)
	if err != nil {
		return nil, err
	}

	if payload, marshalErr := json.Marshal(alerts); marshalErr == nil {
		s.cache.Set(ctx, key, payload, s.cfg.AlertsCacheTTL)
	}

	return alerts, nil
}

// --- Portas consumidas pelo pipeline de vendas ---

// ExitTank drena litros do tanque informado via estratégia volumétrica, com OCC
// e nova tentativa em caso de conflito. Retorna o resultado mesmo quando a
// drenagem foi parcial: a porção drenada permanece efetivada e o erro de
// atendimento parcial é retornado junto.
func (s *Service) ExitTank(ctx context.Context, tankID string, liters float64, saleID string) (domain.MovementResult, error) {
	for attempt := 0; attempt < s.cfg.MovementMaxRetries; attempt++ {
		tank, err := s.tanks.FindByID(ctx, tankID)
		if err != nil {
			return domain.MovementResult{}, err
		}

		dataset := &allocation.VolumetricDataset{FuelTypeID: tank.FuelTypeID, Tanks: []*domain.Tank{tank}}
		result, err := s.strategies.Volumetric().ApplyMovement(dataset, allocation.Movement{
			Direction: domain.MovementExit,
			Liters:    liters,
		})
		if err != nil {
			return result, err
		}

		if err := s.tanks.UpdateVolumes(ctx, dataset.Tanks); err != nil {
			if isConflict(err) {
				continue
			}
			return domain.MovementResult{}, err
		}

		for _, entry := range result.Entries {
			movement := domain.StockMovement{
				TankID:      entry.TankID,
				Type:        domain.MovementExit,
				Quantity:    entry.Quantity,
				NewQuantity: entry.FinalVolume,
				ReferenceID: saleID,
			}
			if auditErr := s.stock.SaveMovement(ctx, movement); auditErr != nil {
				s.logger.Error("Falha ao registrar auditoria de saída de tanque.", auditErr)
			}
		}

		s.invalidateAvailability(ctx, domain.StockSelector{
			Kind:            domain.StockVolumetric,
			EstablishmentID: tank.EstablishmentID,
			FuelTypeID:      tank.FuelTypeID,
		})

		if !result.Success {
			return result, apperror.NewPartialFulfillmentError(liters, result.Processed, result.Remainder)
		}
		return result, nil
	}

	return domain.MovementResult{}, apperror.NewConflictError(
		fmt.Sprintf("Saída de tanque abortada após %d tentativas por conflito de concorrência.", s.cfg.MovementMaxRetries))
}

// RecordPumpMovement registra a saída medida pela bomba no trilho de auditoria.
func (s *Service) RecordPumpMovement(ctx context.Context, pumpID string, liters float64, saleID string) error {
	return s.stock.SaveMovement(ctx, domain.StockMovement{
		PumpID:      pumpID,
		Type:        domain.MovementExit,
		Quantity:    liters,
		ReferenceID: saleID,
	})
}

// CheckProduct verifica a disponibilidade agregada de um produto. O dataset
// inclui os pares de categoria: insuficiência sugere alternativas com estoque.
func (s *Service) CheckProduct(ctx context.Context, productID string, quantity int) (domain.AvailabilityResult, error) {
	dataset, err := s.loadUnitCategoryDataset(ctx, productID)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	return s.strategies.Unit().CheckAvailability(dataset, allocation.AvailabilityRequest{
		ProductID: productID,
		Units:     quantity,
	})
}

// ExitProduct decrementa unidades de um produto via saída agregada da
// estratégia unitária (locais drenados em ordem decrescente de quantidade),
// com OCC e nova tentativa em caso de conflito. A disponibilidade agregada já
// foi pré-checada pelo pipeline; ainda assim, estoque insuficiente aqui aborta
// sem mutar nada.
func (s *Service) ExitProduct(ctx context.Context, productID string, quantity int, saleID string) (domain.MovementResult, error) {
	for attempt := 0; attempt < s.cfg.MovementMaxRetries; attempt++ {
		dataset, err := s.loadUnitDataset(ctx, productID)
		if err != nil {
			return domain.MovementResult{}, err
		}

		result, err := s.strategies.Unit().ApplyMovement(dataset, allocation.Movement{
			Direction: domain.MovementExit,
			ProductID: productID,
			Units:     quantity,
		})
		if err != nil {
			return result, err
		}

		if err := s.stock.UpsertLocations(ctx, dataset.Locations); err != nil {
			if isConflict(err) {
				continue
			}
			return domain.MovementResult{}, err
		}

		for _, entry := range result.LocationEntries {
			movement := domain.StockMovement{
				ProductID:     productID,
				LocationID:    entry.LocationID,
				Type:          domain.MovementExit,
				Quantity:      float64(entry.Quantity),
				PriorQuantity: float64(entry.PriorQuantity),
				NewQuantity:   float64(entry.NewQuantity),
				ReferenceID:   saleID,
			}
			if auditErr := s.stock.SaveMovement(ctx, movement); auditErr != nil {
				s.logger.Error("Falha ao registrar auditoria de saída de produto.", auditErr)
			}
		}

		s.invalidateAvailability(ctx, domain.StockSelector{
			Kind:      domain.StockUnit,
			ProductID: productID,
		})

		return result, nil
	}

	return domain.MovementResult{}, apperror.NewConflictError(
		fmt.Sprintf("Saída de produto abortada após %d tentativas por conflito de concorrência.", s.cfg.MovementMaxRetries))
}
