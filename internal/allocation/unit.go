package allocation

import (
	"fmt"
	"sort"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
)

// UnitStrategy controla produtos discretos, em unidades, distribuídos em
// múltiplos locais de armazenagem.
type UnitStrategy struct{}

// NewUnitStrategy cria a estratégia unitária.
func NewUnitStrategy() *UnitStrategy { return &UnitStrategy{} }

// Kind identifica a variante.
func (*UnitStrategy) Kind() domain.StockKind { return domain.StockUnit }

func unitDataset(ds Dataset) (*UnitDataset, error) {
	uds, ok := ds.(*UnitDataset)
	if !ok {
		return nil, apperror.NewValidationError("Dataset unitário esperado pela estratégia de produtos.")
	}
	return uds, nil
}

// aggregate soma a quantidade de um produto sobre todos os seus locais.
func (s *UnitStrategy) aggregate(uds *UnitDataset, productID string) (int, []domain.LocationQuantity) {
	var total int
	var locations []domain.LocationQuantity
	for _, loc := range uds.Locations {
		if loc.ProductID != productID {
			continue
		}
		total += loc.Quantity
		locations = append(locations, domain.LocationQuantity{
			LocationID: loc.LocationID,
			Quantity:   loc.Quantity,
		})
	}
	return total, locations
}

// findLocation localiza o registro de estoque de um produto em um local.
func (s *UnitStrategy) findLocation(uds *UnitDataset, productID, locationID string) *domain.StockLocation {
	for _, loc := range uds.Locations {
		if loc.ProductID == productID && loc.LocationID == locationID {
			return loc
		}
	}
	return nil
}

// ComputeAvailable agrega o estoque por produto sobre todos os locais e calcula
// o valor total imobilizado (quantidade × preço unitário).
func (s *UnitStrategy) ComputeAvailable(ds Dataset) (domain.AvailabilitySnapshot, error) {
	uds, err := unitDataset(ds)
	if err != nil {
		return domain.AvailabilitySnapshot{}, err
	}

	unit := &domain.UnitAvailability{SKUCount: len(uds.Products)}
	for _, p := range uds.Products {
		qty, locations := s.aggregate(uds, p.ID)
		measure := p.UnitOfMeasure
		if measure == "" {
			measure = "UN"
		}
		pa := domain.ProductAvailability{
			ProductID:   p.ID,
			Description: p.Description,
			Category:    p.Category,
			Quantity:    qty,
			Unit:        measure,
			StockValue:  float64(qty) * p.UnitPrice,
			Locations:   locations,
		}
		unit.QuantityTotal += qty
		unit.ValueTotal += pa.StockValue
		unit.Products = append(unit.Products, pa)
	}

	return domain.AvailabilitySnapshot{Kind: domain.StockUnit, Unit: unit}, nil
}

// CheckAvailability verifica se o estoque agregado do produto cobre a quantidade
// pedida. Quando não cobre, sugere produtos da mesma categoria com estoque positivo.
func (s *UnitStrategy) CheckAvailability(ds Dataset, req AvailabilityRequest) (domain.AvailabilityResult, error) {
	uds, err := unitDataset(ds)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	if req.Units <= 0 {
		return domain.AvailabilityResult{}, apperror.NewValidationError("Quantidade solicitada deve ser maior que zero.")
	}

	var product *domain.Product
	for i := range uds.Products {
		if uds.Products[i].ID == req.ProductID {
			product = &uds.Products[i]
			break
		}
	}
	if product == nil {
		return domain.AvailabilityResult{}, apperror.NewNotFoundError(
			fmt.Sprintf("Produto %s não encontrado no estoque.", req.ProductID))
	}

	qty, locations := s.aggregate(uds, req.ProductID)
	available := qty >= req.Units

	measure := product.UnitOfMeasure
	if measure == "" {
		measure = "UN"
	}

	result := domain.AvailabilityResult{
		Kind:         domain.StockUnit,
		Available:    available,
		ProductID:    req.ProductID,
		RequestedQty: req.Units,
		AvailableQty: qty,
		Locations:    locations,
		Message:      fmt.Sprintf("Disponível: %d %s", qty, measure),
	}

	if !available {
		result.Message = fmt.Sprintf("Insuficiente: apenas %d %s disponíveis", qty, measure)
		result.Alternatives = s.suggestAlternatives(uds, *product)
	}

	return result, nil
}

// suggestAlternatives devolve produtos da mesma categoria com estoque positivo.
func (s *UnitStrategy) suggestAlternatives(uds *UnitDataset, product domain.Product) []domain.AlternativeProduct {
	var alternatives []domain.AlternativeProduct
	for _, p := range uds.Products {
		if p.Category != product.Category || p.ID == product.ID {
			continue
		}
		qty, _ := s.aggregate(uds, p.ID)
		if qty > 0 {
			alternatives = append(alternatives, domain.AlternativeProduct{
				ProductID:   p.ID,
				Description: p.Description,
				Available:   qty,
			})
		}
	}
	return alternatives
}

// ApplyMovement aplica uma movimentação unitária sobre o dataset:
//
//   - ENTRADA incrementa o local, criando o registro se não existir;
//   - SAIDA decrementa estritamente: quantidade insuficiente é erro e nada é mutado.
//     Sem local, a saída é agregada: drena os locais do produto em ordem
//     decrescente de quantidade;
//   - TRANSFERENCIA move a quantidade inteira entre locais, atomicamente;
//   - INVENTARIO define a quantidade para um valor absoluto e reporta o delta.
func (s *UnitStrategy) ApplyMovement(ds Dataset, mv Movement) (domain.MovementResult, error) {
	uds, err := unitDataset(ds)
	if err != nil {
		return domain.MovementResult{}, err
	}
	if mv.ProductID == "" {
		return domain.MovementResult{}, apperror.NewValidationError("Produto é obrigatório na movimentação unitária.")
	}
	if mv.LocationID == "" && mv.Direction != domain.MovementExit {
		return domain.MovementResult{}, apperror.NewValidationError("Local é obrigatório na movimentação unitária.")
	}
	if mv.Units < 0 || (mv.Direction != domain.MovementInventory && mv.Units == 0) {
		return domain.MovementResult{}, apperror.NewValidationError("Quantidade da movimentação inválida.")
	}

	switch mv.Direction {
	case domain.MovementEntry:
		return s.applyEntry(uds, mv), nil
	case domain.MovementExit:
		if mv.LocationID == "" {
			return s.applyAggregateExit(uds, mv)
		}
		return s.applyExit(uds, mv)
	case domain.MovementTransfer:
		return s.applyTransfer(uds, mv)
	case domain.MovementInventory:
		return s.applyInventory(uds, mv), nil
	default:
		return domain.MovementResult{}, apperror.NewValidationError(
			fmt.Sprintf("Tipo de movimentação inválido para estoque unitário: %q", mv.Direction))
	}
}

func (s *UnitStrategy) applyEntry(uds *UnitDataset, mv Movement) domain.MovementResult {
	loc := s.findLocation(uds, mv.ProductID, mv.LocationID)
	if loc == nil {
		loc = &domain.StockLocation{
			ProductID:  mv.ProductID,
			LocationID: mv.LocationID,
		}
		uds.Locations = append(uds.Locations, loc)
	}

	prior := loc.Quantity
	loc.Quantity += mv.Units

	return domain.MovementResult{
		Success:       true,
		Processed:     float64(mv.Units),
		LocationID:    mv.LocationID,
		PriorQuantity: prior,
		NewQuantity:   loc.Quantity,
	}
}

func (s *UnitStrategy) applyExit(uds *UnitDataset, mv Movement) (domain.MovementResult, error) {
	loc := s.findLocation(uds, mv.ProductID, mv.LocationID)
	if loc == nil {
		return domain.MovementResult{}, apperror.NewNotFoundError(
			fmt.Sprintf("Estoque do produto %s no local %s não encontrado.", mv.ProductID, mv.LocationID))
	}

	// Saída estrita: ao contrário da variante volumétrica, não há saída parcial.
	if loc.Quantity < mv.Units {
		return domain.MovementResult{}, apperror.NewInsufficientStockError(mv.ProductID, mv.Units, loc.Quantity)
	}

	prior := loc.Quantity
	loc.Quantity -= mv.Units

	return domain.MovementResult{
		Success:       true,
		Processed:     float64(mv.Units),
		LocationID:    mv.LocationID,
		PriorQuantity: prior,
		NewQuantity:   loc.Quantity,
	}, nil
}

// applyAggregateExit drena o agregado do produto sobre todos os seus locais,
// em ordem decrescente de quantidade. Como a saída por local, é estrita:
// agregado insuficiente é erro e nada é mutado.
func (s *UnitStrategy) applyAggregateExit(uds *UnitDataset, mv Movement) (domain.MovementResult, error) {
	total, _ := s.aggregate(uds, mv.ProductID)
	if total < mv.Units {
		return domain.MovementResult{}, apperror.NewInsufficientStockError(mv.ProductID, mv.Units, total)
	}

	var ordered []*domain.StockLocation
	for _, loc := range uds.Locations {
		if loc.ProductID == mv.ProductID {
			ordered = append(ordered, loc)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Quantity > ordered[j].Quantity
	})

	var entries []domain.MovementLocationEntry
	remaining := mv.Units
	for _, loc := range ordered {
		if remaining == 0 {
			break
		}
		take := loc.Quantity
		if take > remaining {
			take = remaining
		}
		if take == 0 {
			continue
		}
		entries = append(entries, domain.MovementLocationEntry{
			LocationID:    loc.LocationID,
			Quantity:      take,
			PriorQuantity: loc.Quantity,
			NewQuantity:   loc.Quantity - take,
		})
		loc.Quantity -= take
		remaining -= take
	}

	return domain.MovementResult{
		Success:            true,
		Processed:          float64(mv.Units),
		Message:            fmt.Sprintf("Saída de %d unidades do produto %s efetivada.", mv.Units, mv.ProductID),
		LocationEntries:    entries,
		AggregateRemaining: total - mv.Units,
	}, nil
}

func (s *UnitStrategy) applyTransfer(uds *UnitDataset, mv Movement) (domain.MovementResult, error) {
	if mv.DestLocationID == "" {
		return domain.MovementResult{}, apperror.NewValidationError("Local de destino é obrigatório na transferência.")
	}
	if mv.DestLocationID == mv.LocationID {
		return domain.MovementResult{}, apperror.NewValidationError("Locais de origem e destino devem ser diferentes.")
	}

	source := s.findLocation(uds, mv.ProductID, mv.LocationID)
	if source == nil {
		return domain.MovementResult{}, apperror.NewNotFoundError(
			fmt.Sprintf("Estoque do produto %s no local %s não encontrado.", mv.ProductID, mv.LocationID))
	}

	// Transferência atômica: a origem só é decrementada se a quantidade
	// inteira estiver disponível.
	if source.Quantity < mv.Units {
		return domain.MovementResult{}, apperror.NewInsufficientStockError(mv.ProductID, mv.Units, source.Quantity)
	}

	source.Quantity -= mv.Units

	dest := s.findLocation(uds, mv.ProductID, mv.DestLocationID)
	if dest == nil {
		dest = &domain.StockLocation{
			ProductID:  mv.ProductID,
			LocationID: mv.DestLocationID,
		}
		uds.Locations = append(uds.Locations, dest)
	}
	dest.Quantity += mv.Units

	return domain.MovementResult{
		Success:       true,
		Processed:     float64(mv.Units),
		LocationID:    mv.DestLocationID,
		PriorQuantity: dest.Quantity - mv.Units,
		NewQuantity:   dest.Quantity,
		Message:       fmt.Sprintf("Transferidas %d unidades de %s para %s", mv.Units, mv.LocationID, mv.DestLocationID),
	}, nil
}

func (s *UnitStrategy) applyInventory(uds *UnitDataset, mv Movement) domain.MovementResult {
	loc := s.findLocation(uds, mv.ProductID, mv.LocationID)
	if loc == nil {
		loc = &domain.StockLocation{
			ProductID:  mv.ProductID,
			LocationID: mv.LocationID,
		}
		uds.Locations = append(uds.Locations, loc)
	}

	prior := loc.Quantity
	delta := mv.Units - prior
	loc.Quantity = mv.Units

	return domain.MovementResult{
		Success:       true,
		Processed:     float64(mv.Units),
		LocationID:    mv.LocationID,
		PriorQuantity: prior,
		NewQuantity:   loc.Quantity,
		Delta:         delta,
		Message:       fmt.Sprintf("Inventário ajustado em %+d", delta),
	}
}
