package allocation

import (
	"fmt"
	"math"
	"sort"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
)

// Percentual do volume total tratado como permanentemente inacessível
// (combustível abaixo da boia de sucção).
const safetyMarginRatio = 0.05

// VolumetricStrategy controla combustível a granel, em litros, distribuído em
// múltiplos tanques de um mesmo combustível.
type VolumetricStrategy struct{}

// NewVolumetricStrategy cria a estratégia volumétrica.
func NewVolumetricStrategy() *VolumetricStrategy { return &VolumetricStrategy{} }

// Kind identifica a variante.
func (*VolumetricStrategy) Kind() domain.StockKind { return domain.StockVolumetric }

func volumetricDataset(ds Dataset) (*VolumetricDataset, error) {
	vds, ok := ds.(*VolumetricDataset)
	if !ok {
		return nil, apperror.NewValidationError("Dataset volumétrico esperado pela estratégia de combustível.")
	}
	return vds, nil
}

// ComputeAvailable calcula o estoque disponível em litros: soma o volume de
// todos os tanques do combustível e desconta a margem de segurança de 5%.
func (s *VolumetricStrategy) ComputeAvailable(ds Dataset) (domain.AvailabilitySnapshot, error) {
	vds, err := volumetricDataset(ds)
	if err != nil {
		return domain.AvailabilitySnapshot{}, err
	}

	var totalVolume float64
	levels := make([]domain.TankLevel, 0, len(vds.Tanks))
	for _, t := range vds.Tanks {
		totalVolume += t.CurrentVolume
		levels = append(levels, domain.TankLevel{
			TankID:      t.ID,
			Capacity:    t.Capacity,
			Current:     t.CurrentVolume,
			PercentFull: t.PercentFull(),
		})
	}

	safetyMargin := totalVolume * safetyMarginRatio
	usable := math.Max(0, totalVolume-safetyMargin)

	return domain.AvailabilitySnapshot{
		Kind: domain.StockVolumetric,
		Volumetric: &domain.VolumetricAvailability{
			TotalVolume:  totalVolume,
			UsableVolume: usable,
			SafetyMargin: safetyMargin,
			Unit:         "LITROS",
			Tanks:        levels,
		},
	}, nil
}

// CheckAvailability verifica disponibilidade considerando múltiplos tanques.
// Reporta também se um único tanque sozinho atende o pedido (tanque recomendado)
// ou se a retirada precisa ser distribuída.
func (s *VolumetricStrategy) CheckAvailability(ds Dataset, req AvailabilityRequest) (domain.AvailabilityResult, error) {
	vds, err := volumetricDataset(ds)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	if req.Liters <= 0 {
		return domain.AvailabilityResult{}, apperror.NewValidationError("Quantidade solicitada deve ser maior que zero.")
	}

	snapshot, err := s.ComputeAvailable(ds)
	if err != nil {
		return domain.AvailabilityResult{}, err
	}
	usable := snapshot.Volumetric.UsableVolume
	available := usable >= req.Liters

	// Primeiro tanque cujo volume atual sozinho cobre o pedido, na ordem do dataset.
	var recommended string
	for _, t := range vds.Tanks {
		if t.CurrentVolume >= req.Liters {
			recommended = t.ID
			break
		}
	}

	msg := fmt.Sprintf("Disponível: %.2fL disponíveis para %.2fL solicitados", usable, req.Liters)
	if !available {
		msg = fmt.Sprintf("Estoque insuficiente: apenas %.2fL disponíveis para %.2fL solicitados", usable, req.Liters)
	}

	return domain.AvailabilityResult{
		Kind:              domain.StockVolumetric,
		Available:         available,
		UsableVolume:      usable,
		RequestedLiters:   req.Liters,
		RecommendedTankID: recommended,
		NeedsDistribution: available && recommended == "",
		Message:           msg,
	}, nil
}

// ApplyMovement aplica uma entrada ou saída de combustível sobre os tanques do
// dataset. A mutação é feita no próprio dataset; movimentações parciais
// permanecem aplicadas (sem rollback) e o restante é reportado no resultado.
func (s *VolumetricStrategy) ApplyMovement(ds Dataset, mv Movement) (domain.MovementResult, error) {
	vds, err := volumetricDataset(ds)
	if err != nil {
		return domain.MovementResult{}, err
	}
	if mv.Liters <= 0 {
		return domain.MovementResult{}, apperror.NewValidationError("Quantidade da movimentação deve ser maior que zero.")
	}

	switch mv.Direction {
	case domain.MovementEntry:
		return s.applyEntry(vds, mv.Liters), nil
	case domain.MovementExit:
		return s.applyExit(vds, mv.Liters), nil
	default:
		return domain.MovementResult{}, apperror.NewValidationError(
			fmt.Sprintf("Tipo de movimentação inválido para estoque volumétrico: %q", mv.Direction))
	}
}

// applyEntry distribui a entrada nos tanques com mais espaço disponível,
// preenchendo cada um até sua capacidade. Cada passo só adiciona dentro da
// capacidade, então o invariante 0 <= volume <= capacidade se mantém sempre.
func (s *VolumetricStrategy) applyEntry(vds *VolumetricDataset, liters float64) domain.MovementResult {
	ordered := make([]*domain.Tank, len(vds.Tanks))
	copy(ordered, vds.Tanks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].FreeSpace() > ordered[j].FreeSpace()
	})

	remaining := liters
	var entries []domain.MovementTankEntry

	for _, tank := range ordered {
		if remaining <= 0 {
			break
		}
		add := math.Min(tank.FreeSpace(), remaining)
		if add <= 0 {
			continue
		}
		tank.CurrentVolume += add
		remaining -= add
		entries = append(entries, domain.MovementTankEntry{
			TankID:      tank.ID,
			Quantity:    add,
			FinalVolume: tank.CurrentVolume,
		})
	}

	res := domain.MovementResult{
		Success:   remaining == 0,
		Processed: liters - remaining,
		Remainder: remaining,
		Entries:   entries,
	}
	if !res.Success {
		res.Message = fmt.Sprintf("Capacidade esgotada: %.2fL não absorvidos pelos tanques", remaining)
	}
	return res
}

// applyExit drena primeiro os tanques com mais volume. Uma drenagem parcial
// atualiza os tanques já tocados e reporta o restante como contexto de falha.
func (s *VolumetricStrategy) applyExit(vds *VolumetricDataset, liters float64) domain.MovementResult {
	ordered := make([]*domain.Tank, len(vds.Tanks))
	copy(ordered, vds.Tanks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CurrentVolume > ordered[j].CurrentVolume
	})

	remaining := liters
	var entries []domain.MovementTankEntry

	for _, tank := range ordered {
		if remaining <= 0 {
			break
		}
		take := math.Min(tank.CurrentVolume, remaining)
		if take <= 0 {
			continue
		}
		tank.CurrentVolume -= take
		remaining -= take
		entries = append(entries, domain.MovementTankEntry{
			TankID:      tank.ID,
			Quantity:    take,
			FinalVolume: tank.CurrentVolume,
		})
	}

	res := domain.MovementResult{
		Success:   remaining == 0,
		Processed: liters - remaining,
		Remainder: remaining,
		Entries:   entries,
	}
	if !res.Success {
		res.Message = fmt.Sprintf("Volume insuficiente: %.2fL não drenados", remaining)
	}
	return res
}

// ComputeReorderPoint calcula o ponto de reposição do combustível:
// consumo durante a reposição mais três dias de estoque de segurança. A
// quantidade recomendada de pedido é 60% da capacidade total instalada.
func (s *VolumetricStrategy) ComputeReorderPoint(vds *VolumetricDataset, params domain.ReorderParams) (domain.ReorderReport, error) {
	if params.DailyConsumption <= 0 {
		return domain.ReorderReport{}, apperror.NewValidationError("Consumo médio diário deve ser maior que zero.")
	}

	safetyStock := params.DailyConsumption * 3
	reorderPoint := params.DailyConsumption*float64(params.LeadTimeDays) + safetyStock

	var totalCapacity float64
	for _, t := range vds.Tanks {
		totalCapacity += t.Capacity
	}

	snapshot, err := s.ComputeAvailable(vds)
	if err != nil {
		return domain.ReorderReport{}, err
	}

	var percentOfCapacity float64
	if totalCapacity > 0 {
		percentOfCapacity = reorderPoint / totalCapacity * 100
	}

	return domain.ReorderReport{
		ReorderPoint:        reorderPoint,
		RecommendedOrderQty: totalCapacity * 0.6,
		SafetyStock:         safetyStock,
		DailyConsumption:    params.DailyConsumption,
		AutonomyDays:        int(math.Floor(snapshot.Volumetric.UsableVolume / params.DailyConsumption)),
		PercentOfCapacity:   percentOfCapacity,
	}, nil
}

// GenerateAlerts gera os alertas de reposição e nível do combustível:
// CRITICO quando o volume útil está abaixo do ponto de reposição, CRITICO/AVISO
// por tanque abaixo de 10%/25% da capacidade, e URGENTE quando a autonomia é de
// dois dias ou menos.
func (s *VolumetricStrategy) GenerateAlerts(vds *VolumetricDataset, params domain.ReorderParams) ([]domain.Alert, error) {
	snapshot, err := s.ComputeAvailable(vds)
	if err != nil {
		return nil, err
	}
	report, err := s.ComputeReorderPoint(vds, params)
	if err != nil {
		return nil, err
	}

	var alerts []domain.Alert

	if snapshot.Volumetric.UsableVolume <= report.ReorderPoint {
		alerts = append(alerts, domain.Alert{
			Severity: domain.AlertCritical,
			Message:  fmt.Sprintf("Estoque abaixo do ponto de reposição. Solicitar %.0fL", report.RecommendedOrderQty),
			Action:   domain.ActionGeneratePurchaseOrder,
		})
	}

	for _, tank := range vds.Tanks {
		percent := tank.PercentFull()
		switch {
		case percent < 10:
			alerts = append(alerts, domain.Alert{
				Severity: domain.AlertCritical,
				Message:  fmt.Sprintf("Tanque %s com apenas %.1f%% de capacidade", tank.ID, percent),
				Action:   domain.ActionCheckTank,
				TankID:   tank.ID,
			})
		case percent < 25:
			alerts = append(alerts, domain.Alert{
				Severity: domain.AlertWarning,
				Message:  fmt.Sprintf("Tanque %s com %.1f%% de capacidade", tank.ID, percent),
				Action:   domain.ActionMonitor,
				TankID:   tank.ID,
			})
		}
	}

	if report.AutonomyDays <= 2 {
		alerts = append(alerts, domain.Alert{
			Severity: domain.AlertUrgent,
			Message:  fmt.Sprintf("Estoque suficiente para apenas %d dias", report.AutonomyDays),
			Action:   domain.ActionEmergencyOrder,
		})
	}

	return alerts, nil
}
