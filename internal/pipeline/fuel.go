package pipeline

import (
	"context"
	"fmt"

	"gopostos/internal/domain"
	apperror "gopostos/internal/errors"
)

// Alíquota de imposto sobre vendas de combustível.
const fuelTaxRate = 0.27

// FuelConfig parametriza os limiares da variante de combustível.
type FuelConfig struct {
	// Volume de tanque, em litros, abaixo do qual um alerta de nível baixo é emitido.
	LowTankThreshold float64
	// Valor total de venda acima do qual o reporte regulatório (ANP) é disparado.
	ComplianceThreshold float64
}

// fuelVariant implementa os hooks do pipeline para vendas de combustível:
// saída volumétrica dos tanques (parciais permanecem efetivadas), sem desconto,
// imposto de 27% e reporte regulatório na finalização.
type fuelVariant struct {
	inventory  FuelInventory
	alerts     AlertSink
	compliance ComplianceReporter
	cfg        FuelConfig
}

// NewFuelProcessor monta o pipeline da variante de combustível.
func NewFuelProcessor(deps Deps, inventory FuelInventory, alerts AlertSink, compliance ComplianceReporter, cfg FuelConfig) *Processor {
	return newProcessor(&fuelVariant{
		inventory:  inventory,
		alerts:     alerts,
		compliance: compliance,
		cfg:        cfg,
	}, deps)
}

func (v *fuelVariant) Kind() domain.SaleKind { return domain.SaleKindFuel }

func (v *fuelVariant) Validate(sale *domain.Sale) error {
	for i, item := range sale.Items {
		if err := requireSameKind(item, domain.SaleKindFuel, i); err != nil {
			return err
		}
		if item.PumpID == "" {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: ID da bomba é obrigatório.", i+1))
		}
		if item.TankID == "" {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: ID do tanque é obrigatório.", i+1))
		}
		if item.Liters <= 0 {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: litragem deve ser positiva.", i+1))
		}
		if item.UnitPrice <= 0 {
			return apperror.NewValidationError(fmt.Sprintf("Item %d: preço por litro deve ser positivo.", i+1))
		}
	}
	return nil
}

// UpdateInventory drena os tanques e registra a movimentação de cada bomba.
// Sem pré-checagem: uma saída parcial permanece efetivada e o erro de
// atendimento parcial é propagado, falhando a venda.
func (v *fuelVariant) UpdateInventory(ctx context.Context, sale *domain.Sale) error {
	for _, item := range sale.Items {
		result, err := v.inventory.ExitTank(ctx, item.TankID, item.Liters, sale.ID)

		// Alertas de nível baixo valem mesmo quando a drenagem foi parcial.
		for _, entry := range result.Entries {
			if entry.FinalVolume < v.cfg.LowTankThreshold {
				v.alerts.LowTankLevel(ctx, entry.TankID, entry.FinalVolume)
			}
		}

		if err != nil {
			return err
		}

		if err := v.inventory.RecordPumpMovement(ctx, item.PumpID, item.Liters, sale.ID); err != nil {
			return err
		}
	}
	return nil
}

// Vendas de combustível não têm desconto.
func (v *fuelVariant) Discount(_ *domain.Sale) float64 { return 0 }

func (v *fuelVariant) Tax(sale *domain.Sale) float64 {
	return sale.Total * fuelTaxRate
}

// Finalize dispara o reporte regulatório quando o valor da venda excede o limiar.
func (v *fuelVariant) Finalize(ctx context.Context, sale *domain.Sale) error {
	if sale.Total > v.cfg.ComplianceThreshold {
		return v.compliance.Report(ctx, *sale)
	}
	return nil
}
