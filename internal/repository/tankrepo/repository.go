package tankrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gopostos/internal/domain"
	"gopostos/internal/errors"
	"gopostos/internal/pkg/logger"
)

// TankRepository é o repositório de tanques e tipos de combustível (PostgreSQL).
type TankRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewTankRepository cria e retorna uma nova instância do Repositório de Tanques.
func NewTankRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *TankRepository {
	return &TankRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const tankColumns = `id, establishment_id, fuel_type_id, capacity, current_volume, version, created_at, updated_at`

func scanTank(row interface{ Scan(...interface{}) error }) (*domain.Tank, error) {
	var t domain.Tank
	err := row.Scan(&t.ID, &t.EstablishmentID, &t.FuelTypeID, &t.Capacity, &t.CurrentVolume,
		&t.Version, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByID busca um tanque pelo seu ID.
func (r *TankRepository) FindByID(ctx context.Context, tankID string) (*domain.Tank, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`SELECT %s FROM tanks WHERE id = $1`, tankColumns)

	tank, err := scanTank(r.DB.QueryRowContext(ctxTimeout, query, tankID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("Tanque %s não encontrado.", tankID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar tanque no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar tanque", err)
	}
	return tank, nil
}

// FindByFuelType busca todos os tanques de um combustível em um estabelecimento,
// na ordem de criação. A ordem é estável entre chamadas: o planejamento de
// reposição depende dela para recomendar sempre o mesmo tanque.
func (r *TankRepository) FindByFuelType(ctx context.Context, establishmentID, fuelTypeID string) ([]*domain.Tank, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := fmt.Sprintf(`
        SELECT %s FROM tanks
        WHERE establishment_id = $1 AND fuel_type_id = $2
        ORDER BY created_at, id`, tankColumns)

	rows, err := r.DB.QueryContext(ctxTimeout, query, establishmentID, fuelTypeID)
	if err != nil {
		r.logger.Error("Falha ao buscar tanques por combustível no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar tanques", err)
	}
	defer rows.Close()

	var tanks []*domain.Tank
	for rows.Next() {
		tank, err := scanTank(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear tanque", err)
		}
		tanks = append(tanks, tank)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar tanques", err)
	}
	return tanks, nil
}

// FindFuelType busca um tipo de combustível pelo ID.
func (r *TankRepository) FindFuelType(ctx context.Context, fuelTypeID string) (domain.FuelType, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, name, price_per_liter, daily_consumption, lead_time_days
        FROM fuel_types
        WHERE id = $1`

	var ft domain.FuelType
	err := r.DB.QueryRowContext(ctxTimeout, query, fuelTypeID).Scan(
		&ft.ID, &ft.Name, &ft.PricePerLiter, &ft.DailyConsumption, &ft.LeadTimeDays,
	)
	if err == sql.ErrNoRows {
		return domain.FuelType{}, errors.NewNotFoundError(fmt.Sprintf("Tipo de combustível %s não encontrado.", fuelTypeID))
	}
	if err != nil {
		r.logger.Error("Falha ao buscar tipo de combustível no DB.", err)
		return domain.FuelType{}, errors.NewDBError("Falha ao buscar tipo de combustível", err)
	}
	return ft, nil
}

// UpdateVolumes persiste os novos volumes de um conjunto de tanques em uma única
// transação, com controle de concorrência otimista por tanque: qualquer tanque
// cuja versão esteja desatualizada aborta a transação inteira com ConflictError.
// Em caso de sucesso, a versão local de cada tanque é incrementada.
func (r *TankRepository) UpdateVolumes(ctx context.Context, tanks []*domain.Tank) error {
	if len(tanks) == 0 {
		return nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de atualização de tanques.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	query := `
        UPDATE tanks
        SET current_volume = $1, version = $2, updated_at = $3
        WHERE id = $4 AND version = $5`

	now := time.Now()
	for _, tank := range tanks {
		result, err := tx.ExecContext(ctxTimeout, query,
			tank.CurrentVolume, tank.Version+1, now, tank.ID, tank.Version)
		if err != nil {
			r.logger.Error("Falha ao atualizar volume do tanque.", err)
			return errors.NewDBError("Falha ao atualizar tanque", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return errors.NewDBError("Falha ao verificar linhas afetadas", err)
		}
		if rowsAffected == 0 {
			r.logger.Warn("Falha no controle de concorrência otimista (OCC) em tanque.", map[string]interface{}{
				"tank_id":          tank.ID,
				"expected_version": tank.Version,
			})
			return errors.NewConflictError("O tanque foi modificado por outra operação. Tente novamente.")
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de atualização de tanques.", commitErr)
		return errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	for _, tank := range tanks {
		tank.Version++
		tank.UpdatedAt = now
	}

	r.logger.Debug("Volumes de tanques atualizados.", map[string]interface{}{"tanks": len(tanks)})
	return nil
}
