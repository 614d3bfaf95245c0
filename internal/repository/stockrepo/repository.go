package stockrepo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"gopostos/internal/domain"
	"gopostos/internal/errors"
	"gopostos/internal/pkg/logger"
)

// StockRepository é o repositório de locais de estoque unitário e do registro
// de auditoria de movimentações (PostgreSQL).
type StockRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewStockRepository cria e retorna uma nova instância do Repositório de Estoque.
func NewStockRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *StockRepository {
	return &StockRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

const locationColumns = `id, product_id, location_id, quantity, version, created_at, updated_at`

func scanLocation(row interface{ Scan(...interface{}) error }) (*domain.StockLocation, error) {
	var sl domain.StockLocation
	err := row.Scan(&sl.ID, &sl.ProductID, &sl.LocationID, &sl.Quantity,
		&sl.Version, &sl.CreatedAt, &sl.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sl, nil
}

func (r *StockRepository) queryLocations(ctx context.Context, query string, args ...interface{}) ([]*domain.StockLocation, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		r.logger.Error("Falha ao buscar locais de estoque no DB.", err)
		return nil, errors.NewDBError("Falha ao buscar locais de estoque", err)
	}
	defer rows.Close()

	var locations []*domain.StockLocation
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear local de estoque", err)
		}
		locations = append(locations, location)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar locais de estoque", err)
	}
	return locations, nil
}

// FindLocations busca todos os locais de estoque de um produto.
func (r *StockRepository) FindLocations(ctx context.Context, productID string) ([]*domain.StockLocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_locations WHERE product_id = $1 ORDER BY location_id`, locationColumns)
	return r.queryLocations(ctx, query, productID)
}

// FindAllLocations busca todos os locais de estoque do estabelecimento.
func (r *StockRepository) FindAllLocations(ctx context.Context) ([]*domain.StockLocation, error) {
	query := fmt.Sprintf(`SELECT %s FROM stock_locations ORDER BY product_id, location_id`, locationColumns)
	return r.queryLocations(ctx, query)
}

// UpsertLocations persiste um conjunto de locais de estoque em uma única
// transação: locais com Version zero são inseridos (criados pela estratégia em
// entradas/transferências/inventário), os demais são atualizados com controle
// de concorrência otimista. Qualquer conflito aborta a transação inteira.
func (r *StockRepository) UpsertLocations(ctx context.Context, locations []*domain.StockLocation) error {
	if len(locations) == 0 {
		return nil
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de estoque.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	insertQuery := `
        INSERT INTO stock_locations (id, product_id, location_id, quantity, version, created_at, updated_at)
        VALUES ($1, $2, $3, $4, 1, $5, $5)`
	updateQuery := `
        UPDATE stock_locations
        SET quantity = $1, version = $2, updated_at = $3
        WHERE id = $4 AND version = $5`

	now := time.Now()
	for _, location := range locations {
		if location.Version == 0 {
			if location.ID == "" {
				location.ID = uuid.New().String()
			}
			if _, err := tx.ExecContext(ctxTimeout, insertQuery,
				location.ID, location.ProductID, location.LocationID, location.Quantity, now); err != nil {
				r.logger.Error("Falha ao inserir local de estoque.", err)
				return errors.NewDBError("Falha ao inserir local de estoque", err)
			}
			continue
		}

		result, err := tx.ExecContext(ctxTimeout, updateQuery,
			location.Quantity, location.Version+1, now, location.ID, location.Version)
		if err != nil {
			r.logger.Error("Falha ao atualizar local de estoque.", err)
			return errors.NewDBError("Falha ao atualizar local de estoque", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return errors.NewDBError("Falha ao verificar linhas afetadas", err)
		}
		if rowsAffected == 0 {
			r.logger.Warn("Falha no controle de concorrência otimista (OCC) em local de estoque.", map[string]interface{}{
				"location_id":      location.ID,
				"expected_version": location.Version,
			})
			return errors.NewConflictError("O estoque foi modificado por outra operação. Tente novamente.")
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de estoque.", commitErr)
		return errors.NewDBError("Falha ao commitar transação", commitErr)
	}

	for _, location := range locations {
		if location.Version == 0 {
			location.Version = 1
			location.CreatedAt = now
		} else {
			location.Version++
		}
		location.UpdatedAt = now
	}

	return nil
}

// SaveMovement insere um registro de auditoria de movimentação de estoque.
// As movimentações são imutáveis: nunca são atualizadas nem removidas.
func (r *StockRepository) SaveMovement(ctx context.Context, movement domain.StockMovement) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	if movement.ID == "" {
		movement.ID = uuid.New().String()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}

	query := `
        INSERT INTO stock_movements
            (id, product_id, tank_id, pump_id, location_id, type, quantity, prior_quantity, new_quantity, reference_id, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		movement.ID,
		nullable(movement.ProductID),
		nullable(movement.TankID),
		nullable(movement.PumpID),
		nullable(movement.LocationID),
		movement.Type,
		movement.Quantity,
		movement.PriorQuantity,
		movement.NewQuantity,
		nullable(movement.ReferenceID),
		movement.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao registrar movimentação de estoque.", err)
		return errors.NewDBError("Falha ao registrar movimentação", err)
	}
	return nil
}

// nullable converte string vazia em NULL para colunas opcionais.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
