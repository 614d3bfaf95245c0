package salesrepo

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

// SalesRepository é o repositório do ciclo de vida de vendas: vendas e seus
// itens, cupons fiscais e pagamentos (PostgreSQL). Também é a fonte da
// numeração sequencial de cupons, via sequence do banco.
type SalesRepository struct {
	DB        *sql.DB
	DBTimeout time.Duration
	logger    logger.Logger
}

// NewSalesRepository cria e retorna uma nova instância do Repositório de Vendas.
func NewSalesRepository(db *sql.DB, dbTimeout time.Duration, logger logger.Logger) *SalesRepository {
	return &SalesRepository{
		DB:        db,
		DBTimeout: dbTimeout,
		logger:    logger,
	}
}

// SaveSale insere a venda e seus itens em uma única transação. Chamado uma vez
// por venda, no registro; as mudanças de estado subsequentes usam UpdateSale.
func (r *SalesRepository) SaveSale(ctx context.Context, sale domain.Sale) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		r.logger.Error("Falha ao iniciar transação de venda.", err)
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	saleQuery := `
        INSERT INTO sales
            (id, establishment_id, kind, payment_method, customer_tax_id, status, total, discount, tax, failure_reason, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err = tx.ExecContext(ctxTimeout, saleQuery,
		sale.ID, sale.EstablishmentID, string(sale.Kind), sale.PaymentMethod,
		nullable(sale.CustomerTaxID), string(sale.Status),
		sale.Total, sale.Discount, sale.Tax, nullable(sale.FailureReason), sale.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir venda.", err)
		return errors.NewDBError("Falha ao inserir venda", err)
	}

	itemQuery := `
        INSERT INTO sale_items
            (id, sale_id, pump_id, tank_id, liters, product_id, quantity, unit_price, total)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for _, item := range sale.Items {
		_, err = tx.ExecContext(ctxTimeout, itemQuery,
			uuid.New().String(), sale.ID,
			nullable(item.PumpID), nullable(item.TankID), item.Liters,
			nullable(item.ProductID), item.Quantity, item.UnitPrice, item.Total,
		)
		if err != nil {
			r.logger.Error("Falha ao inserir item de venda.", err)
			return errors.NewDBError("Falha ao inserir item de venda", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		r.logger.Error("Falha ao commitar transação de venda.", commitErr)
		return errors.NewDBError("Falha ao commitar transação", commitErr)
	}
	return nil
}

// UpdateSale persiste o estado corrente da venda (status, totais, motivo de
// falha) e os totais recalculados dos itens.
func (r *SalesRepository) UpdateSale(ctx context.Context, sale domain.Sale) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	tx, err := r.DB.BeginTx(ctxTimeout, nil)
	if err != nil {
		return errors.NewDBError("Falha ao iniciar transação", err)
	}
	defer tx.Rollback()

	query := `
        UPDATE sales
        SET status = $1, total = $2, discount = $3, tax = $4, failure_reason = $5
        WHERE id = $6`

	result, err := tx.ExecContext(ctxTimeout, query,
		string(sale.Status), sale.Total, sale.Discount, sale.Tax,
		nullable(sale.FailureReason), sale.ID,
	)
	if err != nil {
		r.logger.Error("Falha ao atualizar venda.", err)
		return errors.NewDBError("Falha ao atualizar venda", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewDBError("Falha ao verificar linhas afetadas", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("Venda %s não encontrada para atualização.", sale.ID))
	}

	itemQuery := `UPDATE sale_items SET total = $1 WHERE sale_id = $2 AND COALESCE(pump_id, product_id) = COALESCE($3, $4)`
	for _, item := range sale.Items {
		if _, err := tx.ExecContext(ctxTimeout, itemQuery,
			item.Total, sale.ID, nullable(item.PumpID), nullable(item.ProductID)); err != nil {
			r.logger.Error("Falha ao atualizar item de venda.", err)
			return errors.NewDBError("Falha ao atualizar item de venda", err)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return errors.NewDBError("Falha ao commitar transação", commitErr)
	}
	return nil
}

// FindSaleByID busca uma venda e seus itens.
func (r *SalesRepository) FindSaleByID(ctx context.Context, saleID string) (domain.Sale, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        SELECT id, establishment_id, kind, payment_method, COALESCE(customer_tax_id, ''),
               status, total, discount, tax, COALESCE(failure_reason, ''), created_at
        FROM sales
        WHERE id = $1`

	var sale domain.Sale
	var kind, status string
	err := r.DB.QueryRowContext(ctxTimeout, query, saleID).Scan(
		&sale.ID, &sale.EstablishmentID, &kind, &sale.PaymentMethod, &sale.CustomerTaxID,
		&status, &sale.Total, &sale.Discount, &sale.Tax, &sale.FailureReason, &sale.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return domain.Sale{}, errors.NewNotFoundError(fmt.Sprintf("Venda %s não encontrada.", saleID))
	}
	if err != nil {
		return domain.Sale{}, errors.NewDBError("Falha ao buscar venda", err)
	}
	sale.Kind = domain.SaleKind(kind)
	sale.Status = domain.SaleStatus(status)

	itemQuery := `
        SELECT COALESCE(pump_id, ''), COALESCE(tank_id, ''), liters,
               COALESCE(product_id, ''), quantity, unit_price, total
        FROM sale_items
        WHERE sale_id = $1
        ORDER BY id`

	rows, err := r.DB.QueryContext(ctxTimeout, itemQuery, saleID)
	if err != nil {
		return domain.Sale{}, errors.NewDBError("Falha ao buscar itens da venda", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.SaleItem
		if err := rows.Scan(&item.PumpID, &item.TankID, &item.Liters,
			&item.ProductID, &item.Quantity, &item.UnitPrice, &item.Total); err != nil {
			return domain.Sale{}, errors.NewDBError("Falha ao mapear item da venda", err)
		}
		sale.Items = append(sale.Items, item)
	}
	if err := rows.Err(); err != nil {
		return domain.Sale{}, errors.NewDBError("Falha ao iterar itens da venda", err)
	}

	return sale, nil
}

// SaveReceipt insere o cupom fiscal. Cupons são imutáveis após emitidos; os
// itens do cupom são os itens da venda referenciada.
func (r *SalesRepository) SaveReceipt(ctx context.Context, receipt domain.Receipt) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO receipts
            (number, sale_id, establishment_id, issued_at, total_value, tax_value, customer_tax_id)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		receipt.Number, receipt.SaleID, receipt.EstablishmentID, receipt.IssuedAt,
		receipt.TotalValue, receipt.TaxValue, nullable(receipt.CustomerTaxID),
	)
	if err != nil {
		r.logger.Error("Falha ao inserir cupom fiscal.", err)
		return errors.NewDBError("Falha ao inserir cupom fiscal", err)
	}
	return nil
}

// SavePayment insere o registro de pagamento de uma venda.
func (r *SalesRepository) SavePayment(ctx context.Context, payment domain.Payment) error {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	query := `
        INSERT INTO payments (id, sale_id, amount, method, status, processed_at)
        VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.DB.ExecContext(ctxTimeout, query,
		uuid.New().String(), payment.SaleID, payment.Amount, payment.Method,
		payment.Status, payment.Timestamp,
	)
	if err != nil {
		r.logger.Error("Falha ao inserir pagamento.", err)
		return errors.NewDBError("Falha ao inserir pagamento", err)
	}
	return nil
}

// NextReceiptNumber obtém o próximo número sequencial de cupom fiscal a partir
// da sequence do banco, no formato CF-<n>. A sequence garante unicidade e
// monotonicidade mesmo entre instâncias concorrentes do serviço.
func (r *SalesRepository) NextReceiptNumber(ctx context.Context) (string, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	var n int64
	err := r.DB.QueryRowContext(ctxTimeout, `SELECT nextval('receipt_number_seq')`).Scan(&n)
	if err != nil {
		r.logger.Error("Falha ao obter número de cupom fiscal.", err)
		return "", errors.NewDBError("Falha ao obter número de cupom", err)
	}
	return fmt.Sprintf("CF-%d", n), nil
}

// nullable converte string vazia em NULL para colunas opcionais.
func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
