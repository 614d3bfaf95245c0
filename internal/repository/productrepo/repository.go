package productrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"gopostos/internal/domain"
	"gopostos/internal/errors"
	"gopostos/internal/pkg/cache"
)

// Chave de cache para produtos individuais.
const productCacheKey = "product:%s"

// ProductRepository é o repositório de produtos de conveniência (PostgreSQL),
// com cache-aside (Redis) nas buscas por ID.
type ProductRepository struct {
	DB        *sql.DB
	Cache     cache.Client
	DBTimeout time.Duration
	CacheTTL  time.Duration
}

// NewProductRepository cria e retorna uma nova instância do Repositório.
func NewProductRepository(db *sql.DB, cacheClient cache.Client, dbTimeout, cacheTTL time.Duration) *ProductRepository {
	return &ProductRepository{
		DB:        db,
		Cache:     cacheClient,
		DBTimeout: dbTimeout,
		CacheTTL:  cacheTTL,
	}
}

const productColumns = `id, sku, description, category, unit_price, unit_of_measure, created_at, updated_at`

func scanProduct(row interface{ Scan(...interface{}) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.SKU, &p.Description, &p.Category, &p.UnitPrice,
		&p.UnitOfMeasure, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// FindByID busca um produto pelo ID, utilizando a estratégia Cache-Aside:
// tenta o cache primeiro; em caso de miss (ou falha de cache), busca no DB e
// popula o cache com TTL.
func (r *ProductRepository) FindByID(ctx context.Context, id string) (domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	key := fmt.Sprintf(productCacheKey, id)
	var product domain.Product

	cachedData, err := r.Cache.Get(ctxTimeout, key)
	if err == nil {
		if json.Unmarshal([]byte(cachedData), &product) == nil {
			return product, nil
		}
		// Desserialização falhou: segue para o DB e o cache será reescrito.
	}
	// Erro real de cache (conexão perdida) também segue para o DB: o cache é
	// acelerador, não dependência dura.

	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	product, err = scanProduct(r.DB.QueryRowContext(ctxTimeout, query, id))
	if err == sql.ErrNoRows {
		return domain.Product{}, errors.NewNotFoundError(fmt.Sprintf("Produto com ID %s não existe na base de dados.", id))
	}
	if err != nil {
		return domain.Product{}, errors.NewDBError("Falha ao buscar produto no DB", err)
	}

	if productJSON, marshalErr := json.Marshal(product); marshalErr == nil {
		r.Cache.Set(ctxTimeout, key, productJSON, r.CacheTTL)
	}

	return product, nil
}

func (r *ProductRepository) queryProducts(ctx context.Context, query string, args ...interface{}) ([]domain.Product, error) {
	ctxTimeout, cancel := context.WithTimeout(ctx, r.DBTimeout)
	defer cancel()

	rows, err := r.DB.QueryContext(ctxTimeout, query, args...)
	if err != nil {
		return nil, errors.NewDBError("Falha ao buscar produtos no DB", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, errors.NewDBError("Falha ao mapear produto", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewDBError("Falha ao iterar produtos", err)
	}
	return products, nil
}

// FindByCategory busca todos os produtos de uma categoria (usado na sugestão
// de alternativas quando a disponibilidade é insuficiente).
func (r *ProductRepository) FindByCategory(ctx context.Context, category string) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE category = $1 ORDER BY description`, productColumns)
	return r.queryProducts(ctx, query, category)
}

// FindAll busca todos os produtos cadastrados.
func (r *ProductRepository) FindAll(ctx context.Context) ([]domain.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products ORDER BY description`, productColumns)
	return r.queryProducts(ctx, query)
}

// InvalidateCache remove um produto do cache (usado após alterações cadastrais).
func (r *ProductRepository) InvalidateCache(ctx context.Context, id string) error {
	return r.Cache.Delete(ctx, fmt.Sprintf(productCacheKey, id))
}
