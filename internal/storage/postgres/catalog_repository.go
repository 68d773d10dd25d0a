package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

type catalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository создаёт PostgreSQL-реализацию CatalogRepository.
// Артикулы хранятся в нормализованном виде (верхний регистр).
func NewCatalogRepository(store *Store) domain.CatalogRepository {
	return &catalogRepository{db: store.DB()}
}

func (r *catalogRepository) Create(product domain.Product) error {
	id := domain.NormalizeProductID(product.ID)
	if id == "" {
		return domain.ErrProductIDRequired
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category, unit_price, active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`,
		id, product.Name, product.Category, product.UnitPrice,
		product.Active, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("product %s already exists", id)
		}
		return fmt.Errorf("insert product: %w", err)
	}

	return nil
}

func (r *catalogRepository) FindByID(id string) (domain.Product, error) {
	key := domain.NormalizeProductID(id)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, category, unit_price, active, created_at, updated_at
		FROM products
		WHERE id = $1
	`, key).Scan(
		&product.ID, &product.Name, &product.Category, &product.UnitPrice,
		&product.Active, &product.CreatedAt, &product.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, key)
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}

	return product, nil
}

func (r *catalogRepository) List() ([]domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, category, unit_price, active, created_at, updated_at
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		var product domain.Product
		if err := rows.Scan(
			&product.ID, &product.Name, &product.Category, &product.UnitPrice,
			&product.Active, &product.CreatedAt, &product.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		result = append(result, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}

	return result, nil
}

func (r *catalogRepository) Save(product domain.Product) error {
	id := domain.NormalizeProductID(product.ID)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1,
		    category = $2,
		    unit_price = $3,
		    active = $4,
		    updated_at = $5
		WHERE id = $6
	`,
		product.Name, product.Category, product.UnitPrice,
		product.Active, product.UpdatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}

	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.CatalogRepository = (*catalogRepository)(nil)
