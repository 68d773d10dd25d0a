package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type stockRepository struct {
	db *sql.DB
}

// NewStockRepository создаёт PostgreSQL-реализацию StockRepository.
// Инвариант qty >= 0 дополнительно закреплён CHECK-ограничением таблицы.
func NewStockRepository(store *Store) domain.StockRepository {
	return &stockRepository{db: store.DB()}
}

func (r *stockRepository) Quantity(productID, size string) (int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var qty int32
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(
			(SELECT qty FROM stock_items WHERE product_id = $1 AND size = $2), 0
		)
	`, domain.NormalizeProductID(productID), size).Scan(&qty)
	if err != nil {
		return 0, fmt.Errorf("select stock qty: %w", err)
	}

	return qty, nil
}

func (r *stockRepository) TotalQuantity(productID string) (int32, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var total int32
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(qty), 0)
		FROM stock_items
		WHERE product_id = $1
	`, domain.NormalizeProductID(productID)).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("select total stock: %w", err)
	}

	return total, nil
}

func (r *stockRepository) SetQuantity(productID, size string, qty int32) error {
	if qty < 0 {
		return domain.ErrStockQtyNegative
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_items (product_id, size, qty, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, size)
		DO UPDATE SET qty = EXCLUDED.qty, updated_at = NOW()
	`, domain.NormalizeProductID(productID), size, qty)
	if err != nil {
		return fmt.Errorf("set stock qty: %w", err)
	}

	return nil
}

func (r *stockRepository) Increase(productID, size string, qty int32) error {
	if qty <= 0 {
		return domain.ErrStockAdjustInvalid
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO stock_items (product_id, size, qty, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (product_id, size)
		DO UPDATE SET qty = stock_items.qty + EXCLUDED.qty, updated_at = NOW()
	`, domain.NormalizeProductID(productID), size, qty)
	if err != nil {
		return fmt.Errorf("increase stock qty: %w", err)
	}

	return nil
}

func (r *stockRepository) Decrease(productID, size string, qty int32) error {
	if qty <= 0 {
		return domain.ErrStockAdjustInvalid
	}

	return r.Reserve([]domain.StockLine{{
		ProductID: productID,
		Size:      size,
		Qty:       qty,
	}})
}

// Reserve атомарно списывает весь набор строк в одной транзакции.
// Условный UPDATE qty >= $n выполняет проверку и списание одним
// оператором: при нехватке по любому ключу транзакция откатывается,
// частичных списаний не бывает.
func (r *stockRepository) Reserve(lines []domain.StockLine) error {
	aggregated := domain.AggregateStockLines(lines)
	for _, line := range aggregated {
		if errs := line.Validate(); len(errs) > 0 {
			return errs[0]
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, line := range aggregated {
		productID := domain.NormalizeProductID(line.ProductID)

		var res sql.Result
		res, err = tx.ExecContext(ctx, `
			UPDATE stock_items
			SET qty = qty - $3,
			    updated_at = NOW()
			WHERE product_id = $1
			  AND size = $2
			  AND qty >= $3
		`, productID, line.Size, line.Qty)
		if err != nil {
			return fmt.Errorf("reserve stock: %w", err)
		}

		var affected int64
		affected, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if affected == 0 {
			current := r.quantityTx(ctx, tx, productID, line.Size)
			err = fmt.Errorf("%w: %s size %s has %d, requested %d",
				domain.ErrInsufficientStock, productID, line.Size, current, line.Qty)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}

	return nil
}

// Release возвращает ранее списанный набор строк одной транзакцией.
func (r *stockRepository) Release(lines []domain.StockLine) error {
	aggregated := domain.AggregateStockLines(lines)
	for _, line := range aggregated {
		if errs := line.Validate(); len(errs) > 0 {
			return errs[0]
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, line := range aggregated {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO stock_items (product_id, size, qty, updated_at)
			VALUES ($1, $2, $3, NOW())
			ON CONFLICT (product_id, size)
			DO UPDATE SET qty = stock_items.qty + EXCLUDED.qty, updated_at = NOW()
		`, domain.NormalizeProductID(line.ProductID), line.Size, line.Qty); err != nil {
			return fmt.Errorf("release stock: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit release: %w", err)
	}

	return nil
}

func (r *stockRepository) quantityTx(ctx context.Context, tx *sql.Tx, productID, size string) int32 {
	var qty int32
	_ = tx.QueryRowContext(ctx, `
		SELECT COALESCE(
			(SELECT qty FROM stock_items WHERE product_id = $1 AND size = $2), 0
		)
	`, productID, size).Scan(&qty)
	return qty
}

var _ domain.StockRepository = (*stockRepository)(nil)
