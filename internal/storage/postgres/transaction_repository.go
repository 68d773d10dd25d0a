package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// transactionIDPrefix — префикс последовательных идентификаторов продаж.
const transactionIDPrefix = "S"

type transactionRepository struct {
	db *sql.DB
}

// NewTransactionRepository создаёт PostgreSQL-реализацию TransactionRepository.
// Номера продаж выдаёт sequence: два конкурентных оформления не могут
// получить одинаковый идентификатор.
func NewTransactionRepository(store *Store) domain.TransactionRepository {
	return &transactionRepository{db: store.DB()}
}

func (r *transactionRepository) NextID() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT nextval('transaction_id_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("next transaction id: %w", err)
	}

	return fmt.Sprintf("%s%08d", transactionIDPrefix, n), nil
}

// Save сохраняет шапку и строки как одно целое; повторный ID заменяет запись.
func (r *transactionRepository) Save(header domain.TransactionHeader, lines []domain.TransactionLine) error {
	if errs := header.ValidateInvariants(lines); len(errs) > 0 {
		return errs[0]
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

	_, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, created_at, member_id, customer_ref, total, payment_method)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id)
		DO UPDATE SET created_at = EXCLUDED.created_at,
		              member_id = EXCLUDED.member_id,
		              customer_ref = EXCLUDED.customer_ref,
		              total = EXCLUDED.total,
		              payment_method = EXCLUDED.payment_method
	`,
		header.ID, header.CreatedAt, header.MemberID,
		header.CustomerRef, header.Total, header.PaymentMethod,
	)
	if err != nil {
		return fmt.Errorf("upsert transaction header: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM transaction_lines WHERE transaction_id = $1`, header.ID); err != nil {
		return fmt.Errorf("clear transaction lines: %w", err)
	}

	for _, line := range lines {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO transaction_lines (transaction_id, line_no, product_id, size, qty, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6)
		`,
			header.ID, line.LineNo, line.ProductID, line.Size, line.Qty, line.UnitPrice,
		); err != nil {
			return fmt.Errorf("insert transaction line: %w", err)
		}
	}

	// Внешний ID с большим номером сдвигает sequence вперёд, чтобы
	// NextID никогда не выдал уже занятый идентификатор.
	if n, ok := parseTransactionID(header.ID); ok {
		if _, err = tx.ExecContext(ctx, `
			SELECT setval('transaction_id_seq', GREATEST($1::bigint, last_value))
			FROM transaction_id_seq
		`, n); err != nil {
			return fmt.Errorf("advance transaction sequence: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save transaction: %w", err)
	}

	return nil
}

func (r *transactionRepository) AllHeaders() ([]domain.TransactionHeader, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, created_at, member_id, customer_ref, total, payment_method
		FROM transactions
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("list transaction headers: %w", err)
	}
	defer rows.Close()

	result := make([]domain.TransactionHeader, 0)
	for rows.Next() {
		var header domain.TransactionHeader
		if err := rows.Scan(
			&header.ID, &header.CreatedAt, &header.MemberID,
			&header.CustomerRef, &header.Total, &header.PaymentMethod,
		); err != nil {
			return nil, fmt.Errorf("scan transaction header: %w", err)
		}
		result = append(result, header)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction headers: %w", err)
	}

	return result, nil
}

func (r *transactionRepository) LinesFor(transactionID string) ([]domain.TransactionLine, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	exists, err := r.headerExists(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, transactionID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT transaction_id, line_no, product_id, size, qty, unit_price
		FROM transaction_lines
		WHERE transaction_id = $1
		ORDER BY line_no
	`, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list transaction lines: %w", err)
	}
	defer rows.Close()

	result := make([]domain.TransactionLine, 0)
	for rows.Next() {
		var line domain.TransactionLine
		if err := rows.Scan(
			&line.TransactionID, &line.LineNo, &line.ProductID,
			&line.Size, &line.Qty, &line.UnitPrice,
		); err != nil {
			return nil, fmt.Errorf("scan transaction line: %w", err)
		}
		result = append(result, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction lines: %w", err)
	}

	return result, nil
}

func (r *transactionRepository) headerExists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM transactions WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check transaction exists: %w", err)
}

func parseTransactionID(id string) (int64, bool) {
	if !strings.HasPrefix(id, transactionIDPrefix) {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimPrefix(id, transactionIDPrefix), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

var _ domain.TransactionRepository = (*transactionRepository)(nil)
