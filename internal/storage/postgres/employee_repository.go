package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

type employeeRepository struct {
	db *sql.DB
}

// NewEmployeeRepository создаёт PostgreSQL-реализацию EmployeeRepository.
// Логины хранятся в нижнем регистре.
func NewEmployeeRepository(store *Store) domain.EmployeeRepository {
	return &employeeRepository{db: store.DB()}
}

func (r *employeeRepository) Create(employee domain.Employee) error {
	login := strings.ToLower(strings.TrimSpace(employee.Login))
	if login == "" {
		return fmt.Errorf("employee login is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO employees (id, login, name, role, password_hash, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`,
		employee.ID, login, employee.Name,
		string(employee.Role), employee.PasswordHash, employee.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrEmployeeExists, login)
		}
		return fmt.Errorf("insert employee: %w", err)
	}

	return nil
}

func (r *employeeRepository) GetByLogin(login string) (domain.Employee, error) {
	key := strings.ToLower(strings.TrimSpace(login))

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		employee domain.Employee
		role     string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, login, name, role, password_hash, created_at
		FROM employees
		WHERE login = $1
	`, key).Scan(
		&employee.ID, &employee.Login, &employee.Name,
		&role, &employee.PasswordHash, &employee.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Employee{}, fmt.Errorf("%w: %s", domain.ErrEmployeeNotFound, login)
		}
		return domain.Employee{}, fmt.Errorf("select employee: %w", err)
	}
	employee.Role = domain.EmployeeRole(role)

	return employee, nil
}

var _ domain.EmployeeRepository = (*employeeRepository)(nil)
