package memory

import (
	"fmt"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// employeeRepositoryInMemory — in-memory реестр сотрудников.
type employeeRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Employee // ключ — логин в нижнем регистре
}

// NewEmployeeRepository создаёт in-memory реализацию EmployeeRepository.
func NewEmployeeRepository() domain.EmployeeRepository {
	return &employeeRepositoryInMemory{items: make(map[string]domain.Employee)}
}

func employeeKey(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}

// Create сохраняет сотрудника; повторный логин отклоняется.
func (r *employeeRepositoryInMemory) Create(employee domain.Employee) error {
	key := employeeKey(employee.Login)
	if key == "" {
		return fmt.Errorf("employee login is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[key]; exists {
		return fmt.Errorf("%w: %s", domain.ErrEmployeeExists, key)
	}
	r.items[key] = employee
	return nil
}

// GetByLogin возвращает сотрудника или ErrEmployeeNotFound.
func (r *employeeRepositoryInMemory) GetByLogin(login string) (domain.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employee, ok := r.items[employeeKey(login)]
	if !ok {
		return domain.Employee{}, fmt.Errorf("%w: %s", domain.ErrEmployeeNotFound, login)
	}
	return employee, nil
}

var _ domain.EmployeeRepository = (*employeeRepositoryInMemory)(nil)
