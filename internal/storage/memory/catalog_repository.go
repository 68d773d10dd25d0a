package memory

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// catalogRepositoryInMemory — простая in-memory реализация CatalogRepository.
type catalogRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewCatalogRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewCatalogRepository() domain.CatalogRepository {
	return &catalogRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Create сохраняет новый товар, если артикул ещё не занят.
func (r *catalogRepositoryInMemory) Create(product domain.Product) error {
	id := domain.NormalizeProductID(product.ID)
	if id == "" {
		return domain.ErrProductIDRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[id]; exists {
		return fmt.Errorf("product %s already exists", id)
	}
	product.ID = id
	r.items[id] = product
	return nil
}

// FindByID возвращает товар или ErrProductNotFound. Поиск регистронезависимый.
func (r *catalogRepositoryInMemory) FindByID(id string) (domain.Product, error) {
	key := domain.NormalizeProductID(id)

	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[key]
	if !ok {
		return domain.Product{}, fmt.Errorf("%w: %s", domain.ErrProductNotFound, key)
	}
	return product, nil
}

// List возвращает все товары, отсортированные по артикулу.
func (r *catalogRepositoryInMemory) List() ([]domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Product, 0, len(r.items))
	for _, product := range r.items {
		result = append(result, product)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// Save перезаписывает существующий товар.
func (r *catalogRepositoryInMemory) Save(product domain.Product) error {
	id := domain.NormalizeProductID(product.ID)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	product.ID = id
	r.items[id] = product
	return nil
}

var _ domain.CatalogRepository = (*catalogRepositoryInMemory)(nil)
