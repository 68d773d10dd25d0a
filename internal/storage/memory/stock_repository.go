package memory

import (
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// stockRepositoryInMemory хранит остатки по (товар, размер) в памяти.
// Один мьютекс на всё хранилище: Reserve обязан видеть и менять набор
// ключей как единое целое, полосование тут не даст ничего, кроме дедлоков.
type stockRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[domain.StockKey]int32
}

// NewStockRepository создаёт in-memory реализацию StockRepository.
func NewStockRepository() domain.StockRepository {
	return &stockRepositoryInMemory{
		items: make(map[domain.StockKey]int32),
	}
}

func stockKey(productID, size string) domain.StockKey {
	return domain.StockKey{ProductID: domain.NormalizeProductID(productID), Size: size}
}

// Quantity возвращает остаток по ключу; отсутствующий ключ трактуется как 0.
func (r *stockRepositoryInMemory) Quantity(productID, size string) (int32, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.items[stockKey(productID, size)], nil
}

// TotalQuantity суммирует остаток товара по всем размерам.
func (r *stockRepositoryInMemory) TotalQuantity(productID string) (int32, error) {
	id := domain.NormalizeProductID(productID)

	r.mu.RLock()
	defer r.mu.RUnlock()

	var total int32
	for key, qty := range r.items {
		if key.ProductID == id {
			total += qty
		}
	}
	return total, nil
}

// SetQuantity выставляет абсолютный остаток; перезапись идемпотентна.
func (r *stockRepositoryInMemory) SetQuantity(productID, size string, qty int32) error {
	if qty < 0 {
		return domain.ErrStockQtyNegative
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[stockKey(productID, size)] = qty
	return nil
}

// Increase добавляет qty к текущему остатку.
func (r *stockRepositoryInMemory) Increase(productID, size string, qty int32) error {
	if qty <= 0 {
		return domain.ErrStockAdjustInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.items[stockKey(productID, size)] += qty
	return nil
}

// Decrease списывает qty целиком или никак.
func (r *stockRepositoryInMemory) Decrease(productID, size string, qty int32) error {
	if qty <= 0 {
		return domain.ErrStockAdjustInvalid
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	key := stockKey(productID, size)
	current := r.items[key]
	if current < qty {
		return fmt.Errorf("%w: %s size %s has %d, requested %d",
			domain.ErrInsufficientStock, key.ProductID, key.Size, current, qty)
	}
	r.items[key] = current - qty
	return nil
}

// Reserve атомарно списывает весь набор строк: сперва проверяется
// суммарное требование по каждому ключу, затем применяются все списания
// под тем же захваченным мьютексом. Частичных списаний не бывает.
func (r *stockRepositoryInMemory) Reserve(lines []domain.StockLine) error {
	aggregated := domain.AggregateStockLines(lines)
	for _, line := range aggregated {
		if errs := line.Validate(); len(errs) > 0 {
			return errs[0]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range aggregated {
		key := stockKey(line.ProductID, line.Size)
		if current := r.items[key]; current < line.Qty {
			return fmt.Errorf("%w: %s size %s has %d, requested %d",
				domain.ErrInsufficientStock, key.ProductID, key.Size, current, line.Qty)
		}
	}

	for _, line := range aggregated {
		r.items[stockKey(line.ProductID, line.Size)] -= line.Qty
	}
	return nil
}

// Release возвращает ранее списанный набор строк.
func (r *stockRepositoryInMemory) Release(lines []domain.StockLine) error {
	aggregated := domain.AggregateStockLines(lines)
	for _, line := range aggregated {
		if errs := line.Validate(); len(errs) > 0 {
			return errs[0]
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, line := range aggregated {
		r.items[stockKey(line.ProductID, line.Size)] += line.Qty
	}
	return nil
}

var _ domain.StockRepository = (*stockRepositoryInMemory)(nil)
