package memory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// transactionIDPrefix — префикс последовательных идентификаторов продаж.
const transactionIDPrefix = "S"

// transactionRepositoryInMemory — append-only журнал продаж в памяти.
type transactionRepositoryInMemory struct {
	mu      sync.RWMutex
	order   []string // порядок создания шапок
	headers map[string]domain.TransactionHeader
	lines   map[string][]domain.TransactionLine
	counter int64
}

// NewTransactionRepository создаёт in-memory журнал продаж.
func NewTransactionRepository() domain.TransactionRepository {
	return &transactionRepositoryInMemory{
		headers: make(map[string]domain.TransactionHeader),
		lines:   make(map[string][]domain.TransactionLine),
	}
}

// NextID атомарно выдаёт следующий последовательный идентификатор.
// Счётчик заменяет сканирование существующих шапок на максимум: два
// конкурентных оформления не могут получить одинаковый номер.
func (r *transactionRepositoryInMemory) NextID() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.counter++
	return formatTransactionID(r.counter), nil
}

// Save сохраняет шапку и строки как одно целое; повторный ID заменяет запись.
func (r *transactionRepositoryInMemory) Save(header domain.TransactionHeader, lines []domain.TransactionLine) error {
	if errs := header.ValidateInvariants(lines); len(errs) > 0 {
		return errs[0]
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.headers[header.ID]; !exists {
		r.order = append(r.order, header.ID)
	}

	// Сохраняем копии, чтобы избежать непредсказуемых мутаций извне.
	r.headers[header.ID] = header
	stored := make([]domain.TransactionLine, len(lines))
	copy(stored, lines)
	r.lines[header.ID] = stored

	// Внешний ID с большим номером сдвигает счётчик вперёд, чтобы
	// NextID никогда не выдал уже занятый идентификатор.
	if n, ok := parseTransactionID(header.ID); ok && n > r.counter {
		r.counter = n
	}

	return nil
}

// AllHeaders возвращает шапки в порядке создания.
func (r *transactionRepositoryInMemory) AllHeaders() ([]domain.TransactionHeader, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.TransactionHeader, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.headers[id])
	}
	return result, nil
}

// LinesFor возвращает строки чека в порядке номеров строк.
func (r *transactionRepositoryInMemory) LinesFor(transactionID string) ([]domain.TransactionLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	lines, ok := r.lines[transactionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, transactionID)
	}

	result := make([]domain.TransactionLine, len(lines))
	copy(result, lines)
	sort.Slice(result, func(i, j int) bool {
		return result[i].LineNo < result[j].LineNo
	})
	return result, nil
}

func formatTransactionID(n int64) string {
	return fmt.Sprintf("%s%08d", transactionIDPrefix, n)
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

var _ domain.TransactionRepository = (*transactionRepositoryInMemory)(nil)
