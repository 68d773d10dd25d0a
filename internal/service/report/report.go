package report

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// SalesSummary — агрегат по журналу продаж за период.
type SalesSummary struct {
	From         time.Time
	To           time.Time
	Transactions int
	Revenue      decimal.Decimal
	MemberSales  int
}

// ProductSales — продажи одного товара за период.
type ProductSales struct {
	ProductID string
	Qty       int32
	Revenue   decimal.Decimal
}

// Service строит отчёты, читая журнал продаж. Журнал никогда не мутируется.
type Service struct {
	transactions domain.TransactionRepository
	logger       *log.Entry
}

// NewService создаёт сервис отчётности.
func NewService(transactions domain.TransactionRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "report")
	}
	return &Service{transactions: transactions, logger: logger}
}

// AllHeaders возвращает шапки чеков в порядке создания.
func (s *Service) AllHeaders() ([]domain.TransactionHeader, error) {
	return s.transactions.AllHeaders()
}

// Transaction возвращает шапку и строки одного чека.
func (s *Service) Transaction(id string) (domain.TransactionHeader, []domain.TransactionLine, error) {
	headers, err := s.transactions.AllHeaders()
	if err != nil {
		return domain.TransactionHeader{}, nil, err
	}
	for _, header := range headers {
		if header.ID != id {
			continue
		}
		lines, err := s.transactions.LinesFor(id)
		if err != nil {
			return domain.TransactionHeader{}, nil, err
		}
		return header, lines, nil
	}
	return domain.TransactionHeader{}, nil, fmt.Errorf("%w: %s", domain.ErrTransactionNotFound, id)
}

// Summary считает количество продаж и выручку за [from, to).
// Нулевые границы означают «без ограничения» с соответствующей стороны.
func (s *Service) Summary(from, to time.Time) (SalesSummary, error) {
	headers, err := s.transactions.AllHeaders()
	if err != nil {
		return SalesSummary{}, err
	}

	summary := SalesSummary{From: from, To: to, Revenue: decimal.Zero}
	for _, header := range headers {
		if !inRange(header.CreatedAt, from, to) {
			continue
		}
		summary.Transactions++
		summary.Revenue = summary.Revenue.Add(header.Total)
		if header.MemberID != "" {
			summary.MemberSales++
		}
	}

	return summary, nil
}

// ByProduct агрегирует количество и выручку по товарам за [from, to),
// сортируя по убыванию выручки.
func (s *Service) ByProduct(from, to time.Time) ([]ProductSales, error) {
	headers, err := s.transactions.AllHeaders()
	if err != nil {
		return nil, err
	}

	totals := make(map[string]*ProductSales)
	for _, header := range headers {
		if !inRange(header.CreatedAt, from, to) {
			continue
		}
		lines, err := s.transactions.LinesFor(header.ID)
		if err != nil {
			return nil, err
		}
		for _, line := range lines {
			entry, ok := totals[line.ProductID]
			if !ok {
				entry = &ProductSales{ProductID: line.ProductID, Revenue: decimal.Zero}
				totals[line.ProductID] = entry
			}
			entry.Qty += line.Qty
			entry.Revenue = entry.Revenue.Add(line.Subtotal())
		}
	}

	result := make([]ProductSales, 0, len(totals))
	for _, entry := range totals {
		result = append(result, *entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Revenue.Equal(result[j].Revenue) {
			return result[i].Revenue.GreaterThan(result[j].Revenue)
		}
		return result[i].ProductID < result[j].ProductID
	})

	return result, nil
}

func inRange(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && !ts.Before(to) {
		return false
	}
	return true
}
