package report_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/service/report"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

func seedSale(t *testing.T, repo domain.TransactionRepository, id, memberID string, createdAt time.Time, lines []domain.TransactionLine) {
	t.Helper()

	total := decimal.Zero
	for i := range lines {
		lines[i].TransactionID = id
		total = total.Add(lines[i].Subtotal())
	}

	require.NoError(t, repo.Save(domain.TransactionHeader{
		ID:            id,
		CreatedAt:     createdAt,
		MemberID:      memberID,
		Total:         total,
		PaymentMethod: "CASH",
	}, lines))
}

func TestSummary(t *testing.T) {
	repo := memory.NewTransactionRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedSale(t, repo, "S00000001", "M001", base, []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 2, UnitPrice: decimal.RequireFromString("19.90")},
	})
	seedSale(t, repo, "S00000002", "", base.Add(time.Hour), []domain.TransactionLine{
		{LineNo: 1, ProductID: "JN002", Size: "L", Qty: 1, UnitPrice: decimal.RequireFromString("49.50")},
	})
	// Вне периода.
	seedSale(t, repo, "S00000003", "", base.Add(48*time.Hour), []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 1, UnitPrice: decimal.RequireFromString("19.90")},
	})

	svc := report.NewService(repo, nil)

	summary, err := svc.Summary(base, base.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Transactions)
	assert.Equal(t, 1, summary.MemberSales)
	assert.True(t, summary.Revenue.Equal(decimal.RequireFromString("89.30")), "revenue %s", summary.Revenue)
}

func TestSummary_OpenEndedPeriod(t *testing.T) {
	repo := memory.NewTransactionRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedSale(t, repo, "S00000001", "", base, []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 1, UnitPrice: decimal.RequireFromString("19.90")},
	})

	svc := report.NewService(repo, nil)

	summary, err := svc.Summary(time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Transactions)
}

func TestByProduct_SortedByRevenue(t *testing.T) {
	repo := memory.NewTransactionRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedSale(t, repo, "S00000001", "", base, []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 2, UnitPrice: decimal.RequireFromString("19.90")},
		{LineNo: 2, ProductID: "JN002", Size: "L", Qty: 2, UnitPrice: decimal.RequireFromString("49.50")},
	})
	seedSale(t, repo, "S00000002", "", base.Add(time.Hour), []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "S", Qty: 1, UnitPrice: decimal.RequireFromString("19.90")},
	})

	svc := report.NewService(repo, nil)

	sales, err := svc.ByProduct(time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "JN002", sales[0].ProductID)
	assert.True(t, sales[0].Revenue.Equal(decimal.RequireFromString("99.00")))
	assert.Equal(t, "TS001", sales[1].ProductID)
	assert.Equal(t, int32(3), sales[1].Qty)
	assert.True(t, sales[1].Revenue.Equal(decimal.RequireFromString("59.70")))
}

func TestTransaction_NotFound(t *testing.T) {
	svc := report.NewService(memory.NewTransactionRepository(), nil)

	_, _, err := svc.Transaction("S99999999")
	require.ErrorIs(t, err, domain.ErrTransactionNotFound)
}

func TestTransaction_ReturnsHeaderAndLines(t *testing.T) {
	repo := memory.NewTransactionRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	seedSale(t, repo, "S00000001", "M001", base, []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 2, UnitPrice: decimal.RequireFromString("19.90")},
	})

	svc := report.NewService(repo, nil)

	header, lines, err := svc.Transaction("S00000001")
	require.NoError(t, err)
	assert.Equal(t, "M001", header.MemberID)
	require.Len(t, lines, 1)
	assert.Equal(t, int32(2), lines[0].Qty)
}
