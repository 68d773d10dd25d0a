package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

func TestOrderRequest_ValidateInvariants_EmptyLines(t *testing.T) {
	request := domain.OrderRequest{PaymentMethod: "CASH"}

	errs := request.ValidateInvariants()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs[0], domain.ErrLinesRequired) {
		t.Fatalf("expected ErrLinesRequired, got %v", errs[0])
	}
}

func TestOrderRequest_ValidateInvariants_MissingPayment(t *testing.T) {
	request := domain.OrderRequest{
		Lines: []domain.OrderLineRequest{{ProductID: "TS001", Size: "M", Qty: 1}},
	}

	errs := request.ValidateInvariants()
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d", len(errs))
	}
	if !errors.Is(errs[0], domain.ErrPaymentMethodRequired) {
		t.Fatalf("expected ErrPaymentMethodRequired, got %v", errs[0])
	}
}

func TestOrderRequest_IsMember(t *testing.T) {
	cases := []struct {
		name     string
		memberID string
		want     bool
	}{
		{"empty", "", false},
		{"spaces only", "   ", false},
		{"member", "M001", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			request := domain.OrderRequest{MemberID: tc.memberID}
			if got := request.IsMember(); got != tc.want {
				t.Fatalf("IsMember(%q) = %v, want %v", tc.memberID, got, tc.want)
			}
		})
	}
}

func TestTransactionHeader_ValidateInvariants_LineNumbering(t *testing.T) {
	header := domain.TransactionHeader{
		ID:            "S00000001",
		Total:         decimal.RequireFromString("10.00"),
		PaymentMethod: "CASH",
	}

	lines := []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 1, UnitPrice: decimal.RequireFromString("5.00")},
		{LineNo: 3, ProductID: "TS002", Size: "L", Qty: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}

	errs := header.ValidateInvariants(lines)
	if len(errs) == 0 {
		t.Fatal("expected line numbering error")
	}
	if !errors.Is(errs[0], domain.ErrLineNoInvalid) {
		t.Fatalf("expected ErrLineNoInvalid, got %v", errs[0])
	}
}

func TestTransactionHeader_ValidateInvariants_NegativeTotal(t *testing.T) {
	header := domain.TransactionHeader{
		ID:            "S00000001",
		Total:         decimal.RequireFromString("-0.01"),
		PaymentMethod: "CASH",
	}
	lines := []domain.TransactionLine{
		{LineNo: 1, ProductID: "TS001", Size: "M", Qty: 1, UnitPrice: decimal.RequireFromString("5.00")},
	}

	errs := header.ValidateInvariants(lines)
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %d: %v", len(errs), errs)
	}
	if !errors.Is(errs[0], domain.ErrSubtotalNegative) {
		t.Fatalf("expected ErrSubtotalNegative, got %v", errs[0])
	}
}

func TestTransactionLine_Subtotal(t *testing.T) {
	line := domain.TransactionLine{
		Qty:       3,
		UnitPrice: decimal.RequireFromString("19.90"),
	}

	if got := line.Subtotal(); !got.Equal(decimal.RequireFromString("59.70")) {
		t.Fatalf("expected 59.70, got %s", got.String())
	}
}

func TestAggregateStockLines(t *testing.T) {
	lines := []domain.StockLine{
		{ProductID: "ts001", Size: "M", Qty: 2},
		{ProductID: "JN002", Size: "L", Qty: 1},
		{ProductID: "TS001", Size: "M", Qty: 3},
	}

	aggregated := domain.AggregateStockLines(lines)
	if len(aggregated) != 2 {
		t.Fatalf("expected 2 aggregated lines, got %d", len(aggregated))
	}
	if aggregated[0].ProductID != "TS001" || aggregated[0].Qty != 5 {
		t.Fatalf("expected TS001 qty 5 first, got %s qty %d", aggregated[0].ProductID, aggregated[0].Qty)
	}
	if aggregated[1].ProductID != "JN002" || aggregated[1].Qty != 1 {
		t.Fatalf("expected JN002 qty 1 second, got %s qty %d", aggregated[1].ProductID, aggregated[1].Qty)
	}
}

func TestNormalizeProductID(t *testing.T) {
	if got := domain.NormalizeProductID("  ts001 "); got != "TS001" {
		t.Fatalf("expected TS001, got %q", got)
	}
}

func TestIsValidation(t *testing.T) {
	if !domain.IsValidation(domain.ErrLinesRequired) {
		t.Fatal("ErrLinesRequired must be a validation error")
	}
	if domain.IsValidation(domain.ErrProductNotFound) {
		t.Fatal("ErrProductNotFound must not be a validation error")
	}
	if domain.IsValidation(domain.ErrInsufficientStock) {
		t.Fatal("ErrInsufficientStock must not be a validation error")
	}
}

func TestIsNotFoundWrapped(t *testing.T) {
	wrapped := fmt.Errorf("lookup failed: %w", domain.ErrProductNotFound)
	if !domain.IsNotFound(wrapped) {
		t.Fatal("wrapped ErrProductNotFound must match IsNotFound")
	}
}
