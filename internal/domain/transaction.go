package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionHeader — шапка чека: одна запись на успешную продажу.
// После записи в журнал не изменяется и не удаляется.
type TransactionHeader struct {
	// ID — последовательный человекочитаемый идентификатор продажи (S00000001, ...).
	ID        string
	CreatedAt time.Time
	// MemberID — идентификатор участника программы лояльности; пустая строка,
	// если продажа без членства.
	MemberID string
	// CustomerRef — свободная ссылка на покупателя (имя, номер талона и т.п.).
	CustomerRef string
	// Total — итог к оплате после скидки.
	Total         decimal.Decimal
	PaymentMethod string
}

// TransactionLine — строка чека. UnitPrice зафиксирована в момент продажи:
// последующие изменения цены в каталоге исторические чеки не трогают.
type TransactionLine struct {
	TransactionID string
	// LineNo — номер строки, 1-based, непрерывный, в порядке запроса.
	LineNo    int32
	ProductID string
	Size      string
	Qty       int32
	UnitPrice decimal.Decimal
}

// Subtotal возвращает сумму строки: qty × снапшот цены.
func (l *TransactionLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt32(l.Qty))
}

// ValidateInvariants проверяет согласованность шапки и строк чека.
func (h *TransactionHeader) ValidateInvariants(lines []TransactionLine) []error {
	var errs []error

	if h.PaymentMethod == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}
	if len(lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if h.Total.IsNegative() {
		errs = append(errs, ErrSubtotalNegative)
	}

	for i, line := range lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrLineQtyInvalid)
		}
		if line.UnitPrice.IsNegative() {
			errs = append(errs, ErrPriceInvalid)
		}
		// Номера строк непрерывные и 1-based.
		if line.LineNo != int32(i+1) {
			errs = append(errs, ErrLineNoInvalid)
		}
	}

	return errs
}
