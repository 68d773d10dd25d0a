package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// OrderLineRequest — одна запрошенная позиция корзины.
// Живёт только на время одного вызова PlaceOrder.
type OrderLineRequest struct {
	ProductID string
	Size      string
	Qty       int32
}

// OrderRequest — корзина, предъявленная кассой к оформлению.
type OrderRequest struct {
	// MemberID — идентификатор участника программы лояльности; пустая строка
	// означает продажу без членства и без скидки.
	MemberID string
	// CustomerRef — свободная ссылка на покупателя.
	CustomerRef string
	// Lines — упорядоченный непустой список позиций.
	Lines []OrderLineRequest
	// PaymentMethod — способ оплаты, непустой ("CASH", "CARD", ...).
	PaymentMethod string
}

// OrderResult — сводка успешно оформленной продажи. Производная, не хранится.
type OrderResult struct {
	TransactionID string
	// Subtotal — сумма qty × снапшот цены по всем строкам.
	Subtotal decimal.Decimal
	// Discount — Subtotal минус Total.
	Discount decimal.Decimal
	// Total — итог после применения скидки за членство.
	Total decimal.Decimal
	// MemberDiscountApplied показывает, применялась ли скидка.
	MemberDiscountApplied bool
}

// IsMember сообщает, привязана ли корзина к участнику программы лояльности.
// Сам факт привязки решает вопрос скидки; валидность членства — зона
// ответственности реестра участников.
func (r *OrderRequest) IsMember() bool {
	return strings.TrimSpace(r.MemberID) != ""
}

// ValidateInvariants проверяет корзину до каких-либо обращений к каталогу
// и складу. Построчные проверки (товар существует, количество положительное)
// выполняются движком оформления в порядке следования строк.
func (r *OrderRequest) ValidateInvariants() []error {
	var errs []error

	if len(r.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}

	return errs
}
