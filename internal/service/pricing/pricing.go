package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pos/internal/domain"
)

// DefaultDiscountRate — базовая скидка программы лояльности (5%).
var DefaultDiscountRate = decimal.RequireFromString("0.05")

// moneyScale — денежные суммы округляются до двух знаков.
const moneyScale = 2

// Engine — чистый движок ценообразования. Ставка скидки инжектится на
// старте, сам движок не хранит состояния и не имеет побочных эффектов.
type Engine struct {
	rate decimal.Decimal
}

// NewEngine создаёт движок с заданной ставкой скидки из интервала [0, 1).
func NewEngine(rate decimal.Decimal) (*Engine, error) {
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, domain.ErrDiscountRateInvalid
	}
	return &Engine{rate: rate}, nil
}

// NewDefaultEngine создаёт движок с базовой ставкой.
func NewDefaultEngine() *Engine {
	return &Engine{rate: DefaultDiscountRate}
}

// DiscountRate возвращает ставку скидки для отчётов и интерфейса кассы.
func (e *Engine) DiscountRate() decimal.Decimal {
	return e.rate
}

// ApplyMembershipDiscount считает итог к оплате. Без членства итог равен
// промежуточной сумме; с членством — subtotal × (1 − rate), округлённый
// до копеек. Отрицательная промежуточная сумма отклоняется.
func (e *Engine) ApplyMembershipDiscount(subtotal decimal.Decimal, isMember bool) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		return decimal.Decimal{}, domain.ErrSubtotalNegative
	}
	if !isMember {
		return subtotal.Round(moneyScale), nil
	}

	factor := decimal.NewFromInt(1).Sub(e.rate)
	return subtotal.Mul(factor).Round(moneyScale), nil
}
