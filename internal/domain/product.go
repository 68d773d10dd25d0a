package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product описывает позицию каталога: справочные данные о товаре.
// Каталог для движка продаж read-only, мутациями владеет каталожный сервис.
type Product struct {
	// ID — внешний артикул товара, нормализованный (верхний регистр, без пробелов).
	ID string
	// Name — отображаемое название товара.
	Name string
	// Category — товарная категория для отчётности.
	Category string
	// UnitPrice — текущая цена за единицу. В момент продажи цена
	// снапшотится в строку чека и дальше живёт независимо от каталога.
	UnitPrice decimal.Decimal
	// Active показывает, доступен ли товар к продаже.
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeProductID приводит артикул к канонической форме:
// обрезает пробелы и поднимает регистр. Поиск в каталоге регистронезависимый.
func NormalizeProductID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidateInvariants проверяет базовые инварианты товара и возвращает список замечаний.
func (p *Product) ValidateInvariants() []error {
	var errs []error

	if NormalizeProductID(p.ID) == "" {
		errs = append(errs, ErrProductIDRequired)
	}
	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ErrProductNameRequired)
	}
	if !p.UnitPrice.IsPositive() {
		errs = append(errs, ErrPriceInvalid)
	}

	return errs
}
