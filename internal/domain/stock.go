package domain

// StockKey — составной ключ остатка: товар + размер.
type StockKey struct {
	ProductID string
	Size      string
}

// StockItem описывает остаток по одному ключу.
// Инвариант: Qty никогда не бывает отрицательным.
type StockItem struct {
	Key StockKey
	Qty int32
}

// StockLine — одно требование на списание/возврат остатка.
// Используется атомарными операциями Reserve/Release.
type StockLine struct {
	ProductID string
	Size      string
	Qty       int32
}

// Validate проверяет корректность требования на списание.
func (l *StockLine) Validate() []error {
	var errs []error

	if NormalizeProductID(l.ProductID) == "" {
		errs = append(errs, ErrLineProductRequired)
	}
	if l.Size == "" {
		errs = append(errs, ErrLineSizeRequired)
	}
	if l.Qty <= 0 {
		errs = append(errs, ErrStockAdjustInvalid)
	}

	return errs
}

// AggregateStockLines складывает требования по одинаковым (товар, размер),
// сохраняя порядок первого появления ключа. Атомарный Reserve проверяет
// достаточность остатка по суммарному требованию, а не построчно.
func AggregateStockLines(lines []StockLine) []StockLine {
	index := make(map[StockKey]int, len(lines))
	result := make([]StockLine, 0, len(lines))

	for _, line := range lines {
		key := StockKey{ProductID: NormalizeProductID(line.ProductID), Size: line.Size}
		if pos, ok := index[key]; ok {
			result[pos].Qty += line.Qty
			continue
		}
		index[key] = len(result)
		result = append(result, StockLine{ProductID: key.ProductID, Size: key.Size, Qty: line.Qty})
	}

	return result
}
