package domain

import "errors"

var (
	// Ошибка пустого запроса на оформление продажи.
	ErrOrderRequired = errors.New("order request is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка пустого способа оплаты.
	ErrPaymentMethodRequired = errors.New("payment method is required")
	// Ошибка при некорректном количестве в позиции (<= 0).
	ErrLineQtyInvalid = errors.New("line qty must be greater than zero")
	// Ошибка отсутствующего идентификатора товара в позиции.
	ErrLineProductRequired = errors.New("line product id is required")
	// Ошибка нарушения нумерации строк чека (номера 1-based и непрерывные).
	ErrLineNoInvalid = errors.New("line numbers must be contiguous starting from 1")
	// Ошибка пустого размера в позиции.
	ErrLineSizeRequired = errors.New("line size is required")
	// Ошибка некорректной цены товара.
	ErrPriceInvalid = errors.New("unit price must be greater than zero")
	// Ошибка пустого имени товара.
	ErrProductNameRequired = errors.New("product name is required")
	// Ошибка пустого идентификатора товара.
	ErrProductIDRequired = errors.New("product id is required")
	// ErrProductNotFound возвращается, если товар не найден в каталоге.
	ErrProductNotFound = errors.New("product not found")
	// ErrProductInactive возвращается при попытке продать снятый с продажи товар.
	ErrProductInactive = errors.New("product is inactive")
	// ErrStockQtyNegative — попытка установить отрицательный остаток.
	ErrStockQtyNegative = errors.New("stock qty must be non-negative")
	// ErrStockAdjustInvalid — величина изменения остатка должна быть положительной.
	ErrStockAdjustInvalid = errors.New("stock adjustment must be greater than zero")
	// ErrInsufficientStock — запрошенное количество превышает доступный остаток.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrSubtotalNegative — отрицательная промежуточная сумма в ценообразовании.
	ErrSubtotalNegative = errors.New("subtotal must be non-negative")
	// ErrDiscountRateInvalid — ставка скидки должна лежать в интервале [0, 1).
	ErrDiscountRateInvalid = errors.New("discount rate must be in [0, 1)")
	// ErrTransactionNotFound возвращается, если продажа не найдена в журнале.
	ErrTransactionNotFound = errors.New("transaction not found")
	// ErrPersistence — ошибка записи в журнал продаж; продажа не считается оформленной.
	ErrPersistence = errors.New("transaction persistence failed")
	// ErrStockNotRestored — запись продажи не удалась, и компенсация резерва тоже:
	// остатки уменьшены без зафиксированной продажи, требуется ручная сверка.
	ErrStockNotRestored = errors.New("sale not recorded and reserved stock not restored")
	// ErrMemberNotFound возвращается, если участник программы лояльности не найден.
	ErrMemberNotFound = errors.New("member not found")
	// ErrMemberIDRequired — пустой идентификатор участника.
	ErrMemberIDRequired = errors.New("member id is required")
	// ErrEmployeeNotFound возвращается, если сотрудник не найден.
	ErrEmployeeNotFound = errors.New("employee not found")
	// ErrEmployeeExists — логин сотрудника уже занят.
	ErrEmployeeExists = errors.New("employee login already exists")
	// ErrInvalidCredentials — пара логин/пароль не подошла.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked — учётная запись временно заблокирована после серии неудачных входов.
	ErrAccountLocked = errors.New("account is locked")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
	// ErrIdempotencyKeyRequired — пустой ключ идемпотентности.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хеш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyNotFound — запись по ключу не найдена.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
	// ErrIdempotencyKeyAlreadyExists — ключ уже обрабатывается или обработан.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — тот же ключ пришёл с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency request hash mismatch")
)

// validationErrors перечисляет ошибки, которые каллер исправляет, поменяв входные данные.
var validationErrors = []error{
	ErrOrderRequired,
	ErrLinesRequired,
	ErrPaymentMethodRequired,
	ErrLineQtyInvalid,
	ErrLineProductRequired,
	ErrLineSizeRequired,
	ErrPriceInvalid,
	ErrProductNameRequired,
	ErrProductIDRequired,
	ErrProductInactive,
	ErrStockQtyNegative,
	ErrStockAdjustInvalid,
	ErrSubtotalNegative,
	ErrMemberIDRequired,
}

// IsValidation проверяет, относится ли ошибка к ошибкам валидации входных данных.
func IsValidation(err error) bool {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// IsNotFound проверяет, является ли ошибка ошибкой отсутствия записи.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrTransactionNotFound) ||
		errors.Is(err, ErrMemberNotFound) ||
		errors.Is(err, ErrEmployeeNotFound)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатков.
func IsInsufficientStock(err error) bool {
	return errors.Is(err, ErrInsufficientStock)
}
