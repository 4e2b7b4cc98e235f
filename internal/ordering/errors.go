package ordering

import "errors"

var (
	// ErrPositionExhausted нет представимого значения между соседями.
	// Вызывающий код должен перенумеровать родителя целиком (Renumber).
	ErrPositionExhausted = errors.New("position exhausted")

	// ErrInvalidIndex индекс вставки вне диапазона [0, len].
	ErrInvalidIndex = errors.New("insert index out of range")

	// ErrUnordered позиции переданы не в порядке неубывания.
	ErrUnordered = errors.New("positions are not ordered")

	// ErrInvalidPosition позиция равна NaN или бесконечности.
	ErrInvalidPosition = errors.New("invalid position value")

	// ErrDuplicateID один и тот же id встречается в порядке дважды.
	ErrDuplicateID = errors.New("duplicate id in order")

	// ErrEmptyID пустой id в порядке.
	ErrEmptyID = errors.New("empty id in order")
)
