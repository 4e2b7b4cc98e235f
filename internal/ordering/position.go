// Package ordering вычисляет позиции списков и карточек при drag-and-drop.
//
// Позиции вещественные: вставка между двумя соседями берет середину
// интервала и не трогает остальных. Когда точности float64 не хватает,
// возвращается ErrPositionExhausted и родитель перенумеровывается в 0..n-1.
package ordering

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"
)

// Entity упорядочиваемая сущность (список внутри доски или карточка внутри списка).
type Entity struct {
	ID       string
	ParentID string
	Position float64
}

// Placement итоговая позиция сущности.
type Placement struct {
	ID       string  `json:"id"`
	Position float64 `json:"position"`
}

// Compare задает полный порядок: позиция, затем id лексикографически.
// Одинаковые позиции возможны после конкурентных записей разных клиентов.
func Compare(a, b Entity) int {
	if c := cmp.Compare(a.Position, b.Position); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Sort упорядочивает сущности на месте по (position, id).
func Sort(entities []Entity) {
	slices.SortFunc(entities, Compare)
}

// NextPosition возвращает значение строго между positions[index-1] и
// positions[index]. За границами последовательности используются -∞ и +∞:
// пустая последовательность дает 0, вставка в конец last+1, в начало first-1.
func NextPosition(positions []float64, index int) (float64, error) {
	if index < 0 || index > len(positions) {
		return 0, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidIndex, index, len(positions))
	}

	for i, p := range positions {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return 0, fmt.Errorf("%w at %d", ErrInvalidPosition, i)
		}
		if i > 0 && p < positions[i-1] {
			return 0, fmt.Errorf("%w at %d", ErrUnordered, i)
		}
	}

	if len(positions) == 0 {
		return 0, nil
	}

	var next float64
	switch index {
	case 0:
		next = positions[0] - 1
		if !(next < positions[0]) {
			return 0, ErrPositionExhausted
		}
	case len(positions):
		last := positions[len(positions)-1]
		next = last + 1
		if !(next > last) {
			return 0, ErrPositionExhausted
		}
	default:
		left, right := positions[index-1], positions[index]
		next = left + (right-left)/2
		if !(next > left && next < right) {
			return 0, ErrPositionExhausted
		}
	}

	return next, nil
}

// Renumber возвращает копию последовательности с позициями 0, 1, ..., n-1
// в заданном порядке.
func Renumber(seq []Entity) []Entity {
	out := make([]Entity, len(seq))
	for i, e := range seq {
		e.Position = float64(i)
		out[i] = e
	}
	return out
}

// AssignOrder назначает позиции 0..n-1 сущностям в порядке ids.
// Используется для полной перестановки, присланной клиентом.
func AssignOrder(ids []string) ([]Placement, error) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]Placement, 0, len(ids))

	for i, id := range ids {
		if id == "" {
			return nil, fmt.Errorf("%w at %d", ErrEmptyID, i)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
		}
		seen[id] = struct{}{}
		out = append(out, Placement{ID: id, Position: float64(i)})
	}

	return out, nil
}

// Plan результат Place.
// Если Renumbered не пуст, новые позиции нужно сохранить для всех
// перечисленных сущностей, иначе только Position для перемещаемой.
type Plan struct {
	Renumbered []Placement
	Position   float64
}

// Place вычисляет позицию сущности id при вставке на место toIndex среди
// siblings. Сама сущность может присутствовать в siblings (перемещение
// внутри родителя), тогда она не учитывается как сосед.
// Обычный случай стоит O(1) записей; при исчерпании точности родитель
// перенумеровывается.
func Place(siblings []Entity, id string, toIndex int) (Plan, error) {
	rest := make([]Entity, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != id {
			rest = append(rest, s)
		}
	}
	Sort(rest)

	positions := make([]float64, len(rest))
	for i, s := range rest {
		positions[i] = s.Position
	}

	pos, err := NextPosition(positions, toIndex)
	if err == nil {
		return Plan{Position: pos}, nil
	}
	if !errors.Is(err, ErrPositionExhausted) {
		return Plan{}, err
	}

	order := make([]Entity, 0, len(rest)+1)
	order = append(order, rest[:toIndex]...)
	order = append(order, Entity{ID: id})
	order = append(order, rest[toIndex:]...)

	renumbered := Renumber(order)
	plan := Plan{
		Position:   float64(toIndex),
		Renumbered: make([]Placement, len(renumbered)),
	}
	for i, e := range renumbered {
		plan.Renumbered[i] = Placement{ID: e.ID, Position: e.Position}
	}

	return plan, nil
}
