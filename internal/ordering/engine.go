package ordering

import (
	"log/slog"
	"sync"
)

// CommitFunc сохраняет и рассылает результат перестановки.
// Вызывается под блокировкой доски.
type CommitFunc func(placements []Placement) error

// Engine сериализует перестановки в пределах одной доски.
// Разные доски обрабатываются параллельно.
type Engine struct {
	logger *slog.Logger
	boards map[string]*boardLock
	mu     sync.Mutex
}

// boardLock мьютекс доски со счетчиком ожидающих
type boardLock struct {
	mu   sync.Mutex
	refs int
}

// NewEngine создает движок упорядочивания.
func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		logger: logger,
		boards: make(map[string]*boardLock),
	}
}

// Serialize выполняет fn, удерживая блокировку доски boardID.
// Все операции, которые читают позиции соседей и записывают новые,
// должны выполняться внутри Serialize, иначе два одновременных
// перетаскивания могут получить одну и ту же позицию.
func (e *Engine) Serialize(boardID string, fn func() error) error {
	l := e.acquire(boardID)
	defer e.release(boardID, l)

	return fn()
}

// ReorderBatch назначает позиции 0..n-1 в порядке ids под блокировкой доски.
// commit (может быть nil) получает результат до снятия блокировки.
func (e *Engine) ReorderBatch(boardID string, ids []string, commit CommitFunc) ([]Placement, error) {
	var placements []Placement

	err := e.Serialize(boardID, func() error {
		var err error
		placements, err = AssignOrder(ids)
		if err != nil {
			return err
		}
		if commit != nil {
			return commit(placements)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Debug("reorder applied", "board_id", boardID, "count", len(placements))
	return placements, nil
}

// ActiveBoards возвращает количество досок, по которым сейчас идут перестановки.
func (e *Engine) ActiveBoards() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return len(e.boards)
}

func (e *Engine) acquire(boardID string) *boardLock {
	e.mu.Lock()
	l, ok := e.boards[boardID]
	if !ok {
		l = &boardLock{}
		e.boards[boardID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return l
}

func (e *Engine) release(boardID string, l *boardLock) {
	l.mu.Unlock()

	e.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(e.boards, boardID)
	}
	e.mu.Unlock()
}
