package memory

import (
	"context"
)

// journal журнал изменений одной транзакции
type journal struct {
	undo     []func()
	onCommit []func()
	locked   map[int64]struct{}
}

type journalKey struct{}

func journalFrom(ctx context.Context) *journal {
	j, _ := ctx.Value(journalKey{}).(*journal)
	return j
}

// track регистрирует откат и фиксацию изменения. Вызывается под s.mu.
// Вне транзакции фиксация применяется сразу.
func track(j *journal, undo, commit func()) {
	if j == nil {
		if commit != nil {
			commit()
		}
		return
	}
	if undo != nil {
		j.undo = append(j.undo, undo)
	}
	if commit != nil {
		j.onCommit = append(j.onCommit, commit)
	}
}

// TxManager менеджер транзакций in-memory хранилища.
// Повторяет контракт txmanager.TransactionManager.
type TxManager struct {
	s *Store
}

// Do выполняет fn в транзакции. Вложенный вызов переиспользует внешнюю транзакцию.
func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if journalFrom(ctx) != nil {
		return fn(ctx)
	}

	j := &journal{locked: make(map[int64]struct{})}
	err := fn(context.WithValue(ctx, journalKey{}, j))
	m.s.finish(j, err == nil)

	return err
}

func (s *Store) finish(j *journal, commit bool) {
	s.mu.Lock()
	if commit {
		for _, fn := range j.onCommit {
			fn()
		}
	} else {
		for i := len(j.undo) - 1; i >= 0; i-- {
			j.undo[i]()
		}
	}
	s.mu.Unlock()

	for slotID := range j.locked {
		<-s.lockFor(slotID)
	}
}
