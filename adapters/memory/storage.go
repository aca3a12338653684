package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"task-tracker/core"
)

type IDStrategy string

const (
	// IDMonotonic never hands out the same id twice in a process lifetime.
	IDMonotonic IDStrategy = "monotonic"
	// IDLength derives the next id from the live collection size. Ids can
	// repeat after deletions.
	IDLength IDStrategy = "length"
)

func ParseIDStrategy(s string) (IDStrategy, error) {
	switch IDStrategy(s) {
	case IDMonotonic, "":
		return IDMonotonic, nil
	case IDLength:
		return IDLength, nil
	default:
		return "", fmt.Errorf("unknown id strategy %q", s)
	}
}

// Storage keeps tasks in insertion order. Lookups scan the slice and take
// the first match, so duplicate ids under IDLength resolve the same way the
// collection is ordered.
type Storage struct {
	log *slog.Logger

	mu       sync.RWMutex
	strategy IDStrategy
	lastID   int64
	tasks    []*core.Task
}

func New(log *slog.Logger, strategy IDStrategy) *Storage {
	if strategy == "" {
		strategy = IDMonotonic
	}
	return &Storage{
		log:      log,
		strategy: strategy,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Storage) nextID() int64 {
	if s.strategy == IDLength {
		return int64(len(s.tasks)) + 1
	}
	return s.lastID + 1
}

func (s *Storage) NextID(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.nextID(), nil
}

func (s *Storage) Insert(ctx context.Context, t core.Task) (core.Task, error) {
	if err := ctx.Err(); err != nil {
		return core.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t = t.Clone()
	t.ID = s.nextID()
	if t.ID > s.lastID {
		s.lastID = t.ID
	}
	if t.Status == "" {
		t.Status = core.StatusPending
	}
	if t.History == nil {
		t.History = []core.HistoryEntry{}
	}
	if t.Comments == nil {
		t.Comments = []json.RawMessage{}
	}
	s.tasks = append(s.tasks, &t)

	s.log.Debug("task inserted", "id", t.ID, "total", len(s.tasks))
	return t.Clone(), nil
}

func (s *Storage) indexOf(id int64) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func (s *Storage) FindByID(ctx context.Context, id int64) (core.Task, error) {
	if err := ctx.Err(); err != nil {
		return core.Task{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Task{}, core.ErrTaskNotFound
	}
	return s.tasks[i].Clone(), nil
}

func (s *Storage) FindIndex(ctx context.Context, id int64) (int, error) {
	if err := ctx.Err(); err != nil {
		return -1, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return -1, core.ErrTaskNotFound
	}
	return i, nil
}

func (s *Storage) Update(ctx context.Context, id int64, fn func(t *core.Task) error) (core.Task, error) {
	if err := ctx.Err(); err != nil {
		return core.Task{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.Task{}, core.ErrTaskNotFound
	}

	draft := s.tasks[i].Clone()
	if err := fn(&draft); err != nil {
		return core.Task{}, err
	}
	draft.ID = s.tasks[i].ID
	s.tasks[i] = &draft

	return draft.Clone(), nil
}

func (s *Storage) Remove(ctx context.Context, id int64) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)

	s.log.Debug("task removed", "id", id, "total", len(s.tasks))
	return true, nil
}

func (s *Storage) RemoveWhere(ctx context.Context, pred func(t core.Task) bool) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]*core.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !pred(t.Clone()) {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept

	if removed > 0 {
		s.log.Debug("tasks removed", "count", removed, "total", len(s.tasks))
	}
	return removed, nil
}

func (s *Storage) List(ctx context.Context) ([]core.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		out = append(out, t.Clone())
	}
	return out, nil
}

func (s *Storage) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.tasks), nil
}
