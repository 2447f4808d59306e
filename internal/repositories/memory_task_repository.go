package repositories

import (
	"context"
	"sort"
	"sync"

	"github.com/CodehubPriyanshu/taskhub-central-sub001/internal/models"
)

// memoryTaskRepository keeps tasks in process. Records are cloned on the way
// in and out so readers always see a whole committed snapshot.
type memoryTaskRepository struct {
	mu    sync.RWMutex
	tasks map[string]*models.Task
}

func NewMemoryTaskRepository() TaskStore {
	return &memoryTaskRepository{tasks: make(map[string]*models.Task)}
}

func (r *memoryTaskRepository) Get(ctx context.Context, id string) (*models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return t.Clone(), nil
}

func (r *memoryTaskRepository) Put(ctx context.Context, task *models.Task, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	current, exists := r.tasks[task.ID]
	switch {
	case expectedVersion == 0 && exists:
		return ErrVersionConflict
	case expectedVersion != 0 && !exists:
		return ErrTaskNotFound
	case exists && current.Version != expectedVersion:
		return ErrVersionConflict
	}
	r.tasks[task.ID] = task.Clone()
	return nil
}

func (r *memoryTaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := make([]models.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if filter.Matches(t) {
			out = append(out, *t.Clone())
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}
