// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/deppfellow/tareas/internal/model"
	"github.com/deppfellow/tareas/internal/store"
)

// FakeStore is an in-memory implementation of store.Store for testing.
// Documents are kept in insertion order.
type FakeStore struct {
	mu     sync.RWMutex
	order  []string
	tareas map[string]model.Tarea

	// Error injection for testing
	SaveErr    error
	FindAllErr error
	FindErr    error
	LatestErr  error
	UpdateErr  error
	RemoveErr  error
	PingErr    error

	// Now overrides the creation clock when set.
	Now func() time.Time
}

var _ store.Store = (*FakeStore)(nil)

// NewFakeStore creates an empty FakeStore.
func NewFakeStore() *FakeStore {
	return &FakeStore{tareas: make(map[string]model.Tarea)}
}

// Len returns the number of stored documents.
func (f *FakeStore) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.order)
}

func (f *FakeStore) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f *FakeStore) Save(_ context.Context, tarea *model.Tarea) error {
	if f.SaveErr != nil {
		return f.SaveErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tarea.ID = model.NewID()
	tarea.CreatedAt = f.now().UTC().Truncate(time.Millisecond)
	f.tareas[tarea.ID] = *tarea
	f.order = append(f.order, tarea.ID)
	return nil
}

func (f *FakeStore) FindAll(_ context.Context) ([]model.Tarea, error) {
	if f.FindAllErr != nil {
		return nil, f.FindAllErr
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	tareas := make([]model.Tarea, 0, len(f.order))
	for _, id := range f.order {
		tareas = append(tareas, f.tareas[id])
	}
	return tareas, nil
}

func (f *FakeStore) FindByID(_ context.Context, id string) (*model.Tarea, error) {
	if f.FindErr != nil {
		return nil, f.FindErr
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	tarea, ok := f.tareas[id]
	if !ok {
		return nil, store.ErrNoDocument
	}
	return &tarea, nil
}

func (f *FakeStore) Latest(_ context.Context) (*model.Tarea, error) {
	if f.LatestErr != nil {
		return nil, f.LatestErr
	}

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.order) == 0 {
		return nil, store.ErrNoDocument
	}
	tarea := f.tareas[f.order[len(f.order)-1]]
	return &tarea, nil
}

func (f *FakeStore) UpdateOne(_ context.Context, id string, update store.Update) (bool, error) {
	if f.UpdateErr != nil {
		return false, f.UpdateErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tarea, ok := f.tareas[id]
	if !ok {
		return false, nil
	}
	if update.Description != nil {
		tarea.Description = *update.Description
	}
	if update.Status != nil {
		tarea.Status = *update.Status
	}
	date := update.Date.UTC()
	tarea.Date = &date
	f.tareas[id] = tarea
	return true, nil
}

func (f *FakeStore) Remove(_ context.Context, id string) (bool, error) {
	if f.RemoveErr != nil {
		return false, f.RemoveErr
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.tareas[id]; !ok {
		return false, nil
	}
	delete(f.tareas, id)
	for i, existing := range f.order {
		if existing == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true, nil
}

func (f *FakeStore) Ping(_ context.Context) error {
	return f.PingErr
}

func (f *FakeStore) Close(_ context.Context) error {
	return nil
}
