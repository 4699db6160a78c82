package tracker

import (
	"context"
	"strings"

	"github.com/boudmaker/oclock/internal/schema"
	"github.com/boudmaker/oclock/internal/store/local"
)

// AddTodo appends a new incomplete todo. Blank or whitespace-only text
// is rejected.
func (t *Tracker) AddTodo(text string) (*schema.TodoItem, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		t.notifyError("Todo text cannot be empty")
		return nil, ErrBlankTodo
	}

	t.mu.Lock()
	item := &schema.TodoItem{
		ID:        schema.NewID(),
		Text:      trimmed,
		CreatedAt: t.now(),
	}
	t.todos = append(t.todos, item)
	t.persistTodoUpsertLocked(item)
	out := *item
	t.mu.Unlock()
	return &out, nil
}

// ToggleTodo flips the completion flag of the todo with the given id.
// It reports whether the id was found; toggling an unknown id is a
// no-op.
func (t *Tracker) ToggleTodo(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, item := range t.todos {
		if item.ID == id {
			item.Completed = !item.Completed
			t.persistTodoUpsertLocked(item)
			return true
		}
	}
	return false
}

// DeleteTodo removes the todo with the given id. Deleting an unknown id
// is a no-op; in signed-in mode the remote delete is issued regardless
// so both tiers converge.
func (t *Tracker) DeleteTodo(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	found := false
	kept := t.todos[:0]
	for _, item := range t.todos {
		if item.ID == id {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	t.todos = kept

	if t.remoteActiveLocked() {
		owner := t.principal
		t.todoQ.enqueue(func(ctx context.Context) {
			if err := t.remoteDB.DeleteTodoContext(ctx, owner, id); err != nil {
				t.remoteWriteFailed("todo", err)
			}
		})
	} else {
		t.writeTodosLocalLocked()
	}
	return found
}

// Todos returns a snapshot of the todo sequence in insertion order.
func (t *Tracker) Todos() []schema.TodoItem {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]schema.TodoItem, len(t.todos))
	for i, item := range t.todos {
		out[i] = *item
	}
	return out
}

// persistTodoUpsertLocked routes one todo write to the active tier.
// Caller holds t.mu.
func (t *Tracker) persistTodoUpsertLocked(item *schema.TodoItem) {
	if t.remoteActiveLocked() {
		owner := t.principal
		row := *item
		t.todoQ.enqueue(func(ctx context.Context) {
			if err := t.remoteDB.UpsertTodoContext(ctx, owner, &row); err != nil {
				t.remoteWriteFailed("todo", err)
			}
		})
		return
	}
	t.writeTodosLocalLocked()
}

func (t *Tracker) writeTodosLocalLocked() {
	todos := t.todos
	if todos == nil {
		todos = []*schema.TodoItem{}
	}
	t.writeLocalLocked(local.KeyTodos, todos, t.todosHydrated)
}
