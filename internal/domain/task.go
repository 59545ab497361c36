package domain

import (
	"time"
)

// Task is a single to-do item owned by exactly one user.
type Task struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Task      string     `json:"task"`
	Done      bool       `json:"done"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// TaskFilter narrows a task listing. A nil Done lists every task.
type TaskFilter struct {
	Done *bool
}

// TaskPatch is a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Task *string
	Done *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Task == nil && p.Done == nil
}

// Apply writes the patch onto t and stamps UpdatedAt.
func (p TaskPatch) Apply(t *Task, at time.Time) {
	if p.Task != nil {
		t.Task = *p.Task
	}
	if p.Done != nil {
		t.Done = *p.Done
	}
	t.UpdatedAt = &at
}
