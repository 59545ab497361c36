package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/cjuarezoax-byte/hello-api-mas/internal/domain"
	"github.com/cjuarezoax-byte/hello-api-mas/pkg/database"
	apperrors "github.com/cjuarezoax-byte/hello-api-mas/pkg/errors"
)

// TaskRepository implements repository.TaskRepository using PostgreSQL.
type TaskRepository struct {
	db database.DBTX
}

// NewTaskRepository creates a new PostgreSQL-backed task repository.
func NewTaskRepository(db database.DBTX) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskColumns = `id::text, user_id::text, task, done, created_at, updated_at`

// List returns a page of the user's tasks, newest first.
func (r *TaskRepository) List(ctx context.Context, userID string, filter domain.TaskFilter, limit, offset int) (_ []domain.Task, err error) {
	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)
	args := []any{userID}

	if filter.Done != nil {
		args = append(args, *filter.Done)
		fmt.Fprintf(&b, ` AND done = $%d`, len(args))
	}

	args = append(args, limit, offset)
	fmt.Fprintf(&b, ` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))
	query := b.String()

	ctx, end := database.TraceQuery(ctx, "ListTasks", query)
	defer func() { end(err) }()

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, limit)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

// Get retrieves one of the user's tasks.
func (r *TaskRepository) Get(ctx context.Context, userID, id string) (_ *domain.Task, err error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetTask", query)
	defer func() { end(err) }()

	t, err := scanTask(r.db.QueryRow(ctx, query, id, userID))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("task")
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) (err error) {
	query := `
		INSERT INTO tasks (id, user_id, task, done, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateTask", query)
	defer func() { end(err) }()

	if _, err = r.db.Exec(ctx, query, t.ID, t.UserID, t.Task, t.Done, t.CreatedAt); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

// Update applies patch to one of the user's tasks and returns the new row.
func (r *TaskRepository) Update(ctx context.Context, userID, id string, patch domain.TaskPatch, at time.Time) (_ *domain.Task, err error) {
	query := `
		UPDATE tasks
		SET task = COALESCE($3, task), done = COALESCE($4, done), updated_at = $5
		WHERE id = $1 AND user_id = $2
		RETURNING ` + taskColumns

	ctx, end := database.TraceQuery(ctx, "UpdateTask", query)
	defer func() { end(err) }()

	t, err := scanTask(r.db.QueryRow(ctx, query, id, userID, patch.Task, patch.Done, at))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, apperrors.NotFound("task")
		}
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// Delete removes one of the user's tasks.
func (r *TaskRepository) Delete(ctx context.Context, userID, id string) (err error) {
	query := `DELETE FROM tasks WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "DeleteTask", query)
	defer func() { end(err) }()

	ct, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("task")
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(&t.ID, &t.UserID, &t.Task, &t.Done, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}
