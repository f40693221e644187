package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

const taskColumns = `
	t.id, t.is_urgent, t.contact_name, t.contact_email, t.contact_telephone, t.contact_notes,
	t.description, t.deadline, t.assigned_user_id, t.assigned_pool_id, t.created_by_user_id,
	COALESCE((SELECT SUM(e.hours::bigint * 60 + e.minutes) FROM task_time_entries e WHERE e.task_id = t.id), 0)::bigint,
	t.created_at, t.updated_at
`

const taskOrder = `ORDER BY t.is_urgent DESC, t.deadline ASC, t.id ASC`

type taskRepository struct {
	pool *pgxpool.Pool
}

// NewTaskRepository returns a Postgres-backed implementation of TaskStore.
func NewTaskRepository(pool *pgxpool.Pool) repository.TaskStore {
	return &taskRepository{pool: pool}
}

func (r *taskRepository) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = $1`
	task, err := scanTask(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, domain.StorageError("get task", err)
	}
	return task, nil
}

func (r *taskRepository) GetAll(ctx context.Context) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t ` + taskOrder
	return r.list(ctx, "list tasks", query)
}

func (r *taskRepository) GetAssignedToUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.assigned_user_id = $1 ` + taskOrder
	return r.list(ctx, "list assigned tasks", query, userID)
}

func (r *taskRepository) GetAssignedToPools(ctx context.Context, userID int64) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
	WHERE t.assigned_pool_id IN (SELECT pm.pool_id FROM pool_members pm WHERE pm.user_id = $1) ` + taskOrder
	return r.list(ctx, "list pool tasks", query, userID)
}

func (r *taskRepository) Insert(ctx context.Context, task *domain.Task) (int64, error) {
	if task == nil {
		return 0, domain.ErrInvalidPayload
	}

	const query = `
	INSERT INTO tasks (is_urgent, contact_name, contact_email, contact_telephone, contact_notes,
		description, deadline, assigned_user_id, assigned_pool_id, created_by_user_id)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING id, created_at, updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.IsUrgent,
		task.Contact.Name,
		task.Contact.Email,
		task.Contact.Telephone,
		task.Contact.Notes,
		task.Description,
		task.Deadline,
		task.AssignedUserID,
		task.AssignedPoolID,
		task.CreatedByUserID,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt); err != nil {
		return 0, domain.StorageError("insert task", err)
	}

	return task.ID, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}

	const query = `
	UPDATE tasks
	SET is_urgent = $2,
		contact_name = $3,
		contact_email = $4,
		contact_telephone = $5,
		contact_notes = $6,
		description = $7,
		deadline = $8,
		assigned_user_id = $9,
		assigned_pool_id = $10,
		updated_at = NOW()
	WHERE id = $1
	RETURNING updated_at
	`

	if err := r.pool.QueryRow(ctx, query,
		task.ID,
		task.IsUrgent,
		task.Contact.Name,
		task.Contact.Email,
		task.Contact.Telephone,
		task.Contact.Notes,
		task.Description,
		task.Deadline,
		task.AssignedUserID,
		task.AssignedPoolID,
	).Scan(&task.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return domain.StorageError("update task", err)
	}

	return nil
}

func (r *taskRepository) AddNote(ctx context.Context, note *domain.Note) (int64, error) {
	if note == nil {
		return 0, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO task_notes (task_id, author_user_id, body)
	VALUES ($1, $2, $3)
	RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query, note.TaskID, note.AuthorUserID, note.Body).
		Scan(&note.ID, &note.CreatedAt); err != nil {
		return 0, domain.StorageError("add note", err)
	}
	return note.ID, nil
}

func (r *taskRepository) GetNotes(ctx context.Context, taskID int64) ([]domain.Note, error) {
	const query = `
	SELECT id, task_id, author_user_id, body, created_at
	FROM task_notes
	WHERE task_id = $1
	ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, domain.StorageError("list notes", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.TaskID, &n.AuthorUserID, &n.Body, &n.CreatedAt); err != nil {
			return nil, domain.StorageError("scan note", err)
		}
		notes = append(notes, n)
	}
	return notes, domain.StorageError("list notes", rows.Err())
}

func (r *taskRepository) AddTimeEntry(ctx context.Context, entry *domain.TimeEntry) (int64, error) {
	if entry == nil {
		return 0, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO task_time_entries (task_id, logged_by_user_id, hours, minutes)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
	`
	if err := r.pool.QueryRow(ctx, query, entry.TaskID, entry.LoggedByUserID, entry.Hours, entry.Minutes).
		Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return 0, domain.StorageError("add time entry", err)
	}
	return entry.ID, nil
}

func (r *taskRepository) GetTimeEntries(ctx context.Context, taskID int64) ([]domain.TimeEntry, error) {
	const query = `
	SELECT id, task_id, logged_by_user_id, hours, minutes, created_at
	FROM task_time_entries
	WHERE task_id = $1
	ORDER BY created_at ASC, id ASC
	`
	rows, err := r.pool.Query(ctx, query, taskID)
	if err != nil {
		return nil, domain.StorageError("list time entries", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		var e domain.TimeEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.LoggedByUserID, &e.Hours, &e.Minutes, &e.CreatedAt); err != nil {
			return nil, domain.StorageError("scan time entry", err)
		}
		entries = append(entries, e)
	}
	return entries, domain.StorageError("list time entries", rows.Err())
}

func (r *taskRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, domain.StorageError(op, err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, domain.StorageError(op, err)
		}
		tasks = append(tasks, *task)
	}
	return tasks, domain.StorageError(op, rows.Err())
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	if err := row.Scan(
		&task.ID,
		&task.IsUrgent,
		&task.Contact.Name,
		&task.Contact.Email,
		&task.Contact.Telephone,
		&task.Contact.Notes,
		&task.Description,
		&task.Deadline,
		&task.AssignedUserID,
		&task.AssignedPoolID,
		&task.CreatedByUserID,
		&task.TotalMinutes,
		&task.CreatedAt,
		&task.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	return &task, nil
}
