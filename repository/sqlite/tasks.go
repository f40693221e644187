package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

var _ repository.TaskStore = (*Store)(nil)

const taskSelect = `
	SELECT t.id, t.is_urgent, t.contact_name, t.contact_email, t.contact_telephone, t.contact_notes,
		t.description, t.deadline, t.assigned_user_id, t.assigned_pool_id, t.created_by_user_id,
		COALESCE((SELECT SUM(e.hours * 60 + e.minutes) FROM task_time_entries e WHERE e.task_id = t.id), 0),
		t.created_at, t.updated_at
	FROM tasks t
`

const taskOrder = ` ORDER BY t.is_urgent DESC, t.deadline ASC, t.id ASC`

func (s *Store) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+` WHERE t.id = ?`, id))
	if err != nil {
		return nil, domain.StorageError("get task", err)
	}
	return task, nil
}

func (s *Store) GetAll(ctx context.Context) ([]domain.Task, error) {
	return s.listTasks(ctx, "list tasks", taskSelect+taskOrder)
}

func (s *Store) GetAssignedToUser(ctx context.Context, userID int64) ([]domain.Task, error) {
	return s.listTasks(ctx, "list assigned tasks", taskSelect+` WHERE t.assigned_user_id = ?`+taskOrder, userID)
}

func (s *Store) GetAssignedToPools(ctx context.Context, userID int64) ([]domain.Task, error) {
	query := taskSelect + ` WHERE t.assigned_pool_id IN (SELECT pm.pool_id FROM pool_members pm WHERE pm.user_id = ?)` + taskOrder
	return s.listTasks(ctx, "list pool tasks", query, userID)
}

func (s *Store) Insert(ctx context.Context, task *domain.Task) (int64, error) {
	if task == nil {
		return 0, domain.ErrInvalidPayload
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (is_urgent, contact_name, contact_email, contact_telephone, contact_notes,
			description, deadline, assigned_user_id, assigned_pool_id, created_by_user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.IsUrgent, task.Contact.Name, task.Contact.Email, task.Contact.Telephone, task.Contact.Notes,
		task.Description, formatTime(task.Deadline), task.AssignedUserID, task.AssignedPoolID, task.CreatedByUserID,
		ts, ts,
	)
	if err != nil {
		return 0, domain.StorageError("insert task", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageError("insert task", err)
	}
	task.ID = id
	task.CreatedAt = parseTime(ts)
	task.UpdatedAt = task.CreatedAt
	return id, nil
}

func (s *Store) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks
		 SET is_urgent = ?, contact_name = ?, contact_email = ?, contact_telephone = ?, contact_notes = ?,
			description = ?, deadline = ?, assigned_user_id = ?, assigned_pool_id = ?, updated_at = ?
		 WHERE id = ?`,
		task.IsUrgent, task.Contact.Name, task.Contact.Email, task.Contact.Telephone, task.Contact.Notes,
		task.Description, formatTime(task.Deadline), task.AssignedUserID, task.AssignedPoolID, ts,
		task.ID,
	)
	if err != nil {
		return domain.StorageError("update task", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("update task", err)
	}
	if n == 0 {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = parseTime(ts)
	return nil
}

func (s *Store) AddNote(ctx context.Context, note *domain.Note) (int64, error) {
	if note == nil {
		return 0, domain.ErrInvalidPayload
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO task_notes (task_id, author_user_id, body, created_at) VALUES (?, ?, ?, ?)`,
		note.TaskID, note.AuthorUserID, note.Body, ts,
	)
	if err != nil {
		return 0, domain.StorageError("add note", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageError("add note", err)
	}
	note.ID = id
	note.CreatedAt = parseTime(ts)
	return id, nil
}

func (s *Store) GetNotes(ctx context.Context, taskID int64) ([]domain.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, author_user_id, body, created_at
		 FROM task_notes WHERE task_id = ? ORDER BY id ASC`, taskID,
	)
	if err != nil {
		return nil, domain.StorageError("list notes", err)
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		var createdAt string
		if err := rows.Scan(&n.ID, &n.TaskID, &n.AuthorUserID, &n.Body, &createdAt); err != nil {
			return nil, domain.StorageError("scan note", err)
		}
		n.CreatedAt = parseTime(createdAt)
		notes = append(notes, n)
	}
	return notes, domain.StorageError("list notes", rows.Err())
}

func (s *Store) AddTimeEntry(ctx context.Context, entry *domain.TimeEntry) (int64, error) {
	if entry == nil {
		return 0, domain.ErrInvalidPayload
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO task_time_entries (task_id, logged_by_user_id, hours, minutes, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.TaskID, entry.LoggedByUserID, entry.Hours, entry.Minutes, ts,
	)
	if err != nil {
		return 0, domain.StorageError("add time entry", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageError("add time entry", err)
	}
	entry.ID = id
	entry.CreatedAt = parseTime(ts)
	return id, nil
}

func (s *Store) GetTimeEntries(ctx context.Context, taskID int64) ([]domain.TimeEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, task_id, logged_by_user_id, hours, minutes, created_at
		 FROM task_time_entries WHERE task_id = ? ORDER BY id ASC`, taskID,
	)
	if err != nil {
		return nil, domain.StorageError("list time entries", err)
	}
	defer rows.Close()

	var entries []domain.TimeEntry
	for rows.Next() {
		var e domain.TimeEntry
		var createdAt string
		if err := rows.Scan(&e.ID, &e.TaskID, &e.LoggedByUserID, &e.Hours, &e.Minutes, &createdAt); err != nil {
			return nil, domain.StorageError("scan time entry", err)
		}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, domain.StorageError("list time entries", rows.Err())
}

func (s *Store) listTasks(ctx context.Context, op, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
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

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		task                           domain.Task
		telephone, notes               sql.NullString
		assignedUser, assignedPool     sql.NullInt64
		deadline, createdAt, updatedAt string
	)
	if err := row.Scan(
		&task.ID, &task.IsUrgent, &task.Contact.Name, &task.Contact.Email, &telephone, &notes,
		&task.Description, &deadline, &assignedUser, &assignedPool, &task.CreatedByUserID,
		&task.TotalMinutes, &createdAt, &updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, err
	}
	if telephone.Valid {
		task.Contact.Telephone = &telephone.String
	}
	if notes.Valid {
		task.Contact.Notes = &notes.String
	}
	if assignedUser.Valid {
		task.AssignedUserID = &assignedUser.Int64
	}
	if assignedPool.Valid {
		task.AssignedPoolID = &assignedPool.Int64
	}
	task.Deadline = parseTime(deadline)
	task.CreatedAt = parseTime(createdAt)
	task.UpdatedAt = parseTime(updatedAt)
	return &task, nil
}
