package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

var _ repository.DirectoryAdmin = (*Store)(nil)

func (s *Store) RoleOf(ctx context.Context, userID int64) (domain.Role, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = ?`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", domain.StorageError("get user role", err)
	}
	return domain.ParseRole(role)
}

func (s *Store) UserByID(ctx context.Context, userID int64) (*domain.User, error) {
	var (
		u                    domain.User
		role                 string
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, first_name, surname, role, enabled, created_at, updated_at FROM users WHERE id = ?`, userID,
	).Scan(&u.ID, &u.Email, &u.FirstName, &u.Surname, &role, &u.Enabled, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("get user", err)
	}
	if u.Role, err = domain.ParseRole(role); err != nil {
		return nil, err
	}
	u.CreatedAt = parseTime(createdAt)
	u.UpdatedAt = parseTime(updatedAt)
	return &u, nil
}

func (s *Store) MembersOf(ctx context.Context, poolID int64) ([]int64, error) {
	if _, err := s.PoolByID(ctx, poolID); err != nil {
		return nil, err
	}
	return s.ids(ctx, "list pool members", `SELECT user_id FROM pool_members WHERE pool_id = ? ORDER BY user_id`, poolID)
}

func (s *Store) PoolsOf(ctx context.Context, userID int64) ([]int64, error) {
	return s.ids(ctx, "list user pools", `SELECT pool_id FROM pool_members WHERE user_id = ? ORDER BY pool_id`, userID)
}

func (s *Store) PoolByID(ctx context.Context, poolID int64) (*domain.Pool, error) {
	var (
		p                    domain.Pool
		description          sql.NullString
		createdAt, updatedAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, enabled, created_at, updated_at FROM pools WHERE id = ?`, poolID,
	).Scan(&p.ID, &p.Name, &description, &p.Enabled, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPoolNotFound
		}
		return nil, domain.StorageError("get pool", err)
	}
	if description.Valid {
		p.Description = &description.String
	}
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}

// UpsertUser inserts the user when user.ID is zero, otherwise it replaces the
// stored fields of that existing user.
func (s *Store) UpsertUser(ctx context.Context, user *domain.User) error {
	if user == nil || !user.Role.Valid() {
		return domain.ErrInvalidPayload
	}
	ts := now()
	if user.ID == 0 {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO users (email, first_name, surname, role, enabled, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			user.Email, user.FirstName, user.Surname, string(user.Role), user.Enabled, ts, ts,
		)
		if err != nil {
			return domain.StorageError("insert user", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return domain.StorageError("insert user", err)
		}
		user.ID = id
		user.CreatedAt = parseTime(ts)
		user.UpdatedAt = user.CreatedAt
		return nil
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE users
		 SET email = ?, first_name = ?, surname = ?, role = ?, enabled = ?, updated_at = ?
		 WHERE id = ?`,
		user.Email, user.FirstName, user.Surname, string(user.Role), user.Enabled, ts, user.ID,
	)
	if err != nil {
		return domain.StorageError("update user", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return domain.StorageError("update user", err)
	}
	if n == 0 {
		return domain.ErrUserNotFound
	}
	user.UpdatedAt = parseTime(ts)
	return nil
}

func (s *Store) CreatePool(ctx context.Context, pool *domain.Pool) (int64, error) {
	if pool == nil || strings.TrimSpace(pool.Name) == "" {
		return 0, domain.ErrInvalidPayload
	}
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO pools (name, description, enabled, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		pool.Name, pool.Description, pool.Enabled, ts, ts,
	)
	if err != nil {
		return 0, domain.StorageError("create pool", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, domain.StorageError("create pool", err)
	}
	pool.ID = id
	pool.CreatedAt = parseTime(ts)
	pool.UpdatedAt = pool.CreatedAt
	return id, nil
}

func (s *Store) AddMember(ctx context.Context, poolID, userID int64) error {
	if _, err := s.PoolByID(ctx, poolID); err != nil {
		return err
	}
	if _, err := s.RoleOf(ctx, userID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO pool_members (pool_id, user_id) VALUES (?, ?)`, poolID, userID,
	)
	return domain.StorageError("add pool member", err)
}

func (s *Store) RemoveMember(ctx context.Context, poolID, userID int64) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM pool_members WHERE pool_id = ? AND user_id = ?`, poolID, userID,
	)
	return domain.StorageError("remove pool member", err)
}

func (s *Store) ids(ctx context.Context, op, query string, arg int64) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, domain.StorageError(op, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, domain.StorageError(op, err)
		}
		ids = append(ids, id)
	}
	return ids, domain.StorageError(op, rows.Err())
}
