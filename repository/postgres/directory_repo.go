package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

type directoryRepository struct {
	pool *pgxpool.Pool
}

// NewDirectoryRepository instantiates a Postgres-backed user and pool directory.
func NewDirectoryRepository(pool *pgxpool.Pool) repository.DirectoryAdmin {
	return &directoryRepository{pool: pool}
}

func (r *directoryRepository) RoleOf(ctx context.Context, userID int64) (domain.Role, error) {
	const query = `SELECT role FROM users WHERE id = $1`
	var role string
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", domain.StorageError("get user role", err)
	}
	return domain.ParseRole(role)
}

func (r *directoryRepository) UserByID(ctx context.Context, userID int64) (*domain.User, error) {
	const query = `
	SELECT id, email, first_name, surname, role, enabled, created_at, updated_at
	FROM users
	WHERE id = $1
	`
	var (
		u    domain.User
		role string
	)
	if err := r.pool.QueryRow(ctx, query, userID).
		Scan(&u.ID, &u.Email, &u.FirstName, &u.Surname, &role, &u.Enabled, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, domain.StorageError("get user", err)
	}
	parsed, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}
	u.Role = parsed
	return &u, nil
}

func (r *directoryRepository) MembersOf(ctx context.Context, poolID int64) ([]int64, error) {
	if _, err := r.PoolByID(ctx, poolID); err != nil {
		return nil, err
	}
	const query = `SELECT user_id FROM pool_members WHERE pool_id = $1 ORDER BY user_id`
	return r.ids(ctx, "list pool members", query, poolID)
}

func (r *directoryRepository) PoolsOf(ctx context.Context, userID int64) ([]int64, error) {
	const query = `SELECT pool_id FROM pool_members WHERE user_id = $1 ORDER BY pool_id`
	return r.ids(ctx, "list user pools", query, userID)
}

func (r *directoryRepository) PoolByID(ctx context.Context, poolID int64) (*domain.Pool, error) {
	const query = `
	SELECT id, name, description, enabled, created_at, updated_at
	FROM pools
	WHERE id = $1
	`
	var p domain.Pool
	if err := r.pool.QueryRow(ctx, query, poolID).
		Scan(&p.ID, &p.Name, &p.Description, &p.Enabled, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPoolNotFound
		}
		return nil, domain.StorageError("get pool", err)
	}
	return &p, nil
}

// UpsertUser inserts when user.ID is zero and lets BIGSERIAL allocate the id.
// A non-zero id only ever updates, so explicit ids never drift from the
// sequence.
func (r *directoryRepository) UpsertUser(ctx context.Context, user *domain.User) error {
	if user == nil || !user.Role.Valid() {
		return domain.ErrInvalidPayload
	}

	if user.ID == 0 {
		const insert = `
		INSERT INTO users (email, first_name, surname, role, enabled)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
		`
		if err := r.pool.QueryRow(ctx, insert,
			user.Email,
			user.FirstName,
			user.Surname,
			string(user.Role),
			user.Enabled,
		).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return domain.StorageError("insert user", err)
		}
		return nil
	}

	const update = `
	UPDATE users
	SET email = $2,
		first_name = $3,
		surname = $4,
		role = $5,
		enabled = $6,
		updated_at = NOW()
	WHERE id = $1
	RETURNING created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, update,
		user.ID,
		user.Email,
		user.FirstName,
		user.Surname,
		string(user.Role),
		user.Enabled,
	).Scan(&user.CreatedAt, &user.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrUserNotFound
		}
		return domain.StorageError("update user", err)
	}
	return nil
}

func (r *directoryRepository) CreatePool(ctx context.Context, pool *domain.Pool) (int64, error) {
	if pool == nil || pool.Name == "" {
		return 0, domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO pools (name, description, enabled)
	VALUES ($1, $2, $3)
	RETURNING id, created_at, updated_at
	`
	if err := r.pool.QueryRow(ctx, query, pool.Name, pool.Description, pool.Enabled).
		Scan(&pool.ID, &pool.CreatedAt, &pool.UpdatedAt); err != nil {
		return 0, domain.StorageError("create pool", err)
	}
	return pool.ID, nil
}

func (r *directoryRepository) AddMember(ctx context.Context, poolID, userID int64) error {
	const query = `
	INSERT INTO pool_members (pool_id, user_id)
	VALUES ($1, $2)
	ON CONFLICT (pool_id, user_id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, poolID, userID); err != nil {
		if isForeignKeyViolation(err) {
			return domain.WrapError(domain.ErrCodeNotFound, "pool or user not found", err)
		}
		return domain.StorageError("add pool member", err)
	}
	return nil
}

func (r *directoryRepository) RemoveMember(ctx context.Context, poolID, userID int64) error {
	const query = `DELETE FROM pool_members WHERE pool_id = $1 AND user_id = $2`
	if _, err := r.pool.Exec(ctx, query, poolID, userID); err != nil {
		return domain.StorageError("remove pool member", err)
	}
	return nil
}

func (r *directoryRepository) ids(ctx context.Context, op, query string, arg int64) ([]int64, error) {
	rows, err := r.pool.Query(ctx, query, arg)
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
