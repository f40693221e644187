package repository

import (
	"context"

	"github.com/fastygo/caseboard/domain"
)

// Directory resolves users to roles and pools to members. Results are
// point-in-time reads; callers must not cache them across requests.
type Directory interface {
	RoleOf(ctx context.Context, userID int64) (domain.Role, error)
	UserByID(ctx context.Context, userID int64) (*domain.User, error)
	MembersOf(ctx context.Context, poolID int64) ([]int64, error)
	PoolsOf(ctx context.Context, userID int64) ([]int64, error)
	PoolByID(ctx context.Context, poolID int64) (*domain.Pool, error)
}

// DirectoryAdmin is the write side used for seeding and administration tooling.
type DirectoryAdmin interface {
	Directory
	// UpsertUser creates the user when ID is zero and otherwise replaces the
	// stored fields of an existing user, failing with ErrUserNotFound.
	UpsertUser(ctx context.Context, user *domain.User) error
	CreatePool(ctx context.Context, pool *domain.Pool) (int64, error)
	AddMember(ctx context.Context, poolID, userID int64) error
	RemoveMember(ctx context.Context, poolID, userID int64) error
}
