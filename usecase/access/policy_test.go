package access

import (
	"context"
	"errors"
	"testing"

	"github.com/fastygo/caseboard/domain"
)

type fakeDirectory struct {
	members map[int64][]int64
	err     error
	calls   int
}

func (f *fakeDirectory) RoleOf(ctx context.Context, userID int64) (domain.Role, error) {
	return domain.RoleStandard, nil
}

func (f *fakeDirectory) UserByID(ctx context.Context, userID int64) (*domain.User, error) {
	return &domain.User{ID: userID, Role: domain.RoleStandard, Enabled: true}, nil
}

func (f *fakeDirectory) MembersOf(ctx context.Context, poolID int64) ([]int64, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	members, ok := f.members[poolID]
	if !ok {
		return nil, domain.ErrPoolNotFound
	}
	return members, nil
}

func (f *fakeDirectory) PoolsOf(ctx context.Context, userID int64) ([]int64, error) {
	var pools []int64
	for poolID, members := range f.members {
		for _, m := range members {
			if m == userID {
				pools = append(pools, poolID)
			}
		}
	}
	return pools, nil
}

func (f *fakeDirectory) PoolByID(ctx context.Context, poolID int64) (*domain.Pool, error) {
	if _, ok := f.members[poolID]; !ok {
		return nil, domain.ErrPoolNotFound
	}
	return &domain.Pool{ID: poolID, Enabled: true}, nil
}

func ptr(v int64) *int64 { return &v }

func TestCanAccess(t *testing.T) {
	dir := &fakeDirectory{members: map[int64][]int64{10: {1, 2}, 20: {3}}}
	policy := New(dir, nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		actor domain.Actor
		task  domain.Task
		want  bool
	}{
		{"admin sees unassigned", domain.Actor{UserID: 9, Role: domain.RoleAdministrator}, domain.Task{ID: 1}, true},
		{"super admin sees other user", domain.Actor{UserID: 9, Role: domain.RoleSuperAdministrator}, domain.Task{ID: 1, AssignedUserID: ptr(1)}, true},
		{"admin sees foreign pool", domain.Actor{UserID: 9, Role: domain.RoleAdministrator}, domain.Task{ID: 1, AssignedPoolID: ptr(20)}, true},
		{"direct assignee", domain.Actor{UserID: 1, Role: domain.RoleStandard}, domain.Task{ID: 1, AssignedUserID: ptr(1)}, true},
		{"other user", domain.Actor{UserID: 2, Role: domain.RoleStandard}, domain.Task{ID: 1, AssignedUserID: ptr(1)}, false},
		{"pool member", domain.Actor{UserID: 2, Role: domain.RoleStandard}, domain.Task{ID: 1, AssignedPoolID: ptr(10)}, true},
		{"not a pool member", domain.Actor{UserID: 3, Role: domain.RoleStandard}, domain.Task{ID: 1, AssignedPoolID: ptr(10)}, false},
		{"unassigned", domain.Actor{UserID: 1, Role: domain.RoleStandard}, domain.Task{ID: 1}, false},
		{"dangling pool", domain.Actor{UserID: 1, Role: domain.RoleStandard}, domain.Task{ID: 1, AssignedPoolID: ptr(99)}, false},
		{"both set, pool grants", domain.Actor{UserID: 3, Role: domain.RoleStandard}, domain.Task{ID: 1, AssignedUserID: ptr(1), AssignedPoolID: ptr(20)}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			task := tc.task
			got, err := policy.CanAccess(ctx, tc.actor, &task)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("CanAccess = %v, want %v", got, tc.want)
			}
		})
	}
}

// Standard actors: access == assignee OR assigned pool in PoolsOf(actor).
func TestCanAccessMatchesPoolsOf(t *testing.T) {
	dir := &fakeDirectory{members: map[int64][]int64{1: {1}, 2: {2}, 3: {1, 2}}}
	policy := New(dir, nil)
	ctx := context.Background()

	assignees := []*int64{nil, ptr(1), ptr(2)}
	pools := []*int64{nil, ptr(1), ptr(2), ptr(3)}

	for _, userID := range []int64{1, 2, 3} {
		actor := domain.Actor{UserID: userID, Role: domain.RoleStandard}
		actorPools, _ := dir.PoolsOf(ctx, userID)
		for _, a := range assignees {
			for _, p := range pools {
				task := &domain.Task{ID: 1, AssignedUserID: a, AssignedPoolID: p}
				want := task.IsAssignedToUser(userID)
				if p != nil {
					for _, id := range actorPools {
						if id == *p {
							want = true
						}
					}
				}
				got, err := policy.CanAccess(ctx, actor, task)
				if err != nil {
					t.Fatal(err)
				}
				if got != want {
					t.Fatalf("user %d, assignee %v, pool %v: got %v want %v", userID, a, p, got, want)
				}
			}
		}
	}
}

func TestCanAccessReadsDirectoryEveryCall(t *testing.T) {
	dir := &fakeDirectory{members: map[int64][]int64{10: {1}}}
	policy := New(dir, nil)
	ctx := context.Background()
	actor := domain.Actor{UserID: 1, Role: domain.RoleStandard}
	task := &domain.Task{ID: 5, AssignedPoolID: ptr(10)}

	if ok, _ := policy.CanAccess(ctx, actor, task); !ok {
		t.Fatal("expected access while member")
	}
	dir.members[10] = nil
	if ok, _ := policy.CanAccess(ctx, actor, task); ok {
		t.Fatal("expected access revoked after membership change")
	}
	if dir.calls != 2 {
		t.Fatalf("expected 2 directory reads, got %d", dir.calls)
	}
}

func TestCanAccessPropagatesStorageErrors(t *testing.T) {
	storageErr := domain.StorageError("list pool members", errors.New("connection refused"))
	policy := New(&fakeDirectory{err: storageErr}, nil)
	actor := domain.Actor{UserID: 1, Role: domain.RoleStandard}

	_, err := policy.CanAccess(context.Background(), actor, &domain.Task{ID: 1, AssignedPoolID: ptr(10)})
	if !domain.IsDomainError(err, domain.ErrCodeStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}
}

func TestAuthorize(t *testing.T) {
	policy := New(&fakeDirectory{members: map[int64][]int64{}}, nil)
	ctx := context.Background()

	err := policy.Authorize(ctx, domain.Actor{UserID: 2, Role: domain.RoleStandard}, &domain.Task{ID: 1, AssignedUserID: ptr(1)})
	if !errors.Is(err, domain.ErrForbidden) || !domain.IsDomainError(err, domain.ErrCodeForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := policy.Authorize(ctx, domain.Actor{UserID: 1, Role: domain.RoleStandard}, &domain.Task{ID: 1, AssignedUserID: ptr(1)}); err != nil {
		t.Fatalf("expected access, got %v", err)
	}
	if err := policy.Authorize(ctx, domain.Actor{UserID: 1, Role: domain.RoleAdministrator}, nil); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound for nil task, got %v", err)
	}
}
