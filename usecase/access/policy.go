// Package access decides whether an actor may read and modify a task.
package access

import (
	"context"

	"go.uber.org/zap"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/repository"
)

// Policy evaluates task access against the live directory. It holds no
// state between calls, so membership changes are observed immediately.
type Policy struct {
	directory repository.Directory
	logger    *zap.Logger
}

func New(directory repository.Directory, logger *zap.Logger) *Policy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Policy{
		directory: directory,
		logger:    logger,
	}
}

// CanAccess applies the rules in order, first match wins:
// elevated role, direct assignment, membership of the assigned pool.
func (p *Policy) CanAccess(ctx context.Context, actor domain.Actor, task *domain.Task) (bool, error) {
	if task == nil {
		return false, nil
	}
	if actor.IsElevated() {
		return true, nil
	}
	if task.IsAssignedToUser(actor.UserID) {
		return true, nil
	}
	if task.AssignedPoolID == nil {
		return false, nil
	}

	members, err := p.directory.MembersOf(ctx, *task.AssignedPoolID)
	if err != nil {
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			// a dangling pool reference grants nothing
			return false, nil
		}
		return false, err
	}
	for _, id := range members {
		if id == actor.UserID {
			return true, nil
		}
	}
	return false, nil
}

// Authorize is CanAccess with denial reported as domain.ErrForbidden.
func (p *Policy) Authorize(ctx context.Context, actor domain.Actor, task *domain.Task) error {
	if task == nil {
		return domain.ErrTaskNotFound
	}
	ok, err := p.CanAccess(ctx, actor, task)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Debug("task access denied",
			zap.Int64("user_id", actor.UserID),
			zap.String("role", string(actor.Role)),
			zap.Int64("task_id", task.ID))
		return domain.ErrForbidden
	}
	return nil
}
