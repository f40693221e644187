package task

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/caseboard/domain"
	"github.com/fastygo/caseboard/pkg/logger"
	"github.com/fastygo/caseboard/repository"
	"github.com/fastygo/caseboard/usecase"
	"github.com/fastygo/caseboard/usecase/access"
)

// UseCase aggregates task visibility and owns task creation and replacement.
type UseCase struct {
	tasks     repository.TaskStore
	directory repository.Directory
	policy    *access.Policy
	events    usecase.EventPublisher
	logger    *zap.Logger
}

func New(
	tasks repository.TaskStore,
	directory repository.Directory,
	policy *access.Policy,
	events usecase.EventPublisher,
	logger *zap.Logger,
) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		tasks:     tasks,
		directory: directory,
		policy:    policy,
		events:    events,
		logger:    logger,
	}
}

// Dashboard returns the tasks visible to actor. Elevated actors receive every
// task through AllTasks; standard actors receive their direct and pool
// assignments as two separate lists.
func (uc *UseCase) Dashboard(ctx context.Context, actor domain.Actor) (*domain.Dashboard, error) {
	board := &domain.Dashboard{
		AllTasks:      []domain.Task{},
		AssignedTasks: []domain.Task{},
		PoolTasks:     []domain.Task{},
	}

	if actor.IsElevated() {
		all, err := uc.tasks.GetAll(ctx)
		if err != nil {
			return nil, err
		}
		board.CanViewAllTasks = true
		board.AllTasks = nonNil(all)
		return board, nil
	}

	var assigned, pooled []domain.Task
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		assigned, err = uc.tasks.GetAssignedToUser(gctx, actor.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		pooled, err = uc.tasks.GetAssignedToPools(gctx, actor.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	board.AssignedTasks = nonNil(assigned)
	board.PoolTasks = nonNil(pooled)
	return board, nil
}

// GetTask returns a task with its notes, time entries and derived total.
func (uc *UseCase) GetTask(ctx context.Context, id int64, actor domain.Actor) (*domain.TaskDetails, error) {
	task, err := loadAuthorized(ctx, uc.tasks, uc.policy, id, actor)
	if err != nil {
		return nil, err
	}

	var (
		notes   []domain.Note
		entries []domain.TimeEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		notes, err = uc.tasks.GetNotes(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		entries, err = uc.tasks.GetTimeEntries(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := domain.SumMinutes(entries)
	task.TotalMinutes = total
	if notes == nil {
		notes = []domain.Note{}
	}
	if entries == nil {
		entries = []domain.TimeEntry{}
	}
	return &domain.TaskDetails{
		Task:         *task,
		Notes:        notes,
		TimeEntries:  entries,
		TotalMinutes: total,
	}, nil
}

// CreateTask stores a new task. The caller enforces the elevated-role route
// policy; creator is recorded as the task's author.
func (uc *UseCase) CreateTask(ctx context.Context, input domain.TaskInput, creator domain.Actor) (int64, error) {
	input.Normalize()
	target, err := input.Validate()
	if err != nil {
		return 0, err
	}
	if err := uc.checkTarget(ctx, target); err != nil {
		return 0, err
	}

	task := &domain.Task{CreatedByUserID: creator.UserID}
	input.Apply(task, target)

	id, err := uc.tasks.Insert(ctx, task)
	if err != nil {
		logger.WithRequestID(ctx, uc.logger).Error("failed to insert task", zap.Error(err))
		return 0, err
	}

	uc.publish(ctx, domain.NewTaskEvent(domain.EventTaskCreated, id, creator, target))
	return id, nil
}

// UpdateTask replaces every editable field of an existing task.
// Concurrent updates are last-writer-wins.
func (uc *UseCase) UpdateTask(ctx context.Context, input domain.TaskInput, actor domain.Actor) error {
	existing, err := loadAuthorized(ctx, uc.tasks, uc.policy, input.ID, actor)
	if err != nil {
		return err
	}

	input.Normalize()
	target, err := input.Validate()
	if err != nil {
		return err
	}
	if !sameTarget(existing, target) {
		if err := uc.checkTarget(ctx, target); err != nil {
			return err
		}
	}

	updated := *existing
	input.Apply(&updated, target)
	if err := uc.tasks.Update(ctx, &updated); err != nil {
		return err
	}

	uc.publish(ctx, domain.NewTaskEvent(domain.EventTaskUpdated, updated.ID, actor, target))
	return nil
}

// checkTarget resolves the assignee through the directory. Unknown users or
// pools are NotFound; disabled pools cannot receive new work.
func (uc *UseCase) checkTarget(ctx context.Context, target domain.Assignment) error {
	switch target.Kind {
	case domain.AssigneeUser:
		_, err := uc.directory.RoleOf(ctx, target.ID)
		return err
	case domain.AssigneePool:
		pool, err := uc.directory.PoolByID(ctx, target.ID)
		if err != nil {
			return err
		}
		if !pool.Enabled {
			return domain.ErrPoolDisabled
		}
		return nil
	default:
		return domain.ErrAssignmentRequired
	}
}

func (uc *UseCase) publish(ctx context.Context, event domain.TaskEvent) {
	publishEvent(ctx, uc.events, uc.logger, event)
}

func sameTarget(task *domain.Task, target domain.Assignment) bool {
	switch target.Kind {
	case domain.AssigneeUser:
		return task.AssignedPoolID == nil && task.IsAssignedToUser(target.ID)
	case domain.AssigneePool:
		return task.AssignedUserID == nil && task.AssignedPoolID != nil && *task.AssignedPoolID == target.ID
	}
	return false
}

// loadAuthorized resolves a task and checks actor may access it.
// A missing task is NotFound; a denied actor is Forbidden.
func loadAuthorized(ctx context.Context, tasks repository.TaskStore, policy *access.Policy, id int64, actor domain.Actor) (*domain.Task, error) {
	task, err := tasks.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(ctx, actor, task); err != nil {
		return nil, err
	}
	return task, nil
}

func publishEvent(ctx context.Context, events usecase.EventPublisher, base *zap.Logger, event domain.TaskEvent) {
	if events == nil {
		return
	}
	if err := events.PublishTaskEvent(ctx, event); err != nil {
		logger.WithRequestID(ctx, base).Warn("failed to publish task event",
			zap.String("event", event.Name),
			zap.Int64("task_id", event.TaskID),
			zap.Error(err))
	}
}

func nonNil(tasks []domain.Task) []domain.Task {
	if tasks == nil {
		return []domain.Task{}
	}
	return tasks
}
