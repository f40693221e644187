package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/caseboard/api/transport"
	"github.com/fastygo/caseboard/pkg/httpcontext"
	taskUC "github.com/fastygo/caseboard/usecase/task"
)

type TaskHandler struct {
	baseHandler
	tasks  *taskUC.UseCase
	ledger *taskUC.Ledger
}

func NewTaskHandler(tasks *taskUC.UseCase, ledger *taskUC.Ledger, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		tasks:       tasks,
		ledger:      ledger,
	}
}

// @Summary Task dashboard for the caller
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) Dashboard(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	board, err := h.tasks.Dashboard(stdCtx, actor)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	meta := transport.DashboardMeta{
		AllCount:      len(board.AllTasks),
		AssignedCount: len(board.AssignedTasks),
		PoolCount:     len(board.PoolTasks),
	}
	h.respondJSON(ctx, http.StatusOK, transport.NewSuccess(board, meta))
}

// @Summary Create task (administrators only)
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	id, err := h.tasks.CreateTask(stdCtx, req.ToInput(0), actor)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.CreatedResponse{ID: id})
}

// @Summary Task details with notes and time entries
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) GetTask(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	details, err := h.tasks.GetTask(stdCtx, id, actor)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, details)
}

// @Summary Replace every editable field of a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) UpdateTask(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.TaskRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.tasks.UpdateTask(stdCtx, req.ToInput(id), actor); err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Append a note
// @Tags tasks
// @Router /api/v1/tasks/{id}/notes [post]
func (h *TaskHandler) AddNote(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.NoteRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	noteID, err := h.ledger.AddNote(stdCtx, id, actor, req.Body)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	if noteID == 0 {
		// blank bodies are accepted and dropped
		ctx.SetStatusCode(http.StatusNoContent)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.CreatedResponse{ID: noteID})
}

// @Summary Log time against a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/time [post]
func (h *TaskHandler) LogTime(ctx *fasthttp.RequestCtx) {
	actor, ok := h.actor(ctx)
	if !ok {
		return
	}
	id, ok := h.pathID(ctx)
	if !ok {
		return
	}
	var req transport.TimeEntryRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entryID, err := h.ledger.LogTime(stdCtx, id, actor, req.Hours, req.Minutes)
	if err != nil {
		h.respondError(stdCtx, ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, transport.CreatedResponse{ID: entryID})
}
