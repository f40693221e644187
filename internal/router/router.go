package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/caseboard/api/handler"
	"github.com/fastygo/caseboard/internal/middleware"
)

type Handlers struct {
	Auth   *apiHandler.AuthHandler
	Task   *apiHandler.TaskHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.POST("/api/v1/auth/logout", authMiddleware(handlers.Auth.Logout))

	r.GET("/api/v1/tasks", authMiddleware(handlers.Task.Dashboard))
	r.POST("/api/v1/tasks", authMiddleware(middleware.RequireElevated(handlers.Task.CreateTask)))
	r.GET("/api/v1/tasks/{id}", authMiddleware(handlers.Task.GetTask))
	r.PUT("/api/v1/tasks/{id}", authMiddleware(handlers.Task.UpdateTask))
	r.POST("/api/v1/tasks/{id}/notes", authMiddleware(handlers.Task.AddNote))
	r.POST("/api/v1/tasks/{id}/time", authMiddleware(handlers.Task.LogTime))

	return r
}
