package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/edutask-api/internal/config"
	"github.com/noah-isme/edutask-api/internal/handler"
	"github.com/noah-isme/edutask-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	TaskHandler       *handler.TaskHandler
	AssignmentHandler *handler.AssignmentHandler
	ReportHandler     *handler.ReportHandler
	JWTMiddleware     fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	// Common v1 group for health & headers
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Class-scoped routes are all teacher surface: task authoring and reports.
	classes := api.Group("/classes", jwtMiddleware, middleware.RequireRole("teacher", "admin"))
	tasks := api.Group("/tasks", jwtMiddleware)
	assignments := api.Group("/assignments", jwtMiddleware)
	students := api.Group("/students", jwtMiddleware)

	if deps.TaskHandler != nil {
		deps.TaskHandler.RegisterClassRoutes(classes)
		deps.TaskHandler.RegisterTaskRoutes(tasks)

		draft := tasks.Group("/draft",
			middleware.RequireRole("teacher", "admin"),
			middleware.RateLimit("task_draft", 10, time.Minute),
		)
		deps.TaskHandler.RegisterDraftRoute(draft)
	}

	if deps.AssignmentHandler != nil {
		deps.AssignmentHandler.Register(assignments)
		deps.AssignmentHandler.RegisterReviewRoute(tasks)
		deps.AssignmentHandler.RegisterStudentRoutes(students)
	}

	if deps.ReportHandler != nil {
		deps.ReportHandler.Register(classes)
	}
}
