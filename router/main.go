package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/campus-api/database"
	"github.com/sahilchouksey/campus-api/handlers"
	admin_handlers "github.com/sahilchouksey/campus-api/handlers/admin"
	auth_handlers "github.com/sahilchouksey/campus-api/handlers/auth"
	department_handlers "github.com/sahilchouksey/campus-api/handlers/department"
	notification_handlers "github.com/sahilchouksey/campus-api/handlers/notification"
	staff_handlers "github.com/sahilchouksey/campus-api/handlers/staff"
	structure_handlers "github.com/sahilchouksey/campus-api/handlers/structure"
	"github.com/sahilchouksey/campus-api/model"
	"github.com/sahilchouksey/campus-api/services"
	"github.com/sahilchouksey/campus-api/utils"
	"github.com/sahilchouksey/campus-api/utils/auth"
	"github.com/sahilchouksey/campus-api/utils/middleware"
	"go.uber.org/zap"
)

// Services are the domain services the routes are served by
type Services struct {
	Structure   *services.StructureService
	Deletion    *services.DeletionService
	Roles       *services.RoleService
	Departments *services.DepartmentService
	Staff       *services.StaffService
	Bulletin    *services.BulletinService
}

// Deps is everything SetupRoutes wires together
type Deps struct {
	Store    database.Storage
	Verifier auth.Verifier
	Services Services
	Logger   *zap.Logger

	AllowedOrigins     []string
	RateLimitPerMinute int
}

func SetupRoutes(app *fiber.App, deps Deps) {
	authMiddleware := middleware.NewAuthMiddleware(deps.Verifier, deps.Services.Roles, deps.Logger)

	structureHandler := structure_handlers.NewStructureHandler(deps.Services.Structure, deps.Services.Deletion)
	userHandler := admin_handlers.NewUserHandler(deps.Services.Roles)
	departmentHandler := department_handlers.NewDepartmentHandler(deps.Services.Departments)
	staffHandler := staff_handlers.NewStaffHandler(deps.Services.Staff)
	bulletinHandler := notification_handlers.NewBulletinHandler(deps.Services.Bulletin)

	// Apply security middleware
	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    deps.AllowedOrigins,
		RateLimitRequests: deps.RateLimitPerMinute,
		RateLimitWindow:   1 * time.Minute,
		Logger:            deps.Logger,
	})

	// Health check endpoints (public)
	app.Get("/ping", handlers.HandlePing)
	app.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Store))

	// API v1 group
	api := app.Group("/api/v1")
	api.Get("/ping", handlers.HandlePing)
	api.Get("/health", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, deps.Store))

	// Everything below needs a signed-in, enabled user
	authed := api.Group("", authMiddleware.Required())
	adminOnly := authMiddleware.RequireAdmin()
	staffOnly := authMiddleware.RequireRole(model.RoleAdmin, model.RoleTeacher)

	authed.Get("/auth/me", auth_handlers.GetProfile)

	// Role records
	adminGroup := authed.Group("/admin", adminOnly)
	adminGroup.Get("/users/:uid", userHandler.GetUser)
	adminGroup.Put("/users/:uid/role", userHandler.AssignRole)

	// ==================== Academic structure ====================

	authed.Get("/structure/tree", structureHandler.Tree)
	authed.Get("/structure/current-year", structureHandler.CurrentYear)

	degrees := authed.Group("/degrees")
	degrees.Get("/", structureHandler.ListDegrees)
	degrees.Post("/", adminOnly, structureHandler.CreateDegree)
	degrees.Get("/:degree_id", structureHandler.GetDegree)
	degrees.Put("/:degree_id", adminOnly, structureHandler.UpdateDegree)
	degrees.Delete("/:degree_id", adminOnly, structureHandler.DeleteDegree)

	streams := degrees.Group("/:degree_id/streams")
	streams.Get("/", structureHandler.ListStreams)
	streams.Post("/", adminOnly, structureHandler.CreateStream)
	streams.Delete("/:stream_id", adminOnly, structureHandler.DeleteStream)

	batches := streams.Group("/:stream_id/batches")
	batches.Get("/", structureHandler.ListBatches)
	batches.Post("/", adminOnly, structureHandler.CreateBatch)
	batches.Get("/:batch_id", structureHandler.GetBatch)
	batches.Delete("/:batch_id", adminOnly, structureHandler.DeleteBatch)
	batches.Post("/:batch_id/promote", adminOnly, structureHandler.PromoteBatch)
	batches.Get("/:batch_id/years", structureHandler.ListYears)
	batches.Get("/:batch_id/years/:year_id/semesters", structureHandler.ListSemesters)

	sections := batches.Group("/:batch_id/years/:year_id/semesters/:semester_id/sections")
	sections.Get("/", structureHandler.ListSections)
	sections.Post("/", adminOnly, structureHandler.CreateSection)
	sections.Get("/:section_id", structureHandler.GetSection)
	sections.Delete("/:section_id", adminOnly, structureHandler.DeleteSection)

	// ==================== College directory ====================

	departments := authed.Group("/departments")
	departments.Get("/", departmentHandler.ListDepartments)
	departments.Post("/", adminOnly, departmentHandler.CreateDepartment)
	departments.Delete("/:id", adminOnly, departmentHandler.DeleteDepartment)

	designations := authed.Group("/designations")
	designations.Get("/", departmentHandler.ListDesignations)
	designations.Post("/", adminOnly, departmentHandler.CreateDesignation)
	designations.Delete("/:id", adminOnly, departmentHandler.DeleteDesignation)

	employees := authed.Group("/employees", staffOnly)
	employees.Get("/", staffHandler.ListEmployees)
	employees.Post("/", adminOnly, staffHandler.CreateEmployee)
	employees.Put("/:id", adminOnly, staffHandler.UpdateEmployee)
	employees.Delete("/:id", adminOnly, staffHandler.DeleteEmployee)

	teachers := authed.Group("/teachers")
	teachers.Get("/", staffHandler.ListTeachers)
	teachers.Put("/:uid", adminOnly, staffHandler.SaveTeacher)
	teachers.Post("/:uid/classes", adminOnly, staffHandler.AssignClass)

	// ==================== Notices & events ====================

	notices := authed.Group("/notices")
	notices.Get("/", bulletinHandler.ListNotices)
	notices.Post("/", staffOnly, bulletinHandler.PostNotice)
	notices.Put("/:id", staffOnly, bulletinHandler.UpdateNotice)
	notices.Delete("/:id", adminOnly, bulletinHandler.DeleteNotice)

	events := authed.Group("/events")
	events.Get("/", bulletinHandler.ListEvents)
	events.Post("/", adminOnly, bulletinHandler.CreateEvent)
	events.Put("/:id", adminOnly, bulletinHandler.UpdateEvent)
	events.Delete("/:id", adminOnly, bulletinHandler.DeleteEvent)
}
