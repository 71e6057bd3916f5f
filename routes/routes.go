package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"gorm.io/gorm"

	controller "taskhive/controllers"
	"taskhive/middleware"
	"taskhive/models"
)

// SetupRoutes registers every endpoint on the app.
func SetupRoutes(app *fiber.App, db *gorm.DB) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints, rate limited per IP
	auth.Post("/register", middleware.AuthRateLimiter(), controller.Register)
	auth.Post("/login", middleware.AuthRateLimiter(), controller.Login)

	auth.Post("/logout", middleware.Protected(), controller.Logout)

	// Profile endpoints (require valid JWT)
	profile := app.Group("/profile", middleware.Protected())
	profile.Get("/", controller.GetProfile)
	profile.Put("/", controller.UpdateProfile)
	profile.Delete("/", controller.DeleteProfile)
	profile.Put("/password", controller.ChangePassword)
	profile.Post("/avatar", controller.UploadAvatar)
	profile.Get("/activity", controller.GetActivity)

	teamLogger := log.New(os.Stdout, "TEAM: ", log.Ldate|log.Ltime|log.Lshortfile)
	teamController := controller.NewTeamController(db, teamLogger)

	teams := app.Group("/api/teams", middleware.Protected())
	teams.Post("/", middleware.RequireRole(models.RoleAdmin, models.RoleTeamLeader), teamController.CreateTeam)
	teams.Get("/", teamController.GetTeams)
	teams.Get("/:teamId", teamController.GetTeam)
	teams.Put("/:teamId", teamController.UpdateTeam)
	teams.Delete("/:teamId", teamController.DeleteTeam)
	teams.Post("/:teamId/members", teamController.AddMember)
	teams.Delete("/:teamId/members/:userId", teamController.RemoveMember)
	teams.Patch("/:teamId/members/:userId/role", teamController.UpdateMemberRole)

	taskLogger := log.New(os.Stdout, "TASK: ", log.Ldate|log.Ltime|log.Lshortfile)
	taskController := controller.NewTaskController(db, taskLogger)

	tasks := app.Group("/tasks", middleware.Protected())
	tasks.Post("/", taskController.CreateTask)
	tasks.Get("/", taskController.GetTasks)
	tasks.Get("/:taskId", taskController.GetTask)
	tasks.Put("/:taskId", taskController.UpdateTask)
	tasks.Delete("/:taskId", taskController.DeleteTask)
	tasks.Post("/:taskId/comments", taskController.AddComment)
	tasks.Post("/:taskId/attachments", taskController.AddAttachments)
	tasks.Delete("/:taskId/attachments/:attachmentId", taskController.RemoveAttachment)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": "Route not found",
		})
	})
}
