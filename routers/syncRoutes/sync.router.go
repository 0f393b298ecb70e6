package syncRoutes

import (
	controllers "studysync/controllers/syncController"
	"studysync/middleware"
	validators "studysync/validators/syncValidator"

	"github.com/gofiber/fiber/v2"
)

// SetupSyncRoutes sets up all provider-sync routes
func SetupSyncRoutes(app *fiber.App) {
	syncGroup := app.Group("/sync")

	// Provider connections
	syncGroup.Post("/gradescope/connect", middleware.JWTMiddleware, validators.ConnectGradescope(), controllers.ConnectGradescope)
	syncGroup.Post("/moodle/connect", middleware.JWTMiddleware, validators.ConnectMoodle(), controllers.ConnectMoodle)
	syncGroup.Delete("/:provider/disconnect", middleware.JWTMiddleware, validators.Provider(), controllers.Disconnect)
	syncGroup.Get("/status", middleware.JWTMiddleware, controllers.Status)

	// Per-user sync trigger
	syncGroup.Post("/:provider/run", middleware.JWTMiddleware, validators.Provider(), controllers.RunSync)

	// Conflict resolution
	syncGroup.Get("/conflicts", middleware.JWTMiddleware, controllers.ListConflicts)
	syncGroup.Post("/conflicts/:id/resolve", middleware.JWTMiddleware, validators.ResolveConflict(), controllers.ResolveConflict)

	// Scheduler-only sweep, guarded by the shared secret (never by user JWTs)
	syncGroup.Post("/sweep/:provider", middleware.SweepAuthMiddleware, validators.Provider(), controllers.RunSweep)
}
