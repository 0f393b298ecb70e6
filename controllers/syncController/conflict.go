package syncController

import (
	"errors"

	"studysync/database"
	"studysync/middleware"
	"studysync/models"
	"studysync/syncengine"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// ListConflicts returns the user's pending (and recently resolved)
// duplicate flags for the resolution UI.
func ListConflicts(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var conflicts []models.SyncConflict
	if err := database.Database.Db.
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&conflicts).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch conflicts!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Conflicts fetched successfully.", conflicts)
}

// ResolveConflict applies the user's decision on one flagged duplicate.
func ResolveConflict(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	conflictID := c.Locals("conflictID").(uint)
	resolution := c.Locals("resolution").(string)

	err := syncengine.ResolveConflict(database.Database.Db, userID, conflictID, resolution)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Conflict not found!", nil)
		case errors.Is(err, syncengine.ErrConflictResolved):
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Conflict is already resolved!", nil)
		case errors.Is(err, syncengine.ErrBadResolution):
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid resolution!", nil)
		default:
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to resolve conflict!", nil)
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Conflict resolved.", nil)
}
