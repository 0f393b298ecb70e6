package syncController

import (
	"errors"
	"log"

	"studysync/database"
	"studysync/middleware"
	"studysync/models"
	"studysync/providers"
	"studysync/syncengine"
	"studysync/utils"

	"github.com/gofiber/fiber/v2"
)

// RunSync triggers a sync of one provider for the calling user. Manual
// button, browser extension and scheduler tick all land here.
func RunSync(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	provider := c.Locals("provider").(string)

	db := database.Database.Db
	result, err := syncengine.SyncUser(db, userID, provider)
	if err != nil {
		if errors.Is(err, syncengine.ErrNotConnected) {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Provider is not connected!", nil)
		}
		if errors.Is(err, providers.ErrAuth) || errors.Is(err, providers.ErrSessionExpired) {
			go notifyReconnect(userID, provider)
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Session expired. Please reconnect the provider!", nil)
		}
		log.Printf("Sync failed for user %d provider %s: %v", userID, provider, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Sync failed. Please try again later!", nil)
	}

	if result.Conflicts > 0 {
		go notifyConflicts(userID, result.Conflicts)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sync completed.", result)
}

// RunSweep is the scheduler-only all-users entry point, guarded by
// middleware.SweepAuthMiddleware.
func RunSweep(c *fiber.Ctx) error {
	provider := c.Locals("provider").(string)

	entries := syncengine.Sweep(database.Database.Db, provider)

	failed := 0
	for _, e := range entries {
		if e.Error != "" {
			failed++
		}
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sweep completed.", fiber.Map{
		"processed": len(entries),
		"failed":    failed,
		"results":   entries,
	})
}

func notifyConflicts(userID uint, count int) {
	var user models.User
	if err := database.Database.Db.Select("name, email").First(&user, userID).Error; err != nil || user.Email == "" {
		return
	}
	utils.SendConflictEmail(user.Email, user.Name, count)
}

func notifyReconnect(userID uint, provider string) {
	var user models.User
	if err := database.Database.Db.Select("name, email").First(&user, userID).Error; err != nil || user.Email == "" {
		return
	}
	utils.SendReconnectEmail(user.Email, user.Name, provider)
}
