package syncController

import (
	"log"
	"time"

	"studysync/config"
	"studysync/database"
	"studysync/middleware"
	"studysync/models"
	"studysync/providers"
	"studysync/providers/gradescope"
	"studysync/providers/moodle"
	"studysync/vault"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// storeCredential encrypts the session blob and replaces any previous
// credential for the (user, provider) pair. Re-login always destroys
// the old row rather than patching it.
func storeCredential(db *gorm.DB, userID uint, provider, blob string, expiresAt *time.Time) error {
	ciphertext, err := vault.Encrypt(config.AppConfig.VaultKey, blob)
	if err != nil {
		return err
	}

	if err := db.Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&models.ProviderCredential{}).Error; err != nil {
		return err
	}

	cred := models.ProviderCredential{
		UserID:      userID,
		Provider:    provider,
		Ciphertext:  ciphertext,
		ConnectedAt: time.Now(),
		ExpiresAt:   expiresAt,
	}
	return db.Create(&cred).Error
}

// ConnectGradescope performs a live login against Gradescope and stores
// the harvested cookies encrypted.
func ConnectGradescope(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	email := c.Locals("gsEmail").(string)
	password := c.Locals("gsPassword").(string)

	session, err := gradescope.Login(email, password)
	if err != nil {
		log.Printf("Gradescope login failed for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Gradescope rejected the credentials!", nil)
	}

	blob, err := session.ToJSON()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store the session!", nil)
	}

	// Gradescope remember-me cookies live for about a month.
	expiresAt := time.Now().AddDate(0, 1, 0)
	if err := storeCredential(database.Database.Db, userID, providers.Gradescope, blob, &expiresAt); err != nil {
		log.Printf("Error storing gradescope credential for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store the session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Gradescope connected successfully.", nil)
}

// ConnectMoodle stores a Moodle web-service session. The token comes
// either from a live username/password exchange or pasted directly by
// the user, since portal-login deployments cannot exchange credentials.
func ConnectMoodle(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	baseURL := c.Locals("moodleBaseURL").(string)
	token := c.Locals("moodleToken").(string)
	username := c.Locals("moodleUsername").(string)
	password := c.Locals("moodlePassword").(string)
	moodleUserID := c.Locals("moodleUserID").(int)

	if token == "" {
		var err error
		token, err = moodle.GetToken(baseURL, username, password)
		if err != nil {
			log.Printf("Moodle token exchange failed for user %d: %v", userID, err)
			return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Moodle rejected the credentials!", nil)
		}
	}

	session := &moodle.Session{
		BaseURL:  baseURL,
		Token:    token,
		UserID:   moodleUserID,
		Username: username,
	}
	blob, err := session.ToJSON()
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store the session!", nil)
	}

	if err := storeCredential(database.Database.Db, userID, providers.Moodle, blob, nil); err != nil {
		log.Printf("Error storing moodle credential for user %d: %v", userID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to store the session!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Moodle connected successfully.", nil)
}

// Disconnect destroys the stored credential for one provider.
func Disconnect(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}
	provider := c.Locals("provider").(string)

	result := database.Database.Db.
		Where("user_id = ? AND provider = ?", userID, provider).
		Delete(&models.ProviderCredential{})
	if result.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to disconnect!", nil)
	}
	if result.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Provider is not connected!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Provider disconnected.", nil)
}

// Status reports each provider's connection state for the dashboard.
func Status(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var creds []models.ProviderCredential
	if err := database.Database.Db.
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Find(&creds).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch status!", nil)
	}

	status := fiber.Map{}
	for _, p := range []string{providers.Gradescope, providers.Moodle} {
		entry := fiber.Map{"connected": false}
		for _, cred := range creds {
			if cred.Provider == p {
				entry = fiber.Map{
					"connected":    !cred.IsStale,
					"stale":        cred.IsStale,
					"connected_at": cred.ConnectedAt,
					"last_sync_at": cred.LastSyncAt,
					"expires_at":   cred.ExpiresAt,
				}
			}
		}
		status[p] = entry
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Sync status fetched successfully.", status)
}
