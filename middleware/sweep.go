package middleware

import (
	"crypto/subtle"
	"strings"

	"studysync/config"

	"github.com/gofiber/fiber/v2"
)

// SweepAuthMiddleware guards the scheduled-sweep endpoint. Only the
// external scheduler holds the shared secret. Fails closed: when no
// secret is configured the endpoint refuses every request instead of
// silently allowing open access.
func SweepAuthMiddleware(c *fiber.Ctx) error {
	secret := config.AppConfig.SweepSecret
	if secret == "" {
		return JsonResponse(c, fiber.StatusServiceUnavailable, false, "Sweep endpoint is not configured!", nil)
	}

	authHeader := c.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Missing or invalid Authorization header", nil)
	}

	supplied := authHeader[len("Bearer "):]
	if subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) != 1 {
		return JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid sweep secret", nil)
	}

	return c.Next()
}
