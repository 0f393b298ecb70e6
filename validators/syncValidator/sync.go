package syncValidator

import (
	"strconv"
	"strings"

	"studysync/middleware"
	"studysync/models"
	"studysync/providers"

	"github.com/gofiber/fiber/v2"
)

// ConnectGradescope validates the Gradescope connect payload.
func ConnectGradescope() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Email) == "" {
			errors["email"] = "Email is required!"
		}
		if reqData.Password == "" {
			errors["password"] = "Password is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("gsEmail", strings.TrimSpace(reqData.Email))
		c.Locals("gsPassword", reqData.Password)
		return c.Next()
	}
}

// ConnectMoodle validates the Moodle connect payload. Either a token or
// a username/password pair must be supplied.
func ConnectMoodle() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			BaseURL  string `json:"base_url"`
			Token    string `json:"token"`
			Username string `json:"username"`
			Password string `json:"password"`
			UserID   int    `json:"user_id"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		baseURL := strings.TrimRight(strings.TrimSpace(reqData.BaseURL), "/")
		if baseURL == "" {
			errors["base_url"] = "Base URL is required!"
		} else if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
			errors["base_url"] = "Base URL must start with http:// or https://"
		}

		if reqData.Token == "" && (strings.TrimSpace(reqData.Username) == "" || reqData.Password == "") {
			errors["token"] = "Either a token or a username and password is required!"
		}
		if reqData.UserID <= 0 {
			errors["user_id"] = "Moodle user id is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("moodleBaseURL", baseURL)
		c.Locals("moodleToken", strings.TrimSpace(reqData.Token))
		c.Locals("moodleUsername", strings.TrimSpace(reqData.Username))
		c.Locals("moodlePassword", reqData.Password)
		c.Locals("moodleUserID", reqData.UserID)
		return c.Next()
	}
}

// Provider validates the :provider path parameter.
func Provider() fiber.Handler {
	return func(c *fiber.Ctx) error {
		provider := c.Params("provider")
		if provider != providers.Gradescope && provider != providers.Moodle {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Unknown provider!", nil)
		}
		c.Locals("provider", provider)
		return c.Next()
	}
}

// ResolveConflict validates the conflict id parameter and the chosen
// resolution.
func ResolveConflict() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid conflict id!", nil)
		}

		reqData := new(struct {
			Resolution string `json:"resolution"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		switch reqData.Resolution {
		case models.ResolutionKeepManual, models.ResolutionUseExternal, models.ResolutionKeepBoth:
		default:
			return middleware.ValidationErrorResponse(c, map[string]string{
				"resolution": "Resolution must be keep_manual, use_external or keep_both!",
			})
		}

		c.Locals("conflictID", uint(id))
		c.Locals("resolution", reqData.Resolution)
		return c.Next()
	}
}
