package adminapi

import "github.com/gofiber/fiber/v2"

func errorJSON(c *fiber.Ctx, status int, code, description string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "error_description": description})
}

func errInvalid(c *fiber.Ctx, description string) error {
	return errorJSON(c, fiber.StatusBadRequest, "validation_failure", description)
}

func errNotFound(c *fiber.Ctx, description string) error {
	return errorJSON(c, fiber.StatusNotFound, "not_found", description)
}

func errConflict(c *fiber.Ctx, description string) error {
	return errorJSON(c, fiber.StatusConflict, "conflict", description)
}

func errServer(c *fiber.Ctx, description string) error {
	return errorJSON(c, fiber.StatusInternalServerError, "server_error", description)
}

// paramID parses a numeric route parameter. Non-numeric or non-positive
// values yield ok=false.
func paramID(c *fiber.Ctx, name string) (uint, bool) {
	id, err := c.ParamsInt(name)
	if err != nil || id <= 0 {
		return 0, false
	}
	return uint(id), true
}
