package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// registerValidationLog wires read-only access to the validation audit log.
// The log is append-only; there are no mutation routes.
func registerValidationLog(r fiber.Router, validationLog model.ValidationLogStore) {
	g := r.Group("/validation-log")

	g.Get("/", func(c *fiber.Ctx) error {
		entries, err := validationLog.Recent(c.QueryInt("limit", 100))
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(entries)
	})

	g.Get("/count", func(c *fiber.Ctx) error {
		count, err := validationLog.Count()
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(fiber.Map{"count": count})
	})

	g.Get("/orchestration/:orchestrationID", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "orchestrationID")
		if !ok {
			return errInvalid(c, "invalid orchestration id")
		}
		entries, err := validationLog.ForOrchestration(id)
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(entries)
	})

	g.Get("/token/:tokenID", func(c *fiber.Ctx) error {
		entries, err := validationLog.ForToken(c.Params("tokenID"))
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(entries)
	})
}
