package adminapi

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage"
	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// registerPolicy wires the runtime-tunable issuance policy: the token
// lifetime and the default hourly rate ceiling.
func registerPolicy(r fiber.Router, kv model.KeyValueStore) {
	g := r.Group("/policy")

	g.Get("/token-lifetime", func(c *fiber.Ctx) error {
		lifetime, err := storage.GetTokenLifetime(kv)
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(fiber.Map{"token_lifetime_seconds": int(lifetime.Seconds())})
	})

	type lifetimeReq struct {
		Seconds int `json:"token_lifetime_seconds"`
	}
	g.Put("/token-lifetime", func(c *fiber.Ctx) error {
		var req lifetimeReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if err := storage.SetTokenLifetime(kv, time.Duration(req.Seconds)*time.Second); err != nil {
			return errInvalid(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	g.Get("/rate-ceiling", func(c *fiber.Ctx) error {
		ceiling, err := storage.GetRateCeiling(kv)
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(fiber.Map{"rate_ceiling": ceiling})
	})

	type ceilingReq struct {
		Ceiling int `json:"rate_ceiling"`
	}
	g.Put("/rate-ceiling", func(c *fiber.Ctx) error {
		var req ceilingReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if err := storage.SetRateCeiling(kv, req.Ceiling); err != nil {
			return errInvalid(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
