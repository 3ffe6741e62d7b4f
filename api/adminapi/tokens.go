package adminapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// registerTokens wires the issued-token audit records and revocation.
func registerTokens(r fiber.Router, tokens model.TokenStore, services Services) {
	g := r.Group("/tokens")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := tokens.List(c.QueryInt("offset", 0), c.QueryInt("limit", 100))
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(list)
	})

	g.Get("/:tokenID", func(c *fiber.Ctx) error {
		record, err := tokens.Get(c.Params("tokenID"))
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "token not found")
			}
			return errServer(c, err.Error())
		}
		return c.JSON(record)
	})

	type revokeReq struct {
		Reason string `json:"reason"`
	}
	g.Post("/:tokenID/revoke", func(c *fiber.Ctx) error {
		var req revokeReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if err := services.RevokeToken(c.Params("tokenID"), req.Reason); err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "token not found")
			}
			return errServer(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
