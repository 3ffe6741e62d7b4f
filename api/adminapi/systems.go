package adminapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// registerSystems wires external system registration and approval. The
// generated API key is part of the creation response and never shown again.
func registerSystems(r fiber.Router, systems model.SystemsStore) {
	g := r.Group("/systems")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := systems.List()
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(list)
	})

	type createReq struct {
		Domain           string            `json:"domain"`
		Name             string            `json:"name"`
		Operations       []model.Operation `json:"operations"`
		AllowedAudiences []string          `json:"allowed_audiences"`
		RateCeiling      int               `json:"rate_ceiling"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if req.Domain == "" {
			return errInvalid(c, "domain is required")
		}
		if err := model.ValidateOperations(req.Operations); err != nil {
			return errInvalid(c, err.Error())
		}
		system := &model.ExternalSystem{
			Domain:           req.Domain,
			Name:             req.Name,
			Operations:       req.Operations,
			AllowedAudiences: req.AllowedAudiences,
			RateCeiling:      req.RateCeiling,
			Active:           true,
		}
		apiKey, err := systems.Create(system)
		if err != nil {
			var alreadyExists model.AlreadyExistsError
			if errors.As(err, &alreadyExists) {
				return errConflict(c, "a system with this domain already exists")
			}
			return errServer(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(
			fiber.Map{
				"system":  system,
				"api_key": apiKey,
			},
		)
	})

	g.Get("/:domain", func(c *fiber.Ctx) error {
		system, err := systems.ByDomain(c.Params("domain"))
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "system not found")
			}
			return errServer(c, err.Error())
		}
		return c.JSON(system)
	})

	type approvalReq struct {
		Approved bool `json:"approved"`
	}
	g.Put("/:domain/approval", func(c *fiber.Ctx) error {
		var req approvalReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if err := systems.SetApproval(c.Params("domain"), req.Approved); err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "system not found")
			}
			return errServer(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	type activeReq struct {
		Active bool `json:"active"`
	}
	g.Put("/:domain/active", func(c *fiber.Ctx) error {
		var req activeReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if err := systems.SetActive(c.Params("domain"), req.Active); err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "system not found")
			}
			return errServer(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	g.Delete("/:domain", func(c *fiber.Ctx) error {
		if err := systems.Delete(c.Params("domain")); err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "system not found")
			}
			return errServer(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
