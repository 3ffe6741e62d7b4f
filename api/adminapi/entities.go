package adminapi

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// registerEntities wires the legal entity resource, including verification
// evidence submission and the manual reverification sweep trigger.
func registerEntities(r fiber.Router, entities model.EntityStore, services Services) {
	g := r.Group("/entities")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := entities.List(c.QueryInt("offset", 0), c.QueryInt("limit", 100))
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(list)
	})

	type createReq struct {
		Domain string `json:"domain"`
		Name   string `json:"name"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if req.Domain == "" {
			return errInvalid(c, "domain is required")
		}
		// New entities start at the default tier until evidence is submitted.
		entity := &model.LegalEntity{
			ID:     uuid.NewString(),
			Domain: req.Domain,
			Name:   req.Name,
			Tier:   model.Tier3,
		}
		if err := entities.Create(entity); err != nil {
			var alreadyExists model.AlreadyExistsError
			if errors.As(err, &alreadyExists) {
				return errConflict(c, "an entity with this domain already exists")
			}
			return errServer(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(entity)
	})

	g.Get("/:entityID", func(c *fiber.Ctx) error {
		entity, err := entities.ByID(c.Params("entityID"))
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "entity not found")
			}
			return errServer(c, err.Error())
		}
		return c.JSON(entity)
	})

	type verificationReq struct {
		Method   string          `json:"method"`
		Evidence json.RawMessage `json:"evidence"`
	}
	g.Post("/:entityID/verification", func(c *fiber.Ctx) error {
		var req verificationReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if req.Method == "" {
			return errInvalid(c, "method is required")
		}
		entity, err := services.SubmitVerification(c.Params("entityID"), req.Method, req.Evidence)
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "entity not found")
			}
			return errInvalid(c, err.Error())
		}
		return c.JSON(entity)
	})

	g.Post("/sweep", func(c *fiber.Ctx) error {
		checked, downgraded, failed := services.RunDowngradeSweep()
		return c.JSON(fiber.Map{"checked": checked, "downgraded": downgraded, "failed": failed})
	})
}
