package adminapi

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// registerOrchestrations wires the orchestration register: the transactions
// themselves, their lifecycle and their participants.
func registerOrchestrations(r fiber.Router, orchestrations model.OrchestrationStore) {
	g := r.Group("/orchestrations")

	g.Get("/", func(c *fiber.Ctx) error {
		list, err := orchestrations.List(c.QueryInt("offset", 0), c.QueryInt("limit", 100))
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(list)
	})

	type createReq struct {
		OrderReference     string            `json:"order_reference"`
		OrchestratorDomain string            `json:"orchestrator_domain"`
		OrchestratorName   string            `json:"orchestrator_name"`
		CustomerDomain     string            `json:"customer_domain"`
		CustomerName       string            `json:"customer_name"`
		BusinessKeys       map[string]string `json:"business_keys"`
		Type               string            `json:"type"`
	}
	g.Post("/", func(c *fiber.Ctx) error {
		var req createReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if req.OrderReference == "" || req.OrchestratorDomain == "" {
			return errInvalid(c, "order_reference and orchestrator_domain are required")
		}
		if err := model.ValidateBusinessKeys(req.BusinessKeys); err != nil {
			return errInvalid(c, err.Error())
		}
		orchestration := &model.Orchestration{
			OrderReference:     req.OrderReference,
			OrchestratorDomain: req.OrchestratorDomain,
			OrchestratorName:   req.OrchestratorName,
			CustomerDomain:     req.CustomerDomain,
			CustomerName:       req.CustomerName,
			BusinessKeys:       req.BusinessKeys,
			Type:               req.Type,
		}
		if err := orchestrations.Create(orchestration); err != nil {
			var alreadyExists model.AlreadyExistsError
			if errors.As(err, &alreadyExists) {
				return errConflict(c, "an orchestration with this order reference already exists")
			}
			return errServer(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(orchestration)
	})

	g.Get("/:orchestrationID", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "orchestrationID")
		if !ok {
			return errInvalid(c, "invalid orchestration id")
		}
		orchestration, err := orchestrations.Get(id)
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "orchestration not found")
			}
			return errServer(c, err.Error())
		}
		return c.JSON(orchestration)
	})

	type statusReq struct {
		Status model.Status `json:"status"`
	}
	g.Put("/:orchestrationID/status", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "orchestrationID")
		if !ok {
			return errInvalid(c, "invalid orchestration id")
		}
		var req statusReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		err := orchestrations.SetStatus(id, req.Status)
		if err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "orchestration not found")
			}
			var terminal model.TerminalStateError
			if errors.As(err, &terminal) {
				return errConflict(c, err.Error())
			}
			return errInvalid(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	g.Get("/:orchestrationID/participants", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "orchestrationID")
		if !ok {
			return errInvalid(c, "invalid orchestration id")
		}
		list, err := orchestrations.Participants(id)
		if err != nil {
			return errServer(c, err.Error())
		}
		return c.JSON(list)
	})

	type participantReq struct {
		Domain       string `json:"domain"`
		Name         string `json:"name"`
		Role         string `json:"role"`
		AuthorizedBy string `json:"authorized_by"`
	}
	g.Post("/:orchestrationID/participants", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "orchestrationID")
		if !ok {
			return errInvalid(c, "invalid orchestration id")
		}
		var req participantReq
		if err := c.BodyParser(&req); err != nil {
			return errInvalid(c, "invalid body")
		}
		if req.Domain == "" || req.Role == "" {
			return errInvalid(c, "domain and role are required")
		}
		participant := &model.OrchestrationParticipant{
			OrchestrationID: id,
			Domain:          req.Domain,
			Name:            req.Name,
			Role:            req.Role,
			AuthorizedBy:    req.AuthorizedBy,
			AuthorizedAt:    time.Now().Unix(),
		}
		if err := orchestrations.AddParticipant(participant); err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "orchestration not found")
			}
			var alreadyExists model.AlreadyExistsError
			if errors.As(err, &alreadyExists) {
				return errConflict(c, "this domain already holds this role in the orchestration")
			}
			var terminal model.TerminalStateError
			if errors.As(err, &terminal) {
				return errConflict(c, err.Error())
			}
			return errServer(c, err.Error())
		}
		return c.Status(fiber.StatusCreated).JSON(participant)
	})

	g.Delete("/:orchestrationID/participants/:participantID", func(c *fiber.Ctx) error {
		id, ok := paramID(c, "participantID")
		if !ok {
			return errInvalid(c, "invalid participant id")
		}
		if err := orchestrations.RemoveParticipant(id); err != nil {
			var notFound model.NotFoundError
			if errors.As(err, &notFound) {
				return errNotFound(c, "participant not found")
			}
			return errServer(c, err.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
