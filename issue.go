package asr

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

type assuranceRequest struct {
	EntityID string   `json:"entity_id" form:"entity_id"`
	Audience []string `json:"audience" form:"audience"`
}

type orchestrationRequest struct {
	EntityID        string   `json:"entity_id" form:"entity_id"`
	OrchestrationID uint     `json:"orchestration_id" form:"orchestration_id"`
	Role            string   `json:"role" form:"role"`
	Audience        []string `json:"audience" form:"audience"`
}

// sendServiceError maps a domain error to the API error taxonomy.
func sendServiceError(ctx *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return ctx.Status(fiber.StatusForbidden).JSON(ErrorAuthorizationFailure(err.Error()))
	case errors.Is(err, ErrRateLimited):
		return ctx.Status(fiber.StatusTooManyRequests).JSON(ErrorRateLimitExceeded(err.Error()))
	}
	var notFound model.NotFoundError
	if errors.As(err, &notFound) {
		return ctx.Status(fiber.StatusNotFound).JSON(ErrorNotFound(err.Error()))
	}
	var alreadyExists model.AlreadyExistsError
	if errors.As(err, &alreadyExists) {
		return ctx.Status(fiber.StatusConflict).JSON(ErrorConflict(err.Error()))
	}
	var terminal model.TerminalStateError
	if errors.As(err, &terminal) {
		return ctx.Status(fiber.StatusConflict).JSON(ErrorConflict(err.Error()))
	}
	return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
}

// AddIssuanceEndpoints adds the token issuance endpoints. Callers
// authenticate with their API key and need the issue operation.
func (r *Registry) AddIssuanceEndpoints(endpoint EndpointConf) {
	if endpoint.Path == "" {
		return
	}
	r.server.Post(
		endpoint.Path, func(ctx *fiber.Ctx) error {
			system := r.requireSystem(ctx, model.OperationIssue)
			if system == nil {
				return nil
			}
			var req assuranceRequest
			if err := ctx.BodyParser(&req); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorValidationFailure("could not parse request body: " + err.Error()))
			}
			if req.EntityID == "" {
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorValidationFailure("required parameter 'entity_id' not given"))
			}
			issued, err := r.Issuer.IssueAssurance(system, req.EntityID, req.Audience)
			if err != nil {
				return sendServiceError(ctx, err)
			}
			return ctx.Status(fiber.StatusCreated).JSON(issued)
		},
	)
	r.server.Post(
		endpoint.Path+"/orchestration", func(ctx *fiber.Ctx) error {
			system := r.requireSystem(ctx, model.OperationIssue)
			if system == nil {
				return nil
			}
			var req orchestrationRequest
			if err := ctx.BodyParser(&req); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorValidationFailure("could not parse request body: " + err.Error()))
			}
			if req.EntityID == "" || req.OrchestrationID == 0 {
				return ctx.Status(fiber.StatusBadRequest).JSON(
					ErrorValidationFailure("required parameters 'entity_id' and 'orchestration_id' not given"),
				)
			}
			issued, err := r.Issuer.IssueOrchestration(
				system, req.EntityID, req.OrchestrationID, req.Role, req.Audience,
			)
			if err != nil {
				return sendServiceError(ctx, err)
			}
			return ctx.Status(fiber.StatusCreated).JSON(issued)
		},
	)
}

// AddUsageEndpoint adds the endpoint with which downstream verifiers report
// that they accepted a token.
func (r *Registry) AddUsageEndpoint(endpoint EndpointConf) {
	if endpoint.Path == "" {
		return
	}
	r.server.Post(
		endpoint.Path+"/:tokenID/usage", func(ctx *fiber.Ctx) error {
			system := r.requireSystem(ctx, model.OperationValidate)
			if system == nil {
				return nil
			}
			if err := r.Issuer.RecordUsage(ctx.Params("tokenID"), system.Domain); err != nil {
				return sendServiceError(ctx, err)
			}
			return ctx.SendStatus(fiber.StatusNoContent)
		},
	)
}
