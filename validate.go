package asr

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

type validationRequest struct {
	Token           string `json:"token" form:"token"`
	OrchestrationID *uint  `json:"orchestration_id" form:"orchestration_id"`
	Role            string `json:"role" form:"role"`
}

// AddValidationEndpoint adds the orchestration-token validation endpoint.
// A completed validation always answers 200, whatever the verdict; the
// verdict is in the payload.
func (r *Registry) AddValidationEndpoint(endpoint EndpointConf) {
	if endpoint.Path == "" {
		return
	}
	r.server.Post(
		endpoint.Path, func(ctx *fiber.Ctx) error {
			system := r.requireSystem(ctx, model.OperationValidate)
			if system == nil {
				return nil
			}
			var req validationRequest
			if err := ctx.BodyParser(&req); err != nil {
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorValidationFailure("could not parse request body: " + err.Error()))
			}
			if req.Token == "" {
				return ctx.Status(fiber.StatusBadRequest).JSON(ErrorValidationFailure("required parameter 'token' not given"))
			}
			var expected *ExpectedInvolvement
			if req.OrchestrationID != nil || req.Role != "" {
				expected = &ExpectedInvolvement{
					OrchestrationID: req.OrchestrationID,
					Role:            req.Role,
				}
			}
			outcome, err := r.Validator.Validate(system.Domain, ctx.IP(), []byte(req.Token), expected)
			if err != nil {
				return ctx.Status(fiber.StatusServiceUnavailable).JSON(ErrorPersistenceUnavailable(err.Error()))
			}
			return ctx.JSON(outcome)
		},
	)
}
