package asr

import (
	"github.com/gofiber/fiber/v2"
)

// AddJWKSEndpoint publishes the registry's public signing keys so that
// downstream verifiers can check token signatures offline.
func (r *Registry) AddJWKSEndpoint(endpoint EndpointConf) {
	if endpoint.Path == "" {
		return
	}
	r.server.Get(
		endpoint.Path, func(ctx *fiber.Ctx) error {
			set, err := r.signer.JWKS()
			if err != nil {
				return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorServerError(err.Error()))
			}
			return ctx.JSON(set)
		},
	)
}
