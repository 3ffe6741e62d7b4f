package asr

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

type tokenStatus struct {
	JTI              string          `json:"token_id"`
	Kind             model.TokenKind `json:"kind"`
	Subject          string          `json:"subject"`
	IssuedAt         int64           `json:"issued_at"`
	ExpiresAt        int64           `json:"expires_at"`
	Revoked          bool            `json:"revoked"`
	RevokedAt        *int64          `json:"revoked_at,omitempty"`
	RevocationReason string          `json:"revocation_reason,omitempty"`
	UsageCount       int64           `json:"usage_count"`
}

type entityStatus struct {
	ID                 string     `json:"id"`
	Domain             string     `json:"domain"`
	Name               string     `json:"name"`
	Tier               model.Tier `json:"tier"`
	VerificationMethod string     `json:"verification_method,omitempty"`
	VerifiedAt         *int64     `json:"verified_at,omitempty"`
	ReverificationDue  *int64     `json:"reverification_due,omitempty"`
}

// AddLookupEndpoints adds the read-only status endpoints for issued tokens
// and registered entities. Callers need the lookup operation.
func (r *Registry) AddLookupEndpoints(tokens, entities EndpointConf) {
	if tokens.Path != "" {
		r.server.Get(
			tokens.Path+"/:tokenID", func(ctx *fiber.Ctx) error {
				if system := r.requireSystem(ctx, model.OperationLookup); system == nil {
					return nil
				}
				record, err := r.storages.Tokens.Get(ctx.Params("tokenID"))
				if err != nil {
					return sendServiceError(ctx, err)
				}
				return ctx.JSON(
					tokenStatus{
						JTI:              record.JTI,
						Kind:             record.Kind,
						Subject:          record.Subject,
						IssuedAt:         record.IssuedAt,
						ExpiresAt:        record.ExpiresAt,
						Revoked:          record.Revoked,
						RevokedAt:        record.RevokedAt,
						RevocationReason: record.RevocationReason,
						UsageCount:       record.UsageCount,
					},
				)
			},
		)
	}
	if entities.Path != "" {
		r.server.Get(
			entities.Path+"/:entityID", func(ctx *fiber.Ctx) error {
				if system := r.requireSystem(ctx, model.OperationLookup); system == nil {
					return nil
				}
				entity, err := r.storages.Entities.ByID(ctx.Params("entityID"))
				if err != nil {
					return sendServiceError(ctx, err)
				}
				return ctx.JSON(
					entityStatus{
						ID:                 entity.ID,
						Domain:             entity.Domain,
						Name:               entity.Name,
						Tier:               entity.Tier,
						VerificationMethod: entity.VerificationMethod,
						VerifiedAt:         entity.VerifiedAt,
						ReverificationDue:  entity.ReverificationDue,
					},
				)
			},
		)
	}
}
