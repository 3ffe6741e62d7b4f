package adminapi

import (
	"github.com/gofiber/fiber/v2"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// Services are the domain operations the admin API exposes beyond plain
// storage access. They are implemented by the registry itself.
type Services interface {
	// SubmitVerification applies verification evidence to an entity and
	// returns the entity with its resulting tier.
	SubmitVerification(entityID, method string, payload []byte) (*model.LegalEntity, error)
	// RunDowngradeSweep runs one pass of the reverification sweep.
	RunDowngradeSweep() (checked, downgraded, failed int)
	// RevokeToken marks an issued token revoked.
	RevokeToken(jti, reason string) error
}

// Register mounts all admin API routes under the provided group.
func Register(r fiber.Router, storages model.Backends, services Services) error {
	// Optional authentication middleware for all admin routes
	r.Use(authMiddleware(storages.Users))

	registerEntities(r, storages.Entities, services)
	registerOrchestrations(r, storages.Orchestrations)
	registerTokens(r, storages.Tokens, services)
	registerSystems(r, storages.Systems)
	registerValidationLog(r, storages.ValidationLog)
	registerPolicy(r, storages.KV)
	registerUsers(r, storages.Users)
	return nil
}
