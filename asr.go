package asr

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/DeNoronha/ctn-asr-demo-sub015/api/adminapi"
	logging "github.com/DeNoronha/ctn-asr-demo-sub015/internal/logger"
	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// Registry is the authentication service registry: it classifies legal
// entities into tiers, mints and revokes signed claims tokens, keeps the
// orchestration register and answers involvement checks.
type Registry struct {
	issuerID string
	signer   *TokenSigner

	Tiers     *TierEvaluator
	Issuer    *TokenIssuer
	Validator *OrchestrationValidator
	Sweeper   *DowngradeSweep

	storages   model.Backends
	server     *fiber.App
	serverConf ServerConf
	clock      Clock
}

// FiberServerConfig is the fiber.Config that is used to init the http fiber.App
var FiberServerConfig = fiber.Config{
	ReadTimeout:    3 * time.Second,
	WriteTimeout:   20 * time.Second,
	IdleTimeout:    150 * time.Second,
	ReadBufferSize: 8192,
	ErrorHandler:   handleError,
	Network:        "tcp",
}

func handleError(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}
	switch code {
	case fiber.StatusNotFound:
		return ctx.Status(code).JSON(ErrorNotFound("the requested resource does not exist"))
	case fiber.StatusMethodNotAllowed, fiber.StatusBadRequest:
		return ctx.Status(code).JSON(ErrorValidationFailure(err.Error()))
	default:
		return ctx.Status(code).JSON(ErrorServerError(err.Error()))
	}
}

// NewRegistry creates a Registry on top of the passed storage backends.
// limiter may be nil, defaulting to an in-process limiter; geo may be nil,
// leaving validation log entries without requester country; clock may be
// nil for wall-clock time.
func NewRegistry(
	serverConf ServerConf,
	issuerID string,
	signer *TokenSigner,
	storages model.Backends,
	limiter RateLimiter,
	geo CountryResolver,
	clock Clock,
) (*Registry, error) {
	if issuerID == "" {
		return nil, errors.New("issuer id must be configured")
	}
	if signer == nil {
		return nil, errors.New("token signer must be configured")
	}
	if limiter == nil {
		limiter = NewMemoryRateLimiter()
	}
	if tps := serverConf.TrustedProxies; len(tps) > 0 {
		FiberServerConfig.TrustedProxies = serverConf.TrustedProxies
		FiberServerConfig.EnableTrustedProxyCheck = true
	}
	FiberServerConfig.ProxyHeader = serverConf.ForwardedIPHeader
	server := fiber.New(FiberServerConfig)
	server.Use(recover.New())
	server.Use(compress.New())
	server.Use(logger.New(logger.Config{Output: logging.AccessWriter()}))
	server.Use(requestid.New())

	registry := &Registry{
		issuerID: issuerID,
		signer:   signer,
		Tiers:    NewTierEvaluator(storages.Entities, clock),
		Issuer: NewTokenIssuer(
			issuerID, signer, storages.Entities, storages.Tokens,
			storages.Orchestrations, storages.KV, limiter, clock,
		),
		Validator: NewOrchestrationValidator(
			signer, storages.Tokens, storages.Orchestrations,
			storages.ValidationLog, geo, clock,
		),
		Sweeper:    NewDowngradeSweep(storages.Entities, clock),
		storages:   storages,
		server:     server,
		serverConf: serverConf,
		clock:      clock,
	}
	if err := adminapi.Register(
		server.Group("/api/v1/admin"), storages, registry,
	); err != nil {
		return nil, err
	}
	return registry, nil
}

// SubmitVerification implements adminapi.Services: it decodes the evidence
// payload for the named method and applies the resulting tier transition.
func (r *Registry) SubmitVerification(entityID, method string, payload []byte) (*model.LegalEntity, error) {
	evidence, err := decodeEvidence(method, payload)
	if err != nil {
		return nil, err
	}
	return r.Tiers.Evaluate(entityID, evidence)
}

// RunDowngradeSweep implements adminapi.Services
func (r *Registry) RunDowngradeSweep() (checked, downgraded, failed int) {
	report := r.Sweeper.Run()
	return report.Checked, report.Downgraded, report.Failed
}

// RevokeToken implements adminapi.Services
func (r *Registry) RevokeToken(jti, reason string) error {
	return r.Issuer.Revoke(jti, reason)
}

func decodeEvidence(method string, payload []byte) (VerificationEvidence, error) {
	switch method {
	case model.VerificationMethodEHerkenning:
		var e EHerkenningAssertion
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "malformed eherkenning evidence")
		}
		return e, nil
	case model.VerificationMethodDNS:
		var e DNSProof
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "malformed dns evidence")
		}
		return e, nil
	case model.VerificationMethodEmailRegistry:
		var e EmailRegistryEvidence
		if err := json.Unmarshal(payload, &e); err != nil {
			return nil, errors.Wrap(err, "malformed email/registry evidence")
		}
		return e, nil
	default:
		return nil, errors.Errorf("unknown verification method %q", method)
	}
}

// requireSystem authenticates the X-API-Key header against the systems
// store and checks the requested operation. It writes the error response
// itself and returns nil when the caller may not proceed.
func (r *Registry) requireSystem(ctx *fiber.Ctx, op model.Operation) *model.ExternalSystem {
	apiKey := strings.TrimSpace(ctx.Get("X-API-Key"))
	if apiKey == "" {
		ctx.Status(fiber.StatusUnauthorized)
		_ = ctx.JSON(ErrorAuthorizationFailure("missing X-API-Key header"))
		return nil
	}
	system, err := r.storages.Systems.Authenticate(apiKey)
	if err != nil {
		ctx.Status(fiber.StatusUnauthorized)
		_ = ctx.JSON(ErrorAuthorizationFailure("unknown api key"))
		return nil
	}
	if !system.MayPerform(op) {
		ctx.Status(fiber.StatusForbidden)
		_ = ctx.JSON(ErrorAuthorizationFailure(
			fmt.Sprintf("system %s is not granted the %s operation", system.Domain, op),
		))
		return nil
	}
	return system
}

// HttpHandlerFunc returns an http.HandlerFunc for serving all the necessary endpoints
func (r *Registry) HttpHandlerFunc() http.HandlerFunc {
	return adaptor.FiberApp(r.server)
}

// Listen starts an http server at the specific address for serving all the
// necessary endpoints
func (r *Registry) Listen(addr string) error {
	return r.server.Listen(addr)
}

// Start starts the registry's http server according to its ServerConf,
// optionally with TLS and an http-to-https redirect.
func (r *Registry) Start() {
	conf := r.serverConf
	if !conf.TLS.Enabled {
		log.WithField("port", conf.Port).Info("TLS is disabled starting http server")
		log.WithError(r.server.Listen(fmt.Sprintf(":%d", conf.Port))).Fatal()
	}
	// TLS enabled
	if conf.TLS.RedirectHTTP {
		httpServer := fiber.New(FiberServerConfig)
		httpServer.All(
			"*", func(ctx *fiber.Ctx) error {
				//goland:noinspection HttpUrlsUsage
				return ctx.Redirect(
					strings.Replace(ctx.Request().URI().String(), "http://", "https://", 1),
					fiber.StatusPermanentRedirect,
				)
			},
		)
		log.Info("TLS and http redirect enabled, starting redirect server on port 80")
		go func() {
			log.WithError(httpServer.Listen(":80")).Fatal()
		}()
	}
	time.Sleep(time.Millisecond) // This is just for a more pretty output with the tls header printed after the http one
	log.Info("TLS enabled, starting https server on port 443")
	log.WithError(r.server.ListenTLS(":443", conf.TLS.Cert, conf.TLS.Key)).Fatal()
}
