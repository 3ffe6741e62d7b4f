package asr

import (
	arrays "github.com/adam-hanna/arrayOperations"
	"github.com/fatih/structs"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage"
	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// Claim names used in the registry's tokens beyond the registered JWT set.
const (
	ClaimTokenKind          = "token_kind"
	ClaimTier               = "tier"
	ClaimVerificationMethod = "verification_method"
	ClaimVerifiedAt         = "verified_at"
	ClaimEntityName         = "entity_name"
	ClaimOrchestrationID    = "orchestration_id"
	ClaimOrderReference     = "order_reference"
	ClaimRole               = "role"
)

// AssuranceClaims is the domain claim set of an assurance token: the
// entity's trust state at mint time.
type AssuranceClaims struct {
	Tier               int    `structs:"tier" json:"tier"`
	VerificationMethod string `structs:"verification_method" json:"verification_method"`
	VerifiedAt         int64  `structs:"verified_at" json:"verified_at"`
	EntityName         string `structs:"entity_name" json:"entity_name"`
}

// OrchestrationClaims is the domain claim set of an orchestration token: the
// entity's declared involvement in one business transaction.
type OrchestrationClaims struct {
	OrchestrationID uint   `structs:"orchestration_id" json:"orchestration_id"`
	OrderReference  string `structs:"order_reference" json:"order_reference"`
	Role            string `structs:"role" json:"role"`
	Tier            int    `structs:"tier" json:"tier"`
}

// IssuedToken is the response of a successful issuance: the signed token and
// its id. The token itself is never persisted.
type IssuedToken struct {
	JTI       string `json:"token_id"`
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
}

// TokenIssuer mints the registry's signed claims tokens and keeps the
// issuance audit records. Issuance always re-reads the entity's current
// tier; it never trusts a cached value.
type TokenIssuer struct {
	issuerID       string
	signer         *TokenSigner
	entities       model.EntityStore
	tokens         model.TokenStore
	orchestrations model.OrchestrationStore
	kv             model.KeyValueStore
	limiter        RateLimiter
	clock          Clock
}

// NewTokenIssuer creates a TokenIssuer. The issuer identity is passed
// explicitly; there is no process-wide issuer singleton.
func NewTokenIssuer(
	issuerID string,
	signer *TokenSigner,
	entities model.EntityStore,
	tokens model.TokenStore,
	orchestrations model.OrchestrationStore,
	kv model.KeyValueStore,
	limiter RateLimiter,
	clock Clock,
) *TokenIssuer {
	return &TokenIssuer{
		issuerID:       issuerID,
		signer:         signer,
		entities:       entities,
		tokens:         tokens,
		orchestrations: orchestrations,
		kv:             kv,
		limiter:        limiter,
		clock:          clock,
	}
}

// authorizeIssuance checks the caller's grant and its hourly ceiling.
// Denial happens before anything is minted or written.
func (i *TokenIssuer) authorizeIssuance(system *model.ExternalSystem) error {
	if system == nil || !system.MayPerform(model.OperationIssue) {
		return ErrUnauthorized
	}
	ceiling := system.RateCeiling
	if ceiling <= 0 {
		var err error
		ceiling, err = storage.GetRateCeiling(i.kv)
		if err != nil {
			return err
		}
	}
	ok, err := i.limiter.Allow(system.Domain, ceiling)
	if err != nil {
		return err
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

// resolveAudience applies the caller's audience restriction to the
// requested audience list.
func resolveAudience(requested, allowed []string) ([]string, error) {
	if len(requested) == 0 {
		if len(allowed) > 0 {
			return allowed, nil
		}
		return nil, errors.New("audience is required")
	}
	if len(allowed) == 0 {
		return requested, nil
	}
	audience := arrays.Intersect(requested, allowed)
	if len(audience) == 0 {
		return nil, errors.New("requested audience is not permitted for this system")
	}
	return audience, nil
}

// IssueAssurance mints an assurance token for the entity and records the
// issuance. The entity's tier is read fresh inside this call.
func (i *TokenIssuer) IssueAssurance(
	system *model.ExternalSystem, entityID string, requestedAudience []string,
) (*IssuedToken, error) {
	if err := i.authorizeIssuance(system); err != nil {
		return nil, err
	}
	entity, err := i.entities.ByID(entityID)
	if err != nil {
		return nil, err
	}
	audience, err := resolveAudience(requestedAudience, system.AllowedAudiences)
	if err != nil {
		return nil, err
	}
	var verifiedAt int64
	if entity.VerifiedAt != nil {
		verifiedAt = *entity.VerifiedAt
	}
	claims := AssuranceClaims{
		Tier:               int(entity.Tier),
		VerificationMethod: entity.VerificationMethod,
		VerifiedAt:         verifiedAt,
		EntityName:         entity.Name,
	}
	return i.mint(model.TokenKindAssurance, entity.Domain, audience, nil, structs.Map(claims))
}

// IssueOrchestration mints an orchestration token asserting that the entity
// holds a role in the given orchestration. The participant registration is
// checked before minting.
func (i *TokenIssuer) IssueOrchestration(
	system *model.ExternalSystem, entityID string, orchestrationID uint, role string, requestedAudience []string,
) (*IssuedToken, error) {
	if err := i.authorizeIssuance(system); err != nil {
		return nil, err
	}
	entity, err := i.entities.ByID(entityID)
	if err != nil {
		return nil, err
	}
	orchestration, err := i.orchestrations.Get(orchestrationID)
	if err != nil {
		return nil, err
	}
	if orchestration.Status.Terminal() {
		return nil, model.TerminalStateErrorFmt(
			"orchestration %d is %s; no tokens are issued for it", orchestration.ID, orchestration.Status,
		)
	}
	participant, err := i.orchestrations.ActiveParticipant(orchestration.ID, entity.Domain)
	if err != nil {
		return nil, err
	}
	if role != "" && role != participant.Role {
		return nil, errors.Errorf(
			"entity %s holds role %q in orchestration %d, not %q",
			entity.Domain, participant.Role, orchestration.ID, role,
		)
	}
	audience, err := resolveAudience(requestedAudience, system.AllowedAudiences)
	if err != nil {
		return nil, err
	}
	claims := OrchestrationClaims{
		OrchestrationID: orchestration.ID,
		OrderReference:  orchestration.OrderReference,
		Role:            participant.Role,
		Tier:            int(entity.Tier),
	}
	return i.mint(model.TokenKindOrchestration, entity.Domain, audience, &orchestration.ID, structs.Map(claims))
}

// mint builds, signs and records a token. The record stores the SHA-256
// hash of the token and an immutable claim snapshot; if the record cannot
// be written, no token is returned.
func (i *TokenIssuer) mint(
	kind model.TokenKind, subject string, audience []string, orchestrationID *uint, claims map[string]any,
) (*IssuedToken, error) {
	lifetime, err := storage.GetTokenLifetime(i.kv)
	if err != nil {
		return nil, err
	}
	now := i.clock.Now()
	expiresAt := now.Add(lifetime)
	jti := uuid.NewString()

	builder := jwt.NewBuilder().
		Issuer(i.issuerID).
		Subject(subject).
		Audience(audience).
		JwtID(jti).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expiresAt).
		Claim(ClaimTokenKind, string(kind))
	for name, value := range claims {
		builder = builder.Claim(name, value)
	}
	token, err := builder.Build()
	if err != nil {
		return nil, errors.Wrap(err, "could not build token")
	}
	signed, err := i.signer.Sign(token)
	if err != nil {
		return nil, errors.Wrap(err, "could not sign token")
	}

	record := &model.IssuedTokenRecord{
		JTI:             jti,
		Kind:            kind,
		Issuer:          i.issuerID,
		Subject:         subject,
		Audience:        audience,
		OrchestrationID: orchestrationID,
		IssuedAt:        now.Unix(),
		NotBefore:       now.Unix(),
		ExpiresAt:       expiresAt.Unix(),
		TokenHash:       TokenHash(signed),
		Claims:          claims,
	}
	if err = i.tokens.Create(record); err != nil {
		return nil, err
	}
	return &IssuedToken{
		JTI:       jti,
		Token:     string(signed),
		ExpiresAt: expiresAt.Unix(),
	}, nil
}

// Revoke marks an issued token revoked. Revoking an already-revoked token
// is a no-op.
func (i *TokenIssuer) Revoke(jti, reason string) error {
	return i.tokens.Revoke(jti, reason, i.clock.Now().Unix())
}

// RecordUsage notes that a downstream verifier accepted the token.
func (i *TokenIssuer) RecordUsage(jti, usedBy string) error {
	return i.tokens.RecordUsage(jti, usedBy, i.clock.Now().Unix())
}
