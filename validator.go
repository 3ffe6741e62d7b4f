package asr

import (
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// ExpectedInvolvement is what the validation caller asserts the token
// should prove: involvement in a specific orchestration, optionally in a
// specific role.
type ExpectedInvolvement struct {
	OrchestrationID *uint  `json:"orchestration_id,omitempty"`
	Role            string `json:"role,omitempty"`
}

// ValidationOutcome is the full result of one validation attempt. It is
// returned to the caller and mirrored into the validation log.
type ValidationOutcome struct {
	Valid  bool                   `json:"valid"`
	Result model.ValidationResult `json:"result"`
	Reason string                 `json:"reason"`

	MemberFound bool   `json:"member_found_in_orchestration"`
	MemberRole  string `json:"member_role,omitempty"`

	SignatureValid bool `json:"signature_valid"`
	Expired        bool `json:"expired"`

	TokenJTI        string `json:"token_id,omitempty"`
	TokenIssuer     string `json:"token_issuer,omitempty"`
	TokenSubject    string `json:"token_subject,omitempty"`
	OrchestrationID *uint  `json:"orchestration_id,omitempty"`

	Duration time.Duration `json:"-"`
}

// OrchestrationValidator answers whether an entity is genuinely involved in
// an orchestration, given a presented orchestration token. Every attempt is
// written to the validation log; validation never mutates orchestration or
// participant state.
type OrchestrationValidator struct {
	signer         *TokenSigner
	tokens         model.TokenStore
	orchestrations model.OrchestrationStore
	validationLog  model.ValidationLogStore
	geo            CountryResolver
	clock          Clock
}

// NewOrchestrationValidator creates an OrchestrationValidator. geo may be
// nil; log entries then carry no requester country.
func NewOrchestrationValidator(
	signer *TokenSigner,
	tokens model.TokenStore,
	orchestrations model.OrchestrationStore,
	validationLog model.ValidationLogStore,
	geo CountryResolver,
	clock Clock,
) *OrchestrationValidator {
	return &OrchestrationValidator{
		signer:         signer,
		tokens:         tokens,
		orchestrations: orchestrations,
		validationLog:  validationLog,
		geo:            geo,
		clock:          clock,
	}
}

// Validate runs the validation pipeline on a presented token and appends
// exactly one log entry for the attempt. The returned error is non-nil only
// when the attempt could not be carried out at all (persistence failure);
// an invalid token is a regular outcome, not an error.
func (v *OrchestrationValidator) Validate(
	requester, requesterIP string, raw []byte, expected *ExpectedInvolvement,
) (*ValidationOutcome, error) {
	started := v.clock.Now()
	outcome := v.check(raw, expected)
	outcome.Duration = v.clock.Now().Sub(started)

	entry := &model.ValidationLogEntry{
		OrchestrationID: outcome.OrchestrationID,
		TokenJTI:        outcome.TokenJTI,
		TokenIssuer:     outcome.TokenIssuer,
		TokenSubject:    outcome.TokenSubject,
		Requester:       requester,
		CheckedAt:       started.Unix(),
		Result:          outcome.Result,
		Reason:          outcome.Reason,
		MemberFound:     outcome.MemberFound,
		MemberRole:      outcome.MemberRole,
		SignatureValid:  outcome.SignatureValid,
		Expired:         outcome.Expired,
		DurationMS:      outcome.Duration.Milliseconds(),
	}
	if v.geo != nil && requesterIP != "" {
		entry.RequesterCountry = v.geo.Country(requesterIP)
	}
	if err := v.validationLog.Append(entry); err != nil {
		// The attempt must not go unrecorded; fail it rather than return an
		// unlogged result.
		return nil, err
	}
	return outcome, nil
}

// check walks the validation steps in order, short-circuiting on the first
// failure. Each step maps to one result code of the taxonomy.
func (v *OrchestrationValidator) check(raw []byte, expected *ExpectedInvolvement) *ValidationOutcome {
	outcome := &ValidationOutcome{}

	// Step 1: parse without verification to get at the claims.
	token, err := jwt.Parse(raw, jwt.WithVerify(false), jwt.WithValidate(false))
	if err != nil {
		outcome.Result = model.ResultInvalid
		outcome.Reason = "token is malformed: " + err.Error()
		return outcome
	}
	if jti, ok := token.JwtID(); ok {
		outcome.TokenJTI = jti
	}
	if issuer, ok := token.Issuer(); ok {
		outcome.TokenIssuer = issuer
	}
	if subject, ok := token.Subject(); ok {
		outcome.TokenSubject = subject
	}
	var claimedID float64
	if err := token.Get(ClaimOrchestrationID, &claimedID); err == nil && claimedID > 0 {
		id := uint(claimedID)
		outcome.OrchestrationID = &id
	}

	// Step 2: signature.
	if err := v.signer.Verify(raw); err != nil {
		outcome.Result = model.ResultSignatureInvalid
		outcome.Reason = "signature verification failed"
		return outcome
	}
	outcome.SignatureValid = true

	// Step 3: time window.
	now := v.clock.Now()
	if nbf, ok := token.NotBefore(); ok && now.Before(nbf) {
		outcome.Expired = true
		outcome.Result = model.ResultExpired
		outcome.Reason = "token is not yet valid"
		return outcome
	}
	exp, ok := token.Expiration()
	if !ok || now.After(exp) {
		outcome.Expired = true
		outcome.Result = model.ResultExpired
		outcome.Reason = "token has expired"
		return outcome
	}

	// Step 4: issuance record and revocation.
	if outcome.TokenJTI == "" {
		outcome.Result = model.ResultNotFound
		outcome.Reason = "token carries no id"
		return outcome
	}
	record, err := v.tokens.Get(outcome.TokenJTI)
	if err != nil {
		outcome.Result = model.ResultNotFound
		outcome.Reason = "no issuance record for token"
		return outcome
	}
	if record.Revoked {
		outcome.Result = model.ResultRevoked
		outcome.Reason = "token was revoked: " + record.RevocationReason
		return outcome
	}

	// Step 5: the core business check, distinct from cryptographic
	// validity: is the subject an active participant of the orchestration?
	if outcome.OrchestrationID == nil {
		outcome.Result = model.ResultInvalid
		outcome.Reason = "token names no orchestration"
		return outcome
	}
	if expected != nil && expected.OrchestrationID != nil && *expected.OrchestrationID != *outcome.OrchestrationID {
		outcome.Result = model.ResultInvalid
		outcome.Reason = fmt.Sprintf(
			"token is bound to orchestration %d, not %d", *outcome.OrchestrationID, *expected.OrchestrationID,
		)
		return outcome
	}
	participant, err := v.orchestrations.ActiveParticipant(*outcome.OrchestrationID, outcome.TokenSubject)
	if err != nil {
		outcome.Result = model.ResultInvalid
		outcome.Reason = fmt.Sprintf(
			"%s is not an active participant of orchestration %d", outcome.TokenSubject, *outcome.OrchestrationID,
		)
		return outcome
	}
	outcome.MemberFound = true
	outcome.MemberRole = participant.Role
	if expected != nil && expected.Role != "" && expected.Role != participant.Role {
		outcome.Result = model.ResultInvalid
		outcome.Reason = fmt.Sprintf(
			"%s holds role %q, not %q", outcome.TokenSubject, participant.Role, expected.Role,
		)
		return outcome
	}

	// Step 6: all checks passed.
	outcome.Valid = true
	outcome.Result = model.ResultValid
	outcome.Reason = fmt.Sprintf(
		"%s participates in orchestration %d as %q", outcome.TokenSubject, *outcome.OrchestrationID, participant.Role,
	)
	return outcome
}
