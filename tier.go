package asr

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// ReverificationWindow is how long a DNS domain-ownership proof remains
// valid before it must be renewed.
const ReverificationWindow = 90 * 24 * time.Hour

// dnsChallengePrefix is the required prefix of the TXT record presented as
// domain-ownership proof.
const dnsChallengePrefix = "ctn-asr-verify="

// VerificationEvidence is one piece of evidence supporting a tier
// transition. The concrete type determines the target tier.
type VerificationEvidence interface {
	// Method returns the verification method stored on the entity.
	Method() string
	// Validate checks the evidence shape against the entity it is presented
	// for. Malformed evidence is rejected before any state change.
	Validate(entity *model.LegalEntity) error
}

// EHerkenningAssertion is proof of identity through the national eID scheme.
// It yields tier 1, the strongest classification, without expiry.
type EHerkenningAssertion struct {
	Subject        string `json:"subject"`
	AssuranceLevel string `json:"assurance_level"`
	AssertionID    string `json:"assertion_id"`
}

// Method implements VerificationEvidence
func (a EHerkenningAssertion) Method() string {
	return model.VerificationMethodEHerkenning
}

// Validate implements VerificationEvidence
func (a EHerkenningAssertion) Validate(entity *model.LegalEntity) error {
	if a.AssertionID == "" {
		return errors.New("eherkenning assertion id is missing")
	}
	if a.AssuranceLevel == "" {
		return errors.New("eherkenning assurance level is missing")
	}
	if a.Subject != entity.Domain {
		return errors.Errorf("assertion subject %q does not match entity domain %q", a.Subject, entity.Domain)
	}
	return nil
}

// DNSProof is proof of domain ownership through a TXT record. It yields
// tier 2 with a fresh 90-day reverification deadline; presenting it again
// renews the deadline.
type DNSProof struct {
	Domain    string `json:"domain"`
	TXTRecord string `json:"txt_record"`
}

// Method implements VerificationEvidence
func (p DNSProof) Method() string {
	return model.VerificationMethodDNS
}

// Validate implements VerificationEvidence
func (p DNSProof) Validate(entity *model.LegalEntity) error {
	if p.Domain != entity.Domain {
		return errors.Errorf("proof domain %q does not match entity domain %q", p.Domain, entity.Domain)
	}
	if !strings.HasPrefix(p.TXTRecord, dnsChallengePrefix) {
		return errors.Errorf("txt record must start with %q", dnsChallengePrefix)
	}
	if len(p.TXTRecord) == len(dnsChallengePrefix) {
		return errors.New("txt record carries no verification token")
	}
	return nil
}

// EmailRegistryEvidence is an email address plus a national company registry
// number. It is the registration default and yields tier 3 without expiry.
type EmailRegistryEvidence struct {
	Email          string `json:"email"`
	RegistryNumber string `json:"registry_number"`
}

// Method implements VerificationEvidence
func (e EmailRegistryEvidence) Method() string {
	return model.VerificationMethodEmailRegistry
}

// Validate implements VerificationEvidence
func (e EmailRegistryEvidence) Validate(_ *model.LegalEntity) error {
	at := strings.Index(e.Email, "@")
	if at <= 0 || at == len(e.Email)-1 {
		return errors.Errorf("invalid email address %q", e.Email)
	}
	if len(e.RegistryNumber) < 8 {
		return errors.New("registry number too short")
	}
	for _, r := range e.RegistryNumber {
		if r < '0' || r > '9' {
			return errors.New("registry number must be numeric")
		}
	}
	return nil
}

// TierDecision is the outcome of evaluating verification evidence.
type TierDecision struct {
	Tier              model.Tier
	Method            string
	VerifiedAt        int64
	ReverificationDue *int64
}

// TierEvaluator decides and transitions an entity's authentication tier.
// Upward transitions require an explicit verification event; the only
// automatic transition is the downgrade sweep (see DowngradeSweep).
type TierEvaluator struct {
	entities model.EntityStore
	clock    Clock
}

// NewTierEvaluator creates a TierEvaluator on top of an entity store.
func NewTierEvaluator(entities model.EntityStore, clock Clock) *TierEvaluator {
	return &TierEvaluator{
		entities: entities,
		clock:    clock,
	}
}

// Decide validates the evidence against the entity and computes the
// resulting tier without persisting anything.
func (e *TierEvaluator) Decide(entity *model.LegalEntity, evidence VerificationEvidence) (*TierDecision, error) {
	if evidence == nil {
		return nil, errors.New("verification evidence is required")
	}
	if err := evidence.Validate(entity); err != nil {
		return nil, errors.Wrap(err, "malformed verification evidence")
	}
	now := e.clock.Now()
	decision := &TierDecision{
		Method:     evidence.Method(),
		VerifiedAt: now.Unix(),
	}
	switch evidence.(type) {
	case EHerkenningAssertion:
		decision.Tier = model.Tier1
	case DNSProof:
		due := now.Add(ReverificationWindow).Unix()
		decision.Tier = model.Tier2
		decision.ReverificationDue = &due
	case EmailRegistryEvidence:
		// Email plus registry number never raises an entity above the
		// default; accepting it for a higher-tier entity would be a
		// downgrade, which only the sweep may perform.
		if entity.Tier.Valid() && entity.Tier != model.Tier3 {
			return nil, errors.Errorf(
				"email/registry evidence cannot lower tier %s entity %s", entity.Tier, entity.Domain,
			)
		}
		decision.Tier = model.Tier3
	default:
		return nil, errors.Errorf("unsupported evidence type %T", evidence)
	}
	return decision, nil
}

// Evaluate validates the evidence, computes the tier transition and applies
// it to the stored entity. Malformed evidence leaves the entity unchanged.
func (e *TierEvaluator) Evaluate(entityID string, evidence VerificationEvidence) (*model.LegalEntity, error) {
	entity, err := e.entities.ByID(entityID)
	if err != nil {
		return nil, err
	}
	decision, err := e.Decide(entity, evidence)
	if err != nil {
		return nil, err
	}
	return e.entities.ApplyVerification(
		entity.ID, decision.Tier, decision.Method, decision.VerifiedAt, decision.ReverificationDue,
	)
}
