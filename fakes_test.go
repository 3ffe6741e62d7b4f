package asr

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/json"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"gorm.io/datatypes"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

func testClock(at time.Time) Clock {
	return func() time.Time {
		return at
	}
}

func newTestSigner(t *testing.T) *TokenSigner {
	t.Helper()
	sk, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate test key: %v", err)
	}
	key, err := jwk.Import(sk)
	if err != nil {
		t.Fatalf("failed to import test key: %v", err)
	}
	signer, err := NewTokenSigner(key, jwa.ES256())
	if err != nil {
		t.Fatalf("failed to create test signer: %v", err)
	}
	return signer
}

// fakeEntityStore is an in-memory model.EntityStore.
type fakeEntityStore struct {
	entities map[string]*model.LegalEntity
	// downgradeErr lets tests make Downgrade fail for specific entities.
	downgradeErr map[string]error
}

func newFakeEntityStore(entities ...*model.LegalEntity) *fakeEntityStore {
	s := &fakeEntityStore{
		entities:     make(map[string]*model.LegalEntity),
		downgradeErr: make(map[string]error),
	}
	for _, e := range entities {
		s.entities[e.ID] = e
	}
	return s
}

func (s *fakeEntityStore) Create(entity *model.LegalEntity) error {
	for _, e := range s.entities {
		if e.Domain == entity.Domain {
			return model.AlreadyExistsErrorFmt("entity with domain %s already exists", entity.Domain)
		}
	}
	s.entities[entity.ID] = entity
	return nil
}

func (s *fakeEntityStore) ByID(id string) (*model.LegalEntity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("entity %s not found", id)
	}
	clone := *e
	return &clone, nil
}

func (s *fakeEntityStore) ByDomain(domain string) (*model.LegalEntity, error) {
	for _, e := range s.entities {
		if e.Domain == domain {
			clone := *e
			return &clone, nil
		}
	}
	return nil, model.NotFoundErrorFmt("entity with domain %s not found", domain)
}

func (s *fakeEntityStore) List(_, _ int) ([]model.LegalEntity, error) {
	var out []model.LegalEntity
	for _, e := range s.entities {
		out = append(out, *e)
	}
	return out, nil
}

func (s *fakeEntityStore) ApplyVerification(
	id string, tier model.Tier, method string, verifiedAt int64, due *int64,
) (*model.LegalEntity, error) {
	e, ok := s.entities[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("entity %s not found", id)
	}
	e.Tier = tier
	e.VerificationMethod = method
	e.VerifiedAt = &verifiedAt
	e.ReverificationDue = due
	clone := *e
	return &clone, nil
}

func (s *fakeEntityStore) DueForReverification(now int64) ([]model.LegalEntity, error) {
	var out []model.LegalEntity
	for _, e := range s.entities {
		if e.Tier == model.Tier2 && e.ReverificationDue != nil && *e.ReverificationDue < now {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (s *fakeEntityStore) Downgrade(id string, now int64) (bool, error) {
	if err := s.downgradeErr[id]; err != nil {
		return false, err
	}
	e, ok := s.entities[id]
	if !ok {
		return false, model.NotFoundErrorFmt("entity %s not found", id)
	}
	if e.Tier != model.Tier2 || e.ReverificationDue == nil || *e.ReverificationDue >= now {
		return false, nil
	}
	e.Tier = model.Tier3
	e.ReverificationDue = nil
	return true, nil
}

// fakeTokenStore is an in-memory model.TokenStore.
type fakeTokenStore struct {
	records map[string]*model.IssuedTokenRecord
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{records: make(map[string]*model.IssuedTokenRecord)}
}

func (s *fakeTokenStore) Create(record *model.IssuedTokenRecord) error {
	if _, ok := s.records[record.JTI]; ok {
		return model.AlreadyExistsErrorFmt("token %s already recorded", record.JTI)
	}
	s.records[record.JTI] = record
	return nil
}

func (s *fakeTokenStore) Get(jti string) (*model.IssuedTokenRecord, error) {
	r, ok := s.records[jti]
	if !ok {
		return nil, model.NotFoundErrorFmt("token %s not found", jti)
	}
	clone := *r
	return &clone, nil
}

func (s *fakeTokenStore) List(_, _ int) ([]model.IssuedTokenRecord, error) {
	var out []model.IssuedTokenRecord
	for _, r := range s.records {
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeTokenStore) Revoke(jti, reason string, now int64) error {
	r, ok := s.records[jti]
	if !ok {
		return model.NotFoundErrorFmt("token %s not found", jti)
	}
	if r.Revoked {
		return nil
	}
	r.Revoked = true
	r.RevokedAt = &now
	r.RevocationReason = reason
	return nil
}

func (s *fakeTokenStore) RecordUsage(jti, usedBy string, now int64) error {
	r, ok := s.records[jti]
	if !ok {
		return model.NotFoundErrorFmt("token %s not found", jti)
	}
	r.UsageCount++
	r.LastUsedAt = &now
	r.LastUsedBy = usedBy
	return nil
}

// fakeOrchestrationStore is an in-memory model.OrchestrationStore.
type fakeOrchestrationStore struct {
	nextID         uint
	orchestrations map[uint]*model.Orchestration
	participants   []*model.OrchestrationParticipant
}

func newFakeOrchestrationStore() *fakeOrchestrationStore {
	return &fakeOrchestrationStore{
		nextID:         1,
		orchestrations: make(map[uint]*model.Orchestration),
	}
}

func (s *fakeOrchestrationStore) Create(o *model.Orchestration) error {
	for _, existing := range s.orchestrations {
		if existing.OrderReference == o.OrderReference {
			return model.AlreadyExistsErrorFmt("order reference %s already registered", o.OrderReference)
		}
	}
	o.ID = s.nextID
	s.nextID++
	o.Status = model.StatusActive
	s.orchestrations[o.ID] = o
	return nil
}

func (s *fakeOrchestrationStore) Get(id uint) (*model.Orchestration, error) {
	o, ok := s.orchestrations[id]
	if !ok {
		return nil, model.NotFoundErrorFmt("orchestration %d not found", id)
	}
	clone := *o
	return &clone, nil
}

func (s *fakeOrchestrationStore) ByOrderReference(ref string) (*model.Orchestration, error) {
	for _, o := range s.orchestrations {
		if o.OrderReference == ref {
			clone := *o
			return &clone, nil
		}
	}
	return nil, model.NotFoundErrorFmt("order reference %s not found", ref)
}

func (s *fakeOrchestrationStore) List(_, _ int) ([]model.Orchestration, error) {
	var out []model.Orchestration
	for _, o := range s.orchestrations {
		out = append(out, *o)
	}
	return out, nil
}

func (s *fakeOrchestrationStore) SetStatus(id uint, status model.Status) error {
	o, ok := s.orchestrations[id]
	if !ok {
		return model.NotFoundErrorFmt("orchestration %d not found", id)
	}
	if o.Status.Terminal() {
		return model.TerminalStateErrorFmt("orchestration %d is already %s", id, o.Status)
	}
	o.Status = status
	return nil
}

func (s *fakeOrchestrationStore) AddParticipant(p *model.OrchestrationParticipant) error {
	o, ok := s.orchestrations[p.OrchestrationID]
	if !ok {
		return model.NotFoundErrorFmt("orchestration %d not found", p.OrchestrationID)
	}
	if o.Status.Terminal() {
		return model.TerminalStateErrorFmt("orchestration %d is %s", o.ID, o.Status)
	}
	for _, existing := range s.participants {
		if existing.OrchestrationID == p.OrchestrationID &&
			existing.Domain == p.Domain && existing.Role == p.Role &&
			existing.Status == model.StatusActive {
			return model.AlreadyExistsErrorFmt(
				"%s already holds role %s in orchestration %d", p.Domain, p.Role, p.OrchestrationID,
			)
		}
	}
	p.ID = uint(len(s.participants) + 1)
	p.Status = model.StatusActive
	s.participants = append(s.participants, p)
	return nil
}

func (s *fakeOrchestrationStore) RemoveParticipant(participantID uint) error {
	for _, p := range s.participants {
		if p.ID == participantID {
			p.Status = model.StatusRemoved
			return nil
		}
	}
	return model.NotFoundErrorFmt("participant %d not found", participantID)
}

func (s *fakeOrchestrationStore) Participants(orchestrationID uint) ([]model.OrchestrationParticipant, error) {
	var out []model.OrchestrationParticipant
	for _, p := range s.participants {
		if p.OrchestrationID == orchestrationID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *fakeOrchestrationStore) ActiveParticipant(orchestrationID uint, domain string) (
	*model.OrchestrationParticipant, error,
) {
	for _, p := range s.participants {
		if p.OrchestrationID == orchestrationID && p.Domain == domain && p.Status == model.StatusActive {
			clone := *p
			return &clone, nil
		}
	}
	return nil, model.NotFoundErrorFmt(
		"no active participant %s in orchestration %d", domain, orchestrationID,
	)
}

// fakeValidationLog is an in-memory model.ValidationLogStore.
type fakeValidationLog struct {
	entries []model.ValidationLogEntry
	// appendErr lets tests simulate a persistence failure.
	appendErr error
}

func (s *fakeValidationLog) Append(entry *model.ValidationLogEntry) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeValidationLog) Count() (int64, error) {
	return int64(len(s.entries)), nil
}

func (s *fakeValidationLog) Recent(limit int) ([]model.ValidationLogEntry, error) {
	if limit > len(s.entries) {
		limit = len(s.entries)
	}
	out := make([]model.ValidationLogEntry, limit)
	copy(out, s.entries[len(s.entries)-limit:])
	return out, nil
}

func (s *fakeValidationLog) ForOrchestration(orchestrationID uint) ([]model.ValidationLogEntry, error) {
	var out []model.ValidationLogEntry
	for _, e := range s.entries {
		if e.OrchestrationID != nil && *e.OrchestrationID == orchestrationID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeValidationLog) ForToken(jti string) ([]model.ValidationLogEntry, error) {
	var out []model.ValidationLogEntry
	for _, e := range s.entries {
		if e.TokenJTI == jti {
			out = append(out, e)
		}
	}
	return out, nil
}

// fakeKVStore is an in-memory model.KeyValueStore.
type fakeKVStore struct {
	values map[string]datatypes.JSON
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{values: make(map[string]datatypes.JSON)}
}

func (s *fakeKVStore) Get(scope, key string) (datatypes.JSON, error) {
	return s.values[scope+"\x00"+key], nil
}

func (s *fakeKVStore) GetAs(scope, key string, target any) (bool, error) {
	raw, ok := s.values[scope+"\x00"+key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, target)
}

func (s *fakeKVStore) Set(scope, key string, value datatypes.JSON) error {
	s.values[scope+"\x00"+key] = value
	return nil
}

func (s *fakeKVStore) SetAny(scope, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.Set(scope, key, raw)
}

func (s *fakeKVStore) Delete(scope, key string) error {
	delete(s.values, scope+"\x00"+key)
	return nil
}
