package main

import (
	"testing"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

type recordingEntityStore struct {
	created  []*model.LegalEntity
	verified map[string]string
}

func (s *recordingEntityStore) Create(entity *model.LegalEntity) error {
	s.created = append(s.created, entity)
	return nil
}

func (s *recordingEntityStore) ByID(string) (*model.LegalEntity, error) {
	return nil, model.NotFoundErrorFmt("not implemented")
}

func (s *recordingEntityStore) ByDomain(string) (*model.LegalEntity, error) {
	return nil, model.NotFoundErrorFmt("not implemented")
}

func (s *recordingEntityStore) List(int, int) ([]model.LegalEntity, error) {
	return nil, nil
}

func (s *recordingEntityStore) ApplyVerification(
	id string, _ model.Tier, method string, _ int64, _ *int64,
) (*model.LegalEntity, error) {
	if s.verified == nil {
		s.verified = make(map[string]string)
	}
	s.verified[id] = method
	return &model.LegalEntity{ID: id}, nil
}

func (s *recordingEntityStore) DueForReverification(int64) ([]model.LegalEntity, error) {
	return nil, nil
}

func (s *recordingEntityStore) Downgrade(string, int64) (bool, error) {
	return false, nil
}

type recordingOrchestrationStore struct {
	nextID       uint
	participants []*model.OrchestrationParticipant
	statuses     map[uint]model.Status
}

func (s *recordingOrchestrationStore) Create(o *model.Orchestration) error {
	s.nextID++
	o.ID = s.nextID
	return nil
}

func (s *recordingOrchestrationStore) Get(uint) (*model.Orchestration, error) {
	return nil, model.NotFoundErrorFmt("not implemented")
}

func (s *recordingOrchestrationStore) ByOrderReference(string) (*model.Orchestration, error) {
	return nil, model.NotFoundErrorFmt("not implemented")
}

func (s *recordingOrchestrationStore) List(int, int) ([]model.Orchestration, error) {
	return nil, nil
}

func (s *recordingOrchestrationStore) SetStatus(id uint, status model.Status) error {
	if s.statuses == nil {
		s.statuses = make(map[uint]model.Status)
	}
	s.statuses[id] = status
	return nil
}

func (s *recordingOrchestrationStore) AddParticipant(p *model.OrchestrationParticipant) error {
	for _, existing := range s.participants {
		if existing.OrchestrationID == p.OrchestrationID &&
			existing.Domain == p.Domain && existing.Role == p.Role {
			return model.AlreadyExistsErrorFmt("duplicate participant")
		}
	}
	s.participants = append(s.participants, p)
	return nil
}

func (s *recordingOrchestrationStore) RemoveParticipant(uint) error { return nil }

func (s *recordingOrchestrationStore) Participants(uint) ([]model.OrchestrationParticipant, error) {
	return nil, nil
}

func (s *recordingOrchestrationStore) ActiveParticipant(uint, string) (*model.OrchestrationParticipant, error) {
	return nil, model.NotFoundErrorFmt("not implemented")
}

func TestMigrateEntitiesSkipsUnknownMethods(t *testing.T) {
	store := &recordingEntityStore{}
	records := []legacyEntity{
		{ID: "e1", Domain: "carrier.example.com", Tier: 2, VerificationMethod: "dns", VerifiedAt: 100},
		{ID: "e2", Domain: "broker.example.com", Tier: 1, VerificationMethod: "kvk_extract", VerifiedAt: 100},
		{ID: "e3", Domain: "shipper.example.com", Tier: 9},
	}
	if err := migrateEntities(records, store); err != nil {
		t.Fatal(err)
	}
	if len(store.created) != 3 {
		t.Fatalf("expected 3 created entities, got %d", len(store.created))
	}
	if store.created[2].Tier != model.Tier3 {
		t.Errorf("an out-of-range tier falls back to tier 3, got %d", store.created[2].Tier)
	}
	if store.verified["e1"] != "dns" {
		t.Error("known verification method must carry over")
	}
	if _, ok := store.verified["e2"]; ok {
		t.Error("unknown verification method must not carry over")
	}
}

func TestMigrateOrchestrationsDeduplicatesParticipants(t *testing.T) {
	store := &recordingOrchestrationStore{}
	records := []legacyOrchestration{
		{
			OrderReference: "ORD-LEGACY-1",
			Status:         "completed",
			Participants: []legacyParticipant{
				{Domain: "carrier.example.com", Role: "Carrier", AuthorizedAt: 1700000000},
				{Domain: "carrier.example.com", Role: "Carrier", AuthorizedAt: 1700000500},
				{Domain: "gone.example.com", Role: "Forwarder", Removed: true},
			},
		},
	}
	if err := migrateOrchestrations(records, store); err != nil {
		t.Fatal(err)
	}
	if len(store.participants) != 1 {
		t.Fatalf("expected 1 migrated participant, got %d", len(store.participants))
	}
	p := store.participants[0]
	if p.AuthorizedAt != 1700000000 {
		t.Errorf("the first legacy authorization wins, got %d", p.AuthorizedAt)
	}
	if store.statuses[1] != model.StatusCompleted {
		t.Error("terminal legacy status must be applied")
	}
}
