package model

// EntityStore abstracts persistence of legal entities and their tier
// transitions.
type EntityStore interface {
	// Create registers a new entity.
	Create(entity *LegalEntity) error
	// ByID returns an entity by its id.
	ByID(id string) (*LegalEntity, error)
	// ByDomain returns an entity by its domain.
	ByDomain(domain string) (*LegalEntity, error)
	// List returns entities ordered by domain.
	List(offset, limit int) ([]LegalEntity, error)
	// ApplyVerification atomically sets tier, verification metadata and the
	// reverification deadline (nil clears it).
	ApplyVerification(id string, tier Tier, method string, verifiedAt int64, due *int64) (*LegalEntity, error)
	// DueForReverification returns tier-2 entities whose deadline lies
	// before now.
	DueForReverification(now int64) ([]LegalEntity, error)
	// Downgrade atomically moves a tier-2 entity past its deadline to tier 3
	// and clears the deadline. It reports whether a transition happened;
	// re-running it on an already-downgraded entity is a no-op.
	Downgrade(id string, now int64) (bool, error)
}

// TokenStore abstracts persistence of issued-token audit records.
type TokenStore interface {
	// Create persists the issuance record of a freshly minted token.
	Create(record *IssuedTokenRecord) error
	// Get returns the record for a token id.
	Get(jti string) (*IssuedTokenRecord, error)
	// List returns records ordered by issuance time, newest first.
	List(offset, limit int) ([]IssuedTokenRecord, error)
	// Revoke marks the token revoked. Revoking an already-revoked token is a
	// no-op; the flag is never cleared.
	Revoke(jti, reason string, now int64) error
	// RecordUsage atomically increments the usage counter and updates the
	// last-used fields.
	RecordUsage(jti, usedBy string, now int64) error
}

// OrchestrationStore abstracts persistence of orchestrations and their
// participants.
type OrchestrationStore interface {
	// Create registers a new orchestration with status active.
	Create(orchestration *Orchestration) error
	// Get returns an orchestration by id.
	Get(id uint) (*Orchestration, error)
	// ByOrderReference returns an orchestration by its order reference.
	ByOrderReference(ref string) (*Orchestration, error)
	// List returns orchestrations, newest first.
	List(offset, limit int) ([]Orchestration, error)
	// SetStatus transitions an active orchestration to completed or
	// cancelled. Transitions out of a terminal status are rejected.
	SetStatus(id uint, status Status) error
	// AddParticipant registers a participant. A second active participant
	// for the same (orchestration, domain, role) triple yields an
	// AlreadyExistsError; participants cannot be added to terminal
	// orchestrations.
	AddParticipant(participant *OrchestrationParticipant) error
	// RemoveParticipant flips a participant to removed, keeping the row.
	RemoveParticipant(participantID uint) error
	// Participants returns all participants of an orchestration.
	Participants(orchestrationID uint) ([]OrchestrationParticipant, error)
	// ActiveParticipant returns the active participant with the given domain
	// within an orchestration, if any.
	ActiveParticipant(orchestrationID uint, domain string) (*OrchestrationParticipant, error)
}

// ValidationLogStore abstracts the append-only validation audit log.
type ValidationLogStore interface {
	// Append writes one log entry. Entries are never mutated afterwards.
	Append(entry *ValidationLogEntry) error
	// Count returns the total number of entries.
	Count() (int64, error)
	// Recent returns the most recent entries, newest first.
	Recent(limit int) ([]ValidationLogEntry, error)
	// ForOrchestration returns entries referencing an orchestration.
	ForOrchestration(orchestrationID uint) ([]ValidationLogEntry, error)
	// ForToken returns entries referencing a token id.
	ForToken(jti string) ([]ValidationLogEntry, error)
}

// SystemsStore abstracts persistence of external systems.
type SystemsStore interface {
	// Create registers a system and returns the generated API key. Only the
	// key's hash is stored; the cleartext is shown exactly once.
	Create(system *ExternalSystem) (apiKey string, err error)
	// ByDomain returns a system by domain.
	ByDomain(domain string) (*ExternalSystem, error)
	// Authenticate returns the system matching the presented API key.
	Authenticate(apiKey string) (*ExternalSystem, error)
	// List returns all systems.
	List() ([]ExternalSystem, error)
	// SetApproval flips the approved flag.
	SetApproval(domain string, approved bool) error
	// SetActive flips the active flag.
	SetActive(domain string, active bool) error
	// Delete soft-deletes a system.
	Delete(domain string) error
}

// Backends groups all storage interfaces used by the application.
// It provides a single struct that can be passed around instead of
// multiple return values for each storage backend.
type Backends struct {
	Entities       EntityStore
	Tokens         TokenStore
	Orchestrations OrchestrationStore
	ValidationLog  ValidationLogStore
	Systems        SystemsStore
	Users          UsersStore
	KV             KeyValueStore
}
