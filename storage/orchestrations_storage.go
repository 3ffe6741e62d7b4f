package storage

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// OrchestrationsStorage implements model.OrchestrationStore using GORM
type OrchestrationsStorage struct {
	db *gorm.DB
}

// Create registers a new orchestration with status active
func (s *OrchestrationsStorage) Create(orchestration *model.Orchestration) error {
	orchestration.Status = model.StatusActive
	if err := s.db.Create(orchestration).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return model.AlreadyExistsErrorFmt(
				"orchestration already registered: %s", orchestration.OrderReference,
			)
		}
		return err
	}
	return nil
}

// Get returns an orchestration by id
func (s *OrchestrationsStorage) Get(id uint) (*model.Orchestration, error) {
	var o model.Orchestration
	if err := s.db.Where("id = ?", id).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("orchestration not found: %d", id)
		}
		return nil, err
	}
	return &o, nil
}

// ByOrderReference returns an orchestration by its order reference
func (s *OrchestrationsStorage) ByOrderReference(ref string) (*model.Orchestration, error) {
	var o model.Orchestration
	if err := s.db.Where("order_reference = ?", ref).First(&o).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt("orchestration not found: %s", ref)
		}
		return nil, err
	}
	return &o, nil
}

// List returns orchestrations, newest first
func (s *OrchestrationsStorage) List(offset, limit int) ([]model.Orchestration, error) {
	var orchestrations []model.Orchestration
	q := s.db.Model(&model.Orchestration{}).Order("id DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&orchestrations).Error; err != nil {
		return nil, err
	}
	return orchestrations, nil
}

// SetStatus transitions an active orchestration to completed or cancelled.
// Both target statuses are terminal.
func (s *OrchestrationsStorage) SetStatus(id uint, status model.Status) error {
	if !status.Terminal() {
		return errors.New("orchestrations can only transition to completed or cancelled")
	}
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var o model.Orchestration
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", id).First(&o).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("orchestration not found: %d", id)
				}
				return err
			}
			if o.Status.Terminal() {
				return model.TerminalStateErrorFmt(
					"orchestration %d is already %s", id, o.Status,
				)
			}
			o.Status = status
			return tx.Save(&o).Error
		},
	)
}

// AddParticipant registers a participant. The unique index over
// (orchestration, domain, role, active_key) makes exactly one of several
// concurrent registrations of the same triple succeed.
func (s *OrchestrationsStorage) AddParticipant(participant *model.OrchestrationParticipant) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var o model.Orchestration
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", participant.OrchestrationID).First(&o).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("orchestration not found: %d", participant.OrchestrationID)
				}
				return err
			}
			if o.Status.Terminal() {
				return model.TerminalStateErrorFmt(
					"orchestration %d is %s and accepts no participant changes", o.ID, o.Status,
				)
			}
			participant.Status = model.StatusActive
			active := true
			participant.ActiveKey = &active
			if err := tx.Create(participant).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return model.AlreadyExistsErrorFmt(
						"participant %s already holds role %q in orchestration %d",
						participant.Domain, participant.Role, participant.OrchestrationID,
					)
				}
				return err
			}
			return nil
		},
	)
}

// RemoveParticipant flips a participant to removed; the row is retained for
// audit and its slot in the unique active index is freed.
func (s *OrchestrationsStorage) RemoveParticipant(participantID uint) error {
	return s.db.Transaction(
		func(tx *gorm.DB) error {
			var p model.OrchestrationParticipant
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("id = ?", participantID).First(&p).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return model.NotFoundErrorFmt("participant not found: %d", participantID)
				}
				return err
			}
			var o model.Orchestration
			if err := tx.Where("id = ?", p.OrchestrationID).First(&o).Error; err != nil {
				return err
			}
			if o.Status.Terminal() {
				return model.TerminalStateErrorFmt(
					"orchestration %d is %s and accepts no participant changes", o.ID, o.Status,
				)
			}
			p.Status = model.StatusRemoved
			p.ActiveKey = nil
			return tx.Save(&p).Error
		},
	)
}

// Participants returns all participants of an orchestration
func (s *OrchestrationsStorage) Participants(orchestrationID uint) ([]model.OrchestrationParticipant, error) {
	var participants []model.OrchestrationParticipant
	if err := s.db.Where("orchestration_id = ?", orchestrationID).
		Order("id").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// ActiveParticipant returns the active participant with the given domain
// within an orchestration, if any
func (s *OrchestrationsStorage) ActiveParticipant(
	orchestrationID uint, domain string,
) (*model.OrchestrationParticipant, error) {
	var p model.OrchestrationParticipant
	if err := s.db.Where(
		"orchestration_id = ? AND domain = ? AND status = ?",
		orchestrationID, domain, model.StatusActive,
	).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.NotFoundErrorFmt(
				"no active participant %s in orchestration %d", domain, orchestrationID,
			)
		}
		return nil, err
	}
	return &p, nil
}
