package asr

import (
	log "github.com/sirupsen/logrus"

	"github.com/DeNoronha/ctn-asr-demo-sub015/storage/model"
)

// SweepReport summarizes one downgrade sweep run.
type SweepReport struct {
	Checked    int `json:"checked"`
	Downgraded int `json:"downgraded"`
	Failed     int `json:"failed"`
}

// DowngradeSweep periodically demotes tier-2 entities whose reverification
// deadline has passed without a fresh DNS proof. It is the only automatic
// tier transition.
type DowngradeSweep struct {
	entities model.EntityStore
	clock    Clock
}

// NewDowngradeSweep creates a DowngradeSweep on top of an entity store.
func NewDowngradeSweep(entities model.EntityStore, clock Clock) *DowngradeSweep {
	return &DowngradeSweep{
		entities: entities,
		clock:    clock,
	}
}

// Run processes all due entities once. Entities are handled independently:
// a failure on one is logged and counted but never aborts the rest. The
// store-level downgrade re-checks the deadline, so re-running the sweep
// with no new evidence produces the same end state.
func (s *DowngradeSweep) Run() SweepReport {
	now := s.clock.Now().Unix()
	var report SweepReport
	due, err := s.entities.DueForReverification(now)
	if err != nil {
		log.WithError(err).Error("downgrade sweep could not list due entities")
		report.Failed++
		return report
	}
	for _, entity := range due {
		report.Checked++
		changed, err := s.entities.Downgrade(entity.ID, now)
		if err != nil {
			report.Failed++
			log.WithError(err).WithField("entity", entity.Domain).Error("downgrade failed")
			continue
		}
		if changed {
			report.Downgraded++
			log.WithFields(
				log.Fields{
					"entity": entity.Domain,
					"tier":   model.Tier3,
				},
			).Info("entity downgraded after missed reverification")
		}
	}
	return report
}
