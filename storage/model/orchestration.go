package model

import (
	"regexp"

	"gorm.io/gorm"

	"github.com/pkg/errors"
)

// businessKeyPattern is the key namespace of the BusinessKeys map: lowercase
// snake_case identifiers such as "bill_of_lading" or "container_number".
var businessKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,62}[a-z0-9]$`)

// ValidateBusinessKeys checks every key against the documented namespace and
// rejects empty values.
func ValidateBusinessKeys(keys map[string]string) error {
	for key, value := range keys {
		if !businessKeyPattern.MatchString(key) {
			return errors.Errorf("business key %q is not a lowercase snake_case identifier", key)
		}
		if value == "" {
			return errors.Errorf("business key %q has an empty value", key)
		}
	}
	return nil
}

// Orchestration represents one multi-party business transaction, e.g. a
// shipment. Orchestrations are never physically deleted; terminal statuses
// (completed, cancelled) freeze the participant list.
type Orchestration struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// OrderReference is the orchestrating system's internal order identifier.
	OrderReference string `gorm:"uniqueIndex" json:"order_reference"`

	OrchestratorDomain string `gorm:"index" json:"orchestrator_domain"`
	OrchestratorName   string `json:"orchestrator_name"`
	CustomerDomain     string `json:"customer_domain"`
	CustomerName       string `json:"customer_name"`

	// BusinessKeys holds business identifiers for the transaction, e.g.
	// "bill_of_lading" -> value. Keys follow the namespace checked by
	// ValidateBusinessKeys; the API boundary rejects anything else.
	BusinessKeys map[string]string `gorm:"serializer:json" json:"business_keys"`

	Status Status `gorm:"index" json:"status"`
	Type   string `json:"type"`
}

// OrchestrationParticipant is one entity's declared role within one
// orchestration. Removal flips the status; the row is retained for audit.
type OrchestrationParticipant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	OrchestrationID uint          `gorm:"uniqueIndex:uq_active_participant" json:"orchestration_id"`
	Orchestration   Orchestration `json:"-"`

	Domain string `gorm:"uniqueIndex:uq_active_participant" json:"domain"`
	Name   string `json:"name"`
	// Role is a free-text role label, e.g. "Carrier".
	Role string `gorm:"uniqueIndex:uq_active_participant" json:"role"`

	AuthorizedBy string `json:"authorized_by"`
	AuthorizedAt int64  `json:"authorized_at"`

	Status Status `gorm:"index" json:"status"`

	// ActiveKey is non-NULL only while the participant is active. It is the
	// fourth column of the unique index over (orchestration, domain, role):
	// NULLs never collide, so historical removed rows do not block a
	// re-registration, while two concurrent active registrations cannot both
	// commit.
	ActiveKey *bool `gorm:"uniqueIndex:uq_active_participant" json:"-"`
}
