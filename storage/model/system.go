package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Operation is an API capability that can be granted to an external system.
type Operation string

// Constants for Operation
const (
	OperationIssue    Operation = "issue"
	OperationValidate Operation = "validate"
	OperationLookup   Operation = "lookup"
)

// Valid reports whether the operation is one of the defined constants.
func (o Operation) Valid() bool {
	switch o {
	case OperationIssue, OperationValidate, OperationLookup:
		return true
	default:
		return false
	}
}

// ValidateOperations checks that every operation in the slice is defined.
func ValidateOperations(ops []Operation) error {
	for _, o := range ops {
		if !o.Valid() {
			return fmt.Errorf("invalid operation: %s", o)
		}
	}
	return nil
}

// ExternalSystem is a registered caller authorized to request tokens or
// validations. Systems authenticate with an API key; only the key's SHA-256
// hash is stored.
type ExternalSystem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Domain string `gorm:"uniqueIndex" json:"domain"`
	Name   string `json:"name"`

	Operations []Operation `gorm:"serializer:json" json:"operations"`

	// AllowedAudiences restricts the audiences the system may request on
	// issued tokens. Empty means no restriction.
	AllowedAudiences []string `gorm:"serializer:json" json:"allowed_audiences,omitempty"`

	// RateCeiling is the number of issuance requests allowed per hour.
	// Zero means the policy default applies.
	RateCeiling int `json:"rate_ceiling"`

	Active   bool `json:"active"`
	Approved bool `json:"approved"`

	APIKeyHash string `gorm:"uniqueIndex" json:"-"`
}

// MayPerform reports whether the system is approved, active and granted the
// operation.
func (s *ExternalSystem) MayPerform(op Operation) bool {
	if !s.Active || !s.Approved {
		return false
	}
	for _, o := range s.Operations {
		if o == op {
			return true
		}
	}
	return false
}
