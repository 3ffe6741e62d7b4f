package model

import (
	"fmt"

	"gorm.io/gorm"
)

// Tier classifies the authentication strength of a legal entity.
// Tier 1 is the strongest, tier 3 the weakest and the default for new
// registrations.
type Tier int

// Constants for Tier
const (
	// Tier1 means the entity was verified through the national eID scheme
	// (eHerkenning). It does not expire.
	Tier1 Tier = iota + 1
	// Tier2 means the entity proved domain ownership through a DNS TXT
	// record. The proof expires 90 days after verification and must be
	// renewed.
	Tier2
	// Tier3 means the entity registered with an email address and a company
	// registry number. It does not expire but carries the lowest trust
	// weight.
	Tier3
)

// Valid reports whether the tier is one of the defined constants.
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier3
}

// String returns the numeric string representation of the tier.
func (t Tier) String() string {
	return fmt.Sprintf("%d", int(t))
}

// Verification methods as stored on a LegalEntity.
const (
	VerificationMethodEHerkenning   = "eherkenning"
	VerificationMethodDNS           = "dns"
	VerificationMethodEmailRegistry = "email_registry"
)

// LegalEntity represents a registered organization in the database.
// Entities are never hard-deleted; gorm's soft delete keeps the row.
type LegalEntity struct {
	ID        string         `gorm:"primaryKey" json:"id"`
	CreatedAt int            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int            `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Domain is the entity's primary domain and the subject of all tokens
	// issued for it.
	Domain string `gorm:"uniqueIndex" json:"domain"`
	Name   string `json:"name"`

	Tier               Tier   `gorm:"index" json:"tier"`
	VerificationMethod string `json:"verification_method"`
	// RegistryNumber is the national company registry number supplied as
	// tier-3 evidence.
	RegistryNumber string `json:"registry_number,omitempty"`

	// VerifiedAt is the unix timestamp of the last successful verification.
	VerifiedAt *int64 `json:"verified_at,omitempty"`
	// ReverificationDue is set for tier-2 entities only: the unix timestamp
	// after which the DNS proof counts as stale.
	ReverificationDue *int64 `gorm:"index" json:"reverification_due,omitempty"`
}
