package model

// ValidationResult is the outcome taxonomy of an orchestration-token
// validation attempt.
type ValidationResult string

// Constants for ValidationResult
const (
	ResultValid            ValidationResult = "valid"
	ResultInvalid          ValidationResult = "invalid"
	ResultExpired          ValidationResult = "expired"
	ResultRevoked          ValidationResult = "revoked"
	ResultNotFound         ValidationResult = "not_found"
	ResultSignatureInvalid ValidationResult = "signature_invalid"
)

// Valid reports whether the result is part of the taxonomy.
func (r ValidationResult) Valid() bool {
	switch r {
	case ResultValid, ResultInvalid, ResultExpired, ResultRevoked, ResultNotFound, ResultSignatureInvalid:
		return true
	default:
		return false
	}
}

// ValidationLogEntry records one orchestration-token validation attempt.
// Entries are append-only and never mutated after creation; every attempt,
// successful or not, produces exactly one entry.
type ValidationLogEntry struct {
	ID        uint `gorm:"primarykey" json:"id"`
	CreatedAt int  `gorm:"autoCreateTime" json:"created_at"`

	// OrchestrationID is nil when the presented token was too malformed to
	// name one.
	OrchestrationID *uint `gorm:"index" json:"orchestration_id,omitempty"`

	TokenJTI     string `gorm:"index" json:"token_jti,omitempty"`
	TokenIssuer  string `json:"token_issuer,omitempty"`
	TokenSubject string `json:"token_subject,omitempty"`

	Requester string `gorm:"index" json:"requester"`
	// RequesterCountry is filled from the GeoIP database when one is
	// configured.
	RequesterCountry string `json:"requester_country,omitempty"`
	CheckedAt        int64  `json:"checked_at"`

	Result ValidationResult `gorm:"index" json:"result"`
	Reason string           `gorm:"type:text" json:"reason"`

	// MemberFound reports whether the token subject was found among the
	// orchestration's active participants. This is the core business check,
	// distinct from cryptographic validity.
	MemberFound bool   `json:"member_found_in_orchestration"`
	MemberRole  string `json:"member_role,omitempty"`

	SignatureValid bool `json:"signature_valid"`
	Expired        bool `json:"expired"`

	// DurationMS is the wall-clock duration of the whole check in
	// milliseconds.
	DurationMS int64 `json:"duration_ms"`
}
