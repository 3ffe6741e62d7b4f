package model

// TokenKind distinguishes the two classes of tokens this registry issues.
type TokenKind string

// Constants for TokenKind
const (
	// TokenKindAssurance asserts whether an entity can be trusted at all.
	TokenKindAssurance TokenKind = "assurance"
	// TokenKindOrchestration asserts that an entity participates in a
	// specific orchestration.
	TokenKindOrchestration TokenKind = "orchestration"
)

// IssuedTokenRecord is the immutable audit record of a minted token.
// Only the SHA-256 hash of the signed token is stored, never the token
// itself. The record is retained indefinitely; the only permitted mutations
// are usage-counter increments and revocation, and a revocation is permanent.
type IssuedTokenRecord struct {
	JTI       string `gorm:"primaryKey" json:"jti"`
	CreatedAt int    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int    `gorm:"autoUpdateTime" json:"updated_at"`

	Kind     TokenKind `gorm:"index" json:"kind"`
	Issuer   string    `json:"issuer"`
	Subject  string    `gorm:"index" json:"subject"`
	Audience []string  `gorm:"serializer:json" json:"audience"`

	// OrchestrationID is set for orchestration tokens only.
	OrchestrationID *uint `gorm:"index" json:"orchestration_id,omitempty"`

	IssuedAt  int64 `json:"issued_at"`
	NotBefore int64 `json:"not_before"`
	ExpiresAt int64 `gorm:"index" json:"expires_at"`

	// TokenHash is the hex-encoded SHA-256 of the compact JWS.
	TokenHash string `gorm:"uniqueIndex" json:"token_hash"`
	// Claims is the full claim set at mint time.
	Claims map[string]any `gorm:"serializer:json" json:"claims"`

	UsageCount int64  `json:"usage_count"`
	LastUsedAt *int64 `json:"last_used_at,omitempty"`
	LastUsedBy string `json:"last_used_by,omitempty"`

	Revoked          bool   `gorm:"index" json:"revoked"`
	RevokedAt        *int64 `json:"revoked_at,omitempty"`
	RevocationReason string `gorm:"type:text" json:"revocation_reason,omitempty"`
}
