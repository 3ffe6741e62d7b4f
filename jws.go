package asr

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jws"
	"github.com/lestrrat-go/jwx/v3/jwt"
	"github.com/pkg/errors"
)

// TokenSigner signs and verifies the registry's claims tokens with a single
// signing key.
type TokenSigner struct {
	alg    jwa.SignatureAlgorithm
	key    jwk.Key
	public jwk.Key
}

// NewTokenSigner creates a TokenSigner from a private signing key.
func NewTokenSigner(key jwk.Key, alg jwa.SignatureAlgorithm) (*TokenSigner, error) {
	if key == nil {
		return nil, errors.New("signing key is required")
	}
	if _, ok := key.KeyID(); !ok {
		if err := jwk.AssignKeyID(key); err != nil {
			return nil, errors.Wrap(err, "could not assign key id")
		}
	}
	public, err := jwk.PublicKeyOf(key)
	if err != nil {
		return nil, errors.Wrap(err, "could not derive public key")
	}
	return &TokenSigner{
		alg:    alg,
		key:    key,
		public: public,
	}, nil
}

// Alg returns the signature algorithm of the signer.
func (s *TokenSigner) Alg() jwa.SignatureAlgorithm {
	return s.alg
}

// Sign serializes and signs the passed token, returning the compact JWS.
func (s *TokenSigner) Sign(token jwt.Token) ([]byte, error) {
	return jwt.Sign(token, jwt.WithKey(s.alg, s.key))
}

// Verify checks the signature of a compact JWS against the signer's public
// key.
func (s *TokenSigner) Verify(raw []byte) error {
	_, err := jws.Verify(raw, jws.WithKey(s.alg, s.public))
	return err
}

// JWKS returns the public key set published to token verifiers.
func (s *TokenSigner) JWKS() (jwk.Set, error) {
	set := jwk.NewSet()
	if err := set.AddKey(s.public); err != nil {
		return nil, err
	}
	return set, nil
}

// TokenHash returns the hex-encoded SHA-256 of a compact JWS. Issuance
// records store this hash instead of the token itself.
func TokenHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}
