package config

import (
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/pkg/errors"
)

// SigningConf configures the registry's token signing key.
type SigningConf struct {
	Alg       string                 `yaml:"alg"`
	Algorithm jwa.SignatureAlgorithm `yaml:"-"`
	RSAKeyLen int                    `yaml:"rsa_key_len"`
	// KeyFile is the PEM file holding the signing key. When
	// AutoGenerateKeys is set and the file does not exist, a fresh key is
	// generated and written there.
	KeyFile          string `yaml:"key_file"`
	AutoGenerateKeys bool   `yaml:"auto_generate_keys"`
}

var defaultSigningConf = SigningConf{
	Alg:              "ES512",
	RSAKeyLen:        2048,
	AutoGenerateKeys: true,
}

func (c *SigningConf) validate() error {
	var ok bool
	c.Algorithm, ok = jwa.LookupSignatureAlgorithm(c.Alg)
	if !ok {
		return errors.New("error in signing conf: unknown algorithm " + c.Alg)
	}
	if c.KeyFile == "" {
		return errors.New("error in signing conf: key_file must be specified")
	}
	if c.RSAKeyLen < 2048 {
		return errors.Errorf("error in signing conf: rsa_key_len %d is too short", c.RSAKeyLen)
	}
	return nil
}
