package main

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"

	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/pkg/errors"

	asr "github.com/DeNoronha/ctn-asr-demo-sub015"
	"github.com/DeNoronha/ctn-asr-demo-sub015/cmd/asr/config"
)

// initSigner loads the signing key from the configured PEM file, generating
// one first if allowed and none exists yet.
func initSigner(c config.SigningConf) (*asr.TokenSigner, error) {
	raw, err := os.ReadFile(c.KeyFile)
	if err != nil {
		if !os.IsNotExist(err) || !c.AutoGenerateKeys {
			return nil, errors.Wrap(err, "could not read signing key file")
		}
		if raw, err = generateKeyFile(c); err != nil {
			return nil, err
		}
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("signing key file does not contain PEM data")
	}
	sk, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, errors.Wrap(err, "could not parse signing key")
	}
	key, err := jwk.Import(sk)
	if err != nil {
		return nil, errors.Wrap(err, "could not import signing key")
	}
	return asr.NewTokenSigner(key, c.Algorithm)
}

func generateKeyFile(c config.SigningConf) ([]byte, error) {
	sk, err := generateKey(c)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKCS8PrivateKey(sk)
	if err != nil {
		return nil, errors.Wrap(err, "could not marshal generated key")
	}
	data := pem.EncodeToMemory(
		&pem.Block{
			Type:  "PRIVATE KEY",
			Bytes: der,
		},
	)
	if err = os.WriteFile(c.KeyFile, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "could not write generated key file")
	}
	return data, nil
}

func generateKey(c config.SigningConf) (crypto.PrivateKey, error) {
	switch c.Algorithm {
	case jwa.ES256():
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	case jwa.ES384():
		return ecdsa.GenerateKey(elliptic.P384(), rand.Reader)
	case jwa.ES512():
		return ecdsa.GenerateKey(elliptic.P521(), rand.Reader)
	case jwa.RS256(), jwa.RS384(), jwa.RS512(), jwa.PS256(), jwa.PS384(), jwa.PS512():
		return rsa.GenerateKey(rand.Reader, c.RSAKeyLen)
	case jwa.EdDSA():
		_, sk, err := ed25519.GenerateKey(rand.Reader)
		return sk, err
	default:
		return nil, errors.Errorf("cannot generate a key for algorithm %s", c.Algorithm)
	}
}
