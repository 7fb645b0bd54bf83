package provider

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// Signer produces the detached signature the bank network expects on every request.
type Signer interface {
	Sign(payload []byte) (string, error)
}

// RSASigner signs with RSA PKCS#1 v1.5 over SHA-256 and base64-encodes the result.
type RSASigner struct {
	key *rsa.PrivateKey
}

func NewRSASigner(key *rsa.PrivateKey) *RSASigner {
	return &RSASigner{key: key}
}

// LoadRSASigner reads a PEM private key in PKCS#1 or PKCS#8 form.
func LoadRSASigner(path string) (*RSASigner, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("private key is not PEM encoded")
	}

	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return NewRSASigner(key), nil
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return NewRSASigner(key), nil
}

func (s *RSASigner) Sign(payload []byte) (string, error) {
	digest := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, s.key, crypto.SHA256, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// ErrSigningKeyMissing is returned by MissingKeySigner; ACH requests fail as provider errors
// instead of being sent unsigned.
var ErrSigningKeyMissing = errors.New("ach signing key not configured")

type MissingKeySigner struct{}

func (MissingKeySigner) Sign([]byte) (string, error) {
	return "", ErrSigningKeyMissing
}
