package cryptox

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const wrapKeyBits = 2048

// GenerateWrapKeyPair returns a fresh RSA-2048 key pair used as the
// key-wrapping target for a user.
func GenerateWrapKeyPair() (*rsa.PrivateKey, error) {
	return rsa.GenerateKey(rand.Reader, wrapKeyBits)
}

// GenerateSignKeyPair returns a fresh ECDSA P-256 key pair used for
// content signatures.
func GenerateSignKeyPair() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
}

// EncodePublicKeyPEM serializes an RSA or ECDSA public key as a PKIX
// "PUBLIC KEY" PEM block.
func EncodePublicKeyPEM(pub any) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// EncodePrivateKeyPEM serializes an RSA or ECDSA private key as a PKCS#8
// "PRIVATE KEY" PEM block.
func EncodePrivateKeyPEM(priv any) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
}

// ParseRSAPublicKeyPEM parses a PKIX PEM block and requires an RSA key.
func ParseRSAPublicKeyPEM(data []byte) (*rsa.PublicKey, error) {
	pub, err := parsePublicKeyPEM(data)
	if err != nil {
		return nil, err
	}
	key, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}

// ParseECDSAPublicKeyPEM parses a PKIX PEM block and requires an ECDSA key.
func ParseECDSAPublicKeyPEM(data []byte) (*ecdsa.PublicKey, error) {
	pub, err := parsePublicKeyPEM(data)
	if err != nil {
		return nil, err
	}
	key, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return nil, errors.New("not an ECDSA public key")
	}
	return key, nil
}

// ParseRSAPrivateKeyPEM parses a PKCS#8 PEM block and requires an RSA key.
func ParseRSAPrivateKeyPEM(data []byte) (*rsa.PrivateKey, error) {
	priv, err := parsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

// ParseECDSAPrivateKeyPEM parses a PKCS#8 PEM block and requires an ECDSA key.
func ParseECDSAPrivateKeyPEM(data []byte) (*ecdsa.PrivateKey, error) {
	priv, err := parsePrivateKeyPEM(data)
	if err != nil {
		return nil, err
	}
	key, ok := priv.(*ecdsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an ECDSA private key")
	}
	return key, nil
}

func parsePublicKeyPEM(data []byte) (any, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode public key PEM")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	return pub, nil
}

func parsePrivateKeyPEM(data []byte) (any, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, errors.New("failed to decode private key PEM")
	}
	priv, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return priv, nil
}
