package licensor

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

// PEM block types understood by the key helpers.
const (
	pemPKCS8PrivateKey = "PRIVATE KEY"
	pemPKCS1PrivateKey = "RSA PRIVATE KEY"
	pemECPrivateKey    = "EC PRIVATE KEY"
	pemPKIXPublicKey   = "PUBLIC KEY"
	pemPKCS1PublicKey  = "RSA PUBLIC KEY"
	pemCertificate     = "CERTIFICATE"
)

var errNoPEMKey = errors.New("no usable key found in PEM data")

// ParsePrivateKeyPEM returns the first private key found in pemBytes.
// PKCS#8, PKCS#1 (RSA) and SEC 1 (EC) containers are supported.
func ParsePrivateKeyPEM(pemBytes []byte) (crypto.PrivateKey, error) {
	for len(pemBytes) > 0 {
		block, rest := pem.Decode(pemBytes)
		if block == nil {
			break
		}
		switch block.Type {
		case pemPKCS8PrivateKey:
			k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PKCS#8 private key: %w", err)
			}
			return k, nil
		case pemPKCS1PrivateKey:
			k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse PKCS#1 private key: %w", err)
			}
			return k, nil
		case pemECPrivateKey:
			k, err := x509.ParseECPrivateKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("parse EC private key: %w", err)
			}
			return k, nil
		}
		pemBytes = rest
	}
	return nil, errNoPEMKey
}

// ParsePublicKeyPEM returns the first public key found in pemBytes. PKIX,
// PKCS#1 (RSA) and X.509 certificates are supported.
func ParsePublicKeyPEM(pemBytes []byte) (crypto.PublicKey, error) {
	for len(pemBytes) > 0 {
		block, rest := pem.Decode(pemBytes)
		if block == nil {
			break
		}
		switch block.Type {
		case pemPKIXPublicKey:
			k, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPublicKeyInvalid, err)
			}
			return k, nil
		case pemPKCS1PublicKey:
			k, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPublicKeyInvalid, err)
			}
			return k, nil
		case pemCertificate:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrPublicKeyInvalid, err)
			}
			return cert.PublicKey, nil
		}
		pemBytes = rest
	}
	return nil, fmt.Errorf("%w: %v", ErrPublicKeyInvalid, errNoPEMKey)
}

// MarshalPublicKeyPEM encodes pub as a PKIX "PUBLIC KEY" block.
func MarshalPublicKeyPEM(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPKIXPublicKey, Bytes: der}), nil
}

// MarshalPrivateKeyPEM encodes priv as a PKCS#8 "PRIVATE KEY" block.
func MarshalPrivateKeyPEM(priv crypto.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemPKCS8PrivateKey, Bytes: der}), nil
}

// algorithmForKey suggests the algorithm matching a public key type.
func algorithmForKey(pub crypto.PublicKey) (Algorithm, bool) {
	switch pub.(type) {
	case ed25519.PublicKey:
		return AlgorithmEd25519, true
	case *rsa.PublicKey:
		return AlgorithmRSASHA256, true
	case *ecdsa.PublicKey:
		return AlgorithmECDSASHA256, true
	default:
		return "", false
	}
}
