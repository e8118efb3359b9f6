package licensor

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"errors"
	"fmt"
)

// Algorithm names a signature scheme. The same algorithm must be used by the
// issuer and the verifier.
type Algorithm string

// Supported algorithms.
const (
	AlgorithmEd25519     Algorithm = "Ed25519"
	AlgorithmRSASHA256   Algorithm = "RSA-SHA256"
	AlgorithmRSAPSS      Algorithm = "RSASSA-PSS-SHA256"
	AlgorithmECDSASHA256 Algorithm = "ECDSA-SHA256"
)

// DefaultAlgorithm is used when no algorithm is configured.
const DefaultAlgorithm = AlgorithmEd25519

var errKeyType = errors.New("key type does not match algorithm")

// ParseAlgorithm validates an algorithm name. An empty name selects DefaultAlgorithm.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch a := Algorithm(name); a {
	case "":
		return DefaultAlgorithm, nil
	case AlgorithmEd25519, AlgorithmRSASHA256, AlgorithmRSAPSS, AlgorithmECDSASHA256:
		return a, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// SignatureEngine signs and verifies canonical bytes with one algorithm.
type SignatureEngine struct {
	algorithm Algorithm
}

// NewSignatureEngine returns an engine for alg.
func NewSignatureEngine(alg Algorithm) (*SignatureEngine, error) {
	a, err := ParseAlgorithm(string(alg))
	if err != nil {
		return nil, err
	}
	return &SignatureEngine{algorithm: a}, nil
}

// Algorithm returns the configured algorithm.
func (e *SignatureEngine) Algorithm() Algorithm {
	return e.algorithm
}

// Sign signs data with priv. It returns a *SignatureError when the key is
// unusable for the configured algorithm.
func (e *SignatureEngine) Sign(priv crypto.PrivateKey, data []byte) ([]byte, error) {
	sig, err := e.sign(priv, data)
	if err != nil {
		return nil, &SignatureError{Algorithm: e.algorithm, Err: err}
	}
	return sig, nil
}

func (e *SignatureEngine) sign(priv crypto.PrivateKey, data []byte) ([]byte, error) {
	switch e.algorithm {
	case AlgorithmEd25519:
		k, ok := priv.(ed25519.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: want ed25519.PrivateKey, got %T", errKeyType, priv)
		}
		if len(k) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("ed25519 private key length %d, expected %d", len(k), ed25519.PrivateKeySize)
		}
		return ed25519.Sign(k, data), nil
	case AlgorithmRSASHA256, AlgorithmRSAPSS:
		k, ok := priv.(*rsa.PrivateKey)
		if !ok || k == nil {
			return nil, fmt.Errorf("%w: want *rsa.PrivateKey, got %T", errKeyType, priv)
		}
		digest := sha256.Sum256(data)
		if e.algorithm == AlgorithmRSAPSS {
			return rsa.SignPSS(rand.Reader, k, crypto.SHA256, digest[:], nil)
		}
		return rsa.SignPKCS1v15(rand.Reader, k, crypto.SHA256, digest[:])
	case AlgorithmECDSASHA256:
		k, ok := priv.(*ecdsa.PrivateKey)
		if !ok || k == nil {
			return nil, fmt.Errorf("%w: want *ecdsa.PrivateKey, got %T", errKeyType, priv)
		}
		digest := sha256.Sum256(data)
		return ecdsa.SignASN1(rand.Reader, k, digest[:])
	default:
		return nil, ErrUnsupportedAlgorithm
	}
}

// Verify reports whether sig is a valid signature of data under pub.
// Any failure, including a key of the wrong type, yields false.
func (e *SignatureEngine) Verify(pub crypto.PublicKey, data, sig []byte) (ok bool) {
	// Some primitives panic on malformed keys.
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	if len(sig) == 0 {
		return false
	}
	switch e.algorithm {
	case AlgorithmEd25519:
		k, isEd := pub.(ed25519.PublicKey)
		if !isEd || len(k) != ed25519.PublicKeySize {
			return false
		}
		return ed25519.Verify(k, data, sig)
	case AlgorithmRSASHA256, AlgorithmRSAPSS:
		k, isRSA := pub.(*rsa.PublicKey)
		if !isRSA || k == nil {
			return false
		}
		digest := sha256.Sum256(data)
		if e.algorithm == AlgorithmRSAPSS {
			return rsa.VerifyPSS(k, crypto.SHA256, digest[:], sig, nil) == nil
		}
		return rsa.VerifyPKCS1v15(k, crypto.SHA256, digest[:], sig) == nil
	case AlgorithmECDSASHA256:
		k, isEC := pub.(*ecdsa.PublicKey)
		if !isEC || k == nil {
			return false
		}
		digest := sha256.Sum256(data)
		return ecdsa.VerifyASN1(k, digest[:], sig)
	default:
		return false
	}
}
