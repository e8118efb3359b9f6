package licensor

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"testing"

	"github.com/stretchr/testify/require"
)

var allAlgorithms = []Algorithm{
	AlgorithmEd25519,
	AlgorithmRSASHA256,
	AlgorithmRSAPSS,
	AlgorithmECDSASHA256,
}

// newKeyPair generates a fresh key pair usable with alg.
func newKeyPair(t *testing.T, alg Algorithm) (crypto.PrivateKey, crypto.PublicKey) {
	t.Helper()
	switch alg {
	case AlgorithmEd25519:
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		require.NoError(t, err)
		return priv, pub
	case AlgorithmRSASHA256, AlgorithmRSAPSS:
		priv, err := rsa.GenerateKey(rand.Reader, 2048)
		require.NoError(t, err)
		return priv, &priv.PublicKey
	case AlgorithmECDSASHA256:
		priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		return priv, &priv.PublicKey
	default:
		t.Fatalf("no key generator for %s", alg)
		return nil, nil
	}
}

// sampleDocument returns an unsigned document with a representative feature set.
func sampleDocument(t *testing.T, opts ...DocumentOption) *Document {
	t.Helper()
	doc, err := New(opts...)
	require.NoError(t, err)
	doc.SetFeature("edition", "enterprise")
	doc.SetFeature("owner", "ACME Corp.")
	doc.SetFeature("note", "line one\nline two = with separator \\ and backslash")
	doc.SetInt("seats", 25)
	return doc
}
