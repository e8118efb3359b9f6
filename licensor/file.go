package licensor

import (
	"crypto"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// MarshalFile encodes doc, including its signature, as a LicenseFile.
func MarshalFile(doc *Document) ([]byte, error) {
	file := LicenseFile{
		Algorithm: doc.Algorithm(),
		Encoding:  doc.Encoding(),
		Features:  doc.Features(),
	}
	if sig := doc.Signature(); sig != nil {
		file.Signature = base64.StdEncoding.EncodeToString(sig)
	}
	raw, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal license file: %w", err)
	}
	return raw, nil
}

// UnmarshalFile decodes a LicenseFile into a Document configured with the
// algorithm and encoding recorded in the file. The signature is not checked.
func UnmarshalFile(raw []byte) (*Document, error) {
	var file LicenseFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLicenseFileInvalid, err)
	}
	enc, err := EncoderByName(file.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLicenseFileInvalid, err)
	}
	doc, err := New(WithAlgorithm(file.Algorithm), WithEncoder(enc))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLicenseFileInvalid, err)
	}
	for name, value := range file.Features {
		doc.SetFeature(name, value)
	}
	if file.Signature != "" {
		sig, err := base64.StdEncoding.DecodeString(file.Signature)
		if err != nil {
			return nil, fmt.Errorf("%w: signature decode: %v", ErrLicenseFileInvalid, err)
		}
		doc.SetSignature(sig)
	}
	return doc, nil
}

// FileVerifier verifies license files against a trusted public key.
type FileVerifier struct {
	publicKey crypto.PublicKey
	algorithm Algorithm
	now       func() time.Time
}

// FileVerifierOption configures a FileVerifier.
type FileVerifierOption func(*FileVerifier)

// WithVerifierAlgorithm pins the accepted algorithm. By default it is derived
// from the public key type (RSA keys map to RSA-SHA256).
func WithVerifierAlgorithm(alg Algorithm) FileVerifierOption {
	return func(v *FileVerifier) {
		v.algorithm = alg
	}
}

// WithClock overrides the clock used for the expiry check.
func WithClock(now func() time.Time) FileVerifierOption {
	return func(v *FileVerifier) {
		v.now = now
	}
}

// NewFileVerifier creates a verifier trusting pub. License files carry no
// key material; pub is the only trust anchor.
func NewFileVerifier(pub crypto.PublicKey, opts ...FileVerifierOption) (*FileVerifier, error) {
	if pub == nil {
		return nil, ErrPublicKeyInvalid
	}
	v := &FileVerifier{publicKey: pub, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	if v.algorithm == "" {
		alg, ok := algorithmForKey(pub)
		if !ok {
			return nil, fmt.Errorf("%w: unsupported key type %T", ErrPublicKeyInvalid, pub)
		}
		v.algorithm = alg
	}
	if _, err := ParseAlgorithm(string(v.algorithm)); err != nil {
		return nil, err
	}
	return v, nil
}

// VerifyFile reads a license file from disk and verifies it.
func (v *FileVerifier) VerifyFile(filePath string) (*Document, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read license file: %w", err)
	}
	return v.Verify(raw)
}

// Verify decodes and verifies a license file:
//  1. Decode the envelope and its signature
//  2. Require the algorithm the verifier trusts
//  3. Verify the signature over the canonical feature bytes
//  4. Check the expiry date when the license has one
//
// An expired license is returned together with ErrLicenseExpired so callers
// can still inspect its features.
func (v *FileVerifier) Verify(raw []byte) (*Document, error) {
	doc, err := UnmarshalFile(raw)
	if err != nil {
		return nil, err
	}
	if len(doc.signature) == 0 {
		return nil, fmt.Errorf("%w: missing signature", ErrLicenseFileInvalid)
	}
	if doc.Algorithm() != v.algorithm {
		return nil, fmt.Errorf("%w: algorithm %s, expected %s", ErrSignatureInvalid, doc.Algorithm(), v.algorithm)
	}
	if !doc.IsVerified(v.publicKey) {
		return nil, ErrSignatureInvalid
	}
	if _, hasExpiry := doc.Feature(FeatureExpiryDate); hasExpiry && doc.IsExpiredAt(v.now()) {
		return doc, ErrLicenseExpired
	}
	return doc, nil
}
