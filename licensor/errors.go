package licensor

import (
	"errors"
	"fmt"
)

// Sentinel errors for the signing protocol.
var (
	ErrEncoding             = errors.New("canonical encoding failed")
	ErrSignature            = errors.New("signing failed")
	ErrUnsupportedAlgorithm = errors.New("unsupported signature algorithm")
)

// Sentinel errors for typed feature access.
var (
	ErrTypeCoercion    = errors.New("feature type coercion failed")
	ErrFeatureNotFound = errors.New("feature not found")
)

// ErrNetwork reports that the revocation endpoint could not be reached.
var ErrNetwork = errors.New("revocation endpoint unreachable")

// Sentinel errors for license file and policy verification.
var (
	ErrSignatureInvalid   = errors.New("signature verification failed")
	ErrPublicKeyInvalid   = errors.New("invalid public key")
	ErrLicenseFileInvalid = errors.New("invalid license file format")
	ErrLicenseExpired     = errors.New("license expired")
	ErrLicenseRevoked     = errors.New("license revoked")
	ErrMachineMismatch    = errors.New("license is bound to another machine")
	ErrCPULimitExceeded   = errors.New("CPU limit exceeded")
)

// EncodingError reports a feature set the canonical encoder cannot represent.
type EncodingError struct {
	Encoding string
	Feature  string
	Err      error
}

func (e *EncodingError) Error() string {
	if e.Feature == "" {
		return fmt.Sprintf("%s encoding: %v", e.Encoding, e.Err)
	}
	return fmt.Sprintf("%s encoding of feature %q: %v", e.Encoding, e.Feature, e.Err)
}

func (e *EncodingError) Is(target error) bool { return target == ErrEncoding }

func (e *EncodingError) Unwrap() error { return e.Err }

// SignatureError reports a key that cannot be used with the configured algorithm.
type SignatureError struct {
	Algorithm Algorithm
	Err       error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("sign with %s: %v", e.Algorithm, e.Err)
}

func (e *SignatureError) Is(target error) bool { return target == ErrSignature }

func (e *SignatureError) Unwrap() error { return e.Err }

// TypeCoercionError is returned by the typed getters when a feature is absent
// or its stored string does not decode as the requested kind.
type TypeCoercionError struct {
	Feature string
	Kind    Kind
	Value   string
	Err     error
}

func (e *TypeCoercionError) Error() string {
	if errors.Is(e.Err, ErrFeatureNotFound) {
		return fmt.Sprintf("feature %q (%s): %v", e.Feature, e.Kind, e.Err)
	}
	return fmt.Sprintf("feature %q: cannot decode %s from %q: %v", e.Feature, e.Kind, e.Value, e.Err)
}

func (e *TypeCoercionError) Is(target error) bool { return target == ErrTypeCoercion }

func (e *TypeCoercionError) Unwrap() error { return e.Err }

// NetworkError wraps a transport failure of the revocation probe.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("revocation probe %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

func (e *NetworkError) Unwrap() error { return e.Err }
