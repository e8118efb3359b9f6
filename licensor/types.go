package licensor

import (
	"time"

	"github.com/google/uuid"
)

// LicenseFile is the JSON envelope of a signed license on disk or on the wire.
// Features are stored as plain strings; the signature is base64 (standard
// encoding) over the canonical bytes produced by the named encoding.
type LicenseFile struct {
	Algorithm Algorithm         `json:"algorithm"`
	Encoding  string            `json:"encoding"`
	Features  map[string]string `json:"features"`
	Signature string            `json:"signature"`
}

// Status is the outcome of Checker.Evaluate. Each flag fails closed.
// Revoked is only probed online for a verified license.
type Status struct {
	Verified  bool       `json:"verified"`
	Expired   bool       `json:"expired"`
	Revoked   bool       `json:"revoked"`
	LicenseID uuid.UUID  `json:"license_id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Valid reports whether the license is verified, unexpired and not revoked.
func (s Status) Valid() bool {
	return s.Verified && !s.Expired && !s.Revoked
}

// HardwareLimits holds the hardware constraints read from a license.
type HardwareLimits struct {
	MaxCPUPerNode int // 0 = unlimited
}
