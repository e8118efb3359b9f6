// Package licensestore records issued licenses for the issuer: the signed
// feature set, its signature and its revocation state.
package licensestore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for a license identifier.
var ErrNotFound = errors.New("license record not found")

// Record is one issued license.
type Record struct {
	LicenseID    string            `json:"license_id" bson:"license_id"`
	Algorithm    string            `json:"algorithm" bson:"algorithm"`
	Encoding     string            `json:"encoding" bson:"encoding"`
	Features     map[string]string `json:"features" bson:"features"`
	Signature    []byte            `json:"signature" bson:"signature"`
	IssuedAt     time.Time         `json:"issued_at" bson:"issued_at"`
	ExpiresAt    *time.Time        `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	RevokedAt    *time.Time        `json:"revoked_at,omitempty" bson:"revoked_at,omitempty"`
	RevokeReason string            `json:"revoke_reason,omitempty" bson:"revoke_reason,omitempty"`
}

// Revoked reports whether the record has been revoked.
func (r *Record) Revoked() bool {
	return r.RevokedAt != nil
}

// Store persists issued licenses.
type Store interface {
	// Save creates or replaces a record (upsert by license ID). The revocation
	// state of an existing record is kept.
	Save(ctx context.Context, rec Record) error

	// Get returns the record for a license ID, or ErrNotFound.
	Get(ctx context.Context, licenseID string) (*Record, error)

	// List returns all records ordered by issue time.
	List(ctx context.Context) ([]Record, error)

	// Revoke marks a record revoked at the given time. Returns ErrNotFound
	// when the record does not exist.
	Revoke(ctx context.Context, licenseID, reason string, at time.Time) error

	// Delete removes a record. Deleting a missing record is not an error.
	Delete(ctx context.Context, licenseID string) error

	// Close releases any resources held by the store.
	Close(ctx context.Context) error
}
