package licensor

import (
	"context"
	"crypto"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Checker combines signature, expiry, revocation and machine checks for the
// consuming side of a license.
type Checker struct {
	publicKey  crypto.PublicKey
	revocation *RevocationChecker
	logger     *zap.Logger
	now        func() time.Time
}

// CheckerOption configures a Checker.
type CheckerOption func(*Checker)

// WithRevocationChecker enables online revocation checks. Without it no
// license is considered revoked.
func WithRevocationChecker(r *RevocationChecker) CheckerOption {
	return func(c *Checker) {
		c.revocation = r
	}
}

// WithCheckerLogger sets the logger for enforcement decisions.
func WithCheckerLogger(l *zap.Logger) CheckerOption {
	return func(c *Checker) {
		c.logger = l
	}
}

// WithCheckerClock overrides the clock used for expiry.
func WithCheckerClock(now func() time.Time) CheckerOption {
	return func(c *Checker) {
		c.now = now
	}
}

// NewChecker creates a Checker trusting pub.
func NewChecker(pub crypto.PublicKey, opts ...CheckerOption) *Checker {
	c := &Checker{publicKey: pub, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// Evaluate computes the trust signals of doc. It never fails; each signal is
// fail-closed on its own. The revocation endpoint is only contacted for
// verified licenses; an unverified license reports Revoked when a
// RevocationChecker is configured.
func (c *Checker) Evaluate(ctx context.Context, doc *Document) Status {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "licensor.evaluate")
	defer span.End()

	st := Status{
		Verified: doc.IsVerified(c.publicKey),
		Expired:  doc.IsExpiredAt(c.now()),
	}
	if id, ok := doc.LicenseID(); ok {
		st.LicenseID = id
	}
	if t, err := doc.ExpiresAt(); err == nil {
		st.ExpiresAt = &t
	}
	switch {
	case c.revocation == nil:
	case !st.Verified:
		// The revocation URL of an unverified license is untrusted input.
		st.Revoked = true
	default:
		st.Revoked = c.revocation.IsRevoked(ctx, doc)
	}

	span.SetAttributes(
		attribute.String("license.id", st.LicenseID.String()),
		attribute.Bool("license.verified", st.Verified),
		attribute.Bool("license.expired", st.Expired),
		attribute.Bool("license.revoked", st.Revoked),
	)
	return st
}

// Enforce runs the checks in order and returns the first failure:
//  1. Signature against the trusted key
//  2. Expiry date
//  3. Machine binding (if the license has a machineId)
//  4. CPU limit (if the license has maxCpuPerNode)
//  5. Revocation (if a RevocationChecker is configured)
//
// The revocation endpoint is only contacted for verified licenses.
func (c *Checker) Enforce(ctx context.Context, doc *Document) error {
	log := c.logger.With(zap.String("license_id", doc.licenseIDString()))

	if !doc.IsVerified(c.publicKey) {
		log.Warn("license signature rejected")
		return ErrSignatureInvalid
	}
	if doc.IsExpiredAt(c.now()) {
		log.Warn("license expired")
		return ErrLicenseExpired
	}
	if err := CheckMachine(doc); err != nil {
		log.Warn("license machine check failed", zap.Error(err))
		return err
	}
	limits, err := ExtractHardwareLimits(doc)
	if err != nil {
		return fmt.Errorf("extract hardware limits: %w", err)
	}
	if err := CheckCPU(limits); err != nil {
		log.Warn("license hardware check failed", zap.Error(err))
		return err
	}
	if c.revocation != nil && c.revocation.IsRevoked(ctx, doc) {
		return ErrLicenseRevoked
	}
	return nil
}
