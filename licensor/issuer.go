package licensor

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/CloudNativeWorks/cnw-licensor/licensor/licensestore"
)

var errNoStore = errors.New("issuer has no license store")

// Issuer signs licenses and, when a store is configured, records them in the
// issuer's ledger.
type Issuer struct {
	privateKey crypto.PrivateKey
	store      licensestore.Store
	logger     *zap.Logger
	now        func() time.Time
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithIssuerStore records every issued license in s.
func WithIssuerStore(s licensestore.Store) IssuerOption {
	return func(i *Issuer) {
		i.store = s
	}
}

// WithIssuerLogger sets the logger.
func WithIssuerLogger(l *zap.Logger) IssuerOption {
	return func(i *Issuer) {
		i.logger = l
	}
}

// NewIssuer creates an Issuer signing with priv.
func NewIssuer(priv crypto.PrivateKey, opts ...IssuerOption) (*Issuer, error) {
	if priv == nil {
		return nil, fmt.Errorf("%w: private key is required", ErrSignature)
	}
	i := &Issuer{privateKey: priv, now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	if i.logger == nil {
		i.logger = zap.NewNop()
	}
	return i, nil
}

// Issue assigns a license identifier if doc has none, signs doc and records
// it. It returns the license identifier. A licenseId that is not a UUID is
// rejected with a *TypeCoercionError. doc is left unchanged when signing fails.
func (i *Issuer) Issue(ctx context.Context, doc *Document) (uuid.UUID, error) {
	id, generated := uuid.Nil, false
	if _, present := doc.Feature(FeatureLicenseID); present {
		existing, err := doc.ID(FeatureLicenseID)
		if err != nil {
			return uuid.Nil, err
		}
		id = existing
	} else {
		id, generated = doc.GenerateLicenseID(), true
	}
	if err := doc.Sign(i.privateKey); err != nil {
		if generated {
			doc.RemoveFeature(FeatureLicenseID)
		}
		return uuid.Nil, fmt.Errorf("sign license %s: %w", id, err)
	}

	if i.store != nil {
		rec := licensestore.Record{
			LicenseID: id.String(),
			Algorithm: string(doc.Algorithm()),
			Encoding:  doc.Encoding(),
			Features:  doc.Features(),
			Signature: doc.Signature(),
			IssuedAt:  i.now().UTC(),
		}
		if t, err := doc.ExpiresAt(); err == nil {
			rec.ExpiresAt = &t
		}
		if err := i.store.Save(ctx, rec); err != nil {
			return uuid.Nil, fmt.Errorf("record license %s: %w", id, err)
		}
	}

	i.logger.Info("license issued",
		zap.String("license_id", id.String()),
		zap.String("algorithm", string(doc.Algorithm())),
		zap.Int("features", len(doc.features)),
	)
	return id, nil
}

// Revoke marks a recorded license as revoked.
func (i *Issuer) Revoke(ctx context.Context, id uuid.UUID, reason string) error {
	if i.store == nil {
		return errNoStore
	}
	if err := i.store.Revoke(ctx, id.String(), reason, i.now().UTC()); err != nil {
		return fmt.Errorf("revoke license %s: %w", id, err)
	}
	i.logger.Info("license revoked", zap.String("license_id", id.String()), zap.String("reason", reason))
	return nil
}

// Load rebuilds a recorded license as a Document.
func (i *Issuer) Load(ctx context.Context, id uuid.UUID) (*Document, error) {
	if i.store == nil {
		return nil, errNoStore
	}
	rec, err := i.store.Get(ctx, id.String())
	if err != nil {
		return nil, fmt.Errorf("load license %s: %w", id, err)
	}
	return DocumentFromRecord(rec)
}

// DocumentFromRecord rebuilds a Document from a ledger record.
func DocumentFromRecord(rec *licensestore.Record) (*Document, error) {
	enc, err := EncoderByName(rec.Encoding)
	if err != nil {
		return nil, err
	}
	doc, err := New(WithAlgorithm(Algorithm(rec.Algorithm)), WithEncoder(enc))
	if err != nil {
		return nil, err
	}
	for name, value := range rec.Features {
		doc.SetFeature(name, value)
	}
	doc.SetSignature(rec.Signature)
	return doc, nil
}
