package licensor

import (
	"crypto"
	"fmt"
)

// Document is a license: a feature set plus at most one signature over its
// canonical encoding.
//
// A Document performs no locking. Read-only calls (IsVerified, the typed
// getters, IsExpired, RevocationURL) may run concurrently as long as no
// SetFeature or Sign call is in flight.
type Document struct {
	features  Features
	signature []byte
	encoder   Encoder
	engine    *SignatureEngine
}

// DocumentOption configures a Document.
type DocumentOption func(*Document) error

// WithAlgorithm selects the signature algorithm. Default: Ed25519.
func WithAlgorithm(alg Algorithm) DocumentOption {
	return func(d *Document) error {
		engine, err := NewSignatureEngine(alg)
		if err != nil {
			return err
		}
		d.engine = engine
		return nil
	}
}

// WithEncoder selects the canonical encoding. Default: LineEncoder.
func WithEncoder(enc Encoder) DocumentOption {
	return func(d *Document) error {
		if enc == nil {
			return fmt.Errorf("%w: nil encoder", ErrEncoding)
		}
		d.encoder = enc
		return nil
	}
}

// New creates an empty, unsigned document.
func New(opts ...DocumentOption) (*Document, error) {
	d := &Document{
		features: Features{},
		encoder:  LineEncoder{},
		engine:   &SignatureEngine{algorithm: DefaultAlgorithm},
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// MustNew is like New but panics on an invalid option.
func MustNew(opts ...DocumentOption) *Document {
	d, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return d
}

// Algorithm returns the signature algorithm of the document.
func (d *Document) Algorithm() Algorithm {
	return d.engine.Algorithm()
}

// Encoding returns the name of the canonical encoding of the document.
func (d *Document) Encoding() string {
	return d.encoder.Name()
}

// SetFeature stores a string feature. It does not clear an existing
// signature; IsVerified reports false until the document is signed again.
func (d *Document) SetFeature(name, value string) {
	d.features.Set(name, value)
}

// Feature returns the raw string value of a feature.
func (d *Document) Feature(name string) (string, bool) {
	return d.features.Get(name)
}

// RemoveFeature deletes a feature.
func (d *Document) RemoveFeature(name string) {
	d.features.Delete(name)
}

// Features returns a copy of the feature set.
func (d *Document) Features() Features {
	return d.features.Clone()
}

// CanonicalBytes returns the exact bytes Sign and IsVerified operate on.
func (d *Document) CanonicalBytes() ([]byte, error) {
	return d.encoder.Encode(d.features)
}

// Sign signs the current feature set and stores the signature, replacing any
// previous one.
func (d *Document) Sign(priv crypto.PrivateKey) error {
	data, err := d.CanonicalBytes()
	if err != nil {
		return err
	}
	sig, err := d.engine.Sign(priv, data)
	if err != nil {
		return err
	}
	d.signature = sig
	return nil
}

// IsVerified reports whether the stored signature matches the current
// feature set under pub. It is recomputed on every call.
func (d *Document) IsVerified(pub crypto.PublicKey) bool {
	if len(d.signature) == 0 {
		return false
	}
	data, err := d.CanonicalBytes()
	if err != nil {
		return false
	}
	return d.engine.Verify(pub, data, d.signature)
}

// Signature returns a copy of the stored signature, or nil.
func (d *Document) Signature() []byte {
	if d.signature == nil {
		return nil
	}
	return append([]byte(nil), d.signature...)
}

// SetSignature attaches a signature received from elsewhere, such as a
// license file.
func (d *Document) SetSignature(sig []byte) {
	if len(sig) == 0 {
		d.signature = nil
		return
	}
	d.signature = append([]byte(nil), sig...)
}
