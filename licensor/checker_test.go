package licensor

import (
	"context"
	"crypto"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// checkerFixture signs a license valid for a year, bound to no machine.
func checkerFixture(t *testing.T, mutate func(*Document)) (*Document, crypto.PublicKey) {
	t.Helper()
	priv, pub := newKeyPair(t, AlgorithmEd25519)
	doc := MustNew()
	doc.SetLicenseID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	doc.SetExpiry(time.Now().AddDate(1, 0, 0))
	if mutate != nil {
		mutate(doc)
	}
	require.NoError(t, doc.Sign(priv))
	return doc, pub
}

func statusServer(t *testing.T, status int) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestChecker_Evaluate(t *testing.T) {
	srv, _ := statusServer(t, http.StatusOK)
	doc, pub := checkerFixture(t, func(d *Document) {
		d.SetRevocationURL(srv.URL + "/${licenseId}")
	})

	c := NewChecker(pub, WithRevocationChecker(NewRevocationChecker()))
	st := c.Evaluate(context.Background(), doc)

	assert.True(t, st.Verified)
	assert.False(t, st.Expired)
	assert.False(t, st.Revoked)
	assert.True(t, st.Valid())
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", st.LicenseID.String())
	require.NotNil(t, st.ExpiresAt)
}

func TestChecker_Evaluate_IndependentSignals(t *testing.T) {
	srv, _ := statusServer(t, http.StatusGone)
	doc, pub := checkerFixture(t, func(d *Document) {
		d.SetRevocationURL(srv.URL)
		d.SetExpiry(time.Now().AddDate(0, 0, -3))
	})
	doc.SetFeature("edition", "tampered")

	st := NewChecker(pub, WithRevocationChecker(NewRevocationChecker())).Evaluate(context.Background(), doc)
	assert.False(t, st.Verified)
	assert.True(t, st.Expired)
	assert.True(t, st.Revoked)
	assert.False(t, st.Valid())
}

func TestChecker_Evaluate_SkipsNetworkForUnverified(t *testing.T) {
	srv, hits := statusServer(t, http.StatusOK)
	doc := MustNew()
	doc.SetLicenseID(uuid.MustParse("11111111-1111-1111-1111-111111111111"))
	doc.SetExpiry(time.Now().AddDate(1, 0, 0))
	doc.SetRevocationURL(srv.URL + "/${licenseId}")
	_, pub := newKeyPair(t, AlgorithmEd25519)

	st := NewChecker(pub, WithRevocationChecker(NewRevocationChecker())).Evaluate(context.Background(), doc)
	assert.False(t, st.Verified)
	assert.True(t, st.Revoked)
	assert.False(t, st.Valid())
	assert.Zero(t, hits.Load(), "unsigned revocation URL must not be requested")
}

func TestChecker_Evaluate_WithoutRevocationChecker(t *testing.T) {
	srv, hits := statusServer(t, http.StatusForbidden)
	doc, pub := checkerFixture(t, func(d *Document) {
		d.SetRevocationURL(srv.URL)
	})

	st := NewChecker(pub).Evaluate(context.Background(), doc)
	assert.False(t, st.Revoked)
	assert.Zero(t, hits.Load())
}

func TestChecker_Enforce(t *testing.T) {
	t.Setenv(FingerprintEnv, "node-a")

	revoked, _ := statusServer(t, http.StatusForbidden)
	ok, _ := statusServer(t, http.StatusOK)

	tests := []struct {
		name    string
		mutate  func(*Document)
		tamper  bool
		wantErr error
	}{
		{name: "valid", mutate: func(d *Document) { d.SetRevocationURL(ok.URL) }},
		{name: "tampered", tamper: true, wantErr: ErrSignatureInvalid},
		{name: "expired", mutate: func(d *Document) { d.SetExpiry(time.Now().AddDate(0, 0, -1)) }, wantErr: ErrLicenseExpired},
		{name: "other machine", mutate: func(d *Document) { d.SetFeature(FeatureMachineID, "node-b") }, wantErr: ErrMachineMismatch},
		{name: "this machine", mutate: func(d *Document) { d.SetFeature(FeatureMachineID, "node-a") }},
		{name: "cpu limit", mutate: func(d *Document) { d.SetInt(FeatureMaxCPUPerNode, 1<<20) }},
		{name: "malformed cpu limit", mutate: func(d *Document) { d.SetFeature(FeatureMaxCPUPerNode, "many") }, wantErr: ErrTypeCoercion},
		{name: "revoked", mutate: func(d *Document) { d.SetRevocationURL(revoked.URL) }, wantErr: ErrLicenseRevoked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, pub := checkerFixture(t, tt.mutate)
			if tt.tamper {
				doc.SetFeature("edition", "unlimited")
			}
			c := NewChecker(pub, WithRevocationChecker(NewRevocationChecker()))
			err := c.Enforce(context.Background(), doc)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
		})
	}
}

func TestChecker_Enforce_SkipsNetworkForUnverified(t *testing.T) {
	srv, hits := statusServer(t, http.StatusOK)
	doc, _ := checkerFixture(t, func(d *Document) { d.SetRevocationURL(srv.URL) })
	_, otherPub := newKeyPair(t, AlgorithmEd25519)

	c := NewChecker(otherPub, WithRevocationChecker(NewRevocationChecker()))
	assert.ErrorIs(t, c.Enforce(context.Background(), doc), ErrSignatureInvalid)
	assert.Zero(t, hits.Load())
}

func TestChecker_Enforce_Clock(t *testing.T) {
	doc, pub := checkerFixture(t, nil)
	future := func() time.Time { return time.Now().AddDate(2, 0, 0) }

	c := NewChecker(pub, WithCheckerClock(future))
	assert.ErrorIs(t, c.Enforce(context.Background(), doc), ErrLicenseExpired)
}

func TestChecker_Enforce_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	doc, _ := checkerFixture(t, nil)
	_, otherPub := newKeyPair(t, AlgorithmEd25519)

	c := NewChecker(otherPub, WithCheckerLogger(zap.New(core)))
	require.Error(t, c.Enforce(context.Background(), doc))

	entries := logs.FilterMessage("license signature rejected").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "11111111-1111-1111-1111-111111111111", entries[0].ContextMap()["license_id"])
}
