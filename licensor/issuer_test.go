package licensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/CloudNativeWorks/cnw-licensor/licensor/licensestore"
)

func TestNewIssuer_RequiresKey(t *testing.T) {
	_, err := NewIssuer(nil)
	assert.ErrorIs(t, err, ErrSignature)
}

func TestIssuer_Issue(t *testing.T) {
	priv, pub := newKeyPair(t, AlgorithmEd25519)
	store := licensestore.NewMemoryStore()
	iss, err := NewIssuer(priv, WithIssuerStore(store))
	require.NoError(t, err)

	doc := sampleDocument(t)
	doc.SetExpiry(time.Date(2030, 1, 31, 0, 0, 0, 0, time.Local))

	id, err := iss.Issue(context.Background(), doc)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	got, ok := doc.LicenseID()
	require.True(t, ok)
	assert.Equal(t, id, got)
	assert.True(t, doc.IsVerified(pub))

	rec, err := store.Get(context.Background(), id.String())
	require.NoError(t, err)
	assert.Equal(t, string(AlgorithmEd25519), rec.Algorithm)
	assert.Equal(t, EncodingLine, rec.Encoding)
	assert.Equal(t, map[string]string(doc.Features()), rec.Features)
	assert.Equal(t, doc.Signature(), rec.Signature)
	assert.Equal(t, time.UTC, rec.IssuedAt.Location())
	require.NotNil(t, rec.ExpiresAt)
	assert.True(t, rec.ExpiresAt.Equal(time.Date(2030, 1, 31, 0, 0, 0, 0, time.Local)))
	assert.False(t, rec.Revoked())
}

func TestIssuer_Issue_KeepsExistingID(t *testing.T) {
	priv, _ := newKeyPair(t, AlgorithmEd25519)
	iss, err := NewIssuer(priv)
	require.NoError(t, err)

	want := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	doc := MustNew()
	doc.SetLicenseID(want)

	id, err := iss.Issue(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, want, id)
}

func TestIssuer_Issue_RejectsMalformedID(t *testing.T) {
	priv, _ := newKeyPair(t, AlgorithmEd25519)
	iss, err := NewIssuer(priv)
	require.NoError(t, err)

	doc := MustNew()
	doc.SetFeature(FeatureLicenseID, "CUSTOMER-42")

	_, err = iss.Issue(context.Background(), doc)
	assert.ErrorIs(t, err, ErrTypeCoercion)
	got, _ := doc.Feature(FeatureLicenseID)
	assert.Equal(t, "CUSTOMER-42", got)
	assert.Nil(t, doc.Signature())
}

func TestIssuer_Issue_SignFailure(t *testing.T) {
	rsaPriv, _ := newKeyPair(t, AlgorithmRSASHA256)
	store := licensestore.NewMemoryStore()
	iss, err := NewIssuer(rsaPriv, WithIssuerStore(store))
	require.NoError(t, err)

	doc := MustNew()
	_, err = iss.Issue(context.Background(), doc)
	assert.ErrorIs(t, err, ErrSignature)
	_, hasID := doc.Feature(FeatureLicenseID)
	assert.False(t, hasID, "generated license id must be rolled back")
	assert.Nil(t, doc.Signature())

	recs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, recs, "failed issues must not be recorded")
}

func TestIssuer_RevokeAndLoad(t *testing.T) {
	priv, pub := newKeyPair(t, AlgorithmECDSASHA256)
	store := licensestore.NewMemoryStore()
	iss, err := NewIssuer(priv, WithIssuerStore(store))
	require.NoError(t, err)

	doc := sampleDocument(t, WithAlgorithm(AlgorithmECDSASHA256), WithEncoder(JCSEncoder{}))
	id, err := iss.Issue(context.Background(), doc)
	require.NoError(t, err)

	loaded, err := iss.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, AlgorithmECDSASHA256, loaded.Algorithm())
	assert.Equal(t, EncodingJCS, loaded.Encoding())
	assert.True(t, loaded.IsVerified(pub))

	require.NoError(t, iss.Revoke(context.Background(), id, "chargeback"))
	rec, err := store.Get(context.Background(), id.String())
	require.NoError(t, err)
	assert.True(t, rec.Revoked())
	assert.Equal(t, "chargeback", rec.RevokeReason)

	// Re-issuing keeps the revocation.
	_, err = iss.Issue(context.Background(), loaded)
	require.NoError(t, err)
	rec, err = store.Get(context.Background(), id.String())
	require.NoError(t, err)
	assert.True(t, rec.Revoked())
}

func TestIssuer_Revoke_Unknown(t *testing.T) {
	priv, _ := newKeyPair(t, AlgorithmEd25519)
	iss, err := NewIssuer(priv, WithIssuerStore(licensestore.NewMemoryStore()))
	require.NoError(t, err)

	err = iss.Revoke(context.Background(), uuid.New(), "unknown")
	assert.True(t, errors.Is(err, licensestore.ErrNotFound))

	_, err = iss.Load(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, licensestore.ErrNotFound))
}

func TestIssuer_WithoutStore(t *testing.T) {
	priv, _ := newKeyPair(t, AlgorithmEd25519)
	iss, err := NewIssuer(priv)
	require.NoError(t, err)

	_, err = iss.Issue(context.Background(), MustNew())
	require.NoError(t, err)
	assert.ErrorIs(t, iss.Revoke(context.Background(), uuid.New(), "x"), errNoStore)
	_, err = iss.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, errNoStore)
}

func TestIssuer_Logs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	priv, _ := newKeyPair(t, AlgorithmEd25519)
	iss, err := NewIssuer(priv, WithIssuerLogger(zap.New(core)))
	require.NoError(t, err)

	id, err := iss.Issue(context.Background(), MustNew())
	require.NoError(t, err)

	entries := logs.FilterMessage("license issued").All()
	require.Len(t, entries, 1)
	assert.Equal(t, id.String(), entries[0].ContextMap()["license_id"])
}

func TestDocumentFromRecord_Invalid(t *testing.T) {
	_, err := DocumentFromRecord(&licensestore.Record{Algorithm: "MD5"})
	assert.ErrorIs(t, err, ErrUnsupportedAlgorithm)

	_, err = DocumentFromRecord(&licensestore.Record{Encoding: "xml"})
	assert.ErrorIs(t, err, ErrEncoding)
}
