package licensestore

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord returns a record issued at the given offset from a fixed base
// time. Times are truncated to milliseconds so every backend stores them
// without loss.
func testRecord(offset time.Duration) Record {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := base.AddDate(1, 0, 0)
	return Record{
		LicenseID: uuid.NewString(),
		Algorithm: "Ed25519",
		Encoding:  "line",
		Features:  map[string]string{"edition": "enterprise", "seats": "25"},
		Signature: []byte{0xde, 0xad, 0xbe, 0xef},
		IssuedAt:  base.Add(offset).Truncate(time.Millisecond),
		ExpiresAt: &expires,
	}
}

// testStore runs the behaviour every Store implementation must share.
func testStore(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := s.Get(ctx, uuid.NewString())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("save and get", func(t *testing.T) {
		rec := testRecord(0)
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Get(ctx, rec.LicenseID)
		require.NoError(t, err)
		assert.Equal(t, rec.LicenseID, got.LicenseID)
		assert.Equal(t, rec.Algorithm, got.Algorithm)
		assert.Equal(t, rec.Encoding, got.Encoding)
		assert.Equal(t, rec.Features, got.Features)
		assert.Equal(t, rec.Signature, got.Signature)
		assert.True(t, rec.IssuedAt.Equal(got.IssuedAt))
		require.NotNil(t, got.ExpiresAt)
		assert.True(t, rec.ExpiresAt.Equal(*got.ExpiresAt))
		assert.False(t, got.Revoked())
	})

	t.Run("save without expiry", func(t *testing.T) {
		rec := testRecord(time.Second)
		require.NoError(t, s.Save(ctx, rec))
		rec.ExpiresAt = nil
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Get(ctx, rec.LicenseID)
		require.NoError(t, err)
		assert.Nil(t, got.ExpiresAt)
	})

	t.Run("revoke survives resave", func(t *testing.T) {
		rec := testRecord(2 * time.Second)
		require.NoError(t, s.Save(ctx, rec))

		at := time.Date(2026, 4, 1, 8, 30, 0, 0, time.UTC)
		require.NoError(t, s.Revoke(ctx, rec.LicenseID, "refund", at))

		rec.Features["seats"] = "50"
		require.NoError(t, s.Save(ctx, rec))

		got, err := s.Get(ctx, rec.LicenseID)
		require.NoError(t, err)
		assert.Equal(t, "50", got.Features["seats"])
		require.True(t, got.Revoked())
		assert.True(t, at.Equal(*got.RevokedAt))
		assert.Equal(t, "refund", got.RevokeReason)
	})

	t.Run("revoke missing", func(t *testing.T) {
		err := s.Revoke(ctx, uuid.NewString(), "nope", time.Now())
		assert.True(t, errors.Is(err, ErrNotFound))
	})

	t.Run("list ordered by issue time", func(t *testing.T) {
		var want []string
		for i := 3; i >= 1; i-- {
			rec := testRecord(time.Duration(i) * time.Hour)
			require.NoError(t, s.Save(ctx, rec))
			want = append([]string{rec.LicenseID}, want...)
		}

		list, err := s.List(ctx)
		require.NoError(t, err)
		var got []string
		for _, rec := range list {
			for _, id := range want {
				if rec.LicenseID == id {
					got = append(got, id)
				}
			}
		}
		assert.Equal(t, want, got)
		for i := 1; i < len(list); i++ {
			assert.False(t, list[i].IssuedAt.Before(list[i-1].IssuedAt), "record %d out of order", i)
		}
	})

	t.Run("delete", func(t *testing.T) {
		rec := testRecord(4 * time.Hour)
		require.NoError(t, s.Save(ctx, rec))
		require.NoError(t, s.Delete(ctx, rec.LicenseID))

		_, err := s.Get(ctx, rec.LicenseID)
		assert.True(t, errors.Is(err, ErrNotFound))
		assert.NoError(t, s.Delete(ctx, rec.LicenseID), "deleting twice is not an error")
	})
}

func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}
