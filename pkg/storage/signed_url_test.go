package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLSignerRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("exam-plan-secret", time.Hour)
	token, expiresAt, err := signer.Generate("7c1f2a40-5b9e-4f1d-8a6c-3d2e1f0b9a88", "schedule_final_20260601_090000.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.False(t, expiresAt.IsZero())

	jobID, path, parsedExpiry, err := signer.Parse(token, false)
	require.NoError(t, err)
	require.Equal(t, "7c1f2a40-5b9e-4f1d-8a6c-3d2e1f0b9a88", jobID)
	require.Equal(t, "schedule_final_20260601_090000.csv", path)
	require.WithinDuration(t, expiresAt, parsedExpiry, time.Second)
}

func TestSignedURLSignerExpired(t *testing.T) {
	signer := NewSignedURLSigner("exam-plan-secret", time.Hour)
	signer.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC) }
	token, _, err := signer.Generate("job-2", "seat_plan_11_20260601_090000.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC) }
	_, _, _, err = signer.Parse(token, false)
	require.ErrorContains(t, err, "expired")

	// Cleanup still needs to map stale tokens back to files on disk.
	jobID, path, _, err := signer.Parse(token, true)
	require.NoError(t, err)
	require.Equal(t, "job-2", jobID)
	require.Equal(t, "seat_plan_11_20260601_090000.pdf", path)
}

func TestSignedURLSignerRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("exam-plan-secret", time.Hour)
	token, _, err := signer.Generate("job-3", "schedule_midterm_20260415_140000.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 4)
	parts[1] = "9999999999"
	_, _, _, err = signer.Parse(strings.Join(parts, "."), false)
	require.ErrorContains(t, err, "signature")

	other := NewSignedURLSigner("different-secret", time.Hour)
	_, _, _, err = other.Parse(token, false)
	require.ErrorContains(t, err, "signature")
}
