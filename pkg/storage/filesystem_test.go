package storage

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalStorageSaveAndOpen(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	rel, err := store.Save("schedule_final_20260601_090000.csv", []byte("student_no,course\nS1,MATH101\n"))
	require.NoError(t, err)
	require.Equal(t, "schedule_final_20260601_090000.csv", rel)

	file, err := store.Open(rel)
	require.NoError(t, err)
	defer file.Close() //nolint:errcheck
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	require.Contains(t, string(data), "MATH101")
}

func TestLocalStorageRejectsEscapingPaths(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../outside.csv", []byte("x"))
	require.ErrorContains(t, err, "escapes")

	_, err = store.Open("../../etc/passwd")
	require.ErrorContains(t, err, "escapes")
}

func TestLocalStorageCleanupOlderThan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewLocalStorage(dir)
	require.NoError(t, err)

	_, err = store.Save("seat_plan_11_old.pdf", []byte("old"))
	require.NoError(t, err)
	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(store.Path("seat_plan_11_old.pdf"), stale, stale))

	_, err = store.Save("seat_plan_12_fresh.pdf", []byte("fresh"))
	require.NoError(t, err)

	deleted, err := store.CleanupOlderThan(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, []string{"seat_plan_11_old.pdf"}, deleted)

	_, err = store.Open("seat_plan_12_fresh.pdf")
	require.NoError(t, err)
}
