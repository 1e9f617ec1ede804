package profile

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dbpkg "github.com/Hussein-Mazeh/cybervision-unlock/internal/db"
)

func openDB(t *testing.T) *dbpkg.DB {
	t.Helper()
	d, err := dbpkg.Open(filepath.Join(t.TempDir(), "unlock.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbpkg.Close(d) })
	require.NoError(t, dbpkg.Migrate(context.Background(), d))
	return d
}

func TestDirectorySetAndGet(t *testing.T) {
	ctx := context.Background()
	dir, err := NewDirectory(openDB(t), []byte("server-secret"))
	require.NoError(t, err)

	require.NoError(t, dir.SetSecret(ctx, "alice", "sk-alice"))
	got, err := dir.SecretFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "sk-alice", got)

	require.NoError(t, dir.SetSecret(ctx, "alice", "sk-rotated"))
	got, err = dir.SecretFor(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "sk-rotated", got)

	_, err = dir.SecretFor(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, dir.Delete(ctx, "alice"))
	assert.ErrorIs(t, dir.Delete(ctx, "alice"), ErrNotFound)
}

func TestDirectoryWrongServerSecret(t *testing.T) {
	ctx := context.Background()
	d := openDB(t)

	dir, err := NewDirectory(d, []byte("server-secret"))
	require.NoError(t, err)
	require.NoError(t, dir.SetSecret(ctx, "alice", "sk-alice"))

	other, err := NewDirectory(d, []byte("rotated-secret"))
	require.NoError(t, err)
	_, err = other.SecretFor(ctx, "alice")
	assert.Error(t, err)
}

func TestDirectoryRejectsEmptyInputs(t *testing.T) {
	dir, err := NewDirectory(openDB(t), []byte("s"))
	require.NoError(t, err)
	assert.Error(t, dir.SetSecret(context.Background(), " ", "k"))
	assert.Error(t, dir.SetSecret(context.Background(), "u", ""))

	_, err = NewDirectory(nil, []byte("s"))
	assert.Error(t, err)
}

func TestSealBindsUser(t *testing.T) {
	secret := []byte("server-secret")
	salt, blob, err := sealSecret(secret, "alice", "sk-alice")
	require.NoError(t, err)

	got, err := openSecret(secret, "alice", salt, blob)
	require.NoError(t, err)
	assert.Equal(t, "sk-alice", got)

	_, err = openSecret(secret, "mallory", salt, blob)
	assert.Error(t, err)

	_, err = openSecret(secret, "alice", salt[:4], blob)
	assert.Error(t, err)
}
