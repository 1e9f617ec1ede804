package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/vault"
	"github.com/Hussein-Mazeh/cybervision-unlock/store"
)

func provisioned(t *testing.T, password string, s vault.Secret) string {
	t.Helper()
	root := t.TempDir()
	c, _, err := vault.Provision(password, s)
	require.NoError(t, err)
	require.NoError(t, store.SaveCapsule(store.Paths{Root: root}, c))
	return root
}

func run(args ...string) (string, error) {
	var stdout bytes.Buffer
	err := newApp(&stdout).Run(append([]string{"recover"}, args...))
	return stdout.String(), err
}

func TestRecoverPrintsToken(t *testing.T) {
	root := provisioned(t, "hunter2", vault.Secret{Token: "abc123"})

	out, err := run("-d", root, "-p", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "SUCCESS\nToken: abc123\n", out)
}

func TestRecoverNotesAIKeyWithoutPrintingIt(t *testing.T) {
	root := provisioned(t, "hunter2", vault.Secret{Token: "abc123", AIKey: "sk-secret"})

	out, err := run("--drive", root, "--password", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "AI key present (not printed for security).")
	assert.NotContains(t, out, "sk-secret")
}

func TestRecoverWrongPassword(t *testing.T) {
	root := provisioned(t, "hunter2", vault.Secret{Token: "abc123"})

	out, err := run("-d", root, "-p", "wrong")
	require.Error(t, err)
	assert.Equal(t, "decryption failed: incorrect password or corrupted file", err.Error())
	assert.Empty(t, out)
}

func TestRecoverMissingFile(t *testing.T) {
	root := t.TempDir()
	_, err := run("-d", root, "-p", "hunter2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), filepath.Join(root, store.CapsuleFilename))
}

func TestRecoverMalformedFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, store.CapsuleFilename), []byte("{}"), 0o600))

	_, err := run("-d", root, "-p", "hunter2")
	assert.ErrorIs(t, err, vault.ErrMalformedCapsule)
}

func TestRecoverPromptsForPassword(t *testing.T) {
	root := provisioned(t, "hunter2", vault.Secret{Token: "abc123"})
	orig := secretReader
	t.Cleanup(func() { secretReader = orig })
	secretReader = func(string) ([]byte, error) { return []byte("hunter2"), nil }

	out, err := run("-d", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Token: abc123")
}
