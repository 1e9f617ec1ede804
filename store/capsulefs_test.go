package store

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/vault"
)

func testCapsule(fill byte) vault.Capsule {
	return vault.Capsule{
		Version:    vault.CurrentVersion,
		Salt:       bytes.Repeat([]byte{fill}, 16),
		Nonce:      bytes.Repeat([]byte{fill}, 12),
		Ciphertext: bytes.Repeat([]byte{fill}, 24),
	}
}

func TestResolveRoot(t *testing.T) {
	if got := ResolveRoot("D:").Root; got != `D:\` {
		t.Fatalf("expected D:\\, got %q", got)
	}
	if got := ResolveRoot("/media/usb").Root; got != "/media/usb" {
		t.Fatalf("unexpected root %q", got)
	}
}

func TestSaveAndLoadCapsule(t *testing.T) {
	p := Paths{Root: t.TempDir()}

	if err := SaveCapsule(p, testCapsule(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := LoadCapsule(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := vault.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Salt[0] != 1 {
		t.Fatalf("unexpected capsule %+v", got)
	}

	entries, err := os.ReadDir(p.Root)
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != CapsuleFilename {
		t.Fatalf("expected only %s, got %v", CapsuleFilename, entries)
	}
}

func TestSaveCapsuleOverwrites(t *testing.T) {
	p := Paths{Root: t.TempDir()}
	if err := SaveCapsule(p, testCapsule(1)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := SaveCapsule(p, testCapsule(2)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	data, err := LoadCapsule(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, err := vault.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Salt[0] != 2 {
		t.Fatal("capsule was not replaced")
	}
}

func TestSaveCapsuleMissingRoot(t *testing.T) {
	p := Paths{Root: filepath.Join(t.TempDir(), "absent")}
	err := SaveCapsule(p, testCapsule(1))
	if !errors.Is(err, vault.ErrDestinationNotWritable) {
		t.Fatalf("expected ErrDestinationNotWritable, got %v", err)
	}
}

func TestSaveCapsuleRootIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	err := SaveCapsule(Paths{Root: file}, testCapsule(1))
	if !errors.Is(err, vault.ErrDestinationNotWritable) {
		t.Fatalf("expected ErrDestinationNotWritable, got %v", err)
	}
}

func TestSaveCapsuleReadOnlyRoot(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits not enforced")
	}
	dir := t.TempDir()
	if err := os.Chmod(dir, 0o500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(dir, 0o700) })

	err := SaveCapsule(Paths{Root: dir}, testCapsule(1))
	if !errors.Is(err, vault.ErrDestinationNotWritable) {
		t.Fatalf("expected ErrDestinationNotWritable, got %v", err)
	}
}

func TestLoadCapsuleMissing(t *testing.T) {
	_, err := LoadCapsule(Paths{Root: t.TempDir()})
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected os.ErrNotExist, got %v", err)
	}
}
