package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Hussein-Mazeh/cybervision-unlock/internal/vault"
)

// CapsuleFilename is the well-known capsule name at the medium root.
const CapsuleFilename = "cybervision_unlock.bin"

// Paths locates capsule artifacts on a removable medium.
type Paths struct {
	Root string
}

// ResolveRoot turns a drive argument into a medium root. A bare Windows
// drive letter such as "D:" becomes "D:\".
func ResolveRoot(drive string) Paths {
	drive = strings.TrimSpace(drive)
	if len(drive) == 2 && drive[1] == ':' {
		return Paths{Root: drive + `\`}
	}
	return Paths{Root: drive}
}

// CapsulePath resolves the capsule file path.
func (p Paths) CapsulePath() string {
	return filepath.Join(p.Root, CapsuleFilename)
}

// CheckRoot reports whether the medium root exists and is a directory.
func (p Paths) CheckRoot() error {
	if p.Root == "" {
		return errors.New("drive root not specified")
	}
	info, err := os.Stat(p.Root)
	if err != nil {
		return fmt.Errorf("drive root not found: %s", p.Root)
	}
	if !info.IsDir() {
		return fmt.Errorf("drive root is not a directory: %s", p.Root)
	}
	return nil
}

// LoadCapsule reads the capsule bytes from the medium. A missing file is
// returned as an error wrapping os.ErrNotExist.
func LoadCapsule(p Paths) ([]byte, error) {
	data, err := os.ReadFile(p.CapsulePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("unlock file not found at %s: %w", p.CapsulePath(), err)
		}
		return nil, fmt.Errorf("read capsule: %w", err)
	}
	return data, nil
}

// SaveCapsule encodes c and replaces the capsule on the medium in a single
// rename, overwriting any existing capsule.
func SaveCapsule(p Paths, c vault.Capsule) error {
	data, err := vault.Encode(c)
	if err != nil {
		return err
	}
	return writeAtomic(p, data)
}

func writeAtomic(p Paths, data []byte) error {
	if err := p.CheckRoot(); err != nil {
		return fmt.Errorf("%w: %v", vault.ErrDestinationNotWritable, err)
	}

	tmp, err := os.CreateTemp(p.Root, ".unlock-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp capsule: %v", vault.ErrDestinationNotWritable, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: write temp capsule: %v", vault.ErrDestinationNotWritable, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: sync temp capsule: %v", vault.ErrDestinationNotWritable, err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: close temp capsule: %v", vault.ErrDestinationNotWritable, err)
	}

	// Removable media are commonly FAT/exFAT; chmod is best effort there.
	_ = os.Chmod(tmpPath, 0o600)

	if err := os.Rename(tmpPath, p.CapsulePath()); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replace capsule: %v", vault.ErrDestinationNotWritable, err)
	}
	return nil
}
