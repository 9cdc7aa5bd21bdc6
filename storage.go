package modelref

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultLockTimeout is the default timeout for acquiring file locks.
const DefaultLockTimeout = 30 * time.Second

// Save writes ref to path as a reference document with four-space
// indentation and a trailing newline. Loaded records keep their document
// order and members; new records follow in name order. The write is atomic
// and holds the advisory lock for path so concurrent editors serialize.
func Save(path string, ref Reference) error {
	data, err := encodeReference(ref)
	if err != nil {
		return fmt.Errorf("%w: encoding reference: %v", ErrStorage, err)
	}

	return withFileLock(lockFile(path), DefaultLockTimeout, func() error {
		return atomicWrite(path, data)
	})
}

// lockFile returns the lock file guarding target. It lives in the temp
// directory so no lock files end up beside the reference or in diff output.
func lockFile(target string) string {
	if abs, err := filepath.Abs(target); err == nil {
		target = abs
	}
	sum := sha256.Sum256([]byte(target))
	return filepath.Join(os.TempDir(), "horde-modelref-"+hex.EncodeToString(sum[:8])+".lock")
}

// withFileLock runs fn while holding a cross-process lock on lockPath.
func withFileLock(lockPath string, timeout time.Duration, fn func() error) error {
	if err := ensureDir(filepath.Dir(lockPath)); err != nil {
		return err
	}

	release, err := acquireLock(lockPath, timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	defer release()

	return fn()
}

// atomicWrite writes data to a file using write-then-rename.
func atomicWrite(path string, data []byte) error {
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("%w: failed to write temp file: %v", ErrStorage, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("%w: failed to rename temp file: %v", ErrStorage, err)
	}

	return nil
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %v", ErrStorage, path, err)
	}
	return nil
}
