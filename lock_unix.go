//go:build !windows

package modelref

import (
	"os"
	"syscall"
)

// tryLock takes a non-blocking flock(2) exclusive lock.
func tryLock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
}

func unlock(f *os.File) error {
	return syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
}
