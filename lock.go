package modelref

import (
	"fmt"
	"os"
	"time"
)

// lockPollMax caps the backoff between lock attempts.
const lockPollMax = 100 * time.Millisecond

// acquireLock takes an exclusive cross-process lock on path, creating the
// file if needed, and returns the function that releases it. It polls with
// backoff until timeout expires.
func acquireLock(path string, timeout time.Duration) (release func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	wait := 10 * time.Millisecond
	for {
		if err := tryLock(f); err == nil {
			break
		}
		if time.Now().After(deadline) {
			f.Close()
			return nil, fmt.Errorf("lock %s: timeout after %v", path, timeout)
		}
		time.Sleep(wait)
		if wait < lockPollMax {
			wait *= 2
		}
	}

	return func() error {
		err := unlock(f)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		return err
	}, nil
}
