package vectorDB

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	tmpMarker = ".tmp-"
	oldMarker = ".old-"
)

// ReplaceDir lets write fill a fresh sibling directory and then swaps it in place of dir.
// On success nothing of the previous content is reachable under dir. On failure dir is
// left as it was.
func ReplaceDir(dir string, write func(tmp string) error) error {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return fmt.Errorf("create parent of %s: %w", dir, err)
	}

	suffix := uuid.NewString()
	tmp := dir + tmpMarker + suffix
	old := dir + oldMarker + suffix

	if err := os.MkdirAll(tmp, 0o755); err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	if err := write(tmp); err != nil {
		_ = os.RemoveAll(tmp)
		return err
	}

	hadOld := false
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			_ = os.RemoveAll(tmp)
			return fmt.Errorf("move current index aside: %w", err)
		}
		hadOld = true
	} else if !errors.Is(err, os.ErrNotExist) {
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("stat %s: %w", dir, err)
	}

	if err := os.Rename(tmp, dir); err != nil {
		if hadOld {
			_ = os.Rename(old, dir)
		}
		_ = os.RemoveAll(tmp)
		return fmt.Errorf("swap in new index: %w", err)
	}

	if hadOld {
		if err := os.RemoveAll(old); err != nil {
			// SweepStale picks it up on the next start
			logger.Warn("could not remove previous index copy", "path", old, "error", err)
		}
	}
	return nil
}

// SweepStale removes staging and retired siblings of dir left behind by an interrupted replace.
func SweepStale(dir string) (int, error) {
	dir = filepath.Clean(dir)
	var removed int
	var errs []error
	for _, marker := range []string{tmpMarker, oldMarker} {
		matches, err := filepath.Glob(dir + marker + "*")
		if err != nil {
			return removed, err
		}
		for _, m := range matches {
			if err := os.RemoveAll(m); err != nil {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}
