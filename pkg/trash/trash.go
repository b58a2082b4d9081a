// Package trash relocates deleted entry folders instead of destroying them.
package trash

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Move renames path into trashDir under a timestamped name so repeated
// deletes of same-named folders don't collide. Returns the new location.
// Rename-only: moving across filesystems surfaces the OS error to the caller.
func Move(path, trashDir string) (string, error) {
	if err := os.MkdirAll(trashDir, 0o755); err != nil {
		return "", errors.WithStack(err)
	}

	name := fmt.Sprintf("%s_%d", filepath.Base(filepath.Clean(path)), time.Now().Unix())
	dest := filepath.Join(trashDir, name)

	if err := os.Rename(path, dest); err != nil {
		return "", errors.WithStack(err)
	}
	return dest, nil
}
