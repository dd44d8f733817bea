package mount

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/hymofs/hymo/internal/logger"
)

// Stager provides the staging temp directory for one replication batch.
// The three operations are independent: Select computes a default
// location, Ensure makes it exist, Cleanup releases it. The executor owns
// the directory exclusively between Ensure and Cleanup.
type Stager interface {
	Select() (string, error)
	Ensure(path string) error
	Cleanup(path string)
}

// stagingBases are candidate parents for the staging directory, in
// preference order. Early boot favors ramdisk-backed locations so staging
// survives before writable storage is up.
var stagingBases = []string{"/debug_ramdisk", "/dev", "/tmp"}

// DefaultStager is the filesystem-backed Stager.
type DefaultStager struct{}

// Select picks a fresh staging location under the first usable base. The
// path carries a random suffix so concurrent tools never collide; the
// directory itself is not created here.
func (DefaultStager) Select() (string, error) {
	for _, base := range stagingBases {
		info, err := os.Stat(base)
		if err != nil || !info.IsDir() {
			continue
		}
		return filepath.Join(base, "hymo_"+uuid.NewString()[:8]), nil
	}
	return "", fmt.Errorf("no usable staging base among %v", stagingBases)
}

// Ensure creates the staging directory.
func (DefaultStager) Ensure(path string) error {
	return os.MkdirAll(path, 0o700)
}

// Cleanup removes the staging directory. Failure to clean up is logged
// but never surfaced: by this point the mount outcome is already decided.
func (DefaultStager) Cleanup(path string) {
	if err := os.RemoveAll(path); err != nil {
		logger.Warn("staging directory cleanup failed",
			logger.KeyStagingDir, path,
			logger.KeyError, err)
	}
}
