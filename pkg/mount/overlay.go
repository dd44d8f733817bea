package mount

import (
	"fmt"
	"strings"

	"golang.org/x/sys/unix"

	"github.com/hymofs/hymo/internal/logger"
)

// OverlayFS mounts overlayfs unions. It implements OverlayMounter with
// real mount(2) calls and needs CAP_SYS_ADMIN.
type OverlayFS struct{}

// NewOverlayFS returns the overlayfs-backed OverlayMounter.
func NewOverlayFS() *OverlayFS {
	return &OverlayFS{}
}

// Mount composes lowerDirs onto target. With no upper directory the mount
// is read-only; when upperDir is given, workDir must be on the same
// filesystem as upperDir (overlayfs requirement).
func (o *OverlayFS) Mount(target string, lowerDirs []string, upperDir, workDir string, disableUmount bool) error {
	if len(lowerDirs) == 0 {
		return fmt.Errorf("overlay %s: no lower directories", target)
	}

	// overlayfs stacks lowerdir entries highest-precedence first; the
	// plan orders layers lowest to highest, so reverse here.
	reversed := make([]string, len(lowerDirs))
	for i, dir := range lowerDirs {
		reversed[len(lowerDirs)-1-i] = dir
	}

	opts := "lowerdir=" + strings.Join(reversed, ":")
	var flags uintptr = unix.MS_RDONLY
	if upperDir != "" {
		opts += ",upperdir=" + upperDir + ",workdir=" + workDir
		flags = 0
	}

	if err := unix.Mount("overlay", target, "overlay", flags, opts); err != nil {
		return fmt.Errorf("overlay mount on %s: %w", target, err)
	}

	if !disableUmount {
		// Keep the mount private so per-namespace unmounting can peel it
		// off without touching other namespaces.
		if err := unix.Mount("", target, "", unix.MS_PRIVATE, ""); err != nil {
			logger.Warn("could not mark overlay private",
				logger.KeyTarget, target,
				logger.KeyError, err)
		}
	}

	logger.Debug("overlay mounted",
		logger.KeyTarget, target,
		logger.KeyLayers, len(lowerDirs))
	return nil
}
