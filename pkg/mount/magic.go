package mount

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/hymofs/hymo/internal/logger"
)

// mountOps abstracts mount(2) so the staging logic can be exercised
// without privileges. Production code uses unixOps.
type mountOps interface {
	Mount(source, target, fstype string, flags uintptr, data string) error
}

type unixOps struct{}

func (unixOps) Mount(source, target, fstype string, flags uintptr, data string) error {
	return unix.Mount(source, target, fstype, flags, data)
}

// MagicFS replicates module trees onto the real partitions with recursive
// bind mounts ("magic mount"). A tmpfs staged under the configured mount
// source holds the merged skeleton for each partition; individual entries
// are bind-mounted from either the real partition or a module layer, then
// the staged partition root is bound over the real one.
type MagicFS struct {
	ops mountOps
}

// NewMagicFS returns the bind-mount-backed MagicMounter.
func NewMagicFS() *MagicFS {
	return &MagicFS{ops: unixOps{}}
}

// Mount implements MagicMounter. moduleRoots must already be deduplicated;
// mounting the same root twice would stack redundant binds.
func (m *MagicFS) Mount(stagingDir string, moduleRoots []string, mountSource string, partitions []string, disableUmount bool) error {
	if err := m.ops.Mount(mountSource, stagingDir, "tmpfs", 0, ""); err != nil {
		return fmt.Errorf("mount staging tmpfs on %s: %w", stagingDir, err)
	}

	for _, partition := range partitions {
		layers := partitionLayers(moduleRoots, partition)
		if len(layers) == 0 {
			continue
		}

		real := "/" + partition
		if info, err := os.Stat(real); err != nil || !info.IsDir() {
			logger.Debug("partition absent, skipping", logger.KeyPartition, partition)
			continue
		}

		staged := filepath.Join(stagingDir, partition)
		if err := m.stageTree(staged, real, layers); err != nil {
			return fmt.Errorf("stage partition %s: %w", partition, err)
		}

		if err := m.ops.Mount(staged, real, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
			return fmt.Errorf("bind staged %s onto %s: %w", staged, real, err)
		}

		if !disableUmount {
			if err := m.ops.Mount("", real, "", unix.MS_PRIVATE|unix.MS_REC, ""); err != nil {
				logger.Warn("could not mark partition private",
					logger.KeyPartition, partition,
					logger.KeyError, err)
			}
		}

		logger.Info("magic mounted partition",
			logger.KeyPartition, partition,
			logger.KeyLayers, len(layers))
	}

	return nil
}

// partitionLayers returns each module's contribution directory for the
// partition, in module order. Later layers take precedence during the
// merge, matching the overlay layer convention.
func partitionLayers(moduleRoots []string, partition string) []string {
	var layers []string
	for _, root := range moduleRoots {
		layer := filepath.Join(root, partition)
		if info, err := os.Stat(layer); err == nil && info.IsDir() {
			layers = append(layers, layer)
		}
	}
	return layers
}

// stageTree builds the merged view of real plus layers under staged.
// Entries contributed by a layer shadow the real ones; whiteout markers
// (zero-rdev character devices) suppress an entry entirely; everything
// untouched is bind-mounted straight from the real partition.
func (m *MagicFS) stageTree(staged, real string, layers []string) error {
	mode := fs.FileMode(0o755)
	if real != "" {
		if info, err := os.Stat(real); err == nil {
			mode = info.Mode().Perm()
		}
	}
	if err := os.MkdirAll(staged, mode); err != nil {
		return fmt.Errorf("mkdir %s: %w", staged, err)
	}

	for _, name := range mergedNames(real, layers) {
		if err := m.stageEntry(staged, real, layers, name); err != nil {
			return err
		}
	}
	return nil
}

// stageEntry stages one directory entry of the merged view.
func (m *MagicFS) stageEntry(staged, real string, layers []string, name string) error {
	stagedPath := filepath.Join(staged, name)

	// Highest-precedence layer containing the entry wins.
	var source string
	for i := len(layers) - 1; i >= 0; i-- {
		candidate := filepath.Join(layers[i], name)
		if _, err := os.Lstat(candidate); err == nil {
			source = candidate
			break
		}
	}

	realPath := ""
	if real != "" {
		candidate := filepath.Join(real, name)
		if _, err := os.Lstat(candidate); err == nil {
			realPath = candidate
		}
	}

	if source == "" {
		// Untouched by any module: bind the real entry through.
		return m.stagePassthrough(stagedPath, realPath)
	}

	info, err := os.Lstat(source)
	if err != nil {
		return fmt.Errorf("lstat %s: %w", source, err)
	}

	switch classify(info) {
	case entryIsWhiteout:
		// Suppressed path: stage nothing, the entry disappears.
		logger.Debug("whiteout", logger.KeyPath, stagedPath)
		return nil
	case entryIsDir:
		subLayers := subtreeLayers(layers, name)
		subReal := ""
		if realPath != "" {
			if ri, err := os.Stat(realPath); err == nil && ri.IsDir() {
				subReal = realPath
			}
		}
		return m.stageTree(stagedPath, subReal, subLayers)
	case entryIsSymlink:
		target, err := os.Readlink(source)
		if err != nil {
			return fmt.Errorf("readlink %s: %w", source, err)
		}
		return os.Symlink(target, stagedPath)
	case entryIsFile:
		if err := touch(stagedPath, info.Mode().Perm()); err != nil {
			return err
		}
		if err := m.ops.Mount(source, stagedPath, "", unix.MS_BIND, ""); err != nil {
			return fmt.Errorf("bind %s onto %s: %w", source, stagedPath, err)
		}
		return nil
	default:
		logger.Debug("skipping unsupported module entry", logger.KeyPath, source)
		return nil
	}
}

// stagePassthrough binds an entry of the real partition into the staged
// tree unchanged.
func (m *MagicFS) stagePassthrough(stagedPath, realPath string) error {
	if realPath == "" {
		return nil
	}
	info, err := os.Lstat(realPath)
	if err != nil {
		return fmt.Errorf("lstat %s: %w", realPath, err)
	}

	switch {
	case info.Mode()&fs.ModeSymlink != 0:
		target, err := os.Readlink(realPath)
		if err != nil {
			return fmt.Errorf("readlink %s: %w", realPath, err)
		}
		return os.Symlink(target, stagedPath)
	case info.IsDir():
		if err := os.MkdirAll(stagedPath, info.Mode().Perm()); err != nil {
			return err
		}
		if err := m.ops.Mount(realPath, stagedPath, "", unix.MS_BIND|unix.MS_REC, ""); err != nil {
			return fmt.Errorf("bind %s onto %s: %w", realPath, stagedPath, err)
		}
		return nil
	case info.Mode().IsRegular():
		if err := touch(stagedPath, info.Mode().Perm()); err != nil {
			return err
		}
		if err := m.ops.Mount(realPath, stagedPath, "", unix.MS_BIND, ""); err != nil {
			return fmt.Errorf("bind %s onto %s: %w", realPath, stagedPath, err)
		}
		return nil
	default:
		// Device nodes, sockets and pipes are left to the real
		// partition's own mount; staging them adds nothing.
		return nil
	}
}

// mergedEntryKind is a closed classification of merged-tree entries,
// including the whiteout marker.
type mergedEntryKind int

const (
	entryIsFile mergedEntryKind = iota
	entryIsSymlink
	entryIsDir
	entryIsWhiteout
	entryIsOther
)

func classify(info fs.FileInfo) mergedEntryKind {
	mode := info.Mode()
	switch {
	case mode&fs.ModeSymlink != 0:
		return entryIsSymlink
	case mode&fs.ModeCharDevice != 0:
		if st, ok := info.Sys().(*syscall.Stat_t); ok && st.Rdev == 0 {
			return entryIsWhiteout
		}
		return entryIsOther
	case mode.IsDir():
		return entryIsDir
	case mode.IsRegular():
		return entryIsFile
	default:
		return entryIsOther
	}
}

// mergedNames returns the sorted union of entry names across the real
// directory and all layers.
func mergedNames(real string, layers []string) []string {
	seen := make(map[string]struct{})
	var names []string

	add := func(dir string) {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return
		}
		for _, e := range entries {
			if _, ok := seen[e.Name()]; !ok {
				seen[e.Name()] = struct{}{}
				names = append(names, e.Name())
			}
		}
	}

	if real != "" {
		add(real)
	}
	for _, layer := range layers {
		add(layer)
	}

	return canonicalize(names)
}

// subtreeLayers narrows each layer to its subdirectory for name, keeping
// only those that actually have one.
func subtreeLayers(layers []string, name string) []string {
	var subs []string
	for _, layer := range layers {
		sub := filepath.Join(layer, name)
		if info, err := os.Stat(sub); err == nil && info.IsDir() {
			subs = append(subs, sub)
		}
	}
	return subs
}

// touch creates an empty placeholder file to serve as a bind target.
func touch(path string, mode fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, mode)
	if err != nil {
		return fmt.Errorf("create bind target %s: %w", path, err)
	}
	return f.Close()
}
