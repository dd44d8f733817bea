package hymofs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/hymofs/hymo/internal/logger"
)

// entryKind is a closed classification of directory entries. Keeping the
// set closed means a new entry kind added later is a compile-time-visible
// gap in the dispatch below, not a silently skipped case.
type entryKind int

const (
	entryFile entryKind = iota
	entrySymlink
	entryDir
	entryCharDev
	entryOther
)

// classifyEntry maps a file mode to its entryKind.
func classifyEntry(mode fs.FileMode) entryKind {
	switch {
	case mode&fs.ModeSymlink != 0:
		return entrySymlink
	case mode&fs.ModeCharDevice != 0:
		return entryCharDev
	case mode.IsDir():
		return entryDir
	case mode.IsRegular():
		return entryFile
	default:
		return entryOther
	}
}

// rdevOf returns the device number of a character device entry.
func rdevOf(info fs.FileInfo) uint64 {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0
	}
	return uint64(st.Rdev)
}

// ProjectDirectory translates the contents of moduleDir into HymoFS rules
// rooted under targetBase.
//
// The target base is first marked as an injection boundary, then every
// entry of moduleDir (excluding the root itself) is visited and re-rooted
// under targetBase:
//
//   - regular file: add rule with RuleTypeFile
//   - symlink: add rule with RuleTypeSymlink
//   - character device with device number zero: hide the target path
//     (the whiteout convention — a zero-rdev device node is a deletion
//     marker, not a real device)
//   - character device with a real device number: no rule
//   - directory: mark as an injection boundary
//
// A missing or non-directory moduleDir is a silent no-op: absent
// contributions are valid.
func (cl *Client) ProjectDirectory(targetBase, moduleDir string) error {
	info, err := os.Stat(moduleDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	if err := cl.InjectDir(targetBase); err != nil {
		return err
	}

	return cl.walkModule(targetBase, moduleDir, func(target, source string, d fs.DirEntry) error {
		switch classifyEntry(d.Type()) {
		case entryFile:
			return cl.AddRule(target, source, RuleTypeFile)
		case entrySymlink:
			return cl.AddRule(target, source, RuleTypeSymlink)
		case entryCharDev:
			info, err := d.Info()
			if err != nil {
				return fmt.Errorf("stat %s: %w", source, err)
			}
			if rdevOf(info) == 0 {
				return cl.HidePath(target)
			}
			// Real device nodes are not redirected.
			return nil
		case entryDir:
			return cl.InjectDir(target)
		case entryOther:
			logger.Debug("skipping unsupported entry",
				logger.KeyPath, source,
				logger.KeyType, d.Type().String())
			return nil
		default:
			return nil
		}
	})
}

// UnprojectDirectory mirrors ProjectDirectory's traversal over moduleDir
// and deletes the rule for every relative path, regardless of entry type.
// Like projection, it is a silent no-op when moduleDir does not exist or
// is not a directory.
func (cl *Client) UnprojectDirectory(targetBase, moduleDir string) error {
	info, err := os.Stat(moduleDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	return cl.walkModule(targetBase, moduleDir, func(target, _ string, _ fs.DirEntry) error {
		return cl.DeleteRule(target)
	})
}

// walkModule visits every entry below moduleDir exactly once, calling fn
// with the entry's path re-rooted under targetBase and its real source
// path. The module root itself is not visited.
func (cl *Client) walkModule(targetBase, moduleDir string, fn func(target, source string, d fs.DirEntry) error) error {
	return filepath.WalkDir(moduleDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", moduleDir, err)
		}
		if path == moduleDir {
			return nil
		}

		rel, err := filepath.Rel(moduleDir, path)
		if err != nil {
			return fmt.Errorf("relativize %s under %s: %w", path, moduleDir, err)
		}

		return fn(filepath.Join(targetBase, rel), path, d)
	})
}
