// Package mount executes module mount plans against a live root.
//
// A plan describes which module layer directories should be composed onto
// which targets. The executor prefers overlayfs union mounts (one mount
// covers any number of layers) and degrades per mount point to "magic
// mount" replication when the kernel or policy rejects the overlay. The
// package guarantees a well-defined, reportable end state regardless of
// partial failures: the returned result says exactly which modules ended
// up mounted by which mechanism.
package mount

import (
	"path/filepath"
	"sort"
)

// OverlayOp is one union-mount operation: compose the given layer
// directories, in order, onto Target. Layer order is caller-defined and
// preserved as given.
type OverlayOp struct {
	// Target is the mount point, e.g. "/system".
	Target string

	// LowerDirs are the partition layer paths to compose. Each one is a
	// module's per-partition contribution, <module_root>/<partition>.
	LowerDirs []string
}

// Plan is the precomputed mount plan. It is read-only to the executor.
type Plan struct {
	// OverlayOps are the union-mount operations, in execution order.
	OverlayOps []OverlayOp

	// MagicModulePaths are module roots slated unconditionally for
	// replication mount.
	MagicModulePaths []string

	// OverlayModuleIDs is the full set of module IDs the plan intends to
	// mount via the union mechanism, before any fallback.
	OverlayModuleIDs []string
}

// Result reports what actually ended up mounted by which mechanism. Both
// sets are deduplicated and sorted for deterministic reporting.
type Result struct {
	// OverlayModuleIDs are modules mounted via overlayfs.
	OverlayModuleIDs []string

	// MagicModuleIDs are modules mounted via replication.
	MagicModuleIDs []string
}

// ModuleRoot derives the module root directory from a partition layer
// path. The layout convention is fixed: a layer path is always
// <module_root>/<partition>, so the root is the parent.
func ModuleRoot(layerPath string) string {
	return filepath.Dir(layerPath)
}

// ModuleID derives the module ID from a partition layer path. The ID is
// the file name of the module root; it is derived, never stored.
func ModuleID(layerPath string) string {
	return filepath.Base(ModuleRoot(layerPath))
}

// canonicalize sorts ids and removes duplicates in place, returning the
// canonical slice. A nil or empty input yields an empty, non-nil slice so
// results compare predictably.
func canonicalize(ids []string) []string {
	sort.Strings(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	if out == nil {
		out = []string{}
	}
	return out
}
