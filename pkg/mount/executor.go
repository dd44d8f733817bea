package mount

import (
	"fmt"
	"path/filepath"

	"github.com/hymofs/hymo/internal/logger"
)

// OverlayMounter performs one union-filesystem mount of ordered layer
// directories onto a target. The executor always passes empty upper and
// work directories: modules are composed read-only, never mutated in
// place.
type OverlayMounter interface {
	Mount(target string, lowerDirs []string, upperDir, workDir string, disableUmount bool) error
}

// MagicMounter performs recursive bind-mount replication of the given
// module roots onto the real partitions, using stagingDir as scratch
// space. The executor treats each call as atomic: all-or-nothing.
type MagicMounter interface {
	Mount(stagingDir string, moduleRoots []string, mountSource string, partitions []string, disableUmount bool) error
}

// Metrics records mount outcomes. A nil Metrics disables recording with
// zero overhead.
type Metrics interface {
	// RecordOverlayMount counts one overlay mount attempt by result
	// ("success" or "fallback").
	RecordOverlayMount(result string)

	// RecordFallbackModules counts modules that fell back to replication.
	RecordFallbackModules(count int)

	// RecordMagicBatch counts one replication batch by result ("success"
	// or "failure") and the number of modules it covered.
	RecordMagicBatch(result string, moduleCount int)

	// RecordMountedModules sets the current mounted module count for one
	// mechanism ("overlay" or "magic").
	RecordMountedModules(mechanism string, count int)
}

// Options carries the configuration the executor needs for one run.
type Options struct {
	// StagingDir overrides the computed staging location when non-empty.
	StagingDir string

	// MountSource is the source identifier stamped on replication mounts.
	MountSource string

	// Partitions are the partition names the replication adapter iterates.
	Partitions []string

	// DisableUmount suppresses per-namespace unmount tagging on all
	// mounts created by this run.
	DisableUmount bool
}

// magicOutcome is the internal tri-state of the replication batch. The
// external contract exposes only the final ID set, but keeping the
// fail-closed policy an explicit branch makes it auditable.
type magicOutcome int

const (
	magicNotAttempted magicOutcome = iota
	magicSucceeded
	magicFailed
)

// Executor runs mount plans. Construct with NewExecutor.
type Executor struct {
	overlay OverlayMounter
	magic   MagicMounter
	stager  Stager
	metrics Metrics
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithStager replaces the default staging directory provider.
func WithStager(s Stager) ExecutorOption {
	return func(e *Executor) { e.stager = s }
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m Metrics) ExecutorOption {
	return func(e *Executor) { e.metrics = m }
}

// NewExecutor returns an Executor using the given adapters.
func NewExecutor(overlay OverlayMounter, magic MagicMounter, opts ...ExecutorOption) *Executor {
	e := &Executor{
		overlay: overlay,
		magic:   magic,
		stager:  DefaultStager{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the plan and returns which modules ended up mounted by
// which mechanism.
//
// Per-mount-point overlay failures are absorbed: every module contributing
// a layer to the failed operation is queued for replication instead, and
// the remaining operations still run. A replication adapter failure is
// also absorbed — the whole batch is reported as unmounted (fail-closed),
// since a partially applied batch cannot be verified from here. The only
// hard errors are local ones: inability to create or inspect the staging
// directory.
func (e *Executor) Execute(plan *Plan, opts Options) (Result, error) {
	magicQueue := append([]string(nil), plan.MagicModulePaths...)
	overlayIDs := append([]string(nil), plan.OverlayModuleIDs...)
	var fallbackIDs []string

	for _, op := range plan.OverlayOps {
		logger.Info("mounting overlay",
			logger.KeyTarget, op.Target,
			logger.KeyLayers, len(op.LowerDirs))

		err := e.overlay.Mount(op.Target, op.LowerDirs, "", "", opts.DisableUmount)
		if err == nil {
			e.recordOverlay("success")
			continue
		}
		e.recordOverlay("fallback")

		logger.Warn("overlay mount failed, falling back to magic mount",
			logger.KeyTarget, op.Target,
			logger.KeyError, err)

		for _, layer := range op.LowerDirs {
			magicQueue = append(magicQueue, ModuleRoot(layer))
			fallbackIDs = append(fallbackIDs, ModuleID(layer))
		}
	}

	// A module that fell back must not be double-reported as
	// union-mounted.
	if len(fallbackIDs) > 0 {
		overlayIDs = subtract(overlayIDs, fallbackIDs)
		logger.Info("modules fell back to magic mount", logger.KeyCount, len(fallbackIDs))
		if e.metrics != nil {
			e.metrics.RecordFallbackModules(len(fallbackIDs))
		}
	}

	// A module root is queued once per failing partition; it must be
	// staged and replicated only once.
	magicQueue = canonicalize(magicQueue)

	magicIDs := []string{}
	outcome := magicNotAttempted

	if len(magicQueue) > 0 {
		var err error
		magicIDs, outcome, err = e.executeMagic(magicQueue, opts)
		if err != nil {
			return Result{}, err
		}
	}

	if outcome == magicFailed {
		// Fail closed: we genuinely do not know what partially mounted,
		// so the whole batch reports as absent.
		magicIDs = []string{}
	}

	res := Result{
		OverlayModuleIDs: canonicalize(overlayIDs),
		MagicModuleIDs:   canonicalize(magicIDs),
	}
	if e.metrics != nil {
		e.metrics.RecordMountedModules("overlay", len(res.OverlayModuleIDs))
		e.metrics.RecordMountedModules("magic", len(res.MagicModuleIDs))
	}
	return res, nil
}

// executeMagic runs one replication batch inside a staging directory
// scope. The staging directory is released on every exit path.
func (e *Executor) executeMagic(queue []string, opts Options) ([]string, magicOutcome, error) {
	staging := opts.StagingDir
	if staging == "" {
		var err error
		staging, err = e.stager.Select()
		if err != nil {
			return nil, magicNotAttempted, fmt.Errorf("select staging directory: %w", err)
		}
	}

	if err := e.stager.Ensure(staging); err != nil {
		return nil, magicNotAttempted, fmt.Errorf("ensure staging directory %s: %w", staging, err)
	}
	defer e.stager.Cleanup(staging)

	// The replication ID set is derived from the final queue, not the
	// plan: fallback may have added modules the plan never slated for
	// replication.
	ids := make([]string, 0, len(queue))
	for _, root := range queue {
		ids = append(ids, filepath.Base(root))
	}

	logger.Info("executing magic mount",
		logger.KeyCount, len(queue),
		logger.KeyStagingDir, staging)

	if err := e.magic.Mount(staging, queue, opts.MountSource, opts.Partitions, opts.DisableUmount); err != nil {
		logger.Error("magic mount batch failed", logger.KeyError, err)
		e.recordMagic("failure", len(queue))
		return nil, magicFailed, nil
	}

	e.recordMagic("success", len(queue))
	return ids, magicSucceeded, nil
}

func (e *Executor) recordOverlay(result string) {
	if e.metrics != nil {
		e.metrics.RecordOverlayMount(result)
	}
}

func (e *Executor) recordMagic(result string, count int) {
	if e.metrics != nil {
		e.metrics.RecordMagicBatch(result, count)
	}
}

// subtract returns ids without any member of remove.
func subtract(ids, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := ids[:0]
	for _, id := range ids {
		if _, gone := drop[id]; !gone {
			out = append(out, id)
		}
	}
	return out
}
