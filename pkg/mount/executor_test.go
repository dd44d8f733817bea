package mount

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type overlayCall struct {
	target    string
	lowerDirs []string
	upperDir  string
	workDir   string
}

// fakeOverlay fails mounts whose target is listed in failTargets.
type fakeOverlay struct {
	calls       []overlayCall
	failTargets map[string]bool
}

func (f *fakeOverlay) Mount(target string, lowerDirs []string, upperDir, workDir string, _ bool) error {
	f.calls = append(f.calls, overlayCall{target, lowerDirs, upperDir, workDir})
	if f.failTargets[target] {
		return errors.New("overlay rejected by kernel")
	}
	return nil
}

type magicCall struct {
	stagingDir  string
	moduleRoots []string
	mountSource string
	partitions  []string
}

type fakeMagic struct {
	calls []magicCall
	fail  bool
}

func (f *fakeMagic) Mount(stagingDir string, moduleRoots []string, mountSource string, partitions []string, _ bool) error {
	f.calls = append(f.calls, magicCall{stagingDir, moduleRoots, mountSource, partitions})
	if f.fail {
		return errors.New("replication adapter failure")
	}
	return nil
}

type fakeStager struct {
	selected  string
	selectErr error
	ensureErr error
	ensured   []string
	cleaned   []string
}

func (f *fakeStager) Select() (string, error) { return f.selected, f.selectErr }
func (f *fakeStager) Ensure(path string) error {
	f.ensured = append(f.ensured, path)
	return f.ensureErr
}
func (f *fakeStager) Cleanup(path string) { f.cleaned = append(f.cleaned, path) }

func testPlan() *Plan {
	return &Plan{
		OverlayOps: []OverlayOp{
			{
				Target: "/system",
				LowerDirs: []string{
					"/data/modules/alpha/system",
					"/data/modules/beta/system",
				},
			},
			{
				Target: "/vendor",
				LowerDirs: []string{
					"/data/modules/alpha/vendor",
				},
			},
		},
		MagicModulePaths: []string{"/data/modules/legacy"},
		OverlayModuleIDs: []string{"alpha", "beta"},
	}
}

func testOptions() Options {
	return Options{
		MountSource: "hymo",
		Partitions:  []string{"system", "vendor"},
	}
}

func newTestExecutor(overlay *fakeOverlay, magic *fakeMagic, stager *fakeStager) *Executor {
	return NewExecutor(overlay, magic, WithStager(stager))
}

func TestExecuteAllOverlaysSucceed(t *testing.T) {
	overlay := &fakeOverlay{}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test"}

	res, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, res.OverlayModuleIDs)
	assert.Equal(t, []string{"legacy"}, res.MagicModuleIDs)

	// Overlay attempts are read-only: no upper or work dir, ever.
	require.Len(t, overlay.calls, 2)
	for _, call := range overlay.calls {
		assert.Empty(t, call.upperDir)
		assert.Empty(t, call.workDir)
	}

	// The unconditional magic module still goes through replication.
	require.Len(t, magic.calls, 1)
	assert.Equal(t, []string{"/data/modules/legacy"}, magic.calls[0].moduleRoots)
	assert.Equal(t, "hymo", magic.calls[0].mountSource)
	assert.Equal(t, []string{"system", "vendor"}, magic.calls[0].partitions)

	// Staging directory was acquired and released.
	assert.Equal(t, []string{"/tmp/hymo_test"}, stager.ensured)
	assert.Equal(t, []string{"/tmp/hymo_test"}, stager.cleaned)
}

func TestExecuteOverlayFailureFallsBack(t *testing.T) {
	overlay := &fakeOverlay{failTargets: map[string]bool{"/vendor": true}}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test"}

	res, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), testOptions())
	require.NoError(t, err)

	// alpha contributed the failing /vendor layer: it moves to magic and
	// is not double-reported as overlay-mounted even though its /system
	// layer succeeded.
	assert.Equal(t, []string{"beta"}, res.OverlayModuleIDs)
	assert.Equal(t, []string{"alpha", "legacy"}, res.MagicModuleIDs)

	require.Len(t, magic.calls, 1)
	assert.ElementsMatch(t, []string{"/data/modules/alpha", "/data/modules/legacy"},
		magic.calls[0].moduleRoots)
}

func TestExecuteAllOverlaysFailing(t *testing.T) {
	overlay := &fakeOverlay{failTargets: map[string]bool{"/system": true, "/vendor": true}}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test"}

	res, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), testOptions())
	require.NoError(t, err)

	assert.Empty(t, res.OverlayModuleIDs)
	assert.Equal(t, []string{"alpha", "beta", "legacy"}, res.MagicModuleIDs)

	// alpha failed on both partitions but is replicated exactly once.
	require.Len(t, magic.calls, 1)
	assert.Equal(t, []string{"/data/modules/alpha", "/data/modules/beta", "/data/modules/legacy"},
		magic.calls[0].moduleRoots)
}

func TestExecuteMagicFailureFailsClosed(t *testing.T) {
	overlay := &fakeOverlay{failTargets: map[string]bool{"/system": true}}
	magic := &fakeMagic{fail: true}
	stager := &fakeStager{selected: "/tmp/hymo_test"}

	res, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), testOptions())
	require.NoError(t, err)

	// The batch outcome is unknown, so nothing is reported as replicated.
	assert.Empty(t, res.MagicModuleIDs)
	assert.Equal(t, []string{"beta"}, res.OverlayModuleIDs)

	// Cleanup still ran.
	assert.Equal(t, []string{"/tmp/hymo_test"}, stager.cleaned)
}

func TestExecuteStagingOverride(t *testing.T) {
	overlay := &fakeOverlay{}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/should_not_be_used"}

	opts := testOptions()
	opts.StagingDir = "/custom/staging"

	_, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), opts)
	require.NoError(t, err)

	// The override wins over the computed default.
	assert.Equal(t, []string{"/custom/staging"}, stager.ensured)
	assert.Equal(t, []string{"/custom/staging"}, stager.cleaned)
	require.Len(t, magic.calls, 1)
	assert.Equal(t, "/custom/staging", magic.calls[0].stagingDir)
}

func TestExecuteNoMagicModules(t *testing.T) {
	plan := testPlan()
	plan.MagicModulePaths = nil

	overlay := &fakeOverlay{}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test"}

	res, err := newTestExecutor(overlay, magic, stager).Execute(plan, testOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, res.OverlayModuleIDs)
	assert.Empty(t, res.MagicModuleIDs)

	// No batch, no staging activity.
	assert.Empty(t, magic.calls)
	assert.Empty(t, stager.ensured)
	assert.Empty(t, stager.cleaned)
}

func TestExecuteStagingSelectErrorIsFatal(t *testing.T) {
	overlay := &fakeOverlay{}
	magic := &fakeMagic{}
	stager := &fakeStager{selectErr: errors.New("no usable base")}

	_, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), testOptions())
	assert.Error(t, err)
	assert.Empty(t, magic.calls)
}

func TestExecuteStagingEnsureErrorIsFatal(t *testing.T) {
	overlay := &fakeOverlay{}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test", ensureErr: errors.New("read-only fs")}

	_, err := newTestExecutor(overlay, magic, stager).Execute(testPlan(), testOptions())
	assert.Error(t, err)
	assert.Empty(t, magic.calls)
}

func TestExecuteEmptyPlan(t *testing.T) {
	overlay := &fakeOverlay{}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test"}

	res, err := newTestExecutor(overlay, magic, stager).Execute(&Plan{}, testOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{}, res.OverlayModuleIDs)
	assert.Equal(t, []string{}, res.MagicModuleIDs)
}

type recordingMetrics struct {
	overlayResults []string
	fallbackCounts []int
	magicResults   []string
	mounted        map[string]int
}

func (r *recordingMetrics) RecordOverlayMount(result string) {
	r.overlayResults = append(r.overlayResults, result)
}
func (r *recordingMetrics) RecordFallbackModules(count int) {
	r.fallbackCounts = append(r.fallbackCounts, count)
}
func (r *recordingMetrics) RecordMagicBatch(result string, _ int) {
	r.magicResults = append(r.magicResults, result)
}
func (r *recordingMetrics) RecordMountedModules(mechanism string, count int) {
	if r.mounted == nil {
		r.mounted = map[string]int{}
	}
	r.mounted[mechanism] = count
}

func TestExecuteRecordsMetrics(t *testing.T) {
	overlay := &fakeOverlay{failTargets: map[string]bool{"/vendor": true}}
	magic := &fakeMagic{}
	stager := &fakeStager{selected: "/tmp/hymo_test"}
	rec := &recordingMetrics{}

	exec := NewExecutor(overlay, magic, WithStager(stager), WithMetrics(rec))
	_, err := exec.Execute(testPlan(), testOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"success", "fallback"}, rec.overlayResults)
	assert.Equal(t, []int{1}, rec.fallbackCounts)
	assert.Equal(t, []string{"success"}, rec.magicResults)
	assert.Equal(t, map[string]int{"overlay": 1, "magic": 2}, rec.mounted)
}
