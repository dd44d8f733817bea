package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addModule creates a module root with the given partition contributions
// and marker files.
func addModule(t *testing.T, moduleDir, id string, partitions []string, markers ...string) string {
	t.Helper()
	root := filepath.Join(moduleDir, id)
	require.NoError(t, os.MkdirAll(root, 0o755))
	for _, p := range partitions {
		require.NoError(t, os.MkdirAll(filepath.Join(root, p), 0o755))
	}
	for _, m := range markers {
		require.NoError(t, os.WriteFile(filepath.Join(root, m), nil, 0o644))
	}
	return root
}

func TestBuildPlan(t *testing.T) {
	dir := t.TempDir()
	addModule(t, dir, "alpha", []string{"system", "vendor"})
	addModule(t, dir, "beta", []string{"system"})
	addModule(t, dir, "disabled", []string{"system"}, markerDisable)
	addModule(t, dir, "skipped", []string{"system"}, markerSkipMount)
	magicRoot := addModule(t, dir, "legacy", []string{"system"}, markerMagic)

	plan, err := BuildPlan(dir, []string{"system", "vendor"})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"alpha", "beta"}, plan.OverlayModuleIDs)
	assert.Equal(t, []string{magicRoot}, plan.MagicModulePaths)

	require.Len(t, plan.OverlayOps, 2)
	assert.Equal(t, "/system", plan.OverlayOps[0].Target)
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "alpha", "system"),
		filepath.Join(dir, "beta", "system"),
	}, plan.OverlayOps[0].LowerDirs)

	assert.Equal(t, "/vendor", plan.OverlayOps[1].Target)
	assert.Equal(t, []string{filepath.Join(dir, "alpha", "vendor")}, plan.OverlayOps[1].LowerDirs)
}

func TestBuildPlanIgnoresPartitionsWithoutContribution(t *testing.T) {
	dir := t.TempDir()
	addModule(t, dir, "alpha", []string{"system"})

	plan, err := BuildPlan(dir, []string{"system", "vendor", "product"})
	require.NoError(t, err)

	require.Len(t, plan.OverlayOps, 1)
	assert.Equal(t, "/system", plan.OverlayOps[0].Target)
}

func TestBuildPlanMissingModuleDir(t *testing.T) {
	plan, err := BuildPlan(filepath.Join(t.TempDir(), "absent"), []string{"system"})
	require.NoError(t, err)
	assert.Empty(t, plan.OverlayOps)
	assert.Empty(t, plan.MagicModulePaths)
	assert.Empty(t, plan.OverlayModuleIDs)
}

func TestBuildPlanIgnoresPlainFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stray.txt"), []byte("x"), 0o644))
	addModule(t, dir, "alpha", []string{"system"})

	plan, err := BuildPlan(dir, []string{"system"})
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha"}, plan.OverlayModuleIDs)
}

func TestBuildPlanModuleWithoutContributionGetsNoID(t *testing.T) {
	dir := t.TempDir()
	addModule(t, dir, "empty", nil)

	plan, err := BuildPlan(dir, []string{"system"})
	require.NoError(t, err)
	assert.Empty(t, plan.OverlayModuleIDs)
	assert.Empty(t, plan.OverlayOps)
}
