package fileset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestEnumerateFromFSExcludesExtAndSubroot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp4"))
	writeFile(t, filepath.Join(root, "thumb.png"))
	writeFile(t, filepath.Join(root, "excluded", "b.mp4"))

	fset := FileSet{
		Sources:      []string{root},
		Excludes:     []string{filepath.Join(root, "excluded")},
		ExcludedExts: DefaultExcludedExts,
	}

	paths, err := fset.EnumerateFromFS()
	require.NoError(t, err)
	require.Len(t, paths, 1)
	require.Equal(t, filepath.Join(root, "a.mp4"), paths[0])
}

func TestEnumerateFromFSMissingSourceIsFatal(t *testing.T) {
	fset := FileSet{Sources: []string{"/does/not/exist"}}
	_, err := fset.EnumerateFromFS()
	require.Error(t, err)
}

func TestEnumerateIsIdempotent(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.mp4"))

	fset := FileSet{Sources: []string{root}, ExcludedExts: DefaultExcludedExts}
	p1, err := fset.EnumerateFromFS()
	require.NoError(t, err)
	p2, err := fset.EnumerateFromFS()
	require.NoError(t, err)
	require.Equal(t, p1, p2)
}

func TestResolveShadowingRejectsSharedPath(t *testing.T) {
	root := t.TempDir()
	cand := FileSet{Sources: []string{root}}
	refs := FileSet{Sources: []string{root}}
	require.Error(t, ResolveShadowing(&cand, &refs))
}

func TestResolveShadowingAllowsDisjointPaths(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a")
	b := filepath.Join(root, "b")
	require.NoError(t, os.MkdirAll(a, 0o755))
	require.NoError(t, os.MkdirAll(b, 0o755))

	cand := FileSet{Sources: []string{a}}
	refs := FileSet{Sources: []string{b}}
	require.NoError(t, ResolveShadowing(&cand, &refs))
	require.Empty(t, cand.Excludes)
	require.Empty(t, refs.Excludes)
}

func TestResolveShadowingExcludesNestedRefRoot(t *testing.T) {
	root := t.TempDir()
	archive := filepath.Join(root, "archive")
	require.NoError(t, os.MkdirAll(archive, 0o755))

	// refs' root is a descendant of candidates' root: candidates
	// (shallower) must gain an exclude for refs' deeper root so the
	// two sets become disjoint, rather than erroring.
	cand := FileSet{Sources: []string{root}}
	refs := FileSet{Sources: []string{archive}}
	require.NoError(t, ResolveShadowing(&cand, &refs))
	require.Contains(t, cand.Excludes, archive)
	require.Empty(t, refs.Excludes)
}

func TestResolveShadowingExcludesNestedCandRoot(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "nested")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	// candidates' root is a descendant of refs' root: refs (shallower)
	// must gain an exclude for candidates' deeper root.
	cand := FileSet{Sources: []string{nested}}
	refs := FileSet{Sources: []string{root}}
	require.NoError(t, ResolveShadowing(&cand, &refs))
	require.Contains(t, refs.Excludes, nested)
	require.Empty(t, cand.Excludes)
}

func TestEnumerateFromCacheKeysFiltersByInclude(t *testing.T) {
	root := t.TempDir()
	fset := FileSet{Sources: []string{root}, ExcludedExts: DefaultExcludedExts}

	keys := []string{
		filepath.Join(root, "a.mp4"),
		filepath.Join(root, "b.png"),
		"/elsewhere/c.mp4",
	}
	out := fset.EnumerateFromCacheKeys(keys)
	require.Equal(t, []string{filepath.Join(root, "a.mp4")}, out)
}
