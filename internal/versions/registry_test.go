package versions

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oerrors "github.com/keyforge/dispatch/internal/errors"
	"github.com/keyforge/dispatch/internal/testutil"
)

func defaultRegistry() *Registry {
	return NewRegistry(map[string]string{
		"latest": "controller-056",
		"lts":    "controller-050",
		"v0.5.6": "controller-056",
		"v0.5.0": "controller-050",
	}, []string{"lts", "v0.5.0"})
}

func TestResolve(t *testing.T) {
	r := defaultRegistry()

	ch, err := r.Resolve("lts")
	require.NoError(t, err)
	assert.Equal(t, "controller-050", ch.Container)
	assert.True(t, ch.Legacy)
	assert.Equal(t, SourceConfig, ch.Source)

	ch, err = r.Resolve("latest")
	require.NoError(t, err)
	assert.Equal(t, "controller-056", ch.Container)
	assert.False(t, ch.Legacy)

	_, err = r.Resolve("nightly")
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrUnknownChannel))
}

func TestResolve_Availability(t *testing.T) {
	r := defaultRegistry()
	assert.Nil(t, r.Available())

	r.SetAvailable([]string{"controller-056"})
	assert.Equal(t, map[string]bool{"controller-056": true}, r.Available())

	_, err := r.Resolve("latest")
	require.NoError(t, err)

	_, err = r.Resolve("lts")
	require.Error(t, err)
	assert.True(t, errors.Is(err, oerrors.ErrUnknownChannel))
	assert.Contains(t, err.Error(), "controller-050")
}

func TestChannels_Sorted(t *testing.T) {
	names := []string{}
	for _, ch := range defaultRegistry().Channels() {
		names = append(names, ch.Name)
	}
	assert.Equal(t, []string{"latest", "lts", "v0.5.0", "v0.5.6"}, names)
}

func TestLoadFile_LegacyMarksExistingChannels(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "versions.yaml", `
legacy:
  - v0.5.6
`)
	r := defaultRegistry()
	require.NoError(t, r.LoadFile(path))

	ch, err := r.Resolve("v0.5.6")
	require.NoError(t, err)
	assert.True(t, ch.Legacy)
	assert.Equal(t, SourceConfig, ch.Source)

	ch, err = r.Resolve("latest")
	require.NoError(t, err)
	assert.False(t, ch.Legacy)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := testutil.WriteFile(t, dir, "versions.yaml", `
channels:
  nightly: controller-057
  lts: controller-049
legacy:
  - nightly
`)

	r := defaultRegistry()
	require.NoError(t, r.LoadFile(path))

	ch, err := r.Resolve("nightly")
	require.NoError(t, err)
	assert.Equal(t, "controller-057", ch.Container)
	assert.True(t, ch.Legacy)
	assert.Equal(t, SourceFile, ch.Source)

	ch, err = r.Resolve("lts")
	require.NoError(t, err)
	assert.Equal(t, "controller-049", ch.Container, "file overrides config")
	assert.True(t, ch.Legacy)

	out := filepath.Join(dir, "nested", "saved.yaml")
	require.NoError(t, r.SaveFile(out))

	again := NewRegistry(nil, nil)
	require.NoError(t, again.LoadFile(out))
	assert.Len(t, again.Channels(), 5)
	ch, err = again.Resolve("v0.5.0")
	require.NoError(t, err)
	assert.True(t, ch.Legacy)
}

func TestLoadFile_Missing(t *testing.T) {
	r := defaultRegistry()
	assert.NoError(t, r.LoadFile(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestLoadFile_Invalid(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "bad.yaml", "channels: [1, 2")
	assert.Error(t, defaultRegistry().LoadFile(path))
}

func TestContainerName(t *testing.T) {
	assert.Equal(t, "controller-056", ContainerName("controller-", semver.MustParse("v0.5.6")))
	assert.Equal(t, "controller-100", ContainerName("controller-", semver.MustParse("1.0.0")))
}

// initRepo creates a repository with one commit tagged with every tag.
func initRepo(t *testing.T, tags ...string) string {
	t.Helper()
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	testutil.WriteFile(t, dir, "README.md", "controller")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("initial", &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)

	for _, tag := range tags {
		require.NoError(t, repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewTagReferenceName(tag), hash)))
	}
	return dir
}

func TestDiscover(t *testing.T) {
	dir := initRepo(t, "v0.5.0", "v0.5.7", "v0.5.10", "v0.6.0-rc1", "not-a-version")

	r := NewRegistry(nil, []string{"v0.5.0"})
	n, err := r.Discover(dir, "controller-")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	ch, err := r.Resolve("v0.5.7")
	require.NoError(t, err)
	assert.Equal(t, "controller-057", ch.Container)
	assert.Equal(t, SourceGit, ch.Source)
	assert.Equal(t, "v0.5.7", ch.Tag)

	ch, err = r.Resolve("v0.5.0")
	require.NoError(t, err)
	assert.True(t, ch.Legacy)

	latest, err := r.Resolve(LatestChannel)
	require.NoError(t, err)
	assert.Equal(t, "v0.5.10", latest.Tag, "semver ordering, not lexical")
	assert.Equal(t, "controller-0510", latest.Container)

	_, err = r.Resolve("v0.6.0-rc1")
	assert.Error(t, err)
}

func TestDiscover_KeepsConfiguredLatest(t *testing.T) {
	dir := initRepo(t, "v0.5.7")

	r := defaultRegistry()
	_, err := r.Discover(dir, "controller-")
	require.NoError(t, err)

	latest, err := r.Resolve(LatestChannel)
	require.NoError(t, err)
	assert.Equal(t, "controller-056", latest.Container)
	assert.Equal(t, SourceConfig, latest.Source)
}

func TestDiscover_NotARepo(t *testing.T) {
	_, err := NewRegistry(nil, nil).Discover(t.TempDir(), "controller-")
	assert.Error(t, err)
}
