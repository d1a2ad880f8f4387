package versions

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// LatestChannel is the channel that tracks the newest release.
const LatestChannel = "latest"

// ContainerName returns the build container for a release version, e.g.
// v0.5.6 with prefix "controller-" gives "controller-056".
func ContainerName(prefix string, v *semver.Version) string {
	return fmt.Sprintf("%s%d%d%d", prefix, v.Major(), v.Minor(), v.Patch())
}

// Discover adds a channel for every release tag (vX.Y.Z, no prerelease) in
// the git repository at repoPath. The newest release also becomes the
// latest channel unless latest is already mapped. It returns the number of
// channels added.
func (r *Registry) Discover(repoPath, prefix string) (int, error) {
	repo, err := git.PlainOpenWithOptions(repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return 0, fmt.Errorf("opening controller repository %s: %w", repoPath, err)
	}

	refs, err := repo.Tags()
	if err != nil {
		return 0, fmt.Errorf("listing tags: %w", err)
	}

	type release struct {
		tag     string
		version *semver.Version
	}
	var releases []release
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		name := ref.Name().Short()
		if !strings.HasPrefix(name, "v") {
			return nil
		}
		v, err := semver.StrictNewVersion(strings.TrimPrefix(name, "v"))
		if err != nil || v.Prerelease() != "" {
			return nil
		}
		releases = append(releases, release{tag: name, version: v})
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("iterating tags: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var newest *release
	for i, rel := range releases {
		r.setLocked(Channel{
			Name:      rel.tag,
			Container: ContainerName(prefix, rel.version),
			Source:    SourceGit,
			Tag:       rel.tag,
		})
		if newest == nil || rel.version.GreaterThan(newest.version) {
			newest = &releases[i]
		}
	}
	if newest != nil {
		if _, ok := r.channels[LatestChannel]; !ok {
			r.setLocked(Channel{
				Name:      LatestChannel,
				Container: ContainerName(prefix, newest.version),
				Source:    SourceGit,
				Tag:       newest.tag,
			})
		}
	}
	return len(releases), nil
}
