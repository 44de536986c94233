package fetch

import "context"

// Sources routes registry requests to a [Registry] and VCS requests to a
// [Git] fetcher.
type Sources struct {
	Registry *Registry
	Git      *Git
}

// NewSources combines the two fetchers.
func NewSources(registry *Registry, git *Git) *Sources {
	return &Sources{Registry: registry, Git: git}
}

// FetchRegistryArchive implements [SourceFetcher].
func (s *Sources) FetchRegistryArchive(ctx context.Context, name, constraint string) (*Result, error) {
	return s.Registry.FetchRegistryArchive(ctx, name, constraint)
}

// FetchVCS implements [SourceFetcher].
func (s *Sources) FetchVCS(ctx context.Context, location, ref string) (*Result, error) {
	return s.Git.FetchVCS(ctx, location, ref)
}

var _ SourceFetcher = (*Sources)(nil)
