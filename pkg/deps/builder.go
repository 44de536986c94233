package deps

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/john-wilkinson/pym/pkg/errors"
	"github.com/john-wilkinson/pym/pkg/fetch"
	"github.com/john-wilkinson/pym/pkg/manifest"
	"github.com/john-wilkinson/pym/pkg/observability"
	"github.com/john-wilkinson/pym/pkg/semver"
	"github.com/john-wilkinson/pym/pkg/specifier"
)

// Builder resolves a root manifest into a [Graph].
type Builder struct {
	fetcher fetch.SourceFetcher
	opts    Options
}

// NewBuilder creates a Builder that fetches sources through f.
func NewBuilder(f fetch.SourceFetcher, opts Options) *Builder {
	return &Builder{fetcher: f, opts: opts.WithDefaults()}
}

// request is one dependency edge waiting to be resolved.
type request struct {
	seq    int
	spec   specifier.Specifier
	parent *PackageNode
}

// fetched is the outcome of fetching the first request for a key.
type fetched struct {
	node *PackageNode
	err  error
}

// Build walks the dependencies of root breadth-first and returns the
// resolved graph with the diagnostics collected along the way.
//
// Each level's fetches run concurrently, but results are applied in request
// order, so the graph and diagnostics equal those of a sequential walk. A
// cancelled context yields a nil graph and ctx.Err().
func (b *Builder) Build(ctx context.Context, root *manifest.Manifest) (*Graph, Diagnostics, error) {
	if root == nil {
		return nil, nil, errors.New(errors.ErrCodeInternal, "no root manifest")
	}
	start := time.Now()
	observability.Pipeline().OnResolveStart(ctx, root.Name)

	rootKey := specifier.NormalizeName(root.Name)
	if rootKey == "" {
		rootKey = RootKey
	}
	g := newGraph(&PackageNode{
		Key:             rootKey,
		Specifier:       specifier.Specifier{Name: root.Name},
		ResolvedVersion: root.Version,
		Manifest:        root,
	})

	w := &walk{b: b, g: g, seq: 1, failed: make(map[string]bool)}
	level := w.enqueue(nil, g.root, root.Dependencies)
	for len(level) > 0 {
		if err := ctx.Err(); err != nil {
			observability.Pipeline().OnResolveComplete(ctx, root.Name, g.Len(), len(w.diags), time.Since(start), err)
			return nil, nil, err
		}
		var err error
		level, err = w.step(ctx, level)
		if err != nil {
			observability.Pipeline().OnResolveComplete(ctx, root.Name, g.Len(), len(w.diags), time.Since(start), err)
			return nil, nil, err
		}
	}

	observability.Pipeline().OnResolveComplete(ctx, root.Name, g.Len(), len(w.diags), time.Since(start), nil)
	return g, w.diags, nil
}

type walk struct {
	b      *Builder
	g      *Graph
	seq    int
	failed map[string]bool
	diags  Diagnostics
}

func (w *walk) enqueue(next []request, parent *PackageNode, specs []specifier.Specifier) []request {
	for _, s := range specs {
		next = append(next, request{seq: w.seq, spec: s, parent: parent})
		w.seq++
	}
	return next
}

// step resolves one BFS level and returns the next one.
func (w *walk) step(ctx context.Context, level []request) ([]request, error) {
	// Claim the first request of every key that is neither resolved nor
	// known to fail. Later requests for the same key are matched after the
	// claim has been applied.
	claims := make(map[string]*fetched)
	var order []request
	for _, req := range level {
		key := req.spec.Key()
		if _, ok := w.g.nodes[key]; ok || w.failed[key] {
			continue
		}
		if _, ok := claims[key]; ok {
			continue
		}
		claims[key] = &fetched{}
		order = append(order, req)
	}

	var eg errgroup.Group
	eg.SetLimit(w.b.opts.Workers)
	for _, req := range order {
		res := claims[req.spec.Key()]
		eg.Go(func() error {
			res.node, res.err = w.b.fetch(ctx, req)
			return nil
		})
	}
	_ = eg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var next []request
	for _, req := range level {
		key := req.spec.Key()
		if existing, ok := w.g.nodes[key]; ok {
			w.match(req, existing)
			continue
		}
		if w.failed[key] {
			w.b.opts.Logger("skipping %s: fetch already failed", key)
			continue
		}
		res := claims[key]
		if res.err != nil {
			w.failed[key] = true
			w.diags = append(w.diags, Diagnostic{
				Kind:  FetchFailed,
				Key:   key,
				From:  req.parent.Key,
				Err:   res.err,
				Seq:   req.seq,
				Fatal: req.parent == w.g.root,
			})
			w.b.opts.Logger("fetch failed: %s: %v", key, res.err)
			continue
		}

		node := res.node
		node.Seq = req.seq
		node.Depth = req.parent.Depth + 1
		w.g.add(node)
		w.g.link(req.parent.Key, key)

		if node.Depth >= w.b.opts.MaxDepth {
			if len(node.Manifest.Dependencies) > 0 {
				w.diags = append(w.diags, Diagnostic{Kind: DepthExceeded, Key: key, From: req.parent.Key, Seq: req.seq})
			}
			continue
		}
		next = w.enqueue(next, node, node.Manifest.Dependencies)
	}
	return next, nil
}

// match links req to an already resolved node and records a conflict when
// the request is incompatible with it.
func (w *walk) match(req request, existing *PackageNode) {
	w.g.link(req.parent.Key, existing.Key)
	if compatible(req.spec, existing) {
		return
	}
	w.diags = append(w.diags, Diagnostic{
		Kind:      Conflict,
		Key:       existing.Key,
		From:      req.parent.Key,
		Existing:  existing.ResolvedVersion,
		Requested: req.spec.Requested(),
		Seq:       req.seq,
		Fatal:     w.b.opts.Policy == Strict,
	})
	w.b.opts.Logger("conflict: %s requested %q, keeping %s", existing.Key, req.spec.Requested(), existing.ResolvedVersion)
}

// minAbbrevCommit is the shortest ref read as an abbreviated commit hash,
// matching git's default abbreviation.
const minAbbrevCommit = 7

// isAbbrevCommit reports whether ref can only be a (possibly abbreviated)
// commit hash. Branch and tag names that are not hex never match a commit.
func isAbbrevCommit(ref string) bool {
	if len(ref) < minAbbrevCommit || len(ref) > 40 {
		return false
	}
	for _, c := range ref {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// compatible reports whether spec is satisfied by the node already resolved
// for its key.
func compatible(spec specifier.Specifier, n *PackageNode) bool {
	if spec.Kind == specifier.VCS {
		if spec.Ref == "" {
			return true
		}
		if n.Specifier.Kind != specifier.VCS {
			return false
		}
		if spec.Ref == n.Specifier.Ref {
			return true
		}
		return isAbbrevCommit(spec.Ref) && strings.HasPrefix(n.ResolvedVersion, strings.ToLower(spec.Ref))
	}
	if spec.Constraint == "" {
		return true
	}
	if semver.Matches(n.ResolvedVersion, spec.Constraint) {
		return true
	}
	// Checkouts resolve to a commit; their declared version is the best
	// available answer to a version constraint.
	return n.Specifier.Kind == specifier.VCS && n.Manifest != nil && !n.Synthesized &&
		semver.Matches(n.Manifest.Version, spec.Constraint)
}

// fetch materializes the source of req and reads its manifest.
func (b *Builder) fetch(ctx context.Context, req request) (*PackageNode, error) {
	spec := req.spec
	hooks := observability.Pipeline()
	hooks.OnFetchStart(ctx, spec.Kind.String(), spec.Name)
	start := time.Now()

	var (
		res *fetch.Result
		err error
	)
	switch spec.Kind {
	case specifier.VCS:
		res, err = b.fetcher.FetchVCS(ctx, spec.Location, spec.Ref)
	default:
		res, err = b.fetcher.FetchRegistryArchive(ctx, spec.Name, spec.Constraint)
	}
	hooks.OnFetchComplete(ctx, spec.Kind.String(), spec.Name, time.Since(start), err)
	if err != nil {
		return nil, err
	}
	b.opts.Logger("fetched %s %s", spec.Key(), res.ResolvedVersion)

	name := res.Name
	if name == "" {
		name = spec.Name
	}
	m, synthesized, err := manifest.LoadOrSynthesize(res.StagingPath, name)
	if err != nil {
		return nil, err
	}
	if synthesized {
		m.Version = res.ResolvedVersion
		for _, raw := range res.Dependencies {
			dep, err := specifier.Parse(raw)
			if err != nil {
				b.opts.Logger("%s: ignoring dependency %q: %v", spec.Key(), raw, err)
				continue
			}
			m.Dependencies = append(m.Dependencies, dep)
		}
	}

	return &PackageNode{
		Key:             spec.Key(),
		Specifier:       spec,
		ResolvedVersion: res.ResolvedVersion,
		Manifest:        m,
		Synthesized:     synthesized,
		StagingPath:     res.StagingPath,
	}, nil
}
