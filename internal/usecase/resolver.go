package usecase

import (
	"context"

	"github.com/portbump/portbump/internal/registry"
)

// TreeResolver looks up the tree object of a directory at HEAD.
type TreeResolver interface {
	TreeID(ctx context.Context, path string) (string, error)
}

// Recorded is the outcome of recording a version in a port's history.
type Recorded struct {
	PortVersion int
	GitTree     string
	Path        string
	// Reused is set when the current record already pointed at GitTree and
	// the history was left alone.
	Reused bool
}

// PortVersionResolver computes and records port-versions.
type PortVersionResolver struct {
	layout registry.Layout
	store  *registry.VersionStore
	trees  TreeResolver
}

// NewPortVersionResolver returns a resolver over the histories of layout.
func NewPortVersionResolver(layout registry.Layout, trees TreeResolver) *PortVersionResolver {
	return &PortVersionResolver{
		layout: layout,
		store:  registry.NewVersionStore(layout),
		trees:  trees,
	}
}

// NextPortVersion reports the port-version the next publication of version
// would get, without writing anything.
func (r *PortVersionResolver) NextPortVersion(port, version string) (int, error) {
	h, err := r.store.Load(port)
	if err != nil {
		return 0, err
	}
	return registry.NextPortVersion(h, version), nil
}

// Record looks up the tree of the port directory at HEAD, adds it to the
// port's history and saves the history.
func (r *PortVersionResolver) Record(ctx context.Context, port, version string) (Recorded, error) {
	return r.record(ctx, port, version, false)
}

// Resume is Record for a run that may already have written its record: when
// the current record for version points at the HEAD tree it is returned as is.
func (r *PortVersionResolver) Resume(ctx context.Context, port, version string) (Recorded, error) {
	return r.record(ctx, port, version, true)
}

func (r *PortVersionResolver) record(ctx context.Context, port, version string, reuse bool) (Recorded, error) {
	tree, err := r.trees.TreeID(ctx, r.layout.PortTreePath(port))
	if err != nil {
		return Recorded{}, registry.External(err)
	}

	h, err := r.store.Load(port)
	if err != nil {
		return Recorded{}, err
	}

	out := Recorded{GitTree: tree, Path: r.store.Path(port)}
	if reuse {
		if rec, ok := h.Current(version); ok && rec.GitTree == tree {
			out.PortVersion = rec.PortVersion
			out.Reused = true
			return out, nil
		}
	}

	updated, pv := registry.Upsert(h, version, tree)
	if err := r.store.Save(port, updated); err != nil {
		return Recorded{}, err
	}
	out.PortVersion = pv
	return out, nil
}
