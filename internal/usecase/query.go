package usecase

import (
	"errors"
	"fmt"
	"os"

	"github.com/portbump/portbump/internal/looseversion"
	"github.com/portbump/portbump/internal/registry"
)

// Query answers read-only questions about a registry.
type Query struct {
	layout    registry.Layout
	histories *registry.VersionStore
	baselines *registry.BaselineStore
}

// NewQuery returns a Query over layout.
func NewQuery(layout registry.Layout) *Query {
	return &Query{
		layout:    layout,
		histories: registry.NewVersionStore(layout),
		baselines: registry.NewBaselineStore(layout),
	}
}

// Versions returns the version history of port. A port with neither a
// history nor a recipe directory is reported as not found.
func (q *Query) Versions(port string) (registry.VersionHistory, error) {
	if !registry.ValidPortName(port) {
		return registry.VersionHistory{}, &registry.Error{Kind: registry.ErrPortNotFound, Port: port}
	}
	h, err := q.histories.Load(port)
	if err != nil {
		return registry.VersionHistory{}, err
	}
	if len(h.Versions) == 0 {
		if err := q.layout.CheckPort(port); err != nil {
			return registry.VersionHistory{}, err
		}
	}
	return h, nil
}

// PortInfo is what a port's recipe currently declares.
type PortInfo struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	VersionKey  string `json:"version-key"`
	PortVersion int    `json:"port-version"`
	Ref         string `json:"ref,omitempty"`
}

// Port reads the manifest and portfile of port. A portfile that is missing
// or has no REF directive leaves Ref empty.
func (q *Query) Port(port string) (PortInfo, error) {
	if err := q.layout.CheckPort(port); err != nil {
		return PortInfo{}, err
	}

	path := q.layout.ManifestPath(port)
	//nolint:gosec // G304: path is inside the registry
	data, err := os.ReadFile(path)
	if err != nil {
		return PortInfo{}, fmt.Errorf("read manifest: %w", err)
	}
	m, err := registry.ParseManifest(data)
	if err != nil {
		return PortInfo{}, &registry.Error{Kind: registry.ErrMalformedStore, Port: port, Path: path, Err: err}
	}
	info := PortInfo{
		Name:        m.Name(),
		Version:     m.Version(),
		VersionKey:  m.VersionKey(),
		PortVersion: m.PortVersion(),
	}

	//nolint:gosec // G304: path is inside the registry
	portfile, err := os.ReadFile(q.layout.PortfilePath(port))
	switch {
	case errors.Is(err, os.ErrNotExist):
		return info, nil
	case err != nil:
		return PortInfo{}, fmt.Errorf("read portfile: %w", err)
	}
	if ref, ok := registry.CurrentRef(string(portfile)); ok {
		info.Ref = ref
	}
	return info, nil
}

// BaselinePort is one row of a baseline listing.
type BaselinePort struct {
	Port string `json:"port"`
	registry.BaselineEntry
}

// Baseline lists every port of baseline name, sorted by port.
func (q *Query) Baseline(name string) ([]BaselinePort, error) {
	b, err := q.baselines.Load()
	if err != nil {
		return nil, err
	}
	entries, err := b.Get(name)
	if err != nil {
		return nil, err
	}
	ports, err := b.Ports(name)
	if err != nil {
		return nil, err
	}

	out := make([]BaselinePort, 0, len(ports))
	for _, port := range ports {
		out = append(out, BaselinePort{Port: port, BaselineEntry: entries[port]})
	}
	return out, nil
}

// BaselineEntry returns the entry of port in baseline name.
func (q *Query) BaselineEntry(name, port string) (registry.BaselineEntry, error) {
	b, err := q.baselines.Load()
	if err != nil {
		return registry.BaselineEntry{}, err
	}
	return b.Entry(name, port)
}

// BaselineNames lists the baselines in the document.
func (q *Query) BaselineNames() ([]string, error) {
	b, err := q.baselines.Load()
	if err != nil {
		return nil, err
	}
	return b.Names(), nil
}

// Comparison is the ordering of two version strings.
type Comparison struct {
	A      string `json:"a"`
	B      string `json:"b"`
	Result int    `json:"result"`
	Symbol string `json:"symbol"`
}

// Compare orders a and b with the loose version rules.
func Compare(a, b string) Comparison {
	c := looseversion.Compare(a, b)
	symbol := "="
	switch {
	case c < 0:
		symbol = "<"
	case c > 0:
		symbol = ">"
	}
	return Comparison{A: a, B: b, Result: c, Symbol: symbol}
}
