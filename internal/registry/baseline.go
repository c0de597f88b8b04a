package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/portbump/portbump/internal/jsonfile"
	"github.com/portbump/portbump/internal/looseversion"
)

const keyBaseline = "baseline"

// BaselineEntry is the version a consumer of a baseline resolves for a port.
type BaselineEntry struct {
	Baseline    string `json:"baseline"`
	PortVersion int    `json:"port-version"`
}

// Newer reports whether (version, portVersion) supersedes e: a greater
// version, or the same version re-packaged with a greater port-version.
func (e BaselineEntry) Newer(version string, portVersion int) bool {
	switch c := looseversion.Compare(version, e.Baseline); {
	case c > 0:
		return true
	case c == 0:
		return portVersion > e.PortVersion
	default:
		return false
	}
}

// AdvanceAction describes what Advance did to a baseline entry.
type AdvanceAction string

const (
	AdvanceInserted AdvanceAction = "inserted"
	AdvanceReplaced AdvanceAction = "replaced"
	AdvanceKept     AdvanceAction = "kept"
)

// AdvanceResult reports the outcome of Baseline.Advance.
type AdvanceResult struct {
	Baseline string
	Port     string
	Action   AdvanceAction
	Previous *BaselineEntry
	Current  BaselineEntry
}

// Changed reports whether the document was modified.
func (r AdvanceResult) Changed() bool { return r.Action != AdvanceKept }

// Baseline is the decoded baseline document. Baselines, entries and fields
// that are not touched are written back with the same content and order.
type Baseline struct {
	doc *jsonfile.Object
}

// NewBaseline returns an empty document.
func NewBaseline() *Baseline {
	return &Baseline{doc: jsonfile.NewObject()}
}

// MarshalJSON implements json.Marshaler.
func (b *Baseline) MarshalJSON() ([]byte, error) {
	return b.doc.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler. Top-level values that are not
// objects, such as "$schema", are kept as they are; a baseline is checked
// when it is looked up by name.
func (b *Baseline) UnmarshalJSON(data []byte) error {
	doc := jsonfile.NewObject()
	if err := doc.UnmarshalJSON(data); err != nil {
		return err
	}
	b.doc = doc
	return nil
}

// Names lists the baselines in document order, skipping top-level values
// that are not objects.
func (b *Baseline) Names() []string {
	var names []string
	for _, key := range b.doc.Keys() {
		if raw, _ := b.doc.Raw(key); isObject(raw) {
			names = append(names, key)
		}
	}
	return names
}

// Ports returns the sorted port names of baseline name.
func (b *Baseline) Ports(name string) ([]string, error) {
	entries, err := b.Get(name)
	if err != nil {
		return nil, err
	}
	ports := make([]string, 0, len(entries))
	for p := range entries {
		ports = append(ports, p)
	}
	sort.Strings(ports)
	return ports, nil
}

// Get returns every entry of baseline name.
func (b *Baseline) Get(name string) (map[string]BaselineEntry, error) {
	ports, err := b.ports(name)
	if err != nil {
		return nil, err
	}

	out := make(map[string]BaselineEntry, ports.Len())
	for _, port := range ports.Keys() {
		var entry BaselineEntry
		if _, err := ports.Get(port, &entry); err != nil {
			return nil, fmt.Errorf("baseline %s: %w", name, err)
		}
		out[port] = entry
	}
	return out, nil
}

// Entry returns the entry of port in baseline name.
func (b *Baseline) Entry(name, port string) (BaselineEntry, error) {
	ports, err := b.ports(name)
	if err != nil {
		return BaselineEntry{}, err
	}

	var entry BaselineEntry
	ok, err := ports.Get(port, &entry)
	if err != nil {
		return BaselineEntry{}, fmt.Errorf("baseline %s: %w", name, err)
	}
	if !ok {
		return BaselineEntry{}, &Error{Kind: ErrPortNotFoundInBaseline, Port: port, Baseline: name}
	}
	return entry, nil
}

// Advance points port at (version, portVersion) in baseline name unless the
// current entry is already at that version or a newer one. A port missing
// from the baseline is added.
func (b *Baseline) Advance(name, port, version string, portVersion int) (AdvanceResult, error) {
	ports, err := b.ports(name)
	if err != nil {
		return AdvanceResult{}, err
	}

	result := AdvanceResult{
		Baseline: name,
		Port:     port,
		Action:   AdvanceInserted,
		Current:  BaselineEntry{Baseline: version, PortVersion: portVersion},
	}

	entryObj := jsonfile.NewObject()
	if raw, ok := ports.Raw(port); ok {
		if err := json.Unmarshal(raw, entryObj); err != nil {
			return AdvanceResult{}, fmt.Errorf("baseline %s: port %s: %w", name, port, err)
		}
		var prev BaselineEntry
		if err := json.Unmarshal(raw, &prev); err != nil {
			return AdvanceResult{}, fmt.Errorf("baseline %s: port %s: %w", name, port, err)
		}
		result.Previous = &prev

		if !prev.Newer(version, portVersion) {
			result.Action = AdvanceKept
			result.Current = prev
			return result, nil
		}
		result.Action = AdvanceReplaced
	}

	if err := entryObj.Set(keyBaseline, version); err != nil {
		return AdvanceResult{}, err
	}
	if err := entryObj.Set(keyPortVersion, portVersion); err != nil {
		return AdvanceResult{}, err
	}
	if err := ports.Set(port, entryObj); err != nil {
		return AdvanceResult{}, err
	}
	if err := b.doc.Set(name, ports); err != nil {
		return AdvanceResult{}, err
	}
	return result, nil
}

func (b *Baseline) ports(name string) (*jsonfile.Object, error) {
	if b == nil || !b.doc.Has(name) {
		return nil, &Error{Kind: ErrBaselineNotFound, Baseline: name}
	}
	return decodePorts(b.doc, name)
}

func decodePorts(doc *jsonfile.Object, name string) (*jsonfile.Object, error) {
	ports := jsonfile.NewObject()
	if _, err := doc.Get(name, ports); err != nil {
		return nil, &Error{Kind: ErrMalformedStore, Baseline: name, Err: err}
	}
	return ports, nil
}

func isObject(raw json.RawMessage) bool {
	return bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{"))
}

// BaselineStore reads and writes the shared baseline document.
type BaselineStore struct {
	layout Layout
}

// NewBaselineStore returns a store for the registry described by layout.
func NewBaselineStore(layout Layout) *BaselineStore {
	return &BaselineStore{layout: layout}
}

// Path returns the baseline document location.
func (s *BaselineStore) Path() string {
	return s.layout.BaselinePath()
}

// Load reads the baseline document. The document must already exist.
func (s *BaselineStore) Load() (*Baseline, error) {
	path := s.Path()

	b := NewBaseline()
	if err := jsonfile.Read(path, b); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &Error{Kind: ErrBaselineFileMissing, Path: path, Err: err}
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return nil, malformed(path, err)
	}
	return b, nil
}

// Save rewrites the baseline document.
func (s *BaselineStore) Save(b *Baseline) error {
	return jsonfile.Write(s.Path(), b)
}

// Advance loads the document, advances port in baseline name and saves the
// document when it changed.
func (s *BaselineStore) Advance(name, port, version string, portVersion int) (AdvanceResult, error) {
	b, err := s.Load()
	if err != nil {
		return AdvanceResult{}, err
	}

	result, err := b.Advance(name, port, version, portVersion)
	if err != nil {
		return AdvanceResult{}, err
	}
	if !result.Changed() {
		return result, nil
	}
	if err := s.Save(b); err != nil {
		return AdvanceResult{}, err
	}
	return result, nil
}
