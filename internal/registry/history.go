package registry

import (
	"errors"
	"fmt"
	"os"

	"github.com/portbump/portbump/internal/jsonfile"
)

// Keys a version record may use for its version string. Only the first one
// present is read; new records use "version".
var versionKeys = []string{"version", "version-semver", "version-date", "version-string"}

const (
	keyPortVersion = "port-version"
	keyGitTree     = "git-tree"
	keyVersions    = "versions"
)

// VersionRecord is one published (version, port-version, git-tree) tuple.
// Fields not modelled here are kept and written back unchanged.
type VersionRecord struct {
	Version     string
	PortVersion int
	GitTree     string

	versionKey     string
	hasPortVersion bool
	fields         *jsonfile.Object
}

// NewVersionRecord builds a record that will be written with all three
// fields.
func NewVersionRecord(version string, portVersion int, gitTree string) VersionRecord {
	return VersionRecord{
		Version:        version,
		PortVersion:    portVersion,
		GitTree:        gitTree,
		versionKey:     "version",
		hasPortVersion: true,
	}
}

// Scheme names the key the version was read from, e.g. "version-semver".
func (r VersionRecord) Scheme() string {
	if r.versionKey == "" {
		return "version"
	}
	return r.versionKey
}

// MarshalJSON implements json.Marshaler.
func (r VersionRecord) MarshalJSON() ([]byte, error) {
	obj := r.fields.Clone()
	if err := obj.Set(r.Scheme(), r.Version); err != nil {
		return nil, err
	}
	if r.hasPortVersion || r.PortVersion != 0 || obj.Has(keyPortVersion) {
		if err := obj.Set(keyPortVersion, r.PortVersion); err != nil {
			return nil, err
		}
	}
	if err := obj.Set(keyGitTree, r.GitTree); err != nil {
		return nil, err
	}
	return obj.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *VersionRecord) UnmarshalJSON(data []byte) error {
	obj := jsonfile.NewObject()
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}

	rec := VersionRecord{fields: obj}
	for _, key := range versionKeys {
		ok, err := obj.Get(key, &rec.Version)
		if err != nil {
			return err
		}
		if ok {
			rec.versionKey = key
			break
		}
	}
	if rec.versionKey == "" {
		return errors.New("version record has no version field")
	}

	ok, err := obj.Get(keyPortVersion, &rec.PortVersion)
	if err != nil {
		return err
	}
	if rec.PortVersion < 0 {
		return fmt.Errorf("version %s: negative port-version %d", rec.Version, rec.PortVersion)
	}
	rec.hasPortVersion = ok

	if _, err := obj.Get(keyGitTree, &rec.GitTree); err != nil {
		return err
	}

	*r = rec
	return nil
}

// VersionHistory is the ordered record list of one port, in file order.
type VersionHistory struct {
	Versions []VersionRecord

	fields *jsonfile.Object
}

// MarshalJSON implements json.Marshaler.
func (h VersionHistory) MarshalJSON() ([]byte, error) {
	obj := h.fields.Clone()
	versions := h.Versions
	if versions == nil {
		versions = []VersionRecord{}
	}
	if err := obj.Set(keyVersions, versions); err != nil {
		return nil, err
	}
	return obj.MarshalJSON()
}

// UnmarshalJSON implements json.Unmarshaler.
func (h *VersionHistory) UnmarshalJSON(data []byte) error {
	obj := jsonfile.NewObject()
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}

	var versions []VersionRecord
	ok, err := obj.Get(keyVersions, &versions)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New(`missing "versions" array`)
	}

	*h = VersionHistory{Versions: versions, fields: obj}
	return nil
}

// Index returns the position of the first record for version, or -1.
func (h VersionHistory) Index(version string) int {
	for i, rec := range h.Versions {
		if rec.Version == version {
			return i
		}
	}
	return -1
}

// Current returns the record in effect for version: the first match in file
// order.
func (h VersionHistory) Current(version string) (VersionRecord, bool) {
	i := h.Index(version)
	if i < 0 {
		return VersionRecord{}, false
	}
	return h.Versions[i], true
}

// FindPortVersion returns the port-version of the current record for
// version. Legacy records without a port-version report 0.
func FindPortVersion(h VersionHistory, version string) (int, bool) {
	rec, ok := h.Current(version)
	if !ok {
		return 0, false
	}
	return rec.PortVersion, true
}

// NextPortVersion is the port-version the next publication of version will
// get: one past the current record, or 0 for a version never published.
func NextPortVersion(h VersionHistory, version string) int {
	if pv, ok := FindPortVersion(h, version); ok {
		return pv + 1
	}
	return 0
}

// Upsert records a new publication of version at gitTree and returns the
// updated history with the port-version used. A re-published version gets
// its new record inserted at the position of the previous current record,
// which moves one slot later and stays in the history. A new version is
// appended. h is not modified.
func Upsert(h VersionHistory, version, gitTree string) (VersionHistory, int) {
	out := VersionHistory{fields: h.fields, Versions: make([]VersionRecord, 0, len(h.Versions)+1)}

	i := h.Index(version)
	if i < 0 {
		out.Versions = append(out.Versions, h.Versions...)
		out.Versions = append(out.Versions, NewVersionRecord(version, 0, gitTree))
		return out, 0
	}

	portVersion := h.Versions[i].PortVersion + 1
	out.Versions = append(out.Versions, h.Versions[:i]...)
	out.Versions = append(out.Versions, NewVersionRecord(version, portVersion, gitTree))
	out.Versions = append(out.Versions, h.Versions[i:]...)
	return out, portVersion
}

// VersionStore reads and writes per-port version history files.
type VersionStore struct {
	layout Layout
}

// NewVersionStore returns a store for the registry described by layout.
func NewVersionStore(layout Layout) *VersionStore {
	return &VersionStore{layout: layout}
}

// Path returns the history file of port.
func (s *VersionStore) Path(port string) string {
	return s.layout.HistoryPath(port)
}

// Load reads the history of port. A port without a history file has an empty
// history.
func (s *VersionStore) Load(port string) (VersionHistory, error) {
	path := s.Path(port)

	var h VersionHistory
	if err := jsonfile.Read(path, &h); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return VersionHistory{}, nil
		}
		var pathErr *os.PathError
		if errors.As(err, &pathErr) {
			return VersionHistory{}, fmt.Errorf("read %s: %w", path, err)
		}
		return VersionHistory{}, malformed(path, err)
	}
	return h, nil
}

// Save rewrites the history file of port.
func (s *VersionStore) Save(port string, h VersionHistory) error {
	return jsonfile.Write(s.Path(port), h)
}
