package registry

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/portbump/portbump/internal/jsonfile"
)

const keyName = "name"

// Manifest is a port's vcpkg.json. Only name, version and port-version are
// interpreted; every other field is carried through in its original order.
type Manifest struct {
	obj *jsonfile.Object
}

// ParseManifest decodes a vcpkg.json document.
func ParseManifest(data []byte) (*Manifest, error) {
	obj := jsonfile.NewObject()
	if err := jsonfile.Decode(data, obj); err != nil {
		return nil, err
	}
	return &Manifest{obj: obj}, nil
}

// Name returns the declared port name.
func (m *Manifest) Name() string {
	var name string
	_, _ = m.obj.Get(keyName, &name)
	return name
}

// VersionKey returns the key holding the version, e.g. "version-semver".
func (m *Manifest) VersionKey() string {
	for _, key := range versionKeys {
		if m.obj.Has(key) {
			return key
		}
	}
	return "version"
}

// Version returns the declared version.
func (m *Manifest) Version() string {
	var v string
	_, _ = m.obj.Get(m.VersionKey(), &v)
	return v
}

// PortVersion returns the declared port-version, 0 when absent.
func (m *Manifest) PortVersion() int {
	var pv int
	_, _ = m.obj.Get(keyPortVersion, &pv)
	return pv
}

// Set overwrites name, version and port-version. The version is stored under
// the manifest's existing version key.
func (m *Manifest) Set(name, version string, portVersion int) error {
	if err := m.obj.Set(keyName, name); err != nil {
		return err
	}
	if err := m.obj.Set(m.VersionKey(), version); err != nil {
		return err
	}
	return m.obj.Set(keyPortVersion, portVersion)
}

// Bytes renders the manifest for writing.
func (m *Manifest) Bytes() ([]byte, error) {
	return jsonfile.Encode(m.obj)
}

// UpdateManifest returns data with name, version and port-version replaced.
func UpdateManifest(data []byte, name, version string, portVersion int) ([]byte, error) {
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	if err := m.Set(name, version, portVersion); err != nil {
		return nil, err
	}
	return m.Bytes()
}

var refDirective = regexp.MustCompile(`(?m)^([ \t]*)REF[ \t]+([^\r\n]*)`)

// ReplaceRef points the first REF directive of a portfile at ref. It reports
// false and returns content unchanged when there is no REF directive.
func ReplaceRef(content, ref string) (string, bool) {
	loc := refDirective.FindStringSubmatchIndex(content)
	if loc == nil {
		return content, false
	}
	indent := content[loc[2]:loc[3]]
	return content[:loc[0]] + fmt.Sprintf("%sREF %s", indent, ref) + content[loc[1]:], true
}

// CurrentRef returns the identifier of the first REF directive.
func CurrentRef(content string) (string, bool) {
	m := refDirective.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return strings.TrimSpace(m[2]), true
}
