// Package objects holds the read/write access map for standard BACnet
// object properties (ASHRAE 135 clause 12).
package objects

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// Access is the permission of a property.
type Access string

// Property access levels.
const (
	Read      Access = "R"
	ReadWrite Access = "R/W"
)

// Valid reports whether a is a known access level.
func (a Access) Valid() bool { return a == Read || a == ReadWrite }

// Table maps object type to property to access.
type Table map[string]map[string]Access

func common(extra map[string]Access) map[string]Access {
	m := map[string]Access{
		"objectIdentifier": Read,
		"objectName":       ReadWrite,
		"objectType":       Read,
		"statusFlags":      Read,
		"eventState":       Read,
		"outOfService":     ReadWrite,
		"description":      ReadWrite,
	}
	for k, v := range extra {
		m[k] = v
	}
	return m
}

// Builtin returns a fresh copy of the standard table.
func Builtin() Table {
	return Table{
		// 12.2
		"analogInput": common(map[string]Access{
			"presentValue": Read,
			"units":        Read,
		}),
		// 12.3
		"analogOutput": common(map[string]Access{
			"presentValue":      ReadWrite,
			"units":             Read,
			"priorityArray":     Read,
			"relinquishDefault": ReadWrite,
		}),
		// 12.4
		"analogValue": common(map[string]Access{
			"presentValue":      ReadWrite,
			"units":             Read,
			"priorityArray":     Read,
			"relinquishDefault": ReadWrite,
		}),
		// 12.6
		"binaryInput": common(map[string]Access{
			"presentValue": Read,
			"polarity":     Read,
			"inactiveText": ReadWrite,
			"activeText":   ReadWrite,
		}),
		// 12.7
		"binaryOutput": common(map[string]Access{
			"presentValue":      ReadWrite,
			"polarity":          Read,
			"inactiveText":      ReadWrite,
			"activeText":        ReadWrite,
			"priorityArray":     Read,
			"relinquishDefault": ReadWrite,
		}),
		// 12.8
		"binaryValue": common(map[string]Access{
			"presentValue":      ReadWrite,
			"inactiveText":      ReadWrite,
			"activeText":        ReadWrite,
			"priorityArray":     Read,
			"relinquishDefault": ReadWrite,
		}),
		// 12.20
		"multistateValue": common(map[string]Access{
			"presentValue":      ReadWrite,
			"numberOfStates":    Read,
			"stateText":         ReadWrite,
			"priorityArray":     Read,
			"relinquishDefault": ReadWrite,
		}),
		// 12.1
		"accumulator": common(map[string]Access{
			"presentValue": Read,
			"scale":        Read,
			"units":        Read,
			"prescale":     ReadWrite,
			"maxPresValue": Read,
		}),
	}
}

// Properties returns the property table of objType, matched ignoring case.
func (t Table) Properties(objType string) (map[string]Access, bool) {
	if props, ok := t[objType]; ok {
		return props, true
	}
	for k, v := range t {
		if strings.EqualFold(k, objType) {
			return v, true
		}
	}
	return nil, false
}

// Lookup returns the access of prop on objType. Object type matching
// ignores case.
func (t Table) Lookup(objType, prop string) (Access, bool) {
	props, ok := t.Properties(objType)
	if !ok {
		return "", false
	}
	a, ok := props[prop]
	return a, ok
}

// IsWritable reports whether prop is writable on objType. Unknown entries
// are read-only.
func (t Table) IsWritable(objType, prop string) bool {
	a, _ := t.Lookup(objType, prop)
	return a == ReadWrite
}

// Types returns the object types in sorted order.
func (t Table) Types() []string {
	out := make([]string, 0, len(t))
	for k := range t {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Merge overlays other onto t, adding types and properties.
func (t Table) Merge(other Table) {
	for typ, props := range other {
		dst, ok := t[typ]
		if !ok {
			dst = map[string]Access{}
			t[typ] = dst
		}
		for p, a := range props {
			dst[p] = a
		}
	}
}

// ParseTable decodes a bacnet_defines.json document.
func ParseTable(data []byte) (Table, error) {
	var t Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "parse bacnet defines")
	}
	for typ, props := range t {
		for p, a := range props {
			if !a.Valid() {
				return nil, eris.Errorf("%s.%s: invalid access %q (want R or R/W)", typ, p, a)
			}
		}
	}
	return t, nil
}

// LoadTable returns the built-in table overlaid with the file at path. A
// missing file yields the built-ins.
func LoadTable(path string) (Table, error) {
	t := Builtin()
	if path == "" {
		return t, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, eris.Wrapf(err, "read %s", path)
	}
	overlay, err := ParseTable(data)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", path)
	}
	t.Merge(overlay)
	return t, nil
}
