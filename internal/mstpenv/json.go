package mstpenv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rotisserie/eris"
)

// LoadJSON reads an env.json object mapping variable names to values.
// Values may be strings or numbers; missing variables keep their defaults.
func LoadJSON(path string) (Env, error) {
	m, err := ReadJSON(path)
	if err != nil {
		return Env{}, err
	}
	return FromMap(m)
}

// ReadJSON returns the raw variables of an env.json file as strings.
func ReadJSON(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, eris.Wrapf(err, "parse %s", path)
	}
	m := make(map[string]string, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			m[k] = t
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		case nil:
		default:
			m[k] = fmt.Sprint(t)
		}
	}
	return m, nil
}

// SaveJSON writes e as env.json, numbers as JSON numbers.
func (e Env) SaveJSON(path string) error {
	obj := map[string]interface{}{
		KeyIface:         e.Iface,
		KeyBaud:          e.Baud,
		KeyMAC:           e.MAC,
		KeyMaxInfoFrames: e.MaxInfoFrames,
		KeyMaxMaster:     e.MaxMaster,
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "create %s", filepath.Dir(path))
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
