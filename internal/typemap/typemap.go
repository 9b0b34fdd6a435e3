// Package typemap formats record values according to a field → data type
// map (DateTime, millisecond, byte).
package typemap

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Data types understood by Format.
const (
	TypeDateTime    = "DateTime"
	TypeMillisecond = "millisecond"
	TypeByte        = "byte"
)

// DateTimeLayout renders DateTime values, e.g. 05-Mar-2024 01:07:09 PM.
const DateTimeLayout = "02-Jan-2006 03:04:05 PM"

// Map is a reloadable field → type map. It is safe for concurrent use.
type Map struct {
	mu    sync.RWMutex
	types map[string]string
}

// New returns a Map holding a copy of types.
func New(types map[string]string) *Map {
	m := &Map{}
	m.set(types)
	return m
}

// Load reads a YAML (or JSON) mapping of field names to types.
func Load(path string) (*Map, error) {
	m := New(nil)
	if err := m.Reload(path); err != nil {
		return nil, err
	}
	return m, nil
}

// Reload replaces the map with the contents of path. On error the current
// map is kept.
func (m *Map) Reload(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("typemap: read %s: %w", path, err)
	}
	var types map[string]string
	if err := yaml.Unmarshal(data, &types); err != nil {
		return fmt.Errorf("typemap: parse %s: %w", path, err)
	}
	m.set(types)
	return nil
}

func (m *Map) set(types map[string]string) {
	cp := make(map[string]string, len(types))
	for k, v := range types {
		cp[k] = v
	}
	m.mu.Lock()
	m.types = cp
	m.mu.Unlock()
}

// Types returns a copy of the current map.
func (m *Map) Types() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp := make(map[string]string, len(m.types))
	for k, v := range m.types {
		cp[k] = v
	}
	return cp
}

// TypeOf returns the type for a field. Dotted paths fall back to their last
// segment.
func (m *Map) TypeOf(key string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.types[key]; ok {
		return t
	}
	if i := strings.LastIndex(key, "."); i >= 0 {
		return m.types[key[i+1:]]
	}
	return ""
}

// Format renders value according to the type mapped for key. Unmapped keys
// and unparseable DateTime values are rendered as-is.
func (m *Map) Format(key string, value any) string {
	switch m.TypeOf(key) {
	case TypeDateTime:
		if t, ok := asTime(value); ok {
			return t.Format(DateTimeLayout)
		}
	case TypeMillisecond:
		return plain(value) + "ms"
	case TypeByte:
		return plain(value) + "bytes"
	}
	return plain(value)
}

// plain renders value without exponent notation; JSON numbers decode as
// float64 and %v would print 1500000 as 1.5e+06.
func plain(value any) string {
	switch x := value.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	}
	return fmt.Sprintf("%v", value)
}

// FormatRecord flattens rec and formats every leaf value.
func (m *Map) FormatRecord(rec map[string]any) map[string]string {
	out := make(map[string]string)
	for _, k := range FlatKeys(rec) {
		v, _ := GetPath(rec, k)
		out[k] = m.Format(k, v)
	}
	return out
}

// FlatKeys returns the dotted paths of every non-object value in obj,
// sorted.
func FlatKeys(obj map[string]any) []string {
	var out []string
	var walk func(prefix string, o map[string]any)
	walk = func(prefix string, o map[string]any) {
		for k, v := range o {
			p := k
			if prefix != "" {
				p = prefix + "." + k
			}
			if child, ok := v.(map[string]any); ok {
				walk(p, child)
				continue
			}
			out = append(out, p)
		}
	}
	walk("", obj)
	sort.Strings(out)
	return out
}

// GetPath resolves a dotted path in obj.
func GetPath(obj map[string]any, path string) (any, bool) {
	var cur any = obj
	for _, tok := range strings.Split(path, ".") {
		o, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = o[tok]; !ok {
			return nil, false
		}
	}
	return cur, true
}

func asTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x, true
	case float64:
		return time.UnixMilli(int64(x)), true
	case int64:
		return time.UnixMilli(x), true
	case int:
		return time.UnixMilli(int64(x)), true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", time.DateOnly} {
			if t, err := time.Parse(layout, x); err == nil {
				return t, true
			}
		}
		if ms, err := strconv.ParseInt(x, 10, 64); err == nil {
			return time.UnixMilli(ms), true
		}
	}
	return time.Time{}, false
}
