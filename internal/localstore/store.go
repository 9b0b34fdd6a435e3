// Package localstore provides the client-local persistent key/value store
// that holds session state between process restarts.
package localstore

import (
	"fmt"
	"strings"
)

// Drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

// Store is the interface for persisted key/value entries.
type Store interface {
	// Get returns the value stored under key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(key, value string) error
	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error
	// Close releases the underlying resources.
	Close() error
}

// Open opens a store with the named driver at path.
func Open(driver, path string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return OpenSQLite(path)
	case DriverFile:
		return NewFile(path)
	default:
		return nil, fmt.Errorf("localstore: unknown driver %q", driver)
	}
}

// Prefixed namespaces every key of an underlying store so that several
// applications can share one store without colliding.
type Prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix wraps s so that every key is stored as "<prefix>.<key>".
// An empty prefix leaves keys untouched.
func WithPrefix(s Store, prefix string) *Prefixed {
	return &Prefixed{inner: s, prefix: strings.TrimSuffix(prefix, ".")}
}

func (p *Prefixed) key(k string) string {
	if p.prefix == "" {
		return k
	}
	return p.prefix + "." + k
}

// Get implements Store.
func (p *Prefixed) Get(key string) (string, bool, error) {
	return p.inner.Get(p.key(key))
}

// Set implements Store.
func (p *Prefixed) Set(key, value string) error {
	return p.inner.Set(p.key(key), value)
}

// Remove implements Store.
func (p *Prefixed) Remove(key string) error {
	return p.inner.Remove(p.key(key))
}

// Close implements Store.
func (p *Prefixed) Close() error {
	return p.inner.Close()
}

var (
	_ Store = (*SQLite)(nil)
	_ Store = (*File)(nil)
	_ Store = (*Prefixed)(nil)
)
