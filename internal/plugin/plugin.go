package plugin

import (
	"github.com/kdbgo/kdb/internal/keyset"
)

// Metadata holds a plugin's descriptive strings. Provides/Needs are
// advisory strings a mount loader may consult to order or validate plugin
// composition; this module treats them as opaque equality, per spec.md §6.
type Metadata struct {
	Name        string
	Version     string
	Description string
	Author      string
	Licence     string
	Provides    string
	Needs       string
}

// OpenFunc initializes a freshly constructed Plugin's handle.
type OpenFunc func(p *Plugin) error

// CloseFunc tears down a Plugin's handle when its use-count reaches zero.
type CloseFunc func(p *Plugin) error

// GetFunc populates or augments returned with keys at or below parent. It
// reports the number of keys produced, or a negative count on failure
// (callers should prefer the returned error).
type GetFunc func(p *Plugin, returned *keyset.KeySet, parent *keyset.Key) (int, error)

// SetFunc persists the keys in returned under parent. It reports the
// number of keys written, or a negative count on failure.
type SetFunc func(p *Plugin, returned *keyset.KeySet, parent *keyset.Key) (int, error)

// Plugin is an opaque unit of computation with four lifecycle verbs and a
// scoped configuration KeySet, shared across a backend's chains via an
// explicit use-count.
type Plugin struct {
	Metadata

	// Config is the merged view of system/ (backend-wide) and user/
	// (plugin-specific override) configuration computed by the mount
	// loader; user/ entries take precedence.
	Config *keyset.KeySet

	// Handle is implementation-owned storage for whatever state the
	// plugin's verbs need between calls.
	Handle interface{}

	refs int

	openFn  OpenFunc
	closeFn CloseFunc
	getFn   GetFunc
	setFn   SetFunc
}

// UseCount reports how many chain slots currently reference this plugin
// instance.
func (p *Plugin) UseCount() int { return p.refs }

// Retain increments the plugin's use-count, used when a back-reference
// binds an already-open instance to another chain position.
func (p *Plugin) Retain() { p.refs++ }

// Release decrements the plugin's use-count and reports whether it has
// just reached zero, in which case the caller (normally a Registry) must
// invoke Close.
func (p *Plugin) Release() bool {
	if p.refs > 0 {
		p.refs--
	}
	return p.refs == 0
}

// Get invokes the plugin's read verb, or is a no-op returning (0, nil) if
// the plugin declares none.
func (p *Plugin) Get(returned *keyset.KeySet, parent *keyset.Key) (int, error) {
	if p.getFn == nil {
		return 0, nil
	}
	return p.getFn(p, returned, parent)
}

// Set invokes the plugin's write verb, or is a no-op returning (0, nil) if
// the plugin declares none.
func (p *Plugin) Set(returned *keyset.KeySet, parent *keyset.Key) (int, error) {
	if p.setFn == nil {
		return 0, nil
	}
	return p.setFn(p, returned, parent)
}
