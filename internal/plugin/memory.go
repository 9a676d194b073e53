package plugin

import (
	"github.com/kdbgo/kdb/internal/keyset"
)

// memoryHandle is the opaque per-instance state of the "default" plugin: a
// flat map from canonical key name to a duplicated Key, grounded on the
// in-memory storage map used by the pack's storage.MemoryStore. It exists
// to exercise the plugin/backend/mount-loader plumbing in tests; it is not
// a production storage plugin (those are out of scope per spec.md §1).
type memoryHandle struct {
	data map[string]*keyset.Key
}

// RegisterMemory registers the "default" plugin kind on r: an in-memory
// key-value store whose Get/Set verbs read and write a parent-scoped view
// of its handle's map.
//
// Behavior:
//   - Get copies every stored key at or below parent into returned.
//   - Set replaces the handle's view at or below parent with returned's
//     keys at or below parent.
//   - Open/Close only allocate/release the handle; no I/O occurs, since
//     durable storage is out of scope for the core (spec.md §1).
func RegisterMemory(r *Registry) error {
	return r.Register("default", func(config *keyset.KeySet) (*Plugin, error) {
		p := &Plugin{
			Metadata: Metadata{
				Name:        "default",
				Version:     "1.0.0",
				Description: "in-memory test double exercising the plugin lifecycle",
				Author:      "kdbgo",
				Licence:     "BSD",
			},
			Config: config,
		}
		p.openFn = func(p *Plugin) error {
			p.Handle = &memoryHandle{data: make(map[string]*keyset.Key)}
			return nil
		}
		p.closeFn = func(p *Plugin) error {
			p.Handle = nil
			return nil
		}
		p.getFn = memoryGet
		p.setFn = memorySet
		return p, nil
	})
}

func memoryGet(p *Plugin, returned *keyset.KeySet, parent *keyset.Key) (int, error) {
	h, _ := p.Handle.(*memoryHandle)
	if h == nil {
		return 0, nil
	}
	n := 0
	for _, k := range h.data {
		if !belowOrEqual(k.Name(), parent.Name()) {
			continue
		}
		if _, err := returned.Append(k.Dup()); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func memorySet(p *Plugin, returned *keyset.KeySet, parent *keyset.Key) (int, error) {
	h, _ := p.Handle.(*memoryHandle)
	if h == nil {
		h = &memoryHandle{data: make(map[string]*keyset.Key)}
		p.Handle = h
	}
	for name := range h.data {
		if belowOrEqual(name, parent.Name()) {
			delete(h.data, name)
		}
	}
	n := 0
	for _, k := range returned.Slice() {
		if !belowOrEqual(k.Name(), parent.Name()) {
			continue
		}
		h.data[k.Name()] = k.Dup()
		n++
	}
	return n, nil
}

func belowOrEqual(name, parent string) bool {
	if parent == "" {
		return true
	}
	if name == parent {
		return true
	}
	if len(name) > len(parent) && name[:len(parent)] == parent && name[len(parent)] == '/' {
		return true
	}
	return false
}
