package plugin

import (
	"github.com/sirupsen/logrus"

	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/kdberrors"
)

// Factory constructs a fresh, unopened Plugin instance of a given kind,
// bound to the merged config the mount loader computed for it.
type Factory func(config *keyset.KeySet) (*Plugin, error)

// Registry is the stand-in for spec.md's "modules" keyset: a registry of
// plugin kinds available to the mount loader. Dynamic module loading from
// shared libraries is explicitly out of scope (spec.md §1), so kinds are
// registered in-process.
type Registry struct {
	factories map[string]Factory
	log       logrus.FieldLogger
}

// NewRegistry creates an empty Registry. The "default" in-memory test
// plugin (see memory.go) is not registered automatically; callers that
// want it call RegisterMemory explicitly.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
		log:       logrus.StandardLogger(),
	}
}

// SetLogger overrides the registry's logger.
func (r *Registry) SetLogger(log logrus.FieldLogger) { r.log = log }

// Register adds a plugin kind to the registry, or fails with
// InvalidArgument if the kind is already registered.
func (r *Registry) Register(kind string, f Factory) error {
	if kind == "" || f == nil {
		return kdberrors.New(kdberrors.InvalidArgument, "plugin kind and factory must be non-empty")
	}
	if _, exists := r.factories[kind]; exists {
		return kdberrors.Newf(kdberrors.InvalidArgument, "plugin kind %q already registered", kind)
	}
	r.factories[kind] = f
	return nil
}

// Open constructs, configures and opens a fresh Plugin of the given kind.
// Its use-count starts at 1. A failure in the plugin's Open verb is
// reported as PluginOpenFailed and the caller should abandon the backend
// that would have held it (spec.md §7).
func (r *Registry) Open(kind string, config *keyset.KeySet) (*Plugin, error) {
	factory, ok := r.factories[kind]
	if !ok {
		return nil, kdberrors.Newf(kdberrors.NotFound, "plugin kind %q not registered", kind)
	}

	p, err := factory(config)
	if err != nil {
		return nil, kdberrors.Wrap(kdberrors.PluginOpenFailed, "plugin factory failed", err)
	}
	p.refs = 1

	if p.openFn != nil {
		if err := p.openFn(p); err != nil {
			r.log.WithField("plugin", kind).WithError(err).Warn("plugin open failed")
			return nil, kdberrors.Wrap(kdberrors.PluginOpenFailed, "plugin open verb failed", err)
		}
	}
	r.log.WithField("plugin", kind).Debug("plugin opened")
	return p, nil
}

// Close releases one reference to p and invokes its Close verb once the
// use-count reaches zero.
func (r *Registry) Close(p *Plugin) error {
	if p == nil {
		return nil
	}
	if !p.Release() {
		return nil
	}
	if p.closeFn == nil {
		return nil
	}
	if err := p.closeFn(p); err != nil {
		r.log.WithField("plugin", p.Name).WithError(err).Warn("plugin close failed")
		return kdberrors.Wrap(kdberrors.PluginExecutionFailed, "plugin close verb failed", err)
	}
	r.log.WithField("plugin", p.Name).Debug("plugin closed")
	return nil
}
