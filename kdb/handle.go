package kdb

import (
	"github.com/sirupsen/logrus"

	"github.com/kdbgo/kdb/internal/backend"
	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/internal/mount"
	"github.com/kdbgo/kdb/internal/plugin"
	"github.com/kdbgo/kdb/internal/split"
	"github.com/kdbgo/kdb/internal/trie"
	"github.com/kdbgo/kdb/kdberrors"
)

// Handle is a single database handle: a trie of backends, the plugin
// registry that built them, and the mount description the handle was
// opened or mounted with. Per spec.md §5, no operation on a Handle may be
// interleaved with another on the same Handle; disjoint handles share no
// mutable state and may be used concurrently.
type Handle struct {
	trie     *trie.Trie
	registry *plugin.Registry
	desc     *keyset.KeySet
	backends []*backend.Backend
	log      logrus.FieldLogger
}

// Option configures a Handle at Open time.
type Option func(*Handle) error

// WithLogger overrides the handle's logger, which is otherwise
// logrus.StandardLogger().
func WithLogger(log logrus.FieldLogger) Option {
	return func(h *Handle) error {
		h.log = log
		return nil
	}
}

// WithModules registers plugin kinds into the handle's registry before
// any mount description is loaded. Dynamic loading from shared libraries
// is out of scope (spec.md §1); callers wire in-process factories here.
func WithModules(register func(*plugin.Registry) error) Option {
	return func(h *Handle) error {
		if register == nil {
			return nil
		}
		return register(h.registry)
	}
}

// WithMountDescription seeds the handle with a previously persisted mount
// description — the keyset under system/elektra/mountpoints/ — so Open
// populates the trie with every backend it names, in addition to the
// always-present default backend.
func WithMountDescription(desc *keyset.KeySet) Option {
	return func(h *Handle) error {
		if desc == nil {
			return nil
		}
		_, err := h.desc.AppendKeySet(desc)
		return err
	}
}

// Open constructs a Handle. With no options the trie holds only the
// default backend.
func Open(opts ...Option) (*Handle, error) {
	h := &Handle{
		registry: plugin.NewRegistry(),
		desc:     keyset.New_(),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	h.registry.SetLogger(h.log)

	tr, backends, err := mount.Load(h.desc, h.registry, nil, h.log)
	if err != nil {
		return nil, err
	}
	h.trie = tr
	h.backends = backends
	return h, nil
}

// Close releases every backend the handle holds, closing each plugin once
// its use-count reaches zero. The first failure is reported on errorKey
// and returned; closing continues across the remaining backends so a
// single misbehaving plugin does not strand the others open.
func (h *Handle) Close(errorKey *keyset.Key) error {
	var firstErr error
	for _, b := range h.backends {
		if err := b.Close(nil); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	h.trie.Close()
	h.backends = nil
	setErrorIfPresent(errorKey, firstErr)
	return firstErr
}

// Mount builds a new backend from config — a keyset shaped per spec.md
// §4.5 (mountpoint/getplugins/setplugins/errorplugins/config, all rooted
// at system/elektra/mountpoints/<label>) except that the mountpoint child
// itself is supplied separately as mountpoint — and inserts it into the
// trie under mountpoint's name. The assembled description is folded into
// the handle's own mount description keyset, keeping it self-describing
// per spec.md §9.
func (h *Handle) Mount(label string, mountpoint *keyset.Key, config *keyset.KeySet, errorKey *keyset.Key) error {
	if mountpoint == nil {
		return kdberrors.New(kdberrors.InvalidArgument, "mountpoint key must not be nil")
	}
	root := mount.Root + "/" + label

	mpChild, err := keyset.New(root+"/mountpoint", keyset.WithValue(mountpoint.Name()))
	if err != nil {
		return err
	}

	full := keyset.New_()
	if _, err := full.Append(mpChild); err != nil {
		return err
	}
	if config != nil {
		if _, err := full.AppendKeySet(config); err != nil {
			return err
		}
	}

	b, err := backend.Open(root, label, full, h.registry, errorKey)
	if err != nil {
		return err
	}

	h.trie.Insert(b.Mountpoint.Name(), b)
	h.backends = append(h.backends, b)
	if _, err := h.desc.AppendKeySet(full); err != nil {
		return err
	}
	h.log.WithField("label", label).WithField("mountpoint", mountpoint.Name()).Info("mounted backend")
	return nil
}

// Get resolves parent's backend via the trie and invokes its read chain
// in ascending position, accumulating keys into returned. A chain failure
// short-circuits the remaining read plugins, runs the backend's error
// chain, and is reported on errorKey and as the returned error.
func (h *Handle) Get(returned *keyset.KeySet, parent *keyset.Key, errorKey *keyset.Key) (int, error) {
	b, err := h.resolve(parent)
	if err != nil {
		setErrorIfPresent(errorKey, err)
		return -1, err
	}

	total := 0
	for _, p := range b.Read {
		if p == nil {
			continue
		}
		n, err := p.Get(returned, parent)
		if err != nil {
			h.runErrorChain(b, errorKey)
			setErrorIfPresent(errorKey, err)
			return -1, err
		}
		total += n
	}
	return total, nil
}

// Set partitions returned by destination backend (internal/split) and
// invokes each partition's write chain in ascending position. Per
// spec.md §7, writes are not transactional across mountpoints: a failure
// in one partition's chain is reported and ends the call, so later
// partitions are not written, while partitions already written before it
// stay written.
func (h *Handle) Set(returned *keyset.KeySet, parent *keyset.Key, errorKey *keyset.Key) (int, error) {
	sp, err := split.Build(h.trie, returned, parent)
	if err != nil {
		setErrorIfPresent(errorKey, err)
		return -1, err
	}

	total := 0
	for i := 0; i < sp.Len(); i++ {
		if !sp.BelowParent(i) && !sp.NeedsSync(i) {
			continue
		}
		b := sp.Backend(i)
		ks := sp.KeySet(i)
		p := sp.Parent(i)

		for _, pl := range b.Write {
			if pl == nil {
				continue
			}
			n, err := pl.Set(ks, p)
			if err != nil {
				h.runErrorChain(b, errorKey)
				setErrorIfPresent(errorKey, err)
				return -1, err
			}
			total += n
		}
		ks.ClearSync()
	}
	return total, nil
}

func (h *Handle) resolve(parent *keyset.Key) (*backend.Backend, error) {
	name := ""
	if parent != nil {
		name = parent.Name()
	}
	v, ok := h.trie.Lookup(name)
	if !ok {
		return nil, kdberrors.Newf(kdberrors.NotFound, "no backend covers %q", name)
	}
	b, ok := v.(*backend.Backend)
	if !ok || b == nil {
		return nil, kdberrors.Newf(kdberrors.NotFound, "no backend covers %q", name)
	}
	return b, nil
}

// runErrorChain gives a backend's error-chain plugins a chance to observe
// a failed operation. Plugin only exposes get/set verbs (spec.md §4.4 has
// no separate error verb), so error plugins are driven through Set with
// errorKey itself as the sole reported key and as the parent.
func (h *Handle) runErrorChain(b *backend.Backend, errorKey *keyset.Key) {
	if errorKey == nil {
		return
	}
	report := keyset.New_()
	if _, err := report.Append(errorKey); err != nil {
		return
	}
	for _, p := range b.Error {
		if p == nil {
			continue
		}
		if _, err := p.Set(report, errorKey); err != nil {
			h.log.WithField("plugin", p.Name).WithError(err).Warn("error-chain plugin failed")
		}
	}
}

func setErrorIfPresent(errorKey *keyset.Key, err error) {
	if errorKey != nil {
		errorKey.SetError(err)
	}
}
