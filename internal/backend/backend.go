package backend

import (
	"sort"

	"github.com/kdbgo/kdb/internal/keyname"
	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/internal/plugin"
	"github.com/kdbgo/kdb/kdberrors"
)

// ChainSize is the fixed upper bound on plugins per chain, matching
// NR_OF_PLUGINS in the original implementation.
const ChainSize = 10

// Backend composes plugins into read, write, and error chains anchored at
// a single mountpoint.
type Backend struct {
	Mountpoint *keyset.Key

	Read  [ChainSize]*plugin.Plugin
	Write [ChainSize]*plugin.Plugin
	Error [ChainSize]*plugin.Plugin

	registry *plugin.Registry
}

// Open builds a Backend from the mount-description slice desc, which must
// contain root (system/elektra/mountpoints/<label>) and everything below
// it. label is <label>'s own name, used only as the backend's short label
// (the mountpoint key's value).
func Open(root, label string, desc *keyset.KeySet, registry *plugin.Registry, errorKey *keyset.Key) (*Backend, error) {
	mpKey, ok := desc.Lookup(root + "/mountpoint")
	if !ok {
		err := kdberrors.Newf(kdberrors.BackendMisconfigured, "mount description %q has no mountpoint child", root)
		setErrorIfPresent(errorKey, err)
		return nil, err
	}

	mp, err := keyset.New(mpKey.Value(), keyset.WithValue(label))
	if err != nil {
		err = kdberrors.Wrap(kdberrors.BackendMisconfigured, "invalid mountpoint name", err)
		setErrorIfPresent(errorKey, err)
		return nil, err
	}

	b := &Backend{Mountpoint: mp, registry: registry}

	backendConfig, err := remap(desc, root+"/config", "system")
	if err != nil {
		setErrorIfPresent(errorKey, err)
		return nil, err
	}

	refs := map[string]*plugin.Plugin{}

	chains := []struct {
		suffix string
		slot   *[ChainSize]*plugin.Plugin
	}{
		{"getplugins", &b.Read},
		{"setplugins", &b.Write},
		{"errorplugins", &b.Error},
	}

	for _, chain := range chains {
		entries, err := directChildren(desc, root+"/"+chain.suffix)
		if err != nil {
			setErrorIfPresent(errorKey, err)
			return nil, err
		}
		for _, entry := range entries {
			r, err := parseRef(entry.BaseName())
			if err != nil {
				setErrorIfPresent(errorKey, err)
				return nil, err
			}
			if r.ordinal < 0 || r.ordinal >= ChainSize {
				err := kdberrors.Newf(kdberrors.BackendMisconfigured, "ordinal %d out of range", r.ordinal)
				setErrorIfPresent(errorKey, err)
				return nil, err
			}

			if r.kind == refNamed {
				if existing, ok := refs[r.refName]; ok {
					existing.Retain()
					chain.slot[r.ordinal] = existing
					continue
				}
				if r.plugin == "" {
					err := kdberrors.Newf(kdberrors.BackendMisconfigured, "back-reference %q has no earlier definition to reuse", r.refName)
					setErrorIfPresent(errorKey, err)
					return nil, err
				}
			}

			pluginConfig, err := remap(desc, entry.Name()+"/config", "user")
			if err != nil {
				setErrorIfPresent(errorKey, err)
				return nil, err
			}
			merged := keyset.New_()
			if _, err := merged.AppendKeySet(backendConfig); err != nil {
				setErrorIfPresent(errorKey, err)
				return nil, err
			}
			if _, err := merged.AppendKeySet(pluginConfig); err != nil {
				setErrorIfPresent(errorKey, err)
				return nil, err
			}

			p, err := registry.Open(r.plugin, merged)
			if err != nil {
				setErrorIfPresent(errorKey, err)
				return nil, err
			}
			chain.slot[r.ordinal] = p
			if r.kind == refNamed {
				refs[r.refName] = p
			}
		}
	}

	return b, nil
}

// OpenDefault builds the fallback backend reachable via the trie's
// empty-string slot: an empty mountpoint name, label "default", and no
// plugins in any chain.
func OpenDefault(registry *plugin.Registry, errorKey *keyset.Key) (*Backend, error) {
	mp, err := keyset.New("", keyset.WithValue("default"))
	if err != nil {
		setErrorIfPresent(errorKey, err)
		return nil, err
	}
	return &Backend{Mountpoint: mp, registry: registry}, nil
}

// Close releases this backend's reference to every plugin instance it
// holds, closing each once its use-count reaches zero.
func (b *Backend) Close(errorKey *keyset.Key) error {
	var firstErr error
	for _, chain := range [][ChainSize]*plugin.Plugin{b.Read, b.Write, b.Error} {
		for _, p := range chain {
			if p == nil {
				continue
			}
			if err := b.registry.Close(p); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		setErrorIfPresent(errorKey, firstErr)
	}
	return firstErr
}

func setErrorIfPresent(errorKey *keyset.Key, err error) {
	if errorKey != nil {
		errorKey.SetError(err)
	}
}

// directChildren returns, in ascending ordinal order, every key in desc
// whose parent name is exactly root.
func directChildren(desc *keyset.KeySet, root string) ([]*keyset.Key, error) {
	var entries []*keyset.Key
	for _, k := range desc.Slice() {
		if k.ParentName() == root {
			entries = append(entries, k)
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		ri, erri := parseRef(entries[i].BaseName())
		rj, errj := parseRef(entries[j].BaseName())
		if erri != nil || errj != nil {
			return entries[i].Name() < entries[j].Name()
		}
		return ri.ordinal < rj.ordinal
	})
	return entries, nil
}

// remap copies every key in desc at or below root into a fresh KeySet,
// replacing the root prefix with newNS. root itself is not included: only
// its descendants are.
func remap(desc *keyset.KeySet, root, newNS string) (*keyset.KeySet, error) {
	rootLevels, err := keyname.Levels(root)
	if err != nil {
		return nil, kdberrors.Wrap(kdberrors.BackendMisconfigured, "invalid config root", err)
	}

	result := keyset.New_()
	for _, k := range desc.Slice() {
		levels, err := keyname.Levels(k.Name())
		if err != nil {
			continue
		}
		if len(levels) <= len(rootLevels) || !hasPrefix(levels, rootLevels) {
			continue
		}
		suffix := levels[len(rootLevels):]
		newName := keyname.Join(append([]string{newNS}, suffix...))

		nk, err := keyset.New(newName)
		if err != nil {
			return nil, kdberrors.Wrap(kdberrors.BackendMisconfigured, "invalid remapped config key", err)
		}
		if k.IsBinary() {
			nk.SetBinary(k.Binary())
		} else if k.Value() != "" {
			_ = nk.SetValue(k.Value())
		}
		if _, err := result.Append(nk); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func hasPrefix(levels, prefix []string) bool {
	if len(levels) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if levels[i] != p {
			return false
		}
	}
	return true
}
