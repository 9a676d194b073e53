package split

import (
	"github.com/kdbgo/kdb/internal/backend"
	"github.com/kdbgo/kdb/internal/keyname"
	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/internal/trie"
	"github.com/kdbgo/kdb/kdberrors"
)

// Split is the per-write partition of a KeySet by destination backend.
// Index i across KeySet, Backend, Parent, NeedsSync and BelowParent
// describes one partition; the parallel-array shape mirrors the original
// implementation's Split struct rather than a slice of structs.
type Split struct {
	keysets      []*keyset.KeySet
	backends     []*backend.Backend
	parents      []*keyset.Key
	needsSync    []bool
	belowParents []bool

	index map[*backend.Backend]int
}

// New creates an empty Split.
func New() *Split {
	return &Split{index: make(map[*backend.Backend]int)}
}

// Len reports the number of partitions.
func (s *Split) Len() int { return len(s.keysets) }

// KeySet returns partition i's keys.
func (s *Split) KeySet(i int) *keyset.KeySet { return s.keysets[i] }

// Backend returns partition i's destination backend.
func (s *Split) Backend(i int) *backend.Backend { return s.backends[i] }

// Parent returns partition i's parent key, which is its backend's
// mountpoint.
func (s *Split) Parent(i int) *keyset.Key { return s.parents[i] }

// NeedsSync reports whether any key in partition i has its sync-needed
// flag set.
func (s *Split) NeedsSync(i int) bool { return s.needsSync[i] }

// BelowParent reports whether any key in partition i is at or below the
// parent key the Split was built against.
func (s *Split) BelowParent(i int) bool { return s.belowParents[i] }

// partitionFor returns the index of b's partition, creating it on first
// use.
func (s *Split) partitionFor(b *backend.Backend) int {
	if i, ok := s.index[b]; ok {
		return i
	}
	i := len(s.keysets)
	s.keysets = append(s.keysets, keyset.New_())
	s.backends = append(s.backends, b)
	s.parents = append(s.parents, b.Mountpoint)
	s.needsSync = append(s.needsSync, false)
	s.belowParents = append(s.belowParents, false)
	s.index[b] = i
	return i
}

// Build partitions ks by the backend each key resolves to in tr. parent
// is the caller's operation parent, used only to compute each
// partition's below-parent flag; it may be a transient key with no
// keyset membership.
//
// Build fails with NotFound if some key resolves to no backend at all
// (only possible if tr has no default/root slot populated).
func Build(tr *trie.Trie, ks *keyset.KeySet, parent *keyset.Key) (*Split, error) {
	s := New()

	var parentLevels []string
	if parent != nil && parent.Name() != "" {
		parentLevels, _ = keyname.Levels(parent.Name())
	}

	for _, k := range ks.Slice() {
		v, ok := tr.Lookup(k.Name())
		if !ok {
			return nil, kdberrors.Newf(kdberrors.NotFound, "no backend covers key %q", k.Name())
		}
		b, ok := v.(*backend.Backend)
		if !ok || b == nil {
			return nil, kdberrors.Newf(kdberrors.NotFound, "no backend covers key %q", k.Name())
		}

		i := s.partitionFor(b)
		if _, err := s.keysets[i].Append(k); err != nil {
			return nil, err
		}
		if k.NeedsSync() {
			s.needsSync[i] = true
		}
		if isBelowOrEqual(k.Name(), parentLevels) {
			s.belowParents[i] = true
		}
	}

	return s, nil
}

// isBelowOrEqual reports whether name's canonical levels begin with
// parentLevels. An empty parentLevels (root parent) matches every name.
func isBelowOrEqual(name string, parentLevels []string) bool {
	if len(parentLevels) == 0 {
		return true
	}
	levels, err := keyname.Levels(name)
	if err != nil || len(levels) < len(parentLevels) {
		return false
	}
	for i, p := range parentLevels {
		if levels[i] != p {
			return false
		}
	}
	return true
}
