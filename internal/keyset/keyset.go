package keyset

import (
	"golang.org/x/exp/slices"

	"github.com/kdbgo/kdb/internal/keyname"
	"github.com/kdbgo/kdb/kdberrors"
)

// KSFlag records a KeySet's synchronizer and access-control bits,
// analogous to Key's Flag but for the collection as a whole.
type KSFlag uint8

const (
	// KSFlagSync is set whenever a mutation changes membership or a
	// member's name; a backend clears it after a successful write.
	KSFlagSync KSFlag = 1 << iota

	_ // bit 1 unused, kept to mirror ksflag_t's gap

	// KSFlagReadOnly preserves the original's bit position; no KeySet
	// method sets or checks it, so it does not block mutation.
	KSFlagReadOnly
)

// initialCapacity matches KEYSET_SIZE in the original implementation.
const initialCapacity = 16

// KeySet is an ordered, name-unique collection of Keys with a cursor for
// iteration. Keys remain in canonical-name order at all times; appending a
// key whose name matches an existing member replaces that member.
type KeySet struct {
	keys   []*Key
	cursor int
	flags  KSFlag
}

// NewKeySet creates a KeySet with the given initial capacity hint (≥0) and
// appends each of initialKeys in order.
func NewKeySet(capacity int, initialKeys ...*Key) (*KeySet, error) {
	if capacity < 0 {
		return nil, kdberrors.New(kdberrors.InvalidArgument, "capacity must be non-negative")
	}
	if capacity < initialCapacity {
		capacity = initialCapacity
	}
	ks := &KeySet{
		keys:   make([]*Key, 0, capacity),
		cursor: -1,
	}
	for _, k := range initialKeys {
		if _, err := ks.Append(k); err != nil {
			return nil, err
		}
	}
	return ks, nil
}

// New_ creates an empty KeySet with the default initial capacity. It never
// fails and is used internally wherever a fresh metadata or scratch KeySet
// is needed without surfacing an error return.
func New_() *KeySet {
	ks, _ := NewKeySet(initialCapacity)
	return ks
}

// Len reports the number of keys currently in the set.
func (ks *KeySet) Len() int { return len(ks.keys) }

// Flags returns the KeySet's current flag bits.
func (ks *KeySet) Flags() KSFlag { return ks.flags }

// NeedsSync reports whether the set has been mutated since its last clear.
func (ks *KeySet) NeedsSync() bool { return ks.flags&KSFlagSync != 0 }

// ClearSync clears the sync-needed flag; called by a backend after a
// successful write.
func (ks *KeySet) ClearSync() { ks.flags &^= KSFlagSync }

func searchCmp(k *Key, name string) int {
	c, err := keyname.Compare(k.Name(), name)
	if err != nil {
		// k's name was validated on insertion; name is the probe and
		// may be malformed only when the caller passed a bad argument,
		// which Lookup/Append validate separately before searching.
		return 1
	}
	return c
}

// indexOf returns the position of name in the sorted array and whether it
// was found.
func (ks *KeySet) indexOf(name string) (int, bool) {
	return slices.BinarySearchFunc(ks.keys, name, searchCmp)
}

// Append inserts k in canonical-name order, replacing any existing
// name-equal member, and returns the resulting size. Appending a key that
// is identical by identity to the existing member at that name is a
// silent no-op. A nil key or a key with no name fails.
func (ks *KeySet) Append(k *Key) (int, error) {
	if k == nil {
		return ks.Len(), kdberrors.New(kdberrors.InvalidArgument, "cannot append a nil key")
	}
	if k.Name() == "" {
		return ks.Len(), kdberrors.New(kdberrors.InvalidName, "cannot append a key with no name")
	}

	idx, found := ks.indexOf(k.Name())
	if found {
		if ks.keys[idx] == k {
			return ks.Len(), nil
		}
		ks.keys[idx].decRef()
		ks.keys[idx] = k
		k.incRef()
		ks.flags |= KSFlagSync
		return ks.Len(), nil
	}

	if len(ks.keys) == cap(ks.keys) {
		grown := make([]*Key, len(ks.keys), cap(ks.keys)*8/5+1)
		copy(grown, ks.keys)
		ks.keys = grown
	}
	ks.keys = append(ks.keys, nil)
	copy(ks.keys[idx+1:], ks.keys[idx:])
	ks.keys[idx] = k
	k.incRef()
	ks.flags |= KSFlagSync
	if ks.cursor >= idx {
		ks.cursor++
	}
	return ks.Len(), nil
}

// Pop removes and returns the last key in the set, or false if the set is
// empty.
func (ks *KeySet) Pop() (*Key, bool) {
	n := len(ks.keys)
	if n == 0 {
		return nil, false
	}
	k := ks.keys[n-1]
	ks.keys = ks.keys[:n-1]
	k.decRef()
	ks.flags |= KSFlagSync
	if ks.cursor >= n-1 {
		ks.cursor = n - 2
	}
	return k, true
}

// Lookup returns the key with the given canonical name, or false if no
// such key is a member.
func (ks *KeySet) Lookup(name string) (*Key, bool) {
	if !keyname.IsValid(name) {
		return nil, false
	}
	idx, found := ks.indexOf(name)
	if !found {
		return nil, false
	}
	return ks.keys[idx], true
}

// hasPrefix reports whether levels begins with every element of prefix, in
// order.
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

// Cut removes and returns, as a new KeySet, every key whose name is at or
// below parent (parent's own key included, if present).
func (ks *KeySet) Cut(parent string) (*KeySet, error) {
	prefix, err := keyname.Levels(parent)
	if err != nil {
		return nil, err
	}

	start, _ := ks.indexOf(parent)
	end := start
	for end < len(ks.keys) {
		levels, err := keyname.Levels(ks.keys[end].Name())
		if err != nil {
			break
		}
		if !hasPrefix(levels, prefix) {
			break
		}
		end++
	}

	cut := append([]*Key(nil), ks.keys[start:end]...)
	ks.keys = append(ks.keys[:start], ks.keys[end:]...)
	for _, k := range cut {
		k.decRef()
	}
	ks.cursor = -1
	if len(cut) > 0 {
		ks.flags |= KSFlagSync
	}

	result := New_()
	result.keys = append(result.keys, cut...)
	for _, k := range result.keys {
		k.incRef()
	}
	if len(cut) > 0 {
		result.flags |= KSFlagSync
	}
	return result, nil
}

// AppendKeySet merges other into ks with last-wins semantics: where names
// collide, other's member replaces ks's member. Returns the resulting size.
func (ks *KeySet) AppendKeySet(other *KeySet) (int, error) {
	if other == nil {
		return ks.Len(), kdberrors.New(kdberrors.InvalidArgument, "cannot merge a nil keyset")
	}
	for _, k := range other.keys {
		if _, err := ks.Append(k); err != nil {
			return ks.Len(), err
		}
	}
	return ks.Len(), nil
}

// Rewind resets the cursor so the next call to Next returns the first key.
func (ks *KeySet) Rewind() { ks.cursor = -1 }

// Next advances the cursor and returns the key it now references, or false
// once iteration is exhausted.
func (ks *KeySet) Next() (*Key, bool) {
	if ks.cursor+1 >= len(ks.keys) {
		return nil, false
	}
	ks.cursor++
	return ks.keys[ks.cursor], true
}

// Current returns the key the cursor currently references, or false if the
// cursor is not valid.
func (ks *KeySet) Current() (*Key, bool) {
	if ks.cursor < 0 || ks.cursor >= len(ks.keys) {
		return nil, false
	}
	return ks.keys[ks.cursor], true
}

// Slice returns a copy of the set's keys in canonical order. The
// underlying Keys are shared, not copied; mutating the returned slice does
// not affect the KeySet.
func (ks *KeySet) Slice() []*Key {
	return append([]*Key(nil), ks.keys...)
}

// Dup returns a deep copy of ks: a new KeySet holding duplicates of every
// key, none of which are shared with ks.
func (ks *KeySet) Dup() *KeySet {
	dup := New_()
	for _, k := range ks.keys {
		dup.keys = append(dup.keys, k.Dup())
	}
	for _, k := range dup.keys {
		k.incRef()
	}
	dup.cursor = -1
	return dup
}
