package keyset

import (
	"strings"

	"github.com/kdbgo/kdb/internal/keyname"
	"github.com/kdbgo/kdb/kdberrors"
)

// Flag records a Key's synchronizer and access-control bits. Bit positions
// match keyflag_t in the original implementation so a future backend can
// rely on them. This module sets FlagSync on mutation and checks
// FlagReadOnly in SetName; FlagMetaSync is never read or set.
type Flag uint8

const (
	// FlagSync is set whenever a key's name or value is mutated and
	// cleared by a backend after a successful write.
	FlagSync Flag = 1 << iota

	_ // bit 1 unused, kept to match the original's gap between bits 0 and 2

	// FlagMetaSync is reserved: the original marks it unused and this
	// module preserves the bit position without acting on it.
	FlagMetaSync

	// FlagReadOnly keeps the original's bit position. When it is set,
	// SetName fails with ReadOnlyOrShared; no method of this module sets it.
	FlagReadOnly
)

// mode distinguishes a Key's two mutually-exclusive value representations.
type mode int

const (
	modeText mode = iota
	modeBinary
)

// Key is a named value with metadata and a use-count across KeySets.
//
// A Key's name is immutable while its use-count is nonzero (see SetName).
// Its value is either a NUL-terminated text string or an opaque byte
// buffer; the two modes are mutually exclusive and switching between them
// is allowed and reflected immediately in subsequent queries.
type Key struct {
	name   string
	m      mode
	text   string
	binary []byte
	meta   *KeySet
	flags  Flag
	refs   int
}

// New creates a Key. An empty name produces a valid transient container
// that cannot be inserted into a KeySet until given a valid name.
func New(name string, opts ...Option) (*Key, error) {
	k := &Key{}
	if name != "" {
		canon, err := keyname.Canonicalize(name)
		if err != nil {
			return nil, err
		}
		k.name = canon
	}
	for _, opt := range opts {
		if err := opt(k); err != nil {
			return nil, err
		}
	}
	return k, nil
}

// Option configures a Key at construction time.
type Option func(*Key) error

// WithValue sets a text value at construction time.
func WithValue(text string) Option {
	return func(k *Key) error { return k.SetValue(text) }
}

// WithBinary sets a binary value at construction time.
func WithBinary(b []byte) Option {
	return func(k *Key) error { k.SetBinary(b); return nil }
}

// Name returns the key's canonical name.
func (k *Key) Name() string { return k.name }

// BaseName returns the last level of the key's name.
func (k *Key) BaseName() string {
	if k.name == "" {
		return ""
	}
	base, err := keyname.Base(k.name)
	if err != nil {
		return ""
	}
	return base
}

// ParentName returns the canonical name of the key's parent, or "" if the
// key's name has no parent level.
func (k *Key) ParentName() string {
	if k.name == "" {
		return ""
	}
	parent, err := keyname.Parent(k.name)
	if err != nil {
		return ""
	}
	return parent
}

// UseCount reports how many KeySets currently hold this key.
func (k *Key) UseCount() int { return k.refs }

// IsReadOnly reports whether the key's read-only flag is set.
func (k *Key) IsReadOnly() bool { return k.flags&FlagReadOnly != 0 }

// Flags returns the key's current flag bits.
func (k *Key) Flags() Flag { return k.flags }

// NeedsSync reports whether the key has been mutated since its last clear.
func (k *Key) NeedsSync() bool { return k.flags&FlagSync != 0 }

// ClearSync clears the sync-needed flag; called by a backend after a
// successful write.
func (k *Key) ClearSync() { k.flags &^= FlagSync }

// SetName renames the key. It fails with ReadOnlyOrShared if the key's
// use-count is nonzero or its read-only flag is set, and with InvalidName
// if name violates the key-name grammar.
func (k *Key) SetName(name string) error {
	if k.refs > 0 || k.IsReadOnly() {
		return kdberrors.New(kdberrors.ReadOnlyOrShared, "key name cannot change while shared or read-only")
	}
	canon, err := keyname.Canonicalize(name)
	if err != nil {
		return err
	}
	k.name = canon
	k.flags |= FlagSync
	return nil
}

// SetValue sets the key to text mode with the given value. An embedded NUL
// byte is rejected since a text value is conceptually NUL-terminated.
func (k *Key) SetValue(text string) error {
	if strings.IndexByte(text, 0) >= 0 {
		return kdberrors.New(kdberrors.InvalidArgument, "text value may not contain an embedded NUL byte")
	}
	k.m = modeText
	k.text = text
	k.binary = nil
	k.flags |= FlagSync
	return nil
}

// SetBinary sets the key to binary mode with the given bytes, which may be
// arbitrary including embedded NULs.
func (k *Key) SetBinary(b []byte) {
	k.m = modeBinary
	k.binary = append([]byte(nil), b...)
	k.text = ""
	k.flags |= FlagSync
}

// IsBinary reports whether the key is currently in binary mode.
func (k *Key) IsBinary() bool { return k.m == modeBinary }

// Value returns the key's text value. It returns "" if the key is in
// binary mode.
func (k *Key) Value() string {
	if k.m == modeBinary {
		return ""
	}
	return k.text
}

// Binary returns the key's binary value. It returns nil if the key is in
// text mode.
func (k *Key) Binary() []byte {
	if k.m == modeText {
		return nil
	}
	return k.binary
}

// Size returns the stored value's byte length: for a text key this
// includes the terminating NUL, matching dataSize in the original
// implementation; for a binary key it is simply len(Binary()).
func (k *Key) Size() int {
	if k.m == modeBinary {
		return len(k.binary)
	}
	return len(k.text) + 1
}

// Meta returns the key's metadata collection, creating it on first access.
func (k *Key) Meta() *KeySet {
	if k.meta == nil {
		k.meta = New_()
	}
	return k.meta
}

// incRef and decRef implement the use-count discipline of spec.md §5: a
// Key's use-count is incremented on insertion into a KeySet and decremented
// on removal.
func (k *Key) incRef() { k.refs++ }

func (k *Key) decRef() {
	if k.refs > 0 {
		k.refs--
	}
}

// Dup returns a shallow copy of k with a zero use-count, suitable for
// inserting into another KeySet as an independent key.
func (k *Key) Dup() *Key {
	dup := &Key{
		name:   k.name,
		m:      k.m,
		text:   k.text,
		binary: append([]byte(nil), k.binary...),
		flags:  k.flags,
	}
	if k.meta != nil {
		dup.meta = k.meta.Dup()
	}
	return dup
}
