package keyname

import (
	"strings"

	"github.com/kdbgo/kdb/kdberrors"
)

// EscapeChar is the single character used to escape a literal separator or
// itself inside a key-name level, matching ESCAPE_CHAR in the original
// implementation.
const EscapeChar = '\\'

// Separator splits levels of a key name.
const Separator = '/'

// Namespace is the top-level prefix of a key name indicating its role.
type Namespace int

// Namespace values, identifying which of the recognised namespaces a name
// starts with. Their declaration order here is not the comparison order:
// see Compare, which sorts by the namespace's raw string like every other
// level rather than by this enum's iota values (see DESIGN.md).
const (
	NamespaceNone Namespace = iota
	NamespaceSpec
	NamespaceProc
	NamespaceDir
	NamespaceCascading
	NamespaceUser
	NamespaceSystem
)

var namespaceNames = map[string]Namespace{
	"spec":      NamespaceSpec,
	"proc":      NamespaceProc,
	"dir":       NamespaceDir,
	"cascading": NamespaceCascading,
	"user":      NamespaceUser,
	"system":    NamespaceSystem,
}

func (n Namespace) String() string {
	for s, v := range namespaceNames {
		if v == n {
			return s
		}
	}
	return ""
}

// Levels splits a raw key name into its canonical level sequence: the
// leading namespace level followed by zero or more non-empty levels, with
// escape sequences left intact inside each level. A bare "/" inside a level
// must be written "\/"; a literal "\" must be written "\\". Empty levels
// produced by a doubled separator ("//") collapse away.
func Levels(name string) ([]string, error) {
	if name == "" {
		return nil, nil
	}

	var levels []string
	var cur strings.Builder
	escaped := false
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case escaped:
			cur.WriteByte(c)
			escaped = false
		case c == EscapeChar:
			cur.WriteByte(c)
			escaped = true
		case c == Separator:
			if cur.Len() > 0 {
				levels = append(levels, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if escaped {
		return nil, kdberrors.New(kdberrors.InvalidName, "name ends with a dangling escape character")
	}
	if cur.Len() > 0 {
		levels = append(levels, cur.String())
	}

	if len(levels) == 0 {
		return nil, kdberrors.New(kdberrors.InvalidName, "name has no namespace")
	}
	if _, ok := namespaceNames[levels[0]]; !ok {
		return nil, kdberrors.Newf(kdberrors.InvalidName, "unknown namespace %q", levels[0])
	}
	return levels, nil
}

// Join re-assembles a level sequence into a canonical name string.
func Join(levels []string) string {
	return strings.Join(levels, string(Separator))
}

// Canonicalize validates name and returns its canonical form: the same
// levels, collapsed and rejoined with single separators.
func Canonicalize(name string) (string, error) {
	levels, err := Levels(name)
	if err != nil {
		return "", err
	}
	return Join(levels), nil
}

// NamespaceOf returns the namespace of name, which must already be valid.
func NamespaceOf(name string) (Namespace, error) {
	levels, err := Levels(name)
	if err != nil {
		return NamespaceNone, err
	}
	return namespaceNames[levels[0]], nil
}

// Parent returns the canonical name of the parent of name. The parent of
// "a/b/c" is "a/b"; a name consisting of only a namespace level has no
// parent and Parent returns "".
func Parent(name string) (string, error) {
	levels, err := Levels(name)
	if err != nil {
		return "", err
	}
	if len(levels) <= 1 {
		return "", nil
	}
	return Join(levels[:len(levels)-1]), nil
}

// Base returns the last level of name (its base name), unescaped back to
// its raw content.
func Base(name string) (string, error) {
	levels, err := Levels(name)
	if err != nil {
		return "", err
	}
	return Unescape(levels[len(levels)-1]), nil
}

// Escape converts raw level content into its escaped on-the-wire form:
// "\" becomes "\\" and "/" becomes "\/".
func Escape(raw string) string {
	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == EscapeChar || c == Separator {
			b.WriteByte(EscapeChar)
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Unescape reverses Escape, turning an on-the-wire level back into its raw
// content.
func Unescape(level string) string {
	var b strings.Builder
	escaped := false
	for i := 0; i < len(level); i++ {
		c := level[i]
		if escaped {
			b.WriteByte(c)
			escaped = false
			continue
		}
		if c == EscapeChar {
			escaped = true
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// IsValid reports whether name satisfies the key-name grammar.
func IsValid(name string) bool {
	_, err := Levels(name)
	return err == nil
}

// Compare orders two canonical names lexicographically level-by-level,
// namespace level included. This matches the original implementation's
// keyset ordering, which is effectively a byte-wise comparison of the
// full name: "system/..." sorts before "user/..." because 's' < 'u', not
// because of any separately-ranked namespace table. A namespace table
// would in fact get this backwards unless its ranks happen to reproduce
// alphabetical order, so Compare does not keep one.
func Compare(a, b string) (int, error) {
	la, err := Levels(a)
	if err != nil {
		return 0, err
	}
	lb, err := Levels(b)
	if err != nil {
		return 0, err
	}

	for i := 0; ; i++ {
		switch {
		case i >= len(la) && i >= len(lb):
			return 0, nil
		case i >= len(la):
			return -1, nil
		case i >= len(lb):
			return 1, nil
		}
		if c := strings.Compare(la[i], lb[i]); c != 0 {
			if c < 0 {
				return -1, nil
			}
			return 1, nil
		}
	}
}

// Equal reports whether a and b canonicalise to the same level sequence.
func Equal(a, b string) bool {
	c, err := Compare(a, b)
	return err == nil && c == 0
}
