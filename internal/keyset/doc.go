// Package keyset implements the two atomic data types of the configuration
// database: Key, a named value with metadata and a use-count, and KeySet, an
// ordered, name-unique collection of keys with a cursor.
//
// Key and KeySet are defined in the same package because they are mutually
// referential: a Key's metadata is itself a KeySet, and a KeySet exclusively
// owns the slice of Keys it holds. This mirrors struct _Key and struct
// _KeySet in the original C implementation, where a Key's meta field points
// directly at a KeySet.
package keyset
