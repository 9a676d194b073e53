// Package trie implements the longest-prefix-matching index from a
// canonical key name to its responsible backend.
//
// The trie is byte-indexed with compressed edge text, mirroring struct
// _Trie in the original implementation (a fixed branch array plus
// path-compressed edge text) rather than the hash-map alternative spec.md
// §9 permits. A Trie only weakly references the values inserted into it
// (backends remain owned by the database handle); Close releases the
// trie's own node structure without touching those values.
package trie
