// Package mount turns a mount-description KeySet — the keys found below
// system/elektra/mountpoints/ in the keyspace itself — into a populated
// trie of backends, plus the default backend reachable via the trie's
// empty-string slot.
//
// The loader is purely transformational: it takes a KeySet slice and
// produces backends, matching spec.md §9's guidance that it must not read
// configuration from files at this layer (that belongs to the storage
// plugins, which are out of scope).
package mount
