// Package kdb is the top-level database handle: it owns the trie, the
// plugin registry, and the current mount description, and exposes the
// Open/Close/Get/Set/Mount surface a CLI or embedding application consumes
// (spec.md §6). It is a thin composition of internal/trie,
// internal/backend, internal/mount, internal/plugin and internal/split;
// it contains no algorithms of its own.
package kdb
