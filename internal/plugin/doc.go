// Package plugin implements the opaque, pluggable unit of computation that
// backends compose into read, write, and error chains.
//
// A Plugin exposes four lifecycle verbs (Open, Close, Get, Set), a
// configuration KeySet computed by the mount loader from the merged
// system/ and user/ views of the mount description, descriptive metadata,
// a use-count governing shared-instance destruction, and an
// implementation-owned opaque handle.
//
// This package also defines Registry, the stand-in for spec.md's "modules"
// keyset: since dynamic module loading is explicitly out of scope (§1),
// the registry here is an in-process map from plugin-kind name to Factory.
package plugin
