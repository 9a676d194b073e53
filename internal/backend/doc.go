// Package backend composes plugins into the read, write, and error chains
// that serve reads and writes for a single mountpoint.
//
// A Backend is built by Open from a mount-description KeySet slice rooted
// at system/elektra/mountpoints/<label> (see spec.md §4.5 for the exact
// sub-schema): it resolves each getplugins/setplugins/errorplugins entry's
// back-reference token, computes the plugin's merged configuration, and
// opens (or reuses) the plugin instance via a plugin.Registry. The three
// chains are exposed as dense, fixed-size arrays indexed by position.
package backend
