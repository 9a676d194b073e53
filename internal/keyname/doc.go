// Package keyname implements the hierarchical key-name grammar shared by
// every other package in this module: parsing, canonicalisation, escaping,
// namespace classification, and parent/base-name splitting.
//
// A key name begins with one of the namespaces user, system, spec, proc,
// dir, or cascading, followed by zero or more levels separated by "/". A
// literal "/" within a level is written "\/"; a literal "\" is written
// "\\". Empty levels ("//") collapse during canonicalisation. Two names
// compare equal when their canonical level sequences are equal.
package keyname
