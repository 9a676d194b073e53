// Package kdberrors defines the error taxonomy shared by every layer of the
// configuration database core and the conventions for reporting a failure
// onto a caller-supplied error key.
//
// Fallible calls that take an error key follow the same propagation
// policy: the caller owns the error key, and the callee appends diagnostic
// metadata to it and sets a primary error Kind alongside the error it
// returns. The database handle's Get and Set also return a count, which is
// negative on failure. See Kind here, and Key.SetError in internal/keyset.
package kdberrors
