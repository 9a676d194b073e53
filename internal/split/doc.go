// Package split partitions a KeySet by destination backend ahead of a
// write, mirroring struct _Split in the original implementation: parallel
// slices of partition, backend, parent key, and per-partition sync/below
// flags, rather than a slice of structs, to stay close to that layout.
package split
