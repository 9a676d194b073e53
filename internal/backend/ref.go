package backend

import (
	"strconv"
	"strings"

	"github.com/kdbgo/kdb/kdberrors"
)

// refKind distinguishes the two back-reference token forms of spec.md
// §4.5.
type refKind int

const (
	refAnonymous refKind = iota
	refNamed
)

// ref is the typed descriptor a back-reference token parses into, per
// spec.md §9's guidance to use a small parser rather than scattering
// string-search logic through the loader.
type ref struct {
	ordinal int
	kind    refKind
	refName string // set only for refNamed
	plugin  string // plugin kind; empty for a label-only reuse of refName
	cfg     string // the opaque <cfg> token, refNamed only
}

// parseRef parses a chain-entry base name in one of three forms:
//
//   - "#<N><plugin>" — anonymous: a fresh plugin instance of kind <plugin>.
//   - "#<N>#<ref>#<plugin>#<cfg>#" — named: first occurrence defines the
//     reference and opens <plugin>; later occurrences reuse it.
//   - "#<N>#<ref>" — named, label-only: no <plugin>/<cfg> suffix. Valid
//     only as a later occurrence reusing an already-defined <ref>; the
//     caller is responsible for rejecting it if <ref> was never defined
//     (see tests/test_backend.c's set_backref(), whose setplugins entry is
//     exactly this reduced form).
func parseRef(token string) (ref, error) {
	if token == "" || token[0] != '#' {
		return ref{}, kdberrors.Newf(kdberrors.BackendMisconfigured, "back-reference token %q must start with '#'", token)
	}
	rest := token[1:]

	i := 0
	for i < len(rest) && rest[i] >= '0' && rest[i] <= '9' {
		i++
	}
	if i == 0 {
		return ref{}, kdberrors.Newf(kdberrors.BackendMisconfigured, "back-reference token %q has no ordinal", token)
	}
	ordinal, err := strconv.Atoi(rest[:i])
	if err != nil {
		return ref{}, kdberrors.Wrap(kdberrors.BackendMisconfigured, "invalid ordinal in back-reference token", err)
	}
	rest = rest[i:]

	if strings.HasPrefix(rest, "#") {
		parts := strings.Split(rest[1:], "#")
		if parts[0] == "" {
			return ref{}, kdberrors.Newf(kdberrors.BackendMisconfigured, "malformed named back-reference %q", token)
		}
		r := ref{ordinal: ordinal, kind: refNamed, refName: parts[0]}
		if len(parts) == 1 {
			// "#<N>#<ref>": label-only reduced form, no plugin of its own.
			return r, nil
		}
		if parts[1] == "" {
			return ref{}, kdberrors.Newf(kdberrors.BackendMisconfigured, "malformed named back-reference %q", token)
		}
		r.plugin = parts[1]
		if len(parts) > 2 {
			r.cfg = parts[2]
		}
		return r, nil
	}

	if rest == "" {
		return ref{}, kdberrors.Newf(kdberrors.BackendMisconfigured, "back-reference token %q has no plugin kind", token)
	}
	return ref{ordinal: ordinal, kind: refAnonymous, plugin: rest}, nil
}
