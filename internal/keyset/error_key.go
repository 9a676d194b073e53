package keyset

import (
	"github.com/kdbgo/kdb/kdberrors"
)

// SetError reports err onto k's metadata, following spec.md §7's
// propagation policy: the caller owns the error key, and the callee
// appends diagnostic metadata and a primary error code rather than
// returning the error out-of-band. It overwrites any previously reported
// error on k.
func (k *Key) SetError(err error) {
	if err == nil {
		return
	}
	meta := k.Meta()

	kind := kdberrors.Unknown
	reason := err.Error()
	if kerr, ok := err.(*kdberrors.Error); ok {
		kind = kerr.Kind
		reason = kerr.Reason
	}

	numberKey, e := New("user/error/number", WithValue(kind.String()))
	if e == nil {
		_, _ = meta.Append(numberKey)
	}
	descKey, e := New("user/error/description", WithValue(reason))
	if e == nil {
		_, _ = meta.Append(descKey)
	}
	reasonKey, e := New("user/error/reason", WithValue(err.Error()))
	if e == nil {
		_, _ = meta.Append(reasonKey)
	}
}

// Error reconstructs the primary error Kind previously reported on k via
// SetError, or kdberrors.Unknown if none was reported.
func (k *Key) Error() (kdberrors.Kind, string, bool) {
	numberKey, ok := k.Meta().Lookup("user/error/number")
	if !ok {
		return kdberrors.Unknown, "", false
	}
	descKey, _ := k.Meta().Lookup("user/error/description")
	desc := ""
	if descKey != nil {
		desc = descKey.Value()
	}
	for kind := kdberrors.Unknown; kind <= kdberrors.PluginExecutionFailed; kind++ {
		if kind.String() == numberKey.Value() {
			return kind, desc, true
		}
	}
	return kdberrors.Unknown, desc, true
}
