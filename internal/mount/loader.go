package mount

import (
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	"github.com/kdbgo/kdb/internal/backend"
	"github.com/kdbgo/kdb/internal/keyname"
	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/internal/plugin"
	"github.com/kdbgo/kdb/internal/trie"
)

// Root is the subtree under which mount descriptions live.
const Root = "system/elektra/mountpoints"

// Load builds a trie of backends from desc: one backend per top-level
// label below Root, plus the default backend at the trie's empty-string
// slot. A failure building one label's backend is logged and reported on
// errorKey but does not prevent the others from loading, per spec.md §4.6.
// It also returns every backend it constructed, including the default
// one, so a caller (the root database handle) can track them for Close.
func Load(desc *keyset.KeySet, registry *plugin.Registry, errorKey *keyset.Key, log logrus.FieldLogger) (*trie.Trie, []*backend.Backend, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	t := trie.New()
	var backends []*backend.Backend

	def, err := backend.OpenDefault(registry, errorKey)
	if err != nil {
		return nil, nil, err
	}
	t.Insert("", def)
	backends = append(backends, def)

	labels, err := topLevelLabels(desc)
	if err != nil {
		return nil, nil, err
	}

	for _, label := range labels {
		root := Root + "/" + label
		slice := sliceAtOrBelow(desc, root)

		b, err := backend.Open(root, label, slice, registry, errorKey)
		if err != nil {
			log.WithField("label", label).WithError(err).Warn("failed to build backend, skipping")
			continue
		}
		t.Insert(b.Mountpoint.Name(), b)
		backends = append(backends, b)
	}

	return t, backends, nil
}

// topLevelLabels returns, in stable sorted order, the distinct names one
// level below Root.
func topLevelLabels(desc *keyset.KeySet) ([]string, error) {
	rootLevels, err := keyname.Levels(Root)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var labels []string
	for _, k := range desc.Slice() {
		levels, err := keyname.Levels(k.Name())
		if err != nil {
			continue
		}
		if len(levels) != len(rootLevels)+1 || !hasPrefix(levels, rootLevels) {
			continue
		}
		label := levels[len(levels)-1]
		if !seen[label] {
			seen[label] = true
			labels = append(labels, label)
		}
	}
	slices.Sort(labels)
	return labels, nil
}

// sliceAtOrBelow returns a fresh KeySet holding every key in desc at or
// below root (root included), without mutating desc.
func sliceAtOrBelow(desc *keyset.KeySet, root string) *keyset.KeySet {
	rootLevels, _ := keyname.Levels(root)
	result := keyset.New_()
	for _, k := range desc.Slice() {
		levels, err := keyname.Levels(k.Name())
		if err != nil || !hasPrefix(levels, rootLevels) {
			continue
		}
		_, _ = result.Append(k)
	}
	return result
}

func hasPrefix(levels, prefix []string) bool {
	if len(levels) < len(prefix) {
		return false
	}
	for i, p := range prefix {
		if levels[i] != p {
			return false
		}
	}
	return true
}
