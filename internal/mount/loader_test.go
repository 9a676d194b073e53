package mount

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kdbgo/kdb/internal/backend"
	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/internal/plugin"
)

// fixtureEntry is the YAML shape used by descriptionFromYAML: a flat list
// of (name, value) pairs describing every key in a mount description,
// intermediate structural keys included. This exercises gopkg.in/yaml.v3,
// which the teacher lists in go.mod but never wires.
type fixtureEntry struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

func descriptionFromYAML(t *testing.T, doc string) *keyset.KeySet {
	t.Helper()
	var entries []fixtureEntry
	require.NoError(t, yaml.Unmarshal([]byte(doc), &entries))

	ks := keyset.New_()
	for _, e := range entries {
		var opts []keyset.Option
		if e.Value != "" {
			opts = append(opts, keyset.WithValue(e.Value))
		}
		k, err := keyset.New(e.Name, opts...)
		require.NoError(t, err)
		_, err = ks.Append(k)
		require.NoError(t, err)
	}
	return ks
}

const twoBackendsFixture = `
- name: system/elektra/mountpoints/simple
- name: system/elektra/mountpoints/simple/mountpoint
  value: user/tests/backend/simple
- name: system/elektra/mountpoints/simple/getplugins/#1default
  value: default
- name: system/elektra/mountpoints/simple/setplugins/#1default
  value: default

- name: system/elektra/mountpoints/two
- name: system/elektra/mountpoints/two/mountpoint
  value: user/tests/backend/two
- name: system/elektra/mountpoints/two/getplugins/#1default
  value: default
- name: system/elektra/mountpoints/two/setplugins/#1default
  value: default
`

func newRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	require.NoError(t, plugin.RegisterMemory(r))
	return r
}

func TestLoadTwoBackendsViaTrie(t *testing.T) {
	desc := descriptionFromYAML(t, twoBackendsFixture)
	registry := newRegistry(t)

	tr, backends, err := Load(desc, registry, nil, nil)
	require.NoError(t, err)
	assert.Len(t, backends, 3)

	v, ok := tr.Lookup("user/tests/backend/simple/somewhere/deep/below")
	require.True(t, ok)
	simple := v.(*backend.Backend)
	assert.Equal(t, "simple", simple.Mountpoint.Value())

	v, ok = tr.Lookup("user/tests/backend/two")
	require.True(t, ok)
	two := v.(*backend.Backend)
	assert.Equal(t, "two", two.Mountpoint.Value())
}

func TestLoadAlwaysProvidesDefaultBackend(t *testing.T) {
	desc := keyset.New_()
	registry := newRegistry(t)

	tr, backends, err := Load(desc, registry, nil, nil)
	require.NoError(t, err)
	require.Len(t, backends, 1)

	v, ok := tr.Lookup("user/anything/at/all")
	require.True(t, ok)
	def := v.(*backend.Backend)
	assert.Equal(t, "default", def.Mountpoint.Value())
	assert.Equal(t, "", def.Mountpoint.Name())
}

func TestLoadSkipsMisconfiguredBackendButKeepsOthers(t *testing.T) {
	ks := keyset.New_()
	good := descriptionFromYAML(t, `
- name: system/elektra/mountpoints/ok
- name: system/elektra/mountpoints/ok/mountpoint
  value: user/ok
- name: system/elektra/mountpoints/ok/getplugins/#1default
  value: default
`)
	for _, k := range good.Slice() {
		_, _ = ks.Append(k)
	}
	broken, err := keyset.New("system/elektra/mountpoints/broken")
	require.NoError(t, err)
	_, err = ks.Append(broken)
	require.NoError(t, err)

	registry := newRegistry(t)
	tr, backends, err := Load(ks, registry, nil, nil)
	require.NoError(t, err)
	assert.Len(t, backends, 2)

	v, ok := tr.Lookup("user/ok")
	require.True(t, ok)
	assert.Equal(t, "ok", v.(*backend.Backend).Mountpoint.Value())

	_, ok = tr.Lookup("user/elsewhere")
	require.True(t, ok)
}
