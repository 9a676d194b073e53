package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/internal/plugin"
)

func mustAppend(t *testing.T, ks *keyset.KeySet, name, value string) {
	t.Helper()
	k, err := keyset.New(name)
	require.NoError(t, err)
	if value != "" {
		require.NoError(t, k.SetValue(value))
	}
	_, err = ks.Append(k)
	require.NoError(t, err)
}

// simpleDescription reproduces set_simple() from the original
// implementation's tests/test_backend.c: one read plugin and one write
// plugin, both "default", at position 1.
func simpleDescription(t *testing.T) *keyset.KeySet {
	t.Helper()
	ks := keyset.New_()
	root := "system/elektra/mountpoints/simple"

	mustAppend(t, ks, root, "")
	mustAppend(t, ks, root+"/config", "")
	mustAppend(t, ks, root+"/config/anything", "backend")
	mustAppend(t, ks, root+"/config/more", "")
	mustAppend(t, ks, root+"/config/more/config", "")
	mustAppend(t, ks, root+"/config/more/config/below", "")
	mustAppend(t, ks, root+"/config/path", "")

	mustAppend(t, ks, root+"/getplugins", "")
	mustAppend(t, ks, root+"/getplugins/#1default", "default")
	mustAppend(t, ks, root+"/getplugins/#1default/config", "")
	mustAppend(t, ks, root+"/getplugins/#1default/config/anything", "plugin")
	mustAppend(t, ks, root+"/getplugins/#1default/config/more", "")
	mustAppend(t, ks, root+"/getplugins/#1default/config/more/config", "")
	mustAppend(t, ks, root+"/getplugins/#1default/config/more/config/below", "")
	mustAppend(t, ks, root+"/getplugins/#1default/config/path", "")

	mustAppend(t, ks, root+"/mountpoint", "user/tests/backend/simple")

	mustAppend(t, ks, root+"/setplugins", "")
	mustAppend(t, ks, root+"/setplugins/#1default", "default")

	mustAppend(t, ks, root+"/errorplugins", "")
	mustAppend(t, ks, root+"/errorplugins/#1default", "default")

	return ks
}

func newRegistry(t *testing.T) *plugin.Registry {
	t.Helper()
	r := plugin.NewRegistry()
	require.NoError(t, plugin.RegisterMemory(r))
	return r
}

func TestOpenSimpleBackend(t *testing.T) {
	registry := newRegistry(t)
	desc := simpleDescription(t)

	b, err := Open("system/elektra/mountpoints/simple", "simple", desc, registry, nil)
	require.NoError(t, err)

	assert.Nil(t, b.Read[0])
	assert.NotNil(t, b.Read[1])
	assert.Nil(t, b.Read[2])

	assert.Nil(t, b.Write[0])
	assert.NotNil(t, b.Write[1])
	assert.Nil(t, b.Write[2])

	assert.Nil(t, b.Error[0])
	assert.NotNil(t, b.Error[1])
	assert.Nil(t, b.Error[2])

	assert.Equal(t, "user/tests/backend/simple", b.Mountpoint.Name())
	assert.Equal(t, "simple", b.Mountpoint.Value())

	cfg := b.Read[1].Config
	var names []string
	for _, k := range cfg.Slice() {
		names = append(names, k.Name())
	}
	assert.Equal(t, []string{
		"system/anything",
		"system/more",
		"system/more/config",
		"system/more/config/below",
		"system/path",
		"user/anything",
		"user/more",
		"user/more/config",
		"user/more/config/below",
		"user/path",
	}, names)

	anything, ok := cfg.Lookup("system/anything")
	require.True(t, ok)
	assert.Equal(t, "backend", anything.Value())

	pluginAnything, ok := cfg.Lookup("user/anything")
	require.True(t, ok)
	assert.Equal(t, "plugin", pluginAnything.Value())
}

func TestOpenDefault(t *testing.T) {
	registry := newRegistry(t)
	b, err := OpenDefault(registry, nil)
	require.NoError(t, err)

	assert.Equal(t, "", b.Mountpoint.Name())
	assert.Equal(t, "default", b.Mountpoint.Value())
	for _, p := range b.Read {
		assert.Nil(t, p)
	}
}

func TestBackReferenceSharesInstance(t *testing.T) {
	registry := newRegistry(t)
	ks := keyset.New_()
	root := "system/elektra/mountpoints/shared"

	mustAppend(t, ks, root, "")
	mustAppend(t, ks, root+"/mountpoint", "user/tests/backend/shared")

	mustAppend(t, ks, root+"/getplugins", "")
	mustAppend(t, ks, root+"/getplugins/#1#default#default#", "")

	mustAppend(t, ks, root+"/setplugins", "")
	mustAppend(t, ks, root+"/setplugins/#1#default", "reference to other default")

	b, err := Open(root, "shared", ks, registry, nil)
	require.NoError(t, err)

	require.NotNil(t, b.Read[1])
	require.NotNil(t, b.Write[1])
	assert.Same(t, b.Read[1], b.Write[1])
	assert.Equal(t, 2, b.Read[1].UseCount())
}

func TestOpenMissingMountpointIsMisconfigured(t *testing.T) {
	registry := newRegistry(t)
	ks := keyset.New_()
	root := "system/elektra/mountpoints/broken"
	mustAppend(t, ks, root, "")

	errKey, err := keyset.New("user/error")
	require.NoError(t, err)

	_, err = Open(root, "broken", ks, registry, errKey)
	require.Error(t, err)

	kind, _, ok := errKey.Error()
	require.True(t, ok)
	assert.Equal(t, "BackendMisconfigured", kind.String())
}

func TestCloseReleasesSharedPlugin(t *testing.T) {
	registry := newRegistry(t)
	ks := keyset.New_()
	root := "system/elektra/mountpoints/shared"

	mustAppend(t, ks, root, "")
	mustAppend(t, ks, root+"/mountpoint", "user/tests/backend/shared")
	mustAppend(t, ks, root+"/getplugins", "")
	mustAppend(t, ks, root+"/getplugins/#1#default#default#", "")
	mustAppend(t, ks, root+"/setplugins", "")
	mustAppend(t, ks, root+"/setplugins/#1#default", "reference to other default")

	b, err := Open(root, "shared", ks, registry, nil)
	require.NoError(t, err)
	shared := b.Read[1]

	require.NoError(t, b.Close(nil))
	assert.Equal(t, 0, shared.UseCount())
	assert.Nil(t, shared.Handle)
}
