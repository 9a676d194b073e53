package plugin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kdbgo/kdb/internal/keyset"
	"github.com/kdbgo/kdb/kdberrors"
)

func TestRegistryOpenUnknownKind(t *testing.T) {
	r := NewRegistry()
	_, err := r.Open("bogus", keyset.New_())
	require.Error(t, err)
	assert.True(t, kdberrors.Is(err, kdberrors.NotFound))
}

func TestRegistryOpenAndCloseLifecycle(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterMemory(r))

	p, err := r.Open("default", keyset.New_())
	require.NoError(t, err)
	assert.Equal(t, 1, p.UseCount())
	assert.NotNil(t, p.Handle)

	require.NoError(t, r.Close(p))
	assert.Nil(t, p.Handle)
}

func TestRegistryOpenFailurePropagates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("broken", func(config *keyset.KeySet) (*Plugin, error) {
		p := &Plugin{}
		p.openFn = func(*Plugin) error {
			return kdberrors.New(kdberrors.PluginOpenFailed, "simulated failure")
		}
		return p, nil
	}))

	_, err := r.Open("broken", keyset.New_())
	require.Error(t, err)
	assert.True(t, kdberrors.Is(err, kdberrors.PluginOpenFailed))
}

func TestSharedPluginUseCount(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterMemory(r))

	p, err := r.Open("default", keyset.New_())
	require.NoError(t, err)
	p.Retain()
	p.Retain()
	assert.Equal(t, 3, p.UseCount())

	require.NoError(t, r.Close(p))
	assert.Equal(t, 2, p.UseCount())
	assert.NotNil(t, p.Handle, "handle survives while references remain")

	require.NoError(t, r.Close(p))
	require.NoError(t, r.Close(p))
	assert.Nil(t, p.Handle)
}

func TestMemoryGetSetRoundTrip(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, RegisterMemory(r))

	p, err := r.Open("default", keyset.New_())
	require.NoError(t, err)

	parent, err := keyset.New("user/app")
	require.NoError(t, err)

	toWrite := keyset.New_()
	k1, _ := keyset.New("user/app/a", keyset.WithValue("1"))
	k2, _ := keyset.New("user/app/b", keyset.WithValue("2"))
	_, _ = toWrite.Append(k1)
	_, _ = toWrite.Append(k2)

	n, err := p.Set(toWrite, parent)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	readBack := keyset.New_()
	n, err = p.Get(readBack, parent)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	found, ok := readBack.Lookup("user/app/a")
	require.True(t, ok)
	assert.Equal(t, "1", found.Value())
}
