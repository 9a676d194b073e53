package keyset

import (
	"testing"

	"github.com/kdbgo/kdb/kdberrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesName(t *testing.T) {
	_, err := New("bogus/a")
	require.Error(t, err)
	assert.True(t, kdberrors.Is(err, kdberrors.InvalidName))
}

func TestNewEmptyNameIsTransient(t *testing.T) {
	k, err := New("")
	require.NoError(t, err)
	assert.Equal(t, "", k.Name())

	ks := New_()
	_, err = ks.Append(k)
	assert.True(t, kdberrors.Is(err, kdberrors.InvalidName))
}

func TestSetNameRespectsUseCount(t *testing.T) {
	k := mustKey(t, "user/a")
	ks := New_()
	_, err := ks.Append(k)
	require.NoError(t, err)

	err = k.SetName("user/b")
	require.Error(t, err)
	assert.True(t, kdberrors.Is(err, kdberrors.ReadOnlyOrShared))

	_, _ = ks.Pop()
	require.NoError(t, k.SetName("user/b"))
	assert.Equal(t, "user/b", k.Name())
	assert.True(t, k.NeedsSync())
}

func TestSizeIncludesTerminatingNULForEmptyText(t *testing.T) {
	k := mustKey(t, "user/a")
	assert.Equal(t, 1, k.Size())

	require.NoError(t, k.SetValue(""))
	assert.Equal(t, 1, k.Size())
}

func TestSetValueRejectsEmbeddedNUL(t *testing.T) {
	k := mustKey(t, "user/a")
	err := k.SetValue("abc\x00def")
	assert.True(t, kdberrors.Is(err, kdberrors.InvalidArgument))
}

func TestBinaryModeSwitch(t *testing.T) {
	k := mustKey(t, "user/a", WithValue("text"))
	assert.False(t, k.IsBinary())
	assert.Equal(t, len("text")+1, k.Size())

	k.SetBinary([]byte{0, 1, 2})
	assert.True(t, k.IsBinary())
	assert.Equal(t, 3, k.Size())
	assert.Equal(t, "", k.Value())

	require.NoError(t, k.SetValue("back"))
	assert.False(t, k.IsBinary())
	assert.Nil(t, k.Binary())
}

func TestParentAndBaseName(t *testing.T) {
	k := mustKey(t, "user/a/b/c")
	assert.Equal(t, "user/a/b", k.ParentName())
	assert.Equal(t, "c", k.BaseName())
}

func TestMetaIsItsOwnKeySet(t *testing.T) {
	k := mustKey(t, "user/a")
	meta := k.Meta()
	_, err := meta.Append(mustKey(t, "user/owner", WithValue("alice")))
	require.NoError(t, err)

	owner, ok := k.Meta().Lookup("user/owner")
	require.True(t, ok)
	assert.Equal(t, "alice", owner.Value())
}
