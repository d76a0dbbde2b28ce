package prefs

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profile struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

func TestStore_TypedAccessors(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemBackend())
	defer s.Close()

	t.Run("bool", func(t *testing.T) {
		v, err := s.Bool(ctx, "onboarded", false)
		require.NoError(t, err)
		assert.False(t, v, "absent key should yield the default")

		require.NoError(t, s.SetBool(ctx, "onboarded", true))
		v, err = s.Bool(ctx, "onboarded", false)
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("string", func(t *testing.T) {
		v, err := s.String(ctx, "theme", "system")
		require.NoError(t, err)
		assert.Equal(t, "system", v)

		require.NoError(t, s.SetString(ctx, "theme", "dark"))
		v, err = s.String(ctx, "theme", "system")
		require.NoError(t, err)
		assert.Equal(t, "dark", v)
	})

	t.Run("int", func(t *testing.T) {
		require.NoError(t, s.SetInt(ctx, "launch_count", 42))
		v, err := s.Int(ctx, "launch_count", 0)
		require.NoError(t, err)
		assert.Equal(t, int64(42), v)
	})

	t.Run("float", func(t *testing.T) {
		require.NoError(t, s.SetFloat(ctx, "volume", 0.75))
		v, err := s.Float(ctx, "volume", 1.0)
		require.NoError(t, err)
		assert.Equal(t, 0.75, v)
	})

	t.Run("bytes", func(t *testing.T) {
		require.NoError(t, s.SetBytes(ctx, "blob", []byte{0x01, 0x02}))
		v, err := s.Bytes(ctx, "blob", nil)
		require.NoError(t, err)
		assert.Equal(t, []byte{0x01, 0x02}, v)
	})

	t.Run("object", func(t *testing.T) {
		in := profile{Name: "ada", Score: 9}
		require.NoError(t, s.SetObject(ctx, "profile", in))

		var out profile
		found, err := s.Object(ctx, "profile", &out)
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, in, out)

		var untouched profile
		found, err = s.Object(ctx, "absent", &untouched)
		require.NoError(t, err)
		assert.False(t, found)
		assert.Equal(t, profile{}, untouched)
	})
}

func TestStore_CorruptValueIsAnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemBackend())
	defer s.Close()

	require.NoError(t, s.SetString(ctx, "launch_count", "not-a-number"))

	_, err := s.Int(ctx, "launch_count", 0)
	assert.Error(t, err, "a stored value that fails to decode must surface an error")
}

func TestStore_HasAndRemove(t *testing.T) {
	ctx := context.Background()
	s := NewStore(NewMemBackend())
	defer s.Close()

	require.NoError(t, s.SetString(ctx, "k", "v"))

	found, err := s.Has(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)

	require.NoError(t, s.Remove(ctx, "k"))

	found, err = s.Has(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Removing an absent key is a no-op, not an error.
	require.NoError(t, s.Remove(ctx, "k"))
}

func TestMemBackend_CopiesValues(t *testing.T) {
	ctx := context.Background()
	b := NewMemBackend()
	defer b.Close()

	value := []byte("original")
	require.NoError(t, b.Put(ctx, "k", value))
	value[0] = 'X'

	got, found, err := b.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("original"), got, "backend must not alias caller buffers")
}

func TestDefaultPath_SharedDirOverride(t *testing.T) {
	t.Setenv(SharedDirEnv, filepath.Join("/", "var", "shared"))

	path, err := DefaultPath("myapp")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/", "var", "shared", "myapp"), path)
}

func TestDefaultPath_PrivateFallback(t *testing.T) {
	t.Setenv(SharedDirEnv, "")

	path, err := DefaultPath("myapp")
	require.NoError(t, err)
	assert.Equal(t, "myapp", filepath.Base(path))
}
