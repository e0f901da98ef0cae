package client

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feather-classroom/feather/feather/types"
)

func testCache(t *testing.T, c Cache) {
	_, err := c.Load("s1", "ada")
	assert.Equal(t, ErrNotCached, err)

	state, _ := Reconcile(nil, newSnapshot("ada", types.RoleStudent))
	state.AddStroke("q1", stroke("a1", 1))
	require.Nil(t, c.Save(state))

	state.AddStroke("q1", stroke("a2", 2))
	require.Nil(t, c.Save(state))

	loaded, err := c.Load("s1", "ada")
	require.Nil(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids(loaded.WorkOf("q1", "ada").Strokes))
	assert.Equal(t, types.RoleStudent, loaded.Role)
	assert.Len(t, loaded.Roster, 3)
	assert.True(t, loaded.Online("ada"))

	_, err = c.Load("s1", "bob")
	assert.Equal(t, ErrNotCached, err)

	require.Nil(t, c.Delete("s1", "ada"))
	_, err = c.Load("s1", "ada")
	assert.Equal(t, ErrNotCached, err)

	assert.Nil(t, c.Close())
}

func TestMemoryCache(t *testing.T) {
	testCache(t, NewMemoryCache())
}

func TestSQLiteCache(t *testing.T) {
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "feather.db"))
	require.Nil(t, err)
	testCache(t, c)
}
