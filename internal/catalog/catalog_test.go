package catalog

import (
	"context"
	"testing"

	"github.com/continuum-ai/continuum/internal/kv"
	gormsqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func testKV(t *testing.T) kv.Store {
	t.Helper()
	db, err := gorm.Open(gormsqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	s, err := kv.NewGormStore(db)
	require.NoError(t, err)
	return s
}

func TestPutLookupList(t *testing.T) {
	s := NewStore(nil)

	s.Put(Model{ID: "phi-3-mini", Name: "Phi-3 Mini", SizeMB: 2300, ContextLength: 4096})
	s.Put(Model{ID: "llama-3b", Name: "Llama 3B", SizeMB: 6500, ContextLength: 8192})

	m, ok := s.Lookup("phi-3-mini")
	require.True(t, ok)
	assert.Equal(t, "Phi-3 Mini", m.Name)

	_, ok = s.Lookup("absent")
	assert.False(t, ok)

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "phi-3-mini", list[0].ID)
	assert.Equal(t, "llama-3b", list[1].ID)

	// upsert keeps the original position
	s.Put(Model{ID: "phi-3-mini", Name: "Phi-3 Mini v2"})
	list = s.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Phi-3 Mini v2", list[0].Name)
}

func TestSetInstalled(t *testing.T) {
	s := NewStore(nil)
	s.Put(Model{ID: "m"})

	s.SetInstalled("m", true)
	m, _ := s.Lookup("m")
	assert.True(t, m.Installed)

	// unknown id: silent no-op
	s.SetInstalled("ghost", true)
	assert.Len(t, s.List(), 1)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	kvs := testKV(t)

	s := NewStore(kvs)
	s.Put(Model{ID: "m", Name: "Model", SHA256: "abc", Installed: true})
	require.NoError(t, s.Save(ctx))

	s2 := NewStore(kvs)
	require.NoError(t, s2.Load(ctx))
	m, ok := s2.Lookup("m")
	require.True(t, ok)
	assert.Equal(t, "Model", m.Name)
	assert.True(t, m.Installed)
	assert.Equal(t, []string{"m"}, s2.Store.Get().Order)
}
