package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"namerecon-service/internal/reconcile/model"
	"namerecon-service/internal/reconcile/service"
)

func backends(t *testing.T) map[string]Store {
	t.Helper()
	sq, err := Open("sqlite", filepath.Join(t.TempDir(), "sub", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestStore_Mappings(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			_, err := st.Lookup(ctx, "X")
			assert.ErrorIs(t, err, service.ErrMappingNotFound)

			require.NoError(t, service.Learn(ctx, st, "X", "id1"))
			require.NoError(t, service.Learn(ctx, st, "X", "id1"))
			require.NoError(t, service.Learn(ctx, st, "A", "id3"))

			all, err := st.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, []model.LearnedMapping{
				{RawLabel: "A", MasterID: "id3"},
				{RawLabel: "X", MasterID: "id1"},
			}, all)

			// last write wins
			require.NoError(t, service.Learn(ctx, st, "X", "id2"))
			got, err := st.Lookup(ctx, "X")
			require.NoError(t, err)
			assert.Equal(t, "id2", got.MasterID)

			require.NoError(t, st.Delete(ctx, "X"))
			assert.ErrorIs(t, st.Delete(ctx, "X"), service.ErrMappingNotFound)
			all, err = st.All(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestStore_Masters(t *testing.T) {
	ctx := context.Background()
	price := 120.5
	masters := []model.MasterRecord{
		{ID: "z", Name: "ジャワカレー", UnitPrice: &price, RawMaterialsText: "小麦粉", AllergenText: "小麦"},
		{ID: "a", Name: "パスタ"},
		{ID: "a", Name: "パスタ（重複）"},
	}
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			got, err := st.Masters(ctx)
			require.NoError(t, err)
			assert.Empty(t, got)

			require.NoError(t, st.ReplaceMasters(ctx, masters))
			got, err = st.Masters(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)
			// порядок загрузки сохраняется
			assert.Equal(t, "z", got[0].ID)
			assert.Equal(t, "パスタ（重複）", got[2].Name)
			require.NotNil(t, got[0].UnitPrice)
			assert.Equal(t, 120.5, *got[0].UnitPrice)
			assert.Equal(t, "小麦", got[0].AllergenText)
			assert.Nil(t, got[1].UnitPrice)

			require.NoError(t, st.ReplaceMasters(ctx, masters[1:2]))
			got, err = st.Masters(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestMemory_SnapshotIsolation(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	in := []model.MasterRecord{{ID: "a", Name: "パスタ"}}
	require.NoError(t, m.ReplaceMasters(ctx, in))
	in[0].Name = "changed"

	got, _ := m.Masters(ctx)
	got[0].ID = "mutated"
	again, _ := m.Masters(ctx)
	assert.Equal(t, "a", again[0].ID)
	assert.Equal(t, "パスタ", again[0].Name)
}

func TestMemory_ConcurrentLearn(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = service.Learn(ctx, m, "X", "id")
			_, _ = m.All(ctx)
		}(i)
	}
	wg.Wait()
	all, err := m.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, []model.LearnedMapping{{RawLabel: "X", MasterID: "id"}}, all)
}

func TestOpen_Unknown(t *testing.T) {
	_, err := Open("redis", "")
	assert.Error(t, err)
}

func TestSQLite_Persists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "p.db")

	st, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, st.Put(ctx, model.LearnedMapping{RawLabel: "徳用パスタ", MasterID: "m1"}))
	require.NoError(t, st.Close())

	st, err = OpenSQLite(path)
	require.NoError(t, err)
	defer st.Close()
	got, err := st.Lookup(ctx, "徳用パスタ")
	require.NoError(t, err)
	assert.Equal(t, "m1", got.MasterID)
}
