package catalog_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eorzealink/server/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCatalogDir(t *testing.T, items, stains, categories string) string {
	t.Helper()
	dir := t.TempDir()
	for file, content := range map[string]string{
		"Items.json":              items,
		"Stains.json":             stains,
		"EquipSlotCategories.json": categories,
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
	}
	return dir
}

func TestLoaderReadsAllTables(t *testing.T) {
	dir := writeCatalogDir(t,
		`[{"id":101,"name":"Thyrus","equipSlotCategory":1}]`,
		`[{"id":1,"name":"Snow White"}]`,
		`[{"id":1,"mainHand":1}]`,
	)

	cat, err := catalog.NewLoader(dir).Load()
	require.NoError(t, err)

	require.Len(t, cat.Items, 1)
	assert.Equal(t, "Thyrus", cat.Items[0].Name)
	require.Len(t, cat.Stains, 1)

	esc, ok := cat.Category(1)
	require.True(t, ok)
	assert.EqualValues(t, 1, esc.MainHand)
}

func TestLoaderPreservesHollowRows(t *testing.T) {
	// The shipped tables carry null entries; they stay in the slice (table
	// order matters for resolution) but never resolve as categories.
	dir := writeCatalogDir(t,
		`[null,{"id":102,"name":"Prytwen","equipSlotCategory":2}]`,
		`[null]`,
		`[null,{"id":2,"offHand":1}]`,
	)

	cat, err := catalog.NewLoader(dir).Load()
	require.NoError(t, err)

	require.Len(t, cat.Items, 2)
	assert.Nil(t, cat.Items[0])
	assert.Equal(t, "Prytwen", cat.Items[1].Name)

	_, ok := cat.Category(2)
	assert.True(t, ok)
}

func TestLoaderMissingFile(t *testing.T) {
	_, err := catalog.NewLoader(t.TempDir()).Load()
	assert.Error(t, err)
}

func TestCategoryLookupEdges(t *testing.T) {
	cat := catalog.New(nil, nil, []*catalog.EquipSlotCategory{
		{ID: 5, Head: 1},
		nil,
	})

	_, ok := cat.Category(0)
	assert.False(t, ok, "id 0 means no category")

	_, ok = cat.Category(999)
	assert.False(t, ok)

	esc, ok := cat.Category(5)
	require.True(t, ok)
	assert.EqualValues(t, 1, esc.Head)
}
