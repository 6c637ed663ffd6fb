package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Loader reads the shipped catalog tables from a data directory.
// Expected files: Items.json, Stains.json, EquipSlotCategories.json.
// The arrays may carry null entries (hollow rows); they are preserved as
// nil and treated as invalid references at lookup time.
type Loader struct {
	DataPath string

	items      []*Item
	stains     []*Stain
	categories []*EquipSlotCategory
}

// NewLoader creates a Loader for the given catalog data directory.
func NewLoader(dataPath string) *Loader {
	return &Loader{DataPath: dataPath}
}

// Load reads all catalog tables and returns the assembled Catalog.
func (l *Loader) Load() (*Catalog, error) {
	loaders := []func() error{
		l.loadItems,
		l.loadStains,
		l.loadCategories,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return nil, err
		}
	}
	return New(l.items, l.stains, l.categories), nil
}

func (l *Loader) loadItems() error {
	var err error
	l.items, err = loadJSONArray[Item](l.path("Items.json"))
	return err
}

func (l *Loader) loadStains() error {
	var err error
	l.stains, err = loadJSONArray[Stain](l.path("Stains.json"))
	return err
}

func (l *Loader) loadCategories() error {
	var err error
	l.categories, err = loadJSONArray[EquipSlotCategory](l.path("EquipSlotCategories.json"))
	return err
}

func (l *Loader) path(file string) string {
	return filepath.Join(l.DataPath, file)
}

func loadJSONArray[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var arr []*T
	if err := json.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return arr, nil
}
