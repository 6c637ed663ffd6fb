package testutil

import (
	"testing"

	"github.com/eorzealink/server/cache"
	"github.com/eorzealink/server/catalog"
	"github.com/eorzealink/server/config"
	"github.com/eorzealink/server/db"
	"github.com/eorzealink/server/model"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// SetupTestDB creates an in-memory database and runs AutoMigrate.
// It requires no external services and is safe to use in parallel tests.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.Open(config.DatabaseConfig{Mode: db.ModeMemory})
	require.NoError(t, err, "SetupTestDB: Open")
	require.NoError(t, model.AutoMigrate(gdb), "SetupTestDB: AutoMigrate")
	return gdb
}

// SetupTestCache creates a LocalCache (no Redis required).
func SetupTestCache(t *testing.T) cache.Cache {
	t.Helper()
	c, err := cache.New(config.CacheConfig{}) // empty RedisAddr means LocalCache
	require.NoError(t, err, "SetupTestCache: New")
	return c
}

// Category ids used by the test catalog. They mirror the shape of the
// shipped tables: one category per slot, rings covering both fingers.
const (
	CatMainHand uint32 = 1
	CatOffHand  uint32 = 2
	CatHead     uint32 = 3
	CatBody     uint32 = 4
	CatGloves   uint32 = 5
	CatLegs     uint32 = 7
	CatFeet     uint32 = 8
	CatEars     uint32 = 9
	CatNeck     uint32 = 10
	CatWrists   uint32 = 11
	CatRing     uint32 = 12
	// CatTwoHanded carries several flags at once, like the shipped
	// two-handed weapon categories.
	CatTwoHanded uint32 = 13
)

// NewTestCatalog builds a small reference catalog covering every slot
// plus the name shapes the resolver has to handle: an augmented/base
// pair, a substring-only target and a full tint table prefix.
func NewTestCatalog() *catalog.Catalog {
	items := []*catalog.Item{
		{ID: 0, Name: ""}, // sentinel row, as in the shipped item table
		{ID: 101, Name: "Thyrus", EquipSlotCategory: CatMainHand},
		{ID: 102, Name: "Prytwen", EquipSlotCategory: CatOffHand},
		{ID: 202, Name: "Augmented Ironworks Cane", EquipSlotCategory: CatMainHand},
		{ID: 203, Name: "Ironworks Cane", EquipSlotCategory: CatMainHand},
		{ID: 301, Name: "Ironworks Helm", EquipSlotCategory: CatHead},
		{ID: 302, Name: "Ironworks Cuirass", EquipSlotCategory: CatBody},
		{ID: 303, Name: "Ironworks Gauntlets", EquipSlotCategory: CatGloves},
		{ID: 304, Name: "Ironworks Breeches", EquipSlotCategory: CatLegs},
		{ID: 305, Name: "Ironworks Sollerets", EquipSlotCategory: CatFeet},
		{ID: 401, Name: "Ironworks Earrings", EquipSlotCategory: CatEars},
		{ID: 402, Name: "Ironworks Choker", EquipSlotCategory: CatNeck},
		{ID: 403, Name: "Ironworks Armillae", EquipSlotCategory: CatWrists},
		{ID: 404, Name: "Ironworks Ring", EquipSlotCategory: CatRing},
		{ID: 501, Name: "Shadowless Ring of Casting", EquipSlotCategory: CatRing},
		{ID: 601, Name: "Dated Canvas Beret", EquipSlotCategory: 9999}, // dangling category
		{ID: 701, Name: "Stardust Rod", EquipSlotCategory: CatTwoHanded},
	}
	stains := []*catalog.Stain{
		{ID: 1, Name: "Snow White"},
		{ID: 2, Name: "Soot Black"},
		{ID: 3, Name: "Dalamud Red"},
	}
	categories := []*catalog.EquipSlotCategory{
		{ID: CatMainHand, MainHand: 1},
		{ID: CatOffHand, OffHand: 1},
		{ID: CatHead, Head: 1},
		{ID: CatBody, Body: 1},
		{ID: CatGloves, Gloves: 1},
		nil, // hollow row, as in the shipped data
		{ID: CatLegs, Legs: 1},
		{ID: CatFeet, Feet: 1},
		{ID: CatEars, Ears: 1},
		{ID: CatNeck, Neck: 1},
		{ID: CatWrists, Wrists: 1},
		{ID: CatRing, FingerL: 1, FingerR: 1},
		{ID: CatTwoHanded, MainHand: 1, OffHand: 1, Body: 1},
	}
	return catalog.New(items, stains, categories)
}
