package catalog

// Item is one row of the item table. EquipSlotCategory references a row in
// the equip-slot-category table; 0 means no category.
type Item struct {
	ID                uint32 `json:"id"`
	Name              string `json:"name"`
	EquipSlotCategory uint32 `json:"equipSlotCategory"`
}

// Stain is one row of the tint table.
type Stain struct {
	ID   uint32 `json:"id"`
	Name string `json:"name"`
}

// EquipSlotCategory holds the per-slot bit flags for an item category.
// Flags are sbyte-like in the shipped data; non-zero means the slot is set.
type EquipSlotCategory struct {
	ID       uint32 `json:"id"`
	MainHand int8   `json:"mainHand"`
	OffHand  int8   `json:"offHand"`
	Head     int8   `json:"head"`
	Body     int8   `json:"body"`
	Gloves   int8   `json:"gloves"`
	Legs     int8   `json:"legs"`
	Feet     int8   `json:"feet"`
	Ears     int8   `json:"ears"`
	Neck     int8   `json:"neck"`
	Wrists   int8   `json:"wrists"`
	FingerL  int8   `json:"fingerL"`
	FingerR  int8   `json:"fingerR"`
}

// Catalog is the fixed, read-only reference data. It is immutable for the
// process lifetime; iteration order of Items and Stains is table order.
type Catalog struct {
	Items      []*Item
	Stains     []*Stain
	categories map[uint32]*EquipSlotCategory
}

// New builds a Catalog from already-loaded tables. Nil entries in the
// category slice (hollow rows in the shipped data) are kept absent so
// lookups on them fail like any invalid reference.
func New(items []*Item, stains []*Stain, categories []*EquipSlotCategory) *Catalog {
	c := &Catalog{
		Items:      items,
		Stains:     stains,
		categories: make(map[uint32]*EquipSlotCategory, len(categories)),
	}
	for _, esc := range categories {
		if esc != nil {
			c.categories[esc.ID] = esc
		}
	}
	return c
}

// Category looks up an equip-slot-category row by id.
// Returns false for id 0, unknown ids and hollow rows.
func (c *Catalog) Category(id uint32) (*EquipSlotCategory, bool) {
	if id == 0 {
		return nil, false
	}
	esc, ok := c.categories[id]
	return esc, ok
}
