package model

// Slot is the equipment slot inferred for a resolved item.
type Slot string

const (
	SlotMainHand Slot = "MainHand"
	SlotOffHand  Slot = "OffHand"
	SlotHead     Slot = "Head"
	SlotBody     Slot = "Body"
	SlotHands    Slot = "Hands"
	SlotLegs     Slot = "Legs"
	SlotFeet     Slot = "Feet"
	SlotEars     Slot = "Ears"
	SlotNeck     Slot = "Neck"
	SlotWrists   Slot = "Wrists"
	// SlotRing is virtual: it fans out to both finger slots at apply time.
	SlotRing    Slot = "Ring"
	SlotUnknown Slot = "Unknown"
)

// OwnVerdict is the tri-state ownership answer.
// Unknown means no provider could answer, not "not owned".
type OwnVerdict int

const (
	OwnUnknown OwnVerdict = iota
	OwnHave
	OwnNotHave
)

func (v OwnVerdict) String() string {
	switch v {
	case OwnHave:
		return "have"
	case OwnNotHave:
		return "not_have"
	}
	return "unknown"
}

// RawRow is one loadout entry as produced by the parse proxy.
// SlotHint is advisory and may be empty or wrong; names are free text.
type RawRow struct {
	SlotHint string `json:"slot"`
	ItemName string `json:"item"`
	Dye1     string `json:"dye1,omitempty"`
	Dye2     string `json:"dye2,omitempty"`
}

// ResolvedRow is a loadout entry bound to catalog ids. ItemID is never 0:
// rows that fail to resolve are dropped, not emitted as placeholders.
// The ownership fields are filled in by a later pass.
type ResolvedRow struct {
	Slot     Slot    `json:"slot"`
	ItemName string  `json:"item_name"`
	ItemID   uint32  `json:"item_id"`
	Tint1ID  *uint32 `json:"tint1_id,omitempty"`
	Tint2ID  *uint32 `json:"tint2_id,omitempty"`

	Own       OwnVerdict `json:"ownership"`
	OwnSource string     `json:"ownership_source"`
}
