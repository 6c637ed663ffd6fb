package resolver

import (
	"strings"

	"github.com/eorzealink/server/catalog"
	"github.com/eorzealink/server/model"
)

// augmentPrefix is the cosmetic-augmentation token stripped during name
// normalization: "Augmented X" resolves like "X".
const augmentPrefix = "Augmented "

// Resolver maps free-text loadout rows onto catalog ids and equipment slots.
// It is deterministic and performs no I/O beyond catalog reads.
type Resolver struct {
	cat *catalog.Catalog
}

// New creates a Resolver over the given catalog.
func New(cat *catalog.Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// ResolveAll resolves every raw row. Rows whose item name matches nothing
// in the catalog are dropped; callers observe this via the output count.
func (r *Resolver) ResolveAll(rows []model.RawRow) []model.ResolvedRow {
	out := make([]model.ResolvedRow, 0, len(rows))
	for _, row := range rows {
		item, canon := r.resolveItem(row.ItemName)
		if item == nil {
			continue
		}

		resolved := model.ResolvedRow{
			Slot:      r.inferSlot(item),
			ItemName:  canon,
			ItemID:    item.ID,
			Tint1ID:   r.resolveStain(row.Dye1),
			Tint2ID:   r.resolveStain(row.Dye2),
			Own:       model.OwnUnknown,
			OwnSource: "—",
		}
		out = append(out, resolved)
	}
	return out
}

// resolveItem finds the catalog item for a raw name. Exact case-insensitive
// match against the normalized or raw name wins first, in table order; a
// substring pass over the normalized name runs only when no exact match
// exists. Blank names, sentinel rows (id 0) and nameless rows never match;
// returns nil when the name matches nothing.
func (r *Resolver) resolveItem(rawName string) (*catalog.Item, string) {
	normalized := normalizeName(rawName)
	if normalized == "" {
		return nil, rawName
	}

	for _, it := range r.cat.Items {
		if it == nil || it.ID == 0 {
			continue
		}
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		if strings.EqualFold(name, normalized) || strings.EqualFold(name, rawName) {
			return it, name
		}
	}

	lowered := strings.ToLower(normalized)
	for _, it := range r.cat.Items {
		if it == nil || it.ID == 0 {
			continue
		}
		name := strings.TrimSpace(it.Name)
		if name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(name), lowered) {
			return it, name
		}
	}

	return nil, rawName
}

// resolveStain maps a dye name onto a tint id. Empty or whitespace-only
// text and unmatched names resolve to no tint, never an error.
func (r *Resolver) resolveStain(name string) *uint32 {
	if strings.TrimSpace(name) == "" {
		return nil
	}
	for _, s := range r.cat.Stains {
		if s == nil {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(s.Name), name) {
			id := s.ID
			return &id
		}
	}
	return nil
}

// inferSlot derives the equipment slot from the item's category flags.
// An invalid or hollow category reference yields SlotUnknown. Flags are
// tested in a fixed priority order; the first set flag wins.
func (r *Resolver) inferSlot(it *catalog.Item) model.Slot {
	esc, ok := r.cat.Category(it.EquipSlotCategory)
	if !ok || esc == nil {
		return model.SlotUnknown
	}

	switch {
	case esc.MainHand != 0:
		return model.SlotMainHand
	case esc.OffHand != 0:
		return model.SlotOffHand
	case esc.Head != 0:
		return model.SlotHead
	case esc.Body != 0:
		return model.SlotBody
	case esc.Gloves != 0:
		return model.SlotHands
	case esc.Legs != 0:
		return model.SlotLegs
	case esc.Feet != 0:
		return model.SlotFeet
	case esc.Ears != 0:
		return model.SlotEars
	case esc.Neck != 0:
		return model.SlotNeck
	case esc.Wrists != 0:
		return model.SlotWrists
	case esc.FingerL != 0 || esc.FingerR != 0:
		return model.SlotRing
	}
	return model.SlotUnknown
}

// normalizeName trims the raw name, strips the leading augmentation prefix
// if present and collapses doubled interior spaces.
func normalizeName(s string) string {
	n := strings.TrimSpace(s)
	if len(n) >= len(augmentPrefix) && strings.EqualFold(n[:len(augmentPrefix)], augmentPrefix) {
		n = n[len(augmentPrefix):]
	}
	return strings.ReplaceAll(n, "  ", " ")
}
