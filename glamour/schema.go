package glamour

import "strings"

// Schema is the shape discovered from a live equipment-state document:
// which top-level key holds the equipment container, which slot node
// served as the structural exemplar, and which field names carry the item
// id and the two tint ids. The three field names are used uniformly for
// every slot node touched in one apply call.
type Schema struct {
	ContainerKey string
	ExemplarKey  string
	ItemField    string
	Tint1Field   string
	Tint2Field   string
}

// Fallback field names used when the document carries no recognizable
// equipment container.
const (
	defaultContainerKey = "Equipment"
	defaultExemplarKey  = "Body"
	defaultItemField    = "ItemId"
	defaultTint1Field   = "Stain1"
	defaultTint2Field   = "Stain2"
)

// slotKeyNames are the physical slot keys a presentation-engine schema may
// use, covering both the current enum-style and the legacy naming scheme.
var slotKeyNames = []string{
	"MainHand", "OffHand", "Head", "Body", "Hands", "Legs", "Feet",
	"Ears", "Neck", "Wrists", "RFinger", "LFinger", "RightRing", "LeftRing",
}

func isSlotKey(name string) bool {
	for _, s := range slotKeyNames {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// DiscoverSchema inspects the document root and derives the schema for
// this call. Discovery must be repeated on every call; the schema is not
// assumed stable across presentation-engine versions.
//
// The equipment container is the first top-level object whose immediate
// children include a key matching a known slot name. That child is the
// exemplar: the item field is an exact "ItemId"/"Item" key or else the
// first integer-valued field; the tint fields prefer "Stain1"/"Stain2" or
// "Dye1"/"Dye2" and otherwise the first two remaining integer-valued
// fields in encounter order.
//
// When no container is found, an empty one is synthesized under a default
// key with a minimal hard-coded schema so the call can still produce a
// structurally valid document.
func DiscoverSchema(root *Node) Schema {
	for _, topKey := range root.Keys() {
		container, ok := root.Object(topKey)
		if !ok {
			continue
		}
		for _, childKey := range container.Keys() {
			exemplar, ok := container.Object(childKey)
			if !ok || !isSlotKey(childKey) {
				continue
			}
			itemField := discoverItemField(exemplar)
			return Schema{
				ContainerKey: topKey,
				ExemplarKey:  childKey,
				ItemField:    itemField,
				Tint1Field:   discoverTintField(exemplar, itemField, "Stain1", "Dye1", 0),
				Tint2Field:   discoverTintField(exemplar, itemField, "Stain2", "Dye2", 1),
			}
		}
	}

	root.Set(defaultContainerKey, NewNode())
	return Schema{
		ContainerKey: defaultContainerKey,
		ExemplarKey:  defaultExemplarKey,
		ItemField:    defaultItemField,
		Tint1Field:   defaultTint1Field,
		Tint2Field:   defaultTint2Field,
	}
}

func discoverItemField(exemplar *Node) string {
	for _, k := range exemplar.Keys() {
		if strings.EqualFold(k, "ItemId") || strings.EqualFold(k, "Item") {
			return k
		}
	}
	for _, k := range exemplar.Keys() {
		if v, _ := exemplar.Get(k); isInt(v) {
			return k
		}
	}
	return defaultItemField
}

// discoverTintField picks the tint field at position idx among the
// integer-valued fields that remain after excluding the item field.
func discoverTintField(exemplar *Node, itemField, preferred, legacy string, idx int) string {
	var numeric []string
	for _, k := range exemplar.Keys() {
		if k == itemField {
			continue
		}
		if v, _ := exemplar.Get(k); isInt(v) {
			numeric = append(numeric, k)
		}
	}
	for _, k := range numeric {
		if strings.EqualFold(k, preferred) || strings.EqualFold(k, legacy) {
			return k
		}
	}
	if idx < len(numeric) {
		return numeric[idx]
	}
	if idx == 0 {
		return defaultTint1Field
	}
	return defaultTint2Field
}

// applyFlagKeys are the optional per-slot boolean flags a node may carry.
// Presence of each is independent and optional.
type applyFlagKeys struct {
	gear  string // "Apply" / "DoApply"
	tint  string // "ApplyStain" / "DoDye"
	crest string // "ApplyCrest" / "DoCrest"
	value string // "Crest"
}

func findApplyFlags(node *Node) applyFlagKeys {
	find := func(a, b string) string {
		if _, actual, ok := node.GetFold(a); ok {
			return actual
		}
		if _, actual, ok := node.GetFold(b); ok {
			return actual
		}
		return ""
	}
	var keys applyFlagKeys
	keys.gear = find("Apply", "DoApply")
	keys.tint = find("ApplyStain", "DoDye")
	keys.crest = find("ApplyCrest", "DoCrest")
	if _, actual, ok := node.GetFold("Crest"); ok {
		keys.value = actual
	}
	return keys
}
