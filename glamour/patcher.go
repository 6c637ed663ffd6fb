package glamour

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/eorzealink/server/gateway"
	"github.com/eorzealink/server/model"
	"go.uber.org/zap"
)

// ErrNoLocalPlayer means the engine's object table has no entry for the
// local player, so there is no subject to patch.
var ErrNoLocalPlayer = errors.New("glamour: no local player")

// ringAliases are every physical finger key either naming scheme may use.
var ringAliases = []string{"LFinger", "RFinger", "LeftRing", "RightRing"}

// slotKeys maps a slot tag onto the physical slot key of the enum-style
// naming scheme. The virtual Ring tag maps to the right finger; the write
// and clear passes additionally fan Ring out over all aliases.
var slotKeys = map[model.Slot]string{
	model.SlotMainHand: "MainHand",
	model.SlotOffHand:  "OffHand",
	model.SlotHead:     "Head",
	model.SlotBody:     "Body",
	model.SlotHands:    "Hands",
	model.SlotLegs:     "Legs",
	model.SlotFeet:     "Feet",
	model.SlotEars:     "Ears",
	model.SlotNeck:     "Neck",
	model.SlotWrists:   "Wrists",
	model.SlotRing:     "RFinger",
}

// Outcome reports the result of one apply attempt.
type Outcome struct {
	Applied      bool     `json:"applied"`
	Code         int      `json:"code"`
	UsedFallback bool     `json:"used_fallback"`
	// Unplaced lists item names whose slot could not be inferred; they are
	// resolved but cannot be placed.
	Unplaced []string `json:"unplaced,omitempty"`
	Message  string   `json:"message"`
}

// Patcher pushes resolved loadout rows into the live equipment-state
// document. All mutation happens on a locally parsed copy; the document
// held by the gateway is never touched.
type Patcher struct {
	gw     gateway.Client
	logger *zap.Logger
}

// NewPatcher creates a Patcher over the given gateway.
func NewPatcher(gw gateway.Client, logger *zap.Logger) *Patcher {
	return &Patcher{gw: gw, logger: logger}
}

// Apply runs the full patch pipeline: acquire subject, fetch state,
// discover schema, write desired slots, clear undesired ones, commit.
// Schema discovery failures abort with the live state unmodified; an
// apply rejection retries exactly once over the base64 text transport.
func (p *Patcher) Apply(ctx context.Context, rows []model.ResolvedRow) (*Outcome, error) {
	idx, err := p.localSubjectIndex(ctx)
	if err != nil {
		return nil, err
	}

	code, raw, err := p.gw.GetState(ctx, idx)
	if err != nil {
		return nil, fmt.Errorf("glamour: read state: %w", err)
	}
	if code < 0 || len(raw) == 0 {
		return nil, fmt.Errorf("glamour: read state: code %d", code)
	}

	// The parsed tree is our own deep copy of the document.
	root, err := ParseDocument(raw)
	if err != nil {
		return nil, err
	}

	schema := DiscoverSchema(root)
	equip, ok := root.Object(schema.ContainerKey)
	if !ok {
		return nil, fmt.Errorf("glamour: container %q vanished after discovery", schema.ContainerKey)
	}
	p.logSchemaSample(schema, equip)

	outcome := &Outcome{}
	placed := make([]model.ResolvedRow, 0, len(rows))
	for _, r := range rows {
		if r.Slot == model.SlotUnknown {
			outcome.Unplaced = append(outcome.Unplaced, r.ItemName)
			continue
		}
		p.writeRow(equip, schema, r)
		placed = append(placed, r)
	}

	p.clearUndesired(equip, schema, placed)

	// Master toggles default true when absent.
	if _, ok := root.Get("ApplyGear"); !ok {
		root.Set("ApplyGear", true)
	}
	if _, ok := root.Get("ApplyDyes"); !ok {
		root.Set("ApplyDyes", true)
	}

	return p.commit(ctx, root, idx, outcome)
}

// localSubjectIndex resolves the local player's object-table index by
// address match.
func (p *Patcher) localSubjectIndex(ctx context.Context) (int, error) {
	addr, present, err := p.gw.LocalPlayerAddress(ctx)
	if err != nil {
		return 0, fmt.Errorf("glamour: local player: %w", err)
	}
	if !present {
		return 0, ErrNoLocalPlayer
	}
	objects, err := p.gw.Objects(ctx)
	if err != nil {
		return 0, fmt.Errorf("glamour: object table: %w", err)
	}
	for _, obj := range objects {
		if obj.Address == addr {
			return obj.Index, nil
		}
	}
	return 0, ErrNoLocalPlayer
}

// writeRow patches one resolved row into the container. Ring fans out to
// every finger alias key that exists; absent aliases are skipped.
func (p *Patcher) writeRow(equip *Node, schema Schema, r model.ResolvedRow) {
	if r.Slot == model.SlotRing {
		for _, alias := range ringAliases {
			if node, ok := equip.Object(alias); ok {
				p.setFields(node, schema, r)
			}
		}
		return
	}

	key := slotKeys[r.Slot]
	if key == "" {
		key = string(r.Slot)
	}

	if node, ok := equip.Object(key); ok {
		p.setFields(node, schema, r)
		return
	}

	// No node at this key: clone the exemplar so engine-specific extra
	// fields survive, then overwrite the three discovered fields.
	if exemplar, ok := equip.Object(schema.ExemplarKey); ok {
		clone := exemplar.Clone()
		p.setFields(clone, schema, r)
		equip.Set(key, clone)
		return
	}

	node := NewNode()
	p.setFields(node, schema, r)
	equip.Set(key, node)
}

func (p *Patcher) setFields(node *Node, schema Schema, r model.ResolvedRow) {
	node.SetUint(schema.ItemField, r.ItemID)
	node.SetUint(schema.Tint1Field, derefTint(r.Tint1ID))
	node.SetUint(schema.Tint2Field, derefTint(r.Tint2ID))
}

func derefTint(id *uint32) uint32 {
	if id == nil {
		return 0
	}
	return *id
}

// clearUndesired zeroes every slot-shaped node not written by this call.
// Main-hand is never auto-cleared; off-hand only when explicitly desired
// (in which case the write pass already owns it); ring aliases count as
// desired when their counterpart under the other naming scheme is.
func (p *Patcher) clearUndesired(equip *Node, schema Schema, placed []model.ResolvedRow) {
	desired := make(map[string]struct{})
	add := func(name string) { desired[strings.ToLower(name)] = struct{}{} }
	for _, r := range placed {
		if r.Slot == model.SlotRing {
			for _, alias := range ringAliases {
				add(alias)
			}
			continue
		}
		if key := slotKeys[r.Slot]; key != "" {
			add(key)
		}
		add(string(r.Slot))
	}
	isDesired := func(name string) bool {
		_, ok := desired[strings.ToLower(name)]
		return ok
	}

	for _, key := range equip.Keys() {
		node, ok := equip.Object(key)
		if !ok {
			continue
		}
		if strings.EqualFold(key, "MainHand") {
			continue
		}
		if strings.EqualFold(key, "OffHand") && !isDesired("OffHand") {
			continue
		}
		if isDesired(key) || ringCounterpartDesired(key, isDesired) {
			continue
		}
		p.clearNode(node, schema)
	}
}

// ringCounterpartDesired treats the enum-style and legacy ring keys as
// equivalent when testing desiredness.
func ringCounterpartDesired(name string, isDesired func(string) bool) bool {
	pairs := map[string]string{
		"rfinger":   "RightRing",
		"lfinger":   "LeftRing",
		"rightring": "RFinger",
		"leftring":  "LFinger",
	}
	counterpart, ok := pairs[strings.ToLower(name)]
	if !ok {
		return false
	}
	return isDesired(counterpart)
}

// clearNode zeroes the discovered item/tint fields and forces the node's
// apply flags to "apply empty" for gear and tint, "do not apply" for crest.
func (p *Patcher) clearNode(node *Node, schema Schema) {
	node.SetUint(schema.ItemField, 0)
	node.SetUint(schema.Tint1Field, 0)
	node.SetUint(schema.Tint2Field, 0)

	flags := findApplyFlags(node)
	if flags.gear != "" {
		node.Set(flags.gear, true)
	}
	if flags.tint != "" {
		node.Set(flags.tint, true)
	}
	if flags.crest != "" {
		node.Set(flags.crest, false)
	}
	if flags.value != "" {
		node.Set(flags.value, false)
	}
}

// commit submits the structured document; a negative status code is
// retried exactly once over the base64 text transport. A second rejection
// is terminal and carried back with the raw status code.
func (p *Patcher) commit(ctx context.Context, root *Node, idx int, outcome *Outcome) (*Outcome, error) {
	payload, err := json.Marshal(root)
	if err != nil {
		return nil, fmt.Errorf("glamour: encode state: %w", err)
	}

	code, err := p.gw.ApplyState(ctx, payload, idx, 0)
	if err != nil {
		return nil, fmt.Errorf("glamour: apply state: %w", err)
	}
	if code < 0 {
		outcome.UsedFallback = true
		b64 := base64.StdEncoding.EncodeToString(payload)
		code, err = p.gw.ApplyStateText(ctx, b64, idx, 0)
		if err != nil {
			return nil, fmt.Errorf("glamour: apply state (text transport): %w", err)
		}
	}

	outcome.Code = code
	outcome.Applied = code >= 0
	if outcome.Applied {
		outcome.Message = "applied"
	} else {
		outcome.Message = fmt.Sprintf("engine rejected apply with code %d", code)
	}
	return outcome, nil
}

// logSchemaSample logs one container entry so discovered keys can be
// verified from the logs.
func (p *Patcher) logSchemaSample(schema Schema, equip *Node) {
	sample := "{}"
	if len(equip.Keys()) > 0 {
		first := equip.Keys()[0]
		if v, ok := equip.Get(first); ok {
			if b, err := json.Marshal(map[string]interface{}{first: v}); err == nil {
				sample = string(b)
			}
		}
	}
	p.logger.Debug("schema discovered",
		zap.String("container_key", schema.ContainerKey),
		zap.String("item_field", schema.ItemField),
		zap.String("tint1_field", schema.Tint1Field),
		zap.String("tint2_field", schema.Tint2Field),
		zap.String("sample", sample),
	)
}
