package gateway

import (
	"context"
	"encoding/json"
)

// ObjectRef is one entry of the presentation engine's object table.
type ObjectRef struct {
	Index   int    `json:"index"`
	Address uint64 `json:"address"`
}

// ContainerSlot is one occupied slot of an inventory container.
type ContainerSlot struct {
	ItemID   uint32 `json:"itemId"`
	Quantity int    `json:"quantity"`
}

// Container category ids understood by the presentation engine.
const (
	ContainerBag1 uint32 = 0
	ContainerBag2 uint32 = 1
	ContainerBag3 uint32 = 2
	ContainerBag4 uint32 = 3

	ContainerEquipped uint32 = 1000

	ContainerArmoire uint32 = 2500
	ContainerDresser uint32 = 2501

	ContainerArmouryOffHand  uint32 = 3200
	ContainerArmouryHead     uint32 = 3201
	ContainerArmouryBody     uint32 = 3202
	ContainerArmouryHands    uint32 = 3203
	ContainerArmouryLegs     uint32 = 3204
	ContainerArmouryFeet     uint32 = 3205
	ContainerArmouryEars     uint32 = 3206
	ContainerArmouryNeck     uint32 = 3207
	ContainerArmouryWrists   uint32 = 3208
	ContainerArmouryRings    uint32 = 3209
	ContainerArmouryMainHand uint32 = 3300

	ContainerSaddlebag1        uint32 = 4000
	ContainerSaddlebag2        uint32 = 4001
	ContainerPremiumSaddlebag1 uint32 = 4100
	ContainerPremiumSaddlebag2 uint32 = 4101

	ContainerRetainerPage1    uint32 = 10000
	ContainerRetainerPage2    uint32 = 10001
	ContainerRetainerPage3    uint32 = 10002
	ContainerRetainerPage4    uint32 = 10003
	ContainerRetainerPage5    uint32 = 10004
	ContainerRetainerPage6    uint32 = 10005
	ContainerRetainerPage7    uint32 = 10006
	ContainerRetainerEquipped uint32 = 11000
)

// TrackerContainers is the fixed enumeration handed to the external
// counting provider: bags, full armoury, saddlebags, retainer pages,
// glamour dresser and armoire.
func TrackerContainers() []uint32 {
	return []uint32{
		ContainerBag1, ContainerBag2, ContainerBag3, ContainerBag4,
		ContainerArmouryOffHand, ContainerArmouryHead, ContainerArmouryBody,
		ContainerArmouryHands, ContainerArmouryLegs, ContainerArmouryFeet,
		ContainerArmouryEars, ContainerArmouryNeck, ContainerArmouryWrists,
		ContainerArmouryRings, ContainerArmouryMainHand,
		ContainerSaddlebag1, ContainerSaddlebag2,
		ContainerPremiumSaddlebag1, ContainerPremiumSaddlebag2,
		ContainerRetainerPage1, ContainerRetainerPage2, ContainerRetainerPage3,
		ContainerRetainerPage4, ContainerRetainerPage5, ContainerRetainerPage6,
		ContainerRetainerPage7, ContainerRetainerEquipped,
		ContainerDresser,
		ContainerArmoire,
	}
}

// Client is the request/response boundary to the presentation engine and
// the optional ownership tracker living behind the same endpoint.
type Client interface {
	// Objects enumerates the engine's addressable object table.
	Objects(ctx context.Context) ([]ObjectRef, error)
	// LocalPlayerAddress returns the local player handle's address.
	// ok is false when no local player is present.
	LocalPlayerAddress(ctx context.Context) (addr uint64, ok bool, err error)

	// GetState fetches the live equipment-state document for a subject.
	// The document is returned as raw JSON; a negative code means failure.
	GetState(ctx context.Context, subjectIndex int) (code int, state json.RawMessage, err error)
	// ApplyState submits a structured state document. Negative code = rejected.
	ApplyState(ctx context.Context, state json.RawMessage, subjectIndex int, flags uint32) (int, error)
	// ApplyStateText submits the base64-text transport of a state document.
	ApplyStateText(ctx context.Context, state string, subjectIndex int, flags uint32) (int, error)

	// Container returns the occupied slots of one inventory container.
	Container(ctx context.Context, id uint32) ([]ContainerSlot, error)

	// TrackerReady reports whether the external counting provider is
	// present and initialized.
	TrackerReady(ctx context.Context) bool
	// TrackerCountOwned asks the counting provider for the owned count of
	// an item across the given container categories.
	TrackerCountOwned(ctx context.Context, itemID uint32, currentCharacterOnly bool, containers []uint32) (uint32, error)
}
