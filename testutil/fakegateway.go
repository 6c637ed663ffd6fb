package testutil

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/eorzealink/server/gateway"
)

// FakeGateway is an in-memory gateway.Client for tests. Zero value is a
// gateway with no player, no containers and no tracker.
type FakeGateway struct {
	mu sync.Mutex

	ObjectList []gateway.ObjectRef
	PlayerAddr uint64
	PlayerOK   bool

	State     json.RawMessage
	StateCode int
	StateErr  error

	ApplyCode int
	TextCode  int

	Containers   map[uint32][]gateway.ContainerSlot
	ContainerErr error

	TrackerOn     bool
	TrackerCounts map[uint32]uint32
	TrackerErr    error

	// recorded calls
	AppliedStates []json.RawMessage
	AppliedTexts  []string
	CountedItems  []uint32
}

var _ gateway.Client = (*FakeGateway)(nil)

func (f *FakeGateway) Objects(ctx context.Context) ([]gateway.ObjectRef, error) {
	return f.ObjectList, nil
}

func (f *FakeGateway) LocalPlayerAddress(ctx context.Context) (uint64, bool, error) {
	return f.PlayerAddr, f.PlayerOK, nil
}

func (f *FakeGateway) GetState(ctx context.Context, subjectIndex int) (int, json.RawMessage, error) {
	if f.StateErr != nil {
		return -1, nil, f.StateErr
	}
	return f.StateCode, f.State, nil
}

func (f *FakeGateway) ApplyState(ctx context.Context, state json.RawMessage, subjectIndex int, flags uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AppliedStates = append(f.AppliedStates, append(json.RawMessage(nil), state...))
	return f.ApplyCode, nil
}

func (f *FakeGateway) ApplyStateText(ctx context.Context, state string, subjectIndex int, flags uint32) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AppliedTexts = append(f.AppliedTexts, state)
	return f.TextCode, nil
}

func (f *FakeGateway) Container(ctx context.Context, id uint32) ([]gateway.ContainerSlot, error) {
	if f.ContainerErr != nil {
		return nil, f.ContainerErr
	}
	return f.Containers[id], nil
}

func (f *FakeGateway) TrackerReady(ctx context.Context) bool {
	return f.TrackerOn
}

func (f *FakeGateway) TrackerCountOwned(ctx context.Context, itemID uint32, currentCharacterOnly bool, containers []uint32) (uint32, error) {
	f.mu.Lock()
	f.CountedItems = append(f.CountedItems, itemID)
	f.mu.Unlock()
	if f.TrackerErr != nil {
		return 0, f.TrackerErr
	}
	return f.TrackerCounts[itemID], nil
}
