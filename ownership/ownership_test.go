package ownership_test

import (
	"context"
	"errors"
	"testing"

	"github.com/eorzealink/server/gateway"
	"github.com/eorzealink/server/model"
	"github.com/eorzealink/server/ownership"
	"github.com/eorzealink/server/testutil"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestEmptyChainIsUnknown(t *testing.T) {
	agg := ownership.NewAggregator(zap.NewNop())
	verdict, source := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnUnknown, verdict)
	assert.Equal(t, "—", source)
}

func TestTrackerHit(t *testing.T) {
	gw := &testutil.FakeGateway{
		TrackerOn:     true,
		TrackerCounts: map[uint32]uint32{101: 2},
	}
	agg := ownership.NewChain(gw, true, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnHave, verdict)
	assert.Equal(t, "Tracker", source)
}

func TestTrackerZeroIsDefinitiveNotHave(t *testing.T) {
	// The item sits in a bag, but the tracker answered zero. The tracker
	// covers every container the scans do, so its zero is trusted and the
	// scans never run.
	gw := &testutil.FakeGateway{
		TrackerOn:     true,
		TrackerCounts: map[uint32]uint32{},
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerBag1: {{ItemID: 101, Quantity: 1}},
		},
	}
	agg := ownership.NewChain(gw, true, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnNotHave, verdict)
	assert.Equal(t, "Tracker", source)
}

func TestTrackerNotReadyFallsThroughToScans(t *testing.T) {
	gw := &testutil.FakeGateway{
		TrackerOn: false,
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerBag2: {{ItemID: 101, Quantity: 1}},
		},
	}
	agg := ownership.NewChain(gw, true, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnHave, verdict)
	assert.Equal(t, "Inventory", source)
}

func TestTrackerErrorFallsThrough(t *testing.T) {
	gw := &testutil.FakeGateway{
		TrackerOn:  true,
		TrackerErr: errors.New("ipc timeout"),
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerBag1: {{ItemID: 101, Quantity: 1}},
		},
	}
	agg := ownership.NewChain(gw, true, zap.NewNop())

	verdict, _ := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnHave, verdict)
}

func TestArmouryHitCarriesContainerLabel(t *testing.T) {
	gw := &testutil.FakeGateway{
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerArmouryHead: {{ItemID: 301, Quantity: 1}},
		},
	}
	agg := ownership.NewChain(gw, false, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 301)
	assert.Equal(t, model.OwnHave, verdict)
	assert.Equal(t, "Armoury:3201", source)
}

func TestEquippedGearCountsAsOwned(t *testing.T) {
	gw := &testutil.FakeGateway{
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerEquipped: {{ItemID: 101, Quantity: 1}},
		},
	}
	agg := ownership.NewChain(gw, false, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnHave, verdict)
	assert.Equal(t, "Armoury:1000", source)
}

func TestExhaustedChainDefaultsToNotHave(t *testing.T) {
	gw := &testutil.FakeGateway{}
	agg := ownership.NewChain(gw, false, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 999)
	assert.Equal(t, model.OwnNotHave, verdict)
	assert.Equal(t, "—", source)
}

func TestScanErrorNeverReportsNotHave(t *testing.T) {
	// Every container scan fails; the chain must exhaust without a hit,
	// and the item lands on the default, not a provider-attributed answer.
	gw := &testutil.FakeGateway{ContainerErr: errors.New("gateway down")}
	agg := ownership.NewChain(gw, false, zap.NewNop())

	verdict, source := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnNotHave, verdict)
	assert.Equal(t, "—", source)
}

func TestZeroQuantitySlotIsNotAHit(t *testing.T) {
	gw := &testutil.FakeGateway{
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerBag1: {{ItemID: 101, Quantity: 0}},
		},
	}
	agg := ownership.NewChain(gw, false, zap.NewNop())

	verdict, _ := agg.Check(context.Background(), 101)
	assert.Equal(t, model.OwnNotHave, verdict)
}

func TestAnnotateFillsRowsInPlace(t *testing.T) {
	gw := &testutil.FakeGateway{
		Containers: map[uint32][]gateway.ContainerSlot{
			gateway.ContainerBag1: {{ItemID: 101, Quantity: 1}},
		},
	}
	agg := ownership.NewChain(gw, false, zap.NewNop())

	rows := []model.ResolvedRow{
		{ItemID: 101, Own: model.OwnUnknown, OwnSource: "—"},
		{ItemID: 999, Own: model.OwnUnknown, OwnSource: "—"},
	}
	agg.Annotate(context.Background(), rows)

	assert.Equal(t, model.OwnHave, rows[0].Own)
	assert.Equal(t, "Inventory", rows[0].OwnSource)
	assert.Equal(t, model.OwnNotHave, rows[1].Own)
}
