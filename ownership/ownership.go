package ownership

import (
	"context"
	"fmt"

	"github.com/eorzealink/server/gateway"
	"github.com/eorzealink/server/model"
	"go.uber.org/zap"
)

// Provider is one data source capable of answering "is item X owned".
// ok is false when the provider has no definitive answer and the next
// provider in the chain should be consulted.
type Provider interface {
	Name() string
	Check(ctx context.Context, itemID uint32) (verdict model.OwnVerdict, source string, ok bool)
}

// Aggregator consults an ordered provider chain; the first definitive
// answer wins.
type Aggregator struct {
	providers []Provider
	logger    *zap.Logger
}

// NewAggregator creates an Aggregator over the given providers, consulted
// in order.
func NewAggregator(logger *zap.Logger, providers ...Provider) *Aggregator {
	return &Aggregator{providers: providers, logger: logger}
}

// NewChain builds the standard provider order: the external counting
// tracker (when enabled), then bag, armoury+equipped and saddlebag scans.
func NewChain(gw gateway.Client, tracker bool, logger *zap.Logger) *Aggregator {
	providers := make([]Provider, 0, 4)
	if tracker {
		providers = append(providers, &TrackerProvider{gw: gw})
	}
	providers = append(providers,
		&ScanProvider{
			name: "Inventory",
			gw:   gw,
			containers: []uint32{
				gateway.ContainerBag1, gateway.ContainerBag2,
				gateway.ContainerBag3, gateway.ContainerBag4,
			},
		},
		&ScanProvider{
			name:     "Armoury",
			gw:       gw,
			perLabel: true,
			containers: []uint32{
				gateway.ContainerArmouryMainHand, gateway.ContainerArmouryOffHand,
				gateway.ContainerArmouryHead, gateway.ContainerArmouryBody,
				gateway.ContainerArmouryHands, gateway.ContainerArmouryLegs,
				gateway.ContainerArmouryFeet, gateway.ContainerArmouryEars,
				gateway.ContainerArmouryNeck, gateway.ContainerArmouryWrists,
				gateway.ContainerArmouryRings, gateway.ContainerEquipped,
			},
		},
		&ScanProvider{
			name:     "Saddlebags",
			gw:       gw,
			perLabel: true,
			containers: []uint32{
				gateway.ContainerSaddlebag1, gateway.ContainerSaddlebag2,
				gateway.ContainerPremiumSaddlebag1, gateway.ContainerPremiumSaddlebag2,
			},
		},
	)
	return NewAggregator(logger, providers...)
}

// Check resolves the ownership verdict for one item id. With no provider
// configured at all the answer is a genuine Unknown; otherwise an
// exhausted chain defaults to NotHave with no source attribution.
func (a *Aggregator) Check(ctx context.Context, itemID uint32) (model.OwnVerdict, string) {
	if len(a.providers) == 0 {
		return model.OwnUnknown, "—"
	}
	for _, p := range a.providers {
		verdict, source, ok := p.Check(ctx, itemID)
		if ok {
			return verdict, source
		}
	}
	return model.OwnNotHave, "—"
}

// Annotate fills in the ownership fields of each resolved row in place.
func (a *Aggregator) Annotate(ctx context.Context, rows []model.ResolvedRow) {
	for i := range rows {
		verdict, source := a.Check(ctx, rows[i].ItemID)
		rows[i].Own = verdict
		rows[i].OwnSource = source
	}
}

// TrackerProvider asks the external counting service. Its answer is
// definitive both ways: a zero count is trusted as NotHave without
// falling through to the direct scans. Absence, not-ready and transport
// failures all fall through silently.
type TrackerProvider struct {
	gw gateway.Client
}

func (p *TrackerProvider) Name() string { return "Tracker" }

func (p *TrackerProvider) Check(ctx context.Context, itemID uint32) (model.OwnVerdict, string, bool) {
	if !p.gw.TrackerReady(ctx) {
		return model.OwnUnknown, "", false
	}
	count, err := p.gw.TrackerCountOwned(ctx, itemID, true, gateway.TrackerContainers())
	if err != nil {
		return model.OwnUnknown, "", false
	}
	if count > 0 {
		return model.OwnHave, p.Name(), true
	}
	return model.OwnNotHave, p.Name(), true
}

// ScanProvider walks a fixed container list slot by slot. Only a hit is
// definitive; an item not found here may still turn up in a later stage.
type ScanProvider struct {
	name       string
	gw         gateway.Client
	containers []uint32
	// perLabel appends the container id to the source attribution.
	perLabel bool
}

func (p *ScanProvider) Name() string { return p.name }

func (p *ScanProvider) Check(ctx context.Context, itemID uint32) (model.OwnVerdict, string, bool) {
	for _, id := range p.containers {
		slots, err := p.gw.Container(ctx, id)
		if err != nil {
			// Unreachable container: fall through, never report NotHave.
			continue
		}
		for _, s := range slots {
			if s.ItemID == itemID && s.Quantity > 0 {
				return model.OwnHave, p.source(id), true
			}
		}
	}
	return model.OwnUnknown, "", false
}

func (p *ScanProvider) source(id uint32) string {
	if p.perLabel {
		return fmt.Sprintf("%s:%d", p.name, id)
	}
	return p.name
}
