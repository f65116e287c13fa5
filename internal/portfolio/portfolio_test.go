package portfolio

import (
	"context"
	"errors"
	"testing"

	"trades-director/internal/exchange"
)

func TestOpenPositionCounts_FiltersByMagicAndSymbol(t *testing.T) {
	source := fakePositions{positions: []exchange.Position{
		{Symbol: "EURUSD", Volume: 1, Type: exchange.PositionLong, MagicNumber: 7},
		{Symbol: "EURUSD", Volume: 2, Type: exchange.PositionLong, MagicNumber: 7},
		{Symbol: "eurusd", Volume: 1, Type: exchange.PositionShort, MagicNumber: 7},
		{Symbol: "EURUSD", Volume: 1, Type: exchange.PositionShort, MagicNumber: 8},
		{Symbol: "GBPUSD", Volume: 1, Type: exchange.PositionLong, MagicNumber: 7},
	}}
	p := New(source, 7, nil)

	counts, err := p.OpenPositionCounts(context.Background(), "EURUSD")
	if err != nil {
		t.Fatalf("OpenPositionCounts returned error: %v", err)
	}
	if counts.Long != 2 || counts.Short != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	owned, err := p.StrategyOpenPositions(context.Background())
	if err != nil {
		t.Fatalf("StrategyOpenPositions returned error: %v", err)
	}
	if len(owned) != 4 {
		t.Fatalf("expected 4 positions for magic 7, got %d", len(owned))
	}
}

func TestOpenPositionCounts_Unavailable(t *testing.T) {
	p := New(fakePositions{err: exchange.ErrUnavailable}, 7, nil)
	if _, err := p.OpenPositionCounts(context.Background(), "EURUSD"); !errors.Is(err, exchange.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

type fakePositions struct {
	positions []exchange.Position
	err       error
}

func (f fakePositions) OpenPositions(context.Context) ([]exchange.Position, error) {
	return f.positions, f.err
}
