package currency

import (
	"context"
	"math"
	"testing"

	"trades-director/internal/exchange"
)

func TestConvert_SameCurrencyUnchanged(t *testing.T) {
	c := NewConverter(fakeTicks{}, StylePlain, nil)
	if got := c.Convert(context.Background(), 123.45, "usd", "USD"); got != 123.45 {
		t.Fatalf("expected amount unchanged, got %f", got)
	}
}

func TestConvert_Direction(t *testing.T) {
	ticks := fakeTicks{"EURUSD": 1.25, "USDJPY": 150}
	c := NewConverter(ticks, StylePlain, nil)

	cases := []struct {
		name     string
		amount   float64
		from, to string
		want     float64
	}{
		{"base to quote multiplies", 100, "EUR", "USD", 125},
		{"quote to base divides", 125, "USD", "EUR", 100},
		{"jpy profit to usd account", 15000, "JPY", "USD", 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Convert(context.Background(), tc.amount, tc.from, tc.to)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("Convert(%v %s->%s) = %f, want %f", tc.amount, tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestConvert_SlashStyle(t *testing.T) {
	c := NewConverter(fakeTicks{"GBP/USD": 1.5}, StyleSlash, nil)
	if got := c.Convert(context.Background(), 10, "GBP", "USD"); got != 15 {
		t.Fatalf("expected 15, got %f", got)
	}
}

func TestConvert_UnavailableReturnsZero(t *testing.T) {
	c := NewConverter(fakeTicks{}, StylePlain, nil)
	if got := c.Convert(context.Background(), 100, "EUR", "USD"); got != 0 {
		t.Fatalf("missing tick should yield 0, got %f", got)
	}
	if got := c.Convert(context.Background(), 100, "BTC", "USD"); got != 0 {
		t.Fatalf("unknown pair should yield 0, got %f", got)
	}
}

func TestFindPair(t *testing.T) {
	if pair, ok := FindPair("USD", "CHF"); !ok || pair != "USDCHF" {
		t.Fatalf("FindPair(USD, CHF) = %s, %v", pair, ok)
	}
	if _, ok := FindPair("SEK", "NOK"); ok {
		t.Fatal("SEK/NOK is not in the universe")
	}
}

type fakeTicks map[string]float64

func (f fakeTicks) LatestTick(_ context.Context, symbol string) (exchange.Tick, error) {
	bid, ok := f[symbol]
	if !ok {
		return exchange.Tick{}, exchange.ErrUnavailable
	}
	return exchange.Tick{Bid: bid, Ask: bid}, nil
}
