package domain

import (
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

const (
	BaseDecimals = 9
	HypeDecimals = 6

	DefaultCandleInterval = 5 * time.Minute

	priceScale = 12
)

type Candle struct {
	Start  time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume decimal.Decimal
	Trades int
}

// DisplayPrice converts a trade's raw totals into base units per whole hype unit.
func DisplayPrice(totalValue, amount uint64) decimal.Decimal {
	if amount == 0 {
		return decimal.Zero
	}
	base := DisplayUnits(totalValue, BaseDecimals)
	hype := DisplayUnits(amount, HypeDecimals)
	return base.DivRound(hype, priceScale)
}

func DisplayUnits(raw uint64, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(new(big.Int).SetUint64(raw), -decimals)
}

// BuildCandles groups trades into OHLC buckets of the given interval. Buckets
// without trades are not emitted.
func BuildCandles(trades []Trade, interval time.Duration) []Candle {
	if interval <= 0 {
		interval = DefaultCandleInterval
	}
	ordered := make([]Trade, 0, len(trades))
	for _, t := range trades {
		if t.Amount > 0 {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].OccurredAt.Before(ordered[j].OccurredAt)
	})

	out := make([]Candle, 0)
	for _, t := range ordered {
		start := t.OccurredAt.UTC().Truncate(interval)
		price := DisplayPrice(t.TotalValue, t.Amount)
		volume := DisplayUnits(t.Amount, HypeDecimals)
		if n := len(out); n > 0 && out[n-1].Start.Equal(start) {
			c := &out[n-1]
			if price.GreaterThan(c.High) {
				c.High = price
			}
			if price.LessThan(c.Low) {
				c.Low = price
			}
			c.Close = price
			c.Volume = c.Volume.Add(volume)
			c.Trades++
			continue
		}
		out = append(out, Candle{
			Start: start, Open: price, High: price, Low: price, Close: price,
			Volume: volume, Trades: 1,
		})
	}
	return out
}
