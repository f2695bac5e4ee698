package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisplayPrice(t *testing.T) {
	assert.True(t, DisplayPrice(2_000_000_000, 1_000_000).Equal(decimal.NewFromInt(2)))
	assert.True(t, DisplayPrice(111_111, 1_000_000).Equal(decimal.RequireFromString("0.000111111")))
	assert.True(t, DisplayPrice(5, 0).IsZero())
}

func TestBuildCandlesSkipsEmptyBuckets(t *testing.T) {
	at := func(min, sec int) time.Time { return time.Date(2026, 3, 1, 12, min, sec, 0, time.UTC) }
	trades := []Trade{
		{Amount: 1_000_000, TotalValue: 3_000_000_000, OccurredAt: at(1, 0)},
		{Amount: 1_000_000, TotalValue: 2_000_000_000, OccurredAt: at(0, 10)},
		{Amount: 1_000_000, TotalValue: 1_000_000_000, OccurredAt: at(3, 0)},
		{Amount: 2_000_000, TotalValue: 8_000_000_000, OccurredAt: at(11, 0)},
		{Amount: 0, TotalValue: 1, OccurredAt: at(20, 0)},
	}

	candles := BuildCandles(trades, 5*time.Minute)
	require.Len(t, candles, 2)

	first := candles[0]
	assert.Equal(t, at(0, 0), first.Start)
	assert.True(t, first.Open.Equal(decimal.NewFromInt(2)))
	assert.True(t, first.High.Equal(decimal.NewFromInt(3)))
	assert.True(t, first.Low.Equal(decimal.NewFromInt(1)))
	assert.True(t, first.Close.Equal(decimal.NewFromInt(1)))
	assert.True(t, first.Volume.Equal(decimal.NewFromInt(3)))
	assert.Equal(t, 3, first.Trades)

	second := candles[1]
	assert.Equal(t, at(10, 0), second.Start)
	assert.True(t, second.Open.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, 1, second.Trades)
}
