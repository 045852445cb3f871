// Package analysis provides pure technical indicator calculations over
// normalized market data. Insufficient history is reported through an
// explicit ok return, never as a computed zero.
package analysis

import (
	"math"
	"strings"

	"bybit-analyzer-bot/internal/bybit"
)

// SweepSide identifies which wick a liquidity sweep cleared.
type SweepSide string

const (
	SweepUpper SweepSide = "upper"
	SweepLower SweepSide = "lower"
)

// SMA returns the arithmetic mean of the last window closes. ok is false
// when fewer than window values are available.
func SMA(closes []float64, window int) (float64, bool) {
	if window <= 0 || len(closes) < window {
		return 0, false
	}
	sum := 0.0
	for _, c := range closes[len(closes)-window:] {
		sum += c
	}
	return sum / float64(window), true
}

// ATR returns the mean true range of the last window candle pairs.
// True range = max(high-low, |high-prevClose|, |low-prevClose|).
func ATR(candles []bybit.Kline, window int) (float64, bool) {
	if window <= 0 || len(candles) < window+1 {
		return 0, false
	}
	ranges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		high := candles[i].High
		low := candles[i].Low
		prevClose := candles[i-1].Close
		tr := math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
		ranges = append(ranges, tr)
	}
	sum := 0.0
	for _, tr := range ranges[len(ranges)-window:] {
		sum += tr
	}
	return sum / float64(window), true
}

// OrderBookImbalance returns (bidSize-askSize)/(bidSize+askSize) over a
// depth snapshot, in [-1, 1]. An empty or fully unrecognizable book
// yields exactly 0.
func OrderBookImbalance(levels []bybit.BookLevel) float64 {
	var bids, asks float64
	for _, level := range levels {
		side := strings.ToLower(level.Side)
		switch {
		case strings.Contains(side, "buy"):
			bids += level.Size
		case strings.Contains(side, "sell"):
			asks += level.Size
		}
	}
	total := bids + asks
	if total == 0 {
		return 0
	}
	return (bids - asks) / total
}

// CVD returns the cumulative volume delta of a trade window: buy sizes
// count positive, sell sizes negative. Empty input yields 0.
func CVD(trades []bybit.Trade) float64 {
	delta := 0.0
	for _, trade := range trades {
		if strings.Contains(strings.ToLower(trade.Side), "buy") {
			delta += trade.Size
		} else {
			delta -= trade.Size
		}
	}
	return delta
}

// VolumeRatio returns the last bar's volume divided by the trailing
// window average. ok is false with fewer than window candles.
func VolumeRatio(candles []bybit.Kline, window int) (float64, bool) {
	if window <= 0 || len(candles) < window {
		return 0, false
	}
	sum := 0.0
	for _, k := range candles[len(candles)-window:] {
		sum += k.Volume
	}
	avg := sum / float64(window)
	if avg == 0 {
		return 0, false
	}
	return candles[len(candles)-1].Volume / avg, true
}

// DetectLiquiditySweep flags the most recent candle as a sweep when its
// wick exceeds twice the body and its volume exceeds twice the average
// of the preceding five candles. Requires at least 6 candles.
func DetectLiquiditySweep(candles []bybit.Kline) (bool, SweepSide) {
	if len(candles) < 6 {
		return false, ""
	}
	last := candles[len(candles)-1]

	volAvg := 0.0
	for _, k := range candles[len(candles)-6 : len(candles)-1] {
		volAvg += k.Volume
	}
	volAvg /= 5

	body := math.Abs(last.Close - last.Open)
	upper := last.High - math.Max(last.Close, last.Open)
	lower := math.Min(last.Close, last.Open) - last.Low

	if upper > body*2 && last.Volume > 2*volAvg {
		return true, SweepUpper
	}
	if lower > body*2 && last.Volume > 2*volAvg {
		return true, SweepLower
	}
	return false, ""
}

// Closes extracts the close series from a candle sequence.
func Closes(candles []bybit.Kline) []float64 {
	closes := make([]float64, len(candles))
	for i, k := range candles {
		closes[i] = k.Close
	}
	return closes
}
