// Package evaluator combines indicator outputs into a scored, directional
// trading signal with human-readable justifications.
package evaluator

import (
	"fmt"

	"bybit-analyzer-bot/internal/analysis"
)

// Direction classifies a signal.
type Direction string

const (
	Long    Direction = "LONG"
	Short   Direction = "SHORT"
	Neutral Direction = "NEUTRAL"
)

// maxScore is the sum of all condition weights (8 x 1 point + funding at
// 0.5). It is a hand-derived constant: changing the condition list below
// requires re-deriving it.
const maxScore = 9.5

// IndicatorSet carries the derived values for one symbol at one
// evaluation instant. The Has fields distinguish an undefined indicator
// from a computed zero; consumers branch on presence.
type IndicatorSet struct {
	MAShort        float64
	HasMAShort     bool
	MALong         float64
	HasMALong      bool
	ATR            float64
	HasATR         bool
	LastPrice      float64
	VolumeRatio    float64
	HasVolumeRatio bool
	Imbalance      float64
	CVD            float64
	SweepPresent   bool
	SweepSide      analysis.SweepSide
	FundingRate    float64
	HasFunding     bool
}

// SignalResult is the outcome of one evaluation cycle for one symbol.
type SignalResult struct {
	Symbol      string    `json:"symbol"`
	Score       float64   `json:"score"`
	Probability int       `json:"probability"`
	Direction   Direction `json:"direction"`
	Reasons     []string  `json:"reasons"`
}

// Identity returns the deduplication key for this result. Probability is
// quantized into the key on purpose: the same symbol and direction at a
// different probability is a distinct signal.
func (r SignalResult) Identity() string {
	return fmt.Sprintf("%s_%s_%d", r.Symbol, r.Direction, r.Probability)
}

// Evaluate scores an IndicatorSet with additive points. Every condition
// is evaluated independently; an undefined indicator skips its condition
// rather than failing the evaluation. The reasons slice preserves the
// fixed condition order.
func Evaluate(symbol string, ind IndicatorSet) SignalResult {
	score := 0.0
	var reasons []string

	if ind.HasMAShort && ind.HasMALong {
		score++
		if ind.MAShort > ind.MALong {
			reasons = append(reasons, "Bullish trend")
		} else {
			reasons = append(reasons, "Bearish trend")
		}
	}

	if abs(ind.Imbalance) > 0.1 {
		score++
		reasons = append(reasons, fmt.Sprintf("Orderbook imbalance %.2f", ind.Imbalance))
	}

	if ind.HasVolumeRatio && ind.VolumeRatio > 1.5 {
		score++
		reasons = append(reasons, fmt.Sprintf("High volume (%.2fx)", ind.VolumeRatio))
	}

	if ind.CVD != 0 {
		score++
		if ind.CVD > 0 {
			reasons = append(reasons, "Positive CVD delta")
		} else {
			reasons = append(reasons, "Negative CVD delta")
		}
	}

	if (ind.Imbalance > 0.05 && ind.CVD > 0) || (ind.Imbalance < -0.05 && ind.CVD < 0) {
		score++
		reasons = append(reasons, "Imbalance and CVD aligned")
	}

	if abs(ind.Imbalance) > 0.2 {
		score++
		reasons = append(reasons, "Strong book imbalance")
	}

	if ind.SweepPresent {
		score++
		reasons = append(reasons, fmt.Sprintf("Liquidity sweep (%s)", ind.SweepSide))
	}

	if ind.HasFunding {
		score += 0.5
		if ind.FundingRate > 0 {
			reasons = append(reasons, fmt.Sprintf("Funding positive (%.6f)", ind.FundingRate))
		} else {
			reasons = append(reasons, fmt.Sprintf("Funding negative (%.6f)", ind.FundingRate))
		}
	}

	if ind.HasATR && ind.LastPrice > 0 && ind.ATR/ind.LastPrice > 0.005 {
		score++
		reasons = append(reasons, "High volatility (ATR)")
	}

	direction := Neutral
	if ind.HasMAShort && ind.HasMALong {
		if ind.MAShort > ind.MALong && (ind.CVD > 0 || ind.Imbalance > 0) {
			direction = Long
		} else if ind.MAShort < ind.MALong && (ind.CVD < 0 || ind.Imbalance < 0) {
			direction = Short
		}
	}

	probability := int(score / maxScore * 100)
	if probability > 100 {
		probability = 100
	}

	return SignalResult{
		Symbol:      symbol,
		Score:       score,
		Probability: probability,
		Direction:   direction,
		Reasons:     reasons,
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
