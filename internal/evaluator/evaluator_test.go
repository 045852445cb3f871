package evaluator

import (
	"reflect"
	"strings"
	"testing"
)

// confluent returns the indicator set from the reference scenario: bullish
// trend, aligned imbalance and delta, elevated volume and volatility,
// funding present, no sweep.
func confluent() IndicatorSet {
	return IndicatorSet{
		MAShort: 110, HasMAShort: true,
		MALong: 100, HasMALong: true,
		ATR: 1.1, HasATR: true,
		LastPrice:   110,
		VolumeRatio: 2.0, HasVolumeRatio: true,
		Imbalance:   0.15,
		CVD:         500,
		FundingRate: 0.0001, HasFunding: true,
	}
}

func TestEvaluateConfluenceScenario(t *testing.T) {
	res := Evaluate("BTCUSDT", confluent())

	// trend + imbalance>0.1 + volume>1.5 + delta!=0 + aligned + funding + atr
	if res.Score != 6.5 {
		t.Errorf("expected score 6.5, got %f", res.Score)
	}
	if res.Probability != 68 {
		t.Errorf("expected probability floor(6.5/9.5*100)=68, got %d", res.Probability)
	}
	if res.Direction != Long {
		t.Errorf("expected LONG, got %s", res.Direction)
	}
	if res.Identity() != "BTCUSDT_LONG_68" {
		t.Errorf("unexpected identity %q", res.Identity())
	}
}

func TestEvaluateReasonsOrderIsFixed(t *testing.T) {
	res := Evaluate("BTCUSDT", confluent())

	wantPrefixes := []string{
		"Bullish trend",
		"Orderbook imbalance",
		"High volume",
		"Positive CVD delta",
		"Imbalance and CVD aligned",
		"Funding positive",
		"High volatility",
	}
	if len(res.Reasons) != len(wantPrefixes) {
		t.Fatalf("expected %d reasons, got %d: %v", len(wantPrefixes), len(res.Reasons), res.Reasons)
	}
	for i, prefix := range wantPrefixes {
		if !strings.HasPrefix(res.Reasons[i], prefix) {
			t.Errorf("reason %d = %q, want prefix %q", i, res.Reasons[i], prefix)
		}
	}
}

func TestEvaluateIsPure(t *testing.T) {
	ind := confluent()
	first := Evaluate("BTCUSDT", ind)
	second := Evaluate("BTCUSDT", ind)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated evaluation differs: %+v vs %+v", first, second)
	}
}

func TestEvaluateAllUndefinedIsNeutralZero(t *testing.T) {
	res := Evaluate("BTCUSDT", IndicatorSet{})
	if res.Score != 0 {
		t.Errorf("expected score 0, got %f", res.Score)
	}
	if res.Probability != 0 {
		t.Errorf("expected probability 0, got %d", res.Probability)
	}
	if res.Direction != Neutral {
		t.Errorf("expected NEUTRAL, got %s", res.Direction)
	}
	if len(res.Reasons) != 0 {
		t.Errorf("expected no reasons, got %v", res.Reasons)
	}
}

func TestEvaluateNonzeroScoreCanStayNeutral(t *testing.T) {
	// MAs crossed bullish but neither delta nor imbalance confirm.
	ind := IndicatorSet{
		MAShort: 110, HasMAShort: true,
		MALong: 100, HasMALong: true,
		CVD:       -5,
		Imbalance: -0.01,
	}
	res := Evaluate("ETHUSDT", ind)
	if res.Score == 0 {
		t.Error("expected trend point to score")
	}
	if res.Direction != Neutral {
		t.Errorf("expected NEUTRAL without flow confirmation, got %s", res.Direction)
	}
}

func TestEvaluateShortDirection(t *testing.T) {
	ind := IndicatorSet{
		MAShort: 95, HasMAShort: true,
		MALong: 100, HasMALong: true,
		CVD:       -200,
		Imbalance: -0.12,
	}
	res := Evaluate("ETHUSDT", ind)
	if res.Direction != Short {
		t.Errorf("expected SHORT, got %s", res.Direction)
	}
}

func TestProbabilityMonotonicInScore(t *testing.T) {
	// Stack conditions one at a time and ensure probability never drops.
	sets := []IndicatorSet{
		{},
		{Imbalance: 0.12},
		{Imbalance: 0.25},
		{Imbalance: 0.25, CVD: 100},
		{Imbalance: 0.25, CVD: 100, HasFunding: true},
		confluent(),
	}
	prev := -1
	for i, ind := range sets {
		res := Evaluate("BTCUSDT", ind)
		if res.Probability < prev {
			t.Errorf("probability decreased at step %d: %d -> %d", i, prev, res.Probability)
		}
		prev = res.Probability
	}
}

func TestFundingPresenceScoresRegardlessOfSign(t *testing.T) {
	negative := Evaluate("BTCUSDT", IndicatorSet{FundingRate: -0.0003, HasFunding: true})
	if negative.Score != 0.5 {
		t.Errorf("expected 0.5 for negative funding presence, got %f", negative.Score)
	}
	absent := Evaluate("BTCUSDT", IndicatorSet{})
	if absent.Score != 0 {
		t.Errorf("expected 0 when funding absent, got %f", absent.Score)
	}
}
