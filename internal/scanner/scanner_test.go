package scanner

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"bybit-analyzer-bot/internal/bybit"
	"bybit-analyzer-bot/internal/evaluator"
	"bybit-analyzer-bot/internal/ledger"
)

// fakeMarketData serves canned data, or errors for everything when
// failing is set.
type fakeMarketData struct {
	fast    []bybit.Kline
	slow    []bybit.Kline
	trades  []bybit.Trade
	book    []bybit.BookLevel
	funding float64
	present bool
	failing bool
}

func (f *fakeMarketData) GetKlines(_ context.Context, _, interval string, _ int) ([]bybit.Kline, error) {
	if f.failing {
		return nil, errors.New("all attempts failed")
	}
	if interval == "1" {
		return f.fast, nil
	}
	return f.slow, nil
}

func (f *fakeMarketData) GetFundingRate(context.Context, string) (float64, bool, error) {
	if f.failing {
		return 0, false, errors.New("all attempts failed")
	}
	return f.funding, f.present, nil
}

func (f *fakeMarketData) GetOrderBook(context.Context, string, int) ([]bybit.BookLevel, error) {
	if f.failing {
		return nil, errors.New("all attempts failed")
	}
	return f.book, nil
}

func (f *fakeMarketData) GetRecentTrades(context.Context, string, int) ([]bybit.Trade, error) {
	if f.failing {
		return nil, errors.New("all attempts failed")
	}
	return f.trades, nil
}

func testConfig() Config {
	return Config{
		Symbols:        []string{"BTCUSDT"},
		KlineLimit:     200,
		OrderBookDepth: 50,
		TradeLimit:     200,
		MAShortWindow:  20,
		MALongWindow:   50,
		ATRWindow:      14,
		VolumeWindow:   20,
		MinProbability: 40,
	}
}

// trendedKlines builds n candles whose closes ramp so the short MA sits
// above the long one, with enough range for a defined ATR.
func trendedKlines(n int) []bybit.Kline {
	klines := make([]bybit.Kline, n)
	for i := range klines {
		price := 100 + float64(i)*0.5
		klines[i] = bybit.Kline{
			OpenTime: int64(i) * 300000,
			Open:     price - 0.2,
			High:     price + 2,
			Low:      price - 2,
			Close:    price,
			Volume:   10,
		}
	}
	return klines
}

func TestEvaluateSymbolConfluence(t *testing.T) {
	fast := trendedKlines(200)
	fast[len(fast)-1].Volume = 25 // volume ratio well above 1.5

	data := &fakeMarketData{
		fast: fast,
		slow: trendedKlines(200),
		trades: []bybit.Trade{
			{Side: "buy", Size: 600},
			{Side: "sell", Size: 100},
		},
		book: []bybit.BookLevel{
			{Side: "buy", Size: 115},
			{Side: "sell", Size: 85},
		},
		funding: 0.0001,
		present: true,
	}

	sc := New(data, NewGate(ledger.NewMemory(), &captureNotifier{}, nil, 40, zerolog.Nop()), testConfig(), zerolog.Nop())
	eval := sc.evaluateSymbol(context.Background(), "BTCUSDT")

	if eval.Result.Direction != evaluator.Long {
		t.Errorf("expected LONG, got %s", eval.Result.Direction)
	}
	if eval.Result.Probability < 40 {
		t.Errorf("expected confident signal, got probability %d", eval.Result.Probability)
	}
	if len(eval.Result.Reasons) == 0 {
		t.Error("expected justifications for a scoring signal")
	}
}

func TestEvaluateSymbolSurvivesTotalFetchFailure(t *testing.T) {
	data := &fakeMarketData{failing: true}
	sc := New(data, NewGate(ledger.NewMemory(), &captureNotifier{}, nil, 40, zerolog.Nop()), testConfig(), zerolog.Nop())

	eval := sc.evaluateSymbol(context.Background(), "BTCUSDT")

	if eval.Result.Direction != evaluator.Neutral {
		t.Errorf("expected NEUTRAL when no data arrives, got %s", eval.Result.Direction)
	}
	if eval.Result.Score != 0 {
		t.Errorf("expected score 0 when no data arrives, got %f", eval.Result.Score)
	}
}

func TestEvaluateSymbolFlatMarket(t *testing.T) {
	flat := make([]bybit.Kline, 200)
	for i := range flat {
		flat[i] = bybit.Kline{Open: 100, High: 100, Low: 100, Close: 100, Volume: 0}
	}
	data := &fakeMarketData{fast: flat, slow: flat}
	sc := New(data, NewGate(ledger.NewMemory(), &captureNotifier{}, nil, 40, zerolog.Nop()), testConfig(), zerolog.Nop())

	eval := sc.evaluateSymbol(context.Background(), "BTCUSDT")

	if eval.Result.Direction != evaluator.Neutral {
		t.Errorf("constant price and zero volume must be NEUTRAL, got %s", eval.Result.Direction)
	}
	// Only the trend condition can fire: both MAs are defined (and equal).
	// Everything else is zero or undefined.
	if eval.Result.Score > 1 {
		t.Errorf("flat market scored %f", eval.Result.Score)
	}
}

func TestResultsKeepsSymbolOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Symbols = []string{"BTCUSDT", "ETHUSDT"}
	sc := New(&fakeMarketData{}, NewGate(ledger.NewMemory(), &captureNotifier{}, nil, 40, zerolog.Nop()), cfg, zerolog.Nop())

	sc.lastResults["ETHUSDT"] = Evaluation{Result: evaluator.SignalResult{Symbol: "ETHUSDT"}}
	sc.lastResults["BTCUSDT"] = Evaluation{Result: evaluator.SignalResult{Symbol: "BTCUSDT"}}

	results := sc.Results()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Result.Symbol != "BTCUSDT" || results[1].Result.Symbol != "ETHUSDT" {
		t.Errorf("results out of configured order: %v", results)
	}
}
