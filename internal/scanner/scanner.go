// Package scanner drives the evaluation loop: fetch market state per
// symbol, compute indicators, score, and hand the result to the
// emission gate.
package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"bybit-analyzer-bot/internal/analysis"
	"bybit-analyzer-bot/internal/bybit"
	"bybit-analyzer-bot/internal/evaluator"
	"bybit-analyzer-bot/internal/metrics"
)

// Scanner iterates the symbol list on a fixed cadence. Symbols are
// evaluated sequentially; the data fetches within one symbol run
// concurrently.
type Scanner struct {
	client    MarketData
	gate      *Gate
	config    Config
	log       zerolog.Logger
	broadcast func(Evaluation) // nil disables push updates

	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu          sync.RWMutex
	lastResults map[string]Evaluation
}

func New(client MarketData, gate *Gate, config Config, logger zerolog.Logger) *Scanner {
	if config.CycleInterval <= 0 {
		config.CycleInterval = 10 * time.Minute
	}
	if config.SymbolPause <= 0 {
		config.SymbolPause = 2 * time.Second
	}
	return &Scanner{
		client:      client,
		gate:        gate,
		config:      config,
		log:         logger,
		stopChan:    make(chan struct{}),
		lastResults: make(map[string]Evaluation),
	}
}

// SetBroadcast registers a callback invoked after every completed
// evaluation. Must be called before Start.
func (sc *Scanner) SetBroadcast(fn func(Evaluation)) {
	sc.broadcast = fn
}

// Start begins the background scan loop.
func (sc *Scanner) Start() {
	sc.wg.Add(1)
	go sc.runScanLoop()
	sc.log.Info().Int("symbols", len(sc.config.Symbols)).
		Dur("cycle_interval", sc.config.CycleInterval).Msg("scanner started")
}

func (sc *Scanner) runScanLoop() {
	defer sc.wg.Done()

	ticker := time.NewTicker(sc.config.CycleInterval)
	defer ticker.Stop()

	// Run immediately, then on the cycle cadence.
	sc.scanCycle()

	for {
		select {
		case <-ticker.C:
			sc.scanCycle()
		case <-sc.stopChan:
			sc.log.Info().Msg("scanner stopped")
			return
		}
	}
}

// scanCycle runs one sequential pass over the symbol list. A shutdown
// request lets the in-flight symbol finish and skips the rest.
func (sc *Scanner) scanCycle() {
	cycleID := uuid.NewString()
	start := time.Now()
	log := sc.log.With().Str("cycle_id", cycleID).Logger()

	for i, symbol := range sc.config.Symbols {
		select {
		case <-sc.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		eval := sc.evaluateSymbol(ctx, symbol)
		cancel()

		eval.CycleID = cycleID
		eval.Emitted = sc.gate.Process(eval.Result)

		sc.mu.Lock()
		sc.lastResults[symbol] = eval
		sc.mu.Unlock()

		metrics.EvaluationsTotal.WithLabelValues(symbol, string(eval.Result.Direction)).Inc()
		log.Info().Str("symbol", symbol).
			Str("direction", string(eval.Result.Direction)).
			Int("probability", eval.Result.Probability).
			Float64("score", eval.Result.Score).
			Bool("emitted", eval.Emitted).
			Msg("symbol evaluated")

		if sc.broadcast != nil {
			sc.broadcast(eval)
		}

		if i < len(sc.config.Symbols)-1 {
			select {
			case <-time.After(sc.config.SymbolPause):
			case <-sc.stopChan:
				return
			}
		}
	}

	log.Info().Dur("duration", time.Since(start)).Msg("scan cycle completed")
}

// evaluateSymbol fetches the five data sources concurrently, derives the
// indicator set, and scores it. Fetch failures degrade to missing data;
// an evaluation always produces a result, never an error.
func (sc *Scanner) evaluateSymbol(ctx context.Context, symbol string) Evaluation {
	var (
		fast, slow []bybit.Kline
		trades     []bybit.Trade
		book       []bybit.BookLevel
		funding    float64
		hasFunding bool
	)

	var wg sync.WaitGroup
	wg.Add(5)
	go func() {
		defer wg.Done()
		var err error
		if fast, err = sc.client.GetKlines(ctx, symbol, "1", sc.config.KlineLimit); err != nil {
			sc.log.Warn().Err(err).Str("symbol", symbol).Msg("1m klines unavailable")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if slow, err = sc.client.GetKlines(ctx, symbol, "5", sc.config.KlineLimit); err != nil {
			sc.log.Warn().Err(err).Str("symbol", symbol).Msg("5m klines unavailable")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if trades, err = sc.client.GetRecentTrades(ctx, symbol, sc.config.TradeLimit); err != nil {
			sc.log.Warn().Err(err).Str("symbol", symbol).Msg("recent trades unavailable")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if book, err = sc.client.GetOrderBook(ctx, symbol, sc.config.OrderBookDepth); err != nil {
			sc.log.Warn().Err(err).Str("symbol", symbol).Msg("orderbook unavailable")
		}
	}()
	go func() {
		defer wg.Done()
		var err error
		if funding, hasFunding, err = sc.client.GetFundingRate(ctx, symbol); err != nil {
			sc.log.Warn().Err(err).Str("symbol", symbol).Msg("funding rate unavailable")
		}
	}()
	wg.Wait()

	ind := sc.deriveIndicators(fast, slow, trades, book, funding, hasFunding)
	return Evaluation{
		Result:      evaluator.Evaluate(symbol, ind),
		EvaluatedAt: time.Now(),
	}
}

// deriveIndicators maps raw market records to the evaluator's input.
// Trend and volatility read the 5m series; volume ratio and sweep
// detection read the 1m series.
func (sc *Scanner) deriveIndicators(
	fast, slow []bybit.Kline,
	trades []bybit.Trade,
	book []bybit.BookLevel,
	funding float64,
	hasFunding bool,
) evaluator.IndicatorSet {
	var ind evaluator.IndicatorSet

	closes := analysis.Closes(slow)
	ind.MAShort, ind.HasMAShort = analysis.SMA(closes, sc.config.MAShortWindow)
	ind.MALong, ind.HasMALong = analysis.SMA(closes, sc.config.MALongWindow)
	ind.ATR, ind.HasATR = analysis.ATR(slow, sc.config.ATRWindow)
	if len(closes) > 0 {
		ind.LastPrice = closes[len(closes)-1]
	}

	ind.VolumeRatio, ind.HasVolumeRatio = analysis.VolumeRatio(fast, sc.config.VolumeWindow)
	ind.SweepPresent, ind.SweepSide = analysis.DetectLiquiditySweep(fast)

	ind.Imbalance = analysis.OrderBookImbalance(book)
	ind.CVD = analysis.CVD(trades)
	ind.FundingRate = funding
	ind.HasFunding = hasFunding
	return ind
}

// Results returns the most recent evaluation per symbol, in the
// configured symbol order.
func (sc *Scanner) Results() []Evaluation {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	out := make([]Evaluation, 0, len(sc.lastResults))
	for _, symbol := range sc.config.Symbols {
		if eval, ok := sc.lastResults[symbol]; ok {
			out = append(out, eval)
		}
	}
	return out
}

// Stop requests shutdown and waits for the in-flight evaluation to
// finish.
func (sc *Scanner) Stop() {
	sc.stopOnce.Do(func() { close(sc.stopChan) })
	sc.wg.Wait()
}
