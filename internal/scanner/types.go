package scanner

import (
	"context"
	"time"

	"bybit-analyzer-bot/internal/bybit"
	"bybit-analyzer-bot/internal/evaluator"
)

// MarketData is the market-data client surface the scanner consumes.
type MarketData interface {
	GetKlines(ctx context.Context, symbol, interval string, limit int) ([]bybit.Kline, error)
	GetFundingRate(ctx context.Context, symbol string) (float64, bool, error)
	GetOrderBook(ctx context.Context, symbol string, depth int) ([]bybit.BookLevel, error)
	GetRecentTrades(ctx context.Context, symbol string, limit int) ([]bybit.Trade, error)
}

// Notifier delivers a formatted message to the configured channel.
type Notifier interface {
	Send(message string) error
}

// Recorder persists emitted signals for later inspection. Optional.
type Recorder interface {
	RecordSignal(ctx context.Context, res evaluator.SignalResult) error
}

// Config carries the scan cadence and indicator windows.
type Config struct {
	Symbols        []string
	KlineLimit     int
	OrderBookDepth int
	TradeLimit     int
	MAShortWindow  int
	MALongWindow   int
	ATRWindow      int
	VolumeWindow   int
	CycleInterval  time.Duration
	SymbolPause    time.Duration
	MinProbability int
}

// Evaluation is one completed symbol evaluation, kept for the status API
// and pushed to websocket subscribers.
type Evaluation struct {
	CycleID     string                 `json:"cycle_id"`
	Result      evaluator.SignalResult `json:"result"`
	Emitted     bool                   `json:"emitted"`
	EvaluatedAt time.Time              `json:"evaluated_at"`
}
