package scanner

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"bybit-analyzer-bot/internal/evaluator"
	"bybit-analyzer-bot/internal/ledger"
	"bybit-analyzer-bot/internal/metrics"
	"bybit-analyzer-bot/internal/notification"
)

// Gate applies the emission policy to evaluation results: NEUTRAL and
// low-probability signals are suppressed outright, novel identities are
// notified once, and the identity is recorded even when delivery fails.
type Gate struct {
	ledger         ledger.Ledger
	notifier       Notifier
	history        Recorder // nil disables signal history
	minProbability int
	now            func() time.Time
	log            zerolog.Logger
}

func NewGate(l ledger.Ledger, n Notifier, history Recorder, minProbability int, logger zerolog.Logger) *Gate {
	if minProbability <= 0 {
		minProbability = 40
	}
	return &Gate{
		ledger:         l,
		notifier:       n,
		history:        history,
		minProbability: minProbability,
		now:            time.Now,
		log:            logger,
	}
}

// Process runs one result through the gate and reports whether a
// notification was attempted. Suppressed results leave no ledger entry.
func (g *Gate) Process(res evaluator.SignalResult) bool {
	if res.Direction == evaluator.Neutral {
		metrics.SignalsSuppressedTotal.WithLabelValues(res.Symbol, "neutral").Inc()
		g.log.Debug().Str("symbol", res.Symbol).Msg("signal suppressed: neutral direction")
		return false
	}
	if res.Probability < g.minProbability {
		metrics.SignalsSuppressedTotal.WithLabelValues(res.Symbol, "low_probability").Inc()
		g.log.Debug().Str("symbol", res.Symbol).Int("probability", res.Probability).
			Msg("signal suppressed: below probability threshold")
		return false
	}

	id := res.Identity()
	if g.ledger.Contains(id) {
		metrics.SignalsSuppressedTotal.WithLabelValues(res.Symbol, "duplicate").Inc()
		g.log.Debug().Str("identity", id).Msg("signal suppressed: already sent")
		return false
	}

	message := notification.FormatSignal(res, g.now())
	if err := g.notifier.Send(message); err != nil {
		// Best-effort channel: the identity is still recorded below, so a
		// failed delivery of a novel signal is silently lost.
		metrics.NotifyFailuresTotal.WithLabelValues("manager").Inc()
		g.log.Error().Err(err).Str("identity", id).Msg("notification delivery failed")
	}

	if err := g.ledger.Append(id); err != nil {
		g.log.Error().Err(err).Str("identity", id).Msg("ledger append failed; duplicate possible after restart")
	}

	if g.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := g.history.RecordSignal(ctx, res); err != nil {
			g.log.Warn().Err(err).Str("identity", id).Msg("signal history insert failed")
		}
		cancel()
	}

	metrics.SignalsEmittedTotal.WithLabelValues(res.Symbol, string(res.Direction)).Inc()
	g.log.Info().Str("identity", id).Float64("score", res.Score).Msg("signal emitted")
	return true
}
