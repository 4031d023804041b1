package tradedesk

import "context"

// Strategy is the capability contract the portfolio drives per instrument.
// A strategy's internals are opaque; the portfolio only relies on these
// four hooks and calls them in a fixed lifecycle:
//
//  1. UpdateState on a fresh candle - indicators and the regime flag get
//     updated here; no trades may be placed.
//  2. SetRiskPerTrade with the allocation computed over all strategies.
//  3. EvaluateSignals - entry/exit decisions, using the risk value set in
//     the same cycle.
//
// Hooks may block on asynchronous work; the portfolio waits for them to
// complete before advancing.
type Strategy interface {
	UpdateState(ctx context.Context, event *CandleClosedEvent) error

	IsRegimeActive() bool

	SetRiskPerTrade(value float64)

	EvaluateSignals(ctx context.Context) error
}
