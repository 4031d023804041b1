package tradedesk

import (
	"context"
	"fmt"
	"sync"
)

// CandleCloseHandler consumes candle-closed events.
type CandleCloseHandler interface {
	OnCandleClose(ctx context.Context, event *CandleClosedEvent) error
}

// Portfolio orchestrates a fixed set of per-instrument strategies. Each
// candle-closed event is processed in three phases:
//
//  1. The event's strategy updates its state from the candle.
//  2. The regime flags of all strategies are read, the risk policy is
//     applied to the active set, and every strategy receives its risk per
//     trade - the policy's value when allocated, the default otherwise.
//  3. The event's strategy evaluates its signals, observing the allocation
//     computed in phase 2 of the same cycle.
//
// Recomputing the allocation over all instruments on every event keeps the
// shared budget repartitioned the moment any instrument's regime flips.
// Events are processed strictly sequentially; a cycle runs to completion
// before the next event is admitted.
type Portfolio struct {
	logger              Logger
	strategies          map[Instrument]Strategy
	policy              RiskAllocationPolicy
	defaultRiskPerTrade float64

	cycleMutex sync.Mutex
}

func NewPortfolio(
	logger Logger,
	strategies map[Instrument]Strategy,
	policy RiskAllocationPolicy,
	defaultRiskPerTrade float64,
) (*Portfolio, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("at least one strategy is required")
	}

	if policy == nil {
		return nil, fmt.Errorf("risk allocation policy is required")
	}

	// The registry is fixed at construction; copy to cut off external
	// mutation of the caller's map.
	registry := make(map[Instrument]Strategy, len(strategies))
	for instrument, strategy := range strategies {
		if strategy == nil {
			return nil, fmt.Errorf(
				"nil strategy for instrument [%v]",
				instrument,
			)
		}

		registry[instrument] = strategy
	}

	return &Portfolio{
		logger:              logger,
		strategies:          registry,
		policy:              policy,
		defaultRiskPerTrade: defaultRiskPerTrade,
	}, nil
}

// OnCandleClose runs one full three-phase cycle for the event. Hook and
// policy errors abort the cycle and propagate to the caller; no automatic
// retry happens since retrying a trading decision blind is unsafe.
func (p *Portfolio) OnCandleClose(
	ctx context.Context,
	event *CandleClosedEvent,
) error {
	p.cycleMutex.Lock()
	defer p.cycleMutex.Unlock()

	strategy, exists := p.strategies[event.Instrument]

	if exists {
		if err := strategy.UpdateState(ctx, event); err != nil {
			return fmt.Errorf(
				"could not update state for instrument [%v]: [%w]",
				event.Instrument,
				err,
			)
		}
	}

	if err := p.applyRiskBudgets(); err != nil {
		return fmt.Errorf("could not apply risk budgets: [%w]", err)
	}

	if !exists {
		p.logger.Warningf(
			"no strategy registered for instrument [%v]",
			event.Instrument,
		)
		return nil
	}

	if err := strategy.EvaluateSignals(ctx); err != nil {
		return fmt.Errorf(
			"could not evaluate signals for instrument [%v]: [%w]",
			event.Instrument,
			err,
		)
	}

	return nil
}

func (p *Portfolio) applyRiskBudgets() error {
	activeInstruments := make([]Instrument, 0, len(p.strategies))
	for instrument, strategy := range p.strategies {
		if strategy.IsRegimeActive() {
			activeInstruments = append(activeInstruments, instrument)
		}
	}

	allocation, err := p.policy.Allocate(activeInstruments)
	if err != nil {
		return fmt.Errorf("allocation policy failed: [%w]", err)
	}

	for instrument, strategy := range p.strategies {
		if value, allocated := allocation[instrument]; allocated {
			strategy.SetRiskPerTrade(value)
		} else {
			strategy.SetRiskPerTrade(p.defaultRiskPerTrade)
		}
	}

	p.logger.Debugf(
		"applied risk budgets with [%v] active instruments",
		len(activeInstruments),
	)

	return nil
}
