package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davison/tradedesk"
)

const candleTickTimeout = 10 * time.Second

// CandleMonitor streams base-period candles for a single instrument,
// re-buckets them through the aggregator, and hands every completed
// target-period candle to the handler. Only closed ticks feed the
// aggregator; forming ticks just refresh the candle registry.
type CandleMonitor struct {
	logger     tradedesk.Logger
	feed       tradedesk.ExchangeFeed
	filter     *tradedesk.CandleFilter
	aggregator *tradedesk.CandleAggregator
	repository tradedesk.CandleRepository
	handler    tradedesk.CandleCloseHandler
	errChan    chan error
}

func RunCandleMonitor(
	ctx context.Context,
	logger tradedesk.Logger,
	feed tradedesk.ExchangeFeed,
	filter *tradedesk.CandleFilter,
	aggregator *tradedesk.CandleAggregator,
	repository tradedesk.CandleRepository,
	handler tradedesk.CandleCloseHandler,
) *CandleMonitor {
	monitor := &CandleMonitor{
		logger:     logger,
		feed:       feed,
		filter:     filter,
		aggregator: aggregator,
		repository: repository,
		handler:    handler,
		errChan:    make(chan error, 1),
	}

	go monitor.loop(ctx)

	return monitor
}

func (cm *CandleMonitor) loop(ctx context.Context) {
	candles, err := cm.feed.Candles(ctx, cm.filter)
	if err != nil {
		cm.errChan <- fmt.Errorf("failed to get candles: [%v]", err)
		return
	}

	cm.logger.Debugf("fetched [%v] historical candles", len(candles))

	cm.repository.SaveCandles(cm.filter.Instrument, candles...)

	// The window replaces repeated same-bucket candles so the replay
	// below never double-counts a candle the feed delivered twice.
	window := cm.repository.Candles(cm.filter.Instrument)

	for _, candle := range window {
		if err := cm.processCandle(ctx, candle); err != nil {
			cm.errChan <- fmt.Errorf(
				"failed to process historical candle: [%v]",
				err,
			)
			return
		}
	}

	if lastClosePrice, err := cm.repository.LastClosePrice(
		cm.filter.Instrument,
	); err == nil {
		cm.logger.Infof(
			"warmed up with [%v] candles, last close price [%v]",
			len(window),
			lastClosePrice,
		)
	}

	tickTimeoutTimer := time.NewTimer(candleTickTimeout)
	ticker, tickerErrorChannel := cm.feed.CandlesTicker(ctx, cm.filter)

	for {
		select {
		case tick := <-ticker:
			cm.logger.Debugf("received candle tick [%v]", tick)

			cm.repository.SaveCandles(cm.filter.Instrument, tick.Candle)

			if tick.Closed {
				if err := cm.processCandle(ctx, tick.Candle); err != nil {
					cm.errChan <- fmt.Errorf(
						"failed to process closed candle: [%v]",
						err,
					)
					return
				}
			}

			if !tickTimeoutTimer.Stop() {
				<-tickTimeoutTimer.C
			}
			tickTimeoutTimer.Reset(candleTickTimeout)
		case <-tickTimeoutTimer.C:
			cm.errChan <- fmt.Errorf("tick timeout expiration")
			return
		case err := <-tickerErrorChannel:
			cm.errChan <- fmt.Errorf("ticker error: [%v]", err)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (cm *CandleMonitor) processCandle(
	ctx context.Context,
	candle *tradedesk.Candle,
) error {
	completedCandle, err := cm.aggregator.Update(cm.filter.Instrument, candle)
	if err != nil {
		if errors.Is(err, tradedesk.ErrStaleCandle) {
			cm.logger.Warningf("dropping candle: [%v]", err)
			return nil
		}

		return err
	}

	if completedCandle == nil {
		return nil
	}

	_, targetPeriod, _ := cm.aggregator.Describe()

	event := &tradedesk.CandleClosedEvent{
		Instrument: cm.filter.Instrument,
		Period:     targetPeriod,
		Candle:     completedCandle,
	}

	return cm.handler.OnCandleClose(ctx, event)
}

func (cm *CandleMonitor) ErrChan() <-chan error {
	return cm.errChan
}
