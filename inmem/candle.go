package inmem

import (
	"fmt"
	"sync"

	"github.com/davison/tradedesk"
)

// CandleRepository keeps a bounded per-instrument window of candles in
// memory. The most recent candle is overwritten in place when a candle
// with the same bucket time arrives again.
type CandleRepository struct {
	candlesMutex sync.RWMutex
	candles      map[tradedesk.Instrument][]*tradedesk.Candle

	windowSize int
}

func NewCandleRepository(windowSize int) *CandleRepository {
	return &CandleRepository{
		candles:    make(map[tradedesk.Instrument][]*tradedesk.Candle),
		windowSize: windowSize,
	}
}

func (cr *CandleRepository) SaveCandles(
	instrument tradedesk.Instrument,
	candles ...*tradedesk.Candle,
) {
	cr.candlesMutex.Lock()
	defer cr.candlesMutex.Unlock()

	window := cr.candles[instrument]

	for _, candle := range candles {
		var lastCandle *tradedesk.Candle
		if len(window) > 0 {
			lastCandle = window[len(window)-1]
		}

		if lastCandle != nil && lastCandle.Equal(candle) {
			window[len(window)-1] = candle
		} else {
			window = append(window, candle)

			// remove oldest candle if the window size has been exceeded
			if len(window) > cr.windowSize {
				copy(window, window[1:])
				window[len(window)-1] = nil
				window = window[:len(window)-1]
			}
		}
	}

	cr.candles[instrument] = window
}

func (cr *CandleRepository) Candles(
	instrument tradedesk.Instrument,
) []*tradedesk.Candle {
	cr.candlesMutex.RLock()
	defer cr.candlesMutex.RUnlock()

	window := cr.candles[instrument]

	snapshot := make([]*tradedesk.Candle, len(window))
	copy(snapshot, window)

	return snapshot
}

func (cr *CandleRepository) DeleteCandles(instrument tradedesk.Instrument) {
	cr.candlesMutex.Lock()
	defer cr.candlesMutex.Unlock()

	delete(cr.candles, instrument)
}

func (cr *CandleRepository) LastClosePrice(
	instrument tradedesk.Instrument,
) (float64, error) {
	cr.candlesMutex.RLock()
	defer cr.candlesMutex.RUnlock()

	window := cr.candles[instrument]
	if len(window) == 0 {
		return 0, fmt.Errorf(
			"no candles for instrument [%v]",
			instrument,
		)
	}

	return window[len(window)-1].Close, nil
}
