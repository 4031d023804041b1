package tradedesk

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrStaleCandle is returned by CandleAggregator.Update when a candle maps
// to an older bucket than the one currently being accumulated. The
// offending candle is rejected and the accumulator is left unchanged.
var ErrStaleCandle = errors.New("stale candle")

type bucketAccumulator struct {
	bucketStart time.Time

	open  float64
	high  float64
	low   float64
	close float64

	volumeSum    float64
	tickCountSum uint
	count        int
}

func newBucketAccumulator(
	bucketStart time.Time,
	candle *Candle,
) *bucketAccumulator {
	return &bucketAccumulator{
		bucketStart:  bucketStart,
		open:         candle.Open,
		high:         candle.High,
		low:          candle.Low,
		close:        candle.Close,
		volumeSum:    candle.Volume,
		tickCountSum: candle.TickCount,
		count:        1,
	}
}

func (ba *bucketAccumulator) merge(candle *Candle) {
	if candle.High > ba.high {
		ba.high = candle.High
	}
	if candle.Low < ba.low {
		ba.low = candle.Low
	}

	ba.close = candle.Close
	ba.volumeSum += candle.Volume
	ba.tickCountSum += candle.TickCount
	ba.count++
}

func (ba *bucketAccumulator) finalize() *Candle {
	return &Candle{
		Time:      ba.bucketStart,
		Open:      ba.open,
		High:      ba.high,
		Low:       ba.low,
		Close:     ba.close,
		Volume:    ba.volumeSum,
		TickCount: ba.tickCountSum,
	}
}

// CandleAggregator re-buckets base-period candles into a coarser target
// period using wall-clock bucketing. Buckets are aligned to target period
// boundaries on the UTC epoch grid. One aggregator manages all instruments;
// each instrument's accumulator is owned exclusively by the aggregator.
//
// Missing base candles are tolerated: an emitted candle reflects only the
// base candles actually observed in its bucket.
type CandleAggregator struct {
	basePeriod   Period
	targetPeriod Period
	factor       int

	bucketsMutex sync.Mutex
	buckets      map[Instrument]*bucketAccumulator
}

// NewCandleAggregator creates an aggregator for the given target period.
// An empty base period is auto-selected from the supported set (the
// default broker chart scales when none are given). Construction fails
// when the base period does not evenly divide the target period.
func NewCandleAggregator(
	targetPeriod Period,
	basePeriod Period,
	supportedPeriods ...Period,
) (*CandleAggregator, error) {
	if len(supportedPeriods) == 0 {
		supportedPeriods = DefaultSupportedPeriods
	}

	if len(basePeriod) == 0 {
		chosenPeriod, err := ChooseBasePeriod(targetPeriod, supportedPeriods)
		if err != nil {
			return nil, err
		}

		basePeriod = chosenPeriod
	}

	factor, err := PeriodFactor(basePeriod, targetPeriod)
	if err != nil {
		return nil, err
	}

	return &CandleAggregator{
		basePeriod:   basePeriod,
		targetPeriod: targetPeriod,
		factor:       factor,
		buckets:      make(map[Instrument]*bucketAccumulator),
	}, nil
}

// Update feeds one base-period candle for an instrument. It returns the
// completed target-period candle when the incoming candle starts a newer
// bucket, and nil while the current bucket is still accumulating.
func (ca *CandleAggregator) Update(
	instrument Instrument,
	candle *Candle,
) (*Candle, error) {
	bucketStart, err := BucketStart(candle.Time, ca.targetPeriod)
	if err != nil {
		return nil, err
	}

	ca.bucketsMutex.Lock()
	defer ca.bucketsMutex.Unlock()

	accumulator, exists := ca.buckets[instrument]
	if !exists {
		ca.buckets[instrument] = newBucketAccumulator(bucketStart, candle)
		return nil, nil
	}

	if bucketStart.Equal(accumulator.bucketStart) {
		accumulator.merge(candle)
		return nil, nil
	}

	if bucketStart.Before(accumulator.bucketStart) {
		return nil, fmt.Errorf(
			"%w: candle for instrument [%v] maps to bucket [%v] "+
				"older than current bucket [%v]",
			ErrStaleCandle,
			instrument,
			bucketStart.Format(time.RFC3339),
			accumulator.bucketStart.Format(time.RFC3339),
		)
	}

	completedCandle := accumulator.finalize()
	ca.buckets[instrument] = newBucketAccumulator(bucketStart, candle)

	return completedCandle, nil
}

// Reset discards the accumulator for an instrument. It is a no-op when no
// accumulator exists. Meant for reconnect and recovery paths.
func (ca *CandleAggregator) Reset(instrument Instrument) {
	ca.bucketsMutex.Lock()
	defer ca.bucketsMutex.Unlock()

	delete(ca.buckets, instrument)
}

// Describe reports the aggregator configuration.
func (ca *CandleAggregator) Describe() (Period, Period, int) {
	return ca.basePeriod, ca.targetPeriod, ca.factor
}
