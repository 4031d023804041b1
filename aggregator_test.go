package tradedesk

import (
	"errors"
	"testing"
)

const testInstrument Instrument = "ETHUSDT"

func TestCandleAggregator_AccumulateAndEmit(t *testing.T) {
	aggregator := newTestAggregator(t, Period5Minute, Period1Minute)

	baseCandles := []*Candle{
		{
			Time:      parseTime(t, "2021-06-11T15:00:00Z"),
			Open:      100, High: 110, Low: 95, Close: 105,
			Volume:    10,
			TickCount: 3,
		},
		{
			Time:      parseTime(t, "2021-06-11T15:01:00Z"),
			Open:      105, High: 120, Low: 104, Close: 118,
			Volume:    20,
			TickCount: 5,
		},
		{
			Time:      parseTime(t, "2021-06-11T15:02:00Z"),
			Open:      118, High: 119, Low: 90, Close: 93,
			Volume:    5,
			TickCount: 2,
		},
		{
			Time:      parseTime(t, "2021-06-11T15:03:00Z"),
			Open:      93, High: 101, Low: 92, Close: 100,
			Volume:    15,
			TickCount: 4,
		},
		{
			Time:      parseTime(t, "2021-06-11T15:04:00Z"),
			Open:      100, High: 103, Low: 99, Close: 102,
			Volume:    8,
			TickCount: 1,
		},
	}

	for _, candle := range baseCandles {
		emitted, err := aggregator.Update(testInstrument, candle)
		if err != nil {
			t.Fatal(err)
		}

		if emitted != nil {
			t.Fatalf("no candle should be emitted while accumulating")
		}
	}

	// First candle of the next bucket rolls the accumulator over.
	emitted, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:05:00Z"),
		Open: 102, High: 104, Low: 101, Close: 103,
	})
	if err != nil {
		t.Fatal(err)
	}

	if emitted == nil {
		t.Fatal("expected an emitted candle")
	}

	expected := &Candle{
		Time:      parseTime(t, "2021-06-11T15:00:00Z"),
		Open:      100,
		High:      120,
		Low:       90,
		Close:     102,
		Volume:    58,
		TickCount: 15,
	}

	assertCandleValues(t, expected, emitted)
}

func TestCandleAggregator_GapTolerance(t *testing.T) {
	aggregator := newTestAggregator(t, Period5Minute, Period1Minute)

	// Only two of the five base candles arrive.
	_, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:00:00Z"),
		Open: 100, High: 110, Low: 95, Close: 105,
		Volume: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:04:00Z"),
		Open: 105, High: 112, Low: 103, Close: 108,
		Volume: 7,
	})
	if err != nil {
		t.Fatal(err)
	}

	emitted, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:05:00Z"),
		Open: 108, High: 109, Low: 107, Close: 108,
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := &Candle{
		Time:   parseTime(t, "2021-06-11T15:00:00Z"),
		Open:   100,
		High:   112,
		Low:    95,
		Close:  108,
		Volume: 17,
	}

	assertCandleValues(t, expected, emitted)
}

func TestCandleAggregator_StaleCandleRejected(t *testing.T) {
	aggregator := newTestAggregator(t, Period5Minute, Period1Minute)

	_, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:05:00Z"),
		Open: 100, High: 110, Low: 95, Close: 105,
		Volume: 10,
	})
	if err != nil {
		t.Fatal(err)
	}

	// A candle from the already-passed bucket must be rejected.
	_, err = aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:04:00Z"),
		Open: 90, High: 91, Low: 89, Close: 90,
	})
	if !errors.Is(err, ErrStaleCandle) {
		t.Fatalf(
			"unexpected error\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			ErrStaleCandle,
			err,
		)
	}

	// The rejection must leave the accumulator untouched.
	emitted, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:10:00Z"),
		Open: 105, High: 106, Low: 104, Close: 105,
	})
	if err != nil {
		t.Fatal(err)
	}

	expected := &Candle{
		Time:   parseTime(t, "2021-06-11T15:05:00Z"),
		Open:   100,
		High:   110,
		Low:    95,
		Close:  105,
		Volume: 10,
	}

	assertCandleValues(t, expected, emitted)
}

func TestCandleAggregator_InstrumentIsolation(t *testing.T) {
	aggregator := newTestAggregator(t, Period5Minute, Period1Minute)

	otherInstrument := Instrument("BTCUSDT")

	_, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:00:00Z"),
		Open: 100, High: 110, Low: 95, Close: 105,
	})
	if err != nil {
		t.Fatal(err)
	}

	_, err = aggregator.Update(otherInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:00:00Z"),
		Open: 30000, High: 31000, Low: 29000, Close: 30500,
	})
	if err != nil {
		t.Fatal(err)
	}

	emitted, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:05:00Z"),
		Open: 105, High: 106, Low: 104, Close: 105,
	})
	if err != nil {
		t.Fatal(err)
	}

	if emitted == nil {
		t.Fatal("expected an emitted candle")
	}

	if emitted.Open != 100 {
		t.Errorf(
			"unexpected open price\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			100,
			emitted.Open,
		)
	}
}

func TestCandleAggregator_Reset(t *testing.T) {
	aggregator := newTestAggregator(t, Period5Minute, Period1Minute)

	_, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:00:00Z"),
		Open: 100, High: 110, Low: 95, Close: 105,
	})
	if err != nil {
		t.Fatal(err)
	}

	aggregator.Reset(testInstrument)

	// After the reset the next candle seeds a fresh accumulator instead
	// of rolling the discarded one over.
	emitted, err := aggregator.Update(testInstrument, &Candle{
		Time: parseTime(t, "2021-06-11T15:05:00Z"),
		Open: 105, High: 106, Low: 104, Close: 105,
	})
	if err != nil {
		t.Fatal(err)
	}

	if emitted != nil {
		t.Fatalf("no candle should be emitted after a reset")
	}
}

func TestNewCandleAggregator_AutoBasePeriod(t *testing.T) {
	aggregator, err := NewCandleAggregator(Period15Minute, "")
	if err != nil {
		t.Fatal(err)
	}

	basePeriod, targetPeriod, factor := aggregator.Describe()

	if basePeriod != Period5Minute {
		t.Errorf(
			"unexpected base period\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			Period5Minute,
			basePeriod,
		)
	}

	if targetPeriod != Period15Minute {
		t.Errorf(
			"unexpected target period\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			Period15Minute,
			targetPeriod,
		)
	}

	if factor != 3 {
		t.Errorf(
			"unexpected factor\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			3,
			factor,
		)
	}
}

func TestNewCandleAggregator_IncompatiblePeriods(t *testing.T) {
	_, err := NewCandleAggregator(Period5Minute, Period("2MINUTE"))
	if !errors.Is(err, ErrIncompatiblePeriods) {
		t.Errorf(
			"unexpected error\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			ErrIncompatiblePeriods,
			err,
		)
	}
}

func newTestAggregator(
	t *testing.T,
	targetPeriod Period,
	basePeriod Period,
) *CandleAggregator {
	aggregator, err := NewCandleAggregator(targetPeriod, basePeriod)
	if err != nil {
		t.Fatal(err)
	}

	return aggregator
}

func assertCandleValues(t *testing.T, expected, actual *Candle) {
	if actual == nil {
		t.Fatal("expected an emitted candle")
	}

	if !actual.Time.Equal(expected.Time) {
		t.Errorf(
			"unexpected candle time\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			expected.Time,
			actual.Time,
		)
	}

	if actual.Open != expected.Open ||
		actual.High != expected.High ||
		actual.Low != expected.Low ||
		actual.Close != expected.Close {
		t.Errorf(
			"unexpected candle prices\n"+
				"expected: [%v/%v/%v/%v]\n"+
				"actual:   [%v/%v/%v/%v]",
			expected.Open, expected.High, expected.Low, expected.Close,
			actual.Open, actual.High, actual.Low, actual.Close,
		)
	}

	if actual.Volume != expected.Volume {
		t.Errorf(
			"unexpected candle volume\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			expected.Volume,
			actual.Volume,
		)
	}

	if actual.TickCount != expected.TickCount {
		t.Errorf(
			"unexpected candle tick count\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			expected.TickCount,
			actual.TickCount,
		)
	}
}
