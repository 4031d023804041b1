package tradedesk

import (
	"fmt"
	"time"
)

// Instrument is an opaque identifier of a tradable instrument, for example
// an exchange symbol like ETHUSDT. It is used as the map key throughout.
type Instrument string

func (i Instrument) String() string {
	return string(i)
}

// Candle is an immutable OHLCV value. Time is the start of the bucket the
// candle covers.
type Candle struct {
	Time      time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	TickCount uint
}

func (c *Candle) Equal(other *Candle) bool {
	return c.Time.Equal(other.Time)
}

func (c *Candle) String() string {
	return fmt.Sprintf(
		"time: %v, close: %v",
		c.Time.Format(time.RFC3339),
		c.Close,
	)
}

// CandleTick is a streaming candle update. Closed marks the final update
// for the candle's bucket.
type CandleTick struct {
	*Candle
	TickTime time.Time
	Closed   bool
}

func (ct *CandleTick) String() string {
	return ct.Candle.String()
}

type CandleFilter struct {
	Instrument Instrument
	Period     Period
	StartTime  time.Time
	EndTime    time.Time
}

type CandleRepository interface {
	SaveCandles(instrument Instrument, candles ...*Candle)

	Candles(instrument Instrument) []*Candle

	DeleteCandles(instrument Instrument)

	LastClosePrice(instrument Instrument) (float64, error)
}
