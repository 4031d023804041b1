package tradedesk

import "fmt"

type Direction int

const (
	LONG Direction = iota
	SHORT
)

func ParseDirection(value string) (Direction, error) {
	switch value {
	case "LONG":
		return LONG, nil
	case "SHORT":
		return SHORT, nil
	}

	return -1, fmt.Errorf("unknown direction: [%v]", value)
}

func (d Direction) EntryOrderSide() OrderSide {
	switch d {
	case LONG:
		return BUY
	case SHORT:
		return SELL
	default:
		panic("unknown direction")
	}
}

func (d Direction) ExitOrderSide() OrderSide {
	switch d {
	case LONG:
		return SELL
	case SHORT:
		return BUY
	default:
		panic("unknown direction")
	}
}

func (d Direction) String() string {
	switch d {
	case LONG:
		return "LONG"
	case SHORT:
		return "SHORT"
	default:
		panic("unknown direction")
	}
}

// PositionTracker keeps the state of a single instrument's open position
// inside a strategy: entry terms, bars held, and the maximum favorable
// excursion observed since the entry.
type PositionTracker struct {
	open       bool
	direction  Direction
	size       float64
	entryPrice float64
	barsHeld   int
	mfePoints  float64
}

func NewPositionTracker() *PositionTracker {
	return &PositionTracker{}
}

func (pt *PositionTracker) IsFlat() bool {
	return !pt.open
}

func (pt *PositionTracker) Open(
	direction Direction,
	size float64,
	entryPrice float64,
) {
	pt.open = true
	pt.direction = direction
	pt.size = size
	pt.entryPrice = entryPrice
	pt.barsHeld = 0
	pt.mfePoints = 0
}

// Reset flattens all position state.
func (pt *PositionTracker) Reset() {
	pt.open = false
	pt.direction = LONG
	pt.size = 0
	pt.entryPrice = 0
	pt.barsHeld = 0
	pt.mfePoints = 0
}

func (pt *PositionTracker) Direction() Direction {
	return pt.direction
}

func (pt *PositionTracker) Size() float64 {
	return pt.size
}

func (pt *PositionTracker) EntryPrice() float64 {
	return pt.entryPrice
}

func (pt *PositionTracker) BarsHeld() int {
	return pt.barsHeld
}

func (pt *PositionTracker) MFEPoints() float64 {
	return pt.mfePoints
}

// NextBar counts one more bar held for an open position.
func (pt *PositionTracker) NextBar() {
	if !pt.open {
		return
	}

	pt.barsHeld++
}

// UpdateMFE refreshes the maximum favorable excursion using the candle
// extremes.
func (pt *PositionTracker) UpdateMFE(candle *Candle) {
	if !pt.open {
		return
	}

	var favorable float64
	if pt.direction == LONG {
		favorable = candle.High - pt.entryPrice
	} else {
		favorable = pt.entryPrice - candle.Low
	}

	if favorable > pt.mfePoints {
		pt.mfePoints = favorable
	}
}

// CurrentPnLPoints returns the open position's profit in points at the
// given close price, zero when flat.
func (pt *PositionTracker) CurrentPnLPoints(closePrice float64) float64 {
	if !pt.open {
		return 0
	}

	if pt.direction == LONG {
		return closePrice - pt.entryPrice
	}

	return pt.entryPrice - closePrice
}
