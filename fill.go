package tradedesk

import (
	"fmt"
	"time"
)

type OrderSide int

const (
	BUY OrderSide = iota
	SELL
)

func ParseOrderSide(value string) (OrderSide, error) {
	switch value {
	case "BUY":
		return BUY, nil
	case "SELL":
		return SELL, nil
	}

	return -1, fmt.Errorf("unknown order side: [%v]", value)
}

func (os OrderSide) String() string {
	switch os {
	case BUY:
		return "BUY"
	case SELL:
		return "SELL"
	default:
		panic("unknown order side")
	}
}

// Order is a request to trade, as handed to an exchange trader.
type Order struct {
	Instrument Instrument
	Side       OrderSide
	Size       float64
	Price      float64
}

func (o *Order) String() string {
	return fmt.Sprintf(
		"instrument: %v, side: %v, size: %v, price: %v",
		o.Instrument,
		o.Side,
		o.Size,
		o.Price,
	)
}

// Fill records an executed trade. An ordered fill sequence is the input of
// the round-trip reconstruction in metrics.
type Fill struct {
	ID         ID
	Instrument Instrument
	Side       OrderSide
	Size       float64
	Price      float64
	Time       time.Time
	Reason     string
}

type FillRepository interface {
	CreateFill(fill *Fill) error

	Fills() ([]*Fill, error)
}

// EquitySnapshot records portfolio equity at an instant.
type EquitySnapshot struct {
	Time   time.Time
	Equity float64
}

type EquityRepository interface {
	CreateEquitySnapshot(snapshot *EquitySnapshot) error

	EquitySnapshots() ([]*EquitySnapshot, error)
}
