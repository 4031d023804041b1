package tradedesk

import "fmt"

// CandleClosedEvent carries a completed candle for an instrument. Produced
// by the candle aggregator output or directly by a base-period feed, and
// consumed exactly once by the portfolio.
type CandleClosedEvent struct {
	Instrument Instrument
	Period     Period
	Candle     *Candle
}

func (e *CandleClosedEvent) String() string {
	return fmt.Sprintf(
		"instrument: %v, period: %v, candle: [%v]",
		e.Instrument,
		e.Period,
		e.Candle,
	)
}

type Notification struct {
	Instrument Instrument
	Payload    string
}

func NewPositionOpenedNotification(
	instrument Instrument,
	direction Direction,
	size float64,
	entryPrice float64,
) *Notification {
	return &Notification{
		Instrument: instrument,
		Payload: fmt.Sprintf(
			"New position has been opened:\n"+
				"- Instrument: %v\n"+
				"- Direction: %v\n"+
				"- Size: %.2f\n"+
				"- Entry price: %.5f",
			instrument,
			direction,
			size,
			entryPrice,
		),
	}
}

func NewPositionClosedNotification(
	instrument Instrument,
	exitPrice float64,
	reason string,
) *Notification {
	return &Notification{
		Instrument: instrument,
		Payload: fmt.Sprintf(
			"Position has been closed:\n"+
				"- Instrument: %v\n"+
				"- Exit price: %.5f\n"+
				"- Reason: %v",
			instrument,
			exitPrice,
			reason,
		),
	}
}

type NotificationService interface {
	Publish(notification *Notification)
}
