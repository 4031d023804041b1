package binance

import (
	"context"
	"fmt"

	"github.com/adshao/go-binance"

	"github.com/davison/tradedesk"
)

func (es *ExchangeService) Candles(
	ctx context.Context,
	filter *tradedesk.CandleFilter,
) ([]*tradedesk.Candle, error) {
	requestCtx, cancelRequestCtx := context.WithTimeout(ctx, requestTimeout)
	defer cancelRequestCtx()

	klineInterval, err := interval(filter.Period)
	if err != nil {
		return nil, err
	}

	klines, err := es.client.
		NewKlinesService().
		Symbol(symbol(filter.Instrument)).
		Interval(klineInterval).
		StartTime(filter.StartTime.UnixNano() / 1e6).
		EndTime(filter.EndTime.UnixNano() / 1e6).
		Limit(1000).
		Do(requestCtx)
	if err != nil {
		return nil, err
	}

	candles := make([]*tradedesk.Candle, len(klines))
	for index := range candles {
		candle, err := parseKline(klines[index])
		if err != nil {
			return nil, fmt.Errorf("could not parse kline: [%v]", err)
		}

		candles[index] = candle
	}

	return candles, nil
}

func (es *ExchangeService) CandlesTicker(
	ctx context.Context,
	filter *tradedesk.CandleFilter,
) (<-chan *tradedesk.CandleTick, <-chan error) {
	tickChannel := make(chan *tradedesk.CandleTick)
	errorChannel := make(chan error)

	klineInterval, err := interval(filter.Period)
	if err != nil {
		go func() {
			errorChannel <- err
		}()
		return tickChannel, errorChannel
	}

	go func() {
		_, stopChannel, err := binance.WsKlineServe(
			symbol(filter.Instrument),
			klineInterval,
			func(event *binance.WsKlineEvent) {
				tick, err := parseKlineEvent(event)
				if err != nil {
					errorChannel <- fmt.Errorf(
						"could not parse kline event: [%v]",
						err,
					)
					return
				}

				tickChannel <- tick
			},
			func(err error) {
				errorChannel <- err
			},
		)
		if err != nil {
			errorChannel <- err
			return
		}

		<-ctx.Done()
		close(stopChannel)
	}()

	return tickChannel, errorChannel
}

func parseKline(kline *binance.Kline) (*tradedesk.Candle, error) {
	open, err := parsePrice(kline.Open)
	if err != nil {
		return nil, err
	}

	high, err := parsePrice(kline.High)
	if err != nil {
		return nil, err
	}

	low, err := parsePrice(kline.Low)
	if err != nil {
		return nil, err
	}

	closePrice, err := parsePrice(kline.Close)
	if err != nil {
		return nil, err
	}

	volume, err := parsePrice(kline.Volume)
	if err != nil {
		return nil, err
	}

	return &tradedesk.Candle{
		Time:      parseMilliseconds(kline.OpenTime),
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    volume,
		TickCount: uint(kline.TradeNum),
	}, nil
}

func parseKlineEvent(
	event *binance.WsKlineEvent,
) (*tradedesk.CandleTick, error) {
	open, err := parsePrice(event.Kline.Open)
	if err != nil {
		return nil, err
	}

	high, err := parsePrice(event.Kline.High)
	if err != nil {
		return nil, err
	}

	low, err := parsePrice(event.Kline.Low)
	if err != nil {
		return nil, err
	}

	closePrice, err := parsePrice(event.Kline.Close)
	if err != nil {
		return nil, err
	}

	volume, err := parsePrice(event.Kline.Volume)
	if err != nil {
		return nil, err
	}

	return &tradedesk.CandleTick{
		Candle: &tradedesk.Candle{
			Time:      parseMilliseconds(event.Kline.StartTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			TickCount: uint(event.Kline.TradeNum),
		},
		TickTime: parseMilliseconds(event.Time),
		Closed:   event.Kline.IsFinal,
	}, nil
}
