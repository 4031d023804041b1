package binance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/adshao/go-binance"

	"github.com/davison/tradedesk"
)

const requestTimeout = 1 * time.Minute

type ExchangeService struct {
	client *binance.Client
}

func NewExchangeService(apiKey, secretKey string) *ExchangeService {
	return &ExchangeService{
		client: binance.NewClient(apiKey, secretKey),
	}
}

func (es *ExchangeService) ExchangeName() string {
	return "binance"
}

func parseMilliseconds(milliseconds int64) time.Time {
	return time.Unix(0, milliseconds*int64(time.Millisecond))
}

func parsePrice(value string) (float64, error) {
	price, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse value [%v]: [%v]", value, err)
	}

	return price, nil
}

// interval converts a candle period to the kline interval notation
// used by the exchange API, e.g. 5MINUTE becomes 5m.
func interval(period tradedesk.Period) (string, error) {
	duration, err := period.Duration()
	if err != nil {
		return "", err
	}

	switch {
	case duration < time.Minute:
		return strconv.Itoa(int(duration.Seconds())) + "s", nil
	case duration < time.Hour:
		return strconv.Itoa(int(duration.Minutes())) + "m", nil
	default:
		return strconv.Itoa(int(duration.Hours())) + "h", nil
	}
}

func symbol(instrument tradedesk.Instrument) string {
	return strings.ToUpper(instrument.String())
}
