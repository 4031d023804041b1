package binance

import (
	"context"
	"fmt"
	"strconv"

	"github.com/adshao/go-binance"

	"github.com/davison/tradedesk"
)

func (es *ExchangeService) SubmitOrder(
	ctx context.Context,
	order *tradedesk.Order,
) error {
	requestCtx, cancelRequestCtx := context.WithTimeout(ctx, requestTimeout)
	defer cancelRequestCtx()

	response, err := es.client.NewCreateOrderService().
		Symbol(symbol(order.Instrument)).
		Side(binance.SideType(order.Side.String())).
		Type(binance.OrderTypeMarket).
		Quantity(strconv.FormatFloat(order.Size, 'f', -1, 64)).
		Do(requestCtx)
	if err != nil {
		return err
	}

	if response.Status == binance.OrderStatusTypeRejected {
		return fmt.Errorf(
			"order for instrument [%v] has been rejected",
			order.Instrument,
		)
	}

	return nil
}
