// Package techan adapts the sdcoffey/techan indicator library into a
// portfolio-driven trend-following strategy. The regime is an EMA
// crossover state and position sizes are normalised by the average
// true range.
package techan

import (
	"context"
	"fmt"
	"time"

	techanbig "github.com/sdcoffey/big"
	"github.com/sdcoffey/techan"

	"github.com/davison/tradedesk"
)

type StrategyConfig struct {
	FastEMAPeriod int
	SlowEMAPeriod int
	ATRPeriod     int
	ATRRiskMult   float64
	MinSize       float64
	MaxSize       float64
}

// Strategy trades a single instrument. It holds at most one long position
// and flattens it on a stop loss, a take profit, or a regime flip.
type Strategy struct {
	logger     tradedesk.Logger
	instrument tradedesk.Instrument
	config     *StrategyConfig

	exchangeTrader      tradedesk.ExchangeTrader
	fillRepository      tradedesk.FillRepository
	idService           tradedesk.IDService
	notificationService tradedesk.NotificationService

	series       *techan.TimeSeries
	position     *tradedesk.PositionTracker
	regimeActive bool
	riskPerTrade float64
	lastClose    float64
	lastATR      float64
	entryATR     float64
}

func NewStrategy(
	logger tradedesk.Logger,
	instrument tradedesk.Instrument,
	config *StrategyConfig,
	exchangeTrader tradedesk.ExchangeTrader,
	fillRepository tradedesk.FillRepository,
	idService tradedesk.IDService,
	notificationService tradedesk.NotificationService,
) (*Strategy, error) {
	if config.FastEMAPeriod <= 0 || config.SlowEMAPeriod <= 0 {
		return nil, fmt.Errorf("EMA periods must be > 0")
	}

	if config.FastEMAPeriod >= config.SlowEMAPeriod {
		return nil, fmt.Errorf(
			"fast EMA period [%v] must be shorter than slow EMA period [%v]",
			config.FastEMAPeriod,
			config.SlowEMAPeriod,
		)
	}

	if config.ATRPeriod <= 0 {
		return nil, fmt.Errorf("ATR period must be > 0")
	}

	if config.MinSize < 0 || config.MaxSize < config.MinSize {
		return nil, fmt.Errorf(
			"invalid size bounds: min [%v] max [%v]",
			config.MinSize,
			config.MaxSize,
		)
	}

	return &Strategy{
		logger:              logger,
		instrument:          instrument,
		config:              config,
		exchangeTrader:      exchangeTrader,
		fillRepository:      fillRepository,
		idService:           idService,
		notificationService: notificationService,
		series:              techan.NewTimeSeries(),
		position:            tradedesk.NewPositionTracker(),
	}, nil
}

func (s *Strategy) UpdateState(
	ctx context.Context,
	event *tradedesk.CandleClosedEvent,
) error {
	if event.Instrument != s.instrument {
		return fmt.Errorf(
			"unexpected instrument: expected [%v], got [%v]",
			s.instrument,
			event.Instrument,
		)
	}

	periodDuration, err := event.Period.Duration()
	if err != nil {
		return fmt.Errorf("could not resolve period duration: [%v]", err)
	}

	s.series.AddCandle(toTechanCandle(event.Candle, periodDuration))

	s.position.NextBar()
	s.position.UpdateMFE(event.Candle)

	s.lastClose = event.Candle.Close
	s.refreshIndicators()

	return nil
}

func (s *Strategy) IsRegimeActive() bool {
	return s.regimeActive
}

func (s *Strategy) SetRiskPerTrade(value float64) {
	s.riskPerTrade = value
}

func (s *Strategy) EvaluateSignals(ctx context.Context) error {
	if s.position.IsFlat() {
		return s.evaluateEntry(ctx)
	}

	return s.evaluateExit(ctx)
}

func (s *Strategy) evaluateEntry(ctx context.Context) error {
	if !s.regimeActive || s.riskPerTrade <= 0 || s.lastATR <= 0 {
		return nil
	}

	size := tradedesk.ATRNormalisedSize(
		s.riskPerTrade,
		s.lastATR,
		s.config.ATRRiskMult,
		s.config.MinSize,
		s.config.MaxSize,
	)
	if size <= 0 {
		return nil
	}

	err := s.executeOrder(ctx, tradedesk.BUY, size, s.lastClose, "entry")
	if err != nil {
		return fmt.Errorf("could not execute entry order: [%v]", err)
	}

	s.position.Open(tradedesk.LONG, size, s.lastClose)
	s.entryATR = s.lastATR

	s.logger.Infof(
		"opened [%v] position with size [%v] at price [%v]",
		tradedesk.LONG,
		size,
		s.lastClose,
	)

	s.notificationService.Publish(
		tradedesk.NewPositionOpenedNotification(
			s.instrument,
			tradedesk.LONG,
			size,
			s.lastClose,
		),
	)

	return nil
}

func (s *Strategy) evaluateExit(ctx context.Context) error {
	stopDistance := s.entryATR * s.config.ATRRiskMult

	stopLossTarget := s.position.EntryPrice() - stopDistance
	takeProfitTarget := s.position.EntryPrice() + 2*stopDistance

	var reason string
	switch {
	case s.lastClose <= stopLossTarget:
		reason = "stop_loss"
	case s.lastClose >= takeProfitTarget:
		reason = "take_profit"
	case !s.regimeActive:
		reason = "regime_exit"
	default:
		return nil
	}

	err := s.executeOrder(
		ctx,
		s.position.Direction().ExitOrderSide(),
		s.position.Size(),
		s.lastClose,
		reason,
	)
	if err != nil {
		return fmt.Errorf("could not execute exit order: [%v]", err)
	}

	s.logger.Infof(
		"closed position at price [%v] after [%v] bars, reason [%v], "+
			"MFE [%v] points",
		s.lastClose,
		s.position.BarsHeld(),
		reason,
		s.position.MFEPoints(),
	)

	s.notificationService.Publish(
		tradedesk.NewPositionClosedNotification(
			s.instrument,
			s.lastClose,
			reason,
		),
	)

	s.position.Reset()
	s.entryATR = 0

	return nil
}

func (s *Strategy) executeOrder(
	ctx context.Context,
	side tradedesk.OrderSide,
	size float64,
	price float64,
	reason string,
) error {
	order := &tradedesk.Order{
		Instrument: s.instrument,
		Side:       side,
		Size:       size,
		Price:      price,
	}

	if err := s.exchangeTrader.SubmitOrder(ctx, order); err != nil {
		return fmt.Errorf("could not submit order [%v]: [%v]", order, err)
	}

	fill := &tradedesk.Fill{
		ID:         s.idService.NewID(),
		Instrument: s.instrument,
		Side:       side,
		Size:       size,
		Price:      price,
		Time:       s.series.LastCandle().Period.Start,
		Reason:     reason,
	}

	if err := s.fillRepository.CreateFill(fill); err != nil {
		return fmt.Errorf("could not persist fill [%v]: [%v]", fill.ID, err)
	}

	return nil
}

func (s *Strategy) refreshIndicators() {
	lastIndex := s.series.LastIndex()
	warmup := s.config.SlowEMAPeriod
	if s.config.ATRPeriod > warmup {
		warmup = s.config.ATRPeriod
	}

	if lastIndex+1 < warmup {
		s.regimeActive = false
		s.lastATR = 0
		return
	}

	closePrice := techan.NewClosePriceIndicator(s.series)
	fastEMA := techan.NewEMAIndicator(closePrice, s.config.FastEMAPeriod)
	slowEMA := techan.NewEMAIndicator(closePrice, s.config.SlowEMAPeriod)
	atr := techan.NewAverageTrueRangeIndicator(s.series, s.config.ATRPeriod)

	fastValue := fastEMA.Calculate(lastIndex)
	slowValue := slowEMA.Calculate(lastIndex)

	s.regimeActive = fastValue.GT(slowValue)
	s.lastATR = atr.Calculate(lastIndex).Float()

	s.logger.Debugf(
		"indicators at index [%v]: fast EMA [%v], slow EMA [%v], ATR [%v]",
		lastIndex,
		fastValue.FormattedString(2),
		slowValue.FormattedString(2),
		s.lastATR,
	)
}

func toTechanCandle(
	candle *tradedesk.Candle,
	periodDuration time.Duration,
) *techan.Candle {
	period := techan.TimePeriod{
		Start: candle.Time,
		End:   candle.Time.Add(periodDuration),
	}

	techanCandle := techan.NewCandle(period)

	techanCandle.OpenPrice = techanbig.NewDecimal(candle.Open)
	techanCandle.ClosePrice = techanbig.NewDecimal(candle.Close)
	techanCandle.MaxPrice = techanbig.NewDecimal(candle.High)
	techanCandle.MinPrice = techanbig.NewDecimal(candle.Low)
	techanCandle.Volume = techanbig.NewDecimal(candle.Volume)
	techanCandle.TradeCount = candle.TickCount

	return techanCandle
}
