package daemon

import (
	"context"
	"sync"
	"time"

	"github.com/davison/tradedesk"
)

const monitorRestartBackoff = 10 * time.Second

// historyCandleCount is the number of base-period candles fetched on
// monitor start. It matches the feed's page limit.
const historyCandleCount = 1000

type CandleRepositoryFactoryFn func(windowSize int) tradedesk.CandleRepository

// MonitorController supervises one candle monitor per instrument. A failed
// monitor is restarted after a backoff; the instrument's aggregator
// accumulator is reset first so a partially filled bucket from the broken
// stream never leaks into the restarted one.
type MonitorController struct {
	logger                  tradedesk.Logger
	feed                    tradedesk.ExchangeFeed
	aggregator              *tradedesk.CandleAggregator
	handler                 tradedesk.CandleCloseHandler
	candleRepositoryFactory CandleRepositoryFactoryFn

	monitorsMutex sync.Mutex
	monitors      map[tradedesk.Instrument]bool
}

func RunMonitorController(
	logger tradedesk.Logger,
	feed tradedesk.ExchangeFeed,
	aggregator *tradedesk.CandleAggregator,
	handler tradedesk.CandleCloseHandler,
	candleRepositoryFactory CandleRepositoryFactoryFn,
) *MonitorController {
	return &MonitorController{
		logger:                  logger,
		feed:                    feed,
		aggregator:              aggregator,
		handler:                 handler,
		candleRepositoryFactory: candleRepositoryFactory,
		monitors:                make(map[tradedesk.Instrument]bool),
	}
}

func (mc *MonitorController) ActivateMonitor(
	ctx context.Context,
	instrument tradedesk.Instrument,
) {
	mc.monitorsMutex.Lock()
	defer mc.monitorsMutex.Unlock()

	basePeriod, targetPeriod, _ := mc.aggregator.Describe()

	monitorLogger := mc.logger.WithFields(
		map[string]interface{}{
			"exchange":     mc.feed.ExchangeName(),
			"instrument":   instrument.String(),
			"basePeriod":   string(basePeriod),
			"targetPeriod": string(targetPeriod),
		},
	)

	if _, exists := mc.monitors[instrument]; exists {
		monitorLogger.Warningf("monitor is already active")
		return
	}

	monitorLogger.Infof("activating monitor")

	mc.monitors[instrument] = true

	monitorLogger.Infof(
		"creating candle repository with size [%v]",
		historyCandleCount,
	)

	candleRepository := mc.candleRepositoryFactory(historyCandleCount)

	go func() {
		defer func() {
			mc.monitorsMutex.Lock()
			defer mc.monitorsMutex.Unlock()

			monitorLogger.Infof("deactivating monitor")

			delete(mc.monitors, instrument)
		}()

		for {
			if ctx.Err() != nil {
				return
			}

			mc.runMonitor(ctx, monitorLogger, instrument, candleRepository)

			time.Sleep(monitorRestartBackoff)
		}
	}()
}

func (mc *MonitorController) ActiveMonitors() int {
	mc.monitorsMutex.Lock()
	defer mc.monitorsMutex.Unlock()

	return len(mc.monitors)
}

func (mc *MonitorController) runMonitor(
	ctx context.Context,
	monitorLogger tradedesk.Logger,
	instrument tradedesk.Instrument,
	candleRepository tradedesk.CandleRepository,
) {
	monitorLogger.Infof("running monitor")
	defer monitorLogger.Infof("terminating monitor")

	monitorCtx, cancelMonitorCtx := context.WithCancel(ctx)
	defer cancelMonitorCtx()

	basePeriod, _, _ := mc.aggregator.Describe()

	baseDuration, err := basePeriod.Duration()
	if err != nil {
		monitorLogger.Errorf("could not resolve base period: [%v]", err)
		return
	}

	// A partially filled bucket or a stale window from a previous run
	// must not merge with candles from the fresh stream.
	mc.aggregator.Reset(instrument)
	candleRepository.DeleteCandles(instrument)

	now := time.Now()

	filter := &tradedesk.CandleFilter{
		Instrument: instrument,
		Period:     basePeriod,
		StartTime:  now.Add(-time.Duration(historyCandleCount) * baseDuration),
		EndTime:    now,
	}

	monitorLogger.Infof("running candle monitor")

	candleMonitor := RunCandleMonitor(
		monitorCtx,
		monitorLogger,
		mc.feed,
		filter,
		mc.aggregator,
		candleRepository,
		mc.handler,
	)

	select {
	case err := <-candleMonitor.ErrChan():
		monitorLogger.Errorf("candle monitor error: [%v]", err)
	case <-monitorCtx.Done():
		monitorLogger.Infof("monitor context is done")
	}
}
