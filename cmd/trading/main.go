package main

import (
	"context"
	"fmt"
	"os"

	"github.com/davison/tradedesk"
	"github.com/davison/tradedesk/binance"
	"github.com/davison/tradedesk/daemon"
	"github.com/davison/tradedesk/inmem"
	"github.com/davison/tradedesk/logrus"
	"github.com/davison/tradedesk/postgres"
	"github.com/davison/tradedesk/pubsub"
	"github.com/davison/tradedesk/techan"
	"github.com/davison/tradedesk/uuid"
)

func main() {
	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	config, err := readConfig()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "could not read config: [%v]", err)
		os.Exit(1)
	}

	logger := logrus.ConfigureStandardLogger(
		config.Logging.Format,
		config.Logging.Level,
	)

	postgresClient, err := connectPostgres(logger, &config.Database)
	if err != nil {
		logger.Fatalf("could not connect postgres: [%v]", err)
	}

	idService := &uuid.IDService{}

	fillRepository := postgres.NewFillRepository(postgresClient, idService)
	equityRepository := postgres.NewEquityRepository(postgresClient)

	reportPerformance(
		logger,
		fillRepository,
		equityRepository,
		config.Portfolio.StartingEquity,
	)

	notificationService := createNotificationService(ctx, logger, config)

	exchangeService := binance.NewExchangeService(
		config.Binance.ApiKey,
		config.Binance.SecretKey,
	)

	aggregator, err := tradedesk.NewCandleAggregator(
		tradedesk.Period(config.Portfolio.TargetPeriod),
		tradedesk.Period(config.Portfolio.BasePeriod),
	)
	if err != nil {
		logger.Fatalf("could not create candle aggregator: [%v]", err)
	}

	strategies := make(map[tradedesk.Instrument]tradedesk.Strategy)
	for _, instrument := range config.Binance.Instruments {
		strategy, err := techan.NewStrategy(
			logger.WithField("instrument", instrument),
			tradedesk.Instrument(instrument),
			&techan.StrategyConfig{
				FastEMAPeriod: config.Strategy.FastEMAPeriod,
				SlowEMAPeriod: config.Strategy.SlowEMAPeriod,
				ATRPeriod:     config.Strategy.ATRPeriod,
				ATRRiskMult:   config.Strategy.ATRRiskMult,
				MinSize:       config.Strategy.MinSize,
				MaxSize:       config.Strategy.MaxSize,
			},
			exchangeService,
			fillRepository,
			idService,
			notificationService,
		)
		if err != nil {
			logger.Fatalf(
				"could not create strategy for instrument [%v]: [%v]",
				instrument,
				err,
			)
		}

		strategies[tradedesk.Instrument(instrument)] = strategy
	}

	riskPolicy, err := createRiskPolicy(&config.Portfolio)
	if err != nil {
		logger.Fatalf("could not create risk policy: [%v]", err)
	}

	portfolio, err := tradedesk.NewPortfolio(
		logger,
		strategies,
		riskPolicy,
		config.Portfolio.DefaultRiskPerTrade,
	)
	if err != nil {
		logger.Fatalf("could not create portfolio: [%v]", err)
	}

	monitorController := daemon.RunMonitorController(
		logger,
		exchangeService,
		aggregator,
		portfolio,
		func(windowSize int) tradedesk.CandleRepository {
			return inmem.NewCandleRepository(windowSize)
		},
	)

	for _, instrument := range config.Binance.Instruments {
		monitorController.ActivateMonitor(
			ctx,
			tradedesk.Instrument(instrument),
		)
	}

	<-ctx.Done()
}

func connectPostgres(
	logger tradedesk.Logger,
	config *Database,
) (*postgres.Client, error) {
	if err := postgres.RunMigration(
		logger,
		(*postgres.Config)(config),
	); err != nil {
		return nil, fmt.Errorf(
			"could not run postgres migration: [%v]",
			err,
		)
	}

	client, err := postgres.NewClient((*postgres.Config)(config))
	if err != nil {
		return nil, fmt.Errorf(
			"could not create postgres client: [%v]",
			err,
		)
	}

	return client, nil
}

func createNotificationService(
	ctx context.Context,
	logger tradedesk.Logger,
	config *Config,
) tradedesk.NotificationService {
	if len(config.PubSub.ProjectID) == 0 {
		logger.Warningf(
			"pubsub project is not set; notifications will be logged only",
		)
		return &loggingNotificationService{logger}
	}

	notificationService, err := pubsub.NewNotificationService(
		ctx,
		logger,
		config.PubSub.ProjectID,
		config.PubSub.NotificationsTopic,
	)
	if err != nil {
		logger.Fatalf("could not create pubsub notification service: [%v]", err)
	}

	return notificationService
}

func createRiskPolicy(
	config *Portfolio,
) (tradedesk.RiskAllocationPolicy, error) {
	switch config.RiskPolicy {
	case "equal-split":
		return &tradedesk.EqualSplitRiskPolicy{
			PortfolioRiskBudget: config.RiskBudget,
		}, nil
	case "fixed":
		weights := make(map[tradedesk.Instrument]float64)
		for instrument, weight := range config.Allocations {
			weights[tradedesk.Instrument(instrument)] = weight
		}

		return tradedesk.NewFixedAllocationRiskPolicy(
			config.RiskBudget,
			weights,
		)
	}

	return nil, fmt.Errorf("unknown risk policy: [%v]", config.RiskPolicy)
}

// reportPerformance reconstructs round trips from the fill journal, tops
// up the equity ledger with snapshots not yet persisted, and logs the
// aggregate statistics.
func reportPerformance(
	logger tradedesk.Logger,
	fillRepository tradedesk.FillRepository,
	equityRepository tradedesk.EquityRepository,
	startingEquity float64,
) {
	fills, err := fillRepository.Fills()
	if err != nil {
		logger.Errorf("could not read fill journal: [%v]", err)
		return
	}

	if len(fills) == 0 {
		logger.Infof("fill journal is empty; no performance to report")
		return
	}

	roundTrips, err := tradedesk.RoundTripsFromFills(fills)
	if err != nil {
		logger.Errorf("could not reconstruct round trips: [%v]", err)
		return
	}

	snapshots := tradedesk.EquitySnapshotsFromRoundTrips(
		roundTrips,
		startingEquity,
	)

	persistedSnapshots, err := equityRepository.EquitySnapshots()
	if err != nil {
		logger.Errorf("could not read equity ledger: [%v]", err)
		return
	}

	if len(persistedSnapshots) > len(snapshots) {
		logger.Warningf(
			"equity ledger holds [%v] snapshots but only [%v] can be "+
				"derived from the fill journal; skipping ledger top-up",
			len(persistedSnapshots),
			len(snapshots),
		)
	} else {
		for _, snapshot := range snapshots[len(persistedSnapshots):] {
			err := equityRepository.CreateEquitySnapshot(snapshot)
			if err != nil {
				logger.Errorf(
					"could not persist equity snapshot: [%v]",
					err,
				)
				return
			}
		}
	}

	metrics, err := tradedesk.ComputeMetrics(fills, snapshots)
	if err != nil {
		logger.Errorf("could not compute metrics: [%v]", err)
		return
	}

	logger.Infof(
		"performance: [%v] round trips, win rate [%.2f], "+
			"profit factor [%.2f], expectancy [%.2f], "+
			"max drawdown [%.2f], final equity [%.2f]",
		metrics.RoundTrips,
		metrics.WinRate,
		metrics.ProfitFactor,
		metrics.Expectancy,
		metrics.MaxDrawdown,
		metrics.FinalEquity,
	)
}

type loggingNotificationService struct {
	logger tradedesk.Logger
}

func (lns *loggingNotificationService) Publish(
	notification *tradedesk.Notification,
) {
	lns.logger.Infof(
		"notification for instrument [%v]: %v",
		notification.Instrument,
		notification.Payload,
	)
}
