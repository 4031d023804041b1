package tradedesk

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestNewPortfolio_Validation(t *testing.T) {
	policy := &EqualSplitRiskPolicy{PortfolioRiskBudget: 100}

	_, err := NewPortfolio(
		&noopLogger{},
		map[Instrument]Strategy{},
		policy,
		0,
	)
	if err == nil {
		t.Errorf("expected an error for empty strategy registry")
	}

	_, err = NewPortfolio(
		&noopLogger{},
		map[Instrument]Strategy{"ETHUSDT": newFakeStrategy()},
		nil,
		0,
	)
	if err == nil {
		t.Errorf("expected an error for missing policy")
	}

	_, err = NewPortfolio(
		&noopLogger{},
		map[Instrument]Strategy{"ETHUSDT": nil},
		policy,
		0,
	)
	if err == nil {
		t.Errorf("expected an error for nil strategy")
	}
}

func TestPortfolio_OnCandleClose_PhaseOrder(t *testing.T) {
	eventStrategy := newFakeStrategy()
	otherStrategy := newFakeStrategy()

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{
			"ETHUSDT": eventStrategy,
			"BTCUSDT": otherStrategy,
		},
		&EqualSplitRiskPolicy{PortfolioRiskBudget: 100},
		0,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "ETHUSDT"),
	)
	if err != nil {
		t.Fatal(err)
	}

	expectedCalls := []string{"update", "set-risk", "evaluate"}
	assertCalls(t, expectedCalls, eventStrategy.calls)

	// Strategies of other instruments only take part in the risk
	// repartition.
	assertCalls(t, []string{"set-risk"}, otherStrategy.calls)
}

func TestPortfolio_OnCandleClose_SameCycleAllocation(t *testing.T) {
	// ETHUSDT regime is already active; BTCUSDT activates during this
	// cycle's state update.
	activeStrategy := newFakeStrategy()
	activeStrategy.regimeActive = true

	activatingStrategy := newFakeStrategy()
	activatingStrategy.activateOnUpdate = true

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{
			"ETHUSDT": activeStrategy,
			"BTCUSDT": activatingStrategy,
		},
		&EqualSplitRiskPolicy{PortfolioRiskBudget: 100},
		0,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "BTCUSDT"),
	)
	if err != nil {
		t.Fatal(err)
	}

	// The budget flips from a single 100 share to a 50/50 split within
	// the same cycle, and the evaluation observes the fresh value.
	if activeStrategy.riskPerTrade != 50 {
		t.Errorf(
			"unexpected risk per trade\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			50,
			activeStrategy.riskPerTrade,
		)
	}

	if activatingStrategy.riskAtEvaluation != 50 {
		t.Errorf(
			"unexpected risk per trade at evaluation\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			50,
			activatingStrategy.riskAtEvaluation,
		)
	}
}

func TestPortfolio_OnCandleClose_DefaultRiskWhenNotAllocated(t *testing.T) {
	inactiveStrategy := newFakeStrategy()

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{"ETHUSDT": inactiveStrategy},
		&EqualSplitRiskPolicy{PortfolioRiskBudget: 100},
		7,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "ETHUSDT"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if inactiveStrategy.riskPerTrade != 7 {
		t.Errorf(
			"unexpected risk per trade\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			7,
			inactiveStrategy.riskPerTrade,
		)
	}
}

func TestPortfolio_OnCandleClose_UnregisteredInstrument(t *testing.T) {
	strategy := newFakeStrategy()

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{"ETHUSDT": strategy},
		&EqualSplitRiskPolicy{PortfolioRiskBudget: 100},
		0,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "DOGEUSDT"),
	)
	if err != nil {
		t.Fatal(err)
	}

	// The registered strategy is not updated or evaluated but still
	// takes part in the risk repartition.
	assertCalls(t, []string{"set-risk"}, strategy.calls)
}

func TestPortfolio_OnCandleClose_UpdateStateError(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.updateErr = fmt.Errorf("indicator failure")

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{"ETHUSDT": strategy},
		&EqualSplitRiskPolicy{PortfolioRiskBudget: 100},
		0,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "ETHUSDT"),
	)
	if err == nil {
		t.Fatal("expected an error")
	}

	// A failed state update aborts the cycle before the risk phase.
	assertCalls(t, []string{"update"}, strategy.calls)
}

func TestPortfolio_OnCandleClose_PolicyError(t *testing.T) {
	strategy := newFakeStrategy()

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{"ETHUSDT": strategy},
		&failingRiskPolicy{},
		0,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "ETHUSDT"),
	)
	if !errors.Is(err, errPolicyFailure) {
		t.Fatalf(
			"unexpected error\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			errPolicyFailure,
			err,
		)
	}

	assertCalls(t, []string{"update"}, strategy.calls)
}

func TestPortfolio_OnCandleClose_EvaluateSignalsError(t *testing.T) {
	strategy := newFakeStrategy()
	strategy.evaluateErr = fmt.Errorf("order failure")

	portfolio := newTestPortfolio(
		t,
		map[Instrument]Strategy{"ETHUSDT": strategy},
		&EqualSplitRiskPolicy{PortfolioRiskBudget: 100},
		0,
	)

	err := portfolio.OnCandleClose(
		context.Background(),
		newTestEvent(t, "ETHUSDT"),
	)
	if err == nil {
		t.Fatal("expected an error")
	}

	assertCalls(t, []string{"update", "set-risk", "evaluate"}, strategy.calls)
}

type fakeStrategy struct {
	calls []string

	regimeActive     bool
	activateOnUpdate bool
	riskPerTrade     float64
	riskAtEvaluation float64

	updateErr   error
	evaluateErr error
}

func newFakeStrategy() *fakeStrategy {
	return &fakeStrategy{}
}

func (fs *fakeStrategy) UpdateState(
	_ context.Context,
	_ *CandleClosedEvent,
) error {
	fs.calls = append(fs.calls, "update")

	if fs.activateOnUpdate {
		fs.regimeActive = true
	}

	return fs.updateErr
}

func (fs *fakeStrategy) IsRegimeActive() bool {
	return fs.regimeActive
}

func (fs *fakeStrategy) SetRiskPerTrade(value float64) {
	fs.calls = append(fs.calls, "set-risk")
	fs.riskPerTrade = value
}

func (fs *fakeStrategy) EvaluateSignals(_ context.Context) error {
	fs.calls = append(fs.calls, "evaluate")
	fs.riskAtEvaluation = fs.riskPerTrade

	return fs.evaluateErr
}

var errPolicyFailure = errors.New("policy failure")

type failingRiskPolicy struct{}

func (frp *failingRiskPolicy) Allocate(
	_ []Instrument,
) (map[Instrument]float64, error) {
	return nil, errPolicyFailure
}

type noopLogger struct{}

func (nl *noopLogger) Debugf(format string, args ...interface{})   {}
func (nl *noopLogger) Infof(format string, args ...interface{})    {}
func (nl *noopLogger) Warningf(format string, args ...interface{}) {}
func (nl *noopLogger) Errorf(format string, args ...interface{})   {}
func (nl *noopLogger) Fatalf(format string, args ...interface{})   {}

func (nl *noopLogger) WithField(_ string, _ interface{}) Logger {
	return nl
}

func (nl *noopLogger) WithFields(_ map[string]interface{}) Logger {
	return nl
}

func newTestPortfolio(
	t *testing.T,
	strategies map[Instrument]Strategy,
	policy RiskAllocationPolicy,
	defaultRiskPerTrade float64,
) *Portfolio {
	portfolio, err := NewPortfolio(
		&noopLogger{},
		strategies,
		policy,
		defaultRiskPerTrade,
	)
	if err != nil {
		t.Fatal(err)
	}

	return portfolio
}

func newTestEvent(t *testing.T, instrument Instrument) *CandleClosedEvent {
	return &CandleClosedEvent{
		Instrument: instrument,
		Period:     Period5Minute,
		Candle: &Candle{
			Time:  parseTime(t, "2021-06-11T15:00:00Z"),
			Open:  100,
			High:  110,
			Low:   95,
			Close: 105,
		},
	}
}

func assertCalls(t *testing.T, expected, actual []string) {
	if len(expected) != len(actual) {
		t.Errorf(
			"unexpected calls\n"+
				"expected: %v\n"+
				"actual:   %v",
			expected,
			actual,
		)
		return
	}

	for index := range expected {
		if expected[index] != actual[index] {
			t.Errorf(
				"unexpected calls\n"+
					"expected: %v\n"+
					"actual:   %v",
				expected,
				actual,
			)
			return
		}
	}
}
