package tradedesk

import "fmt"

// RiskAllocationPolicy distributes a portfolio's risk budget across the
// instruments whose regimes are currently active.
type RiskAllocationPolicy interface {
	Allocate(activeInstruments []Instrument) (map[Instrument]float64, error)
}

// EqualSplitRiskPolicy splits a fixed risk budget evenly across active
// instruments. An empty active set yields an empty allocation; deciding
// what to do with no active regimes is left to the caller.
type EqualSplitRiskPolicy struct {
	PortfolioRiskBudget float64
}

func (esrp *EqualSplitRiskPolicy) Allocate(
	activeInstruments []Instrument,
) (map[Instrument]float64, error) {
	allocation := make(map[Instrument]float64)

	if len(activeInstruments) == 0 {
		return allocation, nil
	}

	perInstrument := esrp.PortfolioRiskBudget /
		float64(len(activeInstruments))

	for _, instrument := range activeInstruments {
		allocation[instrument] = perInstrument
	}

	return allocation, nil
}

// FixedAllocationRiskPolicy distributes the risk budget according to
// configured relative weights, renormalized over the active subset. Active
// instruments without a configured weight are ignored unless none of the
// active instruments is configured, in which case the policy falls back to
// an equal split across the active set.
type FixedAllocationRiskPolicy struct {
	portfolioRiskBudget float64
	baseWeights         map[Instrument]float64
}

func NewFixedAllocationRiskPolicy(
	portfolioRiskBudget float64,
	weights map[Instrument]float64,
) (*FixedAllocationRiskPolicy, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("at least one allocation weight is required")
	}

	positiveWeights := make(map[Instrument]float64)
	weightsSum := 0.0

	for instrument, weight := range weights {
		if weight <= 0 {
			continue
		}

		positiveWeights[instrument] = weight
		weightsSum += weight
	}

	if len(positiveWeights) == 0 {
		return nil, fmt.Errorf("at least one allocation weight must be > 0")
	}

	baseWeights := make(map[Instrument]float64)
	for instrument, weight := range positiveWeights {
		baseWeights[instrument] = weight / weightsSum
	}

	return &FixedAllocationRiskPolicy{
		portfolioRiskBudget: portfolioRiskBudget,
		baseWeights:         baseWeights,
	}, nil
}

func (farp *FixedAllocationRiskPolicy) Allocate(
	activeInstruments []Instrument,
) (map[Instrument]float64, error) {
	allocation := make(map[Instrument]float64)

	if len(activeInstruments) == 0 {
		return allocation, nil
	}

	configuredActive := make([]Instrument, 0)
	for _, instrument := range activeInstruments {
		if _, exists := farp.baseWeights[instrument]; exists {
			configuredActive = append(configuredActive, instrument)
		}
	}

	if len(configuredActive) == 0 {
		perInstrument := farp.portfolioRiskBudget /
			float64(len(activeInstruments))

		for _, instrument := range activeInstruments {
			allocation[instrument] = perInstrument
		}

		return allocation, nil
	}

	activeWeightsSum := 0.0
	for _, instrument := range configuredActive {
		activeWeightsSum += farp.baseWeights[instrument]
	}

	for _, instrument := range configuredActive {
		weight := farp.baseWeights[instrument] / activeWeightsSum
		allocation[instrument] = weight * farp.portfolioRiskBudget
	}

	return allocation, nil
}

// ATRNormalisedSize computes a position size as riskPerTrade divided by the
// ATR-scaled stop distance, clamped to [minSize, maxSize]. A non-positive
// stop distance yields minSize.
func ATRNormalisedSize(
	riskPerTrade float64,
	atr float64,
	atrRiskMult float64,
	minSize float64,
	maxSize float64,
) float64 {
	stopDistance := atr * atrRiskMult
	if stopDistance <= 0 {
		return minSize
	}

	size := riskPerTrade / stopDistance

	if size < minSize {
		return minSize
	}
	if size > maxSize {
		return maxSize
	}

	return size
}
