package tradedesk

import (
	"fmt"
	"math"
	"time"
)

// RoundTrip is a matched entry/exit pair of fills representing one
// completed trade.
type RoundTrip struct {
	Instrument Instrument
	Direction  Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Size       float64
	PnL        float64
	ExitReason string
}

// Metrics are aggregate performance statistics derived from fills and
// equity snapshots.
type Metrics struct {
	Trades         int
	RoundTrips     int
	Wins           int
	Losses         int
	WinRate        float64
	AvgWin         float64
	AvgLoss        float64
	ProfitFactor   float64
	Expectancy     float64
	MaxDrawdown    float64
	FinalEquity    float64
	AvgHoldMinutes float64
	ExitsByReason  map[string]int
}

const sizeMatchTolerance = 1e-9

// RoundTripsFromFills reconstructs round trips from an ordered fill
// sequence, assuming one open position per instrument and alternating
// entry/exit fills. A size mismatch between an entry and its exit means
// the simple pairing assumption is broken and is reported as an error.
func RoundTripsFromFills(fills []*Fill) ([]*RoundTrip, error) {
	type openEntry struct {
		direction  Direction
		entryTime  time.Time
		entryPrice float64
		size       float64
	}

	openPositions := make(map[Instrument]*openEntry)
	roundTrips := make([]*RoundTrip, 0)

	for _, fill := range fills {
		entry, exists := openPositions[fill.Instrument]

		if !exists {
			direction := LONG
			if fill.Side == SELL {
				direction = SHORT
			}

			openPositions[fill.Instrument] = &openEntry{
				direction:  direction,
				entryTime:  fill.Time,
				entryPrice: fill.Price,
				size:       fill.Size,
			}
			continue
		}

		delete(openPositions, fill.Instrument)

		if math.Abs(entry.size-fill.Size) > sizeMatchTolerance {
			return nil, fmt.Errorf(
				"size mismatch for instrument [%v]: entry [%v] exit [%v]",
				fill.Instrument,
				entry.size,
				fill.Size,
			)
		}

		var pnl float64
		if entry.direction == LONG {
			pnl = (fill.Price - entry.entryPrice) * fill.Size
		} else {
			pnl = (entry.entryPrice - fill.Price) * fill.Size
		}

		exitReason := fill.Reason
		if len(exitReason) == 0 {
			exitReason = "unknown"
		}

		roundTrips = append(roundTrips, &RoundTrip{
			Instrument: fill.Instrument,
			Direction:  entry.direction,
			EntryTime:  entry.entryTime,
			ExitTime:   fill.Time,
			EntryPrice: entry.entryPrice,
			ExitPrice:  fill.Price,
			Size:       fill.Size,
			PnL:        pnl,
			ExitReason: exitReason,
		})
	}

	return roundTrips, nil
}

// MaxDrawdown returns the largest peak-to-trough equity drop as a
// non-positive number.
func MaxDrawdown(equity []float64) float64 {
	peak := math.Inf(-1)
	maxDrawdown := 0.0

	for _, value := range equity {
		if value > peak {
			peak = value
		}

		if drawdown := value - peak; drawdown < maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	return maxDrawdown
}

// EquitySnapshotsFromRoundTrips derives a minimal equity curve by
// cumulatively summing round-trip profits. Meant for per-instrument
// reporting when only portfolio-level snapshots exist.
func EquitySnapshotsFromRoundTrips(
	roundTrips []*RoundTrip,
	startingEquity float64,
) []*EquitySnapshot {
	equity := startingEquity
	snapshots := make([]*EquitySnapshot, 0, len(roundTrips))

	for _, roundTrip := range roundTrips {
		equity += roundTrip.PnL

		snapshots = append(snapshots, &EquitySnapshot{
			Time:   roundTrip.ExitTime,
			Equity: equity,
		})
	}

	return snapshots
}

// ComputeMetrics derives aggregate statistics from an ordered fill
// sequence and the matching equity snapshots.
func ComputeMetrics(
	fills []*Fill,
	snapshots []*EquitySnapshot,
) (*Metrics, error) {
	roundTrips, err := RoundTripsFromFills(fills)
	if err != nil {
		return nil, fmt.Errorf("could not reconstruct round trips: [%w]", err)
	}

	equity := make([]float64, 0, len(snapshots))
	for _, snapshot := range snapshots {
		equity = append(equity, snapshot.Equity)
	}

	finalEquity := 0.0
	if len(equity) > 0 {
		finalEquity = equity[len(equity)-1]
	}

	exitsByReason := make(map[string]int)

	winsSum, lossesSum := 0.0, 0.0
	winsCount, lossesCount := 0, 0
	holdMinutesSum := 0.0

	for _, roundTrip := range roundTrips {
		exitsByReason[roundTrip.ExitReason]++

		if roundTrip.PnL > 0 {
			winsSum += roundTrip.PnL
			winsCount++
		} else if roundTrip.PnL < 0 {
			lossesSum += roundTrip.PnL
			lossesCount++
		}

		holdMinutesSum += roundTrip.ExitTime.
			Sub(roundTrip.EntryTime).
			Minutes()
	}

	roundTripsCount := len(roundTrips)

	avgWin := 0.0
	if winsCount > 0 {
		avgWin = winsSum / float64(winsCount)
	}

	// avgLoss stays negative, mirroring the sign of the loss profits.
	avgLoss := 0.0
	if lossesCount > 0 {
		avgLoss = lossesSum / float64(lossesCount)
	}

	profitFactor := 0.0
	if lossesCount > 0 && lossesSum != 0 {
		profitFactor = winsSum / math.Abs(lossesSum)
	} else if winsCount > 0 {
		profitFactor = math.Inf(1)
	}

	winRate := 0.0
	expectancy := 0.0
	avgHoldMinutes := 0.0
	if roundTripsCount > 0 {
		winRate = float64(winsCount) / float64(roundTripsCount)
		expectancy = winRate*avgWin + (1.0-winRate)*avgLoss
		avgHoldMinutes = holdMinutesSum / float64(roundTripsCount)
	}

	return &Metrics{
		Trades:         len(fills),
		RoundTrips:     roundTripsCount,
		Wins:           winsCount,
		Losses:         lossesCount,
		WinRate:        winRate,
		AvgWin:         avgWin,
		AvgLoss:        avgLoss,
		ProfitFactor:   profitFactor,
		Expectancy:     expectancy,
		MaxDrawdown:    MaxDrawdown(equity),
		FinalEquity:    finalEquity,
		AvgHoldMinutes: avgHoldMinutes,
		ExitsByReason:  exitsByReason,
	}, nil
}
