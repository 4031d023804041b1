package inmem

import (
	"sync"

	"github.com/davison/tradedesk"
)

// FillRepository keeps fills in memory in insertion order. Useful for
// backtests and tests; production setups use the postgres journal.
type FillRepository struct {
	fillsMutex sync.RWMutex
	fills      []*tradedesk.Fill
}

func NewFillRepository() *FillRepository {
	return &FillRepository{
		fills: make([]*tradedesk.Fill, 0),
	}
}

func (fr *FillRepository) CreateFill(fill *tradedesk.Fill) error {
	fr.fillsMutex.Lock()
	defer fr.fillsMutex.Unlock()

	fr.fills = append(fr.fills, fill)

	return nil
}

func (fr *FillRepository) Fills() ([]*tradedesk.Fill, error) {
	fr.fillsMutex.RLock()
	defer fr.fillsMutex.RUnlock()

	snapshot := make([]*tradedesk.Fill, len(fr.fills))
	copy(snapshot, fr.fills)

	return snapshot, nil
}

type EquityRepository struct {
	snapshotsMutex sync.RWMutex
	snapshots      []*tradedesk.EquitySnapshot
}

func NewEquityRepository() *EquityRepository {
	return &EquityRepository{
		snapshots: make([]*tradedesk.EquitySnapshot, 0),
	}
}

func (er *EquityRepository) CreateEquitySnapshot(
	snapshot *tradedesk.EquitySnapshot,
) error {
	er.snapshotsMutex.Lock()
	defer er.snapshotsMutex.Unlock()

	er.snapshots = append(er.snapshots, snapshot)

	return nil
}

func (er *EquityRepository) EquitySnapshots() (
	[]*tradedesk.EquitySnapshot,
	error,
) {
	er.snapshotsMutex.RLock()
	defer er.snapshotsMutex.RUnlock()

	snapshot := make([]*tradedesk.EquitySnapshot, len(er.snapshots))
	copy(snapshot, er.snapshots)

	return snapshot, nil
}
