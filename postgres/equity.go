package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgtype"

	"github.com/davison/tradedesk"
)

// EquityRepository keeps the portfolio equity ledger.
type EquityRepository struct {
	client *Client
}

func NewEquityRepository(client *Client) *EquityRepository {
	return &EquityRepository{client}
}

func (er *EquityRepository) CreateEquitySnapshot(
	snapshot *tradedesk.EquitySnapshot,
) error {
	query := `INSERT INTO equity_snapshot (time, equity)
		VALUES (:time, :equity)`

	equityRow, err := new(equityRow).wrap(snapshot)
	if err != nil {
		return fmt.Errorf(
			"could not convert equity snapshot to pg row: [%v]",
			err,
		)
	}

	_, err = er.client.database.NamedExec(query, equityRow)
	if err != nil {
		return fmt.Errorf(
			"could not execute command for equity snapshot: [%v]",
			err,
		)
	}

	return nil
}

func (er *EquityRepository) EquitySnapshots() (
	[]*tradedesk.EquitySnapshot,
	error,
) {
	var equityRows []equityRow

	query := `SELECT time, equity FROM equity_snapshot ORDER BY time ASC`

	err := er.client.database.Select(&equityRows, query)
	if err != nil {
		return nil, fmt.Errorf("could not execute query: [%v]", err)
	}

	snapshots := make([]*tradedesk.EquitySnapshot, len(equityRows))
	for index := range equityRows {
		snapshot, err := equityRows[index].unwrap()
		if err != nil {
			return nil, fmt.Errorf(
				"could not convert equity snapshot from pg row: [%v]",
				err,
			)
		}

		snapshots[index] = snapshot
	}

	return snapshots, nil
}

type equityRow struct {
	Time   time.Time
	Equity pgtype.Numeric
}

func (er *equityRow) wrap(
	snapshot *tradedesk.EquitySnapshot,
) (*equityRow, error) {
	equity, err := floatToNumeric(snapshot.Equity)
	if err != nil {
		return nil, err
	}

	er.Time = snapshot.Time
	er.Equity = equity

	return er, nil
}

func (er *equityRow) unwrap() (*tradedesk.EquitySnapshot, error) {
	equity, err := numericToFloat(er.Equity)
	if err != nil {
		return nil, err
	}

	return &tradedesk.EquitySnapshot{
		Time:   er.Time,
		Equity: equity,
	}, nil
}
