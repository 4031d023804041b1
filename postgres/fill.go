package postgres

import (
	"fmt"
	"time"

	"github.com/jackc/pgtype"

	"github.com/davison/tradedesk"
)

// FillRepository journals executed trades. The journal is append-only;
// round trips and metrics are reconstructed from it offline.
type FillRepository struct {
	client    *Client
	idService tradedesk.IDService
}

func NewFillRepository(
	client *Client,
	idService tradedesk.IDService,
) *FillRepository {
	return &FillRepository{client, idService}
}

func (fr *FillRepository) CreateFill(fill *tradedesk.Fill) error {
	query := `INSERT INTO
		fill (id, instrument, side, size, price, time, reason)
		VALUES (:id, :instrument, :side, :size, :price, :time, :reason)`

	fillRow, err := new(fillRow).wrap(fill)
	if err != nil {
		return fmt.Errorf(
			"could not convert fill [%v] to pg row: [%v]",
			fill.ID,
			err,
		)
	}

	_, err = fr.client.database.NamedExec(query, fillRow)
	if err != nil {
		return fmt.Errorf(
			"could not execute command for fill [%v]: [%v]",
			fill.ID,
			err,
		)
	}

	return nil
}

func (fr *FillRepository) Fills() ([]*tradedesk.Fill, error) {
	var fillRows []fillRow

	query := `SELECT id, instrument, side, size, price, time, reason
		FROM fill ORDER BY time ASC`

	err := fr.client.database.Select(&fillRows, query)
	if err != nil {
		return nil, fmt.Errorf("could not execute query: [%v]", err)
	}

	fills := make([]*tradedesk.Fill, len(fillRows))
	for index := range fillRows {
		fill, err := fillRows[index].unwrap(fr.idService)
		if err != nil {
			return nil, fmt.Errorf(
				"could not convert fill [%v] from pg row: [%v]",
				fillRows[index].ID,
				err,
			)
		}

		fills[index] = fill
	}

	return fills, nil
}

type fillRow struct {
	ID         string
	Instrument string
	Side       string
	Size       pgtype.Numeric
	Price      pgtype.Numeric
	Time       time.Time
	Reason     string
}

func (fr *fillRow) wrap(fill *tradedesk.Fill) (*fillRow, error) {
	size, err := floatToNumeric(fill.Size)
	if err != nil {
		return nil, err
	}

	price, err := floatToNumeric(fill.Price)
	if err != nil {
		return nil, err
	}

	fr.ID = fill.ID.String()
	fr.Instrument = fill.Instrument.String()
	fr.Side = fill.Side.String()
	fr.Size = size
	fr.Price = price
	fr.Time = fill.Time
	fr.Reason = fill.Reason

	return fr, nil
}

func (fr *fillRow) unwrap(
	idService tradedesk.IDService,
) (*tradedesk.Fill, error) {
	ID, err := idService.NewIDFromString(fr.ID)
	if err != nil {
		return nil, err
	}

	side, err := tradedesk.ParseOrderSide(fr.Side)
	if err != nil {
		return nil, err
	}

	size, err := numericToFloat(fr.Size)
	if err != nil {
		return nil, err
	}

	price, err := numericToFloat(fr.Price)
	if err != nil {
		return nil, err
	}

	return &tradedesk.Fill{
		ID:         ID,
		Instrument: tradedesk.Instrument(fr.Instrument),
		Side:       side,
		Size:       size,
		Price:      price,
		Time:       fr.Time,
		Reason:     fr.Reason,
	}, nil
}
