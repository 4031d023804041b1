package inmem

import (
	"testing"

	"github.com/davison/tradedesk"
)

func TestFillRepository_CreateFill(t *testing.T) {
	repository := NewFillRepository()

	firstFill := &tradedesk.Fill{
		Instrument: "ETHUSDT",
		Side:       tradedesk.BUY,
		Size:       1,
		Price:      100,
		Time:       parseTime(t, "2021-06-11T15:00:00Z"),
		Reason:     "entry",
	}
	secondFill := &tradedesk.Fill{
		Instrument: "ETHUSDT",
		Side:       tradedesk.SELL,
		Size:       1,
		Price:      110,
		Time:       parseTime(t, "2021-06-11T15:30:00Z"),
		Reason:     "take_profit",
	}

	if err := repository.CreateFill(firstFill); err != nil {
		t.Fatal(err)
	}
	if err := repository.CreateFill(secondFill); err != nil {
		t.Fatal(err)
	}

	fills, err := repository.Fills()
	if err != nil {
		t.Fatal(err)
	}

	if len(fills) != 2 {
		t.Fatalf(
			"unexpected fills count\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			2,
			len(fills),
		)
	}

	if fills[0].Reason != "entry" || fills[1].Reason != "take_profit" {
		t.Errorf("fills should keep insertion order, got %v", fills)
	}
}

func TestEquityRepository_CreateEquitySnapshot(t *testing.T) {
	repository := NewEquityRepository()

	err := repository.CreateEquitySnapshot(&tradedesk.EquitySnapshot{
		Time:   parseTime(t, "2021-06-11T15:30:00Z"),
		Equity: 1010,
	})
	if err != nil {
		t.Fatal(err)
	}

	snapshots, err := repository.EquitySnapshots()
	if err != nil {
		t.Fatal(err)
	}

	if len(snapshots) != 1 || snapshots[0].Equity != 1010 {
		t.Errorf("unexpected snapshots: %v", snapshots)
	}
}
