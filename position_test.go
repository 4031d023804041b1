package tradedesk

import "testing"

func TestPositionTracker_Lifecycle(t *testing.T) {
	tracker := NewPositionTracker()

	if !tracker.IsFlat() {
		t.Fatal("new tracker should be flat")
	}

	tracker.Open(LONG, 2, 100)

	if tracker.IsFlat() {
		t.Fatal("tracker should hold an open position")
	}

	if tracker.Direction() != LONG ||
		tracker.Size() != 2 ||
		tracker.EntryPrice() != 100 {
		t.Errorf(
			"unexpected position\n"+
				"expected: [LONG size=2 entry=100]\n"+
				"actual:   [%v size=%v entry=%v]",
			tracker.Direction(),
			tracker.Size(),
			tracker.EntryPrice(),
		)
	}

	tracker.Reset()

	if !tracker.IsFlat() {
		t.Fatal("tracker should be flat after reset")
	}
}

func TestPositionTracker_BarsHeld(t *testing.T) {
	tracker := NewPositionTracker()

	// Bars are not counted while flat.
	tracker.NextBar()

	tracker.Open(LONG, 1, 100)

	tracker.NextBar()
	tracker.NextBar()

	if tracker.BarsHeld() != 2 {
		t.Errorf(
			"unexpected bars held\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			2,
			tracker.BarsHeld(),
		)
	}
}

func TestPositionTracker_MFE(t *testing.T) {
	tracker := NewPositionTracker()
	tracker.Open(LONG, 1, 100)

	tracker.UpdateMFE(&Candle{High: 110, Low: 95})
	tracker.UpdateMFE(&Candle{High: 105, Low: 90})

	// The excursion only ratchets up.
	if tracker.MFEPoints() != 10 {
		t.Errorf(
			"unexpected MFE\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			10,
			tracker.MFEPoints(),
		)
	}
}

func TestPositionTracker_MFE_Short(t *testing.T) {
	tracker := NewPositionTracker()
	tracker.Open(SHORT, 1, 100)

	tracker.UpdateMFE(&Candle{High: 110, Low: 85})

	if tracker.MFEPoints() != 15 {
		t.Errorf(
			"unexpected MFE\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			15,
			tracker.MFEPoints(),
		)
	}
}

func TestPositionTracker_CurrentPnLPoints(t *testing.T) {
	tracker := NewPositionTracker()

	if tracker.CurrentPnLPoints(100) != 0 {
		t.Fatal("flat tracker should report zero profit")
	}

	tracker.Open(LONG, 1, 100)

	if tracker.CurrentPnLPoints(110) != 10 {
		t.Errorf(
			"unexpected profit\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			10,
			tracker.CurrentPnLPoints(110),
		)
	}

	tracker.Open(SHORT, 1, 100)

	if tracker.CurrentPnLPoints(90) != 10 {
		t.Errorf(
			"unexpected profit\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			10,
			tracker.CurrentPnLPoints(90),
		)
	}
}

func TestParseDirection(t *testing.T) {
	direction, err := ParseDirection("LONG")
	if err != nil {
		t.Fatal(err)
	}

	if direction != LONG {
		t.Errorf(
			"unexpected direction\n"+
				"expected: [%v]\n"+
				"actual:   [%v]",
			LONG,
			direction,
		)
	}

	_, err = ParseDirection("SIDEWAYS")
	if err == nil {
		t.Errorf("expected an error for unknown direction")
	}
}

func TestDirection_OrderSides(t *testing.T) {
	if LONG.EntryOrderSide() != BUY || LONG.ExitOrderSide() != SELL {
		t.Errorf("unexpected order sides for LONG")
	}

	if SHORT.EntryOrderSide() != SELL || SHORT.ExitOrderSide() != BUY {
		t.Errorf("unexpected order sides for SHORT")
	}
}
