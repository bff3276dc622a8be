package reporting

import (
	"strings"
	"testing"
	"time"

	"equity-movers-lab/internal/domain"
)

func TestRenderCSVHeaderOnly(t *testing.T) {
	out := RenderCSV(nil)

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("lines = %d, want header only", len(lines))
	}
	if !strings.HasPrefix(lines[0], "as_of,symbol,name,") {
		t.Errorf("unexpected header: %s", lines[0])
	}
}

func TestRenderCSVRows(t *testing.T) {
	volume := int64(1200)
	dollarVolume := 6000.0
	rows := []*domain.MoverSnapshotRow{
		{
			AsOf:            time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
			Symbol:          "AAPL",
			Name:            "Apple, Inc.",
			PctChange1D:     25,
			ClosePrev:       4,
			CloseNow:        5,
			VolumeNow:       &volume,
			DollarVolumeNow: &dollarVolume,
			AbsChange1D:     25,
			Direction:       domain.DirectionUp,
			RankOverall:     1,
		},
		{
			AsOf:        time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC),
			Symbol:      "XYZ",
			Name:        "XYZ Corp",
			PctChange1D: -20,
			ClosePrev:   10,
			CloseNow:    8,
			AbsChange1D: 20,
			Direction:   domain.DirectionDown,
			RankOverall: 2,
		},
	}

	out := RenderCSV(rows)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want header plus 2 rows", len(lines))
	}

	if want := `2026-08-25,AAPL,"Apple, Inc.",25.000000,4.000000,5.000000,1200,6000.00,25.000000,up,1`; lines[1] != want {
		t.Errorf("row 1 = %s, want %s", lines[1], want)
	}

	// Nullable volume fields render as empty cells.
	if want := `2026-08-25,XYZ,XYZ Corp,-20.000000,10.000000,8.000000,,,20.000000,down,2`; lines[2] != want {
		t.Errorf("row 2 = %s, want %s", lines[2], want)
	}
}
