// Package reporting renders mover snapshots for export.
package reporting

import (
	"fmt"
	"strconv"
	"strings"

	"equity-movers-lab/internal/domain"
)

// RenderCSV renders snapshot rows as a CSV string. Rows are emitted in the
// order given; callers pass store output, which is already ranked. Nullable
// fields render as empty cells.
func RenderCSV(rows []*domain.MoverSnapshotRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("as_of,symbol,name,pct_change_1d,close_prev,close_now,")
	sb.WriteString("volume_now,dollar_volume_now,abs_change_1d,direction,rank_overall\n")

	// Rows
	for _, r := range rows {
		volume := ""
		if r.VolumeNow != nil {
			volume = strconv.FormatInt(*r.VolumeNow, 10)
		}
		dollarVolume := ""
		if r.DollarVolumeNow != nil {
			dollarVolume = strconv.FormatFloat(*r.DollarVolumeNow, 'f', 2, 64)
		}

		sb.WriteString(fmt.Sprintf("%s,%s,%s,%.6f,%.6f,%.6f,%s,%s,%.6f,%s,%d\n",
			r.AsOf.Format("2006-01-02"),
			r.Symbol,
			csvField(r.Name),
			r.PctChange1D,
			r.ClosePrev,
			r.CloseNow,
			volume,
			dollarVolume,
			r.AbsChange1D,
			r.Direction,
			r.RankOverall,
		))
	}

	return sb.String()
}

// csvField quotes a value containing commas or quotes.
func csvField(s string) string {
	if !strings.ContainsAny(s, `,"`) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
