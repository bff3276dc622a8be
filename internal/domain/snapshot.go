package domain

import "time"

// Direction classifies the sign of a day-over-day change.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DirectionOf derives the direction from a signed percentage change.
func DirectionOf(pctChange float64) Direction {
	switch {
	case pctChange > 0:
		return DirectionUp
	case pctChange < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// MoverSnapshotRow is one mover in the snapshot for a trading day.
// Corresponds to the mover_snapshots table; identity is (as_of, symbol).
// The full row set for an as_of date is replaced atomically on every
// snapshot run, never patched incrementally.
type MoverSnapshotRow struct {
	AsOf            time.Time // UTC calendar date the snapshot is for
	Symbol          string
	Name            string
	PctChange1D     float64 // signed, (close_now / close_prev - 1) * 100
	ClosePrev       float64
	CloseNow        float64
	VolumeNow       *int64
	DollarVolumeNow *float64
	AbsChange1D     float64   // |pct_change_1d|, stored generated column in postgres
	Direction       Direction // up | down | flat, stored generated column in postgres
	RankOverall     int       // dense rank by abs_change_1d descending, ties share rank
}
