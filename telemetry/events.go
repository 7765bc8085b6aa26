// Package telemetry provides windowed field statistics, performance
// timing, and CSV experiment output.
package telemetry

import (
	"strconv"

	"github.com/pthm-cable/leyline/systems"
)

// RecordType identifies rows in events.csv.
type RecordType string

const (
	RecordEventStart RecordType = "event_start"
	RecordEventEnd   RecordType = "event_end"
	RecordPlacement  RecordType = "placement"
	RecordBookmark   RecordType = "bookmark"
)

// EventRecord is one row of the discrete event log.
type EventRecord struct {
	Tick    int32      `csv:"tick"`
	SimTime float64    `csv:"sim_time"`
	Type    RecordType `csv:"type"`
	Kind    string     `csv:"kind"`
	X       int        `csv:"x"`
	Y       int        `csv:"y"`
	Detail  string     `csv:"detail"`
}

// NewEventChangeRecord records a world event starting or ending. Start
// records carry the first epicenter and the epicenter count.
func NewEventChangeRecord(tick int32, simTime float64, c systems.EventChange) EventRecord {
	r := EventRecord{
		Tick:    tick,
		SimTime: simTime,
		Type:    RecordEventEnd,
		Kind:    c.Kind.String(),
		X:       -1,
		Y:       -1,
	}
	if c.Started {
		r.Type = RecordEventStart
		r.Detail = "epicenters=" + strconv.Itoa(len(c.Epicenters))
		if len(c.Epicenters) > 0 {
			r.X, r.Y = c.Epicenters[0].X, c.Epicenters[0].Y
		}
	}
	return r
}

// NewPlacementRecord records a structure being built.
func NewPlacementRecord(tick int32, simTime float64, s systems.Structure) EventRecord {
	return EventRecord{
		Tick:    tick,
		SimTime: simTime,
		Type:    RecordPlacement,
		Kind:    s.Kind.String(),
		X:       s.X,
		Y:       s.Y,
		Detail:  "id=" + strconv.FormatUint(uint64(s.ID), 10),
	}
}
