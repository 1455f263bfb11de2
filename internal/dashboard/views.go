// Package dashboard derives the display-ready views from a loaded sources
// snapshot. Everything is computed once in New and is read-only afterwards,
// so a *Views can be shared by concurrent HTTP handlers without locking.
package dashboard

import (
	"errors"
	"sort"
	"time"

	"github.com/runnerr0/shiftboard/internal/storage"
)

// ErrNoEvents is returned by New when the snapshot holds no events.
var ErrNoEvents = errors.New("snapshot has no events")

// ColorMap maps a reason to its display colour.
type ColorMap map[string]string

// Summary holds the scalar fields shown on the info card.
type Summary struct {
	Begin        time.Time
	End          time.Time
	ShiftDay     string
	EndpointName string
	ClientName   string
}

// Views is the derived, immutable dashboard data.
type Views struct {
	snap      *storage.Snapshot
	reasons   []string
	colors    []string
	colorMap  ColorMap
	summary   Summary
	endpoints []string
}

// New computes all derived views from snap.
func New(snap *storage.Snapshot) (*Views, error) {
	if snap == nil || len(snap.Events) == 0 {
		return nil, ErrNoEvents
	}

	v := &Views{
		snap:     snap,
		reasons:  make([]string, 0, len(snap.ReasonColors)),
		colors:   make([]string, 0, len(snap.ReasonColors)),
		colorMap: make(ColorMap, len(snap.ReasonColors)),
	}

	// Both projections and the map come from the same grouped rows, so the
	// pairing can never drift.
	for _, rc := range snap.ReasonColors {
		v.reasons = append(v.reasons, rc.Reason)
		v.colors = append(v.colors, rc.Color)
		v.colorMap[rc.Reason] = rc.Color
	}

	v.summary = summarize(snap.Events)
	v.endpoints = distinctEndpoints(snap.Events)
	return v, nil
}

func summarize(events []storage.Event) Summary {
	byBegin := make([]storage.Event, len(events))
	copy(byBegin, events)
	sort.SliceStable(byBegin, func(i, j int) bool {
		return byBegin[i].StateBegin.Before(byBegin[j].StateBegin)
	})

	byEnd := make([]storage.Event, len(events))
	copy(byEnd, events)
	sort.SliceStable(byEnd, func(i, j int) bool {
		return byEnd[i].StateEnd.Before(byEnd[j].StateEnd)
	})

	first := events[0]
	return Summary{
		Begin:        byBegin[0].StateBegin,
		End:          byEnd[len(byEnd)-1].StateEnd,
		ShiftDay:     first.ShiftDay,
		EndpointName: first.EndpointName,
		ClientName:   first.ClientName,
	}
}

func distinctEndpoints(events []storage.Event) []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range events {
		if seen[e.EndpointName] {
			continue
		}
		seen[e.EndpointName] = true
		out = append(out, e.EndpointName)
	}
	return out
}

// DistinctReasons returns the reasons in the order of the grouped query.
func (v *Views) DistinctReasons() []string {
	return v.reasons
}

// ReasonColors returns the colour of each reason, parallel to DistinctReasons.
func (v *Views) ReasonColors() []string {
	return v.colors
}

// ColorMap returns the reason to colour mapping shared by both charts.
func (v *Views) ColorMap() ColorMap {
	return v.colorMap
}

// PieTotals returns the per-reason duration totals as loaded.
func (v *Views) PieTotals() []storage.ReasonTotal {
	return v.snap.ReasonTotals
}

// RawEvents returns the full raw table. The slice is shared; do not modify it.
func (v *Views) RawEvents() []storage.Event {
	return v.snap.Events
}

// Summary returns the info card scalars.
func (v *Views) Summary() Summary {
	return v.summary
}

// Endpoints returns the distinct endpoint names in first-seen order.
func (v *Views) Endpoints() []string {
	return v.endpoints
}

// SingleEndpoint reports whether every event belongs to the same endpoint.
func (v *Views) SingleEndpoint() bool {
	return len(v.endpoints) == 1
}
