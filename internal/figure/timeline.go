package figure

import (
	"time"

	"github.com/runnerr0/shiftboard/internal/dashboard"
	"github.com/runnerr0/shiftboard/internal/storage"
)

// Opacity levels used by the timeline.
const (
	FullOpacity   = 1.0
	DimmedOpacity = 0.3
)

// CustomFields names the per-bar values exposed to the tooltip, in order.
var CustomFields = []string{
	"state", "reason", "state_begin", "duration_min",
	"shift_day", "shift_name", "operator",
}

// HoverTemplate renders CustomFields in the chart tooltip.
const HoverTemplate = "State - <b>%{customdata[0]}</b><br>" +
	"Reason - <b>%{customdata[1]}</b><br>" +
	"Start - <b>%{customdata[2]|%H:%M:%S (%d %b %Y)}</b><br>" +
	"Duration - <b>%{customdata[3]:,.2f}</b> min.<br><br>" +
	"Shift day - <b>%{customdata[4]|%d %b %Y}</b><br>" +
	"Shift - <b>%{customdata[5]}</b><br>" +
	"Operator - <b>%{customdata[6]}</b>"

// Marker is the visual style of every bar in a trace.
type Marker struct {
	Color   string  `json:"color"`
	Opacity float64 `json:"opacity"`
}

// Bar spans one event interval on the row of its endpoint.
type Bar struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Row        string    `json:"row"`
	CustomData []any     `json:"customdata"`

	event storage.Event
}

// Trace groups all bars of one reason.
type Trace struct {
	Name   string `json:"name"`
	Marker Marker `json:"marker"`
	Bars   []Bar  `json:"bars"`
}

// Timeline is the Gantt chart of state intervals.
type Timeline struct {
	Title         string   `json:"title"`
	Height        int      `json:"height"`
	ShowLegend    bool     `json:"showlegend"`
	HoverTemplate string   `json:"hovertemplate"`
	Rows          []string `json:"rows"`
	Traces        []Trace  `json:"traces"`
}

// NewTimeline builds the timeline from the raw events: one trace per reason
// in order of first appearance, every trace fully opaque.
func NewTimeline(v *dashboard.Views) *Timeline {
	colors := v.ColorMap()
	tl := &Timeline{
		Title:         "State timeline",
		Height:        300,
		HoverTemplate: HoverTemplate,
		Rows:          v.Endpoints(),
	}

	index := make(map[string]int)
	for _, e := range v.RawEvents() {
		i, ok := index[e.Reason]
		if !ok {
			color, found := colors[e.Reason]
			if !found {
				color = e.Color
			}
			i = len(tl.Traces)
			index[e.Reason] = i
			tl.Traces = append(tl.Traces, Trace{
				Name:   e.Reason,
				Marker: Marker{Color: color, Opacity: FullOpacity},
			})
		}
		tl.Traces[i].Bars = append(tl.Traces[i].Bars, newBar(e))
	}
	return tl
}

func newBar(e storage.Event) Bar {
	return Bar{
		Start: e.StateBegin,
		End:   e.StateEnd,
		Row:   e.EndpointName,
		CustomData: []any{
			e.State, e.Reason, e.StateBegin, e.DurationMin,
			e.ShiftDay, e.ShiftName, e.Operator,
		},
		event: e,
	}
}

// Trace returns the trace named reason, if present.
func (tl *Timeline) Trace(reason string) (*Trace, bool) {
	for i := range tl.Traces {
		if tl.Traces[i].Name == reason {
			return &tl.Traces[i], true
		}
	}
	return nil, false
}

// Span returns the earliest start and latest end across all bars.
func (tl *Timeline) Span() (time.Time, time.Time) {
	var lo, hi time.Time
	for _, tr := range tl.Traces {
		for _, b := range tr.Bars {
			if lo.IsZero() || b.Start.Before(lo) {
				lo = b.Start
			}
			if hi.IsZero() || b.End.After(hi) {
				hi = b.End
			}
		}
	}
	return lo, hi
}
