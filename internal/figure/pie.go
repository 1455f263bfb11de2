package figure

import "github.com/runnerr0/shiftboard/internal/dashboard"

// Slice is one pie slice: a reason and its total duration in minutes.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Pie describes the reason breakdown chart.
type Pie struct {
	Hole   float64 `json:"hole"`
	Slices []Slice `json:"slices"`
}

// NewPie builds one slice per reason total, coloured through the shared
// colour map.
func NewPie(v *dashboard.Views) *Pie {
	colors := v.ColorMap()
	totals := v.PieTotals()

	p := &Pie{Hole: 0.2, Slices: make([]Slice, 0, len(totals))}
	for _, t := range totals {
		p.Slices = append(p.Slices, Slice{
			Label: t.Reason,
			Value: t.DurationMin,
			Color: colors[t.Reason],
		})
	}
	return p
}

// Total returns the sum of all slice values.
func (p *Pie) Total() float64 {
	var sum float64
	for _, s := range p.Slices {
		sum += s.Value
	}
	return sum
}
