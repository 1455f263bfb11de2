// Package figure builds the chart and panel descriptions shown on the
// dashboard and applies the reason filter to the timeline chart.
package figure

import (
	"time"

	"github.com/runnerr0/shiftboard/internal/dashboard"
)

// PeriodLayout formats period boundaries as HH:MM:SS (DD Mon YYYY).
const PeriodLayout = "15:04:05 (02 Jan 2006)"

// Element ids of the interactive controls.
const (
	SelectID = "selected_filter"
	ButtonID = "filter_button"
	OutputID = "output"
)

// InfoPanel is the upper-left card: identity of the dataset plus the
// reason selector and the filter button.
type InfoPanel struct {
	ClientName   string   `json:"client_name"`
	ShiftDay     string   `json:"shift_day"`
	EndpointName string   `json:"endpoint_name"`
	Begin        string   `json:"begin"`
	End          string   `json:"end"`
	Options      []string `json:"options"`
	Placeholder  string   `json:"placeholder"`
	ButtonLabel  string   `json:"button_label"`
	SelectID     string   `json:"select_id"`
	ButtonID     string   `json:"button_id"`
}

// NewInfoPanel builds the info card from v.
func NewInfoPanel(v *dashboard.Views) InfoPanel {
	s := v.Summary()
	return InfoPanel{
		ClientName:   s.ClientName,
		ShiftDay:     s.ShiftDay,
		EndpointName: s.EndpointName,
		Begin:        formatPeriod(s.Begin),
		End:          formatPeriod(s.End),
		Options:      v.DistinctReasons(),
		Placeholder:  "Select a reason",
		ButtonLabel:  "Filter",
		SelectID:     SelectID,
		ButtonID:     ButtonID,
	}
}

func formatPeriod(t time.Time) string {
	return t.Format(PeriodLayout)
}
