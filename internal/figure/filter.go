package figure

import "github.com/runnerr0/shiftboard/internal/dashboard"

// TriggerKind distinguishes a filter button that was never pressed from one
// pressed with or without a selection.
type TriggerKind int

const (
	NotTriggered TriggerKind = iota
	TriggeredEmpty
	TriggeredWithSelection
)

func (k TriggerKind) String() string {
	switch k {
	case TriggeredEmpty:
		return "triggered_empty"
	case TriggeredWithSelection:
		return "triggered_with_selection"
	default:
		return "not_triggered"
	}
}

// FilterState is the state of the timeline after a trigger has been handled.
type FilterState int

const (
	Unfiltered FilterState = iota
	Filtered
)

func (s FilterState) String() string {
	if s == Filtered {
		return "filtered"
	}
	return "unfiltered"
}

// Trigger is the input of the filter callback.
type Trigger struct {
	kind      TriggerKind
	selection []string
}

// NoTrigger returns the trigger of a button that has never been pressed.
func NoTrigger() Trigger {
	return Trigger{kind: NotTriggered}
}

// Triggered returns the trigger of a button press with the given selection.
// A nil or empty selection means "show everything".
func Triggered(selection []string) Trigger {
	if len(selection) == 0 {
		return Trigger{kind: TriggeredEmpty}
	}
	sel := make([]string, len(selection))
	copy(sel, selection)
	return Trigger{kind: TriggeredWithSelection, selection: sel}
}

// TriggerFromClicks maps the button click counter reported by the page to a
// Trigger. A nil or zero counter means the button was never pressed.
func TriggerFromClicks(clicks *int, selection []string) Trigger {
	if clicks == nil || *clicks <= 0 {
		return NoTrigger()
	}
	return Triggered(selection)
}

// Kind returns the trigger kind.
func (t Trigger) Kind() TriggerKind {
	return t.kind
}

// Selection returns the selected reasons; empty unless Kind is
// TriggeredWithSelection.
func (t Trigger) Selection() []string {
	return t.selection
}

// State returns the filter state the timeline is in after handling t.
func (t Trigger) State() FilterState {
	if t.kind == TriggeredWithSelection {
		return Filtered
	}
	return Unfiltered
}

// Filter handles one press of the filter button. It returns false when the
// button has not been pressed, in which case the displayed chart must be
// left alone. Otherwise it returns a freshly built timeline where traces
// outside a non-empty selection are dimmed.
func Filter(t Trigger, v *dashboard.Views) (*Timeline, bool) {
	if t.kind == NotTriggered {
		return nil, false
	}

	tl := NewTimeline(v)
	if t.kind == TriggeredWithSelection {
		tl.applySelection(t.selection)
	}
	return tl, true
}

func (tl *Timeline) applySelection(selection []string) {
	selected := make(map[string]bool, len(selection))
	for _, s := range selection {
		selected[s] = true
	}
	for i := range tl.Traces {
		if selected[tl.Traces[i].Name] {
			tl.Traces[i].Marker.Opacity = FullOpacity
		} else {
			tl.Traces[i].Marker.Opacity = DimmedOpacity
		}
	}
}
