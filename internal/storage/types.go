package storage

import "time"

// Event is one row of the sources table: a single state interval of a
// monitored endpoint.
type Event struct {
	State        string
	Reason       string
	StateBegin   time.Time
	StateEnd     time.Time
	DurationMin  float64
	EndpointName string
	ClientName   string
	ShiftDay     string
	ShiftName    string
	Operator     string
	Color        string
}

// ReasonColor pairs a reason with the colour recorded for it.
type ReasonColor struct {
	Reason string
	Color  string
}

// ReasonTotal holds the summed duration of all events sharing a reason.
type ReasonTotal struct {
	Reason      string
	DurationMin float64
}

// Snapshot is the result of the three startup reads. It is never modified
// after Load returns.
type Snapshot struct {
	Events       []Event
	ReasonColors []ReasonColor
	ReasonTotals []ReasonTotal
}
