package figure

import (
	"errors"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrEmptyPie is returned when a pie has nothing to draw.
var ErrEmptyPie = errors.New("pie chart has no positive values")

var hexColor = regexp.MustCompile(`^#?([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// RenderPieSVG draws p as an SVG document.
func RenderPieSVG(w io.Writer, p *Pie) error {
	values := make([]chart.Value, 0, len(p.Slices))
	for _, s := range p.Slices {
		if s.Value <= 0 {
			continue
		}
		v := chart.Value{Label: s.Label, Value: s.Value}
		if hexColor.MatchString(s.Color) {
			v.Style = chart.Style{
				FillColor:   drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#")),
				StrokeColor: drawing.ColorWhite,
				StrokeWidth: 1,
			}
		}
		values = append(values, v)
	}
	if len(values) == 0 {
		return ErrEmptyPie
	}

	pie := chart.PieChart{
		Width:  400,
		Height: 400,
		Values: values,
	}
	if err := pie.Render(chart.SVG, w); err != nil {
		return fmt.Errorf("render pie: %w", err)
	}
	return nil
}

// Timeline SVG geometry.
const (
	timelineWidth  = 1200.0
	marginLeft     = 160.0
	marginRight    = 20.0
	marginTop      = 60.0
	marginBottom   = 30.0
	barFill        = 0.8
	maxAxisTicks   = 8
	tooltipDayForm = "02 Jan 2006"
)

var tickSteps = []time.Duration{
	time.Minute, 5 * time.Minute, 10 * time.Minute, 15 * time.Minute, 30 * time.Minute,
	time.Hour, 2 * time.Hour, 3 * time.Hour, 6 * time.Hour, 12 * time.Hour, 24 * time.Hour,
}

type svgBar struct {
	X, Y, W, H float64
	Color      string
	Opacity    float64
	Reason     string
	Tooltip    string
}

type svgTick struct {
	X     float64
	Label string
}

type svgRow struct {
	Y     float64
	Label string
}

type timelineSVG struct {
	ID            string
	Width, Height float64
	Title         string
	TitleX        float64
	Left, Top     float64
	PlotW, PlotH  float64
	AxisY         float64
	Rows          []svgRow
	Ticks         []svgTick
	Bars          []svgBar
}

var timelineTmpl = template.Must(template.New("timeline").Funcs(template.FuncMap{
	"f": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<svg xmlns="http://www.w3.org/2000/svg" id="{{.ID}}" width="{{f .Width}}" height="{{f .Height}}" viewBox="0 0 {{f .Width}} {{f .Height}}" font-family="sans-serif">
<rect width="100%" height="100%" fill="#fff"/>
<text x="{{f .TitleX}}" y="32" font-size="25" text-anchor="middle">{{.Title}}</text>
{{range .Ticks}}<line x1="{{f .X}}" y1="{{f $.Top}}" x2="{{f .X}}" y2="{{f $.AxisY}}" stroke="#e5e5e5"/>
<text x="{{f .X}}" y="{{f $.AxisY}}" dy="16" font-size="11" fill="#555" text-anchor="middle">{{.Label}}</text>
{{end}}{{range .Rows}}<text x="{{f $.Left}}" y="{{f .Y}}" dx="-8" font-size="12" fill="#333" text-anchor="end" dominant-baseline="middle">{{.Label}}</text>
{{end}}{{range .Bars}}<rect x="{{f .X}}" y="{{f .Y}}" width="{{f .W}}" height="{{f .H}}" fill="{{.Color}}" fill-opacity="{{f .Opacity}}" data-reason="{{.Reason}}"><title>{{.Tooltip}}</title></rect>
{{end}}</svg>
`))

// RenderTimelineSVG draws tl as an SVG document: one row per endpoint, one
// rect per bar, each carrying its trace opacity and a tooltip.
func RenderTimelineSVG(w io.Writer, tl *Timeline) error {
	height := float64(tl.Height)
	doc := timelineSVG{
		ID:     OutputID,
		Width:  timelineWidth,
		Height: height,
		Title:  tl.Title,
		TitleX: timelineWidth / 2,
		Left:   marginLeft,
		Top:    marginTop,
		PlotW:  timelineWidth - marginLeft - marginRight,
		PlotH:  height - marginTop - marginBottom,
		AxisY:  height - marginBottom,
	}

	lo, hi := tl.Span()
	if !hi.After(lo) {
		hi = lo.Add(time.Minute)
	}
	span := hi.Sub(lo)
	xOf := func(t time.Time) float64 {
		return doc.Left + doc.PlotW*float64(t.Sub(lo))/float64(span)
	}

	rows := tl.Rows
	if len(rows) == 0 {
		rows = []string{""}
	}
	band := doc.PlotH / float64(len(rows))
	rowIndex := make(map[string]int, len(rows))
	for i, r := range rows {
		rowIndex[r] = i
		doc.Rows = append(doc.Rows, svgRow{Y: doc.Top + band*(float64(i)+0.5), Label: r})
	}

	for _, tick := range axisTicks(lo, hi) {
		doc.Ticks = append(doc.Ticks, svgTick{X: xOf(tick.at), Label: tick.label})
	}

	for _, tr := range tl.Traces {
		for _, b := range tr.Bars {
			i := rowIndex[b.Row]
			x := xOf(b.Start)
			doc.Bars = append(doc.Bars, svgBar{
				X:       x,
				Y:       doc.Top + band*float64(i) + band*(1-barFill)/2,
				W:       max(xOf(b.End)-x, 0),
				H:       band * barFill,
				Color:   tr.Marker.Color,
				Opacity: tr.Marker.Opacity,
				Reason:  tr.Name,
				Tooltip: tooltip(b),
			})
		}
	}

	if err := timelineTmpl.Execute(w, doc); err != nil {
		return fmt.Errorf("render timeline: %w", err)
	}
	return nil
}

type axisTick struct {
	at    time.Time
	label string
}

func axisTicks(lo, hi time.Time) []axisTick {
	span := hi.Sub(lo)
	step := tickSteps[len(tickSteps)-1]
	for _, s := range tickSteps {
		if span/s <= maxAxisTicks {
			step = s
			break
		}
	}

	layout := "15:04"
	if step >= 24*time.Hour {
		layout = "02 Jan"
	}

	var ticks []axisTick
	t := lo.Truncate(step)
	if t.Before(lo) {
		t = t.Add(step)
	}
	for ; !t.After(hi); t = t.Add(step) {
		ticks = append(ticks, axisTick{at: t, label: t.Format(layout)})
	}
	return ticks
}

// tooltip is the plain-text rendering of HoverTemplate for one bar.
func tooltip(b Bar) string {
	e := b.event
	return fmt.Sprintf(
		"State - %s\nReason - %s\nStart - %s\nDuration - %.2f min.\n\nShift day - %s\nShift - %s\nOperator - %s",
		e.State, e.Reason, e.StateBegin.Format(PeriodLayout), e.DurationMin,
		formatShiftDay(e.ShiftDay), e.ShiftName, e.Operator,
	)
}

func formatShiftDay(s string) string {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(tooltipDayForm)
		}
	}
	return s
}
