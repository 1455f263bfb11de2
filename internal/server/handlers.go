package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/runnerr0/shiftboard/internal/figure"
	"github.com/runnerr0/shiftboard/internal/metrics"
)

const svgContentType = "image/svg+xml"

// filterRequest is the body of POST /api/filter. NClicks is null until the
// filter button has been pressed at least once.
type filterRequest struct {
	NClicks  *int     `json:"n_clicks"`
	Selected []string `json:"selected"`
}

// handlePage renders the dashboard. A request carrying a clicks parameter is
// a submission of the filter form and counts as one more press of the button.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tl := figure.NewTimeline(s.views)
	state := figure.Unfiltered
	selected := make(map[string]bool)
	clicks := 0

	if q.Has("clicks") {
		prev, err := parseClicks(q.Get("clicks"))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		clicks = prev + 1
		trig := figure.TriggerFromClicks(&clicks, q["reason"])
		if filtered, ok := s.filter(trig); ok {
			tl = filtered
		}
		state = trig.State()
		for _, reason := range trig.Selection() {
			selected[reason] = true
		}
	}

	var timelineSVG bytes.Buffer
	if err := figure.RenderTimelineSVG(&timelineSVG, tl); err != nil {
		writeError(w, http.StatusInternalServerError, s.internalError("render timeline", err))
		return
	}

	s.render(w, pageData{
		Info:        s.info,
		Selected:    selected,
		Clicks:      clicks,
		PieSVG:      template.HTML(s.pieSVG), //nolint:gosec // produced by our own renderer
		TimelineSVG: template.HTML(timelineSVG.String()),
		State:       state.String(),
		Endpoints:   s.views.Endpoints(),
	})
}

func (s *Server) handlePieSVG(w http.ResponseWriter, r *http.Request) {
	if len(s.pieSVG) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", svgContentType)
	_, _ = w.Write(s.pieSVG)
}

// handleTimelineSVG serves the initial timeline, or, when a clicks parameter
// is present, the result of the filter callback for it.
func (s *Server) handleTimelineSVG(w http.ResponseWriter, r *http.Request) {
	tl := figure.NewTimeline(s.views)
	if r.URL.Query().Has("clicks") {
		trig, err := triggerFromQuery(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		filtered, ok := s.filter(trig)
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		tl = filtered
	}
	s.writeTimelineSVG(w, tl)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.info)
}

func (s *Server) handlePie(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.pie)
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, figure.NewTimeline(s.views))
}

// handleFilter is the filter button callback. It answers 204 while the
// button has never been pressed; otherwise it returns the rebuilt timeline as
// JSON, or as SVG when the client asks for image/svg+xml.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxRequestSize)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid filter request body")
		return
	}

	trig := figure.TriggerFromClicks(req.NClicks, req.Selected)
	tl, ok := s.filter(trig)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("X-Filter-State", trig.State().String())
	if strings.Contains(r.Header.Get("Accept"), svgContentType) {
		s.writeTimelineSVG(w, tl)
		return
	}
	writeJSON(w, http.StatusOK, tl)
}

// filter runs the callback and records its outcome.
func (s *Server) filter(trig figure.Trigger) (*figure.Timeline, bool) {
	tl, ok := figure.Filter(trig, s.views)
	switch {
	case !ok:
		s.metrics.RecordFilter(metrics.OutcomeSkipped)
	case trig.State() == figure.Filtered:
		s.metrics.RecordFilter(metrics.OutcomeFiltered)
	default:
		s.metrics.RecordFilter(metrics.OutcomeUnfiltered)
	}
	s.logger.Debug("filter callback", "trigger", trig.Kind().String(), "selection", trig.Selection())
	return tl, ok
}

func (s *Server) writeTimelineSVG(w http.ResponseWriter, tl *figure.Timeline) {
	var buf bytes.Buffer
	if err := figure.RenderTimelineSVG(&buf, tl); err != nil {
		writeError(w, http.StatusInternalServerError, s.internalError("render timeline", err))
		return
	}
	w.Header().Set("Content-Type", svgContentType)
	_, _ = w.Write(buf.Bytes())
}

// triggerFromQuery reads ?clicks=N&reason=A&reason=B. A missing or zero
// clicks value means the filter button has not been pressed.
func triggerFromQuery(r *http.Request) (figure.Trigger, error) {
	q := r.URL.Query()
	if !q.Has("clicks") {
		return figure.NoTrigger(), nil
	}
	clicks, err := parseClicks(q.Get("clicks"))
	if err != nil {
		return figure.Trigger{}, err
	}
	return figure.TriggerFromClicks(&clicks, q["reason"]), nil
}

// parseClicks parses a click counter; an empty value is zero and negative
// values are clamped to zero.
func parseClicks(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid clicks value %q", raw)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}
