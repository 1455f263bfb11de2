package server

import (
	"html/template"
	"net/http"

	"github.com/runnerr0/shiftboard/internal/figure"
)

type pageData struct {
	Info        figure.InfoPanel
	Selected    map[string]bool
	Clicks      int
	PieSVG      template.HTML
	TimelineSVG template.HTML
	State       string
	Endpoints   []string
}

var pageTmpl = template.Must(template.New("page").Parse(tmplPage))

func (s *Server) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, data); err != nil {
		s.logger.Error("template error", "error", err)
	}
}

// ── Page ──────────────────────────────────────────────────────────────────────

const tmplPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>{{.Info.ClientName}} · {{.Info.EndpointName}}</title>
<style>
*{box-sizing:border-box;margin:0;padding:0}
body{font-family:system-ui,sans-serif;background:#f1f3f5;color:#212529;font-size:14px;line-height:1.5}
main{padding:24px;display:grid;grid-template-columns:1fr 1fr;gap:24px}
.card{background:#fff;border:1px solid #dee2e6;border-radius:8px;box-shadow:0 1px 3px rgba(0,0,0,.06);padding:16px;height:400px;overflow:hidden}
.card.wide{grid-column:1 / span 2;height:auto}
h1{font-size:28px;font-weight:700;margin-bottom:12px}
.field{font-weight:700;margin-bottom:4px}
.warn{color:#e8590c;font-size:12px;margin-bottom:8px}
select{width:100%;min-height:96px;margin:12px 0 10px;border:1px solid #ced4da;border-radius:4px;padding:4px;font:inherit}
button{background:#228be6;border:none;color:#fff;padding:6px 16px;border-radius:4px;cursor:pointer;font:inherit}
button:hover{background:#1c7ed6}
.pie{display:flex;justify-content:center}
.pie svg{max-height:368px}
.filter-state{margin-left:8px;color:#868e96;font-size:12px}
</style>
</head>
<body>
<main>
<section class="card">
<h1>Client: {{.Info.ClientName}}</h1>
<div class="field">Shift day: {{.Info.ShiftDay}}</div>
<div class="field">Endpoint: {{.Info.EndpointName}}</div>
{{if gt (len .Endpoints) 1}}<div class="warn">Dataset spans {{len .Endpoints}} endpoints; the card shows the first.</div>{{end}}
<div class="field">Period start: {{.Info.Begin}}</div>
<div class="field">Period end: {{.Info.End}}</div>
<form method="get" action="/" id="filter_form">
<select id="{{.Info.SelectID}}" name="reason" multiple aria-label="{{.Info.Placeholder}}" title="{{.Info.Placeholder}}">
{{range .Info.Options}}<option value="{{.}}"{{if index $.Selected .}} selected{{end}}>{{.}}</option>
{{end}}</select>
<input type="hidden" name="clicks" id="clicks" value="{{.Clicks}}">
<button type="submit" id="{{.Info.ButtonID}}">{{.Info.ButtonLabel}}</button><span class="filter-state" id="filter_state">{{.State}}</span>
</form>
</section>
<section class="card pie">{{if .PieSVG}}{{.PieSVG}}{{else}}<p>No durations recorded.</p>{{end}}</section>
<section class="card wide"><div id="chart">{{.TimelineSVG}}</div></section>
</main>
<script>
(function(){
  var form=document.getElementById("filter_form");
  var clicks=document.getElementById("clicks");
  var select=document.getElementById({{.Info.SelectID}});
  var output=document.getElementById("chart");
  var state=document.getElementById("filter_state");
  form.addEventListener("submit",function(ev){
    ev.preventDefault();
    clicks.value=String((parseInt(clicks.value,10)||0)+1);
    var selected=Array.prototype.filter.call(select.options,function(o){return o.selected}).map(function(o){return o.value});
    fetch("/api/filter",{method:"POST",headers:{"Content-Type":"application/json","Accept":"image/svg+xml"},
      body:JSON.stringify({n_clicks:parseInt(clicks.value,10),selected:selected})})
      .then(function(resp){
        if(resp.status===204){return}
        state.textContent=resp.headers.get("X-Filter-State")||"";
        return resp.text().then(function(svg){output.innerHTML=svg});
      });
  });
})();
</script>
</body>
</html>
`
