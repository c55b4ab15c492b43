package health

import (
	"bytes"
	"html/template"
	"time"
)

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(template.FuncMap{
	"unix": func(s int64) string { return time.Unix(s, 0).UTC().Format(time.RFC3339) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <meta http-equiv="refresh" content="30">
  <title>Estate Ledger · API Status</title>
  <style>
    body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; background: #f8f9fa; color: #173e35; margin: 0; padding: 40px 20px; }
    main { max-width: 960px; margin: 0 auto; }
    h1 { font-size: 40px; margin: 0 0 8px; letter-spacing: -1px; }
    .sub { color: #64748b; font-weight: 600; margin-bottom: 28px; }
    .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 16px; }
    section { background: #fff; border-radius: 16px; padding: 24px; box-shadow: 0 10px 40px -20px rgba(0,116,115,.25); }
    h2 { font-size: 11px; text-transform: uppercase; letter-spacing: 2px; color: #94a3b8; margin: 0 0 16px; }
    .row { display: flex; justify-content: space-between; padding: 6px 0; border-bottom: 1px solid #f1f5f9; font-weight: 600; font-size: 14px; }
    .row:last-child { border-bottom: none; }
    .ok { color: #007473; }
    .bad { color: #ef4444; }
    footer { margin-top: 24px; font-family: monospace; font-size: 13px; color: #64748b; }
    a { color: #007473; font-weight: 700; }
  </style>
</head>
<body>
<main>
  {{if eq .Status "ok"}}<h1 class="ok">All Systems Operational</h1>{{else}}<h1 class="bad">Degraded Performance</h1>{{end}}
  <p class="sub">API traffic, dependencies and ledger totals. Raw data at <a href="/health/json">/health/json</a>, recent failures at <a href="/health/errors">/health/errors</a>.</p>
  <div class="grid">
    <section>
      <h2>Traffic</h2>
      <div class="row"><span>Requests</span><span id="total-req">{{.Traffic.TotalRequests}}</span></div>
      <div class="row"><span>Successful</span><span class="ok">{{.Traffic.SuccessCount}}</span></div>
      <div class="row"><span>Failed</span><span class="bad">{{.Traffic.FailedCount}}</span></div>
      <div class="row"><span>Success rate</span><span>{{.Traffic.SuccessRate}}%</span></div>
      <div class="row"><span>Avg latency</span><span>{{.Traffic.AvgResponseTime}} ms</span></div>
    </section>
    <section>
      <h2>Dependencies</h2>
      {{range $name, $dep := .Dependencies}}
      <div class="row"><span>{{$name}}</span><span class="{{if eq $dep.Status "connected"}}ok{{else}}bad{{end}}">{{$dep.Status}}{{with $dep.PingMs}} · {{.}} ms{{end}}</span></div>
      {{end}}
      <div class="row"><span>Uptime</span><span>{{.Runtime.UptimeSeconds}} s</span></div>
      <div class="row"><span>Goroutines</span><span>{{.Runtime.Goroutines}}</span></div>
      <div class="row"><span>Heap</span><span>{{.Runtime.HeapInuseMB}} MB</span></div>
    </section>
    <section>
      <h2>Ledger</h2>
      {{with .Ledger}}
      <div class="row"><span>Properties</span><span id="ledger-props">{{.TotalProperties}} ({{.ActiveProperties}} active)</span></div>
      <div class="row"><span>Value tokenized</span><span>{{.TotalValueTokenized}}</span></div>
      <div class="row"><span>Dividends distributed</span><span>{{.DividendsDistributed}}</span></div>
      <div class="row"><span>Custody</span><span id="ledger-custody">{{.CustodyBalance}}</span></div>
      <div class="row"><span>Snapshot</span><span>{{unix .TakenAt}}</span></div>
      {{else}}
      <div class="row"><span>Custody</span><span id="ledger-custody">no snapshot yet</span></div>
      {{end}}
    </section>
  </div>
  {{with .Traffic.LastRequest}}<footer>last request: {{index . "method"}} {{index . "path"}} from {{index . "ip"}}</footer>{{end}}
</main>
</body>
</html>
`))

// RenderDashboard renders the status page served at GET /.
func RenderDashboard(r Report) (string, error) {
	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}
