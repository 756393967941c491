package report

// htmlTemplate is the main HTML template for the report
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Name}} - Load Test Report</title>
    <script src="https://cdn.jsdelivr.net/npm/chart.js"></script>
    <style>
        :root {
            --bg: #f8fafc;
            --card: #ffffff;
            --text: #1e293b;
            --muted: #64748b;
            --border: #e2e8f0;
            --accent: #3b82f6;
            --success: #22c55e;
            --error: #ef4444;
        }
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: var(--bg);
            color: var(--text);
            line-height: 1.6;
        }
        .container { max-width: 1200px; margin: 0 auto; padding: 2rem; }
        .card {
            background: var(--card);
            border-radius: 12px;
            padding: 1.5rem;
            margin-bottom: 1.5rem;
            box-shadow: 0 1px 3px rgba(0, 0, 0, 0.1);
        }
        .header { display: flex; justify-content: space-between; align-items: center; }
        .meta { color: var(--muted); font-size: 0.875rem; }
        .status { font-weight: 700; padding: 0.5rem 1rem; border-radius: 8px; color: #fff; }
        .status.pass { background: var(--success); }
        .status.fail { background: var(--error); }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(160px, 1fr)); gap: 1rem; }
        .metric .label { color: var(--muted); font-size: 0.75rem; text-transform: uppercase; }
        .metric .value { font-size: 1.5rem; font-weight: 700; }
        .unit { font-size: 0.875rem; color: var(--muted); margin-left: 0.25rem; }
        h2 { font-size: 1.125rem; margin-bottom: 1rem; }
        table { width: 100%; border-collapse: collapse; font-size: 0.875rem; }
        th, td { padding: 0.5rem; border-bottom: 1px solid var(--border); text-align: right; }
        th:nth-child(-n+2), td:nth-child(-n+2) { text-align: left; }
        td.fail { color: var(--error); }
        .charts { display: grid; grid-template-columns: repeat(auto-fit, minmax(400px, 1fr)); gap: 1.5rem; }
        .threshold.pass { color: var(--success); }
        .threshold.fail { color: var(--error); }
        footer { text-align: center; color: var(--muted); font-size: 0.75rem; }
    </style>
</head>
<body>
<div class="container">
    <div class="card header">
        <div>
            <h1>{{.Name}}</h1>
            {{if .Description}}<p>{{.Description}}</p>{{end}}
            <p class="meta">{{.Host}} · {{.Profile}} · wait {{.WaitTime}} · {{.Executor}}</p>
            <p class="meta">{{.StartTime.Format "2006-01-02 15:04:05"}} · {{formatDuration .Duration}} · run {{.RunID}}</p>
        </div>
        <div class="status {{if .Passed}}pass{{else}}fail{{end}}">
            {{if .Passed}}✓ PASSED{{else}}✗ FAILED{{end}}
        </div>
    </div>

    {{if .Error}}<div class="card"><h2>Run error</h2><p>{{.Error}}</p></div>{{end}}

    {{with .Metrics}}
    <div class="card grid">
        <div class="metric"><div class="label">Total Requests</div><div class="value">{{formatNumber .TotalRequests}}</div></div>
        <div class="metric"><div class="label">Throughput</div><div class="value">{{printf "%.1f" .RPS}}<span class="unit">req/s</span></div></div>
        <div class="metric"><div class="label">Failures</div><div class="value">{{printf "%.2f" (mul .ErrorRate 100)}}<span class="unit">%</span></div></div>
        <div class="metric"><div class="label">Success Rate</div><div class="value">{{printf "%.2f" (successRate .)}}<span class="unit">%</span></div></div>
        <div class="metric"><div class="label">P95 Latency</div><div class="value">{{formatLatency .Latency.P95}}</div></div>
        <div class="metric"><div class="label">Received</div><div class="value">{{formatBytes .TotalBytes}}</div></div>
    </div>
    {{end}}

    {{if .Entries}}
    <div class="card">
        <h2>Request Statistics</h2>
        <table>
            <thead>
                <tr><th>Type</th><th>Name</th><th># reqs</th><th># fails</th><th>Avg</th><th>Min</th><th>Max</th><th>P50</th><th>P95</th><th>P99</th></tr>
            </thead>
            <tbody>
                {{range .Entries}}
                <tr>
                    <td>{{.Method}}</td>
                    <td>{{.Name}}</td>
                    <td>{{formatNumber .Requests}}</td>
                    <td{{if .Failures}} class="fail"{{end}}>{{.Failures}} ({{printf "%.2f" (failRate .)}}%)</td>
                    <td>{{formatLatency .Latency.Mean}}</td>
                    <td>{{formatLatency .Latency.Min}}</td>
                    <td>{{formatLatency .Latency.Max}}</td>
                    <td>{{formatLatency .Latency.P50}}</td>
                    <td>{{formatLatency .Latency.P95}}</td>
                    <td>{{formatLatency .Latency.P99}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .Failures}}
    <div class="card">
        <h2>Failures</h2>
        <table>
            <thead><tr><th>Type</th><th>Name</th><th>Error</th><th>Occurrences</th></tr></thead>
            <tbody>
                {{range .Failures}}
                <tr><td>{{.Method}}</td><td>{{.Name}}</td><td style="text-align:left">{{.Error}}</td><td>{{.Occurrences}}</td></tr>
                {{end}}
            </tbody>
        </table>
    </div>
    {{end}}

    {{if .TimeSeries}}
    <div class="charts">
        <div class="card"><h2>Requests per Second</h2><canvas id="rpsChart"></canvas></div>
        <div class="card"><h2>Response Times</h2><canvas id="latencyChart"></canvas></div>
        <div class="card"><h2>Users</h2><canvas id="vusChart"></canvas></div>
    </div>
    {{end}}

    {{if .Thresholds}}
    <div class="card">
        <h2>Thresholds</h2>
        {{range .Thresholds}}
        <p class="threshold {{if .Passed}}pass{{else}}fail{{end}}">
            {{if .Passed}}✓{{else}}✗{{end}} {{.Metric}} {{.Expression}} (actual: {{.Value}}){{if .Message}} · {{.Message}}{{end}}
        </p>
        {{end}}
    </div>
    {{end}}

    <footer>Generated by prayerload · {{.EndTime.Format "2006-01-02 15:04:05 MST"}}</footer>
</div>
<script>
    const timeSeriesData = {{.TimeSeriesJSON}};
    if (timeSeriesData.length > 0 && typeof Chart !== 'undefined') {
        const labels = timeSeriesData.map(p => new Date(p.timestamp).toLocaleTimeString());
        const ms = ns => ns / 1e6;
        const line = (id, datasets) => new Chart(document.getElementById(id), {
            type: 'line',
            data: { labels, datasets },
            options: { animation: false, scales: { y: { beginAtZero: true } } }
        });
        line('rpsChart', [{ label: 'req/s', data: timeSeriesData.map(p => p.intervalRPS), borderColor: '#3b82f6' }]);
        line('latencyChart', [
            { label: 'P50 (ms)', data: timeSeriesData.map(p => ms(p.latencyP50)), borderColor: '#22c55e' },
            { label: 'P95 (ms)', data: timeSeriesData.map(p => ms(p.latencyP95)), borderColor: '#f59e0b' },
            { label: 'P99 (ms)', data: timeSeriesData.map(p => ms(p.latencyP99)), borderColor: '#ef4444' }
        ]);
        line('vusChart', [{ label: 'users', data: timeSeriesData.map(p => p.activeVUs), borderColor: '#8b5cf6' }]);
    }
</script>
</body>
</html>
`
