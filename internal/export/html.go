package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/joseph-ayodele/deal-analyzer/internal/entity"
	"github.com/joseph-ayodele/deal-analyzer/internal/metrics"
)

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Deal Analysis: {{.FileName}}</title>
<style>
body{font-family:system-ui,sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;color:#222}
table{border-collapse:collapse}td,th{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}
pre{white-space:pre-wrap;background:#f6f6f6;padding:.8rem}
.status{color:#666;font-size:.9rem}
</style>
</head>
<body>
<h1>{{.FileName}}</h1>
<p class="status">{{.Status}} · {{.CreatedAt}}{{with .Model}} · {{.}}{{end}}</p>
{{with .Goal}}<p><strong>Goal:</strong> {{.}}</p>{{end}}
<h2>Detected Deal Metrics</h2>
{{if .Metrics}}<table>
<tr><th>Metric</th><th>Value</th></tr>
{{range .Metrics}}<tr><td>{{.Label}}</td><td>{{.Value}}</td></tr>
{{end}}</table>{{else}}<p>No metrics detected.</p>{{end}}
<h2>Deal Analysis</h2>
{{if .Narrative}}{{.Narrative}}{{else}}<p>No analysis available.{{with .Error}} {{.}}{{end}}</p>{{end}}
{{with .Preview}}<h2>Extracted Preview</h2>
<pre>{{.}}</pre>{{end}}
</body>
</html>
`))

type reportView struct {
	FileName  string
	Status    string
	CreatedAt string
	Model     string
	Goal      string
	Metrics   []metrics.Metric
	Narrative template.HTML
	Error     string
	Preview   string
}

// RenderMarkdown converts model markdown to HTML. Raw HTML in the input is dropped.
func RenderMarkdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return template.HTML(buf.String()), nil
}

// AnalysisHTML renders a standalone report page for one analysis.
func AnalysisHTML(a *entity.Analysis) ([]byte, error) {
	v := reportView{
		FileName:  a.FileName,
		Status:    string(a.Status),
		CreatedAt: a.CreatedAt.UTC().Format("2006-01-02 15:04 MST"),
		Goal:      a.Goal,
		Metrics:   a.Metrics.Entries(),
	}
	if a.Model != nil {
		v.Model = *a.Model
	}
	if a.ErrorMessage != nil {
		v.Error = *a.ErrorMessage
	}
	if a.TextPreview != nil {
		v.Preview = *a.TextPreview
	}
	if n := a.NarrativeText(); n != "" {
		h, err := RenderMarkdown(n)
		if err != nil {
			return nil, err
		}
		v.Narrative = h
	}

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, v); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	return buf.Bytes(), nil
}
