// Package report renders selected listings for delivery: an HTML summary
// for the message body and a spreadsheet attachment.
package report

import (
	"bytes"
	"html/template"

	"hybridhunter/internal/errors"
	"hybridhunter/internal/types"
)

var reportTemplate = template.Must(template.New("report").Parse(`<h3>Job Report</h3>
<table border="1" cellpadding="4" cellspacing="0">
<thead><tr><th>Match %</th><th>Title</th><th>Company</th><th>Source</th><th>Location</th></tr></thead>
<tbody>
{{- range .}}
<tr><td>{{.MatchScore}}</td><td><a href="{{.URL}}">{{.Title}}</a></td><td>{{.Company}}</td><td>{{.Source}}</td><td>{{.Location}}</td></tr>
{{- end}}
</tbody>
</table>
`))

// RenderHTML renders the listing table used as the message body. All
// listing text is escaped.
func RenderHTML(listings []types.ScoredListing) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, listings); err != nil {
		return "", errors.NewInternalError(errors.ErrCodeReportRender, "failed to render report", err)
	}
	return buf.String(), nil
}
