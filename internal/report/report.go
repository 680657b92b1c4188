// Package report renders a plain-text summary of a record and its matches.
package report

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gcbaptista/go-lostfound/model"
)

// Line is one match row.
type Line struct {
	Type    string
	Name    string
	Score   string
	Place   string
	Contact string
}

// Report is the data behind a rendered report.
type Report struct {
	Title       string
	Submitted   string
	Place       string
	Contact     string
	Description []string
	Matches     []Line
	EmptyReason string
}

var titleCaser = cases.Title(language.English)

const reportTemplate = `{{.Title}}
Submitted: {{.Submitted}} | Place: {{.Place}} | Contact: {{.Contact}}

Description:
{{- range .Description}}
  {{.}}
{{- else}}
  -
{{- end}}

Matches:
{{- range .Matches}}
- {{.Type}} | {{.Name}} | Score: {{.Score}} | Place: {{.Place}} | Contact: {{.Contact}}
{{- else}}
  none{{if .EmptyReason}} ({{.EmptyReason}}){{end}}
{{- end}}
`

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

// Build assembles the report for source. Matches are kept in the order given.
func Build(source model.Item, set *model.MatchSet) Report {
	r := Report{
		Title:     fmt.Sprintf("Lost & Found Report for %s - %s", titleCaser.String(string(source.Type)), source.NameText()),
		Submitted: source.Date,
		Place:     source.PlaceText(),
		Contact:   source.Contact,
	}
	if desc := strings.TrimSpace(source.DescriptionText()); desc != "" {
		r.Description = strings.Split(desc, "\n")
	}
	if set == nil {
		return r
	}
	if set.Reason == model.EmptyReasonEmptyCorpus {
		r.EmptyReason = "no " + string(source.Type.Opposite()) + " items on record"
	}
	r.Matches = make([]Line, len(set.Matches))
	for i, m := range set.Matches {
		r.Matches[i] = Line{
			Type:    titleCaser.String(string(m.Type)),
			Name:    m.NameText(),
			Score:   fmt.Sprintf("%.2f", m.Score),
			Place:   m.PlaceText(),
			Contact: m.Contact,
		}
	}
	return r
}

// Render writes r as text.
func Render(w io.Writer, r Report) error {
	if err := tmpl.Execute(w, r); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}
