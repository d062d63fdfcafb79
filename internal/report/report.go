// Package report projects the ledger into operator-facing documents: the
// HTML music status report and the plain-text entry sheet.
package report

import (
	"fmt"
	"html/template"
	"io"
	"math"
	"path/filepath"
	"sort"
	"time"

	"medley/internal/catalog"
	"medley/internal/ledger"
	"medley/internal/mediacache"
)

// Row is one confirmed registration in a media-expecting slot.
type Row struct {
	Name        string
	Affiliation string
	// DurationSeconds is zero when the converted asset is absent or
	// unreadable.
	DurationSeconds float64
	Submissions     int
	// AssetName is the converted file's base name, empty when not yet
	// materialized.
	AssetName string
	// AssetHref links to the asset relative to the report's own directory,
	// so links stay valid wherever the report is written.
	AssetHref string
}

// HasAsset reports whether a converted asset exists for the row.
func (r Row) HasAsset() bool {
	return r.AssetName != ""
}

// Duration renders the asset length as m:ss.
func (r Row) Duration() string {
	return FormatDuration(r.DurationSeconds)
}

// Section groups a slot's rows.
type Section struct {
	Slot catalog.Slot
	Rows []Row
}

// Bounds renders the slot's allowed music length range.
func (s Section) Bounds() string {
	if s.Slot.MinLength > 0 {
		return fmt.Sprintf("%s to %s", FormatDuration(float64(s.Slot.MinLength)), FormatDuration(float64(s.Slot.MaxLength)))
	}
	return "up to " + FormatDuration(float64(s.Slot.MaxLength))
}

// Report is the full projection, ready to render.
type Report struct {
	GeneratedAt time.Time
	Sections    []Section
}

// FormatDuration renders seconds as m:ss, rounding to whole seconds.
func FormatDuration(seconds float64) string {
	if seconds <= 0 {
		return "0:00"
	}
	total := int(math.Round(seconds))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// DurationReader measures a media file's length in seconds.
type DurationReader func(path string) (float64, error)

// Build projects confirmed registrations in media-expecting slots, sorted by
// slot name and competitor name. Asset links are made relative to reportPath's
// directory. Duration read failures degrade to a zero duration rather than
// failing the report.
func Build(l *ledger.Ledger, cache *mediacache.Cache, reportPath string, readDuration DurationReader) Report {
	reportDir := filepath.Dir(reportPath)
	cat := l.Catalog()
	report := Report{GeneratedAt: time.Now()}

	var slots []catalog.SlotID
	for _, slot := range cat.Slots() {
		if id, ok := cat.Lookup(slot.Name); ok && slot.ExpectsMedia() {
			slots = append(slots, id)
		}
	}
	sort.Slice(slots, func(i, j int) bool {
		return cat.Slot(slots[i]).Name < cat.Slot(slots[j]).Name
	})

	for _, slotID := range slots {
		slot := cat.Slot(slotID)
		section := Section{Slot: slot}
		for _, id := range l.BySlot(slotID) {
			reg := l.Registration(id)
			if !reg.Confirmed {
				continue
			}
			competitor := l.Roster().Competitor(reg.Competitor)
			row := Row{
				Name:        competitor.FullName(),
				Affiliation: competitor.Affiliation,
				Submissions: len(reg.Submissions()),
			}
			if asset, ok := cache.LocateConverted(reg.Key); ok {
				row.AssetName = filepath.Base(asset)
				row.AssetHref = assetHref(reportDir, asset)
				if readDuration != nil {
					if seconds, err := readDuration(asset); err == nil {
						row.DurationSeconds = seconds
					}
				}
			}
			section.Rows = append(section.Rows, row)
		}
		if len(section.Rows) == 0 {
			continue
		}
		sort.Slice(section.Rows, func(i, j int) bool {
			return section.Rows[i].Name < section.Rows[j].Name
		})
		report.Sections = append(report.Sections, section)
	}
	return report
}

// assetHref resolves an asset path relative to the report's directory. When
// the report sits next to the assets this is just the base name.
func assetHref(reportDir, asset string) string {
	rel, err := filepath.Rel(reportDir, asset)
	if err != nil {
		return filepath.ToSlash(asset)
	}
	return filepath.ToSlash(rel)
}

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Music Status</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; margin-bottom: 2em; }
th, td { border: 1px solid #999; padding: 0.3em 0.8em; text-align: left; }
th { background: #eee; }
.missing { color: #a00; }
</style>
</head>
<body>
<h1>Music Status</h1>
<p>Generated {{.GeneratedAt.Format "2006-01-02 15:04"}}</p>
{{range .Sections}}
<h2>{{.Slot.Name}}</h2>
<p>Allowed length: {{.Bounds}}</p>
<table>
<tr><th>Skater</th><th>Affiliation</th><th>Music</th><th>Length</th><th>Submissions</th></tr>
{{range .Rows}}
<tr>
<td>{{.Name}}</td>
<td>{{.Affiliation}}</td>
{{if .HasAsset}}<td><a href="{{.AssetHref}}">{{.AssetName}}</a></td><td>{{.Duration}}</td>{{else}}<td class="missing" colspan="2">no music</td>{{end}}
<td>{{.Submissions}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`))

// WriteHTML renders the report.
func (r Report) WriteHTML(w io.Writer) error {
	return htmlTemplate.Execute(w, r)
}
