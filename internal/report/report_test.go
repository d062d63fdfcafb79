package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medley/internal/catalog"
	"medley/internal/config"
	"medley/internal/identity"
	"medley/internal/ledger"
	"medley/internal/logging"
	"medley/internal/mediacache"
)

func fixture(t *testing.T) (*ledger.Ledger, *mediacache.Cache, string) {
	t.Helper()
	cat := catalog.New([]catalog.Slot{
		catalog.NewSlot("Juvenile", "Female", "Short Program", 0, 150),
		catalog.NewSlot("Senior", "", "Free Dance", 150, 210),
		catalog.NewSlot("Collegiate", "", "Team Maneuvers", 0, 0),
	})
	roster := identity.NewRoster()
	l := ledger.New(roster, cat)

	dir := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = dir
	cfg.Paths.RawDir = filepath.Join(dir, "raw")
	cfg.Paths.ConvertedDir = filepath.Join(dir, "music")
	cfg.Paths.ReportPath = filepath.Join(cfg.Paths.ConvertedDir, "index.html")
	if err := os.MkdirAll(cfg.Paths.ConvertedDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cache := mediacache.New(&cfg, logging.NewNop())

	jordan, _ := roster.ResolveOrCreate("100", "Jordan", "Smith", "jordan@example.edu")
	roster.SetAffiliation(jordan, "State University")
	casey, _ := roster.ResolveOrCreate("102", "Casey", "Wright", "casey@example.edu")
	roster.SetAffiliation(casey, "Tech")

	sp, _ := cat.Lookup("Juvenile Ladies Short Program")
	fd, _ := cat.Lookup("Senior Free Dance")

	jr := l.Register(jordan, sp)
	l.Confirm(jr)
	l.Attach(jr, ledger.Submission{Locator: "https://example.com/a.mp3", SourceIndex: 1})
	cr := l.Register(casey, fd)
	l.Confirm(cr)
	l.Register(jordan, fd) // unconfirmed, must not appear

	// Materialize Jordan's converted asset.
	asset := cache.ConvertedPath(l.Registration(jr).Key)
	if err := os.WriteFile(asset, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write asset: %v", err)
	}
	return l, cache, cfg.Paths.ReportPath
}

func TestBuild(t *testing.T) {
	l, cache, reportPath := fixture(t)
	rep := Build(l, cache, reportPath, func(path string) (float64, error) {
		return 148.7, nil
	})

	if len(rep.Sections) != 2 {
		t.Fatalf("sections = %d, want 2", len(rep.Sections))
	}
	// Sorted by slot name: Juvenile before Senior; Team Maneuvers excluded
	// as it expects no media.
	sp := rep.Sections[0]
	if sp.Slot.Name != "Juvenile Ladies Short Program" {
		t.Fatalf("first section = %q", sp.Slot.Name)
	}
	if len(sp.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(sp.Rows))
	}
	row := sp.Rows[0]
	if !row.HasAsset() {
		t.Fatal("asset not located")
	}
	if row.Duration() != "2:29" {
		t.Fatalf("duration = %q, want 2:29", row.Duration())
	}
	if row.Submissions != 1 {
		t.Fatalf("submissions = %d, want 1", row.Submissions)
	}

	fd := rep.Sections[1]
	if fd.Slot.Name != "Senior Free Dance" {
		t.Fatalf("second section = %q", fd.Slot.Name)
	}
	if len(fd.Rows) != 1 {
		t.Fatalf("unconfirmed registration leaked: %d rows", len(fd.Rows))
	}
	if fd.Rows[0].HasAsset() {
		t.Fatal("missing asset reported as present")
	}
	if fd.Rows[0].Duration() != "0:00" {
		t.Fatalf("missing asset duration = %q", fd.Rows[0].Duration())
	}
}

func TestWriteHTML(t *testing.T) {
	l, cache, reportPath := fixture(t)
	rep := Build(l, cache, reportPath, func(string) (float64, error) { return 150, nil })

	var buf bytes.Buffer
	if err := rep.WriteHTML(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		"Juvenile Ladies Short Program",
		"Jordan Smith",
		"State University",
		"2:30",
		"no music",
		"up to 2:30",
		"2:30 to 3:30",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("report missing %q:\n%s", want, html)
		}
	}
}

func TestAssetLinksResolveFromReportDirectory(t *testing.T) {
	l, cache, reportPath := fixture(t)
	rep := Build(l, cache, reportPath, nil)

	var buf bytes.Buffer
	if err := rep.WriteHTML(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	html := buf.String()

	// The report lives inside the converted directory by default, so the
	// link must be the bare file name and resolve next to the report.
	start := strings.Index(html, `href="`)
	if start < 0 {
		t.Fatalf("no asset link rendered:\n%s", html)
	}
	start += len(`href="`)
	end := strings.Index(html[start:], `"`)
	if end < 0 {
		t.Fatalf("unterminated href:\n%s", html)
	}
	href := html[start : start+end]
	if strings.Contains(href, "/") {
		t.Fatalf("href = %q, want bare file name", href)
	}
	target := filepath.Join(filepath.Dir(reportPath), filepath.FromSlash(href))
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("linked asset %s: %v", target, err)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{-3, "0:00"},
		{59.4, "0:59"},
		{59.6, "1:00"},
		{150, "2:30"},
		{210, "3:30"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.seconds); got != tc.want {
			t.Fatalf("FormatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestWriteEntrySheet(t *testing.T) {
	l, _, _ := fixture(t)
	var buf bytes.Buffer
	if err := WriteEntrySheet(&buf, l); err != nil {
		t.Fatalf("write entry sheet: %v", err)
	}
	got := buf.String()
	want := "Juvenile Ladies Short Program\n" +
		"Jordan Smith\tState University\n" +
		"\n" +
		"Senior Free Dance\n" +
		"Casey Wright\tTech\n" +
		"Jordan Smith\tState University\n" +
		"\n"
	if got != want {
		t.Fatalf("entry sheet:\n%q\nwant:\n%q", got, want)
	}
}
