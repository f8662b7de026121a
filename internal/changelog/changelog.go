// Package changelog turns commit history into release notes.
//
// Commits are parsed with the angular commit convention:
//
//	<type>(<scope>)!: <subject>
//
//	<body>
//
//	BREAKING CHANGE: <note>
//
// Only feat, fix, perf and revert commits appear in the notes, plus any commit
// carrying a breaking change. Merge commits ("Merge pull request #N from ...")
// are parsed from the first line of their body when merges are included.
package changelog

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"text/template"
	"time"
)

// PresetAngular is the only supported commit convention.
const PresetAngular = "angular"

// ErrUnknownPreset indicates a commit convention other than [PresetAngular].
var ErrUnknownPreset = errors.New("unknown changelog preset")

var (
	headerPattern   = regexp.MustCompile(`^(\w*)(?:\(([\w$.\-*/ ]*)\))?(!)?: (.*)$`)
	mergePattern    = regexp.MustCompile(`^Merge pull request #(\d+) from (.*)$`)
	breakingPattern = regexp.MustCompile(`(?m)^BREAKING[ -]CHANGES?:\s*([\s\S]*)`)
)

// Commit is a raw commit as read from the repository.
type Commit struct {
	Hash    string
	Message string
}

// Entry is a commit parsed with the angular convention.
type Entry struct {
	Hash     string
	Type     string
	Scope    string
	Subject  string
	Breaking string
	PR       string
}

// ShortHash returns the first seven characters of the commit hash.
func (e Entry) ShortHash() string {
	if len(e.Hash) > 7 {
		return e.Hash[:7]
	}
	return e.Hash
}

// Section is a titled group of entries.
type Section struct {
	Title   string
	Entries []Entry
}

// Notes is the structured release notes for one version.
type Notes struct {
	Version  string
	Date     string
	Sections []Section
	Breaking []Entry
}

// sectionTitles maps commit types to the section they appear in, in output order.
var sectionTitles = []struct {
	Type  string
	Title string
}{
	{"feat", "Features"},
	{"fix", "Bug Fixes"},
	{"perf", "Performance Improvements"},
	{"revert", "Reverts"},
}

// Generator renders release notes for a commit convention.
type Generator struct {
	preset        string
	includeMerges bool
}

// NewGenerator creates a [Generator] for preset. An empty preset means angular.
func NewGenerator(preset string, includeMerges bool) (*Generator, error) {
	if preset == "" {
		preset = PresetAngular
	}
	if preset != PresetAngular {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	return &Generator{preset: preset, includeMerges: includeMerges}, nil
}

// Parse parses one commit. ok is false when the header does not follow the convention.
func (g *Generator) Parse(c Commit) (Entry, bool) {
	header, body, _ := strings.Cut(strings.TrimSpace(c.Message), "\n")
	header = strings.TrimSpace(header)

	var pr string
	if m := mergePattern.FindStringSubmatch(header); m != nil {
		if !g.includeMerges {
			return Entry{}, false
		}
		pr = m[1]
		body = strings.TrimSpace(body)
		header, body, _ = strings.Cut(body, "\n")
		header = strings.TrimSpace(header)
	}

	m := headerPattern.FindStringSubmatch(header)
	if m == nil {
		return Entry{}, false
	}

	e := Entry{
		Hash:    c.Hash,
		Type:    strings.ToLower(m[1]),
		Scope:   m[2],
		Subject: strings.TrimSpace(m[4]),
		PR:      pr,
	}
	if bm := breakingPattern.FindStringSubmatch(body); bm != nil {
		e.Breaking = strings.TrimSpace(bm[1])
	} else if m[3] == "!" {
		e.Breaking = e.Subject
	}
	return e, true
}

// Notes groups commits into sections. Commits that do not follow the
// convention, or whose type has no section and no breaking change, are dropped.
func (g *Generator) Notes(ver string, date time.Time, commits []Commit) Notes {
	byType := make(map[string][]Entry)
	var breaking []Entry

	for _, c := range commits {
		e, ok := g.Parse(c)
		if !ok {
			continue
		}
		if e.Breaking != "" {
			breaking = append(breaking, e)
		}
		byType[e.Type] = append(byType[e.Type], e)
	}

	notes := Notes{
		Version:  ver,
		Date:     date.Format("2006-01-02"),
		Breaking: breaking,
	}
	for _, st := range sectionTitles {
		if entries := byType[st.Type]; len(entries) > 0 {
			notes.Sections = append(notes.Sections, Section{Title: st.Title, Entries: entries})
		}
	}
	return notes
}

var notesTemplate = template.Must(template.New("notes").Parse(
	`## {{.Version}} ({{.Date}})
{{range .Sections}}
### {{.Title}}

{{range .Entries}}* {{if .Scope}}**{{.Scope}}:** {{end}}{{.Subject}}{{if .PR}} (#{{.PR}}){{end}} ({{.ShortHash}})
{{end}}{{end}}{{if .Breaking}}
### BREAKING CHANGES

{{range .Breaking}}* {{if .Scope}}**{{.Scope}}:** {{end}}{{.Breaking}}
{{end}}{{end}}`))

// Render produces markdown release notes.
func (g *Generator) Render(ver string, date time.Time, commits []Commit) (string, error) {
	var buf bytes.Buffer
	if err := notesTemplate.Execute(&buf, g.Notes(ver, date, commits)); err != nil {
		return "", fmt.Errorf("failed to render release notes: %w", err)
	}
	return buf.String(), nil
}
