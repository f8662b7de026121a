package changelog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGenerator(t *testing.T) {
	g, err := NewGenerator("", true)
	require.NoError(t, err)
	assert.Equal(t, PresetAngular, g.preset)

	_, err = NewGenerator("eslint", true)
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestGenerator_Parse(t *testing.T) {
	tests := []struct {
		name          string
		message       string
		includeMerges bool
		want          Entry
		wantOK        bool
	}{
		{
			name:    "type and scope",
			message: "feat(api): add endpoint",
			want:    Entry{Hash: "h", Type: "feat", Scope: "api", Subject: "add endpoint"},
			wantOK:  true,
		},
		{
			name:    "no scope",
			message: "fix: handle nil config\n\nlonger body",
			want:    Entry{Hash: "h", Type: "fix", Subject: "handle nil config"},
			wantOK:  true,
		},
		{
			name:    "breaking footer",
			message: "feat(core): new storage\n\nBREAKING CHANGE: old files are not read",
			want:    Entry{Hash: "h", Type: "feat", Scope: "core", Subject: "new storage", Breaking: "old files are not read"},
			wantOK:  true,
		},
		{
			name:    "breaking bang",
			message: "refactor!: drop node 8",
			want:    Entry{Hash: "h", Type: "refactor", Subject: "drop node 8", Breaking: "drop node 8"},
			wantOK:  true,
		},
		{
			name:    "free form message",
			message: "updated some stuff",
			wantOK:  false,
		},
		{
			name:          "merge commit included",
			message:       "Merge pull request #42 from acme/feature\n\nfeat(ui): dark mode",
			includeMerges: true,
			want:          Entry{Hash: "h", Type: "feat", Scope: "ui", Subject: "dark mode", PR: "42"},
			wantOK:        true,
		},
		{
			name:          "merge commit excluded",
			message:       "Merge pull request #42 from acme/feature\n\nfeat(ui): dark mode",
			includeMerges: false,
			wantOK:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGenerator(PresetAngular, tt.includeMerges)
			require.NoError(t, err)

			got, ok := g.Parse(Commit{Hash: "h", Message: tt.message})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestGenerator_Render(t *testing.T) {
	g, err := NewGenerator(PresetAngular, true)
	require.NoError(t, err)

	commits := []Commit{
		{Hash: "abcdef1234", Message: "feat(api): add x"},
		{Hash: "1234567890", Message: "fix: crash on start"},
		{Hash: "0000000000", Message: "chore: bump deps"},
		{Hash: "deadbeef00", Message: "feat!: drop node 8"},
		{Hash: "ffffffffff", Message: "[release] set version number to 1.3.0"},
	}
	date := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

	got, err := g.Render("1.4.0", date, commits)
	require.NoError(t, err)

	want := "## 1.4.0 (2026-10-19)\n" +
		"\n### Features\n\n" +
		"* **api:** add x (abcdef1)\n" +
		"* drop node 8 (deadbee)\n" +
		"\n### Bug Fixes\n\n" +
		"* crash on start (1234567)\n" +
		"\n### BREAKING CHANGES\n\n" +
		"* drop node 8\n"
	assert.Equal(t, want, got)
	assert.NotContains(t, got, "bump deps")
}

func TestGenerator_Notes_Empty(t *testing.T) {
	g, err := NewGenerator(PresetAngular, false)
	require.NoError(t, err)

	notes := g.Notes("0.1.0", time.Now(), nil)
	assert.Empty(t, notes.Sections)
	assert.Empty(t, notes.Breaking)
}
