// Package runbook reads release runbook files.
//
// A runbook lists the release steps in execution order and marks each one
// enabled or disabled, so operators can switch steps off without touching
// the orchestrator. Lines starting with # are ignored.
//
// CSV format:
//
//	step,enabled,description
//	check-host-status,true,abort unless github is up
//	ensure-clean,true,
//	strip-prerelease-version,true,
//	commit-release-changes,false,enable once the merge is verified
//
// Only the step column is required. An empty enabled cell counts as true. A
// step may appear more than once (checkout-develop runs twice in the full
// runbook).
package runbook

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// Entry is one row of a runbook.
type Entry struct {
	// Step is the registered step name.
	Step string

	// Enabled reports whether the step runs.
	Enabled bool

	// Description is free text for operators.
	Description string
}

// Runbook holds the entries of a runbook file in execution order.
type Runbook struct {
	Entries []Entry
}

// ReadFromFile reads and parses a runbook CSV file from fs.
func ReadFromFile(fs afero.Fs, path string) (*Runbook, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open runbook: %w", err)
	}
	defer f.Close()

	return readFromReader(f)
}

// ReadFromString parses a runbook from a CSV string.
func ReadFromString(data string) (*Runbook, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Runbook, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read runbook header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if _, ok := colIndex["step"]; !ok {
		return nil, fmt.Errorf("runbook missing required column: step")
	}

	var entries []Entry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read runbook: %w", err)
		}
		line, _ := reader.FieldPos(0)

		entry := Entry{
			Step:        getField(record, colIndex, "step"),
			Enabled:     true,
			Description: getField(record, colIndex, "description"),
		}
		if entry.Step == "" {
			return nil, fmt.Errorf("runbook line %d: step name is required", line)
		}
		if raw := getField(record, colIndex, "enabled"); raw != "" {
			enabled, err := strconv.ParseBool(raw)
			if err != nil {
				return nil, fmt.Errorf("runbook line %d: invalid enabled value %q", line, raw)
			}
			entry.Enabled = enabled
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("runbook contains no steps")
	}

	return &Runbook{Entries: entries}, nil
}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// Enabled returns the enabled step names in runbook order, repeats included.
func (r *Runbook) Enabled() []string {
	var steps []string
	for _, e := range r.Entries {
		if e.Enabled {
			steps = append(steps, e.Step)
		}
	}
	return steps
}

// Disabled returns the disabled step names in runbook order.
func (r *Runbook) Disabled() []string {
	var steps []string
	for _, e := range r.Entries {
		if !e.Enabled {
			steps = append(steps, e.Step)
		}
	}
	return steps
}

// Validate reports the first step name for which known returns false.
func (r *Runbook) Validate(known func(string) bool) error {
	for _, e := range r.Entries {
		if !known(e.Step) {
			return fmt.Errorf("runbook references unknown step: %s", e.Step)
		}
	}
	return nil
}
