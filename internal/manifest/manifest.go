// Package manifest reads criteria manifest files.
//
// A criteria manifest catalogs the exit criteria that gate each stage
// transition. It lets a deployment replace the built-in criteria table without
// rebuilding the binary.
//
// CSV format:
//
//	criterion,from,to,label
//	staging,V1,V2,Link pra Staging
//	bugs_critical,V2,V3,Sem bugs high/highest
//	active_users_1,V2,V3,Pelo menos 3 usuarios
//
// Rows are ordered by evaluation order: blocking criteria are reported in the
// order they appear. The label column is optional.
package manifest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// requiredColumns must be present in the manifest header.
var requiredColumns = []string{"criterion", "from", "to"}

// CriterionEntry represents a single row in the criteria manifest CSV.
type CriterionEntry struct {
	// Criterion is the criterion key (e.g., "uptime_95").
	Criterion string

	// From is the stage the transition starts at (e.g., "V3").
	From string

	// To is the stage the transition ends at (e.g., "V4").
	To string

	// Label is the human-readable description. Empty if the column is absent.
	Label string
}

// Manifest holds all criterion entries parsed from a manifest CSV file.
type Manifest struct {
	// Entries are the criterion entries in evaluation order.
	Entries []CriterionEntry
}

// ReadFromFile reads and parses a criteria manifest CSV file.
func ReadFromFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open manifest: %w", err)
	}
	defer f.Close()

	return readFromReader(f)
}

// ReadFromString parses a criteria manifest from a CSV string.
// This is useful for testing and for embedding manifest data.
func ReadFromString(data string) (*Manifest, error) {
	return readFromReader(strings.NewReader(data))
}

func readFromReader(r io.Reader) (*Manifest, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest header: %w", err)
	}

	colIndex := buildColumnIndex(header)
	if err := validateColumns(colIndex); err != nil {
		return nil, err
	}

	var entries []CriterionEntry
	lineNum := 1 // header was line 1
	for {
		lineNum++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read manifest line %d: %w", lineNum, err)
		}

		entry := CriterionEntry{
			Criterion: getField(record, colIndex, "criterion"),
			From:      getField(record, colIndex, "from"),
			To:        getField(record, colIndex, "to"),
			Label:     getField(record, colIndex, "label"),
		}

		if entry.Criterion == "" {
			return nil, fmt.Errorf("manifest line %d: criterion is required", lineNum)
		}
		if entry.From == "" || entry.To == "" {
			return nil, fmt.Errorf("manifest line %d: from and to stages are required", lineNum)
		}

		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("manifest contains no criterion entries")
	}

	return &Manifest{Entries: entries}, nil
}

func buildColumnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(strings.ToLower(col))] = i
	}
	return index
}

func validateColumns(colIndex map[string]int) error {
	for _, col := range requiredColumns {
		if _, ok := colIndex[col]; !ok {
			return fmt.Errorf("manifest missing required column: %s", col)
		}
	}
	return nil
}

func getField(record []string, colIndex map[string]int, column string) string {
	idx, ok := colIndex[column]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

