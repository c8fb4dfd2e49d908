// Package output persists harvested records: a JSON array export and
// an optional SQLite mirror.
package output

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/avolkov/inventory-harvester/internal/harvest"
)

// WriteJSON writes the records as a two-space indented JSON array. An
// empty harvest still produces a valid `[]` file.
func WriteJSON(path string, records []harvest.Record) error {
	if records == nil {
		records = []harvest.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
