package harvest

import (
	"fmt"
	"strconv"
	"strings"
)

// Record is one extracted product entry.
type Record struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	MassKG float64 `json:"mass_kg"`
	Score  float64 `json:"score"`
}

// Row holds the raw field strings as read from a single product card,
// before any cleaning or numeric conversion.
type Row struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Price  string `json:"price"`
	MassKG string `json:"mass_kg"`
	Score  string `json:"score"`
}

// ParseRow converts a raw row into a Record. It is pure: parsing the
// same row twice yields identical values. A missing or unparseable
// field returns a *RowError.
func ParseRow(r Row) (Record, error) {
	name := strings.TrimSpace(r.Name)
	if name == "" {
		return Record{}, &RowError{Field: "name", Value: r.Name, Reason: "empty"}
	}
	id := cleanValue(r.ID)
	if id == "" {
		return Record{}, &RowError{Field: "id", Value: r.ID, Reason: "empty"}
	}

	price, err := parseNumber(r.Price)
	if err != nil {
		return Record{}, &RowError{Field: "price", Value: r.Price, Reason: err.Error()}
	}
	mass, err := parseNumber(r.MassKG)
	if err != nil {
		return Record{}, &RowError{Field: "mass_kg", Value: r.MassKG, Reason: err.Error()}
	}
	score, err := parseNumber(r.Score)
	if err != nil {
		return Record{}, &RowError{Field: "score", Value: r.Score, Reason: err.Error()}
	}

	return Record{ID: id, Name: name, Price: price, MassKG: mass, Score: score}, nil
}

// cleanValue picks the value-like token out of a cell that may carry
// label text next to the value. Cards render e.g. "Price $12.50" or
// "ID: 1042", so when several tokens are present the one containing a
// digit (or leading $) wins.
func cleanValue(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, " \t") {
		return s
	}
	parts := strings.Fields(s)
	for _, p := range parts {
		if strings.HasPrefix(p, "$") || strings.ContainsAny(p, "0123456789") {
			return p
		}
	}
	return parts[0]
}

func parseNumber(s string) (float64, error) {
	v := cleanValue(s)
	v = strings.TrimPrefix(v, "$")
	v = strings.ReplaceAll(v, ",", "")
	if v == "" {
		return 0, fmt.Errorf("empty")
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", v)
	}
	return f, nil
}
