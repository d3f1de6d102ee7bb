package main

import (
	"encoding/json"
	"os"
	"strings"

	"go.structs.dev/gen"
)

// Geo is the country lookup table. Codes are two-letter identifiers
// and remain the stable key; display names are presentation only.
type Geo struct {
	names gen.FMap[string, string] // code -> display name
	codes gen.FMap[string, string] // lowercased display name -> code
}

func NewGeo(names map[string]string) *Geo {
	lowered := gen.FMap[string, string]{}
	for code, name := range names {
		lowered[code] = strings.ToLower(name)
	}

	return &Geo{
		names: names,
		codes: lowered.Flip(),
	}
}

// LoadCountries reads the country code table from the given file. A
// missing or invalid file is not fatal; the tool degrades to printing
// raw codes.
func LoadCountries(path string, logger Logger) *Geo {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warnw(
			"country code table unavailable, using raw codes",
			"path", path,
			"error", err,
		)

		return NewGeo(nil)
	}

	table := struct {
		CountryCodes map[string]string `json:"country_codes"`
	}{}

	err = json.Unmarshal(data, &table)
	if err != nil {
		logger.Warnw(
			"invalid country code table, using raw codes",
			"path", path,
			"error", err,
		)

		return NewGeo(nil)
	}

	return NewGeo(table.CountryCodes)
}

// Name returns the display name for a country code, falling back to
// the code itself when the table has no entry.
func (g *Geo) Name(code string) string {
	name, ok := g.names[code]
	if !ok {
		return code
	}

	return name
}

// Names maps a list of codes to display names with code fallback.
func (g *Geo) Names(codes []string) []string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		names = append(names, g.Name(code))
	}

	return names
}

// Resolve maps operator input to a country code. Exact (case
// insensitive) code matches win; otherwise the input is matched as a
// case-insensitive substring of a display name. Unknown or ambiguous
// input resolves to nothing.
func (g *Geo) Resolve(input string) (string, bool) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", false
	}

	code := strings.ToUpper(input)
	if _, ok := g.names[code]; ok {
		return code, true
	}

	lowered := strings.ToLower(input)
	if code, ok := g.codes[lowered]; ok {
		return code, true
	}

	matches := []string{}
	for code, name := range g.names {
		if strings.Contains(strings.ToLower(name), lowered) {
			matches = append(matches, code)
		}
	}

	if len(matches) != 1 {
		return "", false
	}

	return matches[0], true
}
