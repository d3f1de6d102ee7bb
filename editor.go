package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Store is the write half of the restriction accessor, split out so
// editor tests can confirm submissions without a provider.
type Store interface {
	Update(
		ctx context.Context,
		dist *DistributionInfo,
		rec RestrictionRecord,
	) error
}

// commonCountries is shown first in the add prompt; any code or name
// from the full table is still accepted.
var commonCountries = []string{
	"US", "GB", "IN", "SG", "MY", "CA", "AU", "DE", "FR", "JP",
}

func NewEditor(
	geo *Geo,
	store Store,
	in io.Reader,
	out io.Writer,
) (*Editor, error) {
	err := checkNil(geo, store, in, out)
	if err != nil {
		return nil, err
	}

	return &Editor{
		geo:   geo,
		store: store,
		in:    bufio.NewScanner(in),
		out:   out,
	}, nil
}

// Editor is the interactive restriction modifier. It mutates a working
// copy of the record and only touches the remote distribution on an
// explicitly confirmed apply.
type Editor struct {
	geo   *Geo
	store Store
	in    *bufio.Scanner
	out   io.Writer
	eof   bool
}

// Run drives the menu loop until the operator applies or exits. A
// failed submission is reported and ends the loop without retry, since
// the conditional update token is already stale.
func (e *Editor) Run(ctx context.Context, dist *DistributionInfo) error {
	fmt.Fprintln(e.out, "\n=== interactive geo restriction editor ===")

	work := dist.Record.Clone()

	for {
		e.view(work)

		switch e.prompt("\nEnter your choice (1-5): ") {
		case "1":
			e.addCountry(&work)
		case "2":
			e.removeCountry(&work)
		case "3":
			// A full reset deliberately needs no confirmation,
			// unlike add and remove.
			work = RestrictionRecord{Type: NoRestriction}
			fmt.Fprintln(e.out, "All restrictions cleared")
		case "4":
			applied, err := e.apply(ctx, dist, work)
			if err != nil {
				fmt.Fprintf(e.out, "Failed to apply changes: %s\n", err)
				return err
			}

			if applied {
				fmt.Fprintln(e.out, "Changes applied successfully")
				return nil
			}

			// Declining the final confirmation ends the session
			// with the remote record untouched.
			fmt.Fprintln(e.out, "Changes cancelled")
			return nil
		case "5":
			fmt.Fprintln(e.out, "Exiting without changes")
			return nil
		default:
			if e.eof {
				fmt.Fprintln(e.out, "Input closed, exiting without changes")
				return nil
			}

			fmt.Fprintln(e.out, "Invalid choice, enter 1-5")
		}
	}
}

func (e *Editor) view(rec RestrictionRecord) {
	fmt.Fprintf(
		e.out,
		"\nCurrent restriction type: %s\n",
		strings.ToUpper(rec.Type.String()),
	)

	if len(rec.Countries) > 0 {
		fmt.Fprintf(
			e.out,
			"Current countries: %s\n",
			strings.Join(e.geo.Names(rec.Countries), ", "),
		)
	} else {
		fmt.Fprintln(e.out, "Current countries: none")
	}

	fmt.Fprintln(e.out, "\nOptions:")
	fmt.Fprintln(e.out, "1. Add country to list")
	fmt.Fprintln(e.out, "2. Remove country from list")
	fmt.Fprintln(e.out, "3. Remove all restrictions")
	fmt.Fprintln(e.out, "4. Exit and apply changes")
	fmt.Fprintln(e.out, "5. Exit without changes")
}

func (e *Editor) addCountry(rec *RestrictionRecord) {
	fmt.Fprintln(e.out, "\nCommon countries (any code or name works):")
	for _, code := range commonCountries {
		fmt.Fprintf(e.out, "  %s - %s\n", code, e.geo.Name(code))
	}

	input := e.prompt("\nEnter country to add: ")
	if input == "" {
		fmt.Fprintln(e.out, "No country entered")
		return
	}

	code, ok := e.geo.Resolve(input)
	if !ok {
		fmt.Fprintf(
			e.out,
			"Country %q not found, use a valid country code or name\n",
			input,
		)

		return
	}

	if rec.Has(code) {
		fmt.Fprintf(e.out, "%s is already in the list\n", e.geo.Name(code))
		return
	}

	confirmed := e.confirm(fmt.Sprintf(
		"Add %s (%s) to list? (yes/no): ", e.geo.Name(code), code,
	))
	if !confirmed {
		fmt.Fprintln(e.out, "Addition cancelled")
		return
	}

	rec.Countries = append(rec.Countries, code)
	fmt.Fprintf(e.out, "Added %s (%s) to the list\n", e.geo.Name(code), code)
}

func (e *Editor) removeCountry(rec *RestrictionRecord) {
	if len(rec.Countries) == 0 {
		fmt.Fprintln(e.out, "No countries in the list to remove")
		return
	}

	fmt.Fprintln(e.out, "\nCurrent countries:")
	for i, code := range rec.Countries {
		fmt.Fprintf(e.out, "  %d. %s (%s)\n", i+1, e.geo.Name(code), code)
	}

	input := e.prompt("\nEnter country name/code to remove: ")
	if input == "" {
		fmt.Fprintln(e.out, "No country entered")
		return
	}

	code, ok := e.match(rec.Countries, input)
	if !ok {
		fmt.Fprintf(e.out, "Country %q not found in current list\n", input)
		return
	}

	confirmed := e.confirm(fmt.Sprintf(
		"Remove %s (%s) from list? (yes/no): ", e.geo.Name(code), code,
	))
	if !confirmed {
		fmt.Fprintln(e.out, "Removal cancelled")
		return
	}

	out := rec.Countries[:0]
	for _, c := range rec.Countries {
		if c != code {
			out = append(out, c)
		}
	}

	rec.Countries = out
	fmt.Fprintf(e.out, "Removed %s (%s) from list\n", e.geo.Name(code), code)
}

// match finds input in the working list, by exact code or by
// case-insensitive substring of a listed country's display name.
// Ambiguous substrings match nothing.
func (e *Editor) match(countries []string, input string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(input))
	for _, code := range countries {
		if code == upper {
			return code, true
		}
	}

	lowered := strings.ToLower(strings.TrimSpace(input))
	matches := []string{}
	for _, code := range countries {
		if strings.Contains(strings.ToLower(e.geo.Name(code)), lowered) {
			matches = append(matches, code)
		}
	}

	if len(matches) != 1 {
		return "", false
	}

	return matches[0], true
}

func (e *Editor) apply(
	ctx context.Context,
	dist *DistributionInfo,
	work RestrictionRecord,
) (bool, error) {
	fmt.Fprintln(e.out, "\n=== changes summary ===")
	fmt.Fprintf(
		e.out,
		"Restriction type: %s\n",
		strings.ToUpper(work.Type.String()),
	)

	if len(work.Countries) > 0 {
		fmt.Fprintf(
			e.out,
			"Countries: %s\n",
			strings.Join(e.geo.Names(work.Countries), ", "),
		)
	} else {
		fmt.Fprintln(e.out, "Countries: none (no restrictions)")
	}

	fmt.Fprintf(e.out, "\nDistribution: %s\n", dist.ID)
	fmt.Fprintf(e.out, "Domain: %s\n", dist.Domain)

	confirmed := e.confirm(
		"\nApply these changes to the distribution? (yes/no): ",
	)
	if !confirmed {
		return false, nil
	}

	fmt.Fprintln(e.out, "Applying changes...")

	err := e.store.Update(ctx, dist, work)
	if err != nil {
		return false, err
	}

	return true, nil
}

func (e *Editor) prompt(msg string) string {
	fmt.Fprint(e.out, msg)

	if !e.in.Scan() {
		e.eof = true
		return ""
	}

	return strings.TrimSpace(e.in.Text())
}

func (e *Editor) confirm(msg string) bool {
	answer := strings.ToLower(e.prompt(msg))
	return answer == "yes" || answer == "y"
}
