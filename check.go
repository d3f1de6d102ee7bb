package main

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// FormatRestrictions renders a restriction record with display names,
// falling back to raw codes when the geo table has no entry.
func FormatRestrictions(geo *Geo, rec RestrictionRecord) string {
	names := strings.Join(geo.Names(rec.Countries), ", ")

	switch rec.Type {
	case AllowList:
		return "ALLOWED Countries: " + names
	case BlockList:
		return "BLOCKED Countries: " + names
	default:
		return "No geo restrictions"
	}
}

// Inspect fetches a distribution and prints its report.
func Inspect(
	ctx context.Context,
	store *Accessor,
	geo *Geo,
	id string,
	w io.Writer,
) (*DistributionInfo, error) {
	dist, err := store.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(w, "\nDistribution ID: %s\n", dist.ID)
	fmt.Fprintf(w, "Account: %s\n", dist.Account)
	fmt.Fprintf(w, "Domain Name: %s\n", dist.Domain)
	fmt.Fprintf(w, "Status: %s\n", dist.Status)
	fmt.Fprintf(w, "\nGeo Restrictions:\n%s\n", FormatRestrictions(geo, dist.Record))

	return dist, nil
}

// Checker wires the whitelist-check flow: channel metadata in,
// reconciliation warning out.
type Checker struct {
	Stormforge *Stormforge
	Store      *Accessor
	Geo        *Geo
	Registry   *Registry
	Out        io.Writer
}

// WhitelistCheck resolves the channel's setups to a required country
// set and reconciles it against the distribution's current record.
// Partial resolution results are printed as warnings; only an empty
// required set is a hard stop.
func (c *Checker) WhitelistCheck(
	ctx context.Context,
	channelID string,
	distributionID string,
) error {
	fmt.Fprintf(c.Out, "\nChecking whitelist status for channel: %s\n", channelID)
	fmt.Fprintln(c.Out, strings.Repeat("=", 60))

	metadata, err := c.Stormforge.Delivery(ctx, channelID)
	if err != nil {
		return err
	}

	setups, err := ExtractSetups(metadata)
	if err != nil {
		return err
	}

	if len(setups) == 0 {
		return &Error{
			Category: RESOLVE,
			Msg:      "no setup values found in delivery details",
			Channel:  channelID,
		}
	}

	fmt.Fprintf(c.Out, "Found setup values: %s\n", strings.Join(setups, ", "))

	regions := ResolveRegions(setups, c.Registry)

	if len(regions.Resolved) > 0 {
		resolved := make([]string, 0, len(regions.Resolved))
		for _, r := range regions.Resolved {
			resolved = append(resolved, r.String())
		}

		fmt.Fprintf(
			c.Out,
			"Setups found in cluster registry: %s\n",
			strings.Join(resolved, ", "),
		)
	}

	if len(regions.Unresolved) > 0 {
		fmt.Fprintf(
			c.Out,
			"WARNING: setups not found in cluster registry: %s\n",
			strings.Join(regions.Unresolved, ", "),
		)
		fmt.Fprintln(c.Out, "  these setups might be:")
		fmt.Fprintln(c.Out, "  - new clusters not yet added to the registry file")
		fmt.Fprintln(c.Out, "  - a different naming convention (e.g. ts-us-e1-n2 vs ts-us-e1-n2-gke)")
		fmt.Fprintln(c.Out, "  - clusters in different regions")
	}

	fmt.Fprintf(c.Out, "AWS regions: %s\n", orNone(regions.AWS))
	fmt.Fprintf(c.Out, "GCP regions: %s\n", orNone(regions.GCP))

	countries := ResolveCountries(regions, c.Registry)

	if len(countries.Locations) > 0 {
		fmt.Fprintf(
			c.Out,
			"Found locations: %s\n",
			strings.Join(countries.Locations, ", "),
		)
	}

	if len(countries.MissingCountry) > 0 {
		fmt.Fprintf(
			c.Out,
			"WARNING: clusters missing country codes: %s\n",
			strings.Join(countries.MissingCountry, ", "),
		)
		fmt.Fprintln(
			c.Out,
			`  add a "country" field to these clusters in the registry file`,
		)
	}

	if len(countries.Codes) == 0 {
		hint := "check the cluster registry file"
		switch {
		case len(regions.Unresolved) > 0:
			hint = "no setups matched the cluster registry; ensure all setups are mapped"
		case len(countries.MissingCountry) > 0:
			hint = `add "country" fields to the matched clusters in the registry file`
		}

		return &Error{
			Category: RESOLVE,
			Msg:      "could not map regions to countries",
			Channel:  channelID,
			Hint:     hint,
		}
	}

	fmt.Fprintf(
		c.Out,
		"Required countries: %s\n",
		strings.Join(countries.Codes, ", "),
	)

	dist, err := c.Store.Fetch(ctx, distributionID)
	if err != nil {
		return err
	}

	fmt.Fprintf(
		c.Out,
		"\nCurrent distribution restrictions:\n  %s\n",
		FormatRestrictions(c.Geo, dist.Record),
	)

	result := Reconcile(countries.Codes, dist.Record)

	switch dist.Record.Type {
	case AllowList:
		if len(result.MissingFromAllowList) > 0 {
			fmt.Fprintf(
				c.Out,
				"\nWARNING: missing countries from whitelist: %s\n",
				strings.Join(result.MissingFromAllowList, ", "),
			)
			fmt.Fprintln(c.Out, "  consider adding these countries to ensure access")
		} else {
			fmt.Fprintln(c.Out, "\nAll required countries are whitelisted")
		}
	case BlockList:
		if len(result.BlockedButRequired) > 0 {
			fmt.Fprintf(
				c.Out,
				"\nWARNING: required countries are blacklisted: %s\n",
				strings.Join(result.BlockedButRequired, ", "),
			)
			fmt.Fprintln(c.Out, "  consider removing these countries from the blacklist")
		} else {
			fmt.Fprintln(c.Out, "\nNo required countries are blacklisted")
		}
	default:
		fmt.Fprintln(c.Out, "\nNo restrictions - all countries have access")
	}

	return nil
}

func orNone(list []string) string {
	if len(list) == 0 {
		return "none"
	}

	return strings.Join(list, ", ")
}
