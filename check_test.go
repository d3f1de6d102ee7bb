package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.structs.dev/gen"
)

func Test_FormatRestrictions(t *testing.T) {
	geo := testGeo()

	tests := map[string]struct {
		record   RestrictionRecord
		expected string
	}{
		"allowlist": {
			record: RestrictionRecord{
				Type:      AllowList,
				Countries: []string{"US", "GB"},
			},
			expected: "ALLOWED Countries: United States, United Kingdom",
		},
		"blocklist-with-unknown-code": {
			record: RestrictionRecord{
				Type:      BlockList,
				Countries: []string{"FR", "ZZ"},
			},
			expected: "BLOCKED Countries: France, ZZ",
		},
		"none": {
			record:   RestrictionRecord{Type: NoRestriction},
			expected: "No geo restrictions",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expected, FormatRestrictions(geo, test.record))
		})
	}
}

func newTestChecker(
	t *testing.T,
	metadata string,
	record RestrictionRecord,
	reg *Registry,
) (*Checker, *bytes.Buffer, func()) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(metadata))
		},
	))

	stormforge, err := NewStormforge(StormforgeConfig{
		APIToken: "token",
		BaseURL:  srv.URL,
	}, &NOOPLogger{})
	require.NoError(t, err)

	api := &fakeAPI{
		get: func() (*cloudfront.GetDistributionOutput, error) {
			return distOutput("E1234567890ABCD", "ETAG", record), nil
		},
	}

	store, err := NewAccessor(
		&NOOPLogger{},
		&Account{Name: "prod", API: api},
	)
	require.NoError(t, err)

	out := &bytes.Buffer{}

	return &Checker{
		Stormforge: stormforge,
		Store:      store,
		Geo:        testGeo(),
		Registry:   reg,
		Out:        out,
	}, out, srv.Close
}

// The full flow: a setup mapped through the GCP suffix convention
// resolves to a required country the allow list is missing.
func Test_Checker_WhitelistCheck(t *testing.T) {
	reg := &Registry{
		AWS: gen.Map[string, ClusterEntry]{},
		GCP: gen.Map[string, ClusterEntry]{
			"ts-us-e1-n2-gke": {
				Region:   "us-east1",
				Location: "SC",
				Country:  "US",
			},
		},
	}

	checker, out, done := newTestChecker(
		t,
		`{"deploy":{"setup":"ts-us-e1-n2"}}`,
		RestrictionRecord{Type: AllowList, Countries: []string{"GB"}},
		reg,
	)
	defer done()

	err := checker.WhitelistCheck(
		context.Background(),
		"c-123",
		"E1234567890ABCD",
	)
	require.NoError(t, err)

	output := out.String()
	assert.Contains(t, output, "Found setup values: ts-us-e1-n2")
	assert.Contains(t, output, "ts-us-e1-n2 (mapped to ts-us-e1-n2-gke)")
	assert.Contains(t, output, "GCP regions: us-east1")
	assert.Contains(t, output, "Required countries: US")
	assert.Contains(t, output, "WARNING: missing countries from whitelist: US")
}

func Test_Checker_WhitelistCheck_satisfied(t *testing.T) {
	reg := &Registry{
		AWS: gen.Map[string, ClusterEntry]{
			"ts-aws-use1": {
				Region:   "us-east-1",
				Location: "Virginia",
				Country:  "US",
			},
		},
		GCP: gen.Map[string, ClusterEntry]{},
	}

	checker, out, done := newTestChecker(
		t,
		`{"setup":"ts-aws-use1"}`,
		RestrictionRecord{Type: AllowList, Countries: []string{"US", "GB"}},
		reg,
	)
	defer done()

	err := checker.WhitelistCheck(
		context.Background(),
		"c-123",
		"E1234567890ABCD",
	)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "All required countries are whitelisted")
}

func Test_Checker_WhitelistCheck_no_setups(t *testing.T) {
	checker, _, done := newTestChecker(
		t,
		`{"deliveries":[]}`,
		RestrictionRecord{},
		&Registry{
			AWS: gen.Map[string, ClusterEntry]{},
			GCP: gen.Map[string, ClusterEntry]{},
		},
	)
	defer done()

	err := checker.WhitelistCheck(context.Background(), "c-1", "E1")
	require.Error(t, err)

	e := &Error{}
	require.ErrorAs(t, err, &e)
	assert.Equal(t, RESOLVE, e.Category)
}

// Unresolved setups alone are a warning; they only become fatal when
// they leave the required country set empty.
func Test_Checker_WhitelistCheck_empty_required(t *testing.T) {
	checker, out, done := newTestChecker(
		t,
		`{"setup":"ts-unknown"}`,
		RestrictionRecord{},
		&Registry{
			AWS: gen.Map[string, ClusterEntry]{},
			GCP: gen.Map[string, ClusterEntry]{},
		},
	)
	defer done()

	err := checker.WhitelistCheck(context.Background(), "c-1", "E1")
	require.Error(t, err)

	e := &Error{}
	require.ErrorAs(t, err, &e)
	assert.Contains(t, e.Hint, "ensure all setups are mapped")
	assert.Contains(t, out.String(), "WARNING: setups not found")
}

func Test_Inspect(t *testing.T) {
	api := &fakeAPI{
		get: func() (*cloudfront.GetDistributionOutput, error) {
			return distOutput("E1234567890ABCD", "ETAG", RestrictionRecord{
				Type:      BlockList,
				Countries: []string{"FR"},
			}), nil
		},
	}

	store, err := NewAccessor(
		&NOOPLogger{},
		&Account{Name: "prod", API: api},
	)
	require.NoError(t, err)

	out := &bytes.Buffer{}

	dist, err := Inspect(
		context.Background(),
		store,
		testGeo(),
		"E1234567890ABCD",
		out,
	)
	require.NoError(t, err)

	assert.Equal(t, "prod", dist.Account)

	output := out.String()
	assert.Contains(t, output, "Distribution ID: E1234567890ABCD")
	assert.Contains(t, output, "Domain Name: d111abcdef8.cloudfront.net")
	assert.Contains(t, output, "Status: Deployed")
	assert.Contains(t, output, "BLOCKED Countries: France")
}
