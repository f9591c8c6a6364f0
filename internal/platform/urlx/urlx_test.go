package urlx

import (
	"strings"
	"testing"

	"finscout/internal/testutil"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"adds scheme", "example.com/report.pdf", "https://example.com/report.pdf"},
		{"keeps http", "http://example.com", "http://example.com"},
		{"lowercases host", "https://IR.Example.COM/Annual.pdf", "https://ir.example.com/Annual.pdf"},
		{"trims whitespace", "  https://example.com  ", "https://example.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.in)
			testutil.AssertNoError(t, err, tc.name)
			testutil.AssertEqual(t, got, tc.want, tc.name)
		})
	}

	t.Run("empty input fails", func(t *testing.T) {
		_, err := Normalize("   ")
		testutil.AssertError(t, err, "empty URL")
	})
}

func TestRegistrableDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://ir.example.com/reports", "example.com"},
		{"https://ir.example.co.uk/reports", "example.co.uk"},
		{"investors.acme.de", "acme.de"},
		{"not a url at all %%%", ""},
		{"", ""},
	}
	for _, tc := range cases {
		testutil.AssertEqual(t, RegistrableDomain(tc.in), tc.want, tc.in)
	}
}

func TestExtractYear(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"single year", "https://example.com/annual-report-2022.pdf", "2022"},
		{"latest wins", "archive 2019 2021 2020", "2021"},
		{"future years skipped", "report-2099.pdf published 2023", "2023"},
		{"none present", "https://example.com/report.pdf", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			testutil.AssertEqual(t, ExtractYear(tc.in), tc.want, tc.name)
		})
	}
}

func TestTokenizeCompanyName(t *testing.T) {
	t.Run("drops legal suffixes", func(t *testing.T) {
		tokens := TokenizeCompanyName("Acme Holdings PLC")
		testutil.AssertEqual(t, strings.Join(tokens, ","), "acme", "only the distinctive token remains")
	})

	t.Run("splits on punctuation", func(t *testing.T) {
		tokens := TokenizeCompanyName("Smith & Wesson-Brands, Inc.")
		testutil.AssertEqual(t, strings.Join(tokens, ","), "smith,wesson,brands", "tokens")
	})

	t.Run("empty name", func(t *testing.T) {
		testutil.AssertEqual(t, len(TokenizeCompanyName("")), 0, "no tokens")
	})
}
