// Package urlx holds the URL helpers shared by the probe, the
// optimizer hints and report output: normalization, registrable-domain
// extraction and metadata scraping from URLs.
package urlx

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

	"finscout/internal/platform/errors"
)

var yearPattern = regexp.MustCompile(`(19|20)\d{2}`)

// Normalize trims a raw URL and ensures it carries a scheme so that
// net/http accepts it. Returns an error for unparsable input.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "empty URL")
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Host = strings.ToLower(u.Host)
	return u.String(), nil
}

// RegistrableDomain extracts the eTLD+1 of a URL ("ir.example.co.uk" ->
// "example.co.uk"). Empty string when it cannot be determined; callers
// use this for prompt hints only, so a miss is harmless.
func RegistrableDomain(raw string) string {
	normalized, err := Normalize(raw)
	if err != nil {
		return ""
	}
	u, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return ""
	}
	return domain
}

// ExtractYear finds the most plausible publication year in a string
// (URL path or page text). Picks the latest year not in the future;
// empty string when none is present.
func ExtractYear(s string) string {
	matches := yearPattern.FindAllString(s, -1)
	if len(matches) == 0 {
		return ""
	}

	limit := time.Now().Year() + 1
	best := 0
	for _, m := range matches {
		y, err := strconv.Atoi(m)
		if err != nil || y > limit {
			continue
		}
		if y > best {
			best = y
		}
	}
	if best == 0 {
		return ""
	}
	return strconv.Itoa(best)
}

// corporateSuffixes are legal-form words that carry no signal when
// matching a company name against a domain or page.
var corporateSuffixes = map[string]bool{
	"inc": true, "ltd": true, "plc": true, "llc": true, "ag": true,
	"sa": true, "se": true, "nv": true, "gmbh": true, "corp": true,
	"co": true, "group": true, "holdings": true, "holding": true,
	"company": true, "limited": true, "incorporated": true,
}

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// TokenizeCompanyName splits a company name into lowercase tokens with
// legal-form suffixes removed ("Acme Holdings PLC" -> ["acme"]).
func TokenizeCompanyName(name string) []string {
	fields := nonAlnum.Split(strings.ToLower(name), -1)
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" || corporateSuffixes[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}
