// Package winesearcher talks to the external wine search site: URL
// composition, markup parsing, and cached fetching.
package winesearcher

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/vintro/wineresolver/internal/wine"
)

const baseURL = "https://www.wine-searcher.com/find/"

var (
	yearPattern    = regexp.MustCompile(`\d{4}`)
	specialChars   = regexp.MustCompile(`[,\.\(\)&]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	hyphenRuns     = regexp.MustCompile(`-+`)
)

// ComposeSearchURL builds the search URL for a wine name. When vintage
// is absent, a 4-digit year embedded in the keyword is lifted out and
// used as the vintage segment. Excluding auctions pins the country
// filter and sort order.
func ComposeSearchURL(keyword string, vintage *int, country string, includeAuction bool) string {
	vintageSeg := ""
	if vintage != nil && *vintage != wine.NonVintage {
		vintageSeg = strconv.Itoa(*vintage)
	}
	if vintageSeg == "" {
		if m := yearPattern.FindString(keyword); m != "" {
			vintageSeg = m
			keyword = strings.TrimSpace(yearPattern.ReplaceAllString(keyword, ""))
		}
	}

	kw := specialChars.ReplaceAllString(keyword, " ")
	kw = whitespaceRuns.ReplaceAllString(strings.TrimSpace(kw), "-")
	kw = hyphenRuns.ReplaceAllString(kw, "-")

	if country == "" {
		country = "-"
	}

	var b strings.Builder
	b.WriteString(baseURL)
	b.WriteString(kw)
	b.WriteString("/")
	if vintageSeg != "" {
		b.WriteString(vintageSeg)
		b.WriteString("/")
	}
	if !includeAuction {
		b.WriteString(country)
		b.WriteString("/-/ndbipe?Xsort_order=p&Xcurrencycode=USD&Xsavecurrency=Y")
	}
	return b.String()
}
