package sources

import (
	"strings"

	"hybridhunter/internal/types"

	"github.com/PuerkitoBio/goquery"
)

// StripMarkup returns the text content of an HTML fragment with whitespace
// collapsed. Input that does not parse is returned collapsed as is.
func StripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return collapseSpace(s)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return collapseSpace(s)
	}
	return collapseSpace(doc.Text())
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes returns at most n runes of s (n <= 0 keeps everything)
func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func orPlaceholder(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return types.NotListed
	}
	return s
}

// finalize applies the shared listing normalization: records without a URL
// are dropped, markup is stripped, the description is capped and every
// empty field gets the placeholder.
func finalize(listings []types.Listing, descriptionChars int) []types.Listing {
	out := make([]types.Listing, 0, len(listings))
	for _, l := range listings {
		l.URL = strings.TrimSpace(l.URL)
		if l.URL == "" {
			continue
		}
		l.Title = orPlaceholder(StripMarkup(l.Title))
		l.Company = orPlaceholder(StripMarkup(l.Company))
		l.Location = orPlaceholder(l.Location)
		l.Description = orPlaceholder(truncateRunes(StripMarkup(l.Description), descriptionChars))
		l.Source = orPlaceholder(l.Source)
		l.SalaryRaw = orPlaceholder(l.SalaryRaw)
		out = append(out, l)
	}
	return out
}
