// Package styles ranks painting styles by the number of works a catalog lists
// for them.
package styles

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// listSelector is the catalog list holding one anchor per style
const listSelector = "ul.dictionaries-list"

// ErrNoStyleList is returned when the page has no style list
var ErrNoStyleList = errors.New("style list not found in page")

// Style is one catalog entry
type Style struct {
	Name  string
	Count int
}

// Parse extracts the styles from a catalog page. Each anchor in the first
// style list carries the count in a <sup> child; the name is the remaining
// anchor text. Anchors without a usable count are skipped.
func Parse(r io.Reader) ([]Style, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog page: %w", err)
	}

	list := doc.Find(listSelector).First()
	if list.Length() == 0 {
		return nil, ErrNoStyleList
	}

	var styles []Style
	list.Find("a").Each(func(_ int, a *goquery.Selection) {
		sup := a.Find("sup")
		if sup.Length() == 0 {
			return
		}
		count, ok := parseCount(sup.First().Text())
		if !ok {
			return
		}

		anchor := a.Clone()
		anchor.Find("sup").Remove()
		name := strings.Join(strings.Fields(anchor.Text()), " ")
		if name == "" {
			return
		}

		styles = append(styles, Style{Name: name, Count: count})
	})

	return styles, nil
}

// parseCount reads a count that may use ',', '.', spaces or no-break spaces
// as thousands separators
func parseCount(text string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		switch r {
		case ',', '.', ' ', '\u00a0', '\u202f', '\'':
			return -1
		}
		return r
	}, strings.TrimSpace(text))

	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Rank returns a copy of styles ordered by count, highest first. Styles with
// equal counts keep their catalog order.
func Rank(styles []Style) []Style {
	ranked := make([]Style, len(styles))
	copy(ranked, styles)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	return ranked
}

// Top returns at most the first n styles. A non-positive n returns all.
func Top(styles []Style, n int) []Style {
	if n <= 0 || n >= len(styles) {
		return styles
	}
	return styles[:n]
}
