package category

import (
	"strings"
	"unicode"
)

// Category is a canonical category code as produced by the upstream
// classifier.
type Category string

const (
	Tech          Category = "tech"
	Business      Category = "business"
	Politics      Category = "politics"
	Entertainment Category = "entertainment"
	Sport         Category = "sport"
	Science       Category = "science"
	Health        Category = "health"
)

// GeneralQuery is the sentinel query sent when the user holds no
// preferences; the upstream provider answers it with its default broad
// selection.
const GeneralQuery = "general"

// All returns the valid category codes in canonical order.
func All() []Category {
	return []Category{Tech, Business, Politics, Entertainment, Sport, Science, Health}
}

// labels maps category codes to the human-readable terms the upstream
// provider indexes on.
var labels = map[Category]string{
	Tech:          "Technology",
	Business:      "Business",
	Politics:      "Politics",
	Entertainment: "Entertainment",
	Sport:         "Sports",
	Science:       "Science",
	Health:        "Health",
}

// Valid reports whether code is a known main category.
func Valid(code Category) bool {
	_, ok := labels[code]
	return ok
}

// Label returns the query term for a category. Unknown codes fall back to
// the capitalized code so a stale preference still produces a usable query.
func Label(c Category) string {
	if l, ok := labels[c]; ok {
		return l
	}
	return capitalize(string(c))
}

// ComposeQuery maps an ordered preference list to a single upstream query
// string. Terms follow the list order as given; relative interest weight
// never influences composition, only membership does.
func ComposeQuery(prefs []Category) string {
	if len(prefs) == 0 {
		return GeneralQuery
	}
	terms := make([]string, len(prefs))
	for i, c := range prefs {
		terms[i] = Label(c)
	}
	return strings.Join(terms, " OR ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
