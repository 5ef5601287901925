package lookup

import (
	"errors"
	"regexp"
	"strings"
)

// ErrEmptyQuery is returned for blank input. Nothing else happens for it:
// no request is made and the output is left untouched.
var ErrEmptyQuery = errors.New("Please enter a Pokémon name or ID.")

var (
	separators = regexp.MustCompile(`[\s:]+`)
	dropped    = strings.NewReplacer(".", "", "'", "", "’", "")
)

// Query is validated lookup input.
type Query struct {
	Input string // as typed
	Slug  string // path segment for the creature request
}

// IsID reports whether the query is a numeric identifier.
func (q Query) IsID() bool {
	return isDigits(q.Slug)
}

// ParseQuery trims and lower-cases input and turns it into the service's slug
// form: runs of whitespace and colons become one hyphen, and periods and
// apostrophes are dropped ("Mr. Mime" -> "mr-mime", "Type: Null" ->
// "type-null"). Numeric input loses its leading zeros.
func ParseQuery(input string) (Query, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return Query{}, ErrEmptyQuery
	}
	if isDigits(s) {
		id := strings.TrimLeft(s, "0")
		if id == "" {
			id = "0"
		}
		return Query{Input: input, Slug: id}, nil
	}

	s = dropped.Replace(s)
	s = strings.Trim(separators.ReplaceAllString(s, "-"), "-")
	if s == "" {
		return Query{}, ErrEmptyQuery
	}
	return Query{Input: input, Slug: s}, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
