// Package resolve matches the noun a player typed against the item names
// in play, so "take potion" finds the "health potion" on the floor.
package resolve

import (
	"fmt"
	"slices"
	"strings"
)

// AmbiguityError indicates several items matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("Which %s do you mean: %s?", e.Name, strings.Join(e.Candidates, " or "))
}

// NotFoundError indicates no item matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no item matches %q", e.Name)
}

// Item resolves query against candidates. An exact name wins outright;
// otherwise the query must equal one whole word, or a run of whole words,
// of exactly one candidate. Comparison ignores case and extra spaces.
func Item(query string, candidates []string) (string, error) {
	q := normalize(query)
	if q == "" {
		return "", &NotFoundError{Name: query}
	}

	var matches []string
	for _, c := range candidates {
		name := normalize(c)
		if name == q {
			return c, nil
		}
		if containsWords(name, q) && !slices.Contains(matches, c) {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Name: query}
	case 1:
		return matches[0], nil
	default:
		slices.Sort(matches)
		return "", &AmbiguityError{Name: q, Candidates: matches}
	}
}

// containsWords reports whether the words of q appear consecutively in name.
func containsWords(name, q string) bool {
	return strings.Contains(" "+name+" ", " "+q+" ")
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
