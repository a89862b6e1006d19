package accounts

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// maxResolveDistance is the share of the longer name that may differ for a fuzzy hit.
const maxResolveDistance = 0.4

// Resolve finds an account by id, by last four digits, or by the closest name.
// Names are compared case-insensitively; a fuzzy match must be unambiguous.
func (r *Registry) Resolve(query string) (domain.Account, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return domain.Account{}, fmt.Errorf("Resolve: empty query: %w", ErrNotFound)
	}
	if acc, ok := r.Get(q); ok {
		return acc, nil
	}

	items := r.Accounts()
	upper := strings.ToUpper(q)

	for _, acc := range items {
		if strings.ToUpper(acc.Name) == upper {
			return acc, nil
		}
	}
	if len(q) == 4 {
		var hits []domain.Account
		for _, acc := range items {
			if acc.LastFour == q {
				hits = append(hits, acc)
			}
		}
		if len(hits) == 1 {
			return hits[0], nil
		}
	}

	best, bestScore, tie := -1, 1.0, false
	for i, acc := range items {
		score := nameDistance(upper, strings.ToUpper(acc.Name))
		switch {
		case score < bestScore:
			best, bestScore, tie = i, score, false
		case score == bestScore && best >= 0:
			tie = true
		}
	}
	if best < 0 || bestScore >= maxResolveDistance {
		return domain.Account{}, fmt.Errorf("Resolve %q: %w", query, ErrNotFound)
	}
	if tie {
		return domain.Account{}, fmt.Errorf("Resolve %q: more than one account matches", query)
	}
	return items[best], nil
}

func nameDistance(a, b string) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}
