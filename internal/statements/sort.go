package statements

import (
	"sort"

	"github.com/dvloznov/ledgerdesk/internal/domain"
)

// Sort orders statements oldest first. Statements with a declared period come first,
// by period start; the rest follow by upload time. Ties keep their input order.
func Sort(items []domain.Statement) {
	sort.SliceStable(items, func(i, j int) bool {
		return less(items[i], items[j])
	})
}

func less(a, b domain.Statement) bool {
	switch {
	case a.Period != nil && b.Period != nil:
		return a.Period.Start.Before(b.Period.Start)
	case a.Period != nil:
		return true
	case b.Period != nil:
		return false
	default:
		return a.UploadedAt.Before(b.UploadedAt)
	}
}
