package books

import (
	"fmt"
	"strconv"
	"strings"
)

// nextID allocates the next identifier for a prefix by scanning the existing
// ids for the highest numeric suffix. Identifiers are zero-padded to three
// digits but grow past 999 without truncation.
func nextID(prefix string, existing []string) string {
	max := 0
	for _, id := range existing {
		rest, ok := strings.CutPrefix(id, prefix)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(rest)
		if err != nil {
			continue
		}
		if n > max {
			max = n
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}

func (l *Ledger) saleIDsLocked() []string {
	ids := make([]string, len(l.sales))
	for i, s := range l.sales {
		ids[i] = s.ID
	}
	return ids
}

func (l *Ledger) expenseIDsLocked() []string {
	ids := make([]string, len(l.expenses))
	for i, e := range l.expenses {
		ids[i] = e.ID
	}
	return ids
}
