package query

import (
	"strings"

	"salesdash/internal/core"
)

// Match reports whether tx satisfies p. A nil predicate matches everything.
func Match(p Predicate, tx core.Transaction) bool {
	switch p := p.(type) {
	case nil, All:
		return true
	case Month:
		return tx.SaleMonth() == p.Month
	case Search:
		if containsFold(tx.Title, p.Text) || containsFold(tx.Description, p.Text) {
			return true
		}
		return p.HasPrice && tx.Price.Equal(p.Price)
	case Sold:
		return tx.Sold == p.Value
	case PriceRange:
		if p.Min != nil && tx.Price.LessThan(*p.Min) {
			return false
		}
		if p.Max != nil && !tx.Price.LessThan(*p.Max) {
			return false
		}
		return true
	case And:
		return Match(p.Left, tx) && Match(p.Right, tx)
	}
	return false
}

// Filter returns the records of txs matching p, in input order.
func Filter(p Predicate, txs []core.Transaction) []core.Transaction {
	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if Match(p, tx) {
			out = append(out, tx)
		}
	}
	return out
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
