package enrich

import (
	"strings"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
)

type chargeKey struct {
	description string
	amount      string
}

// chargeIndex holds the positions of Charge rows keyed for refund lookup.
// Both lists keep table order.
type chargeIndex struct {
	exact    map[chargeKey][]int
	byAmount map[string][]int
}

func newChargeIndex(rows []model.EnrichedTransaction) *chargeIndex {
	idx := &chargeIndex{
		exact:    make(map[chargeKey][]int),
		byAmount: make(map[string][]int),
	}
	for i := range rows {
		if rows[i].Type != model.TypeCharge {
			continue
		}
		amount := rows[i].Amount.Abs().String()
		key := chargeKey{description: rows[i].Raw.Description, amount: amount}
		idx.exact[key] = append(idx.exact[key], i)
		idx.byAmount[amount] = append(idx.byAmount[amount], i)
	}
	return idx
}

// MatchRefunds links each Refund row to at most one unmatched Charge. Refunds
// are processed in table order. An exact (description, |amount|) match is
// tried first, then charges with the same |amount| whose description starts
// with the refund's first word. Among candidates the closest transaction date
// wins, then the earliest row. It returns the number of refunds matched.
func MatchRefunds(rows []model.EnrichedTransaction) int {
	idx := newChargeIndex(rows)
	matched := 0

	for i := range rows {
		refund := &rows[i]
		if refund.Type != model.TypeRefund {
			continue
		}
		amount := refund.Amount.Abs().String()

		candidates := idx.exact[chargeKey{description: refund.Raw.Description, amount: amount}]
		best := closestUnmatched(rows, candidates, refund.Raw.TransactionDate, nil)

		if best < 0 {
			if prefix := firstToken(refund.Raw.Description); prefix != "" {
				hasPrefix := func(c *model.EnrichedTransaction) bool {
					return strings.HasPrefix(strings.ToLower(c.Raw.Description), prefix)
				}
				best = closestUnmatched(rows, idx.byAmount[amount], refund.Raw.TransactionDate, hasPrefix)
			}
		}
		if best < 0 {
			continue
		}

		charge := &rows[best]
		charge.RefundStatus = model.RefundRefunded
		charge.RefundedAmount = refund.Amount.Abs()
		charge.RefundMatchID = refund.Raw.ID
		refund.RefundStatus = model.RefundMatched
		refund.RefundMatchID = charge.Raw.ID
		matched++
	}
	return matched
}

func closestUnmatched(rows []model.EnrichedTransaction, candidates []int, date time.Time, accept func(*model.EnrichedTransaction) bool) int {
	best := -1
	var bestDistance time.Duration
	for _, i := range candidates {
		c := &rows[i]
		if c.RefundStatus != model.RefundNone {
			continue
		}
		if accept != nil && !accept(c) {
			continue
		}
		distance := c.Raw.TransactionDate.Sub(date)
		if distance < 0 {
			distance = -distance
		}
		// candidates are in table order, so strict comparison keeps the earliest row on ties
		if best < 0 || distance < bestDistance {
			best, bestDistance = i, distance
		}
	}
	return best
}

func firstToken(description string) string {
	fields := strings.Fields(description)
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(fields[0])
}
