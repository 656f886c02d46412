package enrich

import (
	"sort"
	"time"

	"github.com/Veraticus/spice-ledger/internal/model"
	"github.com/Veraticus/spice-ledger/internal/rules"
)

type seriesKey struct {
	description string
	amount      string
}

// DetectRecurring flags rows that look like part of a repeating series. The
// keyword signal marks rows as probably monthly. The pattern signal groups rows
// by exact (description, amount) and classifies groups of two or more by the
// mean gap between consecutive dates, overwriting any probable label.
// It returns the number of recurring rows.
func DetectRecurring(rows []model.EnrichedTransaction, c *rules.Compiled) int {
	for i := range rows {
		if c.Subscription.Match(rows[i].Raw.Description) {
			rows[i].IsRecurring = true
			rows[i].RecurringFrequency = model.FrequencyMonthlyProbable
		}
	}

	groups := make(map[seriesKey][]int)
	var order []seriesKey
	for i := range rows {
		key := seriesKey{description: rows[i].Raw.Description, amount: rows[i].Amount.String()}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], i)
	}

	for _, key := range order {
		members := groups[key]
		if len(members) < 2 {
			continue
		}
		frequency := classifyGaps(rows, members, c.Windows)
		if frequency == model.FrequencyNone {
			continue
		}
		for _, i := range members {
			rows[i].IsRecurring = true
			rows[i].RecurringFrequency = frequency
		}
	}

	count := 0
	for i := range rows {
		if rows[i].IsRecurring {
			count++
		}
	}
	return count
}

func classifyGaps(rows []model.EnrichedTransaction, members []int, windows []rules.FrequencyWindow) model.RecurringFrequency {
	dates := make([]time.Time, len(members))
	for j, i := range members {
		dates[j] = rows[i].Raw.TransactionDate
	}
	sort.SliceStable(dates, func(a, b int) bool { return dates[a].Before(dates[b]) })

	total := 0
	for j := 1; j < len(dates); j++ {
		total += daysBetween(dates[j-1], dates[j])
	}
	mean := float64(total) / float64(len(dates)-1)

	for _, w := range windows {
		if mean >= w.MinDays && mean <= w.MaxDays {
			return w.Frequency
		}
	}
	return model.FrequencyNone
}

// daysBetween counts whole calendar days, ignoring time of day and DST shifts.
func daysBetween(a, b time.Time) int {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
