// Package taxrules resolves the applicable GST rate for an order date from
// the seller's date-range rate schedule.
package taxrules

import (
	"fmt"
	"sort"
	"time"

	"invoicekit/internal/models"
)

// InvalidRuleError reports a misconfigured rule, such as an inverted
// interval (to < from) or a negative rate.
type InvalidRuleError struct {
	Index  int
	Rule   models.TaxRule
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("tax rule %d (from %s): %s", e.Index, e.Rule.From.Format("2006-01-02"), e.Reason)
}

// NoMatchingRuleError reports an order date covered by no rule.
type NoMatchingRuleError struct {
	Date time.Time
}

func (e *NoMatchingRuleError) Error() string {
	return fmt.Sprintf("no tax rule covers order date %s", e.Date.Format("2006-01-02"))
}

// Validate checks every rule's interval and collects overlap warnings.
// Inverted intervals are a hard configuration error; overlaps are legal
// (the later 'from' wins at resolution time) but legitimate schedules
// should never contain them, so they are surfaced to the caller.
func Validate(rules []models.TaxRule) ([]string, error) {
	for i, r := range rules {
		if r.Rate < 0 {
			return nil, &InvalidRuleError{Index: i, Rule: r, Reason: fmt.Sprintf("rate %.2f is negative", r.Rate)}
		}
		if r.To != nil && r.To.Before(r.From) {
			return nil, &InvalidRuleError{Index: i, Rule: r,
				Reason: fmt.Sprintf("'to' date %s is before 'from' date", r.To.Format("2006-01-02"))}
		}
	}

	var warnings []string
	for i := 0; i < len(rules); i++ {
		for j := i + 1; j < len(rules); j++ {
			if overlaps(rules[i], rules[j]) {
				warnings = append(warnings, fmt.Sprintf(
					"tax rules starting %s and %s overlap; the later 'from' date takes precedence",
					rules[i].From.Format("2006-01-02"), rules[j].From.Format("2006-01-02")))
			}
		}
	}
	return warnings, nil
}

func overlaps(a, b models.TaxRule) bool {
	if a.To != nil && a.To.Before(b.From) {
		return false
	}
	if b.To != nil && b.To.Before(a.From) {
		return false
	}
	return true
}

// Resolve returns the rate applicable on orderDate. Among all rules whose
// closed interval contains the date, the one with the latest 'from' wins.
// The input slice is never mutated and its order does not matter.
func Resolve(orderDate time.Time, rules []models.TaxRule) (float64, error) {
	matching := make([]models.TaxRule, 0, len(rules))
	for _, r := range rules {
		if r.Contains(orderDate) {
			matching = append(matching, r)
		}
	}
	if len(matching) == 0 {
		return 0, &NoMatchingRuleError{Date: orderDate}
	}

	sort.SliceStable(matching, func(i, j int) bool {
		return matching[i].From.After(matching[j].From)
	})
	return matching[0].Rate, nil
}
