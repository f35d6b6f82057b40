package models

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// gstinRe matches the standard 15-character GSTIN layout:
// 2-digit state code, 10-character PAN, entity digit, "Z", checksum.
var gstinRe = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][0-9A-Z]Z[0-9A-Z]$`)

// CompanyConfig is the seller profile supplied once per batch. It is
// immutable for the duration of a batch run.
type CompanyConfig struct {
	Name               string `json:"name"`
	GSTIN              string `json:"gstin"`
	Address            string `json:"address"`
	Email              string `json:"email"`
	Website            string `json:"website"`
	SellerState        string `json:"seller_state"`
	SellerStateCode    string `json:"seller_state_code"`
	ShippedFrom        string `json:"shipped_from"`
	HSNCode            string `json:"hsn_code"`
	TransportMode      string `json:"transport_mode"`
	InvoicePrefix      string `json:"invoice_prefix"`
	InvoiceStartNumber int64  `json:"invoice_start_number"`
}

// Validate rejects a malformed seller profile before any order is processed.
func (c *CompanyConfig) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("company name is required")
	}
	if strings.TrimSpace(c.GSTIN) != "" && !gstinRe.MatchString(strings.ToUpper(strings.TrimSpace(c.GSTIN))) {
		return fmt.Errorf("GSTIN %q is not a valid 15-character GSTIN", c.GSTIN)
	}
	if strings.TrimSpace(c.SellerState) == "" {
		return fmt.Errorf("seller state is required")
	}
	if !IsKnownStateCode(c.SellerStateCode) {
		return fmt.Errorf("seller state code %q is not a recognized two-digit GST state code", c.SellerStateCode)
	}
	if c.InvoiceStartNumber < 1 {
		return fmt.Errorf("invoice start number must be a positive integer, got %d", c.InvoiceStartNumber)
	}
	return nil
}

// TaxRule is one entry in the seller's rate schedule. A nil To means the
// rule is open-ended into the future.
type TaxRule struct {
	From time.Time  `json:"from"`
	To   *time.Time `json:"to"`
	Rate float64    `json:"rate"`
}

// Contains reports whether the rule's closed interval [From, To] covers d.
// Comparison is by calendar day.
func (r *TaxRule) Contains(d time.Time) bool {
	day := truncateToDay(d)
	if day.Before(truncateToDay(r.From)) {
		return false
	}
	if r.To == nil {
		return true
	}
	return !day.After(truncateToDay(*r.To))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// InvoiceConfig bundles the seller profile with its rate schedule, matching
// the shape the caller submits alongside each batch.
type InvoiceConfig struct {
	Company  CompanyConfig `json:"company"`
	TaxRules []TaxRule     `json:"tax_rules"`
}

// taxRuleJSON is the wire form: ISO dates, "to" nullable.
type taxRuleJSON struct {
	From string  `json:"from"`
	To   *string `json:"to"`
	Rate float64 `json:"rate"`
}

// MarshalJSON renders dates as YYYY-MM-DD.
func (r TaxRule) MarshalJSON() ([]byte, error) {
	out := taxRuleJSON{From: r.From.Format("2006-01-02"), Rate: r.Rate}
	if r.To != nil {
		s := r.To.Format("2006-01-02")
		out.To = &s
	}
	return json.Marshal(out)
}

// UnmarshalJSON parses YYYY-MM-DD dates and treats a null or empty "to"
// as open-ended.
func (r *TaxRule) UnmarshalJSON(data []byte) error {
	var raw taxRuleJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	from, err := time.Parse("2006-01-02", strings.TrimSpace(raw.From))
	if err != nil {
		return fmt.Errorf("tax rule 'from' date %q: %w", raw.From, err)
	}
	r.From = from
	r.To = nil
	if raw.To != nil && strings.TrimSpace(*raw.To) != "" {
		to, err := time.Parse("2006-01-02", strings.TrimSpace(*raw.To))
		if err != nil {
			return fmt.Errorf("tax rule 'to' date %q: %w", *raw.To, err)
		}
		r.To = &to
	}
	r.Rate = raw.Rate
	return nil
}
