package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"invoicekit/internal/models"
)

// Column names of the order-export schema. The export repeats the order
// name on every row; rows after the first for an order carry only line
// item columns.
const (
	colName         = "Name"
	colCreatedAt    = "Created at"
	colBillingName  = "Billing Name"
	colBillingFirst = "Billing First Name"
	colBillingLast  = "Billing Last Name"
	colAddress1     = "Billing Address1"
	colAddress2     = "Billing Address2"
	colCity         = "Billing City"
	colZip          = "Billing Zip"
	colProvince     = "Billing Province Name"
	colCountry      = "Billing Country"
	colEmail        = "Email"
	colPhone        = "Phone"
	colSubtotal     = "Subtotal"
	colShipping     = "Shipping"
	colItemName     = "Lineitem name"
	colItemQty      = "Lineitem quantity"
	colItemPrice    = "Lineitem price"
	colItemSKU      = "Lineitem sku"
	colItemDiscount = "Lineitem discount"
	colItemVariant  = "Lineitem variant title"
)

var requiredColumns = []string{colName, colCreatedAt, colProvince, colSubtotal, colItemName}

// createdAtFormats are the date layouts seen in real exports, most specific
// first.
var createdAtFormats = []string{
	"2006-01-02 15:04:05 -0700",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
}

func parseRows(rows [][]string) ([]*models.Order, error) {
	if len(rows) == 0 {
		return nil, &ParseError{Msg: "export is empty"}
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.TrimSpace(name)] = i
	}
	for _, col := range requiredColumns {
		if _, ok := header[col]; !ok {
			return nil, &ParseError{Row: 1, Msg: fmt.Sprintf("required column %q is missing", col)}
		}
	}

	field := func(row []string, col string) string {
		idx, ok := header[col]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var ordered []*models.Order
	byNumber := make(map[string]*models.Order)
	var last *models.Order

	for i, row := range rows[1:] {
		rowNum := i + 2

		number := field(row, colName)
		item, hasItem := lineItem(row, field)

		if number == "" {
			// Continuation row: a line item that belongs to the most
			// recently seen order.
			if !hasItem {
				continue
			}
			if last == nil {
				return nil, &ParseError{Row: rowNum, Msg: "line item row has no order to merge into"}
			}
			last.LineItems = append(last.LineItems, item)
			last.TaxableAmount += money(field(row, colSubtotal))
			continue
		}

		order, seen := byNumber[number]
		if !seen {
			createdRaw := field(row, colCreatedAt)
			if createdRaw == "" {
				return nil, &ParseError{Row: rowNum, Msg: fmt.Sprintf("order %s has no %q value", number, colCreatedAt)}
			}
			created, err := parseCreatedAt(createdRaw)
			if err != nil {
				return nil, &ParseError{Row: rowNum, Msg: fmt.Sprintf("order %s: unparsable date %q", number, createdRaw)}
			}

			order = &models.Order{
				Number:          number,
				CreatedAt:       created,
				CustomerName:    customerName(row, field),
				Email:           field(row, colEmail),
				Phone:           field(row, colPhone),
				BillingAddress1: field(row, colAddress1),
				BillingAddress2: field(row, colAddress2),
				BillingCity:     field(row, colCity),
				BillingZip:      field(row, colZip),
				BuyerState:      field(row, colProvince),
				BuyerCountry:    field(row, colCountry),
				TaxableAmount:   money(field(row, colSubtotal)),
				ShippingAmount:  money(field(row, colShipping)),
			}
			byNumber[number] = order
			ordered = append(ordered, order)
		}

		if hasItem {
			order.LineItems = append(order.LineItems, item)
		}
		if seen {
			// Repeated subtotal cells on continuation rows are blank in
			// practice; when present they are per-row amounts to sum.
			order.TaxableAmount += money(field(row, colSubtotal))
		}
		last = order
	}

	// Address-only continuation groups carry neither a subtotal nor items
	// and are not orders.
	valid := ordered[:0]
	for _, o := range ordered {
		if o.TaxableAmount > 0 || len(o.LineItems) > 0 {
			valid = append(valid, o)
		}
	}
	return valid, nil
}

func lineItem(row []string, field func([]string, string) string) (models.LineItem, bool) {
	name := field(row, colItemName)
	if name == "" {
		return models.LineItem{}, false
	}
	return models.LineItem{
		Name:      name,
		SKU:       field(row, colItemSKU),
		Variant:   field(row, colItemVariant),
		Quantity:  quantity(field(row, colItemQty)),
		UnitPrice: money(field(row, colItemPrice)),
		Discount:  money(field(row, colItemDiscount)),
	}, true
}

func customerName(row []string, field func([]string, string) string) string {
	if name := field(row, colBillingName); name != "" {
		return name
	}
	return strings.TrimSpace(field(row, colBillingFirst) + " " + field(row, colBillingLast))
}

func parseCreatedAt(raw string) (time.Time, error) {
	for _, layout := range createdAtFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", raw)
}

func money(raw string) float64 {
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

func quantity(raw string) int {
	if raw == "" {
		return 1
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 1
	}
	return v
}
