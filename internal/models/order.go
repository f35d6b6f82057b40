package models

import "time"

// LineItem is a single product line inside an order.
type LineItem struct {
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Variant   string  `json:"variant"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	Discount  float64 `json:"discount"`
}

// Order is one normalized row group from the ingested export. Orders are
// read-only downstream of ingestion and are discarded when the batch ends.
type Order struct {
	Number          string     `json:"order_number"`
	CreatedAt       time.Time  `json:"created_at"`
	CustomerName    string     `json:"customer_name"`
	Email           string     `json:"email"`
	Phone           string     `json:"phone"`
	BillingAddress1 string     `json:"billing_address1"`
	BillingAddress2 string     `json:"billing_address2"`
	BillingCity     string     `json:"billing_city"`
	BillingZip      string     `json:"billing_zip"`
	BuyerState      string     `json:"buyer_state"`
	BuyerCountry    string     `json:"buyer_country"`
	LineItems       []LineItem `json:"line_items"`
	TaxableAmount   float64    `json:"taxable_amount"`
	ShippingAmount  float64    `json:"shipping_amount"`
}
