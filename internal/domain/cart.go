package domain

import "math"

// Quantity bounds enforced on every cart line. The remote service applies
// its own clamp; these guard the local state.
const (
	MinQuantity = 1
	MaxQuantity = 10
)

// CartLineItem is one row in a user's cart: a product+variant+quantity tuple.
type CartLineItem struct {
	ID                string  `json:"id"`
	ProductID         int64   `json:"product_id"`
	Name              string  `json:"name"`
	StoreName         string  `json:"store_name"`
	Category          string  `json:"category"`
	ImageRef          string  `json:"image"`
	UnitPrice         float64 `json:"unit_price"`
	OriginalUnitPrice float64 `json:"original_unit_price,omitempty"`
	CODFee            float64 `json:"cod_fee"`
	Quantity          int     `json:"quantity"`
	StockAvailable    int     `json:"stock"`
	SelectedColor     string  `json:"selected_color,omitempty"`
	SelectedSize      string  `json:"selected_size,omitempty"`
	Selected          bool    `json:"selected"`
}

// LineTotal is the price contribution of this line, before shipping.
func (l CartLineItem) LineTotal() float64 {
	return l.UnitPrice * float64(l.Quantity)
}

// Product is a catalog entry returned by the related-items lookup.
type Product struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	StoreName string  `json:"store_name"`
	Category  string  `json:"category"`
	ImageRef  string  `json:"image"`
	Price     float64 `json:"price"`
}

// CartSnapshot is the derived monetary view of a cart. It is recomputed
// from the line items on every query and never persisted.
//
// Total is subtotal plus shipping. Discount is carried for display but is
// not subtracted from Total; the voucher is settled at a later payment step.
type CartSnapshot struct {
	Subtotal    float64 `json:"subtotal"`
	ShippingFee float64 `json:"shipping_fee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// ComputeSnapshot derives the monetary totals from the selected lines.
func ComputeSnapshot(items []CartLineItem, discount float64) CartSnapshot {
	var subtotal, shipping float64
	for _, l := range items {
		if !l.Selected {
			continue
		}
		subtotal += l.LineTotal()
		shipping += l.CODFee
	}
	return CartSnapshot{
		Subtotal:    subtotal,
		ShippingFee: shipping,
		Discount:    discount,
		Total:       Round2(subtotal + shipping),
	}
}

// SelectedSubtotal sums unit price times quantity over the selected lines.
func SelectedSubtotal(items []CartLineItem) float64 {
	var subtotal float64
	for _, l := range items {
		if l.Selected {
			subtotal += l.LineTotal()
		}
	}
	return subtotal
}

// Round2 rounds a monetary amount to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampQuantity forces q into the allowed [MinQuantity, MaxQuantity] range.
func ClampQuantity(q int) int {
	if q < MinQuantity {
		return MinQuantity
	}
	if q > MaxQuantity {
		return MaxQuantity
	}
	return q
}
