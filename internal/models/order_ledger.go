package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// PriceLine is the admin-supplied unit price for every line of one product.
type PriceLine struct {
	ProductID string          `json:"product_id" validate:"required"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// NewOrder builds a pending order. Products must be non-empty and well formed.
func NewOrder(buyerID string, products []LineItem, deliveryRequest string, requestedDeliveryDate *time.Time, now time.Time) (*Order, error) {
	if buyerID == "" {
		return nil, &ValidationError{Field: "buyer", Message: "buyer is required"}
	}
	if err := validateLineItems(products); err != nil {
		return nil, err
	}
	return &Order{
		ID:                    uuid.New().String(),
		BuyerID:               buyerID,
		Products:              stripPricing(products),
		Currency:              DefaultCurrency,
		ShippingCharge:        decimal.Zero,
		TotalAmount:           decimal.Zero,
		Status:                StatusPending,
		DeliveryRequest:       strings.TrimSpace(deliveryRequest),
		RequestedDeliveryDate: normalizeDate(requestedDeliveryDate),
		ModificationHistory:   datatypes.JSONSlice[ModificationEntry]{},
		PriceUpdateHistory:    datatypes.JSONSlice[PriceUpdateEntry]{},
		Version:               1,
		CreatedAt:             now,
		UpdatedAt:             now,
	}, nil
}

// ApplyBuyerModification replaces the products of a pending, not yet priced order and
// records the edit. Pricing and totals are left untouched.
func (o *Order) ApplyBuyerModification(newProducts []LineItem, now time.Time) error {
	if o.Status != StatusPending {
		return &InvalidStateError{Current: o.Status, Operation: "product modification", Message: "order already processed"}
	}
	if len(o.PriceUpdateHistory) > 0 {
		return &InvalidStateError{Current: o.Status, Operation: "product modification", Message: "order already priced"}
	}
	if err := validateLineItems(newProducts); err != nil {
		return err
	}

	previous := cloneLineItems(o.Products)
	next := stripPricing(newProducts)
	o.Products = next
	o.ModificationHistory = append(o.ModificationHistory, ModificationEntry{
		PreviousProducts: previous,
		NewProducts:      cloneLineItems(next),
		ModifiedAt:       now,
	})
	o.UpdatedAt = now
	return nil
}

// ApplyPricing sets unit prices, recomputes every line total and the order total, and
// snapshots the result into the price history. It is allowed in any status.
func (o *Order) ApplyPricing(lines []PriceLine, currency string, shippingCharge decimal.Decimal, notes string, now time.Time) error {
	if len(lines) == 0 {
		return &ValidationError{Field: "line_items", Message: "at least one priced line item is required"}
	}
	if shippingCharge.IsNegative() {
		return &ValidationError{Field: "shipping_charge", Message: "shipping charge cannot be negative"}
	}
	if !shippingCharge.Equal(shippingCharge.Round(currencyScale)) {
		return &ValidationError{Field: "shipping_charge", Message: fmt.Sprintf("shipping charge has more than %d decimal places", currencyScale)}
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	if !currencyPattern.MatchString(currency) {
		return &ValidationError{Field: "currency", Message: fmt.Sprintf("unsupported currency code %q", currency)}
	}

	prices := make(map[string]decimal.Decimal, len(lines))
	for _, pl := range lines {
		if pl.UnitPrice.IsNegative() {
			return &ValidationError{Field: "unit_price", Message: fmt.Sprintf("unit price for %s cannot be negative", pl.ProductID)}
		}
		if !o.hasProduct(pl.ProductID) {
			return &ValidationError{Field: "product_id", Message: fmt.Sprintf("product %s is not part of this order", pl.ProductID)}
		}
		prices[pl.ProductID] = pl.UnitPrice
	}

	for i := range o.Products {
		if p, ok := prices[o.Products[i].ProductID]; ok {
			price := p
			o.Products[i].UnitPrice = &price
		}
	}
	o.Currency = currency
	o.ShippingCharge = shippingCharge
	o.recomputeTotals()

	o.PriceUpdateHistory = append(o.PriceUpdateHistory, PriceUpdateEntry{
		Products:       cloneLineItems(o.Products),
		Currency:       o.Currency,
		ShippingCharge: o.ShippingCharge,
		TotalAmount:    o.TotalAmount,
		Notes:          strings.TrimSpace(notes),
		UpdatedAt:      now,
	})
	priced := now
	o.PriceUpdatedAt = &priced
	o.UpdatedAt = now
	return nil
}

// SetStatus moves the order along the state machine. Confirmation needs pricing and an
// estimated delivery date supplied in the same call.
func (o *Order) SetStatus(next OrderStatus, adminNotes *string, estimatedDeliveryDate *time.Time, now time.Time) error {
	if !next.Valid() {
		return &ValidationError{Field: "status", Message: fmt.Sprintf("unknown order status %q", next)}
	}
	if !CanTransition(o.Status, next) {
		return &InvalidTransitionError{From: o.Status, To: next}
	}
	if next == StatusConfirmed {
		if !o.HasPricing() {
			return &InvalidStateError{Current: o.Status, Operation: "confirmation", Message: "pricing required before confirmation"}
		}
		if estimatedDeliveryDate == nil {
			return &ValidationError{Field: "estimated_delivery_date", Message: "estimated delivery date is required to confirm an order"}
		}
	}

	o.Status = next
	if adminNotes != nil {
		o.AdminNotes = strings.TrimSpace(*adminNotes)
	}
	if estimatedDeliveryDate != nil {
		o.EstimatedDeliveryDate = normalizeDate(estimatedDeliveryDate)
	}
	o.UpdatedAt = now
	return nil
}

// UpdateAdminNotes replaces the buyer-visible admin notes. Allowed in every status.
func (o *Order) UpdateAdminNotes(notes string, now time.Time) {
	o.AdminNotes = strings.TrimSpace(notes)
	o.UpdatedAt = now
}

// MarkReminderSent flips the reminder flag. Calling it again is a no-op.
func (o *Order) MarkReminderSent() {
	o.DeliveryReminderSent = true
}

func (o *Order) hasProduct(productID string) bool {
	for _, li := range o.Products {
		if li.ProductID == productID {
			return true
		}
	}
	return false
}

// recomputeTotals derives line totals, rounded half-up to currency precision, and the
// order total as their exact sum plus shipping. Unpriced lines contribute nothing.
func (o *Order) recomputeTotals() {
	total := decimal.Zero
	for i := range o.Products {
		li := &o.Products[i]
		if li.UnitPrice == nil {
			li.LineTotal = nil
			continue
		}
		lt := li.UnitPrice.Mul(li.Quantity).Round(currencyScale)
		li.LineTotal = &lt
		total = total.Add(lt)
	}
	o.TotalAmount = total.Add(o.ShippingCharge)
}

func validateLineItems(items []LineItem) error {
	if len(items) == 0 {
		return &ValidationError{Field: "products", Message: "at least one product is required"}
	}
	for i, li := range items {
		if strings.TrimSpace(li.ProductID) == "" {
			return &ValidationError{Field: fmt.Sprintf("products[%d].product_id", i), Message: "product id is required"}
		}
		if !li.Quantity.IsPositive() {
			return &ValidationError{Field: fmt.Sprintf("products[%d].quantity", i), Message: "quantity must be greater than zero"}
		}
		if !li.Unit.Valid() {
			return &ValidationError{Field: fmt.Sprintf("products[%d].unit", i), Message: fmt.Sprintf("unit must be kg or g, got %q", li.Unit)}
		}
	}
	return nil
}

func stripPricing(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, li := range items {
		out[i] = LineItem{
			ProductID: strings.TrimSpace(li.ProductID),
			Name:      li.Name,
			Quantity:  li.Quantity,
			Unit:      li.Unit,
		}
	}
	return out
}

// normalizeDate stores dates in UTC at second precision so range queries compare cleanly.
func normalizeDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	n := t.UTC().Truncate(time.Second)
	return &n
}
