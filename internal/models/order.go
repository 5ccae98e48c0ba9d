package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Unit is the measure a line item quantity is expressed in.
type Unit string

const (
	UnitKilogram Unit = "kg"
	UnitGram     Unit = "g"
)

// Valid reports whether u is a supported unit.
func (u Unit) Valid() bool {
	return u == UnitKilogram || u == UnitGram
}

// DefaultCurrency applies when pricing does not name one.
const DefaultCurrency = "INR"

// currencyScale is the number of decimal places kept for money, matching the decimal(14,2) columns.
const currencyScale int32 = 2

// LineItem is one product entry within an order. UnitPrice and LineTotal stay nil until priced.
type LineItem struct {
	ProductID string           `json:"product_id"`
	Name      string           `json:"name"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Unit      Unit             `json:"unit"`
	UnitPrice *decimal.Decimal `json:"unit_price,omitempty"`
	LineTotal *decimal.Decimal `json:"line_total,omitempty"`
}

// ModificationEntry records one buyer edit made while the order was pending.
type ModificationEntry struct {
	PreviousProducts []LineItem `json:"previous_products"`
	NewProducts      []LineItem `json:"new_products"`
	ModifiedAt       time.Time  `json:"modified_at"`
}

// PriceUpdateEntry is a snapshot taken on every admin pricing action.
type PriceUpdateEntry struct {
	Products       []LineItem      `json:"products"`
	Currency       string          `json:"currency"`
	ShippingCharge decimal.Decimal `json:"shipping_charge"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	Notes          string          `json:"notes,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Order is a buyer's quotation request and its lifecycle.
type Order struct {
	ID                    string                                 `json:"id" gorm:"primaryKey;type:varchar(36)"`
	BuyerID               string                                 `json:"buyer_id" gorm:"index;type:varchar(36);not null"`
	Buyer                 *UserSummary                           `json:"buyer,omitempty" gorm:"-"`
	Products              datatypes.JSONSlice[LineItem]          `json:"products" gorm:"not null"`
	Currency              string                                 `json:"currency" gorm:"type:varchar(8);default:INR"`
	ShippingCharge        decimal.Decimal                        `json:"shipping_charge" gorm:"type:decimal(14,2)"`
	TotalAmount           decimal.Decimal                        `json:"total_amount" gorm:"type:decimal(14,2)"`
	Status                OrderStatus                            `json:"status" gorm:"index;type:varchar(16);not null"`
	DeliveryRequest       string                                 `json:"delivery_request,omitempty"`
	RequestedDeliveryDate *time.Time                             `json:"requested_delivery_date,omitempty"`
	EstimatedDeliveryDate *time.Time                             `json:"estimated_delivery_date,omitempty"`
	DeliveryReminderSent  bool                                   `json:"delivery_reminder_sent" gorm:"index;not null;default:false"`
	AdminNotes            string                                 `json:"admin_notes,omitempty"`
	PriceUpdatedAt        *time.Time                             `json:"price_updated_at,omitempty"`
	ModificationHistory   datatypes.JSONSlice[ModificationEntry] `json:"modification_history"`
	PriceUpdateHistory    datatypes.JSONSlice[PriceUpdateEntry]  `json:"price_update_history"`
	Version               int                                    `json:"version" gorm:"not null;default:1"`
	CreatedAt             time.Time                              `json:"created_at"`
	UpdatedAt             time.Time                              `json:"updated_at"`
}

// ShortID is the reference shown to buyers in emails and on screen.
func (o *Order) ShortID() string {
	id := strings.ReplaceAll(o.ID, "-", "")
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return strings.ToUpper(id)
}

// EffectiveDeliveryDate returns the admin-committed date when set, else the buyer's requested date.
func (o *Order) EffectiveDeliveryDate() *time.Time {
	if o.EstimatedDeliveryDate != nil {
		return o.EstimatedDeliveryDate
	}
	return o.RequestedDeliveryDate
}

// HasPricing reports whether at least one line carries a non-zero unit price.
func (o *Order) HasPricing() bool {
	for _, li := range o.Products {
		if li.UnitPrice != nil && !li.UnitPrice.IsZero() {
			return true
		}
	}
	return false
}

// Clone returns a deep copy, so a failed persist never leaks a half-applied mutation.
func (o *Order) Clone() *Order {
	c := *o
	c.Products = cloneLineItems(o.Products)
	if o.ModificationHistory != nil {
		c.ModificationHistory = make(datatypes.JSONSlice[ModificationEntry], len(o.ModificationHistory))
		copy(c.ModificationHistory, o.ModificationHistory)
	}
	if o.PriceUpdateHistory != nil {
		c.PriceUpdateHistory = make(datatypes.JSONSlice[PriceUpdateEntry], len(o.PriceUpdateHistory))
		copy(c.PriceUpdateHistory, o.PriceUpdateHistory)
	}
	if o.Buyer != nil {
		b := *o.Buyer
		c.Buyer = &b
	}
	return &c
}

func cloneLineItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	for i, li := range items {
		out[i] = li
		if li.UnitPrice != nil {
			p := *li.UnitPrice
			out[i].UnitPrice = &p
		}
		if li.LineTotal != nil {
			t := *li.LineTotal
			out[i].LineTotal = &t
		}
	}
	return out
}
