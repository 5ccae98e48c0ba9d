package notify

import (
	"fmt"
	"strings"
	"time"

	"spiceexport/internal/models"
)

// Renderer turns order events into buyer- and admin-facing emails.
type Renderer struct {
	AdminEmail string
	Location   *time.Location
}

// NewRenderer creates a Renderer. Dates are shown in loc.
func NewRenderer(adminEmail string, loc *time.Location) *Renderer {
	return &Renderer{AdminEmail: adminEmail, Location: loc}
}

// OrderCreated renders the buyer receipt and the admin alert for a new quotation request.
func (r *Renderer) OrderCreated(o *models.Order, buyer *models.UserSummary) []Notification {
	items := formatItems(o.Products, o.Currency)
	out := []Notification{}
	if buyer != nil && buyer.Email != "" {
		out = append(out, Notification{
			To:      buyer.Email,
			Subject: fmt.Sprintf("Quotation request #%s received", o.ShortID()),
			Body: fmt.Sprintf("Hello %s,\n\nWe received your quotation request #%s.\n\nItems:\n%s\nRequested delivery: %s\n\nOur team will send pricing shortly.\n",
				buyer.Username, o.ShortID(), items, FormatDate(o.RequestedDeliveryDate, r.Location)),
		})
	}
	if r.AdminEmail != "" {
		out = append(out, Notification{
			To:      r.AdminEmail,
			Subject: fmt.Sprintf("New quotation request #%s from %s", o.ShortID(), buyerLabel(buyer)),
			Body: fmt.Sprintf("Order #%s (%s)\nBuyer: %s\n\nItems:\n%s\nDelivery note: %s\nRequested delivery: %s\n",
				o.ShortID(), o.ID, buyerLabel(buyer), items, orNone(o.DeliveryRequest), FormatDate(o.RequestedDeliveryDate, r.Location)),
		})
	}
	return out
}

// StatusChanged renders the buyer update for a status transition. Confirmations also alert the admin.
func (r *Renderer) StatusChanged(o *models.Order, buyer *models.UserSummary) []Notification {
	var headline string
	switch o.Status {
	case models.StatusApproved:
		headline = "has been approved and is being prepared for confirmation"
	case models.StatusConfirmed:
		headline = "is confirmed"
	case models.StatusRejected:
		headline = "could not be accepted"
	case models.StatusShipped:
		headline = "has shipped"
	case models.StatusDelivered:
		headline = "has been delivered"
	default:
		headline = "was updated to " + string(o.Status)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your order #%s %s.\n\nItems:\n%s", o.ShortID(), headline, formatItems(o.Products, o.Currency))
	if o.HasPricing() {
		fmt.Fprintf(&b, "\nShipping: %s\nTotal: %s\n", FormatMoney(o.Currency, o.ShippingCharge), FormatMoney(o.Currency, o.TotalAmount))
	}
	if o.Status != models.StatusRejected {
		fmt.Fprintf(&b, "\nDelivery date: %s\n", FormatDate(o.EffectiveDeliveryDate(), r.Location))
	}
	if o.AdminNotes != "" {
		fmt.Fprintf(&b, "\nNotes from our team: %s\n", o.AdminNotes)
	}

	out := []Notification{}
	if buyer != nil && buyer.Email != "" {
		out = append(out, Notification{
			To:      buyer.Email,
			Subject: fmt.Sprintf("Order #%s %s", o.ShortID(), o.Status),
			Body:    b.String(),
		})
	}
	if o.Status == models.StatusConfirmed && r.AdminEmail != "" {
		out = append(out, Notification{
			To:      r.AdminEmail,
			Subject: fmt.Sprintf("Order #%s confirmed for %s", o.ShortID(), buyerLabel(buyer)),
			Body:    b.String(),
		})
	}
	return out
}

// PricingUpdated renders the buyer notice for a new or revised quotation.
func (r *Renderer) PricingUpdated(o *models.Order, buyer *models.UserSummary, revised bool) []Notification {
	if buyer == nil || buyer.Email == "" {
		return nil
	}
	subject := fmt.Sprintf("Quotation for order #%s", o.ShortID())
	intro := "Here is the quotation for your order"
	if revised {
		subject = fmt.Sprintf("Revised pricing for order #%s", o.ShortID())
		intro = "Market prices changed and your order has been re-priced"
	}
	body := fmt.Sprintf("%s #%s.\n\nItems:\n%s\nShipping: %s\nTotal: %s\n",
		intro, o.ShortID(), formatItems(o.Products, o.Currency), FormatMoney(o.Currency, o.ShippingCharge), FormatMoney(o.Currency, o.TotalAmount))
	if n := len(o.PriceUpdateHistory); n > 0 && o.PriceUpdateHistory[n-1].Notes != "" {
		body += "\nNotes: " + o.PriceUpdateHistory[n-1].Notes + "\n"
	}
	return []Notification{{To: buyer.Email, Subject: subject, Body: body}}
}

// BuyerModified alerts the admin that a pending order changed.
func (r *Renderer) BuyerModified(o *models.Order, buyer *models.UserSummary) []Notification {
	if r.AdminEmail == "" {
		return nil
	}
	return []Notification{{
		To:      r.AdminEmail,
		Subject: fmt.Sprintf("Order #%s modified by %s", o.ShortID(), buyerLabel(buyer)),
		Body:    fmt.Sprintf("The buyer updated order #%s.\n\nNew items:\n%s", o.ShortID(), formatItems(o.Products, o.Currency)),
	}}
}

// DeliveryReminder renders the day-before reminder for the buyer.
func (r *Renderer) DeliveryReminder(o *models.Order, buyer *models.UserSummary) (Notification, bool) {
	if buyer == nil || buyer.Email == "" {
		return Notification{}, false
	}
	return Notification{
		To:      buyer.Email,
		Subject: fmt.Sprintf("Delivery tomorrow: order #%s", o.ShortID()),
		Body: fmt.Sprintf("Hello %s,\n\nYour order #%s is scheduled for delivery on %s.\n\nItems:\n%s",
			buyer.Username, o.ShortID(), FormatDate(o.EffectiveDeliveryDate(), r.Location), formatItems(o.Products, o.Currency)),
	}, true
}

// ReminderDigest lists every order due tomorrow for the admin.
func (r *Renderer) ReminderDigest(orders []models.Order, buyers map[string]*models.UserSummary) (Notification, bool) {
	if r.AdminEmail == "" || len(orders) == 0 {
		return Notification{}, false
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d order(s) are due for delivery tomorrow:\n\n", len(orders))
	for i := range orders {
		o := &orders[i]
		fmt.Fprintf(&b, "#%s  %s  %s  %s\n%s\n", o.ShortID(), buyerLabel(buyers[o.BuyerID]), o.Status,
			FormatDate(o.EffectiveDeliveryDate(), r.Location), formatItems(o.Products, o.Currency))
	}
	return Notification{
		To:      r.AdminEmail,
		Subject: fmt.Sprintf("Deliveries due tomorrow (%d)", len(orders)),
		Body:    b.String(),
	}, true
}

func buyerLabel(b *models.UserSummary) string {
	if b == nil {
		return "unknown buyer"
	}
	if b.Company != "" {
		return fmt.Sprintf("%s (%s)", b.Username, b.Company)
	}
	return b.Username
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
