package models

// OrderStatus is a state in the quotation lifecycle.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusApproved  OrderStatus = "approved"
	StatusConfirmed OrderStatus = "confirmed"
	StatusRejected  OrderStatus = "rejected"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
)

// approved is an admin label only; nothing requires passing through it.
var validNext = map[OrderStatus]map[OrderStatus]bool{
	StatusPending:   {StatusApproved: true, StatusConfirmed: true, StatusRejected: true},
	StatusApproved:  {StatusConfirmed: true, StatusRejected: true},
	StatusConfirmed: {StatusShipped: true},
	StatusShipped:   {StatusDelivered: true},
	StatusRejected:  {},
	StatusDelivered: {},
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransition reports whether the state machine allows from -> to.
func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

// ReminderStatuses are the states whose deliveries get a day-before reminder.
var ReminderStatuses = []OrderStatus{StatusConfirmed, StatusShipped}
