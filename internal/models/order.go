package models

import "time"

type OrderStatus string

const (
	PendingStatus   OrderStatus = "PENDING"
	ApprovedStatus  OrderStatus = "APPROVED"
	RejectedStatus  OrderStatus = "REJECTED"
	DismissedStatus OrderStatus = "DISMISSED"
	ExpiredStatus   OrderStatus = "EXPIRED"
)

// OrderRecord is one pending purchase awaiting administrator action.
// Presence in the store is the definition of "pending": terminal states are
// reflected by removal, not by an in-place status update.
type OrderRecord struct {
	OrderID         string      `json:"order_id"`
	Username        string      `json:"username"`
	ProductDetails  string      `json:"product_details"`
	OriginChannelID string      `json:"origin_channel_id"`
	OriginMessageID string      `json:"origin_message_id"`
	CreatedAt       time.Time   `json:"created_at"`
	Status          OrderStatus `json:"status"`
}

// ScopedOrder annotates a record with the scope that owns it, for the
// global reporting views.
type ScopedOrder struct {
	Scope string      `json:"scope"`
	Order OrderRecord `json:"order"`
}
