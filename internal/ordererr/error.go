package ordererr

import (
	"fmt"
)

// Fixed user-visible replies.
const (
	MsgOrderNotFound   = "❌ Order ID not found in pending orders."
	MsgNoPermission    = "❌ You do not have permission to manage orders."
	MsgNoPendingOrders = "📭 No pending orders found."
	MsgGenericFailure  = "❌ Error processing order. Please try again."
	MsgWrongChannel    = "❌ Order commands are not allowed in this channel."
)

// UserFacing is an error that carries a reply safe to show to the
// invoking administrator.
type UserFacing interface {
	Error() string
	UserMessage() string
}

type ExtractionError struct {
	missing string
}

func NewExtractionError(missing string) *ExtractionError {
	return &ExtractionError{missing: missing}
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: no %s found", e.missing)
}

type DuplicateOrderError struct {
	orderID string
}

func NewDuplicateOrderError(orderID string) *DuplicateOrderError {
	return &DuplicateOrderError{orderID: orderID}
}

func (e *DuplicateOrderError) Error() string {
	return fmt.Sprintf("duplicate order: %s already pending", e.orderID)
}

type OrderNotFoundError struct {
	orderID string
}

func NewOrderNotFoundError(orderID string) *OrderNotFoundError {
	return &OrderNotFoundError{orderID: orderID}
}

func (e *OrderNotFoundError) Error() string {
	return fmt.Sprintf("order not found: %s", e.orderID)
}

func (e *OrderNotFoundError) UserMessage() string {
	return MsgOrderNotFound
}

type PermissionDeniedError struct {
	userID string
}

func NewPermissionDeniedError(userID string) *PermissionDeniedError {
	return &PermissionDeniedError{userID: userID}
}

func (e *PermissionDeniedError) Error() string {
	return fmt.Sprintf("permission denied for user %s", e.userID)
}

func (e *PermissionDeniedError) UserMessage() string {
	return MsgNoPermission
}

type UserResolutionError struct {
	username string
}

func NewUserResolutionError(username string) *UserResolutionError {
	return &UserResolutionError{username: username}
}

func (e *UserResolutionError) Error() string {
	return fmt.Sprintf("user resolution failed: %s", e.username)
}

func (e *UserResolutionError) UserMessage() string {
	return fmt.Sprintf("❌ User not found: %s. They might have left or the username is incorrect.", e.username)
}

// DeliveryError wraps a failed DM or announcement send. Non-fatal: the
// caller falls back to a channel mention or just logs it.
type DeliveryError struct {
	target string
	err    error
}

func NewDeliveryError(target string, err error) *DeliveryError {
	return &DeliveryError{target: target, err: err}
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.target, e.err)
}

func (e *DeliveryError) Unwrap() error {
	return e.err
}
