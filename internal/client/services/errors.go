package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
)

var (
	ErrEmailRequired = errors.New("email is required for registration")
	ErrInvalidStock  = errors.New("stock must be a valid non-negative number")
	ErrInvalidPrice  = errors.New("price must be a valid non-negative number")
	ErrEmptyCart     = errors.New("cart is empty")
	ErrAlreadyInCart = errors.New("item already in cart")
	ErrOutOfStock    = errors.New("out of stock")
	ErrNotInCart     = errors.New("item is not in cart")
)

// displayText holds the user-facing wording of the local errors above.
var displayText = []struct {
	err  error
	text string
}{
	{ErrEmailRequired, "Email is required for registration"},
	{ErrInvalidStock, "Stock must be a valid non-negative number"},
	{ErrInvalidPrice, "Price must be a valid non-negative number"},
	{ErrEmptyCart, "Cart is empty"},
	{ErrAlreadyInCart, "Item already in cart"},
	{ErrOutOfStock, "Out of stock"},
	{ErrNotInCart, "Item is not in cart"},
}

// AuthFailure is the result of a failed login or registration. Msg is ready
// for display.
type AuthFailure struct {
	Msg string
	Err error
}

func (e *AuthFailure) Error() string { return e.Msg }

func (e *AuthFailure) Unwrap() error { return e.Err }

// CheckoutError reports an order that was created but could not be filled.
// Cancelled tells whether the order was cancelled again afterwards.
type CheckoutError struct {
	OrderID   int64
	Cancelled bool
	Err       error
}

func (e *CheckoutError) Error() string {
	return fmt.Sprintf("order %d: %v", e.OrderID, e.Err)
}

func (e *CheckoutError) Unwrap() error { return e.Err }

// Describe renders err for the user. For backend errors the message is taken
// from the response body, first from the named fields (and
// non_field_errors), then from "detail", "error" and "message"; fallback is
// used when none is present. An unreachable backend gets a fixed hint that
// names its URL. Local validation errors get their display wording; anything
// else renders its own message.
func Describe(err error, fallback string, fields ...string) string {
	if err == nil {
		return ""
	}

	var authErr *AuthFailure
	if errors.As(err, &authErr) {
		return authErr.Msg
	}

	var checkoutErr *CheckoutError
	if errors.As(err, &checkoutErr) {
		msg := Describe(checkoutErr.Err, fallback, fields...)
		if checkoutErr.Cancelled {
			return fmt.Sprintf("%s (order #%d was cancelled)", msg, checkoutErr.OrderID)
		}
		return fmt.Sprintf("%s (order #%d is left pending)", msg, checkoutErr.OrderID)
	}

	for _, d := range displayText {
		if errors.Is(err, d.err) {
			return d.text
		}
	}

	var connErr *api.ConnectionError
	if errors.As(err, &connErr) {
		return fmt.Sprintf("Cannot connect to backend server at %s. Make sure it is running.", connErr.BaseURL)
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		if msg := messageFromBody(apiErr.Body, fields); msg != "" {
			return msg
		}
		if fallback != "" {
			return fallback
		}
		return apiErr.Error()
	}

	return err.Error()
}

func messageFromBody(body []byte, fields []string) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		var list []json.RawMessage
		if json.Unmarshal(body, &list) == nil && len(list) > 0 {
			return firstString(list[0])
		}
		return ""
	}

	keys := append(append([]string{}, fields...), "non_field_errors", "detail", "error", "message")
	for _, k := range keys {
		if raw, ok := obj[k]; ok {
			if msg := firstString(raw); msg != "" {
				return msg
			}
		}
	}
	return ""
}

// firstString reads a JSON string, or the first element of a JSON array of
// strings.
func firstString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		return strings.TrimSpace(list[0])
	}
	return ""
}
