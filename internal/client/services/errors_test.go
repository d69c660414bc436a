package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/dmitrijs2005/stockkeeper/internal/client/api"
	"github.com/stretchr/testify/assert"
)

func TestDescribe(t *testing.T) {
	apiErr := func(body string) error {
		return fmt.Errorf("wrapped: %w", &api.APIError{StatusCode: 400, Body: []byte(body)})
	}

	tests := []struct {
		name   string
		err    error
		fields []string
		want   string
	}{
		{"nil", nil, nil, ""},
		{"field array first element", apiErr(`{"sku":["taken","other"],"detail":"d"}`), []string{"name", "sku"}, "taken"},
		{"field string", apiErr(`{"name":"bad name","error":"e"}`), []string{"name"}, "bad name"},
		{"field order follows arguments", apiErr(`{"a":["first"],"b":["second"]}`), []string{"b", "a"}, "second"},
		{"unrequested field ignored", apiErr(`{"sku":["taken"],"error":"e"}`), nil, "e"},
		{"non field errors", apiErr(`{"non_field_errors":["nfe"],"detail":"d"}`), nil, "nfe"},
		{"detail before error", apiErr(`{"detail":"d","error":"e","message":"m"}`), nil, "d"},
		{"error before message", apiErr(`{"error":"e","message":"m"}`), nil, "e"},
		{"message", apiErr(`{"message":"m"}`), nil, "m"},
		{"empty values skipped", apiErr(`{"detail":"","error":[],"message":"m"}`), nil, "m"},
		{"top level list", apiErr(`["only"]`), nil, "only"},
		{"fallback", apiErr(`{"other":1}`), nil, "Fallback"},
		{"not json", apiErr(`<html/>`), nil, "Fallback"},
		{
			"connection",
			&api.ConnectionError{BaseURL: "http://127.0.0.1:8000/api/", Err: errors.New("refused")},
			nil,
			"Cannot connect to backend server at http://127.0.0.1:8000/api/. Make sure it is running.",
		},
		{"local validation", ErrInvalidStock, nil, "Stock must be a valid non-negative number"},
		{"wrapped local validation", fmt.Errorf("add: %w", ErrOutOfStock), nil, "Out of stock"},
		{"unknown", errors.New("disk on fire"), nil, "disk on fire"},
		{"auth failure", &AuthFailure{Msg: "Login failed", Err: errors.New("x")}, nil, "Login failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.err, "Fallback", tt.fields...))
		})
	}
}

func TestLocalErrors_LowerCaseWithDisplayText(t *testing.T) {
	for _, d := range displayText {
		msg := d.err.Error()
		assert.Equal(t, strings.ToLower(msg[:1]), msg[:1], msg)
		assert.Equal(t, strings.ToUpper(d.text[:1]), d.text[:1], d.text)
		assert.Equal(t, d.text, Describe(d.err, "Fallback"))
	}
	assert.Equal(t, "cart is empty", ErrEmptyCart.Error())
	assert.Equal(t, "Cart is empty", Describe(ErrEmptyCart, ""))
}

func TestDescribe_NoFallbackUsesStatus(t *testing.T) {
	err := &api.APIError{StatusCode: 502}
	assert.Equal(t, "api error: 502 Bad Gateway", Describe(err, ""))
}

func TestAuthFailure_Unwrap(t *testing.T) {
	err := &AuthFailure{Msg: "m", Err: api.ErrUnavailable}
	assert.ErrorIs(t, err, api.ErrUnavailable)
	assert.Equal(t, "m", err.Error())
}

func TestCheckoutError(t *testing.T) {
	inner := &api.APIError{StatusCode: 400, Body: []byte(`{"detail":"nope"}`)}
	err := &CheckoutError{OrderID: 7, Cancelled: true, Err: inner}

	assert.ErrorIs(t, err, inner)
	assert.Equal(t, "order 7: api error: 400 Bad Request", err.Error())
	assert.Equal(t, "nope (order #7 was cancelled)", Describe(err, "Checkout failed"))
}
