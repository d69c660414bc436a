// Package models defines the payloads exchanged with the inventory backend and
// the client-side cart line.
//
// JSON tags follow the backend's field names (for example a category's name
// travels as "cname"). Money values use decimal.Decimal so prices such as
// "19.99" survive the round trip without float rounding.
package models
