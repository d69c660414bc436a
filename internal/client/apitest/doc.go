// Package apitest is an in-memory stand-in for the inventory backend.
//
// Backend serves the same REST surface as the real service under /api/:
// cookie-based refresh, HS256 access tokens, categories, suppliers, products
// with filters, orders and order items with stock bookkeeping. It records
// every request and exposes switches (expired access tokens, failing refresh,
// injected one-shot failures, paginated lists) for tests. cmd/devserver runs
// it as a standalone server.
package apitest
