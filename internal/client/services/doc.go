// Package services contains the application services the CLI commands call.
//
// AuthService owns the session: it logs in, registers, logs out, verifies a
// persisted token at start-up and refreshes the access token when the HTTP
// client reports a 401. InventoryService covers catalogue listing, creation,
// stock adjustment and the dashboard summary. OrderService keeps the local
// cart and turns it into an order on checkout.
//
// Describe turns any error returned here into the one-line text shown to the
// user.
package services
