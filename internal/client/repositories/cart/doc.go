// Package cart persists the shopping cart in the local database so it
// survives a restart of the CLI.
//
// The cart is small and always written as a whole: Save replaces every line
// in one transaction, keeping the order in which products were added. Each
// line stores a JSON snapshot of the product so prices and stock limits are
// available offline; the snapshot is refreshed whenever the product list is
// reloaded. Lines carry the username of the account that filled the cart, so
// a different account signing in on the same machine does not inherit it.
package cart
