package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Status(ctx context.Context) error

	Dashboard(ctx context.Context) error
	Products(ctx context.Context, args []string) error
	Categories(ctx context.Context) error
	Suppliers(ctx context.Context) error
	AddCategory(ctx context.Context) error
	AddSupplier(ctx context.Context) error
	AddProduct(ctx context.Context) error
	SetStock(ctx context.Context, args []string) error

	Cart(ctx context.Context) error
	AddToCart(ctx context.Context, args []string) error
	RemoveFromCart(ctx context.Context, args []string) error
	SetQuantity(ctx context.Context, args []string) error
	Checkout(ctx context.Context) error
	Orders(ctx context.Context, args []string) error
	CancelOrder(ctx context.Context, args []string) error
	CompleteOrder(ctx context.Context, args []string) error
}

const (
	helpLoggedOut = "Available commands: register, login, status, exit"
	helpLoggedIn  = "Available commands: dashboard, (p)roducts [search], lowstock, categories, suppliers, " +
		"addcategory, addsupplier, addproduct, setstock <id> <n>, cart, add <id>, remove <id>, " +
		"qty <id> <n>, checkout, orders [pending|completed|cancelled], cancel <id>, complete <id>, " +
		"status, logout, exit"
)

// runREPL starts a simple read-eval-print loop for the stockkeeper CLI.
//
// It reads a line from reader, parses the first token as the command, and
// dispatches to methods on 'a'. Commands other than help, register, login,
// status and exit require a signed-in user. The loop exits on EOF, when the
// user types "exit" or "quit", or once ctx is done.
//
// Each command runs while holding busy, and a command is never started after
// ctx is done; a caller that observes ctx done and then acquires busy knows
// no command is running or will run.
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader, busy sync.Locker) {
	for {
		if ctx.Err() != nil {
			return
		}
		printlnFn(fmt.Sprintf("sk%s> ", statusFn()))

		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		busy.Lock()
		if ctx.Err() != nil {
			busy.Unlock()
			return
		}
		quit := dispatch(ctx, a, parts[0], parts[1:])
		busy.Unlock()

		if quit || errors.Is(err, io.EOF) {
			return
		}
	}
}

// dispatch runs one command and reports whether the REPL should stop.
func dispatch(ctx context.Context, a execIface, cmd string, args []string) bool {
	switch cmd {
	case "help":
		if a.isLoggedIn() {
			printlnFn(helpLoggedIn)
		} else {
			printlnFn(helpLoggedOut)
		}
		return false
	case "register":
		_ = a.Register(ctx)
		return false
	case "login":
		_ = a.Login(ctx)
		return false
	case "status", "whoami":
		_ = a.Status(ctx)
		return false
	case "exit", "quit":
		printlnFn("Bye!")
		return true
	}

	if !a.isLoggedIn() {
		if isCommand(cmd) {
			printlnFn("Please log in first (type 'login' or 'register')")
		} else {
			printlnFn("Unknown command:", cmd)
		}
		return false
	}

	switch cmd {
	case "logout":
		_ = a.Logout(ctx)
	case "dashboard":
		_ = a.Dashboard(ctx)
	case "p", "products":
		_ = a.Products(ctx, args)
	case "lowstock":
		_ = a.Products(ctx, append([]string{"--low"}, args...))
	case "categories":
		_ = a.Categories(ctx)
	case "suppliers":
		_ = a.Suppliers(ctx)
	case "addcategory":
		_ = a.AddCategory(ctx)
	case "addsupplier":
		_ = a.AddSupplier(ctx)
	case "addproduct":
		_ = a.AddProduct(ctx)
	case "setstock":
		_ = a.SetStock(ctx, args)
	case "cart":
		_ = a.Cart(ctx)
	case "add":
		_ = a.AddToCart(ctx, args)
	case "remove":
		_ = a.RemoveFromCart(ctx, args)
	case "qty":
		_ = a.SetQuantity(ctx, args)
	case "checkout":
		_ = a.Checkout(ctx)
	case "orders":
		_ = a.Orders(ctx, args)
	case "cancel":
		_ = a.CancelOrder(ctx, args)
	case "complete":
		_ = a.CompleteOrder(ctx, args)
	default:
		printlnFn("Unknown command:", cmd)
	}
	return false
}

func isCommand(cmd string) bool {
	switch cmd {
	case "logout", "dashboard", "p", "products", "lowstock", "categories", "suppliers",
		"addcategory", "addsupplier", "addproduct", "setstock", "cart", "add", "remove",
		"qty", "checkout", "orders", "cancel", "complete":
		return true
	}
	return false
}
