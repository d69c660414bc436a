package cli

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// getStatus renders the prompt suffix: the signed-in user and the
// connectivity mode, e.g. " (demo online)".
func (a *App) getStatus() string {
	var parts []string
	if a.authService != nil {
		if u := a.authService.CurrentUser(); u != nil {
			parts = append(parts, u.Username)
		}
	}
	if mode := a.Mode(); mode != "" {
		parts = append(parts, string(mode))
	}
	if len(parts) == 0 {
		return ""
	}
	return fmt.Sprintf(" (%s)", strings.Join(parts, " "))
}

// Root prints the welcome line, starts the connectivity watcher and runs the
// REPL on the app's input. It returns when the REPL ends or ctx is done. On
// ctx done it first waits for a command that is still running, so the caller
// may close the database afterwards; a read blocked on the terminal does not
// hold it up.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printlnFn("Welcome to stockkeeper CLI (type 'help' for commands)")
	if u := a.authService.CurrentUser(); u != nil {
		printlnFn(fmt.Sprintf("Signed in as %s", u.Username))
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	var busy sync.Mutex
	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.getStatus, a.reader, &busy)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Wait for the command in flight; no new one starts after this.
		busy.Lock()
		busy.Unlock()
	}
}
